package httpx

import "github.com/rs/zerolog"

// RequestBuilder is the set of steps the parser drives to populate a
// request. *Request implements it.
type RequestBuilder interface {
	SetMethod(Method) error
	SetRequestTarget(string) error
	SetHTTPVersion(string) error
	AddHeader(name, value string) error
	SetBody(string) error
	Complete() error
}

var _ RequestBuilder = (*Request)(nil)

// WithDiagnostics wraps r so that every step is logged at debug level and
// every failure at error level, tagged with r's trace and request IDs.
// Validation results pass through unchanged.
func WithDiagnostics(r *Request, lg zerolog.Logger) RequestBuilder {
	return &diagnosticBuilder{
		next: r,
		lg:   lg.With().Str("trace_id", r.TraceID()).Str("request_id", r.RequestID()).Logger(),
	}
}

type diagnosticBuilder struct {
	next RequestBuilder
	lg   zerolog.Logger
}

func (d *diagnosticBuilder) SetMethod(m Method) error {
	err := d.next.SetMethod(m)
	d.log(err, "method set", func(e *zerolog.Event) { e.Stringer("method", m) })
	return err
}

func (d *diagnosticBuilder) SetRequestTarget(target string) error {
	err := d.next.SetRequestTarget(target)
	d.log(err, "request target set", func(e *zerolog.Event) { e.Str("target", target) })
	return err
}

func (d *diagnosticBuilder) SetHTTPVersion(token string) error {
	err := d.next.SetHTTPVersion(token)
	d.log(err, "HTTP version set", func(e *zerolog.Event) { e.Str("version", token) })
	return err
}

func (d *diagnosticBuilder) AddHeader(name, value string) error {
	err := d.next.AddHeader(name, value)
	d.log(err, "header added", func(e *zerolog.Event) { e.Str("name", name).Str("value", value) })
	return err
}

func (d *diagnosticBuilder) SetBody(body string) error {
	err := d.next.SetBody(body)
	d.log(err, "body set", func(e *zerolog.Event) { e.Int("bytes", len(body)) })
	return err
}

func (d *diagnosticBuilder) Complete() error {
	err := d.next.Complete()
	d.log(err, "request complete", func(*zerolog.Event) {})
	return err
}

func (d *diagnosticBuilder) log(err error, msg string, fields func(*zerolog.Event)) {
	if err != nil {
		e := d.lg.Error().Err(err).Int("status", StatusOf(err))
		fields(e)
		e.Msg(msg + " failed")
		return
	}
	e := d.lg.Debug()
	if e == nil {
		return
	}
	fields(e)
	e.Msg(msg)
}
