package httpx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// State is how far a Request has come through parsing. It only moves
// forward; a failed step moves it to StateAborted for good.
type State int

const (
	StateEmpty State = iota
	StateMethodSet
	StateTargetSet
	StateVersionResolved
	StateHeadersPopulated
	StateBodySet
	StateComplete
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateMethodSet:
		return "method-set"
	case StateTargetSet:
		return "target-set"
	case StateVersionResolved:
		return "version-resolved"
	case StateHeadersPopulated:
		return "headers-populated"
	case StateBodySet:
		return "body-set"
	case StateComplete:
		return "complete"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Request is an HTTP request built up field by field as it is parsed. A
// Request belongs to the goroutine serving its connection and is not safe
// for concurrent use.
type Request struct {
	method          Method
	target          string
	originalVersion string
	version         Version
	header          Header
	body            string
	hasBody         bool

	traceID   string
	requestID string

	state State
	err   error

	// ClientID identifies the peer for rate limiting, typically its address.
	ClientID string
	// CorrelationID is an identifier propagated by the peer (X-Request-Id or
	// the trace-id of a traceparent field), if any.
	CorrelationID string

	ctx context.Context
}

// NewRequest returns an empty request with fresh trace and request IDs.
func NewRequest() *Request {
	return &Request{
		header:    Header{},
		traceID:   genID(),
		requestID: genID(),
	}
}

func (r *Request) Method() Method                 { return r.method }
func (r *Request) RequestTarget() string          { return r.target }
func (r *Request) OriginalHTTPVersion() string    { return r.originalVersion }
func (r *Request) BestCompatibleVersion() Version { return r.version }
func (r *Request) Header() Header                 { return r.header }
func (r *Request) TraceID() string                { return r.traceID }
func (r *Request) RequestID() string              { return r.requestID }
func (r *Request) State() State                   { return r.state }

// Body returns the body and whether one was set.
func (r *Request) Body() (string, bool) { return r.body, r.hasBody }

// Err returns the failure that aborted the request, if any.
func (r *Request) Err() error { return r.err }

// SetMethod records the method. The method is expected to come from
// ParseMethod; it only fails on an aborted request.
func (r *Request) SetMethod(m Method) error {
	if err := r.live(); err != nil {
		return err
	}
	r.method = m
	r.advance(StateMethodSet)
	return nil
}

// SetRequestTarget fails with a 500 ProtocolError when target is empty.
func (r *Request) SetRequestTarget(target string) error {
	if err := r.live(); err != nil {
		return err
	}
	if target == "" {
		return r.abort(protocolError(StatusInternalServerError, ErrEmptyTarget))
	}
	r.target = target
	r.advance(StateTargetSet)
	return nil
}

// SetHTTPVersion stores the version token as received and resolves the best
// compatible version. An incompatible version fails with a 505
// ProtocolError, a malformed token with 400.
func (r *Request) SetHTTPVersion(token string) error {
	if err := r.live(); err != nil {
		return err
	}
	r.originalVersion = token
	v, err := BestCompatibleVersion(token)
	if err != nil {
		status := StatusHTTPVersionNotSupported
		if !errors.Is(err, ErrUnsupportedVersion) {
			status = StatusBadRequest
		}
		return r.abort(protocolError(status, err))
	}
	r.version = v
	r.advance(StateVersionResolved)
	return nil
}

// AddHeader stores value under name, replacing an earlier value for the
// same name. An empty name, or a value holding CR, LF or NUL, fails with
// ErrInvalidArgument.
func (r *Request) AddHeader(name, value string) error {
	if err := r.live(); err != nil {
		return err
	}
	if name == "" {
		return r.abort(fmt.Errorf("%w: empty header name", ErrInvalidArgument))
	}
	if strings.ContainsAny(value, "\r\n\x00") {
		return r.abort(fmt.Errorf("%w: header %q has an invalid value", ErrInvalidArgument, name))
	}
	r.header[name] = value
	r.advance(StateHeadersPopulated)
	return nil
}

// SetBody stores the body. It only fails on an aborted request.
func (r *Request) SetBody(body string) error {
	if err := r.live(); err != nil {
		return err
	}
	r.body = body
	r.hasBody = true
	r.advance(StateBodySet)
	return nil
}

// Complete checks that the request is well formed: method and target set
// and the version resolved. It fails with a 400 ProtocolError otherwise.
func (r *Request) Complete() error {
	if err := r.live(); err != nil {
		return err
	}
	switch {
	case r.method == MethodUnknown:
		return r.abort(protocolError(StatusBadRequest, fmt.Errorf("%w: no method", ErrIncomplete)))
	case r.target == "":
		return r.abort(protocolError(StatusBadRequest, fmt.Errorf("%w: no request target", ErrIncomplete)))
	case r.version == VersionUnknown:
		return r.abort(protocolError(StatusBadRequest, fmt.Errorf("%w: no HTTP version", ErrIncomplete)))
	}
	r.advance(StateComplete)
	return nil
}

// Context returns the request's context. If nil, returns Background.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with its context changed to ctx.
func WithContext(r *Request, ctx context.Context) *Request {
	if r == nil {
		return nil
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// MarshalZerologObject logs the request line and identifiers.
func (r *Request) MarshalZerologObject(e *zerolog.Event) {
	e.Str("trace_id", r.traceID).
		Str("request_id", r.requestID).
		Str("method", r.method.String()).
		Str("target", r.target).
		Str("version", r.originalVersion).
		Int("headers", len(r.header)).
		Str("state", r.state.String())
}

func (r *Request) live() error {
	if r.state == StateAborted {
		return fmt.Errorf("%w: %v", ErrRequestAborted, r.err)
	}
	return nil
}

func (r *Request) advance(s State) {
	if s > r.state {
		r.state = s
	}
}

func (r *Request) abort(err error) error {
	r.state = StateAborted
	r.err = err
	return err
}
