package httpx

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"dqx0.com/go/httpcore/httpx/internal/http1"
)

const (
	DefaultMaxLineBytes   = 8 << 10
	DefaultMaxHeaderBytes = 64 << 10
	DefaultMaxBodyBytes   = 1 << 20
)

// Parser turns one request on a byte stream into a validated Request. The
// zero value uses the default limits and logs nothing.
type Parser struct {
	// MaxLineBytes bounds the request line and each header line.
	MaxLineBytes int
	// MaxHeaderBytes bounds the header block as a whole.
	MaxHeaderBytes int
	MaxBodyBytes   int64
	// Logger receives the request diagnostics.
	Logger zerolog.Logger
}

// Parse reads one request from rd. Failures that must reach the client are
// *ProtocolError values; io.EOF means rd ended before a request started.
// The request is nil whenever err is not.
func (p *Parser) Parse(rd io.Reader, clientID string) (*Request, error) {
	br, ok := rd.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(rd)
	}
	wr := &http1.Reader{
		BR:                  br,
		MaxHeaderBytes:      orDefault(p.MaxLineBytes, DefaultMaxLineBytes),
		MaxTotalHeaderBytes: orDefault(p.MaxHeaderBytes, DefaultMaxHeaderBytes),
		MaxBodyBytes:        orDefault(p.MaxBodyBytes, DefaultMaxBodyBytes),
	}

	pr, err := wr.ReadRequestLine()
	if err != nil {
		return nil, wireError(err)
	}
	req := NewRequest()
	req.ClientID = clientID
	b := WithDiagnostics(req, p.Logger.With().Str("client", clientID).Logger())

	m, err := ParseMethod(pr.Method)
	if err != nil {
		p.Logger.Warn().Err(err).Str("client", clientID).Str("trace_id", req.TraceID()).Msg("rejected method")
		return nil, err
	}
	if err := b.SetMethod(m); err != nil {
		return nil, err
	}
	if err := b.SetRequestTarget(pr.RequestURI); err != nil {
		return nil, err
	}
	if err := b.SetHTTPVersion(pr.Proto); err != nil {
		return nil, err
	}

	if err := wr.ReadHeader(pr); err != nil {
		return nil, wireError(err)
	}
	for _, f := range pr.Fields {
		if err := b.AddHeader(f.Name, f.Value); err != nil {
			if errors.Is(err, ErrInvalidArgument) {
				err = protocolError(StatusBadRequest, err)
			}
			return nil, err
		}
	}

	if err := wr.ReadBody(pr); err != nil {
		return nil, wireError(err)
	}
	if pr.ContentLength >= 0 {
		if err := b.SetBody(string(pr.Body)); err != nil {
			return nil, err
		}
	}
	if err := b.Complete(); err != nil {
		return nil, err
	}
	req.CorrelationID = correlationID(req.Header())
	return req, nil
}

// wireError maps a tokenizer failure to the status the client gets.
// Transport errors other than a truncated request pass through.
func wireError(err error) error {
	switch {
	case err == io.EOF:
		return err
	case errors.Is(err, http1.ErrRequestLineTooLong):
		return protocolError(StatusURITooLong, fmt.Errorf("%w: %v", ErrBadRequest, err))
	case errors.Is(err, http1.ErrHeaderTooLarge):
		return protocolError(StatusRequestHeaderFieldsTooLarge, fmt.Errorf("%w: %v", ErrHeaderTooLarge, err))
	case errors.Is(err, http1.ErrBodyTooLarge):
		return protocolError(StatusContentTooLarge, fmt.Errorf("%w: %v", ErrBodyTooLarge, err))
	case errors.Is(err, http1.ErrTransferEncoding):
		return protocolError(StatusNotImplemented, err)
	case errors.Is(err, http1.ErrMalformedRequestLine),
		errors.Is(err, http1.ErrMalformedHeader),
		errors.Is(err, http1.ErrBadContentLength),
		errors.Is(err, io.ErrUnexpectedEOF):
		return protocolError(StatusBadRequest, fmt.Errorf("%w: %v", ErrBadRequest, err))
	default:
		return err
	}
}

func orDefault[T int | int64](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
