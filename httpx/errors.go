package httpx

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest         = errors.New("httpx: bad request")
	ErrHeaderTooLarge     = errors.New("httpx: header too large")
	ErrBodyTooLarge       = errors.New("httpx: body too large")
	ErrInvalidArgument    = errors.New("httpx: invalid argument")
	ErrRequestAborted     = errors.New("httpx: request aborted by an earlier validation failure")
	ErrEmptyTarget        = errors.New("httpx: empty request target")
	ErrMalformedVersion   = errors.New("httpx: malformed HTTP version")
	ErrUnsupportedVersion = errors.New("httpx: HTTP version not supported")
	ErrMalformedMethod    = errors.New("httpx: malformed method")
	ErrUnknownMethod      = errors.New("httpx: method not implemented")
	ErrIncomplete         = errors.New("httpx: request line incomplete")
)

// ProtocolError is a failure that has to reach the client as a specific
// status code. The response layer writes Status verbatim.
type ProtocolError struct {
	Status int
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("httpx: protocol error %d %s", e.Status, StatusText(e.Status))
	}
	return fmt.Sprintf("%v (status %d)", e.Err, e.Status)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolError(status int, err error) *ProtocolError {
	return &ProtocolError{Status: status, Err: err}
}

// StatusOf returns the status a failure maps to: the ProtocolError status if
// err carries one, the status of a bare version or method sentinel, 500
// otherwise, 200 for nil.
func StatusOf(err error) int {
	if err == nil {
		return StatusOK
	}
	var pe *ProtocolError
	switch {
	case errors.As(err, &pe):
		return pe.Status
	case errors.Is(err, ErrUnsupportedVersion):
		return StatusHTTPVersionNotSupported
	case errors.Is(err, ErrUnknownMethod):
		return StatusNotImplemented
	case errors.Is(err, ErrMalformedVersion), errors.Is(err, ErrMalformedMethod):
		return StatusBadRequest
	}
	return StatusInternalServerError
}
