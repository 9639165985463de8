package httpx

import (
	"fmt"

	"dqx0.com/go/httpcore/httpx/internal/http1"
)

// Method is one of the request methods the server knows.
type Method int

const (
	MethodUnknown Method = iota
	MethodGet
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
)

var methodNames = [...]string{
	MethodUnknown: "",
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
	MethodPatch:   "PATCH",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod maps a request-line token to a Method. Methods are case
// sensitive. A token that is not a valid token fails with a 400
// ProtocolError; a valid token naming no known method fails with 501.
func ParseMethod(token string) (Method, error) {
	if !http1.IsToken(token) {
		return MethodUnknown, protocolError(StatusBadRequest, fmt.Errorf("%w: %q", ErrMalformedMethod, token))
	}
	for m := MethodGet; int(m) < len(methodNames); m++ {
		if methodNames[m] == token {
			return m, nil
		}
	}
	return MethodUnknown, protocolError(StatusNotImplemented, fmt.Errorf("%w: %q", ErrUnknownMethod, token))
}
