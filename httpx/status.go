package httpx

import "dqx0.com/go/httpcore/httpx/internal/http1"

const (
	StatusOK                          = 200
	StatusBadRequest                  = 400
	StatusNotFound                    = 404
	StatusContentTooLarge             = 413
	StatusURITooLong                  = 414
	StatusTooManyRequests             = 429
	StatusRequestHeaderFieldsTooLarge = 431
	StatusInternalServerError         = 500
	StatusNotImplemented              = 501
	StatusHTTPVersionNotSupported     = 505
)

// StatusText returns the reason phrase for code, or "" if unknown.
func StatusText(code int) string { return http1.Reason(code) }
