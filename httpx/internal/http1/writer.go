package http1

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// WriteResponse writes a complete HTTP/1.1 response and asks the peer to
// close the connection. Header fields are written in name order; a caller
// supplied Connection field is replaced.
func WriteResponse(bw *bufio.Writer, status int, reason string, hdr map[string]string, body []byte) error {
	if reason == "" {
		reason = Reason(status)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason); err != nil {
		return err
	}
	names := make([]string, 0, len(hdr))
	for k := range hdr {
		if strings.EqualFold(k, "Connection") || SanitizeHeaderKey(k) == "" {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", k, SanitizeHeaderValue(hdr[k])); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(bw, "Connection: close\r\n\r\n"); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return nil
}

// Reason returns the reason phrase for code, or "" if unknown.
func Reason(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Content Too Large"
	case 414:
		return "URI Too Long"
	case 429:
		return "Too Many Requests"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 505:
		return "HTTP Version Not Supported"
	default:
		return ""
	}
}

// SanitizeHeaderValue removes CR/LF and control chars except HTAB.
func SanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
