package http1

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

var (
	ErrMalformedRequestLine = errors.New("http1: malformed request line")
	ErrRequestLineTooLong   = errors.New("http1: request line too long")
	ErrMalformedHeader      = errors.New("http1: malformed header field")
	ErrHeaderTooLarge       = errors.New("http1: header too large")
	ErrBadContentLength     = errors.New("http1: invalid Content-Length")
	ErrTransferEncoding     = errors.New("http1: transfer codings not supported")
	ErrBodyTooLarge         = errors.New("http1: body too large")

	errLineTooLong = errors.New("http1: line too long")
	errBareCR      = errors.New("http1: CR not followed by LF")
)

// Field is one header field as it appeared on the wire.
type Field struct {
	Name  string
	Value string
}

// ParsedRequest is a minimal representation parsed from the wire. Fields keep
// wire order and the name case as received.
type ParsedRequest struct {
	Method        string
	RequestURI    string
	Proto         string
	Fields        []Field
	ContentLength int64 // -1 when no Content-Length was sent
	Body          []byte
}

type Reader struct {
	BR *bufio.Reader
	// MaxHeaderBytes bounds a single line, request line included.
	MaxHeaderBytes int
	// MaxTotalHeaderBytes bounds the sum of all header field lines.
	MaxTotalHeaderBytes int
	MaxBodyBytes        int64
}

// ReadRequest reads one request. It returns io.EOF if the stream ended
// before the first byte of a request line.
func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	pr, err := r.ReadRequestLine()
	if err != nil {
		return nil, err
	}
	if err := r.ReadHeader(pr); err != nil {
		return nil, err
	}
	if err := r.ReadBody(pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// ReadRequestLine reads and splits the request line. The tokens are not
// validated beyond their count.
func (r *Reader) ReadRequestLine() (*ParsedRequest, error) {
	line, err := r.readLine()
	if err != nil {
		if errors.Is(err, errLineTooLong) {
			return nil, ErrRequestLineTooLong
		}
		if errors.Is(err, errBareCR) {
			return nil, ErrMalformedRequestLine
		}
		return nil, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 || parts[0] == "" || strings.IndexByte(parts[2], ' ') >= 0 {
		return nil, ErrMalformedRequestLine
	}
	return &ParsedRequest{
		Method:        parts[0],
		RequestURI:    parts[1],
		Proto:         parts[2],
		ContentLength: -1,
	}, nil
}

// ReadHeader reads header field lines up to the empty line ending the
// header block.
func (r *Reader) ReadHeader(pr *ParsedRequest) error {
	fields, err := r.readFields()
	if err != nil {
		return err
	}
	pr.Fields = fields
	return nil
}

// ReadBody reads a Content-Length delimited body. Requests without
// Content-Length have no body.
func (r *Reader) ReadBody(pr *ParsedRequest) error {
	if hasField(pr.Fields, "Transfer-Encoding") {
		return ErrTransferEncoding
	}
	cl, err := contentLength(pr.Fields)
	if err != nil {
		return err
	}
	if cl < 0 {
		return nil
	}
	if r.MaxBodyBytes > 0 && cl > r.MaxBodyBytes {
		return ErrBodyTooLarge
	}
	body := make([]byte, cl)
	if _, err := io.ReadFull(r.BR, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	pr.ContentLength = cl
	pr.Body = body
	return nil
}

func (r *Reader) readFields() ([]Field, error) {
	var fields []Field
	total := 0
	for {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return nil, ErrHeaderTooLarge
			}
			if errors.Is(err, errBareCR) {
				return nil, ErrMalformedHeader
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if line == "" {
			return fields, nil
		}
		total += len(line)
		if r.MaxTotalHeaderBytes > 0 && total > r.MaxTotalHeaderBytes {
			return nil, ErrHeaderTooLarge
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, ErrMalformedHeader
		}
		name := line[:i]
		if SanitizeHeaderKey(name) == "" {
			return nil, ErrMalformedHeader
		}
		fields = append(fields, Field{Name: name, Value: strings.Trim(line[i+1:], " \t")})
	}
}

func (r *Reader) readLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if b == '\n' {
			break
		}
		if b == '\r' {
			next, err := r.BR.ReadByte()
			if err != nil {
				if err == io.EOF {
					return "", io.ErrUnexpectedEOF
				}
				return "", err
			}
			if next != '\n' {
				return "", errBareCR
			}
			break
		}
		sb.WriteByte(b)
		if r.MaxHeaderBytes > 0 && sb.Len() > r.MaxHeaderBytes {
			return "", errLineTooLong
		}
	}
	return sb.String(), nil
}

// contentLength returns -1 when no Content-Length field is present. Repeated
// fields, or comma-separated lists, must all carry the same value.
func contentLength(fields []Field) (int64, error) {
	var n int64 = -1
	for _, f := range fields {
		if !strings.EqualFold(f.Name, "Content-Length") {
			continue
		}
		for _, v := range strings.Split(f.Value, ",") {
			m, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil || m < 0 {
				return 0, ErrBadContentLength
			}
			if n >= 0 && m != n {
				return 0, ErrBadContentLength
			}
			n = m
		}
	}
	return n, nil
}

func hasField(fields []Field, name string) bool {
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// SanitizeHeaderKey ensures header name is a valid token; returns empty string if invalid.
func SanitizeHeaderKey(k string) string {
	if k == "" {
		return ""
	}
	for i := 0; i < len(k); i++ {
		if !isTokenChar(k[i]) {
			return ""
		}
	}
	return k
}

// IsToken reports whether s is a non-empty RFC 9110 token.
func IsToken(s string) bool { return SanitizeHeaderKey(s) != "" }

func isTokenChar(c byte) bool {
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
