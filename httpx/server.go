package httpx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"dqx0.com/go/httpcore/httpx/internal/http1"
	"dqx0.com/go/httpcore/internal/obs"
)

var ErrServerClosed = errors.New("httpx: server closed")

type Handler interface {
	ServeHTTP(ResponseWriter, *Request)
}

type HandlerFunc func(ResponseWriter, *Request)

func (f HandlerFunc) ServeHTTP(w ResponseWriter, r *Request) {
	f(w, r)
}

type ResponseWriter interface {
	Header() Header
	Write([]byte) (int, error)
	WriteHeader(status int)
}

// Gate admits or denies a client. *ratelimit.Registry implements it.
type Gate interface {
	Allow(clientID string) bool
}

// RetryAfterer is implemented by gates that can tell a denied client how
// long to wait.
type RetryAfterer interface {
	RetryAfter(clientID string) time.Duration
}

// Server serves one request per connection. The rate gate is consulted
// before the request is parsed; a denied client gets 429 and its request is
// never read.
type Server struct {
	Addr         string
	Handler      Handler
	Limiter      Gate
	Parser       Parser
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       zerolog.Logger
	Meter        obs.Meter

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	conns    sync.WaitGroup
}

func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on l until Shutdown, which makes it return
// ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()
	defer l.Close()

	s.Logger.Info().Str("addr", l.Addr().String()).Msg("serving")
	for {
		c, err := l.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			c.Close()
			return ErrServerClosed
		}
		s.conns.Add(1)
		s.mu.Unlock()
		go func() {
			defer s.conns.Done()
			s.serveConn(c)
		}()
	}
}

// Shutdown stops accepting connections and waits for in-flight ones to
// finish or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type responseBuffer struct {
	h       Header
	status  int
	wroteH  bool
	bodyBuf bytes.Buffer
}

func (w *responseBuffer) Header() Header {
	if w.h == nil {
		w.h = Header{}
	}
	return w.h
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.wroteH {
		return
	}
	if status == 0 {
		status = StatusOK
	}
	w.status = status
	w.wroteH = true
}

func (w *responseBuffer) Write(p []byte) (int, error) {
	if !w.wroteH {
		w.WriteHeader(StatusOK)
	}
	return w.bodyBuf.Write(p)
}

type errorBody struct {
	Error      string  `json:"error"`
	Status     int     `json:"status"`
	RequestID  string  `json:"request_id,omitempty"`
	RetryAfter float64 `json:"retry_after,omitempty"`
}

func (s *Server) serveConn(c net.Conn) {
	defer closeConn(c)
	start := time.Now()
	if s.ReadTimeout > 0 {
		_ = c.SetReadDeadline(start.Add(s.ReadTimeout))
	}
	clientID := clientIdentity(c.RemoteAddr())
	lg := s.Logger.With().Str("client", clientID).Logger()
	bw := bufio.NewWriter(c)

	finish := func(status int, hdr Header, body []byte) {
		if s.WriteTimeout > 0 {
			_ = c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
		}
		if hdr.Get("Content-Length") == "" {
			hdr.Set("Content-Length", strconv.Itoa(len(body)))
		}
		if err := http1.WriteResponse(bw, status, "", hdr, body); err != nil {
			lg.Warn().Err(err).Msg("write response failed")
			return
		}
		if err := bw.Flush(); err != nil {
			lg.Warn().Err(err).Msg("flush response failed")
		}
		s.meter().Counter("httpcore_requests_total", 1, obs.Label{Key: "status", Value: strconv.Itoa(status)})
		s.meter().Histogram("httpcore_request_duration_seconds", time.Since(start).Seconds())
	}

	if s.Limiter != nil && !s.Limiter.Allow(clientID) {
		eb := errorBody{Error: StatusText(StatusTooManyRequests), Status: StatusTooManyRequests}
		hdr := Header{}
		if ra, ok := s.Limiter.(RetryAfterer); ok {
			if d := ra.RetryAfter(clientID); d > 0 {
				secs := int64((d + time.Second - 1) / time.Second)
				hdr["Retry-After"] = strconv.FormatInt(secs, 10)
				eb.RetryAfter = d.Seconds()
			}
		}
		lg.Info().Msg("rate limited")
		finish(StatusTooManyRequests, jsonHeaders(hdr), marshalBody(eb))
		return
	}

	parser := s.Parser
	parser.Logger = lg
	req, err := parser.Parse(bufio.NewReader(c), clientID)
	if err != nil {
		var pe *ProtocolError
		if !errors.As(err, &pe) {
			if err != io.EOF {
				lg.Debug().Err(err).Msg("read request failed")
			}
			return
		}
		lg.Info().Err(err).Int("status", pe.Status).Msg("rejected request")
		eb := errorBody{Error: StatusText(pe.Status), Status: pe.Status}
		finish(pe.Status, jsonHeaders(Header{}), marshalBody(eb))
		return
	}

	ctx := WithRequestID(context.Background(), req.RequestID())
	ctx = WithTraceID(ctx, req.TraceID())
	if req.CorrelationID != "" {
		ctx = WithCorrelationID(ctx, req.CorrelationID)
	}
	req = WithContext(req, ctx)

	rw := &responseBuffer{h: Header{}}
	h := s.Handler
	if h == nil {
		h = HandlerFunc(func(w ResponseWriter, r *Request) {
			w.WriteHeader(StatusNotFound)
			w.Write([]byte("not found"))
		})
	}
	s.serveHandler(h, rw, req, lg)

	status := rw.status
	if status == 0 {
		status = StatusOK
	}
	hdr := rw.h
	for _, k := range []string{"X-Request-Id", "X-Trace-Id", "Content-Length"} {
		hdr.Del(k)
	}
	hdr["X-Request-Id"] = req.RequestID()
	hdr["X-Trace-Id"] = req.TraceID()
	hdr["Content-Length"] = strconv.Itoa(rw.bodyBuf.Len())
	body := rw.bodyBuf.Bytes()
	if req.Method() == MethodHead {
		body = nil
	}
	lg.Info().Object("request", req).Int("status", status).Msg("served")
	finish(status, hdr, body)
}

// serveHandler runs h and turns a panic into a 500 response.
func (s *Server) serveHandler(h Handler, rw *responseBuffer, req *Request, lg zerolog.Logger) {
	defer func() {
		if v := recover(); v != nil {
			lg.Error().Interface("panic", v).Str("trace_id", req.TraceID()).Msg("handler panicked")
			rw.h = Header{}
			rw.bodyBuf.Reset()
			rw.status = StatusInternalServerError
			rw.wroteH = true
			rw.h["Content-Type"] = "application/json"
			rw.bodyBuf.Write(marshalBody(errorBody{
				Error:     StatusText(StatusInternalServerError),
				Status:    StatusInternalServerError,
				RequestID: req.RequestID(),
			}))
		}
	}()
	h.ServeHTTP(rw, req)
}

func (s *Server) meter() obs.Meter {
	if s.Meter == nil {
		return obs.NopMeter{}
	}
	return s.Meter
}

func jsonHeaders(h Header) Header {
	h["Content-Type"] = "application/json"
	return h
}

func marshalBody(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// closeConn half-closes c and drains what the client already sent, so a
// response written before the request was consumed is not lost to a reset.
func closeConn(c net.Conn) {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
		_ = c.SetReadDeadline(time.Now().Add(drainTimeout))
		_, _ = io.Copy(io.Discard, io.LimitReader(c, drainLimit))
	}
	_ = c.Close()
}

const (
	drainTimeout = 250 * time.Millisecond
	drainLimit   = 256 << 10
)

// clientIdentity is the peer's host without the port.
func clientIdentity(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
