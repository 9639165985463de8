// Package httpx is a minimal HTTP/1.1 server core: it reads one request per
// connection, validates it into a Request, applies a per-client rate gate
// and writes a response.
//
// Highlights
//   - Parser: request line, header fields and Content-Length body; typed
//     ProtocolError failures carrying the status the client receives
//     (400, 413, 414, 431, 500, 501, 505).
//   - Request: builder with a forward-only state machine, UUID trace and
//     request IDs, version resolution to the best compatible HTTP version.
//   - Server: goroutine per connection, 429 with Retry-After for denied
//     clients, buffered responses with Connection: close, graceful shutdown,
//     zerolog logging and metrics hooks.
//
// No keep-alive, chunked transfer coding, TLS or HTTP/2.
//
// Quick start:
//
//	s := &httpx.Server{Addr: ":8080", Limiter: ratelimit.New()}
//	s.Handler = httpx.HandlerFunc(func(w httpx.ResponseWriter, r *httpx.Request) {
//	    w.Header().Set("Content-Type", "text/plain; charset=utf-8")
//	    w.WriteHeader(200)
//	    w.Write([]byte("hello"))
//	})
//	if err := s.ListenAndServe(); err != nil { log.Fatal(err) }
package httpx
