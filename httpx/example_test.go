package httpx_test

import (
	"fmt"
	"strings"

	"dqx0.com/go/httpcore/httpx"
)

// ExampleHeader shows that names keep their case and the last value wins.
func ExampleHeader() {
	h := httpx.Header{}
	h.Set("X-Foo", "a")
	h.Set("X-Foo", "b")
	fmt.Println(h.Get("x-foo"))
	h.Del("x-FOO")
	fmt.Println(len(h))
	// Output:
	// b
	// 0
}

func ExampleBestCompatibleVersion() {
	for _, token := range []string{"HTTP/1.1", "HTTP/1.7", "HTTP/2.0"} {
		v, err := httpx.BestCompatibleVersion(token)
		fmt.Println(token, v, httpx.StatusOf(err))
	}
	// Output:
	// HTTP/1.1 HTTP/1.1 200
	// HTTP/1.7 HTTP/1.1 200
	// HTTP/2.0 unknown 505
}

// ExampleRequest builds a request step by step.
func ExampleRequest() {
	r := httpx.NewRequest()
	_ = r.SetMethod(httpx.MethodPost)
	_ = r.SetRequestTarget("/submit")
	_ = r.SetHTTPVersion("HTTP/1.1")
	_ = r.AddHeader("Content-Type", "text/plain")
	_ = r.SetBody("hi")
	if err := r.Complete(); err != nil {
		fmt.Println(err)
		return
	}
	body, _ := r.Body()
	fmt.Println(r.Method(), r.RequestTarget(), r.BestCompatibleVersion(), body, r.State())
	// Output:
	// POST /submit HTTP/1.1 hi complete
}

func ExampleParser_Parse() {
	var p httpx.Parser
	r, err := p.Parse(strings.NewReader("GET /a HTTP/1.0\r\nHost: x\r\n\r\n"), "client-1")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(r.Method(), r.RequestTarget(), r.Header().Get("Host"), r.ClientID)

	_, err = p.Parse(strings.NewReader("GET /a HTTP/3.0\r\n\r\n"), "client-1")
	fmt.Println(httpx.StatusOf(err))
	// Output:
	// GET /a x client-1
	// 505
}
