package httpx

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestRequest_SetRequestTarget(t *testing.T) {
	r := NewRequest()
	err := r.SetRequestTarget("")
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Status != StatusInternalServerError {
		t.Fatalf("empty target: err=%v", err)
	}
	if !errors.Is(err, ErrEmptyTarget) {
		t.Fatalf("empty target not ErrEmptyTarget: %v", err)
	}

	r = NewRequest()
	if err := r.SetRequestTarget("/index"); err != nil {
		t.Fatalf("SetRequestTarget: %v", err)
	}
	if got := r.RequestTarget(); got != "/index" {
		t.Fatalf("RequestTarget=%q", got)
	}
}

func TestRequest_SetHTTPVersion(t *testing.T) {
	r := NewRequest()
	if err := r.SetHTTPVersion("HTTP/1.1"); err != nil {
		t.Fatalf("SetHTTPVersion: %v", err)
	}
	if r.BestCompatibleVersion() != HTTP11 || r.OriginalHTTPVersion() != "HTTP/1.1" {
		t.Fatalf("version=%v original=%q", r.BestCompatibleVersion(), r.OriginalHTTPVersion())
	}

	r = NewRequest()
	err := r.SetHTTPVersion("HTTP/9.9")
	if StatusOf(err) != StatusHTTPVersionNotSupported || !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("HTTP/9.9: err=%v", err)
	}
	if r.BestCompatibleVersion() != VersionUnknown {
		t.Fatalf("unresolved version=%v", r.BestCompatibleVersion())
	}
	if r.OriginalHTTPVersion() != "HTTP/9.9" {
		t.Fatalf("original=%q", r.OriginalHTTPVersion())
	}

	r = NewRequest()
	if err := r.SetHTTPVersion("HTTP/one"); StatusOf(err) != StatusBadRequest {
		t.Fatalf("malformed version: status=%d err=%v", StatusOf(err), err)
	}
}

func TestRequest_AddHeader(t *testing.T) {
	for _, tc := range []struct{ name, value string }{
		{"", "v"},
		{"Name", "a\r\nb"},
		{"Name", "nul\x00"},
	} {
		r := NewRequest()
		if err := r.AddHeader(tc.name, tc.value); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("AddHeader(%q, %q): err=%v", tc.name, tc.value, err)
		}
	}

	r := NewRequest()
	if err := r.AddHeader("Host", "a"); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	if err := r.AddHeader("Host", "b"); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	if err := r.AddHeader("X-Empty", ""); err != nil {
		t.Fatalf("empty value: %v", err)
	}
	if diff := cmp.Diff(Header{"Host": "b", "X-Empty": ""}, r.Header()); diff != "" {
		t.Fatalf("headers (-want +got):\n%s", diff)
	}
}

func TestRequest_Body(t *testing.T) {
	r := NewRequest()
	if _, ok := r.Body(); ok {
		t.Fatal("body present before SetBody")
	}
	if err := r.SetBody(""); err != nil {
		t.Fatalf("SetBody: %v", err)
	}
	if b, ok := r.Body(); !ok || b != "" {
		t.Fatalf("Body=%q,%v", b, ok)
	}
}

func TestRequest_IDs(t *testing.T) {
	a, b := NewRequest(), NewRequest()
	for _, id := range []string{a.TraceID(), a.RequestID(), b.TraceID(), b.RequestID()} {
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("id %q is not a UUID: %v", id, err)
		}
	}
	seen := map[string]bool{}
	for _, id := range []string{a.TraceID(), a.RequestID(), b.TraceID(), b.RequestID()} {
		if seen[id] {
			t.Fatalf("id %q reused", id)
		}
		seen[id] = true
	}
	traceID := a.TraceID()
	_ = a.SetMethod(MethodGet)
	_ = a.SetRequestTarget("/")
	if a.TraceID() != traceID {
		t.Fatal("trace id changed after construction")
	}
}

func TestRequest_StateMachine(t *testing.T) {
	r := NewRequest()
	steps := []struct {
		do   func() error
		want State
	}{
		{func() error { return r.SetMethod(MethodPost) }, StateMethodSet},
		{func() error { return r.SetRequestTarget("/submit") }, StateTargetSet},
		{func() error { return r.SetHTTPVersion("HTTP/1.1") }, StateVersionResolved},
		{func() error { return r.AddHeader("Host", "x") }, StateHeadersPopulated},
		{func() error { return r.SetBody("data") }, StateBodySet},
		{func() error { return r.AddHeader("Late", "y") }, StateBodySet},
		{r.Complete, StateComplete},
	}
	for i, s := range steps {
		if err := s.do(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if r.State() != s.want {
			t.Fatalf("step %d: state=%v, want %v", i, r.State(), s.want)
		}
	}
}

func TestRequest_AbortIsFinal(t *testing.T) {
	r := NewRequest()
	_ = r.SetMethod(MethodGet)
	if err := r.SetHTTPVersion("HTTP/2.0"); err == nil {
		t.Fatal("expected failure")
	}
	if r.State() != StateAborted {
		t.Fatalf("state=%v", r.State())
	}
	if StatusOf(r.Err()) != StatusHTTPVersionNotSupported {
		t.Fatalf("Err=%v", r.Err())
	}
	for name, fn := range map[string]func() error{
		"SetMethod":        func() error { return r.SetMethod(MethodPut) },
		"SetRequestTarget": func() error { return r.SetRequestTarget("/x") },
		"AddHeader":        func() error { return r.AddHeader("A", "b") },
		"SetBody":          func() error { return r.SetBody("b") },
		"Complete":         r.Complete,
	} {
		if err := fn(); !errors.Is(err, ErrRequestAborted) {
			t.Fatalf("%s after abort: err=%v", name, err)
		}
	}
	if r.Method() != MethodGet || r.RequestTarget() != "" {
		t.Fatal("aborted request was mutated")
	}
}

func TestRequest_CompleteRequiresRequestLine(t *testing.T) {
	r := NewRequest()
	_ = r.SetRequestTarget("/")
	_ = r.SetHTTPVersion("HTTP/1.1")
	if err := r.Complete(); StatusOf(err) != StatusBadRequest || !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Complete without method: %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != StatusOK {
		t.Fatal("nil")
	}
	if StatusOf(errors.New("boom")) != StatusInternalServerError {
		t.Fatal("plain error")
	}
	for _, tc := range []struct {
		token string
		want  int
	}{
		{"HTTP/1.1", StatusOK},
		{"HTTP/2.0", StatusHTTPVersionNotSupported},
		{"HTTP/x", StatusBadRequest},
	} {
		_, err := BestCompatibleVersion(tc.token)
		if got := StatusOf(err); got != tc.want {
			t.Fatalf("StatusOf(BestCompatibleVersion(%q))=%d, want %d", tc.token, got, tc.want)
		}
	}
	wrapped := errors.Join(errors.New("ctx"), &ProtocolError{Status: StatusTooManyRequests})
	if StatusOf(wrapped) != StatusTooManyRequests {
		t.Fatalf("wrapped=%d", StatusOf(wrapped))
	}
}
