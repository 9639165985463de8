package httpx

import "testing"

func TestHeaderCasePreservedLastWins(t *testing.T) {
	h := Header{}
	h.Set("X-Foo", "a")
	h.Set("X-Foo", "b")
	if got := len(h); got != 1 {
		t.Fatalf("len=%d, want 1", got)
	}
	if got := h.Get("X-Foo"); got != "b" {
		t.Fatalf("Get=%q, want %q", got, "b")
	}
	if got := h.Get("x-foo"); got != "b" {
		t.Fatalf("case-insensitive Get=%q", got)
	}
	h.Set("content-type", "text/plain")
	if _, ok := h["content-type"]; !ok {
		t.Fatal("name case not preserved")
	}
	h.Del("CONTENT-TYPE")
	if got := h.Get("Content-Type"); got != "" {
		t.Fatalf("after Del, got %q, want empty", got)
	}
	c := h.Clone()
	c.Set("X-Foo", "c")
	if h.Get("X-Foo") != "b" {
		t.Fatal("Clone shares storage")
	}
}

func TestHeaderGetCaseVariants(t *testing.T) {
	h := Header{"x-request-id": "lower", "X-REQUEST-ID": "upper", "X-Request-ID": "mixed"}
	for i := 0; i < 20; i++ {
		if got := h.Get("X-Request-Id"); got != "upper" {
			t.Fatalf("Get=%q, want %q", got, "upper")
		}
	}
	if got := h.Get("X-Request-ID"); got != "mixed" {
		t.Fatalf("exact match Get=%q", got)
	}
}
