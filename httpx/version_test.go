package httpx

import (
	"errors"
	"testing"
)

func TestBestCompatibleVersion(t *testing.T) {
	cases := []struct {
		token string
		want  Version
		err   error
	}{
		{"HTTP/1.1", HTTP11, nil},
		{"HTTP/1.0", HTTP10, nil},
		{"HTTP/1.2", HTTP11, nil},
		{"HTTP/1.9", HTTP11, nil},
		{"HTTP/2.0", VersionUnknown, ErrUnsupportedVersion},
		{"HTTP/9.9", VersionUnknown, ErrUnsupportedVersion},
		{"HTTP/0.9", VersionUnknown, ErrUnsupportedVersion},
		{"HTTP/1", VersionUnknown, ErrMalformedVersion},
		{"HTTP/1.x", VersionUnknown, ErrMalformedVersion},
		{"http/1.1", VersionUnknown, ErrMalformedVersion},
		{"HTTPS/1.1", VersionUnknown, ErrMalformedVersion},
		{"", VersionUnknown, ErrMalformedVersion},
		{"HTTP/.1", VersionUnknown, ErrMalformedVersion},
	}
	for _, tc := range cases {
		got, err := BestCompatibleVersion(tc.token)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q: err=%v, want %v", tc.token, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("%q: version=%v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestVersionString(t *testing.T) {
	if HTTP11.String() != "HTTP/1.1" || HTTP10.String() != "HTTP/1.0" {
		t.Fatalf("literals: %s %s", HTTP10, HTTP11)
	}
	if VersionUnknown.String() != "unknown" {
		t.Fatalf("unknown=%s", VersionUnknown)
	}
	if HTTP11.Major() != 1 || HTTP11.Minor() != 1 {
		t.Fatalf("HTTP11 = %d.%d", HTTP11.Major(), HTTP11.Minor())
	}
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"} {
		m, err := ParseMethod(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if m.String() != name {
			t.Fatalf("%s round trip = %s", name, m)
		}
	}
	if _, err := ParseMethod("BREW"); StatusOf(err) != StatusNotImplemented || !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("BREW: err=%v status=%d", err, StatusOf(err))
	}
	if _, err := ParseMethod("get"); StatusOf(err) != StatusNotImplemented {
		t.Fatalf("lower-case method: status=%d", StatusOf(err))
	}
	if _, err := ParseMethod("GE(T"); StatusOf(err) != StatusBadRequest || !errors.Is(err, ErrMalformedMethod) {
		t.Fatalf("GE(T: err=%v", err)
	}
}
