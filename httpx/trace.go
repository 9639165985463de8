package httpx

import (
	"strings"
)

// correlationID returns the identifier the peer propagated, preferring an
// explicit X-Request-Id over the trace-id of a W3C traceparent.
func correlationID(h Header) string {
	if v := strings.TrimSpace(h.Get("X-Request-Id")); v != "" && len(v) <= 128 && isPrintable(v) {
		return v
	}
	if tid, _, _, ok := parseTraceparent(h.Get("Traceparent")); ok {
		return tid
	}
	return ""
}

// parseTraceparent extracts trace-id, span-id, flags. Returns ok=false if invalid.
func parseTraceparent(v string) (traceID, spanID, flags string, ok bool) {
	if v == "" {
		return "", "", "", false
	}
	v = strings.TrimSpace(v)
	parts := strings.Split(v, "-")
	if len(parts) < 4 {
		return "", "", "", false
	}
	ver, tid, sid, fl := parts[0], parts[1], parts[2], parts[3]
	if len(ver) != 2 || len(tid) != 32 || len(sid) != 16 || len(fl) != 2 {
		return "", "", "", false
	}
	if !isHex(tid) || !isHex(sid) || !isHex(fl) {
		return "", "", "", false
	}
	if strings.ToLower(tid) == strings.Repeat("0", 32) || strings.ToLower(sid) == strings.Repeat("0", 16) {
		return "", "", "", false
	}
	return strings.ToLower(tid), strings.ToLower(sid), strings.ToLower(fl), true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			continue
		}
		return false
	}
	return true
}

func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
