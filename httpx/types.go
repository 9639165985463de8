package httpx

import "strings"

// Header maps field names to values. Names keep the case they were added
// with and a later value for the same name replaces the earlier one.
type Header map[string]string

// Get returns the value stored under key, falling back to a
// case-insensitive match. Among several case variants the lowest name in
// byte order wins.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	if v, ok := h[key]; ok {
		return v
	}
	var (
		match string
		found bool
	)
	for k := range h {
		if strings.EqualFold(k, key) && (!found || k < match) {
			match, found = k, true
		}
	}
	return h[match]
}

func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[key] = value
}

// Del removes every name equal to key ignoring case.
func (h Header) Del(key string) {
	if h == nil {
		return
	}
	for k := range h {
		if strings.EqualFold(k, key) {
			delete(h, k)
		}
	}
}

// Clone returns a copy of h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
