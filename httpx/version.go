package httpx

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a protocol version the server speaks.
type Version int

const (
	VersionUnknown Version = iota
	HTTP10
	HTTP11
)

type versionInfo struct {
	literal      string
	major, minor int
}

// supported, lowest first.
var versions = [...]versionInfo{
	HTTP10: {"HTTP/1.0", 1, 0},
	HTTP11: {"HTTP/1.1", 1, 1},
}

func (v Version) String() string {
	if v <= VersionUnknown || int(v) >= len(versions) {
		return "unknown"
	}
	return versions[v].literal
}

// Major and Minor return the version numbers, 0 for VersionUnknown.
func (v Version) Major() int {
	if v <= VersionUnknown || int(v) >= len(versions) {
		return 0
	}
	return versions[v].major
}

func (v Version) Minor() int {
	if v <= VersionUnknown || int(v) >= len(versions) {
		return 0
	}
	return versions[v].minor
}

// BestCompatibleVersion returns the supported version matching token
// exactly, or else the highest supported version with the same major number
// and a lower minor number. token must look like "HTTP/<major>.<minor>";
// anything else fails with ErrMalformedVersion. ErrUnsupportedVersion means
// the token is well formed but nothing compatible is supported.
func BestCompatibleVersion(token string) (Version, error) {
	major, minor, ok := parseVersion(token)
	if !ok {
		return VersionUnknown, fmt.Errorf("%w: %q", ErrMalformedVersion, token)
	}
	best := VersionUnknown
	for v := HTTP10; int(v) < len(versions); v++ {
		info := versions[v]
		if info.literal == token {
			return v, nil
		}
		if info.major == major && info.minor < minor {
			best = v
		}
	}
	if best == VersionUnknown {
		return VersionUnknown, fmt.Errorf("%w: %q", ErrUnsupportedVersion, token)
	}
	return best, nil
}

func parseVersion(token string) (major, minor int, ok bool) {
	rest, found := strings.CutPrefix(token, "HTTP/")
	if !found {
		return 0, 0, false
	}
	ma, mi, found := strings.Cut(rest, ".")
	if !found || !isDigits(ma) || !isDigits(mi) {
		return 0, 0, false
	}
	var err error
	if major, err = strconv.Atoi(ma); err != nil {
		return 0, 0, false
	}
	if minor, err = strconv.Atoi(mi); err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
