package jwt

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultExpiry is the fallback lifetime used when an expiry string does
// not match the unit grammar.
const DefaultExpiry = time.Hour

var expiryPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseExpiry converts a compact expiry string — an integer followed by
// one of s, m, h, d — into a duration. Anything that does not match the
// grammar yields [DefaultExpiry]. The same value drives both the signed
// token lifetime and the session-store record TTL, which keeps the two
// from drifting apart.
func ParseExpiry(expiry string) time.Duration {
	m := expiryPattern.FindStringSubmatch(expiry)
	if m == nil {
		return DefaultExpiry
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return DefaultExpiry
	}

	switch m[2] {
	case "s":
		return time.Duration(value) * time.Second
	case "m":
		return time.Duration(value) * time.Minute
	case "h":
		return time.Duration(value) * time.Hour
	case "d":
		return time.Duration(value) * 24 * time.Hour
	default:
		return DefaultExpiry
	}
}
