package mcp

import (
	"strings"
	"time"
)

// ResolveDate maps a free-form date reference to a concrete time.
// Recognized keywords resolve relative to now; anything else is tried as
// an RFC 3339 timestamp or a YYYY-MM-DD date. An unparseable reference
// falls back to now rather than failing the caller.
func ResolveDate(now time.Time, ref string) time.Time {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "today", "this week":
		return now
	case "tomorrow":
		return now.AddDate(0, 0, 1)
	case "yesterday":
		return now.AddDate(0, 0, -1)
	case "next week":
		return now.AddDate(0, 0, 7)
	}

	if t, err := time.Parse(time.RFC3339, ref); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(ref)); err == nil {
		return t
	}
	return now
}
