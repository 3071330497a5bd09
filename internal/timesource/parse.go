// ABOUTME: Strict parser for RFC 1123 style time header values
// ABOUTME: Converts "Mon, 02 Jan 2006 15:04:05 GMT" text into a UTC instant
package timesource

import (
	"fmt"
	"strings"
	"time"
)

// HeaderLayout is the only accepted time header format.
const HeaderLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// ParseError reports a time header value that does not match HeaderLayout.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed time header %q: %s", e.Value, e.Reason)
}

// ParseHeader parses raw into a UTC instant. There is no fallback format.
func ParseHeader(raw string) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) != 6 {
		return time.Time{}, &ParseError{Value: raw, Reason: fmt.Sprintf("expected 6 fields, got %d", len(fields))}
	}

	// time.Parse accepts any zone abbreviation and invents a zero offset for
	// unknown ones, so pin the zone explicitly.
	switch fields[5] {
	case "GMT", "UTC":
	default:
		return time.Time{}, &ParseError{Value: raw, Reason: fmt.Sprintf("unsupported zone %q", fields[5])}
	}

	t, err := time.Parse(HeaderLayout, raw)
	if err != nil {
		return time.Time{}, &ParseError{Value: raw, Reason: err.Error()}
	}
	return t.UTC(), nil
}

// FormatHeader renders t in HeaderLayout, always in GMT.
func FormatHeader(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05") + " GMT"
}
