// ABOUTME: Operator target instant parsing
// ABOUTME: Reads civil time in a fixed UTC offset and converts it to UTC
package trigger

import (
	"fmt"
	"strings"
	"time"
)

// TargetLayout is the operator input format.
const TargetLayout = "2006-01-02 15:04:05"

// DefaultOffset is the operator's fixed UTC offset (UTC+9).
const DefaultOffset = 9 * time.Hour

// ParseTarget interprets text as civil time at the given fixed offset from
// UTC and returns the equivalent UTC instant.
func ParseTarget(text string, offset time.Duration) (time.Time, error) {
	zone := time.FixedZone(zoneName(offset), int(offset/time.Second))
	t, err := time.ParseInLocation(TargetLayout, strings.TrimSpace(text), zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid target %q (want %s): %w", text, TargetLayout, err)
	}
	return t.UTC(), nil
}

func zoneName(offset time.Duration) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("UTC%s%02d:%02d", sign, h, m)
}
