package ebird

import (
	"strings"
	"time"
)

// Feed timestamp layouts, tried in order. eBird sends "obsDt" with a clock
// time for complete checklists and date-only for historical ones.
const (
	layoutDateTime = "2006-01-02 15:04"
	layoutDateOnly = "2006-01-02"
)

// ParseObservationTime normalizes a feed timestamp. It returns the parsed
// time, whether the raw value included a clock time, and whether parsing
// succeeded at all. An unparseable timestamp is a normal outcome, not an
// error: the caller keeps the observation with an unknown date.
func ParseObservationTime(raw string) (t time.Time, hasTime, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}

	if t, err := time.Parse(layoutDateTime, raw); err == nil {
		return t, true, true
	}
	if t, err := time.Parse(layoutDateOnly, raw); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}
