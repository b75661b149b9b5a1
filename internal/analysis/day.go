package analysis

import (
	"fmt"
	"math"
	"time"
)

// Reading timestamps arrive from two client generations: the current one
// sends "YYYY-MM-DD HH:MM:SS", legacy panels send "DD/MM/YYYY HH:MM".
// Formats are tried in that fixed order; the first successful parse wins.
var readingTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
}

// ParseReadingTimestamp parses a textual reading timestamp in one of the
// two recognized formats.
func ParseReadingTimestamp(s string) (time.Time, error) {
	for _, layout := range readingTimestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// DayNumber returns the 1-based day of the process a reading falls on:
// day 1 covers the first 24 hours from the start instant, day 2 the
// next, and so on. A reading earlier than the process start yields a
// value below 1, which callers must treat as anomalous.
func DayNumber(reading, start time.Time) int {
	elapsed := reading.Sub(start)
	return int(math.Floor(elapsed.Hours()/24)) + 1
}

// DayNumberFromString is the textual-timestamp variant of DayNumber. It
// returns 0 when start is the zero time (no active process) and falls
// back to day 1 when the text parses in neither format, preserving the
// long-standing ingestion behavior for malformed panels.
func DayNumberFromString(s string, start time.Time) int {
	if start.IsZero() {
		return 0
	}
	ts, err := ParseReadingTimestamp(s)
	if err != nil {
		return 1
	}
	return DayNumber(ts, start)
}
