package analysis

import (
	"testing"
	"time"
)

func TestDayNumberBoundaries(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		reading time.Time
		want    int
	}{
		{"at start instant", start, 1},
		{"same day evening", start.Add(23*time.Hour + 59*time.Minute), 1},
		{"exactly 24h later", start.Add(24 * time.Hour), 2},
		{"day two morning", time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC), 2},
		{"one week later", start.Add(7 * 24 * time.Hour), 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DayNumber(tc.reading, start); got != tc.want {
				t.Fatalf("DayNumber(%v) = %d, want %d", tc.reading, got, tc.want)
			}
		})
	}
}

func TestDayNumberBeforeStartIsNotPositive(t *testing.T) {
	start := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	got := DayNumber(start.Add(-2*time.Hour), start)
	if got >= 1 {
		t.Fatalf("reading before start must yield day < 1, got %d", got)
	}
}

func TestParseReadingTimestampFormats(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-02 08:00:00", time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC)},
		{"02/01/2025 08:00", time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseReadingTimestamp(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseReadingTimestampRejectsGarbage(t *testing.T) {
	if _, err := ParseReadingTimestamp("ayer a las ocho"); err == nil {
		t.Fatal("expected error for unparsable timestamp")
	}
}

func TestDayNumberFromString(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		in    string
		start time.Time
		want  int
	}{
		{"no active process", "2025-01-02 08:00:00", time.Time{}, 0},
		{"iso format day two", "2025-01-02 08:00:00", start, 2},
		{"legacy format day two", "02/01/2025 08:00", start, 2},
		{"unparsable falls back to day one", "not-a-timestamp", start, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DayNumberFromString(tc.in, tc.start); got != tc.want {
				t.Fatalf("DayNumberFromString(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}
