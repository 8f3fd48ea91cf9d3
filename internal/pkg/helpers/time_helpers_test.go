package helpers

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"90m":   90 * time.Minute,
		"":      time.Hour,
		"  2h ": 2 * time.Hour,
		"soon":  time.Hour,
	}
	for in, want := range cases {
		if got := ParseDuration(in, time.Hour); got != want {
			t.Fatalf("ParseDuration(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStartOfDayUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	in := time.Date(2025, 3, 10, 22, 30, 0, 0, loc) // 01:30 UTC on the 11th
	want := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if got := StartOfDayUTC(in); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
