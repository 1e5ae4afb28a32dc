package chattime

import (
	"testing"
	"time"
)

func TestShowSeparator_FirstMessageAlways(t *testing.T) {
	cur := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if !ShowSeparator(cur, time.Time{}) {
		t.Fatalf("expected separator before the first message")
	}
}

func TestShowSeparator_SameDayNone(t *testing.T) {
	morning := time.Date(2025, 3, 10, 0, 0, 1, 0, time.UTC)
	night := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	if ShowSeparator(night, morning) {
		t.Fatalf("no separator expected within one calendar day")
	}
}

func TestShowSeparator_DayBoundary(t *testing.T) {
	beforeMidnight := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	afterMidnight := time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC)
	if !ShowSeparator(afterMidnight, beforeMidnight) {
		t.Fatalf("separator expected across midnight even two seconds apart")
	}
}

func TestShowSeparator_StableAcrossPrependedPages(t *testing.T) {
	// Three messages over three days; computing separators over the full
	// display sequence must equal computing them page by page.
	msgs := []time.Time{
		time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	for i := range msgs {
		prev := time.Time{}
		if i > 0 {
			prev = msgs[i-1]
		}
		if !ShowSeparator(msgs[i], prev) {
			t.Fatalf("separator expected before message %d", i)
		}
	}
}

func TestLabel(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"today", time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC), "Today"},
		{"yesterday", time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC), "Yesterday"},
		{"same year", time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC), "Jan 5"},
		{"earlier year", time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC), "Dec 31, 2024"},
	}
	for _, tc := range cases {
		if got := Label(tc.ts, now); got != tc.want {
			t.Errorf("%s: Label = %q, want %q", tc.name, got, tc.want)
		}
	}
}
