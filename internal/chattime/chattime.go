// Package chattime computes chat day separators. Both functions are pure
// functions of the timestamps they are given, so recomputing them after
// older pages are prepended always yields the same separators: nothing here
// depends on page boundaries.
package chattime

import "time"

// ShowSeparator reports whether a separator belongs between two adjacent
// messages in display order: true when they fall on different local calendar
// days. A zero prev (no earlier message) always gets a separator.
func ShowSeparator(cur, prev time.Time) bool {
	if prev.IsZero() {
		return true
	}
	return !sameDay(cur, prev)
}

// Label formats the separator text for a message timestamp relative to now:
// "Today", "Yesterday", month+day within the current year, otherwise
// month+day+year.
func Label(ts, now time.Time) string {
	switch {
	case sameDay(ts, now):
		return "Today"
	case sameDay(ts, now.AddDate(0, 0, -1)):
		return "Yesterday"
	case ts.Year() == now.Year():
		return ts.Format("Jan 2")
	default:
		return ts.Format("Jan 2, 2006")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
