// Package month holds the date arithmetic behind the month grid: the month
// window for a reference date, the leading padding borrowed from the previous
// month, and grouping of events into per-day buckets.
package month

import "time"

// Window is the first and last calendar day of a month, both at midnight in
// the reference date's location.
type Window struct {
	First time.Time
	Last  time.Time
}

// WindowFor returns the window of the month containing ref.
func WindowFor(ref time.Time) Window {
	return windowOf(ref.Year(), ref.Month(), ref.Location())
}

func windowOf(year int, m time.Month, loc *time.Location) Window {
	return Window{
		First: time.Date(year, m, 1, 0, 0, 0, 0, loc),
		Last:  time.Date(year, m, DaysIn(year, m), 0, 0, 0, 0, loc),
	}
}

// DaysIn returns the length of the month in days (28..31).
func DaysIn(year int, m time.Month) int {
	// Day 0 of the following month normalizes to the last day of m.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Previous returns the window of the preceding month. January steps back to
// December of the previous year.
func (w Window) Previous() Window {
	year, m := w.First.Year(), w.First.Month()-1
	if m < time.January {
		m = time.December
		year--
	}
	return windowOf(year, m, w.First.Location())
}

// Next returns the window of the following month.
func (w Window) Next() Window {
	year, m := w.First.Year(), w.First.Month()+1
	if m > time.December {
		m = time.January
		year++
	}
	return windowOf(year, m, w.First.Location())
}

// Days is the number of days in the window.
func (w Window) Days() int {
	return w.Last.Day()
}

// FetchRange is the half-open interval [First 00:00, day after Last 00:00).
func (w Window) FetchRange() (start, end time.Time) {
	return w.First, w.Last.AddDate(0, 0, 1)
}

// Contains reports whether t falls inside the window's fetch range.
func (w Window) Contains(t time.Time) bool {
	start, end := w.FetchRange()
	return !t.Before(start) && t.Before(end)
}

// Title formats the window as "June 2024".
func (w Window) Title() string {
	return w.First.Format("January 2006")
}
