package month

import "time"

// Grid describes the layout of a Sunday-first month grid.
type Grid struct {
	Window Window

	// LeadingWeekday is the weekday of day 1 (0=Sunday..6=Saturday).
	LeadingWeekday int

	// PaddingStart is the last day of the previous month minus
	// LeadingWeekday. Padding days are PaddingStart+1 .. PrevLastDay.
	PaddingStart int
	PrevLastDay  int
}

// GridFor computes the grid for the month containing ref.
func GridFor(ref time.Time) Grid {
	w := WindowFor(ref)
	prev := w.Previous()
	lead := int(w.First.Weekday())

	return Grid{
		Window:         w,
		LeadingWeekday: lead,
		PaddingStart:   prev.Days() - lead,
		PrevLastDay:    prev.Days(),
	}
}

// PaddingDays lists the previous-month day numbers shown before day 1.
// It is empty when the month starts on a Sunday.
func (g Grid) PaddingDays() []int {
	out := make([]int, 0, g.LeadingWeekday)
	for d := g.PaddingStart + 1; d <= g.PrevLastDay; d++ {
		out = append(out, d)
	}
	return out
}
