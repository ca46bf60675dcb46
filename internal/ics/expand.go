package ics

import (
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "monthcal/internal/log"
	"monthcal/internal/model"
)

const defaultMaxOccurrences = 5000

// occurrence is one concrete instance of a vevent.
type occurrence struct {
	ev    vevent
	start time.Time
	end   time.Time
}

// expand turns parsed VEVENTs into concrete occurrences overlapping
// [rangeStart, rangeEnd), handling RRULE, EXDATE and RECURRENCE-ID overrides.
// The result is ordered by start time.
func expand(events []vevent, rangeStart, rangeEnd time.Time, maxPerEvent int) ([]occurrence, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, errors.New("ics: range end before range start")
	}
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrences
	}

	overrides := make(map[string][]vevent)
	var bases []vevent
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		bases = append(bases, ev)
	}

	var out []occurrence
	for _, ev := range bases {
		if ev.RRule == "" {
			if overlaps(ev.Start, ev.End, rangeStart, rangeEnd) {
				out = append(out, occurrence{ev: ev, start: ev.Start, end: ev.End})
			}
			continue
		}
		occ, truncated := expandRecurring(ev, overrides[ev.UID], rangeStart, rangeEnd, maxPerEvent)
		if truncated {
			appLog.Error("ics recurrence truncated", errors.New("max occurrences reached"),
				"uid", ev.UID, "cap", maxPerEvent)
		}
		out = append(out, occ...)
	}

	slices.SortStableFunc(out, func(a, b occurrence) int {
		return a.start.Compare(b.start)
	})
	return out, nil
}

func expandRecurring(ev vevent, overrides []vevent, rangeStart, rangeEnd time.Time, maxPerEvent int) ([]occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	duration := ev.End.Sub(ev.Start)
	// Widen the lower bound so instances that started before the range but
	// still run into it are kept.
	lower := rangeStart.Add(-duration).In(ev.Start.Location())
	upper := rangeEnd.In(ev.Start.Location())

	starts := set.Between(lower, upper, true)
	truncated := false
	if len(starts) > maxPerEvent {
		starts = starts[:maxPerEvent]
		truncated = true
	}

	out := make([]occurrence, 0, len(starts))
	for _, s := range starts {
		occ := occurrence{ev: ev, start: s, end: s.Add(duration)}
		if o, ok := overrideFor(overrides, s); ok {
			occ = occurrence{ev: o, start: o.Start, end: o.End}
		}
		if overlaps(occ.start, occ.end, rangeStart, rangeEnd) {
			out = append(out, occ)
		}
	}
	return out, truncated
}

func overrideFor(overrides []vevent, start time.Time) (vevent, bool) {
	for _, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return vevent{}, false
}

// overlaps treats [start, end) as half-open; zero-length events overlap
// when their start lies in the range.
func overlaps(start, end, rangeStart, rangeEnd time.Time) bool {
	if !end.After(start) {
		return !start.Before(rangeStart) && start.Before(rangeEnd)
	}
	return start.Before(rangeEnd) && end.After(rangeStart)
}

// raw renders an occurrence in the {date}/{dateTime} shape shared with the
// Google source.
func (o occurrence) raw() model.RawEvent {
	ev := model.RawEvent{Summary: o.ev.Summary, Location: o.ev.Location}
	if o.ev.AllDay {
		ev.Start = model.DateOf(o.start)
		ev.End = model.DateOf(o.end)
	} else {
		ev.Start = model.DateTimeOf(o.start)
		ev.End = model.DateTimeOf(o.end)
	}
	return ev
}
