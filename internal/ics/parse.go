package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "monthcal/internal/log"
)

// vevent is the subset of a VEVENT needed to place it on a month grid.
type vevent struct {
	UID      string
	Summary  string
	Location string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on overrides of a single recurring instance.
	RecurrenceID *time.Time
}

// parseFeed parses an ICS payload. VEVENTs that cannot be read are logged
// and skipped.
func parseFeed(feed Feed, body []byte) ([]vevent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse %s: %w", feed.ID, err)
	}

	out := make([]vevent, 0, len(cal.Events()))
	for _, comp := range cal.Events() {
		ev, err := readVEvent(comp)
		if err != nil {
			appLog.Error("ics vevent skipped", err, "id", feed.ID)
			continue
		}
		out = append(out, ev)
	}

	appLog.Debug("ics parse completed", "id", feed.ID, "event_count", len(out))
	return out, nil
}

func readVEvent(ve *ical.VEvent) (vevent, error) {
	var out vevent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.AllDay = isDateValue(dtStart)

	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	} else if out.AllDay {
		out.End = start.AddDate(0, 0, 1)
	} else {
		out.End = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, start.Location()); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, start.Location()); err == nil {
			out.RecurrenceID = &t
		}
	}

	return out, nil
}

// isDateValue reports whether a DTSTART carries VALUE=DATE or a bare
// YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime parses the basic DATE / DATE-TIME / UTC forms used by
// EXDATE and RECURRENCE-ID. Floating values are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
