package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	ErrNoStart     = errors.New("event has no start")
	ErrMixedTiming = errors.New("event start and end use different timing kinds")
)

// Timing is either a TimedEvent or an AllDayEvent.
type Timing interface {
	// StartTime is the instant (or midnight of the date) the event begins.
	StartTime() time.Time
	timing()
}

// TimedEvent carries precise start/end instants in the display timezone.
type TimedEvent struct {
	Start time.Time
	End   time.Time
}

func (t TimedEvent) StartTime() time.Time { return t.Start }
func (TimedEvent) timing() {}

// AllDayEvent carries civil dates (midnight in the display timezone).
// EndDate is exclusive, as delivered by calendar sources.
type AllDayEvent struct {
	StartDate time.Time
	EndDate   time.Time
}

func (a AllDayEvent) StartTime() time.Time { return a.StartDate }
func (AllDayEvent) timing() {}

// Event is a single calendar entry as consumed by the grouper and renderer.
type Event struct {
	CalendarID string
	Title      string
	Location   string
	When       Timing
}

// StartDay returns the day-of-month the event starts on. ok is false for
// events without timing, which cannot be placed on the grid.
func (e Event) StartDay() (day int, ok bool) {
	if e.When == nil {
		return 0, false
	}
	return e.When.StartTime().Day(), true
}

// ShortLocation returns the first comma-delimited segment of Location.
func (e Event) ShortLocation() string {
	first, _, _ := strings.Cut(e.Location, ",")
	return strings.TrimSpace(first)
}

// EventTime mirrors the {dateTime} / {date} object used by calendar APIs.
// Exactly one of the fields is expected to be set.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

func (t *EventTime) empty() bool {
	return t == nil || (t.DateTime == "" && t.Date == "")
}

// RawEvent is the loosely-typed record returned by an event source.
type RawEvent struct {
	Summary  string     `json:"summary"`
	Location string     `json:"location,omitempty"`
	Start    *EventTime `json:"start,omitempty"`
	End      *EventTime `json:"end,omitempty"`
}

// Resolve converts a RawEvent into an Event, normalizing instants and dates
// into loc. A missing end collapses onto the start.
func (r RawEvent) Resolve(calendarID string, loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.Local
	}
	if r.Start.empty() {
		return Event{}, ErrNoStart
	}
	end := r.End
	if end.empty() {
		end = r.Start
	}

	ev := Event{
		CalendarID: calendarID,
		Title:      r.Summary,
		Location:   r.Location,
	}

	switch {
	case r.Start.DateTime != "":
		if end.DateTime == "" {
			return Event{}, ErrMixedTiming
		}
		start, err := time.Parse(time.RFC3339, r.Start.DateTime)
		if err != nil {
			return Event{}, fmt.Errorf("parse start dateTime: %w", err)
		}
		stop, err := time.Parse(time.RFC3339, end.DateTime)
		if err != nil {
			return Event{}, fmt.Errorf("parse end dateTime: %w", err)
		}
		ev.When = TimedEvent{Start: start.In(loc), End: stop.In(loc)}
	default:
		if end.Date == "" {
			return Event{}, ErrMixedTiming
		}
		start, err := time.ParseInLocation(dateLayout, r.Start.Date, loc)
		if err != nil {
			return Event{}, fmt.Errorf("parse start date: %w", err)
		}
		stop, err := time.ParseInLocation(dateLayout, end.Date, loc)
		if err != nil {
			return Event{}, fmt.Errorf("parse end date: %w", err)
		}
		ev.When = AllDayEvent{StartDate: start, EndDate: stop}
	}

	return ev, nil
}

// DateTimeOf and DateOf build EventTime values for sources that start from
// native time.Time values.
func DateTimeOf(t time.Time) *EventTime {
	return &EventTime{DateTime: t.Format(time.RFC3339)}
}

func DateOf(t time.Time) *EventTime {
	return &EventTime{Date: t.Format(dateLayout)}
}
