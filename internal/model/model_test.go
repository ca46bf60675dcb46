package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTimed(t *testing.T) {
	raw := RawEvent{
		Summary: "Standup",
		Start:   &EventTime{DateTime: "2024-06-03T09:00:00Z"},
		End:     &EventTime{DateTime: "2024-06-03T09:15:00Z"},
	}

	ev, err := raw.Resolve("primary", time.UTC)
	require.NoError(t, err)

	timed, ok := ev.When.(TimedEvent)
	require.True(t, ok, "expected TimedEvent, got %T", ev.When)
	assert.Equal(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), timed.Start)
	assert.Equal(t, time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC), timed.End)
	assert.Equal(t, "primary", ev.CalendarID)

	day, ok := ev.StartDay()
	assert.True(t, ok)
	assert.Equal(t, 3, day)
}

func TestResolveTimedConvertsToDisplayZone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	raw := RawEvent{
		Summary: "Late call",
		Start:   &EventTime{DateTime: "2024-06-03T20:00:00Z"},
		End:     &EventTime{DateTime: "2024-06-03T21:00:00Z"},
	}

	ev, err := raw.Resolve("work", loc)
	require.NoError(t, err)

	day, _ := ev.StartDay()
	assert.Equal(t, 4, day, "20:00Z is the next morning at UTC+9")
}

func TestResolveAllDay(t *testing.T) {
	raw := RawEvent{
		Summary: "Holiday",
		Start:   &EventTime{Date: "2024-06-19"},
		End:     &EventTime{Date: "2024-06-20"},
	}

	ev, err := raw.Resolve("holidays", time.UTC)
	require.NoError(t, err)

	allDay, ok := ev.When.(AllDayEvent)
	require.True(t, ok, "expected AllDayEvent, got %T", ev.When)
	assert.Equal(t, time.Date(2024, 6, 19, 0, 0, 0, 0, time.UTC), allDay.StartDate)
	assert.Equal(t, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), allDay.EndDate)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawEvent
		wantErr error
	}{
		{
			name:    "no start",
			raw:     RawEvent{Summary: "x"},
			wantErr: ErrNoStart,
		},
		{
			name:    "empty start object",
			raw:     RawEvent{Summary: "x", Start: &EventTime{}},
			wantErr: ErrNoStart,
		},
		{
			name: "timed start with date end",
			raw: RawEvent{
				Start: &EventTime{DateTime: "2024-06-03T09:00:00Z"},
				End:   &EventTime{Date: "2024-06-04"},
			},
			wantErr: ErrMixedTiming,
		},
		{
			name: "date start with timed end",
			raw: RawEvent{
				Start: &EventTime{Date: "2024-06-03"},
				End:   &EventTime{DateTime: "2024-06-04T00:00:00Z"},
			},
			wantErr: ErrMixedTiming,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.raw.Resolve("c", time.UTC)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := RawEvent{Start: &EventTime{DateTime: "yesterday"}}.Resolve("c", time.UTC)
	assert.Error(t, err)
}

func TestResolveMissingEndUsesStart(t *testing.T) {
	ev, err := RawEvent{Start: &EventTime{Date: "2024-06-05"}}.Resolve("c", time.UTC)
	require.NoError(t, err)
	allDay := ev.When.(AllDayEvent)
	assert.Equal(t, allDay.StartDate, allDay.EndDate)
}

func TestShortLocation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"123 Main St, Springfield", "123 Main St"},
		{"Room 4", "Room 4"},
		{"", ""},
		{"  Cafe , Town, State", "Cafe"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Event{Location: tt.in}.ShortLocation())
	}
}

func TestStartDayWithoutTiming(t *testing.T) {
	_, ok := Event{Title: "floating"}.StartDay()
	assert.False(t, ok)
}
