// Package gcal fetches events from the Google Calendar API.
package gcal

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	appLog "monthcal/internal/log"
	"monthcal/internal/model"
	"monthcal/internal/month"
)

// DefaultMaxResults matches the API's default page size.
const DefaultMaxResults = 250

// Client wraps the Google Calendar service.
type Client struct {
	svc        *calendar.Service
	maxResults int64
}

// NewClient creates a Calendar client. opts typically come from
// google.ClientOptions; tests pass option.WithEndpoint as well.
func NewClient(ctx context.Context, maxResults int64, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Client{svc: svc, maxResults: maxResults}, nil
}

// ListEvents lists single-instance events of calendarID overlapping w,
// ordered by start time. At most maxResults events are returned.
func (c *Client) ListEvents(ctx context.Context, calendarID string, w month.Window) ([]model.RawEvent, error) {
	start, end := w.FetchRange()

	appLog.Debug("gcal list events",
		"calendar", calendarID,
		"time_min", formatTime(start),
		"time_max", formatTime(end),
	)

	events, err := c.svc.Events.List(calendarID).
		TimeMin(formatTime(start)).
		TimeMax(formatTime(end)).
		MaxResults(c.maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", calendarID, err)
	}

	out := make([]model.RawEvent, 0, len(events.Items))
	for _, item := range events.Items {
		out = append(out, toRawEvent(item))
	}
	return out, nil
}

// formatTime renders t in UTC with the trailing Z the API expects.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toRawEvent(ev *calendar.Event) model.RawEvent {
	return model.RawEvent{
		Summary:  ev.Summary,
		Location: ev.Location,
		Start:    toEventTime(ev.Start),
		End:      toEventTime(ev.End),
	}
}

func toEventTime(t *calendar.EventDateTime) *model.EventTime {
	if t == nil {
		return nil
	}
	return &model.EventTime{DateTime: t.DateTime, Date: t.Date}
}
