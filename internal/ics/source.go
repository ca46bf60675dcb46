// Package ics reads ICS subscription feeds and exposes them as an event
// source alongside the Google Calendar API.
//
// Feeds are fetched with conditional GETs and a disk cache, parsed with
// golang-ical and expanded with rrule-go, so recurring events yield one
// record per instance just like the API's singleEvents mode.
package ics

import (
	"context"
	"fmt"

	"monthcal/internal/model"
	"monthcal/internal/month"
)

// Source serves events for a fixed set of feeds, keyed by feed ID.
type Source struct {
	fetcher        *Fetcher
	feeds          map[string]Feed
	maxOccurrences int
}

// NewSource registers feeds with the given fetcher.
func NewSource(fetcher *Fetcher, feeds ...Feed) *Source {
	s := &Source{
		fetcher:        fetcher,
		feeds:          make(map[string]Feed, len(feeds)),
		maxOccurrences: defaultMaxOccurrences,
	}
	for _, f := range feeds {
		s.feeds[f.ID] = f
	}
	return s
}

// ListEvents fetches, parses and expands the feed registered as calendarID,
// returning the occurrences overlapping w in start order.
func (s *Source) ListEvents(ctx context.Context, calendarID string, w month.Window) ([]model.RawEvent, error) {
	feed, ok := s.feeds[calendarID]
	if !ok {
		return nil, fmt.Errorf("ics: unknown feed %q", calendarID)
	}

	body, _, err := s.fetcher.Fetch(ctx, feed)
	if err != nil {
		return nil, err
	}

	events, err := parseFeed(feed, body)
	if err != nil {
		return nil, err
	}

	start, end := w.FetchRange()
	occ, err := expand(events, start, end, s.maxOccurrences)
	if err != nil {
		return nil, err
	}

	out := make([]model.RawEvent, 0, len(occ))
	for _, o := range occ {
		out = append(out, o.raw())
	}
	return out, nil
}
