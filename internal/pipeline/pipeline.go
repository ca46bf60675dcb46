// Package pipeline runs one fetch, group, render and write pass for a month.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"monthcal/internal/fsutil"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
	"monthcal/internal/month"
	"monthcal/internal/render"
)

// EventSource returns raw events of one calendar overlapping a month window,
// ordered by start time.
type EventSource interface {
	ListEvents(ctx context.Context, calendarID string, w month.Window) ([]model.RawEvent, error)
}

// Target binds a calendar ID to the source that serves it.
type Target struct {
	CalendarID string
	Source     EventSource
}

// Result summarizes a run.
type Result struct {
	Path      string
	Grid      month.Grid
	Buckets   month.DayBuckets
	PerSource map[string]int
	Skipped   int
	HTML      []byte
}

// Pipeline renders the month grid for a report date. Run may be called
// repeatedly (e.g. from a cron job); the most recent result is kept.
type Pipeline struct {
	targets   []Target
	location  *time.Location
	outputDir string

	mu   sync.RWMutex
	last *Result
}

func New(targets []Target, loc *time.Location, outputDir string) *Pipeline {
	if loc == nil {
		loc = time.Local
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &Pipeline{targets: targets, location: loc, outputDir: outputDir}
}

// OutputPath is the file a run for reportDate writes.
func (p *Pipeline) OutputPath(reportDate time.Time) string {
	return filepath.Join(p.outputDir, "calendar-"+reportDate.In(p.location).Format("2006-01")+".html")
}

// Run fetches every target in order, renders the month containing
// reportDate and writes it to OutputPath. A source error aborts the run.
func (p *Pipeline) Run(ctx context.Context, reportDate time.Time) (*Result, error) {
	grid := month.GridFor(reportDate.In(p.location))
	w := grid.Window

	res := &Result{Grid: grid, PerSource: make(map[string]int, len(p.targets))}
	var events []model.Event

	for _, t := range p.targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raws, err := t.Source.ListEvents(ctx, t.CalendarID, w)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", t.CalendarID, err)
		}

		kept := 0
		for _, raw := range raws {
			ev, err := raw.Resolve(t.CalendarID, p.location)
			if err != nil {
				res.Skipped++
				appLog.Error("event skipped", err, "calendar", t.CalendarID, "summary", raw.Summary)
				continue
			}
			// Sources return overlapping events; only those starting this
			// month belong on the grid.
			if !w.Contains(ev.When.StartTime()) {
				continue
			}
			events = append(events, ev)
			kept++
		}
		res.PerSource[t.CalendarID] = kept
		appLog.Info("calendar fetched", "calendar", t.CalendarID, "received", len(raws), "kept", kept)
	}

	slices.SortStableFunc(events, func(a, b model.Event) int {
		return a.When.StartTime().Compare(b.When.StartTime())
	})

	buckets, skipped := month.GroupByDay(events)
	res.Skipped += skipped
	res.Buckets = buckets

	page, err := render.HTML(grid, buckets)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.HTML = page

	res.Path = p.OutputPath(reportDate)
	if err := fsutil.WriteFileAtomic(res.Path, page, fsutil.PublicFile, fsutil.PublicDir); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.Path, err)
	}

	appLog.Info("calendar rendered",
		"month", w.Title(),
		"path", res.Path,
		"events", buckets.Count(),
		"skipped", res.Skipped,
	)

	p.mu.Lock()
	p.last = res
	p.mu.Unlock()

	return res, nil
}

// Last returns the most recent successful result, or nil.
func (p *Pipeline) Last() *Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
