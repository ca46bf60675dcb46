package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthcal/internal/model"
	"monthcal/internal/month"
)

type fakeSource struct {
	events map[string][]model.RawEvent
	err    error
	calls  []string
	window month.Window
}

func (f *fakeSource) ListEvents(_ context.Context, id string, w month.Window) ([]model.RawEvent, error) {
	f.calls = append(f.calls, id)
	f.window = w
	if f.err != nil {
		return nil, f.err
	}
	return f.events[id], nil
}

func timed(summary, start, end string) model.RawEvent {
	return model.RawEvent{
		Summary: summary,
		Start:   &model.EventTime{DateTime: start},
		End:     &model.EventTime{DateTime: end},
	}
}

func TestRun(t *testing.T) {
	src := &fakeSource{events: map[string][]model.RawEvent{
		"primary": {
			timed("Standup", "2024-06-03T09:00:00Z", "2024-06-03T09:15:00Z"),
			timed("Spillover", "2024-05-31T22:00:00Z", "2024-06-01T01:00:00Z"),
			{Summary: "No start"},
		},
		"team": {
			timed("Early sync", "2024-06-03T08:00:00Z", "2024-06-03T08:30:00Z"),
			{
				Summary:  "Holiday",
				Location: "123 Main St, Springfield",
				Start:    &model.EventTime{Date: "2024-06-19"},
				End:      &model.EventTime{Date: "2024-06-20"},
			},
		},
	}}

	dir := t.TempDir()
	p := New([]Target{{"primary", src}, {"team", src}}, time.UTC, dir)

	res, err := p.Run(context.Background(), time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []string{"primary", "team"}, src.calls)
	assert.Equal(t, 1, src.window.First.Day())
	assert.Equal(t, 30, src.window.Last.Day())

	assert.Equal(t, filepath.Join(dir, "calendar-2024-06.html"), res.Path)
	assert.Equal(t, map[string]int{"primary": 1, "team": 2}, res.PerSource)
	assert.Equal(t, 1, res.Skipped)

	require.Len(t, res.Buckets[3], 2)
	assert.Equal(t, "Early sync", res.Buckets[3][0].Title, "merged calendars are ordered by start")
	assert.Equal(t, "Standup", res.Buckets[3][1].Title)
	assert.Len(t, res.Buckets[19], 1)
	assert.Empty(t, res.Buckets[31])

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	page := string(data)
	assert.Equal(t, string(res.HTML), page)
	assert.Contains(t, page, "09:00AM - 09:15AM")
	assert.Contains(t, page, ">all day<")
	assert.Contains(t, page, ">123 Main St<")
	assert.NotContains(t, page, "Spillover")

	assert.Same(t, res, p.Last())
}

func TestRunIsIdempotent(t *testing.T) {
	src := &fakeSource{events: map[string][]model.RawEvent{
		"primary": {timed("Standup", "2024-06-03T09:00:00Z", "2024-06-03T09:15:00Z")},
	}}
	p := New([]Target{{"primary", src}}, time.UTC, t.TempDir())
	ref := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	first, err := p.Run(context.Background(), ref)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, first.HTML, second.HTML)
}

func TestRunSourceErrorAborts(t *testing.T) {
	src := &fakeSource{err: errors.New("401 unauthorized")}
	dir := t.TempDir()
	p := New([]Target{{"primary", src}}, time.UTC, dir)

	_, err := p.Run(context.Background(), time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary")
	assert.Contains(t, err.Error(), "401 unauthorized")
	assert.Nil(t, p.Last())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written on failure")
}

func TestRunJanuary(t *testing.T) {
	src := &fakeSource{}
	p := New([]Target{{"primary", src}}, time.UTC, t.TempDir())

	res, err := p.Run(context.Background(), time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []int{31}, res.Grid.PaddingDays())
	assert.True(t, strings.HasSuffix(res.Path, "calendar-2024-01.html"))
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New([]Target{{"primary", &fakeSource{}}}, time.UTC, t.TempDir())
	_, err := p.Run(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputPathUsesDisplayZone(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	p := New(nil, seoul, "/out")
	// 2024-06-30T20:00Z is already July 1st in Seoul.
	assert.Equal(t, "/out/calendar-2024-07.html", p.OutputPath(time.Date(2024, 6, 30, 20, 0, 0, 0, time.UTC)))
}
