package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthcal/internal/model"
	"monthcal/internal/month"
)

func june2024(t *testing.T, raws ...model.RawEvent) (month.Grid, month.DayBuckets) {
	t.Helper()
	events := make([]model.Event, 0, len(raws))
	for _, r := range raws {
		ev, err := r.Resolve("primary", time.UTC)
		require.NoError(t, err)
		events = append(events, ev)
	}
	buckets, _ := month.GroupByDay(events)
	return month.GridFor(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)), buckets
}

var (
	standup = model.RawEvent{
		Summary: "Standup",
		Start:   &model.EventTime{DateTime: "2024-06-03T09:00:00Z"},
		End:     &model.EventTime{DateTime: "2024-06-03T09:15:00Z"},
	}
	holiday = model.RawEvent{
		Summary: "Holiday",
		Start:   &model.EventTime{Date: "2024-06-19"},
		End:     &model.EventTime{Date: "2024-06-20"},
	}
	lunch = model.RawEvent{
		Summary:  "Lunch",
		Location: "123 Main St, Springfield",
		Start:    &model.EventTime{DateTime: "2024-06-12T12:30:00Z"},
		End:      &model.EventTime{DateTime: "2024-06-12T13:30:00Z"},
	}
)

func render(t *testing.T, grid month.Grid, buckets month.DayBuckets) string {
	t.Helper()
	out, err := HTML(grid, buckets)
	require.NoError(t, err)
	return string(out)
}

func renderJune(t *testing.T, raws ...model.RawEvent) string {
	t.Helper()
	grid, buckets := june2024(t, raws...)
	return render(t, grid, buckets)
}

func TestTimedEvent(t *testing.T) {
	out := renderJune(t, standup)

	assert.Contains(t, out, `<div class="event-title">Standup</div>`)
	assert.Contains(t, out, `<div class="event-time">09:00AM - 09:15AM</div>`)
	assert.NotContains(t, out, allDayText)
}

func TestAllDayEvent(t *testing.T) {
	out := renderJune(t, holiday)

	assert.Contains(t, out, `<div class="event-title">Holiday</div>`)
	assert.Contains(t, out, `<div class="event-time">all day</div>`)
}

func TestLocationFirstSegment(t *testing.T) {
	out := renderJune(t, lunch)

	assert.Contains(t, out, `<div class="event-location">123 Main St</div>`)
	assert.NotContains(t, out, "Springfield")
}

func TestNoLocationLine(t *testing.T) {
	out := renderJune(t, standup)
	assert.NotContains(t, out, "event-location\">")
}

func TestDocumentStructure(t *testing.T) {
	out := renderJune(t, standup, holiday)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>June 2024</title>")
	assert.Contains(t, out, `data-ready="true"`)

	// Header row lists weekdays in fixed order.
	header := out[strings.Index(out, "<thead>"):strings.Index(out, "</thead>")]
	last := -1
	for _, name := range WeekdayNames {
		idx := strings.Index(header, "<th class=\"weekday\">"+name+"</th>")
		require.Greater(t, idx, last, "weekday %s out of order", name)
		last = idx
	}

	// June 1 2024 is a Saturday: six May days pad the first row.
	assert.Equal(t, 6, strings.Count(out, `class="day prev-month"`))
	assert.Equal(t, 30, strings.Count(out, `<td class="day">`))
	assert.Equal(t, 6, strings.Count(out, `<tr class="week">`))

	firstPad := strings.Index(out, `<div class="day-number">26</div>`)
	firstDay := strings.Index(out, `<td class="day"><div class="day-number">1</div>`)
	require.NotEqual(t, -1, firstPad)
	require.NotEqual(t, -1, firstDay)
	assert.Less(t, firstPad, firstDay)

	// The standup sits inside day 3's cell.
	day3 := strings.Index(out, `<td class="day"><div class="day-number">3</div>`)
	day4 := strings.Index(out, `<td class="day"><div class="day-number">4</div>`)
	standupAt := strings.Index(out, "Standup")
	assert.True(t, day3 < standupAt && standupAt < day4)
}

func TestPaddingDaysCarryNoEvents(t *testing.T) {
	doc := Calendar(june2024(t, standup))
	table := doc.Body[1].(Table)
	for _, c := range table.Rows[0].Cells[:6] {
		assert.Equal(t, "day prev-month", c.Class)
		assert.Len(t, c.Children, 1)
	}
}

func TestDeterministic(t *testing.T) {
	grid, buckets := june2024(t, standup, holiday, lunch)
	first := render(t, grid, buckets)
	second := render(t, grid, buckets)
	assert.Equal(t, first, second)
}

func TestEscapesText(t *testing.T) {
	out := renderJune(t, model.RawEvent{
		Summary: "<b>R&D</b>",
		Start:   &model.EventTime{Date: "2024-06-07"},
		End:     &model.EventTime{Date: "2024-06-08"},
	})
	assert.Contains(t, out, "&lt;b&gt;R&amp;D&lt;/b&gt;")
	assert.NotContains(t, out, "<b>R&D</b>")
}

func TestJanuaryPaddingFromDecember(t *testing.T) {
	grid := month.GridFor(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	buckets, _ := month.GroupByDay(nil)
	out := render(t, grid, buckets)

	assert.Equal(t, 1, strings.Count(out, `class="day prev-month"`))
	assert.Contains(t, out, `<td class="day prev-month"><div class="day-number">31</div></td>`)
	assert.Equal(t, 31, strings.Count(out, `<td class="day">`))
}

func TestTimeLabel(t *testing.T) {
	pm := model.TimedEvent{
		Start: time.Date(2024, 6, 3, 13, 5, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "01:05PM - 02:00PM", TimeLabel(pm))
	assert.Equal(t, "all day", TimeLabel(model.AllDayEvent{}))
}
