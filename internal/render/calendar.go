// Package render turns a month grid and its day buckets into a static HTML
// page. It performs no I/O.
package render

import (
	"strconv"

	"golang.org/x/net/html"

	"monthcal/internal/model"
	"monthcal/internal/month"
)

// WeekdayNames is the fixed header order of the grid.
var WeekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

const (
	timeLayout = "03:04PM"
	allDayText = "all day"
)

const pageStyle = `body { font-family: sans-serif; margin: 1em; }
.month-title { font-size: 1.6em; font-weight: bold; margin-bottom: .5em; }
table.month { border-collapse: collapse; table-layout: fixed; width: 100%; }
table.month th, table.month td { border: 1px solid #ccc; vertical-align: top; padding: 4px; }
td.day { height: 7em; }
td.prev-month { color: #aaa; background: #f6f6f6; }
.day-number { font-weight: bold; }
.event { margin-top: 4px; font-size: .85em; }
.event-time, .event-location { color: #555; }
`

// Calendar builds the document for grid, placing each day's events from
// buckets. Padding days carry no events.
func Calendar(grid month.Grid, buckets month.DayBuckets) Document {
	cells := make([]Cell, 0, grid.LeadingWeekday+grid.Window.Days())

	for _, d := range grid.PaddingDays() {
		cells = append(cells, Cell{
			Class:    "day prev-month",
			Children: []Node{dayNumber(d)},
		})
	}

	for d := 1; d <= grid.Window.Days(); d++ {
		children := []Node{dayNumber(d)}
		for _, ev := range buckets[d] {
			children = append(children, eventNode(ev))
		}
		cells = append(cells, Cell{Class: "day", Children: children})
	}

	header := Row{Class: "weekdays", Header: true}
	for _, name := range WeekdayNames {
		header.Cells = append(header.Cells, Cell{Class: "weekday", Children: []Node{Text{Value: name}}})
	}

	title := grid.Window.Title()
	return Document{
		Title: title,
		Style: pageStyle,
		Attrs: []html.Attribute{{Key: "data-ready", Val: "true"}},
		Body: []Node{
			Text{Class: "month-title", Value: title},
			Table{Class: "month", Header: &header, Rows: weeks(cells)},
		},
	}
}

// HTML renders grid and buckets to markup.
func HTML(grid month.Grid, buckets month.DayBuckets) ([]byte, error) {
	return Calendar(grid, buckets).Bytes()
}

func weeks(cells []Cell) []Row {
	rows := make([]Row, 0, (len(cells)+6)/7)
	for len(cells) > 0 {
		n := min(7, len(cells))
		rows = append(rows, Row{Class: "week", Cells: cells[:n]})
		cells = cells[n:]
	}
	return rows
}

func dayNumber(d int) Node {
	return Text{Class: "day-number", Value: strconv.Itoa(d)}
}

func eventNode(ev model.Event) Node {
	lines := []Node{
		Text{Class: "event-title", Value: ev.Title},
		Text{Class: "event-time", Value: TimeLabel(ev.When)},
	}
	if loc := ev.ShortLocation(); loc != "" {
		lines = append(lines, Text{Class: "event-location", Value: loc})
	}
	return Group{Class: "event", Children: lines}
}

// TimeLabel is "09:00AM - 09:15AM" for timed events and "all day" otherwise.
func TimeLabel(t model.Timing) string {
	switch v := t.(type) {
	case model.TimedEvent:
		return v.Start.Format(timeLayout) + " - " + v.End.Format(timeLayout)
	default:
		return allDayText
	}
}
