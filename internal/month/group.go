package month

import (
	"monthcal/internal/model"
)

// MaxDays is the number of buckets GroupByDay always allocates.
const MaxDays = 31

// DayBuckets maps day-of-month (1..31) to the events starting that day, in
// input order.
type DayBuckets map[int][]model.Event

// GroupByDay partitions events by the day-of-month of their start. Events
// without timing are skipped and counted. Keys 1..31 are always present.
func GroupByDay(events []model.Event) (DayBuckets, int) {
	buckets := make(DayBuckets, MaxDays)
	skipped := 0

	for _, ev := range events {
		day, ok := ev.StartDay()
		if !ok {
			skipped++
			continue
		}
		buckets[day] = append(buckets[day], ev)
	}

	for d := 1; d <= MaxDays; d++ {
		if _, ok := buckets[d]; !ok {
			buckets[d] = []model.Event{}
		}
	}

	return buckets, skipped
}

// Count returns the total number of events across all buckets.
func (b DayBuckets) Count() int {
	n := 0
	for _, evs := range b {
		n += len(evs)
	}
	return n
}
