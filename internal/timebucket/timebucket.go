// Package timebucket groups timestamped values into calendar buckets aligned to a time zone.
package timebucket

import (
	"sort"
	"time"
)

const (
	// Day is the size of a daily bucket.
	Day = 24 * time.Hour

	// Week is the size of a weekly bucket. Weeks start on Monday.
	Week = 7 * Day
)

// Bucket holds the values whose timestamps fall into [Start, Start+size).
type Bucket[T any] struct {
	Start  time.Time
	Values []T
}

// Count is the number of values in the bucket starting at Start.
type Count struct {
	Start time.Time `json:"start"`
	N     int       `json:"n"`
}

// Start returns the beginning of the bucket of the given size that contains t,
// aligned to the local calendar of loc rather than to UTC.
// Days and weeks follow the wall clock of loc, so a day with a DST change
// is still one bucket. A nil loc is treated as UTC.
func Start(t time.Time, size time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}

	switch size {
	case Day:
		return StartOfDay(t, loc)
	case Week:
		return StartOfWeek(t, loc)
	}

	_, offsetSec := t.In(loc).Zone()
	offset := time.Duration(offsetSec) * time.Second

	// Truncate counts from the zero time (Monday, 0001-01-01 UTC),
	// so multiples of other sizes line up with the fixed offset of the zone.
	return t.UTC().Add(offset).Truncate(size).Add(-offset)
}

// StartOfDay returns the local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}

	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// StartOfWeek returns the local midnight of the Monday starting the week containing t.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}

	local := t.In(loc)
	back := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()

	return time.Date(y, m, d-back, 0, 0, 0, 0, loc)
}

// Group splits items into buckets of the given size using at to read each timestamp.
// Buckets are sorted by start time, values keep their input order.
func Group[T any](items []T, at func(T) time.Time, size time.Duration, loc *time.Location) []Bucket[T] {
	if len(items) == 0 {
		return nil
	}

	index := make(map[int64]int)
	var buckets []Bucket[T]
	for _, item := range items {
		start := Start(at(item), size, loc)
		key := start.UnixNano()

		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket[T]{Start: start})
		}
		buckets[i].Values = append(buckets[i].Values, item)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})

	return buckets
}

// ByDay groups items into local calendar days.
func ByDay[T any](items []T, at func(T) time.Time, loc *time.Location) []Bucket[T] {
	return Group(items, at, Day, loc)
}

// ByWeek groups items into local calendar weeks.
func ByWeek[T any](items []T, at func(T) time.Time, loc *time.Location) []Bucket[T] {
	return Group(items, at, Week, loc)
}

// Counts reduces buckets to the number of values in each of them.
func Counts[T any](buckets []Bucket[T]) []Count {
	counts := make([]Count, 0, len(buckets))
	for _, b := range buckets {
		counts = append(counts, Count{Start: b.Start, N: len(b.Values)})
	}

	return counts
}

// AverageCount returns the arithmetic mean of the counts, 0 when there are none.
func AverageCount(counts []Count) float64 {
	if len(counts) == 0 {
		return 0
	}

	total := 0
	for _, c := range counts {
		total += c.N
	}

	return float64(total) / float64(len(counts))
}
