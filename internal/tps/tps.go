// Package tps aggregates server performance samples over time windows.
//
// Windows are open on both ends: a sample taken exactly at after or before is
// not part of (after, before), so adjacent windows never share a sample.
// Aggregates over an empty window report ok == false; OrNoData turns that into
// the NoData sentinel for consumers that need a single number.
package tps

import (
	"sort"
	"time"

	"github.com/woozymasta/nadir/internal/models"
)

// NoData is the value reported for an aggregate over a window without samples.
const NoData = -1.0

// Field selects the measurement an aggregate is computed over.
type Field int

// Sample fields.
const (
	FieldTPS Field = iota
	FieldPlayersOnline
	FieldCPU
	FieldRAM
	FieldEntities
	FieldChunks
	FieldFreeDisk
)

// String returns the field name used in logs and JSON.
func (f Field) String() string {
	switch f {
	case FieldTPS:
		return "tps"
	case FieldPlayersOnline:
		return "players_online"
	case FieldCPU:
		return "cpu"
	case FieldRAM:
		return "ram"
	case FieldEntities:
		return "entities"
	case FieldChunks:
		return "chunks"
	case FieldFreeDisk:
		return "free_disk"
	default:
		return "unknown"
	}
}

// Value reads the field from a sample.
func (f Field) Value(s models.PerformanceSample) float64 {
	switch f {
	case FieldTPS:
		return s.TPS
	case FieldPlayersOnline:
		return float64(s.PlayersOnline)
	case FieldCPU:
		return s.CPUUsage
	case FieldRAM:
		return float64(s.RAMUsage)
	case FieldEntities:
		return float64(s.Entities)
	case FieldChunks:
		return float64(s.ChunksLoaded)
	case FieldFreeDisk:
		return float64(s.FreeDiskSpace)
	default:
		return 0
	}
}

// OrNoData returns v when ok, NoData otherwise.
func OrNoData(v float64, ok bool) float64 {
	if !ok {
		return NoData
	}

	return v
}

// Point is a single players online reading.
type Point struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// Series is a list of samples of one server.
type Series []models.PerformanceSample

// Between keeps samples strictly after after and strictly before before.
func (s Series) Between(after, before time.Time) Series {
	out := make(Series, 0, len(s))
	for _, sample := range s {
		if sample.Date.After(after) && sample.Date.Before(before) {
			out = append(out, sample)
		}
	}

	return out
}

// Since keeps samples taken at or after since.
func (s Series) Since(since time.Time) Series {
	out := make(Series, 0, len(s))
	for _, sample := range s {
		if !sample.Date.Before(since) {
			out = append(out, sample)
		}
	}

	return out
}

// Sorted returns the samples ordered by date, oldest first.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out
}

// Average returns the mean of the field, false for an empty series.
func (s Series) Average(f Field) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, sample := range s {
		sum += f.Value(sample)
	}

	return sum / float64(len(s)), true
}

// Max returns the largest value of the field, false for an empty series.
func (s Series) Max(f Field) (float64, bool) {
	return s.extreme(f, func(v, best float64) bool { return v > best })
}

// Min returns the smallest value of the field, false for an empty series.
func (s Series) Min(f Field) (float64, bool) {
	return s.extreme(f, func(v, best float64) bool { return v < best })
}

func (s Series) extreme(f Field, better func(v, best float64) bool) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}

	best := f.Value(s[0])
	for _, sample := range s[1:] {
		if v := f.Value(sample); better(v, best) {
			best = v
		}
	}

	return best, true
}

// Latest returns the most recent sample.
func (s Series) Latest() (models.PerformanceSample, bool) {
	if len(s) == 0 {
		return models.PerformanceSample{}, false
	}

	latest := s[0]
	for _, sample := range s[1:] {
		if sample.Date.After(latest.Date) {
			latest = sample
		}
	}

	return latest, true
}

// Peak returns the sample with the most players online taken at or after since.
// Among samples sharing the maximum the most recent one wins.
func (s Series) Peak(since time.Time) (models.PerformanceSample, bool) {
	var (
		peak  models.PerformanceSample
		found bool
	)
	for _, sample := range s.Since(since) {
		if !found ||
			sample.PlayersOnline > peak.PlayersOnline ||
			(sample.PlayersOnline == peak.PlayersOnline && sample.Date.After(peak.Date)) {
			peak = sample
			found = true
		}
	}

	return peak, found
}

// PlayersOnline returns the players online readings in date order.
func (s Series) PlayersOnline() []Point {
	sorted := s.Sorted()
	points := make([]Point, 0, len(sorted))
	for _, sample := range sorted {
		points = append(points, Point{Date: sample.Date, Value: sample.PlayersOnline})
	}

	return points
}

// OnlineOn returns the players online of the latest sample taken at or before at.
func (s Series) OnlineOn(at time.Time) (int, bool) {
	var (
		best  models.PerformanceSample
		found bool
	)
	for _, sample := range s {
		if sample.Date.After(at) {
			continue
		}
		if !found || sample.Date.After(best.Date) {
			best = sample
			found = true
		}
	}

	return best.PlayersOnline, found
}

// LowTPSSpikes counts how many times TPS dropped below threshold,
// a run of consecutive low samples counting once.
func (s Series) LowTPSSpikes(threshold float64) int {
	spikes := 0
	low := false
	for _, sample := range s.Sorted() {
		switch {
		case sample.TPS < threshold && !low:
			spikes++
			low = true
		case sample.TPS >= threshold:
			low = false
		}
	}

	return spikes
}

// Downtime sums the gaps between consecutive samples that are longer than maxGap.
// A non-positive maxGap disables the check.
func (s Series) Downtime(maxGap time.Duration) time.Duration {
	if maxGap <= 0 {
		return 0
	}

	sorted := s.Sorted()

	var total time.Duration
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i].Date.Sub(sorted[i-1].Date); gap > maxGap {
			total += gap
		}
	}

	return total
}
