// Package activity computes the activity index of a player as of a reference date.
//
// The index looks at the three weeks ending at the reference date. In each
// week the play time of sessions started that week is summed; sessions shorter
// than the threshold are ignored. Every week contributes
// 1 / (π/2 · playtime/threshold + 1) and the index is 5 − 5 · mean, which lies
// in [0, 5) and grows with play time.
package activity

import (
	"math"
	"time"

	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/sessions"
)

// Group is the named activity category of an index value.
type Group string

// Activity groups, most active first.
const (
	VeryActive Group = "Very Active"
	Active     Group = "Active"
	Regular    Group = "Regular"
	Irregular  Group = "Irregular"
	Inactive   Group = "Inactive"
)

// Lower bounds of each group.
const (
	VeryActiveLimit = 3.75
	ActiveLimit     = 3.0
	RegularLimit    = 2.0
	IrregularLimit  = 1.0

	// MaxValue is the exclusive upper bound of an index value.
	MaxValue = 5.0
)

// DefaultThreshold is used as the play time unit when no positive threshold is given.
const DefaultThreshold = 30 * time.Minute

const (
	week  = 7 * 24 * time.Hour
	weeks = 3
)

// Index is an activity index value with its group.
type Index struct {
	Group Group   `json:"group"`
	Value float64 `json:"value"`
}

// Groups lists all groups from most to least active.
func Groups() []Group {
	return []Group{VeryActive, Active, Regular, Irregular, Inactive}
}

// GroupOf maps a value to its group.
func GroupOf(value float64) Group {
	switch {
	case value >= VeryActiveLimit:
		return VeryActive
	case value >= ActiveLimit:
		return Active
	case value >= RegularLimit:
		return Regular
	case value >= IrregularLimit:
		return Irregular
	default:
		return Inactive
	}
}

// Compute returns the activity index of player as of date.
// Only sessions started at or before date are used, and those still running at
// date are measured up to date.
func Compute(player models.PlayerRecord, date time.Time, threshold time.Duration) Index {
	value := compute(sessions.Of(player), date, threshold)
	return Index{Value: value, Group: GroupOf(value)}
}

func compute(list sessions.List, date time.Time, threshold time.Duration) float64 {
	unit := threshold
	if unit <= 0 {
		unit = DefaultThreshold
	}

	var sum float64
	for w := 0; w < weeks; w++ {
		hi := date.Add(-time.Duration(w) * week)
		lo := hi.Add(-week)

		var played time.Duration
		for _, s := range list {
			// weeks are (lo, hi], so a session is never counted twice
			if !s.Start.After(lo) || s.Start.After(hi) {
				continue
			}
			length := sessions.LengthUntil(s, date)
			if length < threshold {
				continue
			}
			played += length
		}

		x := float64(played) / float64(unit)
		sum += 1.0 / (math.Pi/2.0*x + 1.0)
	}

	return MaxValue - MaxValue*(sum/weeks)
}
