// Package retention predicts which players are likely to keep playing, using a
// nearest-centroid classifier trained on players whose first month is known.
package retention

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/woozymasta/nadir/internal/activity"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/sessions"
)

// Month is the observation window after registration used to label a player as retained.
const Month = 30 * 24 * time.Hour

// ErrNoComparableCohort is returned when either the retained or the not retained
// cohort is empty, so there is no centroid to compare against.
var ErrNoComparableCohort = errors.New("no comparable cohort")

// OnlineResolver tells how many players were online on the server at a given moment.
type OnlineResolver interface {
	OnlineOn(at time.Time) (int, bool)
}

// Vector is a feature vector of a player.
type Vector []float64

// Features builds the feature vector of a player:
// activity index one day after registering, players online when registering
// (-1 if unknown) and the number of sessions started during the first day.
func Features(player models.PlayerRecord, online OnlineResolver, threshold time.Duration) Vector {
	registered := player.Registered
	dayAfter := registered.Add(24 * time.Hour)

	index := activity.Compute(player, dayAfter, threshold)

	onlineOnJoin := -1.0
	if online != nil {
		if n, ok := online.OnlineOn(registered); ok {
			onlineOnJoin = float64(n)
		}
	}

	firstDay := sessions.Of(player).StartedBetween(registered, dayAfter).Count()

	return Vector{index.Value, onlineOnJoin, float64(firstDay)}
}

// Distance returns the Euclidean distance of two vectors.
// Vectors of different dimensions are infinitely far apart.
func Distance(a, b Vector) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}

	return math.Sqrt(sum)
}

// Centroid returns the component-wise mean of vectors, nil for no vectors.
func Centroid(vectors []Vector) Vector {
	if len(vectors) == 0 {
		return nil
	}

	mean := make(Vector, len(vectors[0]))
	for _, v := range vectors {
		for i := range mean {
			if i < len(v) {
				mean[i] += v[i]
			}
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}

	return mean
}

// Model holds the centroids of both cohorts.
type Model struct {
	Retained    Vector
	NotRetained Vector
}

// Train computes the centroid of each cohort.
func Train(retained, notRetained []Vector) (Model, error) {
	if len(retained) == 0 || len(notRetained) == 0 {
		return Model{}, fmt.Errorf("train on %d retained and %d not retained players: %w",
			len(retained), len(notRetained), ErrNoComparableCohort)
	}

	return Model{
		Retained:    Centroid(retained),
		NotRetained: Centroid(notRetained),
	}, nil
}

// LikelyRetained reports whether v is strictly closer to the retained centroid.
// A tie counts as not retained.
func (m Model) LikelyRetained(v Vector) bool {
	return Distance(v, m.Retained) < Distance(v, m.NotRetained)
}

// RetainedAfterMonth reports whether the player played in both halves of the
// month following registration.
func RetainedAfterMonth(player models.PlayerRecord) bool {
	registered := player.Registered
	half := registered.Add(Month / 2)
	monthAfter := registered.Add(Month)

	list := sessions.Of(player)
	return list.PlayedBetween(registered, half) && list.PlayedBetween(half, monthAfter)
}

// Split drops players registered after dateLimit and partitions the rest
// into retained and not retained cohorts.
func Split(players []models.PlayerRecord, dateLimit time.Time) (retained, notRetained []models.PlayerRecord) {
	for _, p := range players {
		if p.Registered.After(dateLimit) {
			continue
		}
		if RetainedAfterMonth(p) {
			retained = append(retained, p)
		} else {
			notRetained = append(notRetained, p)
		}
	}

	return retained, notRetained
}

// FindLikelyRetained trains on population and returns the candidates that are
// closer to the retained cohort.
func FindLikelyRetained(
	population, candidates []models.PlayerRecord,
	dateLimit time.Time,
	online OnlineResolver,
	threshold time.Duration,
) ([]models.PlayerRecord, error) {
	retained, notRetained := Split(population, dateLimit)

	model, err := Train(
		vectors(retained, online, threshold),
		vectors(notRetained, online, threshold),
	)
	if err != nil {
		return nil, err
	}

	likely := make([]models.PlayerRecord, 0, len(candidates))
	for _, c := range candidates {
		if model.LikelyRetained(Features(c, online, threshold)) {
			likely = append(likely, c)
		}
	}

	return likely, nil
}

func vectors(players []models.PlayerRecord, online OnlineResolver, threshold time.Duration) []Vector {
	out := make([]Vector, 0, len(players))
	for _, p := range players {
		out = append(out, Features(p, online, threshold))
	}

	return out
}
