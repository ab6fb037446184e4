// Package players implements an immutable, chainable filter pipeline over player records.
//
// Every method of Players returns a new value; the receiver and the records
// it was built from are never modified, so a Players value can be shared and
// filtered from several goroutines at once.
package players

import (
	"time"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/activity"
	"github.com/woozymasta/nadir/internal/geolocation"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/retention"
	"github.com/woozymasta/nadir/internal/sessions"
	"github.com/woozymasta/nadir/internal/timebucket"
)

const (
	trendStep   = 7 * 24 * time.Hour
	trendWindow = 60 * 24 * time.Hour
)

// Predicate decides whether a player is kept by FilterBy.
type Predicate func(models.PlayerRecord) bool

// Players is an ordered, immutable collection of player records.
type Players struct {
	players []models.PlayerRecord
}

// ActivitySnapshot is the activity distribution of players at one point in time.
type ActivitySnapshot struct {
	Date   time.Time                      `json:"date"`
	Groups map[activity.Group][]uuid.UUID `json:"groups"`
}

// New wraps a copy of records.
func New(records []models.PlayerRecord) Players {
	return Players{players: clone(records)}
}

// All returns a copy of the records.
func (p Players) All() []models.PlayerRecord {
	return clone(p.players)
}

// Count returns the number of players.
func (p Players) Count() int {
	return len(p.players)
}

// FilterBy keeps the players matching keep.
func (p Players) FilterBy(keep Predicate) Players {
	out := make([]models.PlayerRecord, 0, len(p.players))
	for _, player := range p.players {
		if keep(player) {
			out = append(out, player)
		}
	}

	return Players{players: out}
}

// FilterPlayedBetween keeps players with a session starting or ending inside [after, before].
func (p Players) FilterPlayedBetween(after, before time.Time) Players {
	return p.FilterBy(PlayedBetween(after, before))
}

// FilterRegisteredBetween keeps players registered inside [after, before].
func (p Players) FilterRegisteredBetween(after, before time.Time) Players {
	return p.FilterBy(RegisteredBetween(after, before))
}

// FilterRetained keeps players who played in both halves of the window
// starting at the later of after and their registration.
func (p Players) FilterRetained(after, before time.Time) Players {
	return p.FilterBy(Retained(after, before))
}

// FilterActive keeps players whose activity index at date is at least limit.
func (p Players) FilterActive(date time.Time, threshold time.Duration, limit float64) Players {
	return p.FilterBy(ActiveAt(date, threshold, limit))
}

// FilterPlayedOnServer keeps players with at least one session on the server.
func (p Players) FilterPlayedOnServer(serverUUID uuid.UUID) Players {
	return p.FilterBy(PlayedOnServer(serverUUID))
}

// RegisteredDates lists the registration time of every player.
func (p Players) RegisteredDates() []time.Time {
	dates := make([]time.Time, 0, len(p.players))
	for _, player := range p.players {
		dates = append(dates, player.Registered)
	}

	return dates
}

// UUIDs lists player identities, skipping records without one.
func (p Players) UUIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.players))
	for _, player := range p.players {
		if player.UUID == uuid.Nil {
			continue
		}
		ids = append(ids, player.UUID)
	}

	return ids
}

// Operators keeps the players with the operator flag.
func (p Players) Operators() Players {
	return p.FilterBy(func(player models.PlayerRecord) bool {
		return player.Operator
	})
}

// Pings flattens the ping samples of all players.
func (p Players) Pings() []models.PingSample {
	var pings []models.PingSample
	for _, player := range p.players {
		pings = append(pings, player.Pings...)
	}

	return pings
}

// Sessions flattens the sessions of all players.
func (p Players) Sessions() sessions.List {
	var all sessions.List
	for _, player := range p.players {
		all = append(all, player.Sessions...)
	}

	return all
}

// Geolocations returns the most recent geolocation of every player, "Unknown" if absent.
func (p Players) Geolocations() []string {
	labels := make([]string, 0, len(p.players))
	for _, player := range p.players {
		labels = append(labels, geolocation.Label(player.GeoInfo))
	}

	return labels
}

// PingsByCountry groups pings on serverUUID by the most recent geolocation of each player.
// Players without geolocation are left out.
func (p Players) PingsByCountry(serverUUID uuid.UUID) map[string][]models.PingSample {
	return geolocation.PingsByCountry(p.players, serverUUID)
}

// ActivityOverTime returns weekly snapshots of the activity distribution
// covering the 60 days up to date, oldest first. A player is left out of
// snapshots taken before they registered.
func (p Players) ActivityOverTime(date time.Time, threshold time.Duration) []ActivitySnapshot {
	oldest := date.Add(-trendWindow)

	var snapshots []ActivitySnapshot
	for at := date; !at.Before(oldest); at = at.Add(-trendStep) {
		groups := make(map[activity.Group][]uuid.UUID)
		for _, player := range p.players {
			if player.Registered.After(at) {
				continue
			}
			group := activity.Compute(player, at, threshold).Group
			groups[group] = append(groups[group], player.UUID)
		}
		snapshots = append(snapshots, ActivitySnapshot{Date: at, Groups: groups})
	}

	// built newest first
	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}

	return snapshots
}

// NewPerDay counts registrations per local calendar day.
func (p Players) NewPerDay(loc *time.Location) []timebucket.Count {
	byDay := timebucket.ByDay(p.RegisteredDates(), func(t time.Time) time.Time { return t }, loc)
	return timebucket.Counts(byDay)
}

// AverageNewPerDay is the mean of NewPerDay over the days that had registrations.
func (p Players) AverageNewPerDay(loc *time.Location) float64 {
	return timebucket.AverageCount(p.NewPerDay(loc))
}

// UniqueJoinsPerDay counts distinct players with a session started on each local day.
func (p Players) UniqueJoinsPerDay(loc *time.Location) []timebucket.Count {
	type join struct {
		start  time.Time
		player uuid.UUID
	}

	var joins []join
	for _, player := range p.players {
		for _, s := range player.Sessions {
			joins = append(joins, join{start: s.Start, player: player.UUID})
		}
	}

	byDay := timebucket.ByDay(joins, func(j join) time.Time { return j.start }, loc)
	counts := make([]timebucket.Count, 0, len(byDay))
	for _, b := range byDay {
		unique := make(map[uuid.UUID]struct{}, len(b.Values))
		for _, j := range b.Values {
			unique[j.player] = struct{}{}
		}
		counts = append(counts, timebucket.Count{Start: b.Start, N: len(unique)})
	}

	return counts
}

// CompareAndFindLikelyRetained trains a retention model on these players and
// returns the candidates that resemble retained players.
// It fails with retention.ErrNoComparableCohort when, after dropping players
// registered after dateLimit, one of the cohorts is empty.
func (p Players) CompareAndFindLikelyRetained(
	candidates Players,
	dateLimit time.Time,
	online retention.OnlineResolver,
	threshold time.Duration,
) (Players, error) {
	likely, err := retention.FindLikelyRetained(p.players, candidates.players, dateLimit, online, threshold)
	if err != nil {
		return Players{}, err
	}

	return Players{players: likely}, nil
}

func clone(records []models.PlayerRecord) []models.PlayerRecord {
	if records == nil {
		return nil
	}

	out := make([]models.PlayerRecord, len(records))
	copy(out, records)

	return out
}
