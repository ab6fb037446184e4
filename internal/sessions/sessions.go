// Package sessions derives play-time facts from a player's play sessions.
package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/timebucket"
)

// List is a read-only view over a set of sessions.
// Methods returning a List always allocate, the receiver is never modified.
type List []models.Session

// Of returns the sessions of a player as a List.
func Of(player models.PlayerRecord) List {
	return List(player.Sessions)
}

// filter keeps sessions matching keep in a newly allocated List.
func (l List) filter(keep func(models.Session) bool) List {
	out := make(List, 0, len(l))
	for _, s := range l {
		if keep(s) {
			out = append(out, s)
		}
	}

	return out
}

// PlayedBetween reports whether any session starts or ends inside [lo, hi].
// The end of an open session is not considered.
func (l List) PlayedBetween(lo, hi time.Time) bool {
	for _, s := range l {
		if within(s.Start, lo, hi) {
			return true
		}
		if !s.Open() && within(s.End, lo, hi) {
			return true
		}
	}

	return false
}

// OnServer keeps the sessions played on the given server.
func (l List) OnServer(serverUUID uuid.UUID) List {
	return l.filter(func(s models.Session) bool {
		return s.ServerUUID == serverUUID
	})
}

// StartedBetween keeps the sessions that started inside [lo, hi].
func (l List) StartedBetween(lo, hi time.Time) List {
	return l.filter(func(s models.Session) bool {
		return within(s.Start, lo, hi)
	})
}

// Count returns the number of sessions.
func (l List) Count() int {
	return len(l)
}

// Playtime sums the length of all finished sessions.
func (l List) Playtime() time.Duration {
	var total time.Duration
	for _, s := range l {
		total += s.Length()
	}

	return total
}

// LengthUntil returns how long the session had lasted at date.
// Open sessions and sessions still running at date are cut at date.
func LengthUntil(s models.Session, date time.Time) time.Duration {
	if s.Start.After(date) {
		return 0
	}

	end := s.End
	if s.Open() || end.After(date) {
		end = date
	}
	if end.Before(s.Start) {
		return 0
	}

	return end.Sub(s.Start)
}

// PlaytimeUntil sums session lengths as they were at date, ignoring anything after it.
func (l List) PlaytimeUntil(date time.Time) time.Duration {
	var total time.Duration
	for _, s := range l {
		total += LengthUntil(s, date)
	}

	return total
}

// Longest returns the longest finished session, false when there is none.
func (l List) Longest() (models.Session, bool) {
	var (
		longest models.Session
		found   bool
	)
	for _, s := range l {
		if s.Open() {
			continue
		}
		if !found || s.Length() > longest.Length() {
			longest = s
			found = true
		}
	}

	return longest, found
}

// Average returns the mean length of finished sessions, zero when there is none.
func (l List) Average() time.Duration {
	var (
		total time.Duration
		n     int
	)
	for _, s := range l {
		if s.Open() {
			continue
		}
		total += s.Length()
		n++
	}
	if n == 0 {
		return 0
	}

	return total / time.Duration(n)
}

// PerDay groups sessions by the local calendar day they started on.
func (l List) PerDay(loc *time.Location) []timebucket.Bucket[models.Session] {
	return timebucket.ByDay([]models.Session(l), func(s models.Session) time.Time {
		return s.Start
	}, loc)
}

func within(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}
