package tps

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/models"
)

// Epoch is the lower bound used for all time peaks.
var Epoch = time.Unix(0, 0).UTC()

// Aggregator answers windowed queries over a multi-server sample snapshot.
// It is read-only after New and safe for concurrent use.
type Aggregator struct {
	byServer  map[uuid.UUID]Series
	installed map[uuid.UUID]bool
}

// New indexes samples by server. servers provides the installed flag;
// samples of servers missing from it are treated as not installed.
func New(samples []models.PerformanceSample, servers []models.Server) *Aggregator {
	a := &Aggregator{
		byServer:  make(map[uuid.UUID]Series),
		installed: make(map[uuid.UUID]bool, len(servers)),
	}

	for _, srv := range servers {
		a.installed[srv.UUID] = srv.Installed
	}
	for _, sample := range samples {
		a.byServer[sample.ServerUUID] = append(a.byServer[sample.ServerUUID], sample)
	}

	return a
}

// Server returns all samples of the server.
func (a *Aggregator) Server(serverUUID uuid.UUID) Series {
	samples := a.byServer[serverUUID]
	out := make(Series, len(samples))
	copy(out, samples)

	return out
}

// Window returns the samples of the server strictly inside (after, before).
func (a *Aggregator) Window(serverUUID uuid.UUID, after, before time.Time) Series {
	return a.byServer[serverUUID].Between(after, before)
}

// Average of the field for the server over (after, before).
func (a *Aggregator) Average(serverUUID uuid.UUID, after, before time.Time, f Field) (float64, bool) {
	return a.Window(serverUUID, after, before).Average(f)
}

// Max of the field for the server over (after, before).
func (a *Aggregator) Max(serverUUID uuid.UUID, after, before time.Time, f Field) (float64, bool) {
	return a.Window(serverUUID, after, before).Max(f)
}

// Min of the field for the server over (after, before).
func (a *Aggregator) Min(serverUUID uuid.UUID, after, before time.Time, f Field) (float64, bool) {
	return a.Window(serverUUID, after, before).Min(f)
}

// LatestSample returns the most recent sample of the server.
func (a *Aggregator) LatestSample(serverUUID uuid.UUID) (models.PerformanceSample, bool) {
	return a.byServer[serverUUID].Latest()
}

// PeakPlayersOnline returns the sample with the most players online at or after since.
func (a *Aggregator) PeakPlayersOnline(serverUUID uuid.UUID, since time.Time) (models.PerformanceSample, bool) {
	return a.byServer[serverUUID].Peak(since)
}

// AllTimePeak returns the peak players online sample over the whole history.
func (a *Aggregator) AllTimePeak(serverUUID uuid.UUID) (models.PerformanceSample, bool) {
	return a.PeakPlayersOnline(serverUUID, Epoch)
}

// PlayersOnline returns the players online readings of the server inside (after, before).
func (a *Aggregator) PlayersOnline(serverUUID uuid.UUID, after, before time.Time) []Point {
	return a.Window(serverUUID, after, before).PlayersOnline()
}

// CrossServerSamples returns the in-window samples of every installed server
// except exclude, grouped by server. Servers without samples in the window are omitted.
func (a *Aggregator) CrossServerSamples(after, before time.Time, exclude uuid.UUID) map[uuid.UUID]Series {
	out := make(map[uuid.UUID]Series)
	for id, samples := range a.byServer {
		if id == exclude || !a.installed[id] {
			continue
		}
		if window := samples.Between(after, before); len(window) > 0 {
			out[id] = window
		}
	}

	return out
}

// Servers lists the servers that have samples, in a stable order.
func (a *Aggregator) Servers() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.byServer))
	for id := range a.byServer {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	return ids
}
