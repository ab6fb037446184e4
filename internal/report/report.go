// Package report assembles the engagement and performance views served by the API
// from a storage snapshot.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/activity"
	"github.com/woozymasta/nadir/internal/config"
	"github.com/woozymasta/nadir/internal/metrics"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/players"
	"github.com/woozymasta/nadir/internal/retention"
	"github.com/woozymasta/nadir/internal/timebucket"
	"github.com/woozymasta/nadir/internal/tps"
)

// ErrServerNotFound is returned for reports about an unknown server.
var ErrServerNotFound = errors.New("server not found")

// Source is the read side of the repository.
type Source interface {
	GetPlayers() ([]models.PlayerRecord, error)
	GetServers() ([]models.Server, error)
	GetSamplesSince(since time.Time) ([]models.PerformanceSample, error)
}

// Options holds the analytics parameters.
type Options struct {
	Location       *time.Location
	Threshold      time.Duration
	ActiveLimit    float64
	Window         time.Duration
	RetentionDelay time.Duration
	LowTPS         float64
	MaxSampleGap   time.Duration
}

// NewOptions converts the analytics configuration.
func NewOptions(cfg config.Analytics) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, fmt.Errorf("load time zone: %w", err)
	}

	return Options{
		Location:       loc,
		Threshold:      cfg.ActiveThreshold,
		ActiveLimit:    cfg.ActiveLimit,
		Window:         cfg.Window,
		RetentionDelay: cfg.RetentionDelay,
		LowTPS:         cfg.LowTPS,
		MaxSampleGap:   cfg.MaxSampleGap,
	}, nil
}

// Engine computes reports. It keeps no state between calls.
type Engine struct {
	source Source
	opts   Options
}

// PlayersReport is the engagement overview of the whole network.
type PlayersReport struct {
	Now               time.Time                  `json:"now"`
	NewPerDay         []timebucket.Count         `json:"new_per_day"`
	UniqueJoinsPerDay []timebucket.Count         `json:"unique_joins_per_day"`
	ActivityTrend     []players.ActivitySnapshot `json:"activity_trend"`
	ActivityGroups    map[activity.Group]int     `json:"activity_groups"`
	Geolocations      map[string]int             `json:"geolocations"`
	PingPerCountry    map[string]float64         `json:"ping_per_country"`
	LongestSession    *models.Session            `json:"longest_session,omitempty"`
	Total             int                        `json:"total"`
	Active            int                        `json:"active"`
	New               int                        `json:"new"`
	Retained          int                        `json:"retained"`
	Operators         int                        `json:"operators"`
	Sessions          int                        `json:"sessions"`
	AverageNewPerDay  float64                    `json:"average_new_per_day"`
	Playtime          time.Duration              `json:"playtime"`
	AverageSession    time.Duration              `json:"average_session"`
}

// ServerReport is the overview of one server.
type ServerReport struct {
	Server         models.Server      `json:"server"`
	Summary        tps.Summary        `json:"summary"`
	PlayersOnline  []tps.Point        `json:"players_online"`
	PingPerCountry map[string]float64 `json:"ping_per_country"`
	Players        int                `json:"players"`
	Sessions       int                `json:"sessions"`
	Playtime       time.Duration      `json:"playtime"`
}

// RetentionReport lists recently registered players that resemble retained ones.
type RetentionReport struct {
	DateLimit      time.Time   `json:"date_limit"`
	LikelyRetained []uuid.UUID `json:"likely_retained"`
	Candidates     int         `json:"candidates"`
}

// New creates an engine over source.
func New(source Source, opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Threshold <= 0 {
		opts.Threshold = activity.DefaultThreshold
	}
	if opts.Window <= 0 {
		opts.Window = retention.Month
	}
	if opts.RetentionDelay <= 0 {
		opts.RetentionDelay = retention.Month
	}

	return &Engine{source: source, opts: opts}
}

// Players builds the engagement overview at now.
func (e *Engine) Players(now time.Time) (*PlayersReport, error) {
	defer metrics.ObserveReport("players", time.Now())

	records, err := e.source.GetPlayers()
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	all := players.New(records)
	after := now.Add(-e.opts.Window)
	recent := all.FilterRegisteredBetween(after, now)
	played := all.FilterPlayedBetween(after, now)
	list := played.Sessions().StartedBetween(after, now)

	rep := &PlayersReport{
		Now:               now,
		Total:             all.Count(),
		Active:            all.FilterActive(now, e.opts.Threshold, e.opts.ActiveLimit).Count(),
		New:               recent.Count(),
		Retained:          all.FilterRetained(after, now).Count(),
		Operators:         all.Operators().Count(),
		NewPerDay:         recent.NewPerDay(e.opts.Location),
		AverageNewPerDay:  recent.AverageNewPerDay(e.opts.Location),
		UniqueJoinsPerDay: played.UniqueJoinsPerDay(e.opts.Location),
		ActivityTrend:     all.ActivityOverTime(now, e.opts.Threshold),
		ActivityGroups:    make(map[activity.Group]int),
		Geolocations:      make(map[string]int),
		Sessions:          list.Count(),
		Playtime:          list.Playtime(),
		AverageSession:    list.Average(),
	}

	if longest, ok := list.Longest(); ok {
		rep.LongestSession = &longest
	}

	for _, g := range activity.Groups() {
		rep.ActivityGroups[g] = 0
	}
	for _, p := range records {
		rep.ActivityGroups[activity.Compute(p, now, e.opts.Threshold).Group]++
	}

	for _, geo := range all.Geolocations() {
		rep.Geolocations[geo]++
	}

	servers, err := e.source.GetServers()
	if err != nil {
		return nil, fmt.Errorf("load servers: %w", err)
	}

	byCountry := make(map[string][]models.PingSample)
	for _, srv := range servers {
		for country, pings := range all.PingsByCountry(srv.UUID) {
			byCountry[country] = append(byCountry[country], pings...)
		}
	}
	rep.PingPerCountry = averagePings(byCountry)

	return rep, nil
}

// Server builds the overview of one server at now.
func (e *Engine) Server(id uuid.UUID, now time.Time) (*ServerReport, error) {
	defer metrics.ObserveReport("server", time.Now())

	agg, servers, err := e.aggregator(tps.Epoch)
	if err != nil {
		return nil, err
	}

	srv, ok := servers[id]
	if !ok {
		return nil, ErrServerNotFound
	}

	after := now.Add(-e.opts.Window)
	rep := &ServerReport{
		Server: srv,
		Summary: agg.Summarize(id, after, now, tps.SummaryOptions{
			LowTPSThreshold: e.opts.LowTPS,
			MaxSampleGap:    e.opts.MaxSampleGap,
		}),
		PlayersOnline: agg.PlayersOnline(id, after, now),
	}

	records, err := e.source.GetPlayers()
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	onServer := players.New(records).FilterPlayedOnServer(id)
	list := onServer.Sessions().OnServer(id).StartedBetween(after, now)
	rep.PingPerCountry = averagePings(onServer.PingsByCountry(id))
	rep.Players = onServer.Count()
	rep.Sessions = list.Count()
	rep.Playtime = list.Playtime()

	return rep, nil
}

// Network returns the players online of every installed server within the window,
// leaving out exclude.
func (e *Engine) Network(now time.Time, exclude uuid.UUID) (map[uuid.UUID][]tps.Point, error) {
	defer metrics.ObserveReport("network", time.Now())

	after := now.Add(-e.opts.Window)
	agg, _, err := e.aggregator(after)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID][]tps.Point)
	for id, series := range agg.CrossServerSamples(after, now, exclude) {
		out[id] = series.PlayersOnline()
	}

	return out, nil
}

// Servers lists the known servers ordered by name.
func (e *Engine) Servers() ([]models.Server, error) {
	servers, err := e.source.GetServers()
	if err != nil {
		return nil, fmt.Errorf("load servers: %w", err)
	}

	sort.SliceStable(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })

	return servers, nil
}

// Retention finds players registered within the retention delay that resemble
// players who stayed. It fails with retention.ErrNoComparableCohort when the
// older players do not form both cohorts.
func (e *Engine) Retention(now time.Time) (*RetentionReport, error) {
	defer metrics.ObserveReport("retention", time.Now())

	records, err := e.source.GetPlayers()
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	agg, _, err := e.aggregator(tps.Epoch)
	if err != nil {
		return nil, err
	}

	dateLimit := now.Add(-e.opts.RetentionDelay)
	all := players.New(records)
	candidates := all.FilterRegisteredBetween(dateLimit, now)

	likely, err := all.CompareAndFindLikelyRetained(candidates, dateLimit, networkOnline(agg), e.opts.Threshold)
	if err != nil {
		return nil, err
	}

	ids := likely.UUIDs()
	if ids == nil {
		ids = []uuid.UUID{}
	}

	return &RetentionReport{
		DateLimit:      dateLimit,
		Candidates:     candidates.Count(),
		LikelyRetained: ids,
	}, nil
}

func (e *Engine) aggregator(since time.Time) (*tps.Aggregator, map[uuid.UUID]models.Server, error) {
	servers, err := e.source.GetServers()
	if err != nil {
		return nil, nil, fmt.Errorf("load servers: %w", err)
	}

	samples, err := e.source.GetSamplesSince(since)
	if err != nil {
		return nil, nil, fmt.Errorf("load samples: %w", err)
	}

	byID := make(map[uuid.UUID]models.Server, len(servers))
	for _, s := range servers {
		byID[s.UUID] = s
	}

	return tps.New(samples, servers), byID, nil
}

// network sums the players online of all servers.
type network []tps.Series

func networkOnline(agg *tps.Aggregator) network {
	var n network
	for _, id := range agg.Servers() {
		n = append(n, agg.Server(id))
	}

	return n
}

// OnlineOn reports the total players online at a time, known if any server had a sample by then.
func (n network) OnlineOn(at time.Time) (int, bool) {
	total, known := 0, false
	for _, series := range n {
		if v, ok := series.OnlineOn(at); ok {
			total += v
			known = true
		}
	}

	return total, known
}

// averagePings maps each country to its mean ping, NoData for a country without pings.
func averagePings(byCountry map[string][]models.PingSample) map[string]float64 {
	out := make(map[string]float64, len(byCountry))
	for country, pings := range byCountry {
		if len(pings) == 0 {
			out[country] = tps.NoData
			continue
		}

		sum := 0.0
		for _, p := range pings {
			sum += p.Avg
		}
		out[country] = sum / float64(len(pings))
	}

	return out
}
