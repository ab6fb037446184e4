// Package fake provides utilities for generating random engagement data for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/storage"
)

// Store is what the generator writes to.
type Store interface {
	UpsertServer(s models.Server) error
	InsertSample(s models.PerformanceSample) error
	SaveSession(rec storage.SessionRecord) error
}

const (
	history        = 60 * 24 * time.Hour
	sampleInterval = 10 * time.Minute
)

// GenerateData populates the storage with count players spread over a few servers,
// with two months of sessions and performance samples.
func GenerateData(store Store, count int) {
	GenerateDataAt(store, count, time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())))
}

// GenerateDataAt is GenerateData with a fixed clock and random source.
// The same seed and clock produce the same data, identifiers included.
func GenerateDataAt(store Store, count int, now time.Time, rng *rand.Rand) {
	names := []string{"Chernarus", "Livonia", "Namalsk", "Sakhal"}

	// Countries list
	countriesHigh := []string{"Germany", "Russia", "United States", "Poland", "Czechia", "Ukraine"}
	countriesMid := []string{"Canada", "France", "Sweden", "Finland", "Netherlands", "Kazakhstan"}
	countriesLow := []string{"Brazil", "Japan", "Australia", "Norway", "Portugal", "Denmark"}

	servers := make([]models.Server, 0, len(names))
	for i, name := range names {
		srv := models.Server{
			UUID:      uuid.Must(uuid.NewRandomFromReader(rng)),
			Name:      fmt.Sprintf("%s #%d [PvE]", name, i+1),
			Address:   fmt.Sprintf("%d.%d.%d.%d", rng.Intn(220)+1, rng.Intn(255), rng.Intn(255), rng.Intn(255)),
			Port:      2302 + i*100,
			Installed: i < len(names)-1, // the last one is retired
			FirstSeen: now.Add(-history),
			LastSeen:  now,
		}
		if err := store.UpsertServer(srv); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake server")
			continue
		}
		servers = append(servers, srv)
	}
	if len(servers) == 0 {
		return
	}

	online := make(map[uuid.UUID]map[int64]int)
	for _, srv := range servers {
		online[srv.UUID] = make(map[int64]int)
	}

	for i := 0; i < count; i++ {
		registered := now.Add(-time.Duration(rng.Int63n(int64(history))))
		player := models.PlayerRecord{
			UUID:       uuid.Must(uuid.NewRandomFromReader(rng)),
			Name:       fmt.Sprintf("Survivor%04d", i),
			Registered: registered,
			Operator:   rng.Float32() < 0.02,
		}

		var country string
		roll := rng.Float32()
		switch {
		case roll < 0.70:
			country = countriesHigh[rng.Intn(len(countriesHigh))]
		case roll < 0.90:
			country = countriesMid[rng.Intn(len(countriesMid))]
		default:
			country = countriesLow[rng.Intn(len(countriesLow))]
		}

		home := servers[rng.Intn(len(servers))]
		loyalty := rng.Float64() // chance to come back each day

		for day := registered; day.Before(now); day = day.Add(24 * time.Hour) {
			if day != registered && rng.Float64() > loyalty {
				continue
			}

			srv := home
			if rng.Float32() < 0.2 {
				srv = servers[rng.Intn(len(servers))]
			}

			// the first session starts at registration
			start := day
			if day != registered {
				start = day.Add(time.Duration(rng.Intn(180)) * time.Minute)
			}
			if start.After(now) {
				break
			}
			end := start.Add(time.Duration(10+rng.Intn(240)) * time.Minute)
			if end.After(now) {
				end = now
			}

			rec := storage.SessionRecord{
				Player: player,
				Session: models.Session{
					ServerUUID: srv.UUID,
					Start:      start,
					End:        end,
					AFKTime:    time.Duration(rng.Intn(15)) * time.Minute,
					Deaths:     rng.Intn(5),
					MobKills:   rng.Intn(40),
				},
				Ping: &models.PingSample{
					ServerUUID: srv.UUID,
					Date:       end,
					Avg:        20 + rng.Float64()*150,
					Min:        10 + rng.Intn(20),
					Max:        180 + rng.Intn(200),
				},
				Geo: &models.GeoRecord{Date: start, Geolocation: country},
			}
			if err := store.SaveSession(rec); err != nil {
				log.Warn().Err(err).Msg("Failed to generate fake session")
				continue
			}

			for t := start.Truncate(sampleInterval); t.Before(end); t = t.Add(sampleInterval) {
				online[srv.UUID][t.Unix()]++
			}
		}
	}

	for _, srv := range servers {
		generateSamples(store, srv, online[srv.UUID], now, rng)
	}
}

func generateSamples(store Store, srv models.Server, online map[int64]int, now time.Time, rng *rand.Rand) {
	// retired servers stopped reporting a week ago
	until := now
	if !srv.Installed {
		until = now.Add(-7 * 24 * time.Hour)
	}

	for t := now.Add(-history).Truncate(sampleInterval); t.Before(until); t = t.Add(sampleInterval) {
		// occasional outages leave gaps
		if rng.Float32() < 0.005 {
			t = t.Add(time.Duration(rng.Intn(12)) * sampleInterval)
			continue
		}

		players := online[t.Unix()]
		tps := 20 - float64(players)*0.05 - rng.Float64()
		if rng.Float32() < 0.01 {
			tps = 4 + rng.Float64()*4
		}

		sample := models.PerformanceSample{
			ServerUUID:    srv.UUID,
			Date:          t,
			TPS:           max(tps, 0),
			PlayersOnline: players,
			CPUUsage:      0.1 + rng.Float64()*0.6,
			RAMUsage:      int64(2+rng.Intn(6)) << 30,
			Entities:      500 + players*40 + rng.Intn(200),
			ChunksLoaded:  200 + players*25 + rng.Intn(100),
			FreeDiskSpace: int64(40+rng.Intn(20)) << 30,
		}
		if err := store.InsertSample(sample); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake sample")
		}
	}
}
