package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/nadir/internal/models"
)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "nadir.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nadir.db")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestServers(t *testing.T) {
	repo := openTestRepository(t)
	now := time.UnixMilli(1_700_000_000_000).UTC()
	id := uuid.New()

	require.NoError(t, repo.UpsertServer(models.Server{
		UUID: id, Name: "Chernarus #1", Address: "10.0.0.1", Port: 2302,
		Installed: true, FirstSeen: now, LastSeen: now,
	}))
	require.NoError(t, repo.UpsertServer(models.Server{UUID: id, LastSeen: now.Add(time.Hour)}))

	srv, err := repo.GetServer(id)
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.Equal(t, "Chernarus #1", srv.Name)
	assert.Equal(t, 2302, srv.Port)
	assert.True(t, srv.LastSeen.Equal(now.Add(time.Hour)))
	assert.True(t, srv.FirstSeen.Equal(now))

	require.NoError(t, repo.SetInstalled(id, false))
	servers, err := repo.GetServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.False(t, servers[0].Installed)

	missing, err := repo.GetServer(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSamples(t *testing.T) {
	repo := openTestRepository(t)
	id := uuid.New()
	base := time.UnixMilli(1_700_000_000_000).UTC()
	require.NoError(t, repo.UpsertServer(models.Server{UUID: id, Installed: true, FirstSeen: base, LastSeen: base}))

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.InsertSample(models.PerformanceSample{
			ServerUUID:    id,
			Date:          base.Add(time.Duration(i) * time.Minute),
			TPS:           19.5,
			PlayersOnline: i,
			CPUUsage:      0.25,
			RAMUsage:      1 << 30,
			Entities:      100,
			ChunksLoaded:  40,
			FreeDiskSpace: 1 << 34,
		}))
	}

	samples, err := repo.GetSamplesSince(time.Time{})
	require.NoError(t, err)
	require.Len(t, samples, 5)
	assert.Equal(t, 4, samples[4].PlayersOnline)
	assert.Equal(t, int64(1<<34), samples[0].FreeDiskSpace)
	assert.True(t, samples[2].Date.Equal(base.Add(2*time.Minute)))

	since, err := repo.GetSamplesSince(base.Add(3 * time.Minute))
	require.NoError(t, err)
	assert.Len(t, since, 2)

	pruned, err := repo.PruneSamples(base.Add(2 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	// samples go with their server
	require.NoError(t, repo.DeleteServer(id))
	samples, err = repo.GetSamplesSince(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestSaveSession_RoundTrip(t *testing.T) {
	repo := openTestRepository(t)
	server := uuid.New()
	player := uuid.New()
	registered := time.UnixMilli(1_700_000_000_000).UTC()

	first := SessionRecord{
		Player: models.PlayerRecord{UUID: player, Name: "Survivor", Registered: registered},
		Session: models.Session{
			ServerUUID: server,
			Start:      registered,
			End:        registered.Add(time.Hour),
			AFKTime:    5 * time.Minute,
			Deaths:     2,
		},
		Ping: &models.PingSample{ServerUUID: server, Date: registered.Add(time.Hour), Avg: 42.5, Min: 30, Max: 80},
		Geo:  &models.GeoRecord{Date: registered, Geolocation: "Finland"},
	}
	require.NoError(t, repo.SaveSession(first))

	// a later session must not move the registration date forward
	later := registered.Add(48 * time.Hour)
	require.NoError(t, repo.SaveSession(SessionRecord{
		Player:  models.PlayerRecord{UUID: player, Registered: later},
		Session: models.Session{ServerUUID: server, Start: later},
		Geo:     &models.GeoRecord{Date: later, Geolocation: "Sweden"},
	}))

	players, err := repo.GetPlayers()
	require.NoError(t, err)
	require.Len(t, players, 1)

	p := players[0]
	assert.Equal(t, player, p.UUID)
	assert.Equal(t, "Survivor", p.Name)
	assert.True(t, p.Registered.Equal(registered))

	require.Len(t, p.Sessions, 2)
	assert.Equal(t, 5*time.Minute, p.Sessions[0].AFKTime)
	assert.Equal(t, 2, p.Sessions[0].Deaths)
	assert.True(t, p.Sessions[1].Open())

	require.Len(t, p.Pings, 1)
	assert.Equal(t, 42.5, p.Pings[0].Avg)

	require.Len(t, p.GeoInfo, 2)
	assert.Equal(t, "Sweden", p.GeoInfo[1].Geolocation)
}
