package geolocation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/nadir/internal/models"
)

func geo(ms int64, label string) models.GeoRecord {
	return models.GeoRecord{Date: time.UnixMilli(ms), Geolocation: label}
}

func TestMostRecent(t *testing.T) {
	latest, ok := MostRecent([]models.GeoRecord{geo(200, "FI"), geo(100, "US")})
	require.True(t, ok)
	assert.Equal(t, "FI", latest.Geolocation)

	latest, ok = MostRecent([]models.GeoRecord{geo(100, "US"), geo(200, "FI")})
	require.True(t, ok)
	assert.Equal(t, "FI", latest.Geolocation)

	_, ok = MostRecent(nil)
	assert.False(t, ok)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Unknown", Label(nil))
	assert.Equal(t, "DE", Label([]models.GeoRecord{geo(1, "DE")}))
}

func TestPingsByCountry(t *testing.T) {
	server, other := uuid.New(), uuid.New()

	players := []models.PlayerRecord{
		{
			UUID:    uuid.New(),
			GeoInfo: []models.GeoRecord{geo(100, "US"), geo(200, "FI")},
			Pings: []models.PingSample{
				{ServerUUID: server, Avg: 40},
				{ServerUUID: other, Avg: 90},
			},
		},
		{
			UUID:    uuid.New(),
			GeoInfo: []models.GeoRecord{geo(50, "FI")},
			Pings:   []models.PingSample{{ServerUUID: server, Avg: 60}},
		},
		{
			UUID:  uuid.New(),
			Pings: []models.PingSample{{ServerUUID: server, Avg: 300}},
		},
		{
			UUID:    uuid.New(),
			GeoInfo: []models.GeoRecord{geo(10, "SE")},
		},
	}

	byCountry := PingsByCountry(players, server)

	require.Len(t, byCountry["FI"], 2)
	assert.Equal(t, 40.0, byCountry["FI"][0].Avg)
	assert.Equal(t, 60.0, byCountry["FI"][1].Avg)

	_, hasUnknown := byCountry["Unknown"]
	assert.False(t, hasUnknown, "players without geolocation must be dropped")

	se, ok := byCountry["SE"]
	assert.True(t, ok)
	assert.Empty(t, se)
	assert.Len(t, byCountry, 2)
}
