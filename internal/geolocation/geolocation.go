// Package geolocation resolves the current geolocation of players and relates it to ping samples.
package geolocation

import (
	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/models"
)

// MostRecent returns the record with the latest date.
// When several records share that date the first one wins.
func MostRecent(records []models.GeoRecord) (models.GeoRecord, bool) {
	if len(records) == 0 {
		return models.GeoRecord{}, false
	}

	latest := records[0]
	for _, r := range records[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}

	return latest, true
}

// Label returns the most recent geolocation of the records or "Unknown".
func Label(records []models.GeoRecord) string {
	if r, ok := MostRecent(records); ok {
		return r.Geolocation
	}

	return models.UnknownGeolocation
}

// PingsByCountry groups the ping samples taken on serverUUID under the most recent
// geolocation of each player. Players without any geolocation are left out,
// they are not counted as "Unknown".
func PingsByCountry(players []models.PlayerRecord, serverUUID uuid.UUID) map[string][]models.PingSample {
	byCountry := make(map[string][]models.PingSample)
	for _, p := range players {
		geo, ok := MostRecent(p.GeoInfo)
		if !ok {
			continue
		}

		country := byCountry[geo.Geolocation]
		if country == nil {
			country = []models.PingSample{}
		}
		for _, ping := range p.Pings {
			if ping.ServerUUID == serverUUID {
				country = append(country, ping)
			}
		}
		byCountry[geo.Geolocation] = country
	}

	return byCountry
}
