// Package models defines the data structures shared by the analytics core, storage and API layers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// UnknownGeolocation is the label used when a player has no geolocation record.
const UnknownGeolocation = "Unknown"

// PlayerRecord is a snapshot of everything known about one player.
// The analytics core only reads it.
type PlayerRecord struct {
	Registered time.Time    `json:"registered"`
	Name       string       `json:"name"`
	Sessions   []Session    `json:"sessions,omitempty"`
	Pings      []PingSample `json:"pings,omitempty"`
	GeoInfo    []GeoRecord  `json:"geo_info,omitempty"`
	UUID       uuid.UUID    `json:"uuid"`
	Operator   bool         `json:"operator"`
}

// Session is a contiguous span of a player's presence on a server.
// A session that is still running has a zero End.
type Session struct {
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	AFKTime    time.Duration `json:"afk_time"`
	Deaths     int           `json:"deaths"`
	MobKills   int           `json:"mob_kills"`
	ServerUUID uuid.UUID     `json:"server_uuid"`
}

// Open reports whether the session has not ended yet.
func (s Session) Open() bool {
	return s.End.IsZero()
}

// Length returns the duration of a finished session, zero for an open one.
func (s Session) Length() time.Duration {
	if s.Open() || s.End.Before(s.Start) {
		return 0
	}

	return s.End.Sub(s.Start)
}

// PingSample is one latency measurement of a player on a server, in milliseconds.
type PingSample struct {
	Date       time.Time `json:"date"`
	Avg        float64   `json:"avg"`
	Min        int       `json:"min"`
	Max        int       `json:"max"`
	ServerUUID uuid.UUID `json:"server_uuid"`
}

// GeoRecord is a geolocation observed for a player at a point in time.
type GeoRecord struct {
	Date        time.Time `json:"date"`
	Geolocation string    `json:"geolocation"`
}

// PerformanceSample is one periodic measurement of a server's runtime health.
type PerformanceSample struct {
	Date          time.Time `json:"date"`
	TPS           float64   `json:"tps"`
	CPUUsage      float64   `json:"cpu_usage"`
	RAMUsage      int64     `json:"ram_usage"`
	FreeDiskSpace int64     `json:"free_disk_space"`
	PlayersOnline int       `json:"players_online"`
	Entities      int       `json:"entities"`
	ChunksLoaded  int       `json:"chunks_loaded"`
	ServerUUID    uuid.UUID `json:"server_uuid"`
}

// Server represents a monitored game server stored in the database.
type Server struct {
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Port      int       `json:"port"`
	UUID      uuid.UUID `json:"uuid"`
	Installed bool      `json:"installed"`
}

// TPSRequest is the payload a server plugin posts with one performance sample.
type TPSRequest struct {
	Application   string    `json:"application"`
	ServerName    string    `json:"server_name"`
	TPS           float64   `json:"tps"`
	CPUUsage      float64   `json:"cpu_usage"`
	RAMUsage      int64     `json:"ram_usage"`
	FreeDiskSpace int64     `json:"free_disk_space"`
	Port          int       `json:"port"`
	PlayersOnline int       `json:"players_online"`
	Entities      int       `json:"entities"`
	ChunksLoaded  int       `json:"chunks_loaded"`
	ServerUUID    uuid.UUID `json:"server_uuid"`
}

// SessionRequest is the payload a server plugin posts when a player session ends.
type SessionRequest struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Application string    `json:"application"`
	PlayerName  string    `json:"player_name"`
	PlayerIP    string    `json:"player_ip"`
	AFKSeconds  int64     `json:"afk_seconds"`
	PingAvg     float64   `json:"ping_avg"`
	PingMin     int       `json:"ping_min"`
	PingMax     int       `json:"ping_max"`
	Deaths      int       `json:"deaths"`
	MobKills    int       `json:"mob_kills"`
	PlayerUUID  uuid.UUID `json:"player_uuid"`
	ServerUUID  uuid.UUID `json:"server_uuid"`
	Operator    bool      `json:"operator"`
}
