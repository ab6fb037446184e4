package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/models"
)

// SessionRecord bundles what a finished session adds to a player's history.
// Ping and Geo are optional.
type SessionRecord struct {
	Ping    *models.PingSample
	Geo     *models.GeoRecord
	Player  models.PlayerRecord
	Session models.Session
}

// SaveSession stores a session with its ping and geolocation in one transaction.
// The player is created on first sight; later calls keep the original registration date.
func (r *Repository) SaveSession(rec SessionRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	player := rec.Player.UUID.String()

	if _, err := tx.Exec(`
	INSERT INTO players (uuid, name, registered, operator)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(uuid) DO UPDATE SET
		name       = CASE WHEN excluded.name != '' THEN excluded.name ELSE players.name END,
		registered = MIN(players.registered, excluded.registered),
		operator   = excluded.operator;
	`, player, rec.Player.Name, toMillis(rec.Player.Registered), rec.Player.Operator); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}

	s := rec.Session
	if _, err := tx.Exec(`
	INSERT INTO sessions (player_uuid, server_uuid, session_start, session_end, afk_time, deaths, mob_kills)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, player, s.ServerUUID.String(), toMillis(s.Start), toMillis(s.End),
		s.AFKTime.Milliseconds(), s.Deaths, s.MobKills); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if p := rec.Ping; p != nil {
		if _, err := tx.Exec(`
		INSERT INTO pings (player_uuid, server_uuid, date, avg_ping, min_ping, max_ping)
		VALUES (?, ?, ?, ?, ?, ?)
		`, player, p.ServerUUID.String(), toMillis(p.Date), p.Avg, p.Min, p.Max); err != nil {
			return fmt.Errorf("insert ping: %w", err)
		}
	}

	if g := rec.Geo; g != nil && g.Geolocation != "" {
		if _, err := tx.Exec(`
		INSERT INTO geo_info (player_uuid, geolocation, last_used)
		VALUES (?, ?, ?)
		ON CONFLICT(player_uuid, geolocation) DO UPDATE SET
			last_used = MAX(geo_info.last_used, excluded.last_used);
		`, player, g.Geolocation, toMillis(g.Date)); err != nil {
			return fmt.Errorf("upsert geolocation: %w", err)
		}
	}

	return tx.Commit()
}

// GetPlayers loads every player with sessions, pings and geolocations.
// The result is a snapshot; nothing in it refers back to the database.
func (r *Repository) GetPlayers() ([]models.PlayerRecord, error) {
	rows, err := r.db.Query(`SELECT uuid, name, registered, operator FROM players ORDER BY registered`)
	if err != nil {
		return nil, err
	}

	var players []models.PlayerRecord
	index := make(map[uuid.UUID]int)
	err = eachRow(rows, func(rows *sql.Rows) error {
		var (
			p          models.PlayerRecord
			id         string
			registered int64
		)
		if err := rows.Scan(&id, &p.Name, &registered, &p.Operator); err != nil {
			return err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return err
		}
		p.UUID = parsed
		p.Registered = fromMillis(registered)

		index[p.UUID] = len(players)
		players = append(players, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.attachSessions(players, index); err != nil {
		return nil, err
	}
	if err := r.attachPings(players, index); err != nil {
		return nil, err
	}
	if err := r.attachGeoInfo(players, index); err != nil {
		return nil, err
	}

	return players, nil
}

func (r *Repository) attachSessions(players []models.PlayerRecord, index map[uuid.UUID]int) error {
	rows, err := r.db.Query(`
		SELECT player_uuid, server_uuid, session_start, session_end, afk_time, deaths, mob_kills
		FROM sessions ORDER BY session_start
	`)
	if err != nil {
		return err
	}

	return eachRow(rows, func(rows *sql.Rows) error {
		var (
			s                  models.Session
			player, server     string
			start, end, afkMil int64
		)
		if err := rows.Scan(&player, &server, &start, &end, &afkMil, &s.Deaths, &s.MobKills); err != nil {
			return err
		}

		i, ok := lookup(index, player)
		if !ok {
			return nil
		}
		serverUUID, err := uuid.Parse(server)
		if err != nil {
			return err
		}
		s.ServerUUID = serverUUID
		s.Start = fromMillis(start)
		s.End = fromMillis(end)
		s.AFKTime = millis(afkMil)

		players[i].Sessions = append(players[i].Sessions, s)
		return nil
	})
}

func (r *Repository) attachPings(players []models.PlayerRecord, index map[uuid.UUID]int) error {
	rows, err := r.db.Query(`SELECT player_uuid, server_uuid, date, avg_ping, min_ping, max_ping FROM pings ORDER BY date`)
	if err != nil {
		return err
	}

	return eachRow(rows, func(rows *sql.Rows) error {
		var (
			p              models.PingSample
			player, server string
			date           int64
		)
		if err := rows.Scan(&player, &server, &date, &p.Avg, &p.Min, &p.Max); err != nil {
			return err
		}

		i, ok := lookup(index, player)
		if !ok {
			return nil
		}
		serverUUID, err := uuid.Parse(server)
		if err != nil {
			return err
		}
		p.ServerUUID = serverUUID
		p.Date = fromMillis(date)

		players[i].Pings = append(players[i].Pings, p)
		return nil
	})
}

func (r *Repository) attachGeoInfo(players []models.PlayerRecord, index map[uuid.UUID]int) error {
	rows, err := r.db.Query(`SELECT player_uuid, geolocation, last_used FROM geo_info ORDER BY last_used`)
	if err != nil {
		return err
	}

	return eachRow(rows, func(rows *sql.Rows) error {
		var (
			g        models.GeoRecord
			player   string
			lastUsed int64
		)
		if err := rows.Scan(&player, &g.Geolocation, &lastUsed); err != nil {
			return err
		}

		i, ok := lookup(index, player)
		if !ok {
			return nil
		}
		g.Date = fromMillis(lastUsed)

		players[i].GeoInfo = append(players[i].GeoInfo, g)
		return nil
	})
}

// eachRow calls fn for every row and closes rows.
func eachRow(rows *sql.Rows, fn func(*sql.Rows) error) error {
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}

	return rows.Err()
}

func lookup(index map[uuid.UUID]int, id string) (int, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return 0, false
	}
	i, ok := index[parsed]

	return i, ok
}
