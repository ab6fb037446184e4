package storage

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/models"
)

const serverColumns = `uuid, name, address, port, installed, first_seen, last_seen`

// UpsertServer inserts a server or refreshes its name, address and last seen time.
// An update marks the server installed again, it is reporting after all.
func (r *Repository) UpsertServer(s models.Server) error {
	query := `
	INSERT INTO servers (` + serverColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(uuid) DO UPDATE SET
		name      = CASE WHEN excluded.name != '' THEN excluded.name ELSE servers.name END,
		address   = CASE WHEN excluded.address != '' THEN excluded.address ELSE servers.address END,
		port      = CASE WHEN excluded.port != 0 THEN excluded.port ELSE servers.port END,
		installed = 1,
		last_seen = excluded.last_seen;
	`

	_, err := r.db.Exec(query,
		s.UUID.String(), s.Name, s.Address, s.Port, s.Installed,
		toMillis(s.FirstSeen), toMillis(s.LastSeen),
	)

	return err
}

// GetServers retrieves all servers, most recently seen first.
func (r *Repository) GetServers() ([]models.Server, error) {
	rows, err := r.db.Query(`SELECT ` + serverColumns + ` FROM servers ORDER BY last_seen DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			continue
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// GetServer retrieves one server, nil when it does not exist.
func (r *Repository) GetServer(id uuid.UUID) (*models.Server, error) {
	row := r.db.QueryRow(`SELECT `+serverColumns+` FROM servers WHERE uuid = ?`, id.String())

	s, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// SetInstalled changes the installed flag of a server.
func (r *Repository) SetInstalled(id uuid.UUID, installed bool) error {
	_, err := r.db.Exec(`UPDATE servers SET installed = ? WHERE uuid = ?`, installed, id.String())
	return err
}

// DeleteServer removes a server together with its performance samples.
func (r *Repository) DeleteServer(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM servers WHERE uuid = ?`, id.String())
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanServer(row scanner) (models.Server, error) {
	var (
		s         models.Server
		id        string
		firstSeen int64
		lastSeen  int64
	)
	if err := row.Scan(&id, &s.Name, &s.Address, &s.Port, &s.Installed, &firstSeen, &lastSeen); err != nil {
		return models.Server{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return models.Server{}, err
	}
	s.UUID = parsed
	s.FirstSeen = fromMillis(firstSeen)
	s.LastSeen = fromMillis(lastSeen)

	return s, nil
}
