package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/models"
)

const tpsColumns = `server_uuid, date, tps, players_online, cpu_usage, ram_usage, entities, chunks_loaded, free_disk_space`

// InsertSample appends one performance sample.
func (r *Repository) InsertSample(s models.PerformanceSample) error {
	_, err := r.db.Exec(`INSERT INTO tps (`+tpsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ServerUUID.String(), toMillis(s.Date), s.TPS, s.PlayersOnline, s.CPUUsage,
		s.RAMUsage, s.Entities, s.ChunksLoaded, s.FreeDiskSpace,
	)

	return err
}

// GetSamplesSince retrieves the samples of all servers taken at or after since, in date order.
func (r *Repository) GetSamplesSince(since time.Time) ([]models.PerformanceSample, error) {
	rows, err := r.db.Query(`SELECT `+tpsColumns+` FROM tps WHERE date >= ? ORDER BY date`, toMillis(since))
	if err != nil {
		return nil, err
	}

	return scanSamples(rows)
}

// PruneSamples deletes samples taken before the given time and returns how many were removed.
func (r *Repository) PruneSamples(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM tps WHERE date < ?`, toMillis(before))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func scanSamples(rows *sql.Rows) ([]models.PerformanceSample, error) {
	defer func() { _ = rows.Close() }()

	var samples []models.PerformanceSample
	for rows.Next() {
		var (
			s    models.PerformanceSample
			id   string
			date int64
		)
		if err := rows.Scan(
			&id, &date, &s.TPS, &s.PlayersOnline, &s.CPUUsage,
			&s.RAMUsage, &s.Entities, &s.ChunksLoaded, &s.FreeDiskSpace,
		); err != nil {
			continue
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		s.ServerUUID = parsed
		s.Date = fromMillis(date)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}
