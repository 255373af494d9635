package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unklstewy/flightmap/pkg/dataset"
)

// RecordRepository stores collected samples and serves the cleaned dataset.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// RecordStats summarizes the stored samples.
type RecordStats struct {
	Runs     int64
	Samples  int64
	Aircraft int64
	First    time.Time
	Last     time.Time
}

// StartRun registers a collection run and returns its id.
func (r *RecordRepository) StartRun(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO collection_runs (id, started_at) VALUES (?, ?)`),
		id.String(), time.Now().UTC().Unix(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the end time of a run.
func (r *RecordRepository) FinishRun(ctx context.Context, runID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE collection_runs SET finished_at = ? WHERE id = ?`),
		time.Now().UTC().Unix(), runID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// InsertSamples stores one poll's samples in a single transaction.
// Missing values of incomplete samples are stored as NULL.
func (r *RecordRepository) InsertSamples(ctx context.Context, runID uuid.UUID, samples []dataset.Sample) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`
		INSERT INTO flight_samples (run_id, icao24, callsign, latitude, longitude, altitude, velocity, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.ExecContext(ctx,
			runID.String(),
			s.EntityID,
			nullString(s.Callsign),
			nullFloat(s.Latitude, s.Missing),
			nullFloat(s.Longitude, s.Missing),
			nullFloat(s.Altitude, s.Missing),
			nullFloat(s.Velocity, s.Missing),
			s.Timestamp.UTC().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample %s: %w", s.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// Clean removes aircraft with any incomplete sample, then aircraft with
// fewer than minSamples samples. It returns the number of deleted rows.
func (r *RecordRepository) Clean(ctx context.Context, minSamples int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM flight_samples WHERE icao24 IN (
			SELECT icao24 FROM flight_samples
			WHERE icao24 = '' OR callsign IS NULL OR callsign = ''
				OR latitude IS NULL OR longitude IS NULL
				OR altitude IS NULL OR velocity IS NULL
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete incomplete aircraft: %w", err)
	}
	incomplete, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM flight_samples WHERE icao24 IN (
			SELECT icao24 FROM flight_samples GROUP BY icao24 HAVING COUNT(*) < ?
		)
	`), minSamples)
	if err != nil {
		return 0, fmt.Errorf("failed to delete short tracks: %w", err)
	}
	short, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleaning: %w", err)
	}
	return incomplete + short, nil
}

// LoadRecords returns every complete sample ordered by time, then insertion.
func (r *RecordRepository) LoadRecords(ctx context.Context) ([]dataset.FlightRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT icao24, callsign, latitude, longitude, altitude, velocity, ts
		FROM flight_samples
		WHERE callsign IS NOT NULL AND latitude IS NOT NULL AND longitude IS NOT NULL
			AND altitude IS NOT NULL AND velocity IS NOT NULL
		ORDER BY ts, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []dataset.FlightRecord
	for rows.Next() {
		var rec dataset.FlightRecord
		var ts int64
		if err := rows.Scan(
			&rec.EntityID,
			&rec.Callsign,
			&rec.Latitude,
			&rec.Longitude,
			&rec.Altitude,
			&rec.Velocity,
			&ts,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// Stats returns counts and the covered time range.
func (r *RecordRepository) Stats(ctx context.Context) (RecordStats, error) {
	var stats RecordStats

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collection_runs`).Scan(&stats.Runs); err != nil {
		return stats, fmt.Errorf("failed to count runs: %w", err)
	}

	var first, last sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT icao24), MIN(ts), MAX(ts) FROM flight_samples
	`).Scan(&stats.Samples, &stats.Aircraft, &first, &last)
	if err != nil {
		return stats, fmt.Errorf("failed to query sample stats: %w", err)
	}
	if first.Valid {
		stats.First = time.Unix(first.Int64, 0).UTC()
	}
	if last.Valid {
		stats.Last = time.Unix(last.Int64, 0).UTC()
	}
	return stats, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullFloat stores zero values of incomplete samples as NULL.
func nullFloat(v float64, missing bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !(missing && v == 0)}
}
