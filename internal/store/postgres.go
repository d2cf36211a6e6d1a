package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowviewer/internal/flow"
)

// Postgres reads readings from the flow_readings table:
//
//	CREATE TABLE flow_readings (ts BIGINT NOT NULL, val DOUBLE PRECISION NOT NULL);
//	CREATE INDEX flow_readings_ts ON flow_readings (ts);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store backed by a pgx pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

const queryRangeSQL = `
    SELECT ts, val
    FROM flow_readings
    WHERE ts >= $1 AND ts <= $2
    ORDER BY ts
`

const maxInRangeSQL = `
    SELECT MAX(val)
    FROM flow_readings
    WHERE ts >= $1 AND ts <= $2
      AND val NOT IN ('NaN'::float8, 'Infinity'::float8, '-Infinity'::float8)
`

const latestSQL = `
    SELECT ts, val
    FROM flow_readings
    ORDER BY ts DESC
    LIMIT 1
`

func (s *Postgres) QueryRange(ctx context.Context, r flow.TimeRange) ([]flow.Reading, error) {
	rows, err := s.pool.Query(ctx, queryRangeSQL, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings := make([]flow.Reading, 0)
	for rows.Next() {
		var reading flow.Reading
		if err := rows.Scan(&reading.Timestamp, &reading.Value); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

func (s *Postgres) MaxInRange(ctx context.Context, r flow.TimeRange) (float64, bool, error) {
	var maxVal *float64
	if err := s.pool.QueryRow(ctx, maxInRangeSQL, r.Start, r.End).Scan(&maxVal); err != nil {
		return 0, false, fmt.Errorf("query max reading: %w", err)
	}
	if maxVal == nil {
		return 0, false, nil
	}
	return *maxVal, true, nil
}

func (s *Postgres) Latest(ctx context.Context) (flow.Reading, bool, error) {
	var reading flow.Reading
	err := s.pool.QueryRow(ctx, latestSQL).Scan(&reading.Timestamp, &reading.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return flow.Reading{}, false, nil
	}
	if err != nil {
		return flow.Reading{}, false, fmt.Errorf("query latest reading: %w", err)
	}
	return reading, true, nil
}

// Close releases the pool resources.
func (s *Postgres) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
