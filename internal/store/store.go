package store

import (
	"context"
	"fmt"

	"flowviewer/internal/config"
	"flowviewer/internal/flow"
)

// Store is the read side of the reading time series. Ranges are inclusive on
// both ends and results are ordered by timestamp.
type Store interface {
	QueryRange(ctx context.Context, r flow.TimeRange) ([]flow.Reading, error)
	MaxInRange(ctx context.Context, r flow.TimeRange) (float64, bool, error)
	Latest(ctx context.Context) (flow.Reading, bool, error)
	Close() error
}

// Open constructs the backend named in cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendPostgres:
		return NewPostgres(ctx, cfg.Postgres.DSN)
	case config.BackendInflux:
		return NewInflux(cfg.Influx), nil
	case config.BackendBadger:
		return NewBadger(cfg.Badger.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
