// Package storage persists saved charts in SQLite or PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/config"
)

// ErrChartNotFound is returned when no chart has the requested id
var ErrChartNotFound = errors.New("chart not found")

// ChartStore is implemented by every saved-chart backend
type ChartStore interface {
	// Add stores a chart and returns its new id. The ID field is ignored.
	Add(ctx context.Context, c types.SavedChart) (int64, error)
	Get(ctx context.Context, id int64) (types.SavedChart, error)
	// List returns every chart ordered by id
	List(ctx context.Context) ([]types.SavedChart, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Open returns the backend selected in the storage preferences. sqlitePath
// is the already-resolved database file for the SQLite backend.
func Open(ctx context.Context, s config.StorageData, sqlitePath string) (ChartStore, error) {
	switch s.Backend {
	case config.BackendPostgres:
		if s.PostgresDSN == "" {
			return nil, fmt.Errorf("storage backend %q requires postgres-dsn", s.Backend)
		}
		return NewPostgresStore(ctx, s.PostgresDSN)
	case "", config.BackendSQLite:
		return NewSQLiteStore(ctx, sqlitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

func notFound(id int64) error {
	return fmt.Errorf("%w: no chart with id %d", ErrChartNotFound, id)
}
