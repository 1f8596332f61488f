package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore keeps charts in a local SQLite file
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path and brings
// its schema up to date
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// one writer; avoids SQLITE_BUSY between the CLI and a running server
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, err
	}
	migrator := migrate.NewMigrator(db, migrate.NewFSProvider(sub, "schema_migrations"), log.GetSugaredLogger())
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate chart database: %w", err)
	}

	log.Debugf("chart database ready at %s", path)
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Add(ctx context.Context, c types.SavedChart) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO charts (name, timestamp_utc, timestamp_local, latitude, longitude) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.TimestampUTC, c.TimestampLocal, nullFloat(c.Latitude), nullFloat(c.Longitude),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chart: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get chart id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (types.SavedChart, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, timestamp_utc, timestamp_local, latitude, longitude FROM charts WHERE id = ?`, id)

	c, err := scanChart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SavedChart{}, notFound(id)
	}
	if err != nil {
		return types.SavedChart{}, fmt.Errorf("failed to get chart %d: %w", id, err)
	}
	return c, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]types.SavedChart, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, timestamp_utc, timestamp_local, latitude, longitude FROM charts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}
	defer rows.Close()

	var charts []types.SavedChart
	for rows.Next() {
		c, err := scanChart(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chart: %w", err)
		}
		charts = append(charts, c)
	}
	return charts, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM charts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chart %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChart(r scanner) (types.SavedChart, error) {
	var c types.SavedChart
	var lat, lng sql.NullFloat64

	if err := r.Scan(&c.ID, &c.Name, &c.TimestampUTC, &c.TimestampLocal, &lat, &lng); err != nil {
		return types.SavedChart{}, err
	}

	if lat.Valid {
		c.Latitude = &lat.Float64
	}
	if lng.Valid {
		c.Longitude = &lng.Float64
	}
	return c, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
