// Package store holds the persistent and in-memory implementations of
// the two store contracts defined in internal/weather.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/geoweather/tracker/internal/weather"
)

// PostgresLocationStore persists canonical location rows with a PostGIS
// point geometry derived from the coordinate pair on every write. It
// holds one pooled *sql.DB for the life of the process; individual
// operations draw connections from the pool and release them on all
// exit paths.
type PostgresLocationStore struct {
	db *sql.DB
}

// NewPostgresLocationStore opens a pooled connection and verifies it
// with a ping.
func NewPostgresLocationStore(ctx context.Context, dsn string) (*PostgresLocationStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresLocationStore{db: db}, nil
}

// Migrate applies the SQL migrations under migrationsPath.
func (s *PostgresLocationStore) Migrate(dsn, migrationsPath string) error {
	if migrationsPath == "" {
		return nil
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// UpsertBatch writes all rows in one transaction; a failure on any row
// rolls the whole batch back. The geometry column is recomputed from
// (longitude, latitude) on both insert and update so it can never drift
// from the coordinate pair.
func (s *PostgresLocationStore) UpsertBatch(ctx context.Context, locs []weather.Location) error {
	if len(locs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO locations (name, latitude, longitude, geom)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($3, $2), 4326))
		ON CONFLICT (name) DO UPDATE
		SET latitude  = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    geom      = EXCLUDED.geom`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, loc := range locs {
		if _, err := stmt.ExecContext(ctx, loc.Name, loc.Latitude, loc.Longitude); err != nil {
			return fmt.Errorf("upsert %q: %w", loc.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns all location rows ordered by name. Coordinates are read
// back from the scalar columns; the geometry is derived, never the
// source of truth.
func (s *PostgresLocationStore) List(ctx context.Context) ([]weather.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, latitude, longitude FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []weather.Location
	for rows.Next() {
		var loc weather.Location
		if err := rows.Scan(&loc.Name, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresLocationStore) Close() error {
	return s.db.Close()
}
