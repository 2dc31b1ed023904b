// Package sqlite provides a SQLite-backed storage.ActivityCache so the
// scraped activity set survives restarts without a database server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage"
)

// ActivityCache implements storage.ActivityCache using SQLite.
type ActivityCache struct {
	db *sql.DB
}

var _ storage.ActivityCache = (*ActivityCache)(nil)

// Open opens (or creates) a SQLite database at dbPath and runs the schema
// migration.
func Open(dbPath string) (*ActivityCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open activity db: %w", err)
	}
	// WAL mode for concurrent reads during a refresh.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate activity db: %w", err)
	}
	return &ActivityCache{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS activities (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			location    TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			price       TEXT NOT NULL DEFAULT '',
			date        TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS cache_meta (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			last_updated TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database connection.
func (c *ActivityCache) Close() error {
	return c.db.Close()
}

// Replace swaps the cached set in a single transaction.
func (c *ActivityCache) Replace(ctx context.Context, activities []api.Activity, updated time.Time) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM activities"); err != nil {
		return fmt.Errorf("clear activities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (name, location, description, price, date, url, source, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range activities {
		if _, err := stmt.ExecContext(ctx, a.Name, a.Location, a.Description, a.Price, a.Date, a.URL, a.Source, a.Category); err != nil {
			return fmt.Errorf("insert activity %q: %w", a.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cache_meta (id, last_updated) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_updated = excluded.last_updated
	`, updated.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("update cache meta: %w", err)
	}

	return tx.Commit()
}

// All returns the cached activities in insertion order.
func (c *ActivityCache) All(ctx context.Context) ([]api.Activity, *time.Time, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, location, description, price, date, url, source, category
		FROM activities ORDER BY seq
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := []api.Activity{}
	for rows.Next() {
		var a api.Activity
		if err := rows.Scan(&a.Name, &a.Location, &a.Description, &a.Price, &a.Date, &a.URL, &a.Source, &a.Category); err != nil {
			return nil, nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	updated, err := c.lastUpdated(ctx)
	if err != nil {
		return nil, nil, err
	}
	return activities, updated, nil
}

// Stats summarizes the cache.
func (c *ActivityCache) Stats(ctx context.Context) (api.CacheStats, error) {
	all, updated, err := c.All(ctx)
	if err != nil {
		return api.CacheStats{}, err
	}
	return storage.ComputeStats(all, updated), nil
}

func (c *ActivityCache) lastUpdated(ctx context.Context) (*time.Time, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, "SELECT last_updated FROM cache_meta WHERE id = 1").Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cache meta: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parse last_updated: %w", err)
	}
	return &t, nil
}
