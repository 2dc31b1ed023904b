// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and JSONB columns for interest
// lists and chat messages.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage"
)

// Store is a PostgreSQL-backed preference and history store.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}
	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	return s, nil
}

// GetPreferences returns the stored record or the defaults.
func (s *Store) GetPreferences(ctx context.Context, userID string) (api.Preferences, error) {
	if userID == "" {
		return api.Preferences{}, storage.ErrInvalidUser
	}
	p, err := scanPreferences(s.pool.QueryRow(ctx, `
		SELECT user_id, location, interests, budget_min, budget_max
		FROM user_preferences WHERE user_id = $1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return api.DefaultPreferences(userID), nil
	}
	if err != nil {
		return api.Preferences{}, fmt.Errorf("querying preferences: %w", err)
	}
	return p, nil
}

// UpdatePreferences merges u into the stored record inside a transaction
// that locks the row.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, u api.PreferencesUpdate) (api.Preferences, error) {
	if userID == "" {
		return api.Preferences{}, storage.ErrInvalidUser
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return api.Preferences{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPreferences(tx.QueryRow(ctx, `
		SELECT user_id, location, interests, budget_min, budget_max
		FROM user_preferences WHERE user_id = $1 FOR UPDATE
	`, userID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		p = api.DefaultPreferences(userID)
	case err != nil:
		return api.Preferences{}, fmt.Errorf("querying preferences: %w", err)
	}

	u.Apply(&p)

	interests, err := json.Marshal(p.Interests)
	if err != nil {
		return api.Preferences{}, fmt.Errorf("marshaling interests: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO user_preferences (user_id, location, interests, budget_min, budget_max, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			location = EXCLUDED.location,
			interests = EXCLUDED.interests,
			budget_min = EXCLUDED.budget_min,
			budget_max = EXCLUDED.budget_max,
			updated_at = EXCLUDED.updated_at
	`, userID, p.Location, interests, p.BudgetMin, p.BudgetMax); err != nil {
		return api.Preferences{}, fmt.Errorf("upserting preferences: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return api.Preferences{}, fmt.Errorf("committing preferences: %w", err)
	}
	return p, nil
}

// ListUsers returns all user ids with a stored record.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT user_id FROM user_preferences ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	if users == nil {
		users = []string{}
	}
	return users, nil
}

// ListHistory returns all histories, most recently updated first.
func (s *Store) ListHistory(ctx context.Context) ([]api.HistoryListItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, created_at, updated_at, jsonb_array_length(messages)
		FROM chat_histories
		ORDER BY updated_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing histories: %w", err)
	}
	defer rows.Close()

	items := []api.HistoryListItem{}
	for rows.Next() {
		var it api.HistoryListItem
		if err := rows.Scan(&it.ID, &it.Title, &it.CreatedAt, &it.UpdatedAt, &it.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		it.CreatedAt = it.CreatedAt.UTC()
		it.UpdatedAt = it.UpdatedAt.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating histories: %w", err)
	}
	return items, nil
}

// GetHistory returns one history.
func (s *Store) GetHistory(ctx context.Context, id string) (*api.HistoryEntry, error) {
	e, err := scanHistory(s.pool.QueryRow(ctx, `
		SELECT id, title, messages, created_at, updated_at
		FROM chat_histories WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return e, nil
}

// SaveHistory upserts a history. The created_at of an existing row is kept.
func (s *Store) SaveHistory(ctx context.Context, save api.HistorySave) (*api.HistoryEntry, error) {
	id := save.ID
	if id == "" {
		id = api.NewHistoryID()
	}
	msgs := save.Messages
	if msgs == nil {
		msgs = []api.HistoryMessage{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("marshaling messages: %w", err)
	}

	now := time.Now().UTC()
	e, err := scanHistory(s.pool.QueryRow(ctx, `
		INSERT INTO chat_histories (id, title, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			messages = EXCLUDED.messages,
			updated_at = EXCLUDED.updated_at
		RETURNING id, title, messages, created_at, updated_at
	`, id, api.HistoryTitle(msgs), data, now))
	if err != nil {
		return nil, fmt.Errorf("saving history: %w", err)
	}
	return e, nil
}

// DeleteHistory removes one history.
func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM chat_histories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ClearHistory removes every history.
func (s *Store) ClearHistory(ctx context.Context) (int, error) {
	result, err := s.pool.Exec(ctx, "DELETE FROM chat_histories")
	if err != nil {
		return 0, fmt.Errorf("clearing histories: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanPreferences(row pgx.Row) (api.Preferences, error) {
	var p api.Preferences
	var interests []byte
	if err := row.Scan(&p.UserID, &p.Location, &interests, &p.BudgetMin, &p.BudgetMax); err != nil {
		return api.Preferences{}, err
	}
	if err := json.Unmarshal(interests, &p.Interests); err != nil {
		return api.Preferences{}, fmt.Errorf("unmarshaling interests: %w", err)
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	return p, nil
}

func scanHistory(row pgx.Row) (*api.HistoryEntry, error) {
	var e api.HistoryEntry
	var msgs []byte
	if err := row.Scan(&e.ID, &e.Title, &msgs, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(msgs, &e.Messages); err != nil {
		return nil, fmt.Errorf("unmarshaling messages: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
