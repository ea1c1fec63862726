package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"articleforge/internal/model"
	"articleforge/internal/ports"

	_ "github.com/mattn/go-sqlite3"
)

// SQLStore persists job states in sqlite. The state itself is an opaque
// JSON column; the only schema the core relies on is the primary key over
// the idempotency key.
type SQLStore struct {
	db *sql.DB
}

var _ ports.StateStore = (*SQLStore)(nil)

// OpenSQLStore opens (or creates) the sqlite database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS job_states (
		idempotency_key TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create job_states table: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Create(ctx context.Context, state *model.JobState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	// INSERT OR IGNORE + RowsAffected keeps the uniqueness check atomic
	// without driver-specific error matching.
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO job_states (idempotency_key, job_id, stage, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		state.Key(), state.ID, string(state.Stage), raw, now, now)
	if err != nil {
		return fmt.Errorf("insert job state %q: %w", state.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert job state %q: %w", state.Key(), err)
	}
	if n == 0 {
		return fmt.Errorf("create %q: %w", state.Key(), ports.ErrExists)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (*model.JobState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM job_states WHERE idempotency_key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", key, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select job state %q: %w", key, err)
	}
	return decodeState(raw)
}

func (s *SQLStore) Put(ctx context.Context, state *model.JobState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_states SET stage = ?, state = ?, updated_at = ? WHERE idempotency_key = ?`,
		string(state.Stage), raw, time.Now().UTC(), state.Key())
	if err != nil {
		return fmt.Errorf("update job state %q: %w", state.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job state %q: %w", state.Key(), err)
	}
	if n == 0 {
		return fmt.Errorf("put %q: %w", state.Key(), ports.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM job_states WHERE idempotency_key = ?`, key); err != nil {
		return fmt.Errorf("delete job state %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]*model.JobState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state FROM job_states ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list job states: %w", err)
	}
	defer rows.Close()

	var out []*model.JobState
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan job state: %w", err)
		}
		st, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
