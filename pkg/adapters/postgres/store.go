package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool is the subset of pgxpool.Pool the store needs.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Options configures the Postgres connection.
type Options struct {
	ConnString string
	TableName  string // Default "plangraph_runs"
}

const defaultTable = "plangraph_runs"

// Store implements ports.SnapshotStore using PostgreSQL.
// The snapshot log is stored as TEXT rather than JSONB: JSONB normalizes
// whitespace and key order, and snapshots must come back byte for byte.
type Store struct {
	pool  DBPool
	table string
}

// New connects to Postgres and creates the schema if needed.
func New(ctx context.Context, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	store := NewWithPool(pool, opts.TableName)
	if err := store.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool wraps an existing pool. Useful for testing with mocks.
func NewWithPool(pool DBPool, tableName string) *Store {
	if tableName == "" {
		tableName = defaultTable
	}
	return &Store{pool: pool, table: tableName}
}

// InitSchema creates the runs table if it doesn't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			plan TEXT NOT NULL,
			status TEXT NOT NULL,
			halted_at INTEGER,
			log TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_started_at ON %s (started_at);
	`, s.table, s.table, s.table)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Save upserts the run.
func (s *Store) Save(ctx context.Context, run *domain.Run) error {
	logJSON, err := json.Marshal(run.Log)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot log: %w", err)
	}

	var haltedAt *int64
	if run.HaltedAt != nil {
		h := int64(*run.HaltedAt)
		haltedAt = &h
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, plan, status, halted_at, log, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			halted_at = EXCLUDED.halted_at,
			log = EXCLUDED.log,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`, s.table)

	_, err = s.pool.Exec(ctx, query,
		run.ID,
		run.Plan,
		string(run.Status),
		haltedAt,
		string(logJSON),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// Load retrieves a run by ID.
func (s *Store) Load(ctx context.Context, id string) (*domain.Run, error) {
	query := fmt.Sprintf("SELECT id, plan, status, halted_at, log, started_at, finished_at FROM %s WHERE id = $1", s.table)

	var (
		run      domain.Run
		status   string
		haltedAt *int64
		logJSON  string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Plan, &status, &haltedAt, &logJSON, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	run.Status = domain.Status(status)
	if haltedAt != nil {
		h := domain.NodeHandle(*haltedAt)
		run.HaltedAt = &h
	}
	run.Log = domain.NewLog()
	if err := json.Unmarshal([]byte(logJSON), run.Log); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot log of %s: %w", id, err)
	}
	return &run, nil
}

// Delete removes a run. Unknown IDs are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// List returns summaries of all runs, oldest first. Snapshot payloads stay
// in the database; only their count is read.
func (s *Store) List(ctx context.Context) ([]domain.RunSummary, error) {
	query := fmt.Sprintf(`
		SELECT id, plan, status, json_array_length(log::json), started_at, finished_at
		FROM %s
		ORDER BY started_at ASC, id ASC
	`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []domain.RunSummary
	for rows.Next() {
		var (
			sum       domain.RunSummary
			status    string
			started   time.Time
			finished  time.Time
			snapshots int
		)
		if err := rows.Scan(&sum.ID, &sum.Plan, &status, &snapshots, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.Status = domain.Status(status)
		sum.Snapshots = snapshots
		sum.StartedAt = started
		sum.FinishedAt = finished
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}
