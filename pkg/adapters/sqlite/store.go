package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/plangraph/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

// Options configures the SQLite connection.
type Options struct {
	Path      string
	TableName string // Default "runs"; snapshots go to "<TableName>_snapshots"
}

// Store implements ports.SnapshotStore using SQLite.
// Runs and their snapshots live in two tables; snapshot graphs are kept as
// TEXT so their bytes come back exactly as written.
type Store struct {
	db        *sql.DB
	runs      string
	snapshots string
}

// New opens the database and creates the schema if needed.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	table := opts.TableName
	if table == "" {
		table = "runs"
	}

	store := &Store{
		db:        db,
		runs:      table,
		snapshots: table + "_snapshots",
	}

	if err := store.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// InitSchema creates the tables if they don't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			plan TEXT NOT NULL,
			status TEXT NOT NULL,
			halted_at INTEGER,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			node INTEGER NOT NULL,
			graph TEXT NOT NULL,
			PRIMARY KEY (run_id, sequence)
		);
	`, s.runs, s.snapshots)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the run and replaces its snapshot rows in one transaction.
func (s *Store) Save(ctx context.Context, run *domain.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var haltedAt sql.NullInt64
	if run.HaltedAt != nil {
		haltedAt = sql.NullInt64{Int64: int64(*run.HaltedAt), Valid: true}
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (id, plan, status, halted_at, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			plan = excluded.plan,
			status = excluded.status,
			halted_at = excluded.halted_at,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, s.runs)
	if _, err := tx.ExecContext(ctx, upsert,
		run.ID, run.Plan, string(run.Status), haltedAt,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", s.snapshots), run.ID); err != nil {
		return fmt.Errorf("failed to clear snapshots of %s: %w", run.ID, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (run_id, sequence, node, graph) VALUES (?, ?, ?, ?)", s.snapshots)
	for _, snap := range run.Log.Entries() {
		if _, err := tx.ExecContext(ctx, insert, run.ID, snap.Sequence, int(snap.Node), string(snap.Bytes())); err != nil {
			return fmt.Errorf("failed to save snapshot %d of %s: %w", snap.Sequence, run.ID, err)
		}
	}

	return tx.Commit()
}

// Load retrieves a run and its snapshots.
func (s *Store) Load(ctx context.Context, id string) (*domain.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, plan, status, halted_at, started_at, finished_at
		FROM %s
		WHERE id = ?
	`, s.runs)

	var (
		run                 domain.Run
		status              string
		haltedAt            sql.NullInt64
		startedAt, finished string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&run.ID, &run.Plan, &status, &haltedAt, &startedAt, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	run.Status = domain.Status(status)
	if haltedAt.Valid {
		h := domain.NodeHandle(haltedAt.Int64)
		run.HaltedAt = &h
	}
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT sequence, node, graph FROM %s WHERE run_id = ? ORDER BY sequence ASC", s.snapshots), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots of %s: %w", id, err)
	}
	defer rows.Close()

	var entries []domain.Snapshot
	for rows.Next() {
		var (
			seq, node int
			graph     string
		)
		if err := rows.Scan(&seq, &node, &graph); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		entries = append(entries, domain.NewSnapshot(seq, domain.NodeHandle(node), []byte(graph)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if run.Log, err = domain.LogFrom(entries...); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return &run, nil
}

// Delete removes a run and its snapshots. Unknown IDs are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", s.snapshots), id); err != nil {
		return fmt.Errorf("failed to delete snapshots of %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.runs), id); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return tx.Commit()
}

// List returns summaries of all runs, oldest first.
func (s *Store) List(ctx context.Context) ([]domain.RunSummary, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.plan, r.status, r.started_at, r.finished_at,
			(SELECT COUNT(*) FROM %s s WHERE s.run_id = r.id)
		FROM %s r
	`, s.snapshots, s.runs)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []domain.RunSummary
	for rows.Next() {
		var (
			sum                 domain.RunSummary
			status              string
			startedAt, finished string
		)
		if err := rows.Scan(&sum.ID, &sum.Plan, &status, &startedAt, &finished, &sum.Snapshots); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.Status = domain.Status(status)
		if sum.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if sum.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RFC 3339 strings with variable fractions don't sort lexically.
	domain.SortRunSummaries(summaries)
	return summaries, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
