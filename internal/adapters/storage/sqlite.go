// Package storage provides a SQLite implementation of the check history.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// DefaultRetention is the number of checks kept when none is configured.
const DefaultRetention = 500

// ErrDuplicateCheck is returned when a check ID is recorded twice.
var ErrDuplicateCheck = errors.New("check already recorded")

// historyStore implements ports.HistoryStore using SQLite.
type historyStore struct {
	db        *sql.DB
	retention int
}

// Ensure historyStore implements ports.HistoryStore.
var _ ports.HistoryStore = (*historyStore)(nil)

// NewMemory creates a history that lives only as long as the process.
// Older entries beyond retention are dropped.
func NewMemory(retention int) (ports.HistoryStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if retention <= 0 {
		retention = DefaultRetention
	}
	store := &historyStore{db: db, retention: retention}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Record stores a check summary.
func (s *historyStore) Record(ctx context.Context, e domain.HistoryEntry) error {
	query := `
		INSERT INTO checks (
			id, check_trigger, strategy, branch, kind, newest_hash, commit_count,
			reason, notified, discarded, started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		string(e.Trigger),
		string(e.Strategy),
		e.Branch,
		string(e.Kind),
		e.NewestHash,
		e.CommitCount,
		e.Reason,
		e.Notified,
		e.Discarded,
		e.StartedAt,
		e.FinishedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateCheck, e.ID)
		}
		return fmt.Errorf("failed to save check: %w", err)
	}

	prune := `DELETE FROM checks WHERE seq <= (SELECT MAX(seq) FROM checks) - ?`
	if _, err := s.db.ExecContext(ctx, prune, s.retention); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (s *historyStore) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, check_trigger, strategy, branch, kind, newest_hash, commit_count,
			reason, notified, discarded, started_at, finished_at
		FROM checks
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var trigger, strategy, kind string
		if err := rows.Scan(
			&e.ID, &trigger, &strategy, &e.Branch, &kind, &e.NewestHash, &e.CommitCount,
			&e.Reason, &e.Notified, &e.Discarded, &e.StartedAt, &e.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		e.Trigger = domain.Trigger(trigger)
		e.Strategy = domain.Strategy(strategy)
		e.Kind = domain.DivergenceKind(kind)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection.
func (s *historyStore) Close() error {
	return s.db.Close()
}

func (s *historyStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS checks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		check_trigger TEXT NOT NULL,
		strategy TEXT NOT NULL,
		branch TEXT,
		kind TEXT NOT NULL,
		newest_hash TEXT,
		commit_count INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		notified BOOLEAN NOT NULL DEFAULT 0,
		discarded BOOLEAN NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checks_kind ON checks(kind);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == 2067 // SQLITE_CONSTRAINT_UNIQUE
}
