// Package sqlite implements the feedback store on SQLite via the
// CGO-free modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/velvetmonkey/notelink/internal/storage"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// FeedbackStore implements storage.FeedbackStore using SQLite.
type FeedbackStore struct {
	db *sql.DB
}

// NewFeedbackStore opens a SQLite database at dsn (a file path or
// ":memory:"), configures WAL mode, and creates the schema.
func NewFeedbackStore(dsn string) (*FeedbackStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open
	// connection serialises writes and avoids SQLITE_BUSY errors under
	// concurrent load; WAL mode lets readers proceed alongside it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &FeedbackStore{db: db}, nil
}

// AppendEvent inserts the event and bumps the derived stat counters for
// its key in one transaction. Counters accumulate; they are never
// overwritten.
func (s *FeedbackStore) AppendEvent(ctx context.Context, event *types.FeedbackEvent) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO feedback_events (id, entity, source_note, origin, accepted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.Entity, event.SourceNote, event.Origin, boolToInt(event.Accepted), event.Timestamp); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	pos, neg := counterDelta(event.Accepted)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO feedback_stats (entity, source_note, positive_count, negative_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity, source_note) DO UPDATE SET
			positive_count = positive_count + excluded.positive_count,
			negative_count = negative_count + excluded.negative_count,
			updated_at = excluded.updated_at
	`, event.Entity, event.SourceNote, pos, neg, event.Timestamp); err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}

	return tx.Commit()
}

// ListStats returns every stat row in deterministic order.
func (s *FeedbackStore) ListStats(ctx context.Context) ([]types.FeedbackStat, error) {
	return s.queryStats(ctx, `
		SELECT entity, source_note, positive_count, negative_count, updated_at
		FROM feedback_stats ORDER BY entity, source_note
	`)
}

// GetStats returns the stat rows for one entity across all notes.
func (s *FeedbackStore) GetStats(ctx context.Context, entity string) ([]types.FeedbackStat, error) {
	if entity == "" {
		return nil, fmt.Errorf("%w: entity is required", storage.ErrInvalidInput)
	}
	return s.queryStats(ctx, `
		SELECT entity, source_note, positive_count, negative_count, updated_at
		FROM feedback_stats WHERE entity = ? ORDER BY source_note
	`, entity)
}

func (s *FeedbackStore) queryStats(ctx context.Context, query string, args ...interface{}) ([]types.FeedbackStat, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var stats []types.FeedbackStat
	for rows.Next() {
		var st types.FeedbackStat
		if err := rows.Scan(&st.Entity, &st.SourceNote, &st.PositiveCount, &st.NegativeCount, &st.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan stat row: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// AddSuppression inserts a suppression entry; existing keys are left
// untouched so the original creation time survives.
func (s *FeedbackStore) AddSuppression(ctx context.Context, entry *types.SuppressionEntry) error {
	if entry == nil || entry.Entity == "" {
		return fmt.Errorf("%w: suppression entity is required", storage.ErrInvalidInput)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppressions (entity, source_note, reason, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity, source_note) DO NOTHING
	`, entry.Entity, entry.SourceNote, entry.Reason, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert suppression: %w", err)
	}
	return nil
}

// ListSuppressions returns every suppression entry in deterministic order.
func (s *FeedbackStore) ListSuppressions(ctx context.Context) ([]types.SuppressionEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity, source_note, reason, created_at
		FROM suppressions ORDER BY entity, source_note
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppressions: %w", err)
	}
	defer rows.Close()

	var entries []types.SuppressionEntry
	for rows.Next() {
		var e types.SuppressionEntry
		if err := rows.Scan(&e.Entity, &e.SourceNote, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan suppression row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountSuppressions returns the number of suppression entries.
func (s *FeedbackStore) CountSuppressions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM suppressions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count suppressions: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *FeedbackStore) Close() error {
	return s.db.Close()
}

func validateEvent(event *types.FeedbackEvent) error {
	if event == nil {
		return storage.ErrInvalidInput
	}
	if event.ID == "" {
		return fmt.Errorf("%w: event ID is required", storage.ErrInvalidInput)
	}
	if event.Entity == "" {
		return fmt.Errorf("%w: event entity is required", storage.ErrInvalidInput)
	}
	if event.SourceNote == "" {
		return fmt.Errorf("%w: event source note is required", storage.ErrInvalidInput)
	}
	if event.Timestamp.IsZero() {
		return fmt.Errorf("%w: event timestamp is required", storage.ErrInvalidInput)
	}
	return nil
}

func counterDelta(accepted bool) (pos, neg int) {
	if accepted {
		return 1, 0
	}
	return 0, 1
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
