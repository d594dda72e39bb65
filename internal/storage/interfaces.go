// Package storage provides the persistence interfaces for the Notelink
// feedback subsystem.
//
// The events table is the source of truth: it is append-only and never
// pruned. Stats and suppressions are derived and always re-derivable
// from it, so the only schema-evolution rule is additive-only columns.
package storage

import (
	"context"
	"errors"

	"github.com/velvetmonkey/notelink/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// FeedbackStore persists feedback events, derived per-key stats, and the
// suppression list. Implementations must make AppendEvent atomic per
// (entity, source note) key: concurrent calls on different keys must not
// corrupt each other, and calls on the same key serialize with counts
// accumulating, never overwriting.
type FeedbackStore interface {
	// AppendEvent appends a feedback event and updates the derived stat
	// row for its (entity, source note) key in the same transaction.
	AppendEvent(ctx context.Context, event *types.FeedbackEvent) error

	// ListStats returns every derived stat row.
	ListStats(ctx context.Context) ([]types.FeedbackStat, error)

	// GetStats returns the stat rows for one entity across all notes.
	// Returns an empty slice (not an error) for an unknown entity.
	GetStats(ctx context.Context, entity string) ([]types.FeedbackStat, error)

	// AddSuppression inserts a suppression entry. Idempotent: re-adding
	// an existing key is a no-op, preserving the original CreatedAt.
	AddSuppression(ctx context.Context, entry *types.SuppressionEntry) error

	// ListSuppressions returns every suppression entry.
	ListSuppressions(ctx context.Context) ([]types.SuppressionEntry, error)

	// CountSuppressions returns the number of suppression entries.
	CountSuppressions(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
