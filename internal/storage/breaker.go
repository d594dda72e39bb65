package storage

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/velvetmonkey/notelink/pkg/types"
)

// ErrCircuitOpen is returned when the write circuit breaker is open and
// rejects feedback writes to keep a failing database off the hot path.
var ErrCircuitOpen = errors.New("feedback write circuit breaker is open")

// BreakerStore wraps a FeedbackStore so that persistence failures
// degrade gracefully: after repeated write failures the breaker opens
// and writes fail fast instead of piling up on a dead database. Reads
// pass through untouched, so suggestion quality on an already-loaded
// state is unaffected by a write outage.
type BreakerStore struct {
	inner   FeedbackStore
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps inner with a circuit breaker: three consecutive
// write failures open the circuit, which half-opens after 30 seconds.
func NewBreakerStore(inner FeedbackStore) *BreakerStore {
	return &BreakerStore{
		inner: inner,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "FeedbackWrites",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// AppendEvent writes through the breaker.
func (s *BreakerStore) AppendEvent(ctx context.Context, event *types.FeedbackEvent) error {
	return s.execute(func() error { return s.inner.AppendEvent(ctx, event) })
}

// AddSuppression writes through the breaker.
func (s *BreakerStore) AddSuppression(ctx context.Context, entry *types.SuppressionEntry) error {
	return s.execute(func() error { return s.inner.AddSuppression(ctx, entry) })
}

// ListStats passes through to the inner store.
func (s *BreakerStore) ListStats(ctx context.Context) ([]types.FeedbackStat, error) {
	return s.inner.ListStats(ctx)
}

// GetStats passes through to the inner store.
func (s *BreakerStore) GetStats(ctx context.Context, entity string) ([]types.FeedbackStat, error) {
	return s.inner.GetStats(ctx, entity)
}

// ListSuppressions passes through to the inner store.
func (s *BreakerStore) ListSuppressions(ctx context.Context) ([]types.SuppressionEntry, error) {
	return s.inner.ListSuppressions(ctx)
}

// CountSuppressions passes through to the inner store.
func (s *BreakerStore) CountSuppressions(ctx context.Context) (int, error) {
	return s.inner.CountSuppressions(ctx)
}

// Close closes the inner store.
func (s *BreakerStore) Close() error {
	return s.inner.Close()
}

func (s *BreakerStore) execute(fn func() error) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}
