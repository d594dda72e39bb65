package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/velvetmonkey/notelink/internal/config"
	"github.com/velvetmonkey/notelink/internal/storage"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// suppressionKey joins an entity and an optional note into the map key
// used for suppression lookups. An empty note means entity-wide scope.
func suppressionKey(entity, sourceNote string) string {
	return entity + "\x00" + sourceNote
}

// feedbackState is the in-memory mirror of the feedback store consulted
// during ranking. It is loaded once at startup and updated after every
// successful persisted write, so ranking reads never touch the database
// and never wait on a feedback write in flight.
type feedbackState struct {
	cfg config.FeedbackConfig

	mu sync.RWMutex
	// stats is entity → source note → tally.
	stats map[string]map[string]*types.FeedbackStat
	// suppressed holds suppressionKey entries for both scopes.
	suppressed map[string]bool
	// epoch increments on every mutation; the suggestion cache keys on
	// it so stale rankings are never served after feedback lands.
	epoch int64
}

func newFeedbackState(cfg config.FeedbackConfig) *feedbackState {
	return &feedbackState{
		cfg:        cfg,
		stats:      make(map[string]map[string]*types.FeedbackStat),
		suppressed: make(map[string]bool),
	}
}

// load populates the state from the persisted store.
func (f *feedbackState) load(ctx context.Context, store storage.FeedbackStore) error {
	stats, err := store.ListStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load feedback stats: %w", err)
	}
	suppressions, err := store.ListSuppressions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load suppressions: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range stats {
		st := stats[i]
		byNote, ok := f.stats[st.Entity]
		if !ok {
			byNote = make(map[string]*types.FeedbackStat)
			f.stats[st.Entity] = byNote
		}
		byNote[st.SourceNote] = &st
	}
	for _, s := range suppressions {
		f.suppressed[suppressionKey(s.Entity, s.SourceNote)] = true
	}
	f.epoch++
	return nil
}

// record folds one event into the in-memory tallies. Called only after
// the event has been persisted.
func (f *feedbackState) record(entity, sourceNote string, accepted bool, ts time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byNote, ok := f.stats[entity]
	if !ok {
		byNote = make(map[string]*types.FeedbackStat)
		f.stats[entity] = byNote
	}
	st, ok := byNote[sourceNote]
	if !ok {
		st = &types.FeedbackStat{Entity: entity, SourceNote: sourceNote}
		byNote[sourceNote] = st
	}
	if accepted {
		st.PositiveCount++
	} else {
		st.NegativeCount++
	}
	st.LastUpdated = ts
	f.epoch++
}

// Epoch returns the current mutation counter.
func (f *feedbackState) Epoch() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.epoch
}

// Adjustment implements rank.FeedbackView. The boost and penalty both
// stay disabled below the minimum sample size so a single noisy event
// cannot swing rankings.
func (f *feedbackState) Adjustment(entity string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	pos, neg := 0, 0
	for _, st := range f.stats[entity] {
		pos += st.PositiveCount
		neg += st.NegativeCount
	}
	total := pos + neg
	if total < f.cfg.MinSamples {
		return 0
	}
	ratio := float64(pos) / float64(total)
	switch {
	case ratio >= f.cfg.HighAcceptRatio:
		return f.cfg.Boost
	case ratio <= f.cfg.LowAcceptRatio:
		return -f.cfg.Penalty
	default:
		return 0
	}
}

// IsSuppressed implements rank.FeedbackView: suppression applies
// entity-wide or for the specific source note.
func (f *feedbackState) IsSuppressed(entity, sourceNote string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.suppressed[suppressionKey(entity, "")] {
		return true
	}
	return f.suppressed[suppressionKey(entity, sourceNote)]
}

// SuppressionCount returns the number of suppression entries.
func (f *feedbackState) SuppressionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.suppressed)
}

// promotionCandidates returns the suppression entries the learner should
// create right now and that do not exist yet.
//
// A (entity, note) key is promoted once its negative count reaches the
// threshold. An entity-wide key is promoted once its total negatives
// reach the threshold across at least two distinct notes; rejections
// concentrated in a single note suppress only that pairing, not the
// entity everywhere.
func (f *feedbackState) promotionCandidates() []types.SuppressionEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	now := time.Now()
	var out []types.SuppressionEntry

	for entity, byNote := range f.stats {
		totalNeg := 0
		notesWithNeg := 0
		for note, st := range byNote {
			totalNeg += st.NegativeCount
			if st.NegativeCount > 0 {
				notesWithNeg++
			}
			if st.NegativeCount >= f.cfg.SuppressionThreshold &&
				!f.suppressed[suppressionKey(entity, note)] {
				out = append(out, types.SuppressionEntry{
					Entity:     entity,
					SourceNote: note,
					Reason:     fmt.Sprintf("rejected %d times for this note", st.NegativeCount),
					CreatedAt:  now,
				})
			}
		}
		if totalNeg >= f.cfg.SuppressionThreshold && notesWithNeg >= 2 &&
			!f.suppressed[suppressionKey(entity, "")] {
			out = append(out, types.SuppressionEntry{
				Entity:    entity,
				Reason:    fmt.Sprintf("rejected %d times across %d notes", totalNeg, notesWithNeg),
				CreatedAt: now,
			})
		}
	}
	return out
}

// markSuppressed records a promoted entry in memory.
func (f *feedbackState) markSuppressed(entry types.SuppressionEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suppressed[suppressionKey(entry.Entity, entry.SourceNote)] = true
	f.epoch++
}

// updateSuppressionList scans the stats, persists any newly promoted
// keys, and mirrors them in memory. Promotion is monotonic: entries are
// never removed here. Returns the number of new entries.
//
// A persistence failure on an individual entry is logged and the entry
// is still applied in memory so a rejected suggestion does not resurface
// in this process.
func (f *feedbackState) updateSuppressionList(ctx context.Context, store storage.FeedbackStore) int {
	added := 0
	for _, entry := range f.promotionCandidates() {
		if err := store.AddSuppression(ctx, &entry); err != nil {
			log.Printf("engine: failed to persist suppression for %q: %v", entry.Entity, err)
		}
		f.markSuppressed(entry)
		added++
	}
	return added
}
