// Package engine wires the catalog, extractor, ranker, and feedback
// store into the link suggestion service. It owns the generation
// lifecycle: every rebuild produces a fresh immutable generation that is
// swapped in atomically, so suggestion reads never observe a partially
// built index and never block behind a rebuild.
package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/internal/config"
	"github.com/velvetmonkey/notelink/internal/extract"
	"github.com/velvetmonkey/notelink/internal/rank"
	"github.com/velvetmonkey/notelink/internal/storage"
	"github.com/velvetmonkey/notelink/internal/vault"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// ErrNotReady is returned by Suggest before the first successful rebuild
// has produced a generation.
var ErrNotReady = errors.New("entity index has not been built yet")

// generationState bundles a generation with the extractor built over its
// catalog. The two always travel together through the atomic swap.
type generationState struct {
	gen       *catalog.Generation
	extractor *extract.Extractor
}

// LinkEngine is the top-level service facade. All methods are safe for
// concurrent use.
type LinkEngine struct {
	cfg    *config.Config
	store  storage.FeedbackStore
	ranker *rank.Ranker

	current  atomic.Pointer[generationState]
	seq      atomic.Int64
	feedback *feedbackState

	// rebuildMu serialises rebuilds; it is never held by readers.
	rebuildMu sync.Mutex

	cache *lru.Cache[string, []types.Suggestion]
}

// New creates a LinkEngine backed by the given feedback store. The
// persisted feedback state is loaded eagerly so the first suggestion
// already reflects past sessions.
func New(ctx context.Context, cfg *config.Config, store storage.FeedbackStore) (*LinkEngine, error) {
	fb := newFeedbackState(cfg.Feedback)
	if err := fb.load(ctx, store); err != nil {
		return nil, err
	}

	cache, err := lru.New[string, []types.Suggestion](cfg.Ranking.SuggestionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion cache: %w", err)
	}

	return &LinkEngine{
		cfg:      cfg,
		store:    store,
		ranker:   rank.New(cfg.Ranking),
		feedback: fb,
		cache:    cache,
	}, nil
}

// Rebuild constructs a new generation from the documents and swaps it in
// atomically. On any build error the previous generation stays live
// untouched.
func (e *LinkEngine) Rebuild(ctx context.Context, docs []types.Document) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	seq := e.seq.Load() + 1

	gen, err := catalog.BuildGeneration(docs, seq)
	if err != nil {
		return fmt.Errorf("rebuild failed, previous generation retained: %w", err)
	}

	e.current.Store(&generationState{
		gen:       gen,
		extractor: extract.New(gen.Catalog),
	})
	e.seq.Store(seq)

	log.Printf("engine: generation %d live: %d entities from %d documents in %s",
		seq, gen.Catalog.Len(), len(docs), time.Since(start).Round(time.Millisecond))
	return nil
}

// Suggest extracts mentions from content and returns ranked link
// suggestions for the note at notePath. Wikilinks already present in
// content are parsed out of the text itself, so the caller only supplies
// what the editor sees.
func (e *LinkEngine) Suggest(ctx context.Context, content, notePath string, opts types.SuggestOptions) ([]types.Suggestion, error) {
	gs := e.current.Load()
	if gs == nil {
		return nil, ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := e.cacheKey(gs.gen.Seq, content, notePath, opts)
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	linked := vault.ParseLinkSpans(content)
	mentions := gs.extractor.Extract(content, notePath, linked)
	suggestions := e.ranker.Rank(gs.gen, mentions, notePath, linked, e.feedback, opts)

	e.cache.Add(key, suggestions)
	return suggestions, nil
}

// cacheKey fingerprints everything a ranking depends on. The generation
// sequence and the feedback epoch are included so both rebuilds and new
// feedback naturally invalidate prior entries.
func (e *LinkEngine) cacheKey(seq int64, content, notePath string, opts types.SuggestOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%d\x00%s\x00%d\x00%t\x00%s\x00", seq, e.feedback.Epoch(), opts.Strictness, opts.MaxSuggestions, opts.Detailed, notePath)
	h.Write([]byte(content))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// RecordFeedback persists one accept/reject decision and folds it into
// the live feedback state. Rejections immediately run the suppression
// learner so a key crossing the threshold disappears from the very next
// suggestion call.
func (e *LinkEngine) RecordFeedback(ctx context.Context, entity, sourceNote, origin string, accepted bool) error {
	if entity == "" || sourceNote == "" {
		return fmt.Errorf("%w: entity and source note are required", storage.ErrInvalidInput)
	}
	if origin == "" {
		origin = "unknown"
	}

	event := &types.FeedbackEvent{
		ID:         uuid.New().String(),
		Entity:     entity,
		SourceNote: sourceNote,
		Origin:     origin,
		Accepted:   accepted,
		Timestamp:  time.Now().UTC(),
	}
	if err := e.store.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	e.feedback.record(entity, sourceNote, accepted, event.Timestamp)

	if !accepted {
		if added := e.feedback.updateSuppressionList(ctx, e.store); added > 0 {
			log.Printf("engine: suppression list grew by %d after rejection of %q", added, entity)
		}
	}
	return nil
}

// UpdateSuppressionList runs a full promotion scan over the accumulated
// feedback and returns the number of newly suppressed keys. RecordFeedback
// already does this incrementally; the explicit call exists for
// operational tooling.
func (e *LinkEngine) UpdateSuppressionList(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return e.feedback.updateSuppressionList(ctx, e.store), nil
}

// IndexStats reports the state of the live generation.
func (e *LinkEngine) IndexStats() types.IndexStats {
	gs := e.current.Load()
	if gs == nil {
		return types.IndexStats{}
	}
	return types.IndexStats{
		Ready:           true,
		TotalEntities:   gs.gen.Catalog.Len(),
		Generation:      gs.gen.Seq,
		CollisionGroups: len(gs.gen.Catalog.CollisionGroups()),
	}
}

// SuppressionCount returns the number of active suppression entries.
func (e *LinkEngine) SuppressionCount() int {
	return e.feedback.SuppressionCount()
}

// Close releases the underlying store.
func (e *LinkEngine) Close() error {
	return e.store.Close()
}
