// Package rank turns raw mentions into an ordered, deduplicated
// suggestion list. It resolves alias collisions, applies the selected
// strictness policy, folds in popularity, co-occurrence, and feedback
// signals, and removes suppressed entities unconditionally.
package rank

import (
	"sort"

	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/internal/config"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// FeedbackView is the read side of the feedback store consulted during
// ranking. Implementations must be non-blocking snapshot reads: ranking
// never waits on a feedback write.
type FeedbackView interface {
	// Adjustment returns the score adjustment for an entity name
	// (positive boost, negative penalty, or 0 below the sample floor).
	Adjustment(entity string) float64

	// IsSuppressed reports whether the entity is suppressed globally or
	// for the given source note.
	IsSuppressed(entity, sourceNote string) bool
}

// Ranker scores and orders mention candidates. It is stateless apart
// from configuration and safe for concurrent use.
type Ranker struct {
	cfg config.RankingConfig
}

// New creates a Ranker with the given scoring configuration.
func New(cfg config.RankingConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// candidate is one entity being scored, carrying its best mention.
type candidate struct {
	entity  *types.Entity
	kind    types.MatchKind
	quality float64
	matched string
}

// Rank produces the final suggestion list for one request.
//
// linked carries the note's existing outgoing links; they seed the
// "present entities" set used for disambiguation and co-occurrence
// scoring, and their targets are never re-suggested (the extractor
// already excluded those spans; resolved link targets are also dropped
// here by entity identity).
func (r *Ranker) Rank(gen *catalog.Generation, mentions []types.Mention, notePath string, linked []types.LinkSpan, fb FeedbackView, opts types.SuggestOptions) []types.Suggestion {
	opts.Normalize()
	pol := policyFor(opts.Strictness, r.cfg)

	// Entities the content already references: unambiguous mentions plus
	// resolved existing link targets. Used as disambiguation context and
	// as the co-occurrence anchor set.
	present := make(map[string]bool)
	alreadyLinked := make(map[string]bool)
	for _, l := range linked {
		if bucket := gen.Catalog.Lookup(types.NormalizeAlias(l.Target)); len(bucket) == 1 {
			present[bucket[0].Key()] = true
			alreadyLinked[bucket[0].Key()] = true
		}
	}
	for _, m := range mentions {
		if len(m.Candidates) == 1 {
			present[m.Candidates[0].Key()] = true
		}
	}

	// Resolve and deduplicate: one candidate per entity, best mention wins.
	best := make(map[string]*candidate)
	for _, m := range mentions {
		if !pol.admitsKind(m.Kind) {
			continue
		}
		entity := disambiguate(gen, m.Candidates, present, r.cfg.PopularityMargin)
		if entity == nil {
			continue // unresolved collision: silence over a wrong guess
		}
		if entity.Path == notePath || alreadyLinked[entity.Key()] {
			continue
		}
		present[entity.Key()] = true

		cur, ok := best[entity.Key()]
		if !ok || m.Quality > cur.quality ||
			(m.Quality == cur.quality && m.Kind.Precedence() > cur.kind.Precedence()) {
			best[entity.Key()] = &candidate{
				entity:  entity,
				kind:    m.Kind,
				quality: m.Quality,
				matched: m.MatchedText,
			}
		}
	}

	// Aggressive policy: admit co-occurrence-only candidates that were
	// never matched in the text.
	if pol.admitsKind(types.MatchContextual) {
		for key, c := range r.contextualCandidates(gen, present, best, notePath, alreadyLinked) {
			best[key] = c
		}
	}

	// Score, suppress, filter.
	var suggestions []types.Suggestion
	for _, c := range best {
		if fb != nil && fb.IsSuppressed(c.entity.Name, notePath) {
			continue
		}

		breakdown := types.ScoreBreakdown{
			MatchQuality: r.cfg.MatchWeight * c.quality,
			Popularity:   r.cfg.PopularityWeight * gen.Catalog.NormalizedPopularity(c.entity),
			CoOccurrence: r.cfg.CoOccurrenceWeight * gen.Graph.Strength(c.entity.Key(), present),
		}
		if fb != nil {
			breakdown.Feedback = fb.Adjustment(c.entity.Name)
		}
		score := breakdown.MatchQuality + breakdown.Popularity + breakdown.CoOccurrence + breakdown.Feedback
		if score < pol.minScore {
			continue
		}

		s := types.Suggestion{
			Entity:      c.entity.Name,
			Path:        c.entity.Path,
			Kind:        c.kind,
			MatchedText: c.matched,
			Score:       score,
		}
		if opts.Detailed {
			b := breakdown
			s.Breakdown = &b
		}
		suggestions = append(suggestions, s)
	}

	// Deterministic order: score, then match quality, then popularity,
	// then lexical.
	sort.Slice(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Kind.Precedence() != b.Kind.Precedence() {
			return a.Kind.Precedence() > b.Kind.Precedence()
		}
		pa, pb := popularityOf(gen, a.Path), popularityOf(gen, b.Path)
		if pa != pb {
			return pa > pb
		}
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		return a.Path < b.Path
	})

	if len(suggestions) > opts.MaxSuggestions {
		suggestions = suggestions[:opts.MaxSuggestions]
	}
	return suggestions
}

// contextualCandidates returns co-occurrence neighbors of the present
// set that have not been matched or linked already.
func (r *Ranker) contextualCandidates(gen *catalog.Generation, present map[string]bool, best map[string]*candidate, notePath string, alreadyLinked map[string]bool) map[string]*candidate {
	out := make(map[string]*candidate)
	for anchor := range present {
		for key, w := range gen.Graph.Neighbors(anchor) {
			if w <= 0 || key == anchor || present[key] || alreadyLinked[key] {
				continue
			}
			if _, matched := best[key]; matched {
				continue
			}
			entity, ok := gen.Catalog.ByPath(key)
			if !ok || entity.Path == notePath {
				continue
			}
			out[key] = &candidate{
				entity:  entity,
				kind:    types.MatchContextual,
				quality: 0.4,
			}
		}
	}
	return out
}

func popularityOf(gen *catalog.Generation, path string) int {
	if e, ok := gen.Catalog.ByPath(path); ok {
		return e.Popularity
	}
	return 0
}
