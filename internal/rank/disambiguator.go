package rank

import (
	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// disambiguate resolves an alias collision to a single entity, or
// returns nil when no candidate can be preferred safely. Guessing wrong
// on a collision is worse than silence, so the fall-through is to
// suppress the mention entirely.
//
// Resolution order:
//  1. context: if exactly one candidate co-occurs with an entity already
//     present in the content, prefer it;
//  2. popularity: prefer the most popular candidate when it leads the
//     runner-up by at least the configured margin;
//  3. otherwise unresolved.
func disambiguate(gen *catalog.Generation, candidates []*types.Entity, present map[string]bool, margin float64) *types.Entity {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	// (1) Context overlap via the co-occurrence graph.
	var contextual *types.Entity
	contextualCount := 0
	for _, c := range candidates {
		if coOccursWithPresent(gen.Graph, c.Key(), present) {
			contextual = c
			contextualCount++
		}
	}
	if contextualCount == 1 {
		return contextual
	}

	// (2) Popularity margin. Candidates are in deterministic catalog
	// order, so equal popularity resolves identically across calls,
	// though equal popularity never clears the margin anyway.
	top, runnerUp := topTwoByPopularity(candidates)
	if top.Popularity > 0 && float64(top.Popularity) >= margin*float64(runnerUp.Popularity) &&
		top.Popularity != runnerUp.Popularity {
		return top
	}

	// (3) No safe winner.
	return nil
}

// coOccursWithPresent reports whether the entity shares at least one
// co-occurrence edge with an already-present entity.
func coOccursWithPresent(g *catalog.CoOccurrenceGraph, key string, present map[string]bool) bool {
	for other, w := range g.Neighbors(key) {
		if w > 0 && other != key && present[other] {
			return true
		}
	}
	return false
}

// topTwoByPopularity returns the most popular candidate and the
// runner-up (which may equal the top for single-element input).
func topTwoByPopularity(candidates []*types.Entity) (*types.Entity, *types.Entity) {
	top, runnerUp := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.Popularity > top.Popularity:
			runnerUp = top
			top = c
		case top == runnerUp || c.Popularity > runnerUp.Popularity:
			runnerUp = c
		}
	}
	return top, runnerUp
}
