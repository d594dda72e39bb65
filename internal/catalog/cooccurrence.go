package catalog

import (
	"github.com/velvetmonkey/notelink/pkg/types"
)

// CoOccurrenceGraph records, for each entity, which other entities are
// linked from the same documents and how often. Edges are symmetric and
// the graph is rebuilt alongside the catalog, never mutated in place.
type CoOccurrenceGraph struct {
	// weights is keyed by entity key (owning path) on both levels.
	weights map[string]map[string]int
}

// buildCoOccurrence derives the graph from each document's existing
// outgoing links. Link targets that resolve to no entity, or ambiguously
// to several, contribute nothing.
func buildCoOccurrence(docs []types.Document, cat *Catalog) *CoOccurrenceGraph {
	g := &CoOccurrenceGraph{weights: make(map[string]map[string]int)}

	for i := range docs {
		doc := &docs[i]

		// Resolve this document's link targets to unique entities.
		seen := make(map[string]bool)
		var keys []string
		addKey := func(key string) {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}

		// The document's own entity participates: entities it links to
		// co-occur with it.
		if own, ok := cat.ByPath(doc.Path); ok {
			addKey(own.Key())
		}
		for _, span := range doc.OutgoingLinkSpans {
			bucket := cat.Lookup(types.NormalizeAlias(span.Target))
			if len(bucket) != 1 {
				continue // unresolved or ambiguous target
			}
			addKey(bucket[0].Key())
		}

		for a := 0; a < len(keys); a++ {
			for b := a + 1; b < len(keys); b++ {
				g.increment(keys[a], keys[b])
				g.increment(keys[b], keys[a])
			}
		}
	}

	return g
}

func (g *CoOccurrenceGraph) increment(from, to string) {
	m, ok := g.weights[from]
	if !ok {
		m = make(map[string]int)
		g.weights[from] = m
	}
	m[to]++
}

// Weight returns how many documents link both entities.
func (g *CoOccurrenceGraph) Weight(a, b string) int {
	return g.weights[a][b]
}

// Neighbors returns the co-occurrence weights for one entity. Callers
// must not mutate the returned map.
func (g *CoOccurrenceGraph) Neighbors(key string) map[string]int {
	return g.weights[key]
}

// Strength maps an entity's total co-occurrence weight against a set of
// present entity keys into [0,1). More shared documents asymptotically
// approach 1.
func (g *CoOccurrenceGraph) Strength(key string, present map[string]bool) float64 {
	total := 0
	for other, w := range g.weights[key] {
		if other != key && present[other] {
			total += w
		}
	}
	if total == 0 {
		return 0
	}
	return float64(total) / (float64(total) + 2.0)
}
