// Package catalog builds the immutable entity index consulted by every
// suggestion request: the entity catalog, the normalized alias lookup
// with collision groups, and the co-occurrence graph. One build produces
// one Generation; generations are swapped atomically and never mutated.
package catalog

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/velvetmonkey/notelink/pkg/types"
)

// Catalog is an immutable snapshot of all entities and their lookup
// structure. It is safe for concurrent readers without locking.
type Catalog struct {
	entities []*types.Entity
	byPath   map[string]*types.Entity

	// lookup maps a normalized name or alias to every entity claiming
	// it. Buckets with more than one entity are collision groups.
	lookup map[string][]*types.Entity

	maxKeyTokens  int
	maxPopularity int
}

// Len returns the number of entities in the catalog.
func (c *Catalog) Len() int {
	return len(c.entities)
}

// Entities returns all entities sorted by name then path. Callers must
// not mutate the returned slice.
func (c *Catalog) Entities() []*types.Entity {
	return c.entities
}

// ByPath returns the entity owned by the given document path.
func (c *Catalog) ByPath(path string) (*types.Entity, bool) {
	e, ok := c.byPath[path]
	return e, ok
}

// Lookup returns the entities claiming the given normalized key, or nil.
// A result with more than one entity is an alias collision requiring
// disambiguation. Callers must not mutate the returned slice.
func (c *Catalog) Lookup(normalized string) []*types.Entity {
	return c.lookup[normalized]
}

// Keys returns all normalized lookup keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.lookup))
	for k := range c.lookup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CollisionGroups returns every normalized key claimed by more than one
// entity, with its claimants.
func (c *Catalog) CollisionGroups() map[string][]*types.Entity {
	groups := make(map[string][]*types.Entity)
	for key, bucket := range c.lookup {
		if len(bucket) > 1 {
			groups[key] = bucket
		}
	}
	return groups
}

// MaxKeyTokens returns the token length of the longest lookup key.
// The mention extractor uses it to bound its multi-word scan window.
func (c *Catalog) MaxKeyTokens() int {
	return c.maxKeyTokens
}

// NormalizedPopularity maps an entity's hub score into [0,1] relative
// to the most popular entity in this generation.
func (c *Catalog) NormalizedPopularity(e *types.Entity) float64 {
	if c.maxPopularity == 0 {
		return 0
	}
	return float64(e.Popularity) / float64(c.maxPopularity)
}

// Generation bundles one catalog build with its derived co-occurrence
// graph under a monotonic sequence number.
type Generation struct {
	Seq     int64
	BuiltAt time.Time
	Catalog *Catalog
	Graph   *CoOccurrenceGraph
}

// BuildGeneration constructs a complete generation from parsed
// documents. The build is all-or-nothing: it either returns a fully
// usable generation or an error, never a partial index. Documents that
// cannot contribute an entity (missing or non-string frontmatter type,
// empty title) are skipped with a log line, per-document failures never
// abort the build.
func BuildGeneration(docs []types.Document, seq int64) (*Generation, error) {
	cat, err := build(docs)
	if err != nil {
		return nil, err
	}
	return &Generation{
		Seq:     seq,
		BuiltAt: time.Now(),
		Catalog: cat,
		Graph:   buildCoOccurrence(docs, cat),
	}, nil
}

// build constructs the catalog and alias lookup in O(entities).
func build(docs []types.Document) (*Catalog, error) {
	cat := &Catalog{
		byPath: make(map[string]*types.Entity),
		lookup: make(map[string][]*types.Entity),
	}

	for i := range docs {
		doc := &docs[i]
		if doc.Path == "" {
			log.Printf("catalog: skipping document with empty path (title %q)", doc.Title)
			continue
		}
		if _, dup := cat.byPath[doc.Path]; dup {
			return nil, fmt.Errorf("catalog: duplicate document path %q", doc.Path)
		}

		entity, ok := entityFromDocument(doc)
		if !ok {
			continue
		}

		cat.entities = append(cat.entities, entity)
		cat.byPath[entity.Path] = entity
		if entity.Popularity > cat.maxPopularity {
			cat.maxPopularity = entity.Popularity
		}
	}

	// Deterministic order regardless of input document order.
	sort.Slice(cat.entities, func(i, j int) bool {
		if cat.entities[i].Name != cat.entities[j].Name {
			return cat.entities[i].Name < cat.entities[j].Name
		}
		return cat.entities[i].Path < cat.entities[j].Path
	})

	for _, e := range cat.entities {
		for _, key := range entityKeys(e) {
			cat.lookup[key] = append(cat.lookup[key], e)
			if n := len(strings.Fields(key)); n > cat.maxKeyTokens {
				cat.maxKeyTokens = n
			}
		}
	}

	return cat, nil
}

// entityFromDocument derives the entity a document owns, or ok=false
// when the document contributes none. Unknown type strings fold into
// the "other" category; a missing or non-string type contributes no
// entity at all.
func entityFromDocument(doc *types.Document) (*types.Entity, bool) {
	rawType, ok := doc.Frontmatter["type"].(string)
	if !ok || strings.TrimSpace(rawType) == "" {
		log.Printf("catalog: %s has no frontmatter type, contributes no entity", doc.Path)
		return nil, false
	}

	name := strings.TrimSpace(doc.Title)
	if name == "" {
		log.Printf("catalog: %s has no title, contributes no entity", doc.Path)
		return nil, false
	}

	return &types.Entity{
		Name:       name,
		Category:   types.ParseCategory(rawType),
		Path:       doc.Path,
		Aliases:    aliasesFromFrontmatter(doc.Frontmatter),
		Popularity: max(doc.InboundLinks, 0),
	}, true
}

// aliasesFromFrontmatter reads the aliases field permissively: YAML
// list, single string, or comma-separated string forms are all accepted.
func aliasesFromFrontmatter(fm map[string]interface{}) []string {
	raw, ok := fm["aliases"]
	if !ok {
		return nil
	}

	var aliases []string
	appendAlias := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			aliases = append(aliases, s)
		}
	}

	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				appendAlias(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			appendAlias(s)
		}
	}
	return aliases
}

// entityKeys returns the deduplicated normalized lookup keys for an
// entity: its name plus every alias.
func entityKeys(e *types.Entity) []string {
	seen := make(map[string]bool, 1+len(e.Aliases))
	var keys []string

	add := func(s string) {
		key := types.NormalizeAlias(s)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}

	add(e.Name)
	for _, a := range e.Aliases {
		add(a)
	}
	return keys
}
