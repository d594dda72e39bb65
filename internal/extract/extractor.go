// Package extract scans note content for candidate entity mentions
// against a catalog generation. It produces transient Mention values;
// scoring and collision resolution happen downstream in the ranker.
package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// Extractor matches content against one catalog generation. It is
// immutable after construction and safe for concurrent use.
type Extractor struct {
	cat *catalog.Catalog

	// keysByLen indexes single-word lookup keys by byte length for the
	// bounded fuzzy pass. Slices are sorted for deterministic output.
	keysByLen map[int][]string

	// nameTokens indexes normalized tokens of multi-word entity names
	// for the partial pass.
	nameTokens map[string][]*types.Entity
}

// New builds an extractor over the given catalog.
func New(cat *catalog.Catalog) *Extractor {
	x := &Extractor{
		cat:        cat,
		keysByLen:  make(map[int][]string),
		nameTokens: make(map[string][]*types.Entity),
	}

	for _, key := range cat.Keys() {
		if !strings.Contains(key, " ") && len(key) >= minFuzzyLen {
			x.keysByLen[len(key)] = append(x.keysByLen[len(key)], key)
		}
	}

	for _, e := range cat.Entities() {
		tokens := strings.Fields(types.NormalizeAlias(e.Name))
		if len(tokens) < 2 {
			continue
		}
		for _, tok := range tokens {
			x.nameTokens[tok] = append(x.nameTokens[tok], e)
		}
	}

	return x
}

// token is a word occurrence in the source content.
type token struct {
	start, end int
	text       string
}

// Extract scans content for entity mentions. Spans inside existing
// links, inside code, and candidates pointing at the note's own entity
// are excluded. Matching is greedy per position: the longest exact or
// alias match wins, then fuzzy, then contextual partials.
func (x *Extractor) Extract(content, notePath string, linked []types.LinkSpan) []types.Mention {
	excluded := excludedRanges(content, linked)
	tokens := tokenize(content)

	var mentions []types.Mention
	maxTokens := x.cat.MaxKeyTokens()
	if maxTokens < 1 {
		maxTokens = 1
	}

	// matchedSpans tracks token indexes already claimed by a mention so
	// the partial pass does not re-propose them.
	claimed := make([]bool, len(tokens))

	for i := 0; i < len(tokens); i++ {
		if overlapsAny(tokens[i].start, tokens[i].end, excluded) {
			continue
		}

		m, consumed := x.matchAt(content, tokens, i, maxTokens, notePath, excluded)
		if consumed > 0 {
			if m != nil {
				mentions = append(mentions, *m)
			}
			for j := i; j < i+consumed && j < len(tokens); j++ {
				claimed[j] = true
			}
			i += consumed - 1
		}
	}

	mentions = append(mentions, x.partialPass(content, tokens, claimed, notePath, linked, excluded)...)
	return mentions
}

// matchAt tries exact/alias matches longest-first at token i, then a
// fuzzy single-token match. It returns the mention (nil when every
// candidate was excluded) and how many tokens the match consumed;
// consumed is 0 when nothing matched.
func (x *Extractor) matchAt(content string, tokens []token, i, maxTokens int, notePath string, excluded []span) (*types.Mention, int) {
	limit := maxTokens
	if rest := len(tokens) - i; rest < limit {
		limit = rest
	}

	for n := limit; n >= 1; n-- {
		start, end := tokens[i].start, tokens[i+n-1].end
		if overlapsAny(start, end, excluded) {
			continue
		}
		key := types.NormalizeAlias(content[start:end])
		bucket := x.cat.Lookup(key)
		if len(bucket) == 0 {
			continue
		}

		candidates, kind := filterCandidates(bucket, key, notePath)
		if len(candidates) == 0 {
			// Matched the note's own entity only. Consume the span so its
			// tail tokens cannot produce spurious shorter matches.
			return nil, n
		}

		quality := 1.0
		if kind == types.MatchAlias {
			quality = 0.9
		}
		return &types.Mention{
			MatchedText: content[start:end],
			Start:       start,
			End:         end,
			Kind:        kind,
			Quality:     quality,
			Candidates:  candidates,
		}, n
	}

	// Fuzzy: single tokens of four or more characters only, so short
	// codes ("ML", "TS", "RAG") never fuzzy-match.
	tok := tokens[i]
	normalized := types.NormalizeAlias(tok.text)
	if len(normalized) < minFuzzyLen {
		return nil, 0
	}
	key, ok := x.fuzzyKey(normalized)
	if !ok {
		return nil, 0
	}
	candidates, _ := filterCandidates(x.cat.Lookup(key), key, notePath)
	if len(candidates) == 0 {
		return nil, 1
	}
	return &types.Mention{
		MatchedText: tok.text,
		Start:       tok.start,
		End:         tok.end,
		Kind:        types.MatchFuzzy,
		Quality:     fuzzyQuality(len(normalized)),
		Candidates:  candidates,
	}, 1
}

// partialPass finds token-subsequence mentions of multi-word entity
// names ("Owen" for "Owen Park"), admitted only when the document
// context supports them: another token of the entity's name appears in
// the content, or an existing link targets an entity of the same
// category.
func (x *Extractor) partialPass(content string, tokens []token, claimed []bool, notePath string, linked []types.LinkSpan, excluded []span) []types.Mention {
	if len(x.nameTokens) == 0 {
		return nil
	}

	contentTokens := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		contentTokens[types.NormalizeAlias(t.text)] = true
	}
	linkedCategories := x.linkedCategories(linked)

	var mentions []types.Mention
	for i, t := range tokens {
		if claimed[i] || overlapsAny(t.start, t.end, excluded) {
			continue
		}
		norm := types.NormalizeAlias(t.text)
		if len(norm) < minPartialLen {
			continue
		}

		var candidates []*types.Entity
		for _, e := range x.nameTokens[norm] {
			if e.Path == notePath {
				continue
			}
			if x.partialContextSupported(e, norm, contentTokens, linkedCategories) {
				candidates = append(candidates, e)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sortEntities(candidates)
		mentions = append(mentions, types.Mention{
			MatchedText: t.text,
			Start:       t.start,
			End:         t.end,
			Kind:        types.MatchPartial,
			Quality:     0.5,
			Candidates:  candidates,
		})
	}
	return mentions
}

// partialContextSupported reports whether a lone name-token occurrence
// is contextually common enough to propose.
func (x *Extractor) partialContextSupported(e *types.Entity, matched string, contentTokens map[string]bool, linkedCategories map[types.Category]bool) bool {
	for _, tok := range strings.Fields(types.NormalizeAlias(e.Name)) {
		if tok != matched && contentTokens[tok] {
			return true
		}
	}
	return linkedCategories[e.Category]
}

// linkedCategories resolves existing link targets to entity categories.
func (x *Extractor) linkedCategories(linked []types.LinkSpan) map[types.Category]bool {
	cats := make(map[types.Category]bool)
	for _, l := range linked {
		bucket := x.cat.Lookup(types.NormalizeAlias(l.Target))
		if len(bucket) == 1 {
			cats[bucket[0].Category] = true
		}
	}
	return cats
}

// filterCandidates drops the note's own entity and derives the match
// kind: exact-name when any surviving candidate's normalized name equals
// the key, alias otherwise.
func filterCandidates(bucket []*types.Entity, key, notePath string) ([]*types.Entity, types.MatchKind) {
	var out []*types.Entity
	kind := types.MatchAlias
	for _, e := range bucket {
		if e.Path == notePath {
			continue
		}
		out = append(out, e)
		if types.NormalizeAlias(e.Name) == key {
			kind = types.MatchExactName
		}
	}
	return out, kind
}

func sortEntities(es []*types.Entity) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Name != es[j].Name {
			return es[i].Name < es[j].Name
		}
		return es[i].Path < es[j].Path
	})
}

// tokenize splits content into word tokens with byte offsets. A token
// is a maximal run of letters, digits, or apostrophes.
func tokenize(content string) []token {
	var tokens []token
	start := -1
	for i, r := range content {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, token{start: start, end: i, text: content[start:i]})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{start: start, end: len(content), text: content[start:]})
	}
	return tokens
}
