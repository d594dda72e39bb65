package types

// MatchKind describes how a mention was matched to its candidates.
type MatchKind string

const (
	// MatchExactName is a verbatim (normalized) entity-name match.
	MatchExactName MatchKind = "exact-name"

	// MatchAlias is a match against a declared alias.
	MatchAlias MatchKind = "alias"

	// MatchFuzzy is a bounded edit-distance match (one substitution or
	// transposition, strings of four or more characters only).
	MatchFuzzy MatchKind = "fuzzy"

	// MatchPartial is a token-subsequence match of a multi-word entity
	// name, admitted only with supporting context in the same document.
	MatchPartial MatchKind = "partial"

	// MatchContextual is a co-occurrence-only candidate: the entity was
	// never matched in the text but strongly co-occurs with entities
	// that were. Eligible only under the aggressive policy.
	MatchContextual MatchKind = "contextual"
)

// Precedence orders match kinds for deterministic tie-breaking.
// Higher is stronger.
func (k MatchKind) Precedence() int {
	switch k {
	case MatchExactName:
		return 5
	case MatchAlias:
		return 4
	case MatchFuzzy:
		return 3
	case MatchPartial:
		return 2
	case MatchContextual:
		return 1
	default:
		return 0
	}
}

// Mention is a transient candidate occurrence produced per suggestion
// request. Candidates holds more than one entity only for unresolved
// alias collisions awaiting disambiguation.
type Mention struct {
	// MatchedText is the content substring that matched.
	MatchedText string `json:"matched_text"`

	// Start and End are the byte span of MatchedText in the source content.
	Start int `json:"start"`
	End   int `json:"end"`

	// Kind is how the match was found.
	Kind MatchKind `json:"kind"`

	// Quality is the match-quality score component in [0,1]:
	// exact 1.0, alias 0.9, fuzzy 0.6–0.8 by edit distance and length,
	// partial 0.5, contextual 0.4.
	Quality float64 `json:"quality"`

	// Candidates are the entities claiming the matched string. Never empty.
	Candidates []*Entity `json:"candidates"`
}
