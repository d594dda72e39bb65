package types

// Strictness selects the precision/recall trade-off for a suggestion
// request.
type Strictness string

const (
	// StrictnessConservative admits only exact-name and alias matches
	// above a high score floor. Maximizes precision.
	StrictnessConservative Strictness = "conservative"

	// StrictnessBalanced additionally admits fuzzy matches. Default.
	StrictnessBalanced Strictness = "balanced"

	// StrictnessAggressive admits all match kinds including contextual
	// co-occurrence-only candidates. Maximizes recall.
	StrictnessAggressive Strictness = "aggressive"
)

// ParseStrictness maps a raw string onto a Strictness, defaulting to
// balanced for empty or unrecognized values.
func ParseStrictness(raw string) Strictness {
	switch Strictness(NormalizeAlias(raw)) {
	case StrictnessConservative:
		return StrictnessConservative
	case StrictnessAggressive:
		return StrictnessAggressive
	default:
		return StrictnessBalanced
	}
}

// SuggestOptions controls a single suggestion request.
type SuggestOptions struct {
	// Strictness is the policy to rank under (default: balanced).
	Strictness Strictness `json:"strictness,omitempty"`

	// MaxSuggestions caps the result list (default 10, max 50).
	MaxSuggestions int `json:"max_suggestions,omitempty"`

	// Detailed includes a per-entity score breakdown in the results.
	Detailed bool `json:"detailed,omitempty"`
}

// Normalize applies defaults and bounds to the options.
func (o *SuggestOptions) Normalize() {
	o.Strictness = ParseStrictness(string(o.Strictness))
	if o.MaxSuggestions < 1 {
		o.MaxSuggestions = 10
	}
	if o.MaxSuggestions > 50 {
		o.MaxSuggestions = 50
	}
}

// ScoreBreakdown itemizes the composite score components of a suggestion.
type ScoreBreakdown struct {
	// MatchQuality is the weighted match-quality contribution.
	MatchQuality float64 `json:"match_quality"`

	// Popularity is the weighted normalized hub-score contribution.
	Popularity float64 `json:"popularity"`

	// CoOccurrence is the weighted co-occurrence-strength contribution.
	CoOccurrence float64 `json:"co_occurrence"`

	// Feedback is the accept/reject-history adjustment (may be negative).
	Feedback float64 `json:"feedback"`
}

// Suggestion is one ranked entity recommendation. Suggestions are
// deduplicated per entity: an entity matched several times in the
// content yields a single entry carrying its best mention.
type Suggestion struct {
	// Entity is the suggested entity's display name.
	Entity string `json:"entity"`

	// Path is the suggested entity's owning document.
	Path string `json:"path"`

	// Kind is the strongest match kind that produced this suggestion.
	Kind MatchKind `json:"kind"`

	// MatchedText is the content substring of the best mention.
	MatchedText string `json:"matched_text,omitempty"`

	// Score is the composite ranking score.
	Score float64 `json:"score"`

	// Breakdown itemizes Score when the request asked for details.
	Breakdown *ScoreBreakdown `json:"breakdown,omitempty"`
}

// IndexStats summarizes the currently servable generation.
type IndexStats struct {
	// Ready reports whether a generation has been built and is servable.
	Ready bool `json:"ready"`

	// TotalEntities is the entity count of the current generation.
	TotalEntities int `json:"total_entities"`

	// Generation is the monotonic sequence number of the current snapshot.
	Generation int64 `json:"generation"`

	// CollisionGroups is the number of normalized alias keys claimed by
	// more than one entity.
	CollisionGroups int `json:"collision_groups"`
}
