package types

import "time"

// FeedbackEvent records one accept/reject decision on a suggestion.
// Events are append-only and never deleted; all derived statistics are
// recomputable from the event log.
type FeedbackEvent struct {
	// ID is a unique event identifier.
	ID string `json:"id"`

	// Entity is the suggested entity's display name.
	Entity string `json:"entity"`

	// SourceNote is the note the suggestion was made for.
	SourceNote string `json:"source_note"`

	// Origin identifies the caller, for audit.
	Origin string `json:"origin"`

	// Accepted reports whether the suggestion was accepted.
	Accepted bool `json:"accepted"`

	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackStat is the derived accept/reject tally for one
// (entity, source note) key.
type FeedbackStat struct {
	Entity        string    `json:"entity"`
	SourceNote    string    `json:"source_note"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Total returns the sample size of the stat.
func (s *FeedbackStat) Total() int {
	return s.PositiveCount + s.NegativeCount
}

// AcceptRatio returns the fraction of accepted events, or 0 for an
// empty stat.
func (s *FeedbackStat) AcceptRatio() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.PositiveCount) / float64(total)
}

// SuppressionEntry blocks an entity from future suggestions, either
// everywhere (SourceNote empty) or for one note. Entries are created by
// the suppression learner and are monotonic: the learner never removes
// them; removal is an explicit administrative operation.
type SuppressionEntry struct {
	// Entity is the suppressed entity's display name.
	Entity string `json:"entity"`

	// SourceNote scopes the suppression to one note when non-empty.
	SourceNote string `json:"source_note,omitempty"`

	// Reason records why the entry was created.
	Reason string `json:"reason"`

	// CreatedAt is when the learner promoted the key.
	CreatedAt time.Time `json:"created_at"`
}
