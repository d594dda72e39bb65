package rank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/internal/config"
	"github.com/velvetmonkey/notelink/internal/extract"
	"github.com/velvetmonkey/notelink/internal/rank"
	"github.com/velvetmonkey/notelink/internal/vault"
	"github.com/velvetmonkey/notelink/pkg/types"
)

func rankCfg() config.RankingConfig {
	return config.RankingConfig{
		MatchWeight:          0.6,
		PopularityWeight:     0.2,
		CoOccurrenceWeight:   0.2,
		PopularityMargin:     1.5,
		ConservativeMinScore: 0.50,
		BalancedMinScore:     0.35,
		AggressiveMinScore:   0.15,
		SuggestionCacheSize:  256,
	}
}

// fakeFeedback is a FeedbackView stub for ranking tests.
type fakeFeedback struct {
	adjustments map[string]float64
	suppressed  map[string]bool // entity or entity+"|"+note
}

func (f *fakeFeedback) Adjustment(entity string) float64 {
	return f.adjustments[entity]
}

func (f *fakeFeedback) IsSuppressed(entity, sourceNote string) bool {
	return f.suppressed[entity] || f.suppressed[entity+"|"+sourceNote]
}

func doc(path, title, typ string, inbound int, aliases []string, targets ...string) types.Document {
	fm := map[string]interface{}{"type": typ}
	if aliases != nil {
		raw := make([]interface{}, len(aliases))
		for i, a := range aliases {
			raw[i] = a
		}
		fm["aliases"] = raw
	}
	var spans []types.LinkSpan
	for i, target := range targets {
		spans = append(spans, types.LinkSpan{Start: i * 10, End: i*10 + 5, Target: target})
	}
	return types.Document{Path: path, Title: title, Frontmatter: fm, InboundLinks: inbound, OutgoingLinkSpans: spans}
}

// rankContent runs the full extract+rank pipeline the way the engine does.
func rankContent(t *testing.T, docs []types.Document, content, notePath string, fb rank.FeedbackView, opts types.SuggestOptions) []types.Suggestion {
	t.Helper()
	gen, err := catalog.BuildGeneration(docs, 1)
	require.NoError(t, err)
	linked := vault.ParseLinkSpans(content)
	mentions := extract.New(gen.Catalog).Extract(content, notePath, linked)
	return rank.New(rankCfg()).Rank(gen, mentions, notePath, linked, fb, opts)
}

func entityNames(suggestions []types.Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Entity
	}
	return out
}

func TestRank_LoneExactClearsConservativeFloor(t *testing.T) {
	docs := []types.Document{doc("tech/go.md", "Go", "technology", 0, nil)}

	suggestions := rankContent(t, docs, "Rewrote it in Go.", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessConservative})

	require.Len(t, suggestions, 1)
	assert.Equal(t, "Go", suggestions[0].Entity)
	assert.InDelta(t, 0.6, suggestions[0].Score, 1e-9)
}

func TestRank_FuzzyGatedByPolicy(t *testing.T) {
	docs := []types.Document{doc("tech/kubernetes.md", "Kubernetes", "technology", 0, nil)}
	content := "Upgraded kubernetas today."

	conservative := rankContent(t, docs, content, "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessConservative})
	assert.Empty(t, conservative, "conservative admits only exact and alias matches")

	balanced := rankContent(t, docs, content, "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	require.Len(t, balanced, 1)
	assert.Equal(t, types.MatchFuzzy, balanced[0].Kind)
}

func TestRank_UnresolvedCollisionDropped(t *testing.T) {
	docs := []types.Document{
		doc("tech/api-design.md", "API Design", "concept", 3, []string{"API"}),
		doc("projects/payments-api.md", "Payments API", "project", 3, []string{"API"}),
	}

	suggestions := rankContent(t, docs, "Reviewed the api spec.", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	assert.Empty(t, suggestions, "equal popularity and no context: silence over a wrong guess")
}

func TestRank_CollisionResolvedByPopularityMargin(t *testing.T) {
	docs := []types.Document{
		doc("tech/api-design.md", "API Design", "concept", 6, []string{"API"}),
		doc("projects/payments-api.md", "Payments API", "project", 2, []string{"API"}),
	}

	suggestions := rankContent(t, docs, "Reviewed the api spec.", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	require.Len(t, suggestions, 1)
	assert.Equal(t, "API Design", suggestions[0].Entity)
}

func TestRank_CollisionResolvedByCoOccurrence(t *testing.T) {
	// Payments API co-occurs with Stripe; API Design does not. A note
	// that already links Stripe should resolve "api" to Payments API
	// even though API Design is more popular.
	docs := []types.Document{
		doc("tech/api-design.md", "API Design", "concept", 9, []string{"API"}),
		doc("projects/payments-api.md", "Payments API", "project", 2, []string{"API"}),
		doc("tech/stripe.md", "Stripe", "technology", 4, nil),
		doc("notes/billing.md", "Billing", "document", 0, nil, "Payments API", "Stripe"),
	}

	content := "Working with [[Stripe]] on the api integration."
	suggestions := rankContent(t, docs, content, "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})

	require.Len(t, suggestions, 1)
	assert.Equal(t, "Payments API", suggestions[0].Entity)
}

func TestRank_AlreadyLinkedEntityNotResuggested(t *testing.T) {
	docs := []types.Document{doc("tech/go.md", "Go", "technology", 0, nil)}

	content := "See [[Go]]. Go is everywhere: Go Go Go."
	suggestions := rankContent(t, docs, content, "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	assert.Empty(t, suggestions)
}

func TestRank_DeduplicatesPerEntity(t *testing.T) {
	docs := []types.Document{doc("tech/k8s.md", "Kubernetes", "technology", 0, []string{"k8s"})}

	// Both an exact-name and an alias occurrence; one suggestion, best
	// mention wins.
	suggestions := rankContent(t, docs, "Kubernetes rollout on k8s cluster.", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	require.Len(t, suggestions, 1)
	assert.Equal(t, types.MatchExactName, suggestions[0].Kind)
}

func TestRank_SuppressionRemovesUnconditionally(t *testing.T) {
	docs := []types.Document{doc("tech/go.md", "Go", "technology", 9, nil)}
	fb := &fakeFeedback{suppressed: map[string]bool{"Go": true}}

	suggestions := rankContent(t, docs, "All about Go.", "n.md", fb,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	assert.Empty(t, suggestions, "suppression wins over any score")
}

func TestRank_NoteScopedSuppression(t *testing.T) {
	docs := []types.Document{doc("tech/go.md", "Go", "technology", 0, nil)}
	fb := &fakeFeedback{suppressed: map[string]bool{"Go|notes/a.md": true}}

	suppressed := rankContent(t, docs, "All about Go.", "notes/a.md", fb,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	assert.Empty(t, suppressed)

	elsewhere := rankContent(t, docs, "All about Go.", "notes/b.md", fb,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	assert.Len(t, elsewhere, 1, "suppression scoped to one note leaves other notes alone")
}

func TestRank_FeedbackAdjustmentShiftsScore(t *testing.T) {
	docs := []types.Document{doc("tech/go.md", "Go", "technology", 0, nil)}

	base := rankContent(t, docs, "All about Go.", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	require.Len(t, base, 1)

	boosted := rankContent(t, docs, "All about Go.", "n.md",
		&fakeFeedback{adjustments: map[string]float64{"Go": 0.15}},
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	require.Len(t, boosted, 1)
	assert.InDelta(t, base[0].Score+0.15, boosted[0].Score, 1e-9)

	// A penalty can push a weak match under the floor entirely.
	penalized := rankContent(t, docs, "All about Go.", "n.md",
		&fakeFeedback{adjustments: map[string]float64{"Go": -0.30}},
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	assert.Empty(t, penalized)
}

func TestRank_ContextualOnlyUnderAggressive(t *testing.T) {
	// SQLite co-occurs with Go but is never mentioned in the content.
	docs := []types.Document{
		doc("tech/go.md", "Go", "technology", 0, nil),
		doc("tech/sqlite.md", "SQLite", "technology", 0, nil),
		doc("notes/one.md", "One", "document", 0, nil, "Go", "SQLite"),
		doc("notes/two.md", "Two", "document", 0, nil, "Go", "SQLite"),
	}
	content := "Thinking about the Go storage layer."

	balanced := rankContent(t, docs, content, "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	assert.NotContains(t, entityNames(balanced), "SQLite")

	aggressive := rankContent(t, docs, content, "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessAggressive})
	names := entityNames(aggressive)
	require.Contains(t, names, "SQLite")
	for _, s := range aggressive {
		if s.Entity == "SQLite" {
			assert.Equal(t, types.MatchContextual, s.Kind)
		}
	}
}

func TestRank_DetailedBreakdown(t *testing.T) {
	docs := []types.Document{doc("tech/go.md", "Go", "technology", 0, nil)}

	plain := rankContent(t, docs, "All about Go.", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	require.Len(t, plain, 1)
	assert.Nil(t, plain[0].Breakdown)

	detailed := rankContent(t, docs, "All about Go.", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced, Detailed: true})
	require.Len(t, detailed, 1)
	require.NotNil(t, detailed[0].Breakdown)
	b := detailed[0].Breakdown
	assert.InDelta(t, detailed[0].Score,
		b.MatchQuality+b.Popularity+b.CoOccurrence+b.Feedback, 1e-9)
}

func TestRank_DeterministicOrderAndTieBreaks(t *testing.T) {
	docs := []types.Document{
		doc("tech/alpha.md", "Alpha", "technology", 2, nil),
		doc("tech/beta.md", "Beta", "technology", 2, nil),
		doc("tech/gamma.md", "Gamma", "technology", 5, nil),
	}
	content := "Comparing Alpha with Beta and Gamma."

	first := rankContent(t, docs, content, "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced})
	require.Len(t, first, 3)

	// Gamma is most popular; Alpha and Beta tie on everything and fall
	// back to lexical order.
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, entityNames(first))

	for i := 0; i < 5; i++ {
		again := rankContent(t, docs, content, "n.md", nil,
			types.SuggestOptions{Strictness: types.StrictnessBalanced})
		assert.Equal(t, entityNames(first), entityNames(again))
	}
}

func TestRank_MaxSuggestionsTruncates(t *testing.T) {
	docs := []types.Document{
		doc("a.md", "Alpha", "technology", 0, nil),
		doc("b.md", "Beta", "technology", 0, nil),
		doc("c.md", "Gamma", "technology", 0, nil),
	}

	suggestions := rankContent(t, docs, "Alpha Beta Gamma", "n.md", nil,
		types.SuggestOptions{Strictness: types.StrictnessBalanced, MaxSuggestions: 2})
	assert.Len(t, suggestions, 2)
}
