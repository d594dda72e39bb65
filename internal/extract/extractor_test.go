package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/internal/extract"
	"github.com/velvetmonkey/notelink/internal/vault"
	"github.com/velvetmonkey/notelink/pkg/types"
)

func buildExtractor(t *testing.T, docs []types.Document) (*extract.Extractor, *catalog.Generation) {
	t.Helper()
	gen, err := catalog.BuildGeneration(docs, 1)
	require.NoError(t, err)
	return extract.New(gen.Catalog), gen
}

func doc(path, title, typ string, aliases ...string) types.Document {
	fm := map[string]interface{}{"type": typ}
	if len(aliases) > 0 {
		raw := make([]interface{}, len(aliases))
		for i, a := range aliases {
			raw[i] = a
		}
		fm["aliases"] = raw
	}
	return types.Document{Path: path, Title: title, Frontmatter: fm}
}

func kinds(mentions []types.Mention) []types.MatchKind {
	out := make([]types.MatchKind, len(mentions))
	for i, m := range mentions {
		out[i] = m.Kind
	}
	return out
}

func TestExtract_ExactNameMatch(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/go.md", "Go", "technology"),
	})

	mentions := x.Extract("I rewrote the service in Go last week.", "journal/today.md", nil)
	require.Len(t, mentions, 1)

	m := mentions[0]
	assert.Equal(t, types.MatchExactName, m.Kind)
	assert.Equal(t, "Go", m.MatchedText)
	assert.Equal(t, 1.0, m.Quality)
	require.Len(t, m.Candidates, 1)
	assert.Equal(t, "tech/go.md", m.Candidates[0].Path)
}

func TestExtract_SpanOffsetsMatchContent(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/go.md", "Go", "technology"),
	})

	content := "Shipped the Go rewrite."
	mentions := x.Extract(content, "n.md", nil)
	require.Len(t, mentions, 1)
	assert.Equal(t, "Go", content[mentions[0].Start:mentions[0].End])
}

func TestExtract_LongestMatchWins(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/ml.md", "Machine Learning", "concept"),
		doc("misc/machine.md", "Machine", "concept"),
	})

	mentions := x.Extract("Notes on machine learning systems.", "n.md", nil)
	require.Len(t, mentions, 1)
	assert.Equal(t, "machine learning", mentions[0].MatchedText)
	assert.Equal(t, "tech/ml.md", mentions[0].Candidates[0].Path)
}

func TestExtract_AliasMatch(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/k8s.md", "Kubernetes", "technology", "k8s"),
	})

	mentions := x.Extract("Deployed to k8s today.", "n.md", nil)
	require.Len(t, mentions, 1)
	assert.Equal(t, types.MatchAlias, mentions[0].Kind)
	assert.Equal(t, 0.9, mentions[0].Quality)
}

func TestExtract_CaseAndHyphenInsensitive(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/ml.md", "Machine Learning", "concept", "machine-learning"),
	})

	for _, content := range []string{
		"all about MACHINE LEARNING here",
		"all about Machine-Learning here",
		"all about machine learning here",
	} {
		mentions := x.Extract(content, "n.md", nil)
		require.Len(t, mentions, 1, "content %q", content)
		assert.Equal(t, "tech/ml.md", mentions[0].Candidates[0].Path)
	}
}

func TestExtract_CollisionProducesMultipleCandidates(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/api-design.md", "API Design", "concept", "API"),
		doc("projects/payments-api.md", "Payments API", "project", "API"),
	})

	mentions := x.Extract("Reviewed the api spec.", "n.md", nil)
	require.Len(t, mentions, 1)
	assert.Len(t, mentions[0].Candidates, 2, "collision resolution happens downstream")
}

func TestExtract_FuzzyOneSubstitution(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/kubernetes.md", "Kubernetes", "technology"),
	})

	mentions := x.Extract("Upgraded kubernetas yesterday.", "n.md", nil)
	require.Len(t, mentions, 1)
	m := mentions[0]
	assert.Equal(t, types.MatchFuzzy, m.Kind)
	assert.GreaterOrEqual(t, m.Quality, 0.6)
	assert.LessOrEqual(t, m.Quality, 0.8)
}

func TestExtract_FuzzyAdjacentTransposition(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/docker.md", "Docker", "technology"),
	})

	mentions := x.Extract("built a dokcer image", "n.md", nil)
	require.Len(t, mentions, 1)
	assert.Equal(t, types.MatchFuzzy, mentions[0].Kind)
}

func TestExtract_NoFuzzyForShortCodes(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/ml.md", "Machine Learning", "concept", "ML"),
		doc("tech/rag.md", "Retrieval Augmented Generation", "concept", "RAG"),
	})

	// "MS" is one edit from "ML" and "rat" one edit from "rag"; neither
	// may fuzzy-match because both are under four characters.
	mentions := x.Extract("MS sent a rat report", "n.md", nil)
	assert.Empty(t, mentions)
}

func TestExtract_FuzzyAmbiguityMeansNoMatch(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("a/spark.md", "Spark", "technology"),
		doc("b/stark.md", "Stark", "person"),
	})

	// "sbark" is within one substitution of both keys.
	mentions := x.Extract("the sbark design", "n.md", nil)
	assert.Empty(t, mentions, "a typo matching two distinct keys is untrustworthy")
}

func TestExtract_ExistingLinksExcluded(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/go.md", "Go", "technology"),
	})

	content := "Linked [[Go]] already, but Go appears again."
	linked := vault.ParseLinkSpans(content)
	require.Len(t, linked, 1)

	mentions := x.Extract(content, "n.md", linked)
	require.Len(t, mentions, 1, "only the occurrence outside the link counts")
	assert.Greater(t, mentions[0].Start, linked[0].End)
}

func TestExtract_CodeBlocksExcluded(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/go.md", "Go", "technology"),
	})

	content := "Inline `Go` and fenced:\n```\nGo here\n```\nbut Go outside counts."
	mentions := x.Extract(content, "n.md", nil)
	require.Len(t, mentions, 1)
	assert.Equal(t, "Go", mentions[0].MatchedText)
	assert.Greater(t, mentions[0].Start, len(content)-20)
}

func TestExtract_UnterminatedFenceExtendsToEnd(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/go.md", "Go", "technology"),
	})

	mentions := x.Extract("text\n```\nGo inside forever", "n.md", nil)
	assert.Empty(t, mentions)
}

func TestExtract_OwnEntityNeverSuggested(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("tech/go.md", "Go", "technology"),
	})

	mentions := x.Extract("Go is the subject of this very note.", "tech/go.md", nil)
	assert.Empty(t, mentions)
}

func TestExtract_PartialNeedsContext(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("people/owen-park.md", "Owen Park", "person"),
	})

	// Bare "Owen" with no supporting context: no partial mention.
	mentions := x.Extract("Talked to Owen about the launch.", "n.md", nil)
	assert.Empty(t, mentions)

	// "Park" elsewhere in the content supports the partial.
	mentions = x.Extract("Owen said the Park meeting moved.", "n.md", nil)
	require.NotEmpty(t, mentions)
	assert.Contains(t, kinds(mentions), types.MatchPartial)
}

func TestExtract_PartialSupportedByLinkedCategory(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("people/owen-park.md", "Owen Park", "person"),
		doc("people/mia-chen.md", "Mia Chen", "person"),
	})

	content := "Met [[Mia Chen]] and Owen."
	linked := vault.ParseLinkSpans(content)
	mentions := x.Extract(content, "n.md", linked)

	require.Len(t, mentions, 1)
	assert.Equal(t, types.MatchPartial, mentions[0].Kind)
	assert.Equal(t, "Owen", mentions[0].MatchedText)
	assert.Equal(t, 0.5, mentions[0].Quality)
}

func TestExtract_FullNameBeatsPartial(t *testing.T) {
	x, _ := buildExtractor(t, []types.Document{
		doc("people/owen-park.md", "Owen Park", "person"),
	})

	mentions := x.Extract("Owen Park presented the roadmap.", "n.md", nil)
	require.Len(t, mentions, 1)
	assert.Equal(t, types.MatchExactName, mentions[0].Kind)
	assert.Equal(t, "Owen Park", mentions[0].MatchedText)
}
