package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// doc builds a test document. Link targets get synthetic spans; only the
// target text matters for catalog and graph construction.
func doc(path, title, typ string, aliases []string, inbound int, targets ...string) types.Document {
	fm := map[string]interface{}{}
	if typ != "" {
		fm["type"] = typ
	}
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
	return types.Document{
		Path:              path,
		Title:             title,
		Frontmatter:       fm,
		InboundLinks:      inbound,
		OutgoingLinkSpans: spans,
	}
}

func TestBuildGeneration_Basic(t *testing.T) {
	docs := []types.Document{
		doc("people/ada.md", "Ada Lovelace", "person", []string{"Ada"}, 3),
		doc("tech/go.md", "Go", "technology", []string{"Golang"}, 7),
		doc("journal/today.md", "Today", "", nil, 0), // no type: no entity
	}

	gen, err := catalog.BuildGeneration(docs, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), gen.Seq)
	assert.Equal(t, 2, gen.Catalog.Len())

	ada, ok := gen.Catalog.ByPath("people/ada.md")
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", ada.Name)
	assert.Equal(t, types.CategoryPerson, ada.Category)
	assert.Equal(t, 3, ada.Popularity)

	_, ok = gen.Catalog.ByPath("journal/today.md")
	assert.False(t, ok, "document without a frontmatter type contributes no entity")
}

func TestBuild_LookupCoversNameAndAliases(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("tech/ml.md", "Machine Learning", "concept", []string{"ML", "machine-learning"}, 0),
	}, 1)
	require.NoError(t, err)

	cat := gen.Catalog
	assert.Len(t, cat.Lookup("machine learning"), 1, "name and hyphenated alias fold to one key")
	assert.Len(t, cat.Lookup("ml"), 1)
	assert.Nil(t, cat.Lookup("deep learning"))
	assert.Equal(t, 2, cat.MaxKeyTokens())
}

func TestBuild_CollisionGroups(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("tech/api-design.md", "API Design", "concept", []string{"API"}, 5),
		doc("projects/payments-api.md", "Payments API", "project", []string{"API"}, 2),
	}, 1)
	require.NoError(t, err)

	groups := gen.Catalog.CollisionGroups()
	require.Len(t, groups, 1)
	require.Len(t, groups["api"], 2)
	// Deterministic claimant order regardless of input order.
	assert.Equal(t, "API Design", groups["api"][0].Name)
	assert.Equal(t, "Payments API", groups["api"][1].Name)
}

func TestBuild_DuplicatePathFailsWholeBuild(t *testing.T) {
	_, err := catalog.BuildGeneration([]types.Document{
		doc("a.md", "First", "concept", nil, 0),
		doc("a.md", "Second", "concept", nil, 0),
	}, 1)
	assert.Error(t, err, "a build error must not yield a partial generation")
}

func TestBuild_UnknownTypeFoldsToOther(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("things/widget.md", "Widget", "starship", nil, 0),
	}, 1)
	require.NoError(t, err)

	e, ok := gen.Catalog.ByPath("things/widget.md")
	require.True(t, ok)
	assert.Equal(t, types.CategoryOther, e.Category)
}

func TestBuild_AliasStringForms(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		{
			Path:  "tech/k8s.md",
			Title: "Kubernetes",
			Frontmatter: map[string]interface{}{
				"type":    "technology",
				"aliases": "k8s, kube",
			},
		},
	}, 1)
	require.NoError(t, err)

	cat := gen.Catalog
	assert.Len(t, cat.Lookup("k8s"), 1)
	assert.Len(t, cat.Lookup("kube"), 1)
}

func TestBuild_IdenticalInputProducesIdenticalCatalog(t *testing.T) {
	docs := []types.Document{
		doc("b.md", "Beta", "concept", nil, 1),
		doc("a.md", "Alpha", "concept", nil, 2),
	}
	reversed := []types.Document{docs[1], docs[0]}

	gen1, err := catalog.BuildGeneration(docs, 1)
	require.NoError(t, err)
	gen2, err := catalog.BuildGeneration(reversed, 2)
	require.NoError(t, err)

	require.Equal(t, gen1.Catalog.Len(), gen2.Catalog.Len())
	assert.Equal(t, gen1.Catalog.Keys(), gen2.Catalog.Keys())
	for i, e := range gen1.Catalog.Entities() {
		assert.Equal(t, e.Name, gen2.Catalog.Entities()[i].Name)
	}
}

func TestNormalizedPopularity(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("hub.md", "Hub", "concept", nil, 10),
		doc("leaf.md", "Leaf", "concept", nil, 2),
	}, 1)
	require.NoError(t, err)

	hub, _ := gen.Catalog.ByPath("hub.md")
	leaf, _ := gen.Catalog.ByPath("leaf.md")
	assert.InDelta(t, 1.0, gen.Catalog.NormalizedPopularity(hub), 1e-9)
	assert.InDelta(t, 0.2, gen.Catalog.NormalizedPopularity(leaf), 1e-9)
}
