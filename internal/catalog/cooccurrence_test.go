package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetmonkey/notelink/internal/catalog"
	"github.com/velvetmonkey/notelink/pkg/types"
)

func TestCoOccurrence_SymmetricEdges(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("tech/go.md", "Go", "technology", nil, 0),
		doc("tech/sqlite.md", "SQLite", "technology", nil, 0),
		doc("projects/indexer.md", "Indexer", "project", nil, 0, "Go", "SQLite"),
	}, 1)
	require.NoError(t, err)

	g := gen.Graph
	assert.Equal(t, 1, g.Weight("tech/go.md", "tech/sqlite.md"))
	assert.Equal(t, 1, g.Weight("tech/sqlite.md", "tech/go.md"))
	// The linking document's own entity participates too.
	assert.Equal(t, 1, g.Weight("projects/indexer.md", "tech/go.md"))
}

func TestCoOccurrence_AccumulatesAcrossDocuments(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("tech/go.md", "Go", "technology", nil, 0),
		doc("tech/sqlite.md", "SQLite", "technology", nil, 0),
		doc("notes/one.md", "One", "", nil, 0, "Go", "SQLite"),
		doc("notes/two.md", "Two", "", nil, 0, "Go", "SQLite"),
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, gen.Graph.Weight("tech/go.md", "tech/sqlite.md"))
}

func TestCoOccurrence_AmbiguousTargetContributesNothing(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("tech/api-design.md", "API Design", "concept", []string{"API"}, 0),
		doc("projects/payments-api.md", "Payments API", "project", []string{"API"}, 0),
		doc("tech/go.md", "Go", "technology", nil, 0),
		doc("notes/n.md", "N", "", nil, 0, "Go", "API"),
	}, 1)
	require.NoError(t, err)

	g := gen.Graph
	assert.Equal(t, 0, g.Weight("tech/go.md", "tech/api-design.md"))
	assert.Equal(t, 0, g.Weight("tech/go.md", "projects/payments-api.md"))
}

func TestCoOccurrence_DuplicateLinksCountOncePerDocument(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("tech/go.md", "Go", "technology", nil, 0),
		doc("tech/sqlite.md", "SQLite", "technology", nil, 0),
		doc("notes/n.md", "N", "", nil, 0, "Go", "Go", "SQLite"),
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.Graph.Weight("tech/go.md", "tech/sqlite.md"))
}

func TestCoOccurrence_Strength(t *testing.T) {
	gen, err := catalog.BuildGeneration([]types.Document{
		doc("tech/go.md", "Go", "technology", nil, 0),
		doc("tech/sqlite.md", "SQLite", "technology", nil, 0),
		doc("notes/one.md", "One", "", nil, 0, "Go", "SQLite"),
		doc("notes/two.md", "Two", "", nil, 0, "Go", "SQLite"),
	}, 1)
	require.NoError(t, err)

	present := map[string]bool{"tech/sqlite.md": true}
	// total weight 2 -> 2/(2+2) = 0.5
	assert.InDelta(t, 0.5, gen.Graph.Strength("tech/go.md", present), 1e-9)
	assert.Equal(t, 0.0, gen.Graph.Strength("tech/go.md", map[string]bool{}))
	assert.Less(t, gen.Graph.Strength("tech/go.md", present), 1.0)
}
