package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/ontotree/internal/graph"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "SimpleWord",
			input:    "animal",
			expected: []string{"animal"},
		},
		{
			name:     "CamelCase",
			input:    "StartNode",
			expected: []string{"startnode", "start", "node"},
		},
		{
			name:     "SnakeCase",
			input:    "has_part",
			expected: []string{"has_part", "has", "part"},
		},
		{
			name:     "PrefixedName",
			input:    "rdfs:subClassOf",
			expected: []string{"rdfs:subclassof", "rdfs", "subclassof", "sub", "class", "of"},
		},
		{
			name:     "MixedCase",
			input:    "getURL",
			expected: []string{"geturl", "get", "url"},
		},
		{
			name:     "WithNumbers",
			input:    "Level2",
			expected: []string{"level2", "level", "2"},
		},
		{
			name:     "Spaces",
			input:    "is a",
			expected: []string{"is a", "is", "a"},
		},
		{
			name:     "EmptyString",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ElementsMatch(t, tt.expected, tokenize(tt.input))
		})
	}
}

func TestScoreLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.0, scoreLabel(tokenize("start node"), "StartNode"))
	assert.Equal(t, 0.0, scoreLabel(tokenize("animal"), "StartNode"))
}

func TestFTSIndex(t *testing.T) {
	t.Parallel()

	backend, cleanup := setupTestBadgerBackend(t)
	defer cleanup()
	ctx := t.Context()

	_, err := backend.SaveGraph(ctx, graph.Document{Nodes: []graph.Node{
		{ID: "zoo#Animal", Label: "Animal", Type: graph.NodeClass},
		{ID: "zoo#WildAnimal", Label: "WildAnimal", Type: graph.NodeClass},
		{ID: "zoo#eats", Label: "eats", Type: graph.NodeProperty},
	}}, "tester")
	require.NoError(t, err)

	t.Run("RanksByMatchedTokens", func(t *testing.T) {
		results, err := backend.fts.Search("wild animal", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "zoo#WildAnimal", results[0].NodeID)
		assert.Equal(t, graph.NodeClass, results[0].Type)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("Limit", func(t *testing.T) {
		results, err := backend.fts.Search("animal", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("NoMatch", func(t *testing.T) {
		results, err := backend.fts.Search("plant", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		results, err := backend.fts.Search("", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("IndexSize", func(t *testing.T) {
		size, err := backend.fts.IndexSize()
		require.NoError(t, err)
		// animal; wildanimal, wild, animal; eats
		assert.Equal(t, 5, size)
	})
}

func TestFTSIndex_NilDB(t *testing.T) {
	t.Parallel()

	f := NewFTSIndex(nil)
	results, err := f.Search("anything", 10)
	assert.NoError(t, err)
	assert.Empty(t, results)

	size, err := f.IndexSize()
	assert.NoError(t, err)
	assert.Zero(t, size)
}
