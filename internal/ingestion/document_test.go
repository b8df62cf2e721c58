package ingestion

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/ontotree/internal/graph"
)

func TestDecodeDocument(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		input := `{
			"nodes": [
				{"id": "a", "label": "A", "type": "class"},
				{"id": "b", "label": "B", "type": "Property", "version": 2, "author": "ada"},
				{"id": "c", "label": "C", "type": "instance"},
				{"id": "d"}
			],
			"links": [{"source": "a", "target": "b", "predicate": "p"}]
		}`

		doc, err := DecodeDocument(strings.NewReader(input))

		require.NoError(t, err)
		require.Len(t, doc.Nodes, 4)
		assert.Equal(t, graph.Node{ID: "b", Label: "B", Type: graph.NodeProperty, Version: 2, Author: "ada"}, doc.Nodes[1])
		assert.Equal(t, graph.NodeLiteral, doc.Nodes[2].Type)
		assert.Equal(t, graph.NodeClass, doc.Nodes[3].Type)
		assert.Equal(t, []graph.Link{{Source: "a", Target: "b", Predicate: "p"}}, doc.Links)
	})

	t.Run("EmptyArrays", func(t *testing.T) {
		t.Parallel()
		doc, err := DecodeDocument(strings.NewReader(`{"nodes": [], "links": []}`))

		require.NoError(t, err)
		assert.Empty(t, doc.Nodes)
		assert.Empty(t, doc.Links)
	})

	t.Run("ExtraFieldsIgnored", func(t *testing.T) {
		t.Parallel()
		doc, err := DecodeDocument(strings.NewReader(`{"nodes": [{"id": "a", "x": 12.5}], "links": [], "meta": {}}`))

		require.NoError(t, err)
		assert.Len(t, doc.Nodes, 1)
	})

	tests := []struct {
		name    string
		input   string
		mention string
	}{
		{name: "MissingNodes", input: `{"links": []}`, mention: "nodes"},
		{name: "MissingLinks", input: `{"nodes": []}`, mention: "links"},
		{name: "NullNodes", input: `{"nodes": null, "links": []}`, mention: "nodes"},
		{name: "NodeWithoutID", input: `{"nodes": [{"label": "A"}], "links": []}`, mention: "id"},
		{name: "LinkWithoutPredicate", input: `{"nodes": [], "links": [{"source": "a", "target": "b"}]}`, mention: "predicate"},
		{name: "NegativeVersion", input: `{"nodes": [{"id": "a", "version": -1}], "links": []}`, mention: "version"},
		{name: "UnknownType", input: `{"nodes": [{"id": "a", "type": "relation"}], "links": []}`, mention: "type"},
		{name: "NotJSON", input: `nodes: []`, mention: "decoding JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := DecodeDocument(strings.NewReader(tt.input))

			assert.Nil(t, doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedDocument))
			var docErr *DocumentError
			require.True(t, errors.As(err, &docErr))
			assert.Contains(t, err.Error(), tt.mention)
		})
	}
}

func TestLoadDocument(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	doc := &graph.Document{
		Nodes: []graph.Node{
			{ID: "a", Label: "A", Type: graph.NodeClass},
			{ID: "b", Label: "B", Type: graph.NodeClass},
			{ID: "a", Label: "Again", Type: graph.NodeLiteral},
		},
		Links: []graph.Link{
			{Source: "a", Target: "b", Predicate: "p"},
			{Source: "a", Target: "ghost", Predicate: "p"},
			{Source: "a", Target: "b", Predicate: "p"},
		},
	}

	stats := LoadDocument(store, doc)

	assert.Equal(t, LoadStats{Nodes: 2, Links: 1, RejectedLinks: 1}, stats)
	a, _ := store.GetNode("a")
	assert.Equal(t, "A", a.Label)
	assert.Equal(t, []graph.Link{{Source: "a", Target: "b", Predicate: "p"}}, store.GetAllLinks())
}
