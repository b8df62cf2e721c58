package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/ontotree/internal/graph"
)

const flatJSON = `{
  "nodes": [
    {"id": "http://example.org/zoo#Animal", "label": "Animal", "type": "class"},
    {"id": "http://example.org/zoo#Keeper", "label": "Keeper", "type": "class"}
  ],
  "links": [
    {"source": "http://example.org/zoo#Keeper", "target": "http://example.org/zoo#Animal", "predicate": "feeds"},
    {"source": "http://example.org/zoo#Keeper", "target": "http://example.org/zoo#Missing", "predicate": "feeds"}
  ]
}`

// writeFiles creates files relative to dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func TestRunImport(t *testing.T) {
	t.Parallel()

	t.Run("TurtleAndJSON", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"zoo.ttl":   zooTurtle,
			"flat.json": flatJSON,
		})
		store := graph.NewStore()

		var phases []string
		result, err := RunImport(t.Context(), store, []string{dir}, ImportOptions{}, func(phase string, progress float64) {
			if progress == 1.0 {
				phases = append(phases, phase)
			}
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Files)
		assert.Equal(t, 5, result.Triples)
		assert.Equal(t, 2, result.Skipped)
		assert.Equal(t, 6, result.Nodes)
		assert.Equal(t, 6, result.Links)
		assert.Equal(t, 1, result.RejectedLinks)
		assert.Equal(t, []string{"Collecting files", "Parsing", "Loading graph"}, phases)

		dog, ok := store.GetNode(zoo + "Dog")
		require.True(t, ok)
		assert.Equal(t, graph.NodeClass, dog.Type)
		assert.Len(t, result.Document.Nodes, 7)
	})

	t.Run("Replace", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"flat.json": flatJSON})
		store := graph.NewStore()
		store.AddNode(graph.Node{ID: "stale"})
		store.Predicates().Register("old")

		_, err := RunImport(t.Context(), store, []string{dir}, ImportOptions{Replace: true}, nil)

		require.NoError(t, err)
		_, ok := store.GetNode("stale")
		assert.False(t, ok)
		assert.False(t, store.Predicates().Contains("old"))
		assert.Equal(t, 2, store.NodeCount())
	})

	t.Run("Merge", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"flat.json": flatJSON})
		store := graph.NewStore()
		store.AddNode(graph.Node{ID: "kept"})

		_, err := RunImport(t.Context(), store, []string{dir}, ImportOptions{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, store.NodeCount())
	})

	t.Run("PropertyDeclaredByLaterImport", func(t *testing.T) {
		t.Parallel()
		first, second := t.TempDir(), t.TempDir()
		writeFiles(t, first, map[string]string{"dog.ttl": `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
<http://example.org/zoo#Dog> rdfs:subClassOf rdfs:Resource .
`})
		writeFiles(t, second, map[string]string{"dog.ttl": `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
<http://example.org/zoo#Dog> rdf:type rdf:Property .
`})
		store := graph.NewStore()

		_, err := RunImport(t.Context(), store, []string{first}, ImportOptions{}, nil)
		require.NoError(t, err)
		dog, ok := store.GetNode(zoo + "Dog")
		require.True(t, ok)
		require.Equal(t, graph.NodeClass, dog.Type)

		_, err = RunImport(t.Context(), store, []string{second}, ImportOptions{}, nil)
		require.NoError(t, err)
		dog, ok = store.GetNode(zoo + "Dog")
		require.True(t, ok)
		assert.Equal(t, graph.NodeProperty, dog.Type)
	})

	t.Run("SingleFileWithFormatOverride", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "zoo.ttl")
		writeFiles(t, dir, map[string]string{"zoo.ttl": zooTurtle})
		store := graph.NewStore()

		result, err := RunImport(t.Context(), store, []string{path}, ImportOptions{Format: FormatTurtle}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Files)
		assert.Equal(t, 3, result.Roots)
	})

	t.Run("NoFiles", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"README.md": "# nothing"})

		_, err := RunImport(t.Context(), graph.NewStore(), []string{dir}, ImportOptions{}, nil)

		assert.ErrorIs(t, err, ErrNoFiles)
	})

	t.Run("MalformedDocument", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"bad.json": `{"nodes": []}`})
		store := graph.NewStore()
		store.AddNode(graph.Node{ID: "kept"})

		_, err := RunImport(t.Context(), store, []string{dir}, ImportOptions{Replace: true}, nil)

		assert.ErrorIs(t, err, ErrMalformedDocument)
		assert.Equal(t, 1, store.NodeCount())
	})

	t.Run("Cancelled", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"flat.json": flatJSON})
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := RunImport(ctx, graph.NewStore(), []string{dir}, ImportOptions{}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("MissingPath", func(t *testing.T) {
		t.Parallel()
		_, err := RunImport(t.Context(), graph.NewStore(), []string{filepath.Join(t.TempDir(), "nope")}, ImportOptions{}, nil)
		assert.Error(t, err)
	})
}
