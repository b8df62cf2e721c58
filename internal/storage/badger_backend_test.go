package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/ontotree/internal/graph"
)

func setupTestBadgerBackend(t *testing.T) (*BadgerBackend, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "badger")

	backend := NewBadgerBackend()
	err := backend.Initialize(dbPath, false)
	require.NoError(t, err)

	cleanup := func() {
		backend.Close()
	}

	return backend, cleanup
}

func TestBadgerBackend_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "badger")

		backend := NewBadgerBackend()
		err := backend.Initialize(dbPath, false)

		assert.NoError(t, err)
		assert.NotNil(t, backend.db)
		assert.True(t, backend.initialized)

		backend.Close()
	})

	t.Run("ReadOnly", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "badger")

		// First create the DB
		backend1 := NewBadgerBackend()
		err := backend1.Initialize(dbPath, false)
		require.NoError(t, err)
		_, err = backend1.SaveGraph(t.Context(), zooDocument(), "alice")
		require.NoError(t, err)
		backend1.Close()

		// Open in read-only mode
		backend2 := NewBadgerBackend()
		err = backend2.Initialize(dbPath, true)
		require.NoError(t, err)
		defer backend2.Close()

		doc, err := backend2.LoadGraph(t.Context())
		require.NoError(t, err)
		assert.Len(t, doc.Nodes, 3)
	})
}

func TestBadgerBackend_Close(t *testing.T) {
	t.Parallel()

	backend, _ := setupTestBadgerBackend(t)

	assert.NoError(t, backend.Close())
	assert.False(t, backend.initialized)

	// Closing twice is a no-op
	assert.NoError(t, backend.Close())
}

func TestBadgerBackend_NotInitialized(t *testing.T) {
	t.Parallel()

	backend := NewBadgerBackend()
	ctx := t.Context()

	_, err := backend.SaveGraph(ctx, graph.Document{}, "alice")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = backend.LoadGraph(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = backend.NodeVersion(ctx, "a")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = backend.NodeHistory(ctx, "a", 0)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = backend.SearchLabels(ctx, "a", 0)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBadgerBackend_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "badger")
	ctx := t.Context()

	first := NewBadgerBackend()
	require.NoError(t, first.Initialize(dbPath, false))
	_, err := first.SaveGraph(ctx, zooDocument(), "alice")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := NewBadgerBackend()
	require.NoError(t, second.Initialize(dbPath, false))
	defer second.Close()

	doc, err := second.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 3)
	assert.Len(t, doc.Links, 1)

	results, err := second.SearchLabels(ctx, "dog", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "zoo#Dog", results[0].NodeID)

	history, err := second.NodeHistory(ctx, "zoo#Dog", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ChangeCreate, history[0].Type)
}

func TestBadgerBackend_NodeIDsWithSeparators(t *testing.T) {
	t.Parallel()

	backend, cleanup := setupTestBadgerBackend(t)
	defer cleanup()
	ctx := t.Context()

	_, err := backend.SaveGraph(ctx, graph.Document{Nodes: []graph.Node{
		{ID: "http://example.org/a", Label: "A", Type: graph.NodeClass},
		{ID: "http://example.org/a:b", Label: "AB", Type: graph.NodeClass},
	}}, "alice")
	require.NoError(t, err)

	history, err := backend.NodeHistory(ctx, "http://example.org/a", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
