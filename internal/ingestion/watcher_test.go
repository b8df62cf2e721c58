package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectChanges(t *testing.T) {
	t.Parallel()

	t.Run("SkipsUnchangedContent", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"zoo.ttl": zooTurtle})
		path := filepath.Join(dir, "zoo.ttl")
		hashes := make(map[string]string)

		entries, removed := collectChanges(map[string]bool{path: true}, dir, hashes)
		require.Len(t, entries, 1)
		assert.Empty(t, removed)
		assert.Equal(t, "zoo.ttl", entries[0].RelPath)

		entries, _ = collectChanges(map[string]bool{path: true}, dir, hashes)
		assert.Empty(t, entries)

		require.NoError(t, os.WriteFile(path, []byte(zooTurtle+"\n:Cat rdf:type rdfs:Class .\n"), 0o644))
		entries, _ = collectChanges(map[string]bool{path: true}, dir, hashes)
		assert.Len(t, entries, 1)
	})

	t.Run("ReportsRemovedKnownFiles", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"zoo.ttl": zooTurtle})
		path := filepath.Join(dir, "zoo.ttl")
		hashes := make(map[string]string)
		collectChanges(map[string]bool{path: true}, dir, hashes)

		require.NoError(t, os.Remove(path))
		entries, removed := collectChanges(map[string]bool{path: true}, dir, hashes)

		assert.Empty(t, entries)
		assert.Equal(t, []string{path}, removed)
		assert.Empty(t, hashes)

		_, removed = collectChanges(map[string]bool{filepath.Join(dir, "never.ttl"): true}, dir, hashes)
		assert.Empty(t, removed)
	})
}

func TestShouldWatchFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{".gitignore": "*.bak.ttl\n"})
	patterns, err := loadGitignore(dir)
	require.NoError(t, err)
	matcher := newMatcher(patterns)

	assert.True(t, shouldWatchFile(filepath.Join(dir, "zoo.ttl"), dir, matcher))
	assert.True(t, shouldWatchFile(filepath.Join(dir, "graph.json"), dir, matcher))
	assert.False(t, shouldWatchFile(filepath.Join(dir, "notes.md"), dir, matcher))
	assert.False(t, shouldWatchFile(filepath.Join(dir, "old.bak.ttl"), dir, matcher))
	assert.False(t, shouldWatchFile(filepath.Join(dir, "package.json"), dir, matcher))
}

func TestWatchFiles(t *testing.T) {
	t.Parallel()

	t.Run("ReportsModifiedFile", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"zoo.ttl": zooTurtle})
		path := filepath.Join(dir, "zoo.ttl")

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		batches := make(chan []FileEntry, 4)
		done := make(chan error, 1)
		go func() {
			done <- WatchFiles(ctx, dir, WatchOptions{Debounce: 50 * time.Millisecond}, func(_ context.Context, changed []FileEntry, _ []string) error {
				batches <- changed
				return nil
			})
		}()

		// give the watcher time to register before writing
		time.Sleep(200 * time.Millisecond)
		require.NoError(t, os.WriteFile(path, []byte(zooTurtle+"\n:Cat rdf:type rdfs:Class .\n"), 0o644))

		select {
		case changed := <-batches:
			require.Len(t, changed, 1)
			assert.Equal(t, "zoo.ttl", changed[0].RelPath)
		case <-time.After(5 * time.Second):
			t.Fatal("no change reported")
		}

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("MissingRoot", func(t *testing.T) {
		t.Parallel()
		err := WatchFiles(t.Context(), filepath.Join(t.TempDir(), "nope"), WatchOptions{}, func(context.Context, []FileEntry, []string) error {
			return nil
		})
		assert.Error(t, err)
	})
}
