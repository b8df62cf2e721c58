package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkOntologyFiles(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"zoo.ttl":                    zooTurtle,
		"dump.nt":                    "",
		"graph.json":                 flatJSON,
		"nested/more/farm.turtle":    zooTurtle,
		"README.md":                  "# README",
		".gitignore":                 "drafts/\n*.bak.ttl\n",
		"drafts/wip.ttl":             zooTurtle,
		"old.bak.ttl":                zooTurtle,
		"node_modules/pkg/data.json": "{}",
		"package.json":               "{}",
	})

	entries, err := WalkOntologyFiles(tmpDir)
	require.NoError(t, err)

	var rel []string
	for _, e := range entries {
		rel = append(rel, e.RelPath)
	}

	t.Run("FindsSupportedFiles", func(t *testing.T) {
		assert.ElementsMatch(t, []string{
			"zoo.ttl",
			"dump.nt",
			"graph.json",
			filepath.Join("nested", "more", "farm.turtle"),
		}, rel)
	})

	t.Run("DetectsFormat", func(t *testing.T) {
		for _, e := range entries {
			expected, err := DetectFormat(e.Path)
			require.NoError(t, err)
			assert.Equal(t, expected, e.Format)
		}
	})

	t.Run("HashesContent", func(t *testing.T) {
		for _, e := range entries {
			hash := sha256.Sum256(e.Content)
			assert.Equal(t, hex.EncodeToString(hash[:]), e.SHA256)
			assert.True(t, filepath.IsAbs(e.Path))
		}
	})

	t.Run("SingleFile", func(t *testing.T) {
		single, err := WalkOntologyFiles(filepath.Join(tmpDir, "zoo.ttl"))
		require.NoError(t, err)
		require.Len(t, single, 1)
		assert.Equal(t, "zoo.ttl", single[0].RelPath)
		assert.Equal(t, FormatTurtle, single[0].Format)
	})

	t.Run("UnsupportedSingleFile", func(t *testing.T) {
		_, err := WalkOntologyFiles(filepath.Join(tmpDir, "README.md"))
		assert.Error(t, err)
	})
}

func TestLoadGitignore(t *testing.T) {
	t.Parallel()

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()
		patterns, err := loadGitignore(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, patterns)
	})

	t.Run("SkipsCommentsAndBlanks", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{".gitignore": "# comment\n\n*.tmp\nbuild/\n"})

		patterns, err := loadGitignore(dir)
		require.NoError(t, err)
		assert.Len(t, patterns, 2)
	})
}
