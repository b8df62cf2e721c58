package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/ontotree/internal/graph"
	"github.com/Benny93/ontotree/internal/projection"
)

func writeConfig(t *testing.T, root, content string) string {
	t.Helper()
	path := filepath.Join(root, WorkspaceDir, FileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	assert.Equal(t, graph.DefaultNamespace, cfg.Graph.Namespace)
	assert.Equal(t, graph.DefaultAuthor, cfg.Graph.Author)
	assert.Equal(t, projection.DefaultMaxNodes, cfg.Graph.MaxTreeNodes)
	assert.NotEmpty(t, cfg.Import.Namespaces)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"EmptyNamespace", func(c *Config) { c.Graph.Namespace = "" }},
		{"RelativeNamespace", func(c *Config) { c.Graph.Namespace = "competencies#" }},
		{"EmptyAuthor", func(c *Config) { c.Graph.Author = "" }},
		{"ZeroMaxNodes", func(c *Config) { c.Graph.MaxTreeNodes = 0 }},
		{"BlankImportNamespace", func(c *Config) { c.Import.Namespaces = []string{""} }},
		{"EmptyStoragePath", func(c *Config) { c.Storage.Path = "" }},
		{"UnknownLogLevel", func(c *Config) { c.Log.Level = "loud" }},
		{"UnknownLogFormat", func(c *Config) { c.Log.Format = "xml" }},
		{"BadMetricsAddr", func(c *Config) { c.Metrics.Addr = "not an address" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}

	t.Run("MetricsAddr", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Metrics.Addr = "localhost:9090"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	t.Run("WorkspaceFile", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		path := writeConfig(t, root, `
graph:
  namespace: http://example.org/zoo#
  max_tree_nodes: 50
import:
  namespaces: ["*"]
`)

		cfg, err := Load(root, "")

		require.NoError(t, err)
		assert.Equal(t, "http://example.org/zoo#", cfg.Graph.Namespace)
		assert.Equal(t, 50, cfg.Graph.MaxTreeNodes)
		assert.Equal(t, graph.DefaultAuthor, cfg.Graph.Author)
		assert.Equal(t, []string{"*"}, cfg.Import.Namespaces)
		assert.Equal(t, []string{"defaults", path}, cfg.LoadedFrom)
	})

	t.Run("MissingWorkspaceFile", func(t *testing.T) {
		t.Parallel()
		cfg, err := Load(t.TempDir(), "")

		require.NoError(t, err)
		assert.Equal(t, []string{"defaults"}, cfg.LoadedFrom)
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		t.Parallel()
		_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeConfig(t, root, "graph: [")

		_, err := Load(root, "")
		assert.Error(t, err)
	})

	t.Run("InvalidValues", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeConfig(t, root, "log:\n  level: loud\n")

		_, err := Load(root, "")
		assert.ErrorContains(t, err, "invalid configuration")
	})
}

// Environment tests mutate process state and cannot run in parallel.
func TestLoad_Environment(t *testing.T) {
	t.Run("Overrides", func(t *testing.T) {
		root := t.TempDir()
		writeConfig(t, root, "graph:\n  author: file\n")
		t.Setenv(EnvAuthor, "env")
		t.Setenv(EnvMaxTreeNodes, "7")
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvDBPath, "/var/lib/ontotree")

		cfg, err := Load(root, "")

		require.NoError(t, err)
		assert.Equal(t, "env", cfg.Graph.Author)
		assert.Equal(t, 7, cfg.Graph.MaxTreeNodes)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "/var/lib/ontotree", cfg.DBPath(root))
		assert.Equal(t, "environment", cfg.LoadedFrom[len(cfg.LoadedFrom)-1])
	})

	t.Run("BadInteger", func(t *testing.T) {
		t.Setenv(EnvMaxTreeNodes, "many")

		_, err := Load(t.TempDir(), "")
		assert.ErrorContains(t, err, EnvMaxTreeNodes)
	})
}

func TestConfig_DBPath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, filepath.Join("/work", WorkspaceDir, "db"), cfg.DBPath("/work"))
}

func TestConfig_Save(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, WorkspaceDir, FileName)
	cfg := Default()
	cfg.Graph.Author = "alice"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Graph.Author)
}
