// Package config provides configuration loading for ontotree.
//
// Configuration is layered, lowest priority first: built-in defaults, an
// optional YAML file, then ONTOTREE_* environment variables. The result is
// validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Benny93/ontotree/internal/graph"
	"github.com/Benny93/ontotree/internal/ingestion"
	"github.com/Benny93/ontotree/internal/projection"
)

// WorkspaceDir is the per-project directory holding the database and config.
const WorkspaceDir = ".ontotree"

// FileName is the config file looked up inside WorkspaceDir.
const FileName = "config.yaml"

// Environment variable names.
const (
	EnvNamespace    = "ONTOTREE_NAMESPACE"
	EnvMaxTreeNodes = "ONTOTREE_MAX_TREE_NODES"
	EnvAuthor       = "ONTOTREE_AUTHOR"
	EnvDBPath       = "ONTOTREE_DB_PATH"
	EnvLogLevel     = "ONTOTREE_LOG_LEVEL"
	EnvLogFormat    = "ONTOTREE_LOG_FORMAT"
	EnvMetricsAddr  = "ONTOTREE_METRICS_ADDR"
)

// Config represents the complete ontotree configuration.
type Config struct {
	Graph   GraphConfig   `yaml:"graph"`
	Import  ImportConfig  `yaml:"import"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`

	// LoadedFrom lists the sources applied, in order.
	LoadedFrom []string `yaml:"-"`
}

// GraphConfig configures the graph store and tree projection.
type GraphConfig struct {
	// Namespace prefixes synthesized node and predicate ids.
	Namespace string `yaml:"namespace" validate:"required,uri"`
	// Author is recorded on saved changes.
	Author string `yaml:"author" validate:"required"`
	// MaxTreeNodes caps projection size.
	MaxTreeNodes int `yaml:"max_tree_nodes" validate:"gte=1"`
}

// ImportConfig configures triple import.
type ImportConfig struct {
	// Namespaces accepted by the hierarchy filter ("*" accepts all).
	Namespaces []string `yaml:"namespaces" validate:"dive,required"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// Path of the badger database, relative to the workspace root when not absolute.
	Path string `yaml:"path" validate:"required"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the endpoint.
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{
			Namespace:    graph.DefaultNamespace,
			Author:       graph.DefaultAuthor,
			MaxTreeNodes: projection.DefaultMaxNodes,
		},
		Import: ImportConfig{
			Namespaces: append([]string{}, ingestion.DefaultNamespaces...),
		},
		Storage: StorageConfig{
			Path: filepath.Join(WorkspaceDir, "db"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
		}
		return fmt.Errorf("validating configuration: %w", err)
	}
	return nil
}

// Load builds the configuration for a workspace rooted at root. When path
// is empty, root/.ontotree/config.yaml is used if it exists; an explicit
// path must exist.
func Load(root, path string) (*Config, error) {
	cfg := Default()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults")

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, WorkspaceDir, FileName)
	}

	if err := cfg.loadFile(path); err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return nil, err
	}

	if err := cfg.loadEnvironment(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path onto c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	c.LoadedFrom = append(c.LoadedFrom, path)
	return nil
}

// loadEnvironment overlays ONTOTREE_* variables onto c.
func (c *Config) loadEnvironment() error {
	applied := false
	set := func(name string, target *string) {
		if val := os.Getenv(name); val != "" {
			*target = val
			applied = true
		}
	}

	set(EnvNamespace, &c.Graph.Namespace)
	set(EnvAuthor, &c.Graph.Author)
	set(EnvDBPath, &c.Storage.Path)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvLogFormat, &c.Log.Format)
	set(EnvMetricsAddr, &c.Metrics.Addr)

	if val := os.Getenv(EnvMaxTreeNodes); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMaxTreeNodes, err)
		}
		c.Graph.MaxTreeNodes = n
		applied = true
	}

	if applied {
		c.LoadedFrom = append(c.LoadedFrom, "environment")
	}
	return nil
}

// DBPath resolves the storage path against the workspace root.
func (c *Config) DBPath(root string) string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(root, c.Storage.Path)
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
