// Package storage provides the persistence backends for ontotree.
//
// It defines the Backend protocol that all storage implementations
// must satisfy, along with the version and history records kept per node.
// The graph store itself never persists anything; a session hands it a
// backend and saves snapshots of the store through it.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Benny93/ontotree/internal/graph"
)

// ErrNotInitialized is returned when a backend is used before Initialize.
var ErrNotInitialized = errors.New("storage backend not initialized")

// ChangeType classifies a recorded node change.
type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// SearchResult represents a label search hit.
type SearchResult struct {
	// NodeID is the ID of the matching node.
	NodeID string `json:"id"`

	// Label is the node label.
	Label string `json:"label"`

	// Type is the node type.
	Type graph.NodeType `json:"type"`

	// Score is the relevance score (higher is better).
	Score float64 `json:"score"`
}

// NodeVersion is the current version record of a node.
type NodeVersion struct {
	NodeID    string    `json:"node_id"`
	Version   int       `json:"version"`
	Author    string    `json:"author"`
	UpdatedAt time.Time `json:"updated_at"`

	// Deleted is set once the node has been removed from the graph.
	Deleted bool `json:"deleted,omitempty"`
}

// NodeChange is one entry in a node's history.
type NodeChange struct {
	ID        string      `json:"id"`
	NodeID    string      `json:"node_id"`
	Type      ChangeType  `json:"type"`
	Version   int         `json:"version"`
	Author    string      `json:"author"`
	Timestamp time.Time   `json:"timestamp"`
	OldValue  *graph.Node `json:"old_value,omitempty"`
	NewValue  *graph.Node `json:"new_value,omitempty"`
}

// SaveStats summarizes what a SaveGraph call recorded.
type SaveStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Changed reports whether any node change was recorded.
func (s SaveStats) Changed() bool {
	return s.Created+s.Updated+s.Deleted > 0
}

// Backend defines the interface for storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Initialize opens or creates the storage backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// SaveGraph replaces the stored graph with doc. Node changes relative
	// to the previous snapshot are recorded in the history under author.
	SaveGraph(ctx context.Context, doc graph.Document, author string) (SaveStats, error)

	// LoadGraph returns the stored graph with Version and Author filled
	// on every node. An empty backend yields an empty document.
	LoadGraph(ctx context.Context) (*graph.Document, error)

	// NodeVersion returns the version record of a node, or nil if the node
	// was never saved.
	NodeVersion(ctx context.Context, nodeID string) (*NodeVersion, error)

	// NodeHistory returns the recorded changes of a node, newest first.
	// A limit of zero or less returns all of them.
	NodeHistory(ctx context.Context, nodeID string, limit int) ([]NodeChange, error)

	// SearchLabels performs full-text search over node labels.
	SearchLabels(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
