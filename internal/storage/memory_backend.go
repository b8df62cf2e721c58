package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Benny93/ontotree/internal/graph"
)

// MemoryBackend is an in-memory implementation of Backend for testing
// and for sessions that do not persist.
type MemoryBackend struct {
	mu       sync.RWMutex
	nodes    []graph.Node
	links    []graph.Link
	versions map[string]NodeVersion
	history  map[string][]NodeChange
	now      func() time.Time
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		versions: make(map[string]NodeVersion),
		history:  make(map[string][]NodeChange),
		now:      time.Now,
	}
}

// Initialize implements Backend.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// SaveGraph implements Backend.
func (m *MemoryBackend) SaveGraph(ctx context.Context, doc graph.Document, author string) (SaveStats, error) {
	if err := ctx.Err(); err != nil {
		return SaveStats{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	previous := make(map[string]graph.Node, len(m.nodes))
	for _, n := range m.nodes {
		previous[n.ID] = n
	}

	nodes := uniqueNodes(doc.Nodes)
	changes := diffNodes(previous, m.versions, graph.Document{Nodes: nodes}, author, m.now())
	for _, c := range changes {
		m.history[c.NodeID] = append(m.history[c.NodeID], c)
		m.versions[c.NodeID] = applyChange(c)
	}

	m.nodes = nodes
	m.links = append([]graph.Link{}, doc.Links...)
	return tally(changes), nil
}

// LoadGraph implements Backend.
func (m *MemoryBackend) LoadGraph(ctx context.Context) (*graph.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &graph.Document{
		Nodes: withVersions(m.nodes, m.versions),
		Links: append([]graph.Link{}, m.links...),
	}, nil
}

// NodeVersion implements Backend.
func (m *MemoryBackend) NodeVersion(ctx context.Context, nodeID string) (*NodeVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.versions[nodeID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// NodeHistory implements Backend.
func (m *MemoryBackend) NodeHistory(ctx context.Context, nodeID string, limit int) ([]NodeChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	changes := append([]NodeChange{}, m.history[nodeID]...)
	return newestFirst(changes, limit), nil
}

// SearchLabels implements Backend.
func (m *MemoryBackend) SearchLabels(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queryTokens := tokenize(query)
	results := []SearchResult{}
	if len(queryTokens) == 0 {
		return results, nil
	}

	for _, n := range m.nodes {
		if score := scoreLabel(queryTokens, n.Label); score > 0 {
			results = append(results, SearchResult{
				NodeID: n.ID,
				Label:  n.Label,
				Type:   n.Type,
				Score:  score,
			})
		}
	}
	return rankResults(results, limit), nil
}
