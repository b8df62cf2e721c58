package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/ontotree/internal/graph"
)

// Key prefixes for different data types
const (
	prefixNode    = "n:" // node data
	prefixVersion = "v:" // current version record
	prefixHistory = "h:" // h:nodeID\x00version -> change
	keyOrder      = "g:order"
	keyLinks      = "g:links"
)

// BadgerBackend is a BadgerDB-backed storage implementation.
type BadgerBackend struct {
	db          *badger.DB
	fts         *FTSIndex
	initialized bool
	mu          sync.RWMutex
	now         func() time.Time
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{now: time.Now}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.db = db
	b.fts = NewFTSIndex(db)
	b.initialized = true
	return nil
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.fts = nil
	b.initialized = false
	return err
}

func nodeKey(id string) []byte {
	return []byte(prefixNode + id)
}

func versionKey(id string) []byte {
	return []byte(prefixVersion + id)
}

func historyPrefix(id string) []byte {
	return []byte(prefixHistory + id + "\x00")
}

func historyKey(id string, version int) []byte {
	return []byte(fmt.Sprintf("%s%s\x00%010d", prefixHistory, id, version))
}

// getJSON decodes the value at key into out. It reports false when the key
// does not exist.
func getJSON(txn *badger.Txn, key []byte, out any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// scanPrefix calls fn with the value of every key under prefix.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// readNodes returns all stored nodes keyed by id.
func readNodes(txn *badger.Txn) (map[string]graph.Node, error) {
	nodes := make(map[string]graph.Node)
	err := scanPrefix(txn, []byte(prefixNode), func(val []byte) error {
		var n graph.Node
		if err := json.Unmarshal(val, &n); err != nil {
			return err
		}
		nodes[n.ID] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading nodes: %w", err)
	}
	return nodes, nil
}

// readVersions returns all version records keyed by node id.
func readVersions(txn *badger.Txn) (map[string]NodeVersion, error) {
	versions := make(map[string]NodeVersion)
	err := scanPrefix(txn, []byte(prefixVersion), func(val []byte) error {
		var v NodeVersion
		if err := json.Unmarshal(val, &v); err != nil {
			return err
		}
		versions[v.NodeID] = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading versions: %w", err)
	}
	return versions, nil
}

// SaveGraph replaces the stored graph with doc and records node changes.
func (b *BadgerBackend) SaveGraph(ctx context.Context, doc graph.Document, author string) (SaveStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return SaveStats{}, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return SaveStats{}, err
	}

	nodes := uniqueNodes(doc.Nodes)

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	previous, err := readNodes(txn)
	if err != nil {
		return SaveStats{}, err
	}
	versions, err := readVersions(txn)
	if err != nil {
		return SaveStats{}, err
	}

	changes := diffNodes(previous, versions, graph.Document{Nodes: nodes}, author, b.now())

	// Collect index metadata before the batch rewrites it
	indexed := make(map[string]*ftsMeta, len(changes))
	for _, c := range changes {
		meta, err := b.fts.lookup(txn, c.NodeID)
		if err != nil {
			return SaveStats{}, err
		}
		indexed[c.NodeID] = meta
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, c := range changes {
		changeJSON, err := json.Marshal(c)
		if err != nil {
			return SaveStats{}, fmt.Errorf("marshaling change: %w", err)
		}
		if err := wb.Set(historyKey(c.NodeID, c.Version), changeJSON); err != nil {
			return SaveStats{}, fmt.Errorf("setting history: %w", err)
		}

		versionJSON, err := json.Marshal(applyChange(c))
		if err != nil {
			return SaveStats{}, fmt.Errorf("marshaling version: %w", err)
		}
		if err := wb.Set(versionKey(c.NodeID), versionJSON); err != nil {
			return SaveStats{}, fmt.Errorf("setting version: %w", err)
		}

		if c.Type == ChangeDelete {
			if err := wb.Delete(nodeKey(c.NodeID)); err != nil {
				return SaveStats{}, fmt.Errorf("deleting node: %w", err)
			}
			if meta := indexed[c.NodeID]; meta != nil {
				if err := b.fts.unstage(wb, meta); err != nil {
					return SaveStats{}, err
				}
			}
			continue
		}

		nodeJSON, err := json.Marshal(c.NewValue)
		if err != nil {
			return SaveStats{}, fmt.Errorf("marshaling node: %w", err)
		}
		if err := wb.Set(nodeKey(c.NodeID), nodeJSON); err != nil {
			return SaveStats{}, fmt.Errorf("setting node: %w", err)
		}
		if err := b.fts.stage(wb, *c.NewValue, indexed[c.NodeID]); err != nil {
			return SaveStats{}, err
		}
	}

	order := make([]string, len(nodes))
	for i, n := range nodes {
		order[i] = n.ID
	}
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return SaveStats{}, fmt.Errorf("marshaling node order: %w", err)
	}
	if err := wb.Set([]byte(keyOrder), orderJSON); err != nil {
		return SaveStats{}, fmt.Errorf("setting node order: %w", err)
	}

	links := doc.Links
	if links == nil {
		links = []graph.Link{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return SaveStats{}, fmt.Errorf("marshaling links: %w", err)
	}
	if err := wb.Set([]byte(keyLinks), linksJSON); err != nil {
		return SaveStats{}, fmt.Errorf("setting links: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return SaveStats{}, fmt.Errorf("flushing graph: %w", err)
	}

	return tally(changes), nil
}

// LoadGraph returns the stored graph in saved order.
func (b *BadgerBackend) LoadGraph(ctx context.Context) (*graph.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	var order []string
	if _, err := getJSON(txn, []byte(keyOrder), &order); err != nil {
		return nil, fmt.Errorf("reading node order: %w", err)
	}
	links := []graph.Link{}
	if _, err := getJSON(txn, []byte(keyLinks), &links); err != nil {
		return nil, fmt.Errorf("reading links: %w", err)
	}

	stored, err := readNodes(txn)
	if err != nil {
		return nil, err
	}
	versions, err := readVersions(txn)
	if err != nil {
		return nil, err
	}

	nodes := make([]graph.Node, 0, len(order))
	for _, id := range order {
		if n, ok := stored[id]; ok {
			nodes = append(nodes, n)
		}
	}

	return &graph.Document{Nodes: withVersions(nodes, versions), Links: links}, nil
}

// NodeVersion returns the version record of a node, or nil if unknown.
func (b *BadgerBackend) NodeVersion(ctx context.Context, nodeID string) (*NodeVersion, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	var v NodeVersion
	found, err := getJSON(txn, versionKey(nodeID), &v)
	if err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &v, nil
}

// NodeHistory returns the recorded changes of a node, newest first.
func (b *BadgerBackend) NodeHistory(ctx context.Context, nodeID string, limit int) ([]NodeChange, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	changes := []NodeChange{}
	err := scanPrefix(txn, historyPrefix(nodeID), func(val []byte) error {
		var c NodeChange
		if err := json.Unmarshal(val, &c); err != nil {
			return err
		}
		changes = append(changes, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return newestFirst(changes, limit), nil
}

// SearchLabels performs full-text search over node labels.
func (b *BadgerBackend) SearchLabels(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}
	return b.fts.Search(query, limit)
}
