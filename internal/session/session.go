// Package session ties one graph store to one storage backend.
//
// A Session is the unit every outer surface (CLI, MCP server, watcher)
// works through: it loads the persisted graph into the store, applies edits
// through the store's operations, projects the tree on demand, and saves
// snapshots back to the backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Benny93/ontotree/internal/graph"
	"github.com/Benny93/ontotree/internal/ingestion"
	"github.com/Benny93/ontotree/internal/metrics"
	"github.com/Benny93/ontotree/internal/projection"
	"github.com/Benny93/ontotree/internal/storage"
)

// StartNodeLabel is the label of the node seeded into an empty graph.
const StartNodeLabel = "StartNode"

// Options configures a Session.
type Options struct {
	// Namespace for synthesized ids; empty selects graph.DefaultNamespace.
	Namespace string

	// Author recorded on saved changes; empty selects graph.DefaultAuthor.
	Author string

	// MaxTreeNodes caps projection size; zero selects projection.DefaultMaxNodes.
	MaxTreeNodes int

	// ImportNamespaces feed the hierarchy builder filter.
	ImportNamespaces []string

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Session is an editing session over one graph.
type Session struct {
	store   *graph.Store
	backend storage.Backend
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Collector

	// saveMu serializes snapshot and save so saves never interleave.
	saveMu sync.Mutex
}

// New creates a session over an initialized backend.
func New(backend storage.Backend, opts Options) *Session {
	if opts.Namespace == "" {
		opts.Namespace = graph.DefaultNamespace
	}
	if opts.Author == "" {
		opts.Author = graph.DefaultAuthor
	}
	if opts.MaxTreeNodes <= 0 {
		opts.MaxTreeNodes = projection.DefaultMaxNodes
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		store:   graph.NewStore(graph.WithNamespace(opts.Namespace), graph.WithLogger(logger)),
		backend: backend,
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Open opens a badger database at path and loads its graph.
func Open(ctx context.Context, path string, readOnly bool, opts Options) (*Session, error) {
	backend := storage.NewBadgerBackend()
	if err := backend.Initialize(path, readOnly); err != nil {
		return nil, err
	}

	s := New(backend, opts)
	if err := s.Load(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}

// Store returns the session's graph store.
func (s *Session) Store() *graph.Store {
	return s.store
}

// Backend returns the session's storage backend.
func (s *Session) Backend() storage.Backend {
	return s.backend
}

// Author returns the author recorded on saves.
func (s *Session) Author() string {
	return s.opts.Author
}

// Load replaces the store contents with the persisted graph. An empty
// graph is seeded with a single StartNode class node.
func (s *Session) Load(ctx context.Context) error {
	doc, err := s.backend.LoadGraph(ctx)
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}

	s.store.Clear()
	if len(doc.Nodes) == 0 && len(doc.Links) == 0 {
		s.store.AddNode(graph.Node{
			ID:    s.opts.Namespace + StartNodeLabel,
			Label: StartNodeLabel,
			Type:  graph.NodeClass,
		})
		s.logger.Debug("seeded empty graph", zap.String("id", s.opts.Namespace+StartNodeLabel))
	} else {
		stats := ingestion.LoadDocument(s.store, doc)
		s.logger.Debug("loaded graph",
			zap.Int("nodes", stats.Nodes),
			zap.Int("links", stats.Links),
			zap.Int("rejected_links", stats.RejectedLinks),
		)
	}

	s.updateSize()
	return nil
}

// Save persists the current store snapshot.
func (s *Session) Save(ctx context.Context) (storage.SaveStats, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	start := time.Now()
	stats, err := s.backend.SaveGraph(ctx, s.store.Snapshot(), s.opts.Author)
	s.metrics.RecordSave(stats.Created, stats.Updated, stats.Deleted, time.Since(start), err)
	if err != nil {
		return stats, fmt.Errorf("saving graph: %w", err)
	}

	s.logger.Debug("saved graph",
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("deleted", stats.Deleted),
	)
	return stats, nil
}

// Tree projects the current store snapshot into a single-rooted tree.
func (s *Session) Tree() (*graph.Node, error) {
	doc := s.store.Snapshot()

	start := time.Now()
	root, err := projection.Build(doc.Nodes, doc.Links, projection.WithMaxNodes(s.opts.MaxTreeNodes))
	s.metrics.RecordProjection(time.Since(start), errors.Is(err, projection.ErrTooLarge))
	if err != nil {
		return nil, err
	}
	return root, nil
}

// Import loads ontology files into the store and saves the result.
func (s *Session) Import(ctx context.Context, paths []string, opts ingestion.ImportOptions, progress ingestion.ProgressCallback) (*ingestion.ImportResult, error) {
	if opts.Namespaces == nil {
		opts.Namespaces = s.opts.ImportNamespaces
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}

	result, err := ingestion.RunImport(ctx, s.store, paths, opts, progress)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordImport(result.Triples, result.Skipped, time.Duration(result.DurationSecs*float64(time.Second)))
	s.updateSize()

	if _, err := s.Save(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Watch re-imports root whenever an ontology file under it changes. Each
// batch replaces the graph so removed files drop out. Blocks until ctx is
// cancelled.
func (s *Session) Watch(ctx context.Context, root string, opts ingestion.WatchOptions, onImport func(*ingestion.ImportResult)) error {
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	return ingestion.WatchFiles(ctx, root, opts, func(ctx context.Context, changed []ingestion.FileEntry, removed []string) error {
		s.logger.Info("ontology files changed",
			zap.Int("changed", len(changed)),
			zap.Int("removed", len(removed)),
		)
		result, err := s.Import(ctx, []string{root}, ingestion.ImportOptions{Replace: true}, nil)
		if errors.Is(err, ingestion.ErrNoFiles) {
			s.store.Clear()
			_, err = s.Save(ctx)
			return err
		}
		if err != nil {
			// Keep watching after a bad edit
			s.logger.Warn("re-import failed", zap.Error(err))
			return nil
		}
		if onImport != nil {
			onImport(result)
		}
		return nil
	})
}

// AddNode creates a node with a synthesized id.
func (s *Session) AddNode(label string, nodeType graph.NodeType) graph.Node {
	n := s.store.CreateNode(label, nodeType)
	s.recordMutation("add_node", true)
	return n
}

// AddTriple links two labeled nodes through the store's triple write path.
func (s *Session) AddTriple(subject, predicate, object string) (graph.Link, bool) {
	link, ok := s.store.AddTriple(subject, predicate, object)
	s.recordMutation("add_triple", ok)
	return link, ok
}

// RenameNode relabels a node and returns its possibly new id.
func (s *Session) RenameNode(id, label string) (string, bool) {
	newID, ok := s.store.UpdateNodeLabel(id, label)
	s.recordMutation("rename_node", ok)
	return newID, ok
}

// SetNodeType changes a node's type.
func (s *Session) SetNodeType(id string, nodeType graph.NodeType) bool {
	ok := s.store.UpdateNodeType(id, nodeType)
	s.recordMutation("set_node_type", ok)
	return ok
}

// DeleteNode removes a node and every link touching it.
func (s *Session) DeleteNode(id string) bool {
	ok := s.store.DeleteNode(id)
	s.recordMutation("delete_node", ok)
	return ok
}

// ResolveNode finds a node by id, then by label.
func (s *Session) ResolveNode(ref string) (graph.Node, bool) {
	if n, ok := s.store.GetNode(ref); ok {
		return n, true
	}
	if n, ok := s.store.GetNode(graph.ExpandName(ref)); ok {
		return n, true
	}
	return s.store.GetNodeByLabel(ref)
}

// Close releases the backend.
func (s *Session) Close() error {
	return s.backend.Close()
}

func (s *Session) recordMutation(operation string, applied bool) {
	s.metrics.RecordMutation(operation, applied)
	s.updateSize()
}

func (s *Session) updateSize() {
	s.metrics.SetGraphSize(s.store.NodeCount(), s.store.LinkCount())
}
