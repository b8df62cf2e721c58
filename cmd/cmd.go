// Package cmd provides CLI command implementations for ontotree.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Benny93/ontotree/internal/config"
	"github.com/Benny93/ontotree/internal/graph"
	"github.com/Benny93/ontotree/internal/ingestion"
	"github.com/Benny93/ontotree/internal/logging"
	"github.com/Benny93/ontotree/internal/metrics"
	"github.com/Benny93/ontotree/internal/projection"
	"github.com/Benny93/ontotree/internal/session"
	"github.com/Benny93/ontotree/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Dir     string `short:"C" default:"." type:"path" help:"Workspace directory"`
	Config  string `type:"path" help:"Config file (default <dir>/.ontotree/config.yaml)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Quiet   bool   `short:"q" help:"Only log errors and suppress progress output"`

	// Stdout receives command output; nil selects os.Stdout.
	Stdout io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Globals) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(g.out(), format+"\n", args...)
}

func (g *Globals) warn(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(g.out(), format+"\n", args...)
}

// workspace is one opened ontology workspace.
type workspace struct {
	root    string
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
	session *session.Session
}

func (g *Globals) loadConfig() (string, *config.Config, error) {
	root, err := filepath.Abs(g.Dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving workspace: %w", err)
	}
	cfg, err := config.Load(root, g.Config)
	if err != nil {
		return "", nil, err
	}
	switch {
	case g.Verbose:
		cfg.Log.Level = "debug"
	case g.Quiet:
		cfg.Log.Level = "error"
	}
	return root, cfg, nil
}

// open loads config and opens the workspace database. Read-only opens
// require an existing database.
func (g *Globals) open(ctx context.Context, readOnly bool) (*workspace, error) {
	root, cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DBPath(root)
	if readOnly {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no ontology database at %s. Run 'ontotree import' first", dbPath)
		}
	}

	logger := logging.Must(cfg.Log.Level, cfg.Log.Format)
	collector := metrics.NewCollector(metrics.DefaultNamespace)

	sess, err := session.Open(ctx, dbPath, readOnly, session.Options{
		Namespace:        cfg.Graph.Namespace,
		Author:           cfg.Graph.Author,
		MaxTreeNodes:     cfg.Graph.MaxTreeNodes,
		ImportNamespaces: cfg.Import.Namespaces,
		Logger:           logger,
		Metrics:          collector,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening workspace: %w", err)
	}

	logger.Debug("opened workspace",
		zap.String("root", root),
		zap.String("db", dbPath),
		zap.Strings("config", cfg.LoadedFrom),
	)
	return &workspace{root: root, cfg: cfg, logger: logger, metrics: collector, session: sess}, nil
}

func (w *workspace) Close() {
	if err := w.session.Close(); err != nil {
		w.logger.Warn("closing database", zap.Error(err))
	}
	_ = w.logger.Sync()
}

// save persists the session and prints what changed.
func (g *Globals) save(ctx context.Context, w *workspace) error {
	stats, err := w.session.Save(ctx)
	if err != nil {
		return err
	}
	if !stats.Changed() {
		fmt.Fprintln(g.out(), "No changes")
		return nil
	}
	g.success("✓ Saved (%d created, %d updated, %d deleted)", stats.Created, stats.Updated, stats.Deleted)
	return nil
}

// resolve finds a node by id, prefixed name or label.
func resolve(w *workspace, ref string) (graph.Node, error) {
	n, ok := w.session.ResolveNode(ref)
	if !ok {
		return graph.Node{}, fmt.Errorf("node not found: %s", ref)
	}
	return n, nil
}

// InitCmd writes a default config file into the workspace.
type InitCmd struct {
	Namespace string `help:"Namespace for new node and predicate ids"`
	Author    string `help:"Author recorded on saved changes"`
	Force     bool   `short:"f" help:"Overwrite an existing config file"`
}

// Run executes the init command.
func (c *InitCmd) Run(g *Globals) error {
	root, cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	path := filepath.Join(root, config.WorkspaceDir, config.FileName)
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}

	if c.Namespace != "" {
		cfg.Graph.Namespace = c.Namespace
	}
	if c.Author != "" {
		cfg.Graph.Author = c.Author
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	g.success("✓ Wrote %s", path)
	return nil
}

// ImportCmd loads ontology files into the workspace graph.
type ImportCmd struct {
	Paths      []string `arg:"" type:"path" help:"Ontology files or directories"`
	Replace    bool     `short:"r" help:"Replace the stored graph instead of merging into it"`
	Format     string   `enum:"auto,turtle,ntriples,json" default:"auto" help:"Input format (auto detects from extension)"`
	Namespaces []string `help:"Namespaces a triple must touch to be imported ('*' accepts all)"`
}

// Run executes the import command.
func (c *ImportCmd) Run(g *Globals) error {
	ctx := context.Background()

	opts := ingestion.ImportOptions{
		Replace:    c.Replace,
		Namespaces: c.Namespaces,
	}
	if c.Format != "auto" {
		format, err := ingestion.ParseFormat(c.Format)
		if err != nil {
			return err
		}
		opts.Format = format
	}

	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	var progress ingestion.ProgressCallback
	if !g.Quiet {
		progress = func(phase string, pct float64) {
			fmt.Fprintf(g.out(), "\r\033[K%s (%.0f%%)", phase, pct*100)
		}
	}

	result, err := w.session.Import(ctx, c.Paths, opts, progress)
	if progress != nil {
		fmt.Fprintln(g.out()) // Newline after progress
	}
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	g.success("\n✓ Import complete")
	fmt.Fprintf(g.out(), "  Files:          %d\n", result.Files)
	fmt.Fprintf(g.out(), "  Triples:        %d\n", result.Triples)
	fmt.Fprintf(g.out(), "  Skipped:        %d\n", result.Skipped)
	fmt.Fprintf(g.out(), "  Nodes:          %d\n", result.Nodes)
	fmt.Fprintf(g.out(), "  Links:          %d\n", result.Links)
	fmt.Fprintf(g.out(), "  Roots:          %d\n", result.Roots)
	fmt.Fprintf(g.out(), "  Duration:       %.2fs\n", result.DurationSecs)
	if result.RejectedLinks > 0 {
		g.warn("  %d links rejected (missing endpoint)", result.RejectedLinks)
	}
	return nil
}

// TreeCmd prints the projected ontology tree.
type TreeCmd struct {
	JSON bool `help:"Print the tree as JSON"`
}

// Run executes the tree command.
func (c *TreeCmd) Run(g *Globals) error {
	w, err := g.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer w.Close()

	root, err := w.session.Tree()
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(projection.Render(root))
	}
	return projection.WriteText(g.out(), root)
}

// TriplesCmd lists the triples touching one node.
type TriplesCmd struct {
	Label string `arg:"" help:"Label of the node"`
}

// Run executes the triples command.
func (c *TriplesCmd) Run(g *Globals) error {
	w, err := g.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer w.Close()

	if _, ok := w.session.Store().GetNodeByLabel(c.Label); !ok {
		return fmt.Errorf("node not found: %s", c.Label)
	}

	triples := w.session.Store().GetAllTriplesWithNode(c.Label)
	if len(triples) == 0 {
		fmt.Fprintf(g.out(), "No triples involve %s\n", c.Label)
		return nil
	}
	for _, t := range triples {
		fmt.Fprintf(g.out(), "%s  %s  %s\n", t.Subject, t.Predicate, t.Object)
	}
	return nil
}

// NodeCmd groups node editing commands.
type NodeCmd struct {
	Add     NodeAddCmd     `cmd:"" help:"Create a node"`
	Rename  NodeRenameCmd  `cmd:"" help:"Change a node's label"`
	SetType NodeSetTypeCmd `cmd:"" name:"set-type" help:"Change a node's type"`
	Delete  NodeDeleteCmd  `cmd:"" help:"Delete a node and its links"`
	Show    NodeShowCmd    `cmd:"" help:"Show a node and its version"`
}

// NodeAddCmd creates a node.
type NodeAddCmd struct {
	Label string `arg:"" help:"Display label"`
	Type  string `short:"t" enum:"class,property,literal,instance" default:"class" help:"Node type"`
}

// Run executes the node add command.
func (c *NodeAddCmd) Run(g *Globals) error {
	nodeType, err := graph.ParseNodeType(c.Type)
	if err != nil {
		return err
	}

	ctx := context.Background()
	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	node := w.session.AddNode(c.Label, nodeType)
	fmt.Fprintf(g.out(), "Created %s %s\n", node.Type, node.ID)
	return g.save(ctx, w)
}

// NodeRenameCmd relabels a node.
type NodeRenameCmd struct {
	Node  string `arg:"" help:"Label or id of the node"`
	Label string `arg:"" help:"New label"`
}

// Run executes the node rename command.
func (c *NodeRenameCmd) Run(g *Globals) error {
	ctx := context.Background()
	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	node, err := resolve(w, c.Node)
	if err != nil {
		return err
	}
	newID, ok := w.session.RenameNode(node.ID, c.Label)
	if !ok {
		return fmt.Errorf("cannot rename %s to %q: label or id already in use", node.Label, c.Label)
	}
	fmt.Fprintf(g.out(), "Renamed %s -> %s\n", node.ID, newID)
	return g.save(ctx, w)
}

// NodeSetTypeCmd changes a node's type.
type NodeSetTypeCmd struct {
	Node string `arg:"" help:"Label or id of the node"`
	Type string `arg:"" enum:"class,property,literal,instance" help:"New node type"`
}

// Run executes the node set-type command.
func (c *NodeSetTypeCmd) Run(g *Globals) error {
	nodeType, err := graph.ParseNodeType(c.Type)
	if err != nil {
		return err
	}

	ctx := context.Background()
	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	node, err := resolve(w, c.Node)
	if err != nil {
		return err
	}
	w.session.SetNodeType(node.ID, nodeType)
	fmt.Fprintf(g.out(), "%s is now a %s\n", node.Label, nodeType)
	return g.save(ctx, w)
}

// NodeDeleteCmd removes a node.
type NodeDeleteCmd struct {
	Node string `arg:"" help:"Label or id of the node"`
}

// Run executes the node delete command.
func (c *NodeDeleteCmd) Run(g *Globals) error {
	ctx := context.Background()
	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	node, err := resolve(w, c.Node)
	if err != nil {
		return err
	}
	w.session.DeleteNode(node.ID)
	fmt.Fprintf(g.out(), "Deleted %s\n", node.ID)
	return g.save(ctx, w)
}

// NodeShowCmd prints one node.
type NodeShowCmd struct {
	Node string `arg:"" help:"Label or id of the node"`
}

// Run executes the node show command.
func (c *NodeShowCmd) Run(g *Globals) error {
	ctx := context.Background()
	w, err := g.open(ctx, true)
	if err != nil {
		return err
	}
	defer w.Close()

	node, err := resolve(w, c.Node)
	if err != nil {
		return err
	}

	fmt.Fprintf(g.out(), "## %s\n\n", node.Label)
	fmt.Fprintf(g.out(), "  ID:       %s\n", node.ID)
	fmt.Fprintf(g.out(), "  Type:     %s\n", node.Type)

	version, err := w.session.Backend().NodeVersion(ctx, node.ID)
	if err != nil {
		return err
	}
	if version != nil {
		fmt.Fprintf(g.out(), "  Version:  %d\n", version.Version)
		fmt.Fprintf(g.out(), "  Author:   %s\n", version.Author)
		fmt.Fprintf(g.out(), "  Updated:  %s\n", version.UpdatedAt.Format(time.RFC3339))
	}

	if triples := w.session.Store().GetAllTriplesWithNode(node.Label); len(triples) > 0 {
		fmt.Fprintf(g.out(), "\n### Triples (%d)\n", len(triples))
		for _, t := range triples {
			fmt.Fprintf(g.out(), "  %s  %s  %s\n", t.Subject, t.Predicate, t.Object)
		}
	}
	return nil
}

// TripleCmd groups triple editing commands.
type TripleCmd struct {
	Add TripleAddCmd `cmd:"" help:"Link two nodes by label"`
}

// TripleAddCmd links two existing nodes.
type TripleAddCmd struct {
	Subject   string `arg:"" help:"Label of the subject node"`
	Predicate string `arg:"" help:"Predicate label or IRI ('a' for rdf:type)"`
	Object    string `arg:"" help:"Label of the object node"`
}

// Run executes the triple add command.
func (c *TripleAddCmd) Run(g *Globals) error {
	ctx := context.Background()
	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	link, ok := w.session.AddTriple(c.Subject, c.Predicate, c.Object)
	if !ok {
		return fmt.Errorf("cannot add triple: %q and %q must both be existing node labels", c.Subject, c.Object)
	}
	fmt.Fprintf(g.out(), "Added %s  %s  %s\n",
		graph.ShortName(link.Source), graph.ShortName(link.Predicate), graph.ShortName(link.Target))
	return g.save(ctx, w)
}

// PredicatesCmd lists the predicates available for new triples.
type PredicatesCmd struct{}

// Run executes the predicates command.
func (c *PredicatesCmd) Run(g *Globals) error {
	w, err := g.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer w.Close()

	predicates := w.session.Store().GetAvailablePredicates()
	if len(predicates) == 0 {
		fmt.Fprintln(g.out(), "No predicates registered")
		return nil
	}
	for _, p := range predicates {
		fmt.Fprintln(g.out(), p)
	}
	return nil
}

// SearchCmd searches node labels.
type SearchCmd struct {
	Query string `arg:"" help:"Search query"`
	Limit int    `short:"n" default:"20" help:"Maximum results"`
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	ctx := context.Background()
	w, err := g.open(ctx, true)
	if err != nil {
		return err
	}
	defer w.Close()

	results, err := w.session.Backend().SearchLabels(ctx, c.Query, c.Limit)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(g.out(), "No results found")
		return nil
	}

	fmt.Fprintf(g.out(), "## Search Results for %q\n\n", c.Query)
	for i, r := range results {
		fmt.Fprintf(g.out(), "%d. %s [%s] (score: %.2f)\n", i+1, r.Label, r.Type, r.Score)
		fmt.Fprintf(g.out(), "   %s\n", r.NodeID)
	}
	return nil
}

// PathCmd prints the shortest connection between two nodes.
type PathCmd struct {
	From string `arg:"" help:"Label or id of the first node"`
	To   string `arg:"" help:"Label or id of the second node"`
}

// Run executes the path command.
func (c *PathCmd) Run(g *Globals) error {
	w, err := g.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer w.Close()

	from, err := resolve(w, c.From)
	if err != nil {
		return err
	}
	to, err := resolve(w, c.To)
	if err != nil {
		return err
	}

	path := w.session.Store().FindPath(from.ID, to.ID)
	if len(path) == 0 {
		return fmt.Errorf("no path between %s and %s", from.Label, to.Label)
	}

	labels := make([]string, len(path))
	for i, n := range path {
		labels[i] = n.Label
	}
	fmt.Fprintln(g.out(), strings.Join(labels, " -> "))
	return nil
}

// HistoryCmd prints the recorded changes of a node.
type HistoryCmd struct {
	Node  string `arg:"" help:"Label or id of the node (ids of deleted nodes work too)"`
	Limit int    `short:"n" default:"10" help:"Maximum entries"`
}

// Run executes the history command.
func (c *HistoryCmd) Run(g *Globals) error {
	ctx := context.Background()
	w, err := g.open(ctx, true)
	if err != nil {
		return err
	}
	defer w.Close()

	id := graph.ExpandName(c.Node)
	if n, ok := w.session.ResolveNode(c.Node); ok {
		id = n.ID
	}

	changes, err := w.session.Backend().NodeHistory(ctx, id, c.Limit)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return fmt.Errorf("no history for %s", c.Node)
	}

	fmt.Fprintf(g.out(), "## History of %s\n\n", id)
	for _, ch := range changes {
		fmt.Fprintf(g.out(), "v%-3d %-6s %s by %s", ch.Version, ch.Type, ch.Timestamp.Format(time.RFC3339), ch.Author)
		switch {
		case ch.OldValue != nil && ch.NewValue != nil:
			fmt.Fprintf(g.out(), "  %s [%s] -> %s [%s]", ch.OldValue.Label, ch.OldValue.Type, ch.NewValue.Label, ch.NewValue.Type)
		case ch.NewValue != nil:
			fmt.Fprintf(g.out(), "  %s [%s]", ch.NewValue.Label, ch.NewValue.Type)
		}
		fmt.Fprintln(g.out())
	}
	return nil
}

// ExportCmd writes the graph as Turtle or JSON.
type ExportCmd struct {
	Format string `enum:"turtle,json" default:"turtle" help:"Output format"`
	Output string `short:"o" type:"path" help:"Output file (default stdout)"`
}

// Run executes the export command.
func (c *ExportCmd) Run(g *Globals) error {
	w, err := g.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer w.Close()

	out := g.out()
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", c.Output, err)
		}
		defer f.Close()
		out = f
	}

	doc := w.session.Store().Snapshot()
	if c.Format == "json" {
		return ingestion.WriteDocument(out, doc)
	}
	return ingestion.WriteTurtle(out, doc, w.session.Store().Namespace())
}

// WatchCmd re-imports ontology files whenever they change.
type WatchCmd struct {
	Path     string        `arg:"" optional:"" type:"path" help:"File or directory to watch (default workspace directory)"`
	Debounce time.Duration `default:"500ms" help:"Quiet period before re-importing"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	root := c.Path
	if root == "" {
		root = w.root
	}

	fmt.Fprintln(g.out(), "## Watch Mode")
	fmt.Fprintf(g.out(), "Watching %s for changes (Ctrl+C to stop)\n\n", root)

	// Handle Ctrl+C
	go func() {
		<-osSignalChannel()
		fmt.Fprintln(g.out(), "\nStopping watch mode...")
		cancel()
	}()

	err = w.session.Watch(ctx, root, ingestion.WatchOptions{Debounce: c.Debounce}, func(r *ingestion.ImportResult) {
		g.success("✓ Re-imported %d files: %d nodes, %d links", r.Files, r.Nodes, r.Links)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintln(g.out(), "Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	ctx := context.Background()
	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	server := mcp.NewServer(w.session, w.logger)

	// stdout carries JSON-RPC only; logs go to stderr
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// ServeCmd exposes Prometheus metrics with optional watch mode.
type ServeCmd struct {
	MetricsAddr string        `help:"Metrics listen address (default from config, else :9464)"`
	Watch       string        `short:"w" type:"path" help:"Also re-import this file or directory on change"`
	Debounce    time.Duration `default:"500ms" help:"Quiet period before re-importing"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer w.Close()

	addr := c.MetricsAddr
	if addr == "" {
		addr = w.cfg.Metrics.Addr
	}
	if addr == "" {
		addr = ":9464"
	}

	go func() {
		<-osSignalChannel()
		cancel()
	}()

	return c.serve(ctx, g, w, addr)
}

func (c *ServeCmd) serve(ctx context.Context, g *Globals, w *workspace, addr string) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return w.metrics.Serve(ctx, addr, w.logger)
	})

	if c.Watch != "" {
		fmt.Fprintf(g.out(), "Watching %s for changes\n", c.Watch)
		group.Go(func() error {
			err := w.session.Watch(ctx, c.Watch, ingestion.WatchOptions{Debounce: c.Debounce}, nil)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	fmt.Fprintf(g.out(), "Serving metrics on %s/metrics (Ctrl+C to stop)\n", addr)
	return group.Wait()
}

// StatusCmd shows the workspace status.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(g *Globals) error {
	w, err := g.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer w.Close()

	store := w.session.Store()
	counts := make(map[graph.NodeType]int)
	for _, n := range store.GetAllNodes() {
		counts[n.Type]++
	}

	fmt.Fprintf(g.out(), "Workspace status for %s\n", w.root)
	fmt.Fprintf(g.out(), "  Version:        %s\n", Version)
	fmt.Fprintf(g.out(), "  Config:         %s\n", strings.Join(w.cfg.LoadedFrom, ", "))
	fmt.Fprintf(g.out(), "  Database:       %s\n", w.cfg.DBPath(w.root))
	fmt.Fprintf(g.out(), "  Namespace:      %s\n", store.Namespace())
	fmt.Fprintf(g.out(), "  Nodes:          %d (%d class, %d property, %d literal)\n",
		store.NodeCount(), counts[graph.NodeClass], counts[graph.NodeProperty], counts[graph.NodeLiteral])
	fmt.Fprintf(g.out(), "  Links:          %d\n", store.LinkCount())
	fmt.Fprintf(g.out(), "  Predicates:     %d\n", store.Predicates().Len())
	return nil
}

// CleanCmd deletes the workspace database.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	root, cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	dbPath := cfg.DBPath(root)
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no ontology database at %s. Nothing to clean", dbPath)
	}

	if !c.Force {
		fmt.Fprintf(g.out(), "Delete database at %s? [y/N] ", dbPath)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(g.out(), "Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(dbPath); err != nil {
		return fmt.Errorf("deleting database: %w", err)
	}

	g.success("Deleted %s", dbPath)
	return nil
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals `embed:""`

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Init       InitCmd       `cmd:"" help:"Write a default config file"`
	Import     ImportCmd     `cmd:"" help:"Import Turtle, N-Triples or JSON ontology files"`
	Tree       TreeCmd       `cmd:"" help:"Print the ontology as a tree"`
	Triples    TriplesCmd    `cmd:"" help:"List the triples touching a node"`
	Node       NodeCmd       `cmd:"" help:"Create, edit and inspect nodes"`
	Triple     TripleCmd     `cmd:"" help:"Add triples"`
	Predicates PredicatesCmd `cmd:"" help:"List predicates available for new triples"`
	Search     SearchCmd     `cmd:"" help:"Search node labels"`
	Path       PathCmd       `cmd:"" help:"Show the shortest connection between two nodes"`
	History    HistoryCmd    `cmd:"" help:"Show the change history of a node"`
	Export     ExportCmd     `cmd:"" help:"Export the graph as Turtle or JSON"`
	Watch      WatchCmd      `cmd:"" help:"Watch mode with live re-import"`
	MCP        MCPCmd        `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve      ServeCmd      `cmd:"" help:"Serve Prometheus metrics with optional watch mode"`
	Status     StatusCmd     `cmd:"" help:"Show workspace status"`
	Clean      CleanCmd      `cmd:"" help:"Delete the workspace database"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("ontotree"),
		kong.Description("Ontology graph store and tree projection"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Bind(&c.Globals),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run()
}
