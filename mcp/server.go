// Package mcp provides the MCP (Model Context Protocol) server for ontotree.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Benny93/ontotree/internal/graph"
	"github.com/Benny93/ontotree/internal/projection"
	"github.com/Benny93/ontotree/internal/storage"
)

const (
	serverName    = "ontotree"
	serverVersion = "0.1.0"

	defaultSearchLimit = 20
)

// Server represents the MCP server.
type Server struct {
	session Session
	logger  *zap.Logger
	impl    *mcp.Implementation
	server  *mcp.Server
}

// Session is the editing session the server works through.
type Session interface {
	Store() *graph.Store
	Backend() storage.Backend
	Tree() (*graph.Node, error)
	AddNode(label string, nodeType graph.NodeType) graph.Node
	AddTriple(subject, predicate, object string) (graph.Link, bool)
	ResolveNode(ref string) (graph.Node, bool)
	Save(ctx context.Context) (storage.SaveStats, error)
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server. A nil logger disables logging.
func NewServer(session Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	impl := &mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}
	return &Server{
		session: session,
		logger:  logger,
		impl:    impl,
		server:  mcp.NewServer(impl, nil),
	}
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "onto_tree",
			Description: "Render the ontology as a single-rooted tree of labels and node types.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"format": {Type: "string", Description: "Output format", Enum: []any{"text", "json"}},
				},
			},
		},
		{
			Name:        "onto_triples",
			Description: "List every triple that has the given node as subject or object.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"label": {Type: "string", Description: "Label of the node"},
				},
				Required: []string{"label"},
			},
		},
		{
			Name:        "onto_search",
			Description: "Search node labels. Matches camelCase and snake_case parts of labels.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Search query text"},
					"limit": {Type: "integer", Description: "Maximum number of results"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "onto_predicates",
			Description: "List the predicates that may be used in new triples.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "onto_path",
			Description: "Find the shortest chain of nodes connecting two nodes, ignoring link direction.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"from": {Type: "string", Description: "Label or id of the first node"},
					"to":   {Type: "string", Description: "Label or id of the second node"},
				},
				Required: []string{"from", "to"},
			},
		},
		{
			Name:        "onto_add_node",
			Description: "Create a node with a generated id and save the graph.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"label": {Type: "string", Description: "Display label of the node"},
					"type":  {Type: "string", Description: "Node type", Enum: []any{"class", "property", "literal"}},
				},
				Required: []string{"label"},
			},
		},
		{
			Name:        "onto_add_triple",
			Description: "Link two existing nodes, referenced by label, through a predicate and save the graph.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"subject":   {Type: "string", Description: "Label of the subject node"},
					"predicate": {Type: "string", Description: "Predicate label or IRI"},
					"object":    {Type: "string", Description: "Label of the object node"},
				},
				Required: []string{"subject", "predicate", "object"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "ontotree://overview",
			Name:        "Ontology Overview",
			Description: "Node, link and predicate counts of the loaded ontology",
			MimeType:    "text/plain",
		},
		{
			URI:         "ontotree://schema",
			Name:        "Graph Schema",
			Description: "Node types and hierarchy predicates understood by ontotree",
			MimeType:    "text/plain",
		},
		{
			URI:         "ontotree://tree",
			Name:        "Ontology Tree",
			Description: "Indented text rendering of the projected tree",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.logger.Debug("tool call", zap.String("tool", name))

	switch name {
	case "onto_tree":
		format, _ := args["format"].(string)
		return s.handleTree(format)
	case "onto_triples":
		label, _ := args["label"].(string)
		return s.handleTriples(label)
	case "onto_search":
		query, _ := args["query"].(string)
		limit, _ := args["limit"].(float64)
		if limit == 0 {
			limit = defaultSearchLimit
		}
		return s.handleSearch(ctx, query, int(limit))
	case "onto_predicates":
		return s.handlePredicates()
	case "onto_path":
		from, _ := args["from"].(string)
		to, _ := args["to"].(string)
		return s.handlePath(from, to)
	case "onto_add_node":
		label, _ := args["label"].(string)
		nodeType, _ := args["type"].(string)
		return s.handleAddNode(ctx, label, nodeType)
	case "onto_add_triple":
		subject, _ := args["subject"].(string)
		predicate, _ := args["predicate"].(string)
		object, _ := args["object"].(string)
		return s.handleAddTriple(ctx, subject, predicate, object)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "ontotree://overview":
		return s.getOverview(), nil
	case "ontotree://schema":
		return getSchema(), nil
	case "ontotree://tree":
		return s.handleTree("text")
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	// MCP requires one compact JSON message per line
	encoder := json.NewEncoder(stdout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("dropping malformed request", zap.Error(err))
			continue
		}

		// Notifications carry no id and get no response
		if _, ok := req["id"]; !ok {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return result(id, map[string]any{})
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return result(id, map[string]any{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]any{
			"name":    s.impl.Name,
			"version": s.impl.Version,
		},
		"capabilities": map[string]any{
			"tools": map[string]any{
				"listChanged": false,
			},
			"resources": map[string]any{
				"listChanged": false,
			},
		},
	})
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		}
	}
	return result(id, map[string]any{"tools": toolList})
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	text, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return result(id, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
	})
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}
	return result(id, map[string]any{"resources": resourceList})
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)
	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return result(id, map[string]any{
		"contents": []map[string]any{
			{"uri": uri, "mimeType": "text/plain", "text": content},
		},
	})
}

// Tool Handlers

func (s *Server) handleTree(format string) (string, error) {
	root, err := s.session.Tree()
	var tooLarge *projection.TooLargeError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("The ontology has %d nodes, more than the %d a tree can show. Use onto_search or onto_triples instead.",
			tooLarge.Nodes, tooLarge.Max), nil
	}
	if err != nil {
		return "", err
	}

	if format == "json" {
		data, err := json.Marshal(projection.Render(root))
		if err != nil {
			return "", fmt.Errorf("encoding tree: %w", err)
		}
		return string(data), nil
	}

	var buf bytes.Buffer
	if err := projection.WriteText(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) handleTriples(label string) (string, error) {
	if label == "" {
		return "No label provided", nil
	}
	if _, ok := s.session.Store().GetNodeByLabel(label); !ok {
		return fmt.Sprintf("Node not found: %s", label), nil
	}

	triples := s.session.Store().GetAllTriplesWithNode(label)
	if len(triples) == 0 {
		return fmt.Sprintf("No triples involve %s", label), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Triples with %s (%d)\n\n", label, len(triples))
	for _, t := range triples {
		fmt.Fprintf(&sb, "- %s %s %s\n", t.Subject, t.Predicate, t.Object)
	}
	return sb.String(), nil
}

func (s *Server) handleSearch(ctx context.Context, query string, limit int) (string, error) {
	if query == "" {
		return "No query provided", nil
	}

	results, err := s.session.Backend().SearchLabels(ctx, query, limit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search Results for %q\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. **%s** (%s) `%s` score %.2f\n", i+1, r.Label, r.Type, r.NodeID, r.Score)
	}
	return sb.String(), nil
}

func (s *Server) handlePredicates() (string, error) {
	predicates := s.session.Store().GetAvailablePredicates()
	if len(predicates) == 0 {
		return "No predicates registered", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Predicates (%d)\n\n", len(predicates))
	for _, p := range predicates {
		fmt.Fprintf(&sb, "- %s\n", graph.ShortName(p))
	}
	return sb.String(), nil
}

func (s *Server) handlePath(from, to string) (string, error) {
	if from == "" || to == "" {
		return "Both from and to are required", nil
	}

	start, ok := s.session.ResolveNode(from)
	if !ok {
		return fmt.Sprintf("Node not found: %s", from), nil
	}
	end, ok := s.session.ResolveNode(to)
	if !ok {
		return fmt.Sprintf("Node not found: %s", to), nil
	}

	path := s.session.Store().FindPath(start.ID, end.ID)
	if len(path) == 0 {
		return fmt.Sprintf("No path between %s and %s", start.Label, end.Label), nil
	}

	labels := make([]string, len(path))
	for i, n := range path {
		labels[i] = n.Label
	}
	return fmt.Sprintf("%s\n\n%d hops", strings.Join(labels, " -> "), len(path)-1), nil
}

func (s *Server) handleAddNode(ctx context.Context, label, typeName string) (string, error) {
	if strings.TrimSpace(label) == "" {
		return "", fmt.Errorf("label is required")
	}

	nodeType := graph.NodeClass
	if typeName != "" {
		parsed, err := graph.ParseNodeType(typeName)
		if err != nil {
			return "", err
		}
		nodeType = parsed
	}

	node := s.session.AddNode(label, nodeType)
	if _, err := s.session.Save(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created %s node %s (%s)", node.Type, node.Label, node.ID), nil
}

func (s *Server) handleAddTriple(ctx context.Context, subject, predicate, object string) (string, error) {
	if subject == "" || predicate == "" || object == "" {
		return "", fmt.Errorf("subject, predicate and object are required")
	}

	link, ok := s.session.AddTriple(subject, predicate, object)
	if !ok {
		return "", fmt.Errorf("cannot add triple %s %s %s: unknown node or rejected link", subject, predicate, object)
	}
	if _, err := s.session.Save(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s %s %s",
		graph.ShortName(link.Source), graph.ShortName(link.Predicate), graph.ShortName(link.Target)), nil
}

// Resource Handlers

func (s *Server) getOverview() string {
	store := s.session.Store()

	counts := make(map[graph.NodeType]int)
	for _, n := range store.GetAllNodes() {
		counts[n.Type]++
	}

	var sb strings.Builder
	sb.WriteString("# Ontology Overview\n\n")
	fmt.Fprintf(&sb, "**Namespace:** %s\n", store.Namespace())
	fmt.Fprintf(&sb, "**Nodes:** %d\n", store.NodeCount())
	fmt.Fprintf(&sb, "**Links:** %d\n", store.LinkCount())
	fmt.Fprintf(&sb, "**Predicates:** %d\n", store.Predicates().Len())
	sb.WriteString("\n## Nodes by Type\n\n")
	for _, t := range []graph.NodeType{graph.NodeClass, graph.NodeProperty, graph.NodeLiteral} {
		fmt.Fprintf(&sb, "- %s: %d\n", t, counts[t])
	}
	return sb.String()
}

func getSchema() string {
	var sb strings.Builder
	sb.WriteString("# Ontology Graph Schema\n\n")
	sb.WriteString("## Node Types\n\n")
	sb.WriteString("| Type | Description |\n")
	sb.WriteString("|------|-------------|\n")
	sb.WriteString("| `class` | Concept or category |\n")
	sb.WriteString("| `property` | Relation between nodes |\n")
	sb.WriteString("| `literal` | Concrete value or instance |\n")
	sb.WriteString("\n## Hierarchy Predicates\n\n")
	sb.WriteString("| Predicate | Parent |\n")
	sb.WriteString("|-----------|--------|\n")
	sb.WriteString("| `rdfs:subClassOf` | object |\n")
	sb.WriteString("| `rdfs:domain` | object |\n")
	sb.WriteString("| `rdfs:range` | object |\n")
	sb.WriteString("| `rdf:first` | subject |\n")
	sb.WriteString("| `rdf:rest` | subject |\n")
	sb.WriteString("\nIn the tree every link points from parent to child: the link source is the parent.\n")
	sb.WriteString("`rdf:type` (or `a`) sets the type of the object node.\n")
	return sb.String()
}

// Helper functions

func result(id any, body map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  body,
	}
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
