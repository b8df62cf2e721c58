package ingestion

import (
	"strings"

	"github.com/Benny93/ontotree/internal/graph"
)

// DefaultNamespaces are the ontology-schema namespaces a triple must touch
// to be imported.
var DefaultNamespaces = []string{
	graph.NamespaceRDF,
	graph.NamespaceRDFS,
	graph.NamespaceOWL,
}

// AllNamespaces disables the namespace filter when passed to
// NewHierarchyBuilder.
const AllNamespaces = "*"

// hierarchyPredicates is the allow-list of predicates that shape the tree.
// The value tells whether the object is the parent (subClassOf and friends)
// or the child (RDF list cells).
var hierarchyPredicates = map[string]bool{
	graph.RDFSSubClassOf: true,
	graph.RDFSDomain:     true,
	graph.RDFSRange:      true,
	graph.RDFFirst:       false,
	graph.RDFRest:        false,
}

// propertyClasses mark their rdf:type subjects as properties.
var propertyClasses = map[string]bool{
	graph.RDFProperty:           true,
	graph.OWLObjectProperty:     true,
	graph.OWLDatatypeProperty:   true,
	graph.OWLAnnotationProperty: true,
}

// IsHierarchyPredicate reports whether predicate is on the hierarchy allow-list.
func IsHierarchyPredicate(predicate string) bool {
	_, ok := hierarchyPredicates[predicate]
	return ok
}

// HierarchyBuilder turns parsed triples into nodes, links and a class forest.
type HierarchyBuilder struct {
	namespaces []string
	acceptAll  bool
}

// NewHierarchyBuilder creates a builder accepting triples whose subject or
// object lies in one of namespaces. No namespaces selects DefaultNamespaces;
// AllNamespaces accepts every triple.
func NewHierarchyBuilder(namespaces ...string) *HierarchyBuilder {
	b := &HierarchyBuilder{}
	for _, ns := range namespaces {
		if ns == AllNamespaces {
			b.acceptAll = true
			continue
		}
		if ns != "" {
			b.namespaces = append(b.namespaces, ns)
		}
	}
	if len(b.namespaces) == 0 {
		b.namespaces = DefaultNamespaces
	}
	return b
}

// Branch is a node placed in the class forest.
type Branch struct {
	ID       string
	Depth    int
	Children []*Branch
}

// Hierarchy is the result of building triples.
type Hierarchy struct {
	// Document holds the flat nodes and links derived from the triples.
	Document graph.Document

	// Roots is the class forest; every node of Document appears exactly once.
	Roots []*Branch

	// Triples counts the triples that were accepted.
	Triples int

	// Skipped counts triples rejected as literal-valued or out of namespace.
	Skipped int

	depths     map[string]int
	properties []string
}

// Depth returns the forest depth of a node.
func (h *Hierarchy) Depth(id string) (int, bool) {
	d, ok := h.depths[id]
	return d, ok
}

// Properties returns the ids declared as properties, in declaration order.
func (h *Hierarchy) Properties() []string {
	return h.properties
}

// Apply writes the derived nodes and links into store. Declared properties
// are retyped even when the store already held them as classes.
func (h *Hierarchy) Apply(store *graph.Store) LoadStats {
	stats := LoadDocument(store, &h.Document)
	for _, id := range h.properties {
		store.UpdateNodeType(id, graph.NodeProperty)
	}
	return stats
}

func (b *HierarchyBuilder) qualifies(t Triple) bool {
	if b.acceptAll || IsHierarchyPredicate(t.Predicate) {
		return true
	}
	return b.inNamespace(t.Subject.Value) || b.inNamespace(t.Object.Value)
}

func (b *HierarchyBuilder) inNamespace(value string) bool {
	for _, ns := range b.namespaces {
		if strings.HasPrefix(value, ns) {
			return true
		}
	}
	return false
}

// Build filters triples, creates a class node for every subject and object,
// marks declared properties, and arranges the nodes into a forest using the
// hierarchy predicates. Triples on the allow-list are always accepted so
// that subclass chains between domain classes survive the namespace filter.
func (b *HierarchyBuilder) Build(triples []Triple) *Hierarchy {
	h := &Hierarchy{
		Document: graph.Document{Nodes: []graph.Node{}, Links: []graph.Link{}},
		depths:   make(map[string]int),
	}

	index := make(map[string]int)
	ensure := func(t Term) {
		if _, ok := index[t.Value]; ok {
			return
		}
		label := t.Value
		if t.Kind == TermIRI {
			label = graph.LocalName(t.Value)
		}
		index[t.Value] = len(h.Document.Nodes)
		h.Document.Nodes = append(h.Document.Nodes, graph.Node{
			ID:    t.Value,
			Label: label,
			Type:  graph.NodeClass,
		})
	}

	seenLinks := make(map[graph.Link]bool)
	hasParent := make(map[string]bool)
	children := make(map[string][]string)
	seenEdges := make(map[[2]string]bool)

	for _, t := range triples {
		if t.Validate() != nil || !b.qualifies(t) {
			h.Skipped++
			continue
		}
		h.Triples++

		ensure(t.Subject)
		ensure(t.Object)

		link := graph.Link{Source: t.Subject.Value, Target: t.Object.Value, Predicate: t.Predicate}
		if !seenLinks[link] {
			seenLinks[link] = true
			h.Document.Links = append(h.Document.Links, link)
		}

		if t.Predicate == graph.RDFType && propertyClasses[t.Object.Value] {
			node := &h.Document.Nodes[index[t.Subject.Value]]
			if node.Type != graph.NodeProperty {
				node.Type = graph.NodeProperty
				h.properties = append(h.properties, node.ID)
			}
		}

		objectIsParent, ok := hierarchyPredicates[t.Predicate]
		if !ok {
			continue
		}
		parent, child := t.Subject.Value, t.Object.Value
		if objectIsParent {
			parent, child = child, parent
		}
		if parent == child || seenEdges[[2]string{parent, child}] {
			continue
		}
		seenEdges[[2]string{parent, child}] = true
		hasParent[child] = true
		children[parent] = append(children[parent], child)
	}

	var plant func(id string, depth int) *Branch
	plant = func(id string, depth int) *Branch {
		h.depths[id] = depth
		branch := &Branch{ID: id, Depth: depth}
		for _, c := range children[id] {
			if _, visited := h.depths[c]; visited {
				continue
			}
			branch.Children = append(branch.Children, plant(c, depth+1))
		}
		return branch
	}
	addRoot := func(id string) {
		if _, visited := h.depths[id]; visited {
			return
		}
		h.Roots = append(h.Roots, plant(id, 0))
	}

	if _, ok := index[graph.RDFSResource]; ok {
		addRoot(graph.RDFSResource)
	}
	for _, n := range h.Document.Nodes {
		if !hasParent[n.ID] {
			addRoot(n.ID)
		}
	}
	for _, n := range h.Document.Nodes {
		addRoot(n.ID)
	}
	return h
}
