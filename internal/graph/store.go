package graph

import (
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// DefaultAuthor is the author recorded on nodes inserted without one.
const DefaultAuthor = "noname"

// TypeInference derives the type of the object node of an rdf:type triple.
type TypeInference func(subject, object Node) NodeType

// LabelTypeInference infers the object type from the subject label:
// "Class" yields a class, "Property" a property, anything else a literal.
func LabelTypeInference(subject, _ Node) NodeType {
	switch subject.Label {
	case "Class":
		return NodeClass
	case "Property":
		return NodeProperty
	default:
		return NodeLiteral
	}
}

// Store is the in-memory ontology graph of one editing session.
//
// Nodes are keyed by id and links are deduplicated on their full
// (source, target, predicate) value. Both keep insertion order so that
// every read, and every projection built from a snapshot, is deterministic.
// A link can only exist between two stored nodes; removing or renaming a
// node cascades to every link that references it.
type Store struct {
	mu      sync.RWMutex
	nodes   map[string]*Node
	order   []string
	links   []Link
	linkSet map[Link]struct{}

	predicates *PredicateRegistry
	namespace  string
	infer      TypeInference
	logger     *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNamespace sets the namespace used for synthesized ids and predicates.
func WithNamespace(namespace string) StoreOption {
	return func(s *Store) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithLogger sets the logger used to report rejected mutations.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTypeInference replaces the rdf:type inference strategy used by AddTriple.
func WithTypeInference(fn TypeInference) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.infer = fn
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		nodes:     make(map[string]*Node),
		linkSet:   make(map[Link]struct{}),
		namespace: DefaultNamespace,
		infer:     LabelTypeInference,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.predicates = NewPredicateRegistry(s.namespace)
	return s
}

// Namespace returns the namespace used for synthesized identifiers.
func (s *Store) Namespace() string {
	return s.namespace
}

// Predicates returns the store's predicate registry.
func (s *Store) Predicates() *PredicateRegistry {
	return s.predicates
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// LinkCount returns the number of links.
func (s *Store) LinkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

// AddNode inserts node unless its id is already taken, in which case the
// existing node is returned unchanged. Missing fields are defaulted; a node
// without an id gets one generated from its label.
func (s *Store) AddNode(node Node) Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNodeLocked(node)
}

func (s *Store) addNodeLocked(node Node) Node {
	if node.ID == "" {
		node.ID = s.generateNodeIDLocked(node.Label)
	}
	if existing, ok := s.nodes[node.ID]; ok {
		return *existing
	}

	if node.Label == "" {
		node.Label = ShortName(node.ID)
	}
	if node.Type == "" {
		node.Type = NodeClass
	}
	if node.Author == "" {
		node.Author = DefaultAuthor
	}
	node.Children = nil

	stored := node
	s.nodes[node.ID] = &stored
	s.order = append(s.order, node.ID)
	return stored
}

// CreateNode inserts a node with a freshly generated id for label.
func (s *Store) CreateNode(label string, nodeType NodeType) Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNodeLocked(Node{
		ID:    s.generateNodeIDLocked(label),
		Label: label,
		Type:  nodeType,
	})
}

// GenerateNodeID synthesizes a free id for label inside the store namespace,
// appending _1, _2, ... on collision.
func (s *Store) GenerateNodeID(label string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generateNodeIDLocked(label)
}

func (s *Store) generateNodeIDLocked(label string) string {
	base := s.namespace + Slug(label)
	id := base
	for counter := 1; ; counter++ {
		if _, taken := s.nodes[id]; !taken {
			return id
		}
		id = base + "_" + strconv.Itoa(counter)
	}
}

// AddLink connects source to target with predicate. It reports false and
// changes nothing when either endpoint is missing. Adding a link that
// already exists succeeds without creating a duplicate.
func (s *Store) AddLink(source, target, predicate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLinkLocked(Link{Source: source, Target: target, Predicate: predicate})
}

func (s *Store) addLinkLocked(link Link) bool {
	_, hasSource := s.nodes[link.Source]
	_, hasTarget := s.nodes[link.Target]
	if !hasSource || !hasTarget {
		s.logger.Debug("rejected link with missing endpoint",
			zap.String("source", link.Source),
			zap.String("target", link.Target),
			zap.Bool("source_exists", hasSource),
			zap.Bool("target_exists", hasTarget),
		)
		return false
	}

	s.predicates.Register(link.Predicate)
	if _, dup := s.linkSet[link]; dup {
		return true
	}
	s.linkSet[link] = struct{}{}
	s.links = append(s.links, link)
	return true
}

// GetNode returns the node with the given id.
func (s *Store) GetNode(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// GetNodeByLabel returns the first inserted node carrying label.
// Labels are not unique, so later matches are ignored.
func (s *Store) GetNodeByLabel(label string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node := s.nodeByLabelLocked(label)
	if node == nil {
		return Node{}, false
	}
	return *node, true
}

func (s *Store) nodeByLabelLocked(label string) *Node {
	for _, id := range s.order {
		if n := s.nodes[id]; n.Label == label {
			return n
		}
	}
	return nil
}

// GetAllNodes returns copies of every node in insertion order.
func (s *Store) GetAllNodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.nodes[id])
	}
	return result
}

// GetAllLinks returns every link in insertion order.
func (s *Store) GetAllLinks() []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.links)
}

// Snapshot returns the current nodes and links as a flat document.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := Document{
		Nodes: make([]Node, 0, len(s.order)),
		Links: slices.Clone(s.links),
	}
	for _, id := range s.order {
		doc.Nodes = append(doc.Nodes, *s.nodes[id])
	}
	if doc.Links == nil {
		doc.Links = []Link{}
	}
	return doc
}

// UpdateNodeType changes the type of a node in place.
func (s *Store) UpdateNodeType(id string, nodeType NodeType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		s.logger.Debug("type change for missing node", zap.String("id", id))
		return false
	}
	node.Type = nodeType
	return true
}

// UpdateNodeLabel renames a node. The id is rewritten as well (see
// renamedID) and every link and child reference follows the node to its new
// id. It returns the new id, or false when the node does not exist or the
// new id already belongs to another node.
func (s *Store) UpdateNodeLabel(id, newLabel string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		s.logger.Debug("rename of missing node", zap.String("id", id))
		return "", false
	}

	newID := renamedID(id, newLabel)
	if newID != id {
		if _, taken := s.nodes[newID]; taken {
			s.logger.Debug("rename collides with existing node",
				zap.String("id", id), zap.String("new_id", newID))
			return "", false
		}
	}

	node.Label = newLabel
	if newID == id {
		return id, true
	}

	delete(s.nodes, id)
	node.ID = newID
	s.nodes[newID] = node
	s.order[slices.Index(s.order, id)] = newID

	for i, link := range s.links {
		if !link.Touches(id) {
			continue
		}
		delete(s.linkSet, link)
		if link.Source == id {
			link.Source = newID
		}
		if link.Target == id {
			link.Target = newID
		}
		s.links[i] = link
		s.linkSet[link] = struct{}{}
	}

	for _, other := range s.nodes {
		for i, child := range other.Children {
			if child.ID == id {
				other.Children[i] = node
			}
		}
	}
	return newID, true
}

// DeleteNode removes a node together with every link touching it.
// Returns false if the node does not exist.
func (s *Store) DeleteNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		s.logger.Debug("delete of missing node", zap.String("id", id))
		return false
	}

	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(other string) bool { return other == id })
	s.links = slices.DeleteFunc(s.links, func(link Link) bool {
		if link.Touches(id) {
			delete(s.linkSet, link)
			return true
		}
		return false
	})
	for _, other := range s.nodes {
		other.Children = slices.DeleteFunc(other.Children, func(child *Node) bool { return child.ID == id })
	}
	return true
}

// GetAllTriplesWithNode returns every link touching the node with the given
// label, with identifiers compressed through ShortName for display.
func (s *Store) GetAllTriplesWithNode(label string) []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node := s.nodeByLabelLocked(label)
	if node == nil {
		return nil
	}

	var triples []Triple
	for _, link := range s.links {
		if !link.Touches(node.ID) {
			continue
		}
		triples = append(triples, Triple{
			Subject:   ShortName(link.Source),
			Predicate: ShortName(link.Predicate),
			Object:    ShortName(link.Target),
		})
	}
	return triples
}

// GetAvailablePredicates returns the registered predicates followed by the
// labels of property nodes that are not registered already.
func (s *Store) GetAvailablePredicates() []string {
	result := s.predicates.All()
	seen := make(map[string]struct{}, len(result))
	for _, p := range result {
		seen[p] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		node := s.nodes[id]
		if node.Type != NodeProperty {
			continue
		}
		if _, ok := seen[node.Label]; ok {
			continue
		}
		seen[node.Label] = struct{}{}
		result = append(result, node.Label)
	}
	return result
}

// ConnectableNodes returns the nodes that may act as triple endpoints,
// i.e. every node that is not a property.
func (s *Store) ConnectableNodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Node
	for _, id := range s.order {
		if node := s.nodes[id]; node.Type != NodeProperty {
			result = append(result, *node)
		}
	}
	return result
}

// AddTriple links two nodes resolved by label. When the predicate is
// rdf:type the object's type is set through the store's TypeInference
// strategy. The predicate is normalized before the link is added.
func (s *Store) AddTriple(subjectLabel, predicateLabel, objectLabel string) (Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject := s.nodeByLabelLocked(subjectLabel)
	object := s.nodeByLabelLocked(objectLabel)
	if subject == nil || object == nil {
		s.logger.Debug("triple endpoint not found",
			zap.String("subject", subjectLabel),
			zap.String("object", objectLabel),
		)
		return Link{}, false
	}

	predicate := s.predicates.Normalize(predicateLabel)
	if IsTypePredicate(predicateLabel) {
		predicate = RDFType
		object.Type = s.infer(*subject, *object)
	}

	link := Link{Source: subject.ID, Target: object.ID, Predicate: predicate}
	if !s.addLinkLocked(link) {
		return Link{}, false
	}
	return link, true
}

// IsTypePredicate reports whether label denotes rdf:type.
func IsTypePredicate(label string) bool {
	return label == RDFType || label == "rdf:type" || label == "a"
}

// Clear removes all nodes, links and registered predicates.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]*Node)
	s.order = nil
	s.links = nil
	s.linkSet = make(map[Link]struct{})
	s.predicates.Clear()
}
