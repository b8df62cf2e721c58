package graph

import (
	"sort"
	"sync"
)

// PredicateRegistry is a deduplicated catalog of predicate identifiers.
//
// Free-text labels are normalized into the same namespaced shape used for
// node ids; fully-qualified identifiers pass through unchanged.
type PredicateRegistry struct {
	mu         sync.RWMutex
	namespace  string
	predicates map[string]struct{}
}

// NewPredicateRegistry creates an empty registry that qualifies bare labels
// with namespace. An empty namespace selects DefaultNamespace.
func NewPredicateRegistry(namespace string) *PredicateRegistry {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &PredicateRegistry{
		namespace:  namespace,
		predicates: make(map[string]struct{}),
	}
}

// Namespace returns the namespace used to qualify bare labels.
func (r *PredicateRegistry) Namespace() string {
	return r.namespace
}

// Normalize returns the canonical identifier for label.
func (r *PredicateRegistry) Normalize(label string) string {
	if IsQualified(label) {
		return label
	}
	return r.namespace + Slug(label)
}

// Register normalizes label and adds it to the catalog. Registering the
// same predicate twice has no effect. Returns the stored identifier.
func (r *PredicateRegistry) Register(label string) string {
	id := r.Normalize(label)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.predicates[id] = struct{}{}
	return id
}

// Contains reports whether the normalized form of label is registered.
func (r *PredicateRegistry) Contains(label string) bool {
	id := r.Normalize(label)

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.predicates[id]
	return ok
}

// All returns every registered identifier in sorted order.
func (r *PredicateRegistry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.predicates))
	for id := range r.predicates {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of registered predicates.
func (r *PredicateRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.predicates)
}

// Clear removes every registered predicate.
func (r *PredicateRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predicates = make(map[string]struct{})
}
