// Package projection turns a flat ontology snapshot into a single-rooted
// tree for display.
//
// Build is a pure function over a node/link snapshot: it never touches the
// store and always produces fresh node copies. Children are shared
// references, so a node with several parents appears under each of them as
// the same *graph.Node and cyclic input yields a cyclic structure. Use Walk,
// Count, Render or WriteText to traverse the result; they keep one seen-set
// for the whole traversal.
package projection

import (
	"errors"
	"fmt"

	"github.com/Benny93/ontotree/internal/graph"
)

// DefaultMaxNodes is the largest snapshot Build will project.
const DefaultMaxNodes = 1000

// Virtual root identity.
const (
	VirtualRootID    = "virtual_root"
	VirtualRootLabel = "Root"
)

// ErrTooLarge is matched by errors returned for snapshots over the size limit.
var ErrTooLarge = errors.New("graph too large to render")

// TooLargeError reports a snapshot that exceeds the configured maximum.
type TooLargeError struct {
	Nodes int
	Max   int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("graph too large to render: %d nodes exceeds limit of %d", e.Nodes, e.Max)
}

// Is makes errors.Is(err, ErrTooLarge) succeed.
func (e *TooLargeError) Is(target error) bool {
	return target == ErrTooLarge
}

type options struct {
	maxNodes  int
	rootLabel string
}

// Option configures Build.
type Option func(*options)

// WithMaxNodes sets the size guard. Values <= 0 keep the default.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

// WithRootLabel sets the label of a synthesized virtual root.
func WithRootLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.rootLabel = label
		}
	}
}

// Build projects nodes and links into a tree.
//
// Each link whose endpoints both exist attaches the target under the source,
// once per (source, target) pair. Nodes never targeted by a link are roots.
// A graph without roots is entirely cyclic and every node is placed under a
// virtual root. A single root is returned directly when it reaches every
// node. Otherwise a virtual root collects the roots together with any node
// that none of them reaches, so no node is ever dropped.
//
// Build returns nil for an empty snapshot and a *TooLargeError when the
// snapshot holds more nodes than the configured maximum.
func Build(nodes []graph.Node, links []graph.Link, opts ...Option) (*graph.Node, error) {
	o := options{maxNodes: DefaultMaxNodes, rootLabel: VirtualRootLabel}
	for _, opt := range opts {
		opt(&o)
	}

	if len(nodes) > o.maxNodes {
		return nil, &TooLargeError{Nodes: len(nodes), Max: o.maxNodes}
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	copies := make(map[string]*graph.Node, len(nodes))
	order := make([]*graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := copies[n.ID]; dup {
			continue
		}
		c := &graph.Node{
			ID:       n.ID,
			Label:    n.Label,
			Type:     n.Type,
			Version:  n.Version,
			Author:   n.Author,
			Children: []*graph.Node{},
		}
		copies[n.ID] = c
		order = append(order, c)
	}

	type pair struct{ source, target string }
	attached := make(map[pair]bool)
	targeted := make(map[string]bool)
	for _, link := range links {
		source, okSource := copies[link.Source]
		target, okTarget := copies[link.Target]
		if !okSource || !okTarget {
			continue
		}
		targeted[link.Target] = true
		p := pair{link.Source, link.Target}
		if attached[p] {
			continue
		}
		attached[p] = true
		source.Children = append(source.Children, target)
	}

	var roots []*graph.Node
	for _, c := range order {
		if !targeted[c.ID] {
			roots = append(roots, c)
		}
	}

	if len(roots) == 0 {
		return virtualRoot(o.rootLabel, order), nil
	}

	reached := make(map[string]bool, len(order))
	for _, r := range roots {
		markReachable(r, reached)
	}
	top := roots
	for _, c := range order {
		if reached[c.ID] {
			continue
		}
		top = append(top, c)
		markReachable(c, reached)
	}

	if len(top) == 1 {
		return top[0], nil
	}
	return virtualRoot(o.rootLabel, top), nil
}

func virtualRoot(label string, children []*graph.Node) *graph.Node {
	return graph.NewSyntheticNode(VirtualRootID, label, append([]*graph.Node(nil), children...))
}

// markReachable records every node reachable from start in reached.
func markReachable(start *graph.Node, reached map[string]bool) {
	if reached[start.ID] {
		return
	}
	reached[start.ID] = true
	stack := []*graph.Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range n.Children {
			if !reached[child.ID] {
				reached[child.ID] = true
				stack = append(stack, child)
			}
		}
	}
}

// IsVirtual reports whether n is a synthesized root. An ontology node that
// happens to use VirtualRootID as its id is not virtual.
func IsVirtual(n *graph.Node) bool {
	return n != nil && n.Synthetic()
}
