package projection

import (
	"fmt"
	"io"
	"strings"

	"github.com/Benny93/ontotree/internal/graph"
)

// Walk visits every distinct node reachable from root depth-first, in child
// order. A node reached again through another parent or a cycle is not
// visited twice. Returning false from fn skips that node's children.
func Walk(root *graph.Node, fn func(n *graph.Node, depth int) bool) {
	if root == nil {
		return
	}
	seen := make(map[*graph.Node]bool)
	var visit func(n *graph.Node, depth int)
	visit = func(n *graph.Node, depth int) {
		if seen[n] {
			return
		}
		seen[n] = true
		if !fn(n, depth) {
			return
		}
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	visit(root, 0)
}

// Count returns the number of distinct ontology nodes in the tree,
// not counting a virtual root.
func Count(root *graph.Node) int {
	count := 0
	Walk(root, func(n *graph.Node, _ int) bool {
		if !IsVirtual(n) {
			count++
		}
		return true
	})
	return count
}

// View is an acyclic, JSON-friendly rendering of a projected tree.
// A node reached a second time is emitted as a stub with Ref set.
type View struct {
	ID       string         `json:"id"`
	Label    string         `json:"label,omitempty"`
	Type     graph.NodeType `json:"type,omitempty"`
	Ref      bool           `json:"ref,omitempty"`
	Children []*View        `json:"children,omitempty"`
}

// Render converts a projected tree into a View.
func Render(root *graph.Node) *View {
	if root == nil {
		return nil
	}
	seen := make(map[*graph.Node]bool)
	var render func(n *graph.Node) *View
	render = func(n *graph.Node) *View {
		if seen[n] {
			return &View{ID: n.ID, Ref: true}
		}
		seen[n] = true
		v := &View{ID: n.ID, Label: n.Label, Type: n.Type}
		for _, child := range n.Children {
			v.Children = append(v.Children, render(child))
		}
		return v
	}
	return render(root)
}

// WriteText prints the tree as indented lines of "label [type]".
// Repeated nodes are printed once more with a "(see above)" marker and are
// not expanded again.
func WriteText(w io.Writer, root *graph.Node) error {
	var werr error
	write := func(depth int, format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(w, strings.Repeat("  ", depth)+format+"\n", args...)
	}

	seen := make(map[*graph.Node]bool)
	var visit func(n *graph.Node, depth int)
	visit = func(n *graph.Node, depth int) {
		if seen[n] {
			write(depth, "%s (see above)", n.Label)
			return
		}
		seen[n] = true
		write(depth, "%s [%s]", n.Label, n.Type)
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	if root != nil {
		visit(root, 0)
	}
	return werr
}
