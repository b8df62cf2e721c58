package projection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/ontotree/internal/graph"
)

func classNodes(ids ...string) []graph.Node {
	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, graph.Node{ID: id, Label: id, Type: graph.NodeClass})
	}
	return nodes
}

func childIDs(n *graph.Node) []string {
	result := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		result = append(result, c.ID)
	}
	return result
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	root, err := Build(nil, nil)

	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestBuild_SingleRoot(t *testing.T) {
	t.Parallel()

	nodes := []graph.Node{
		{ID: "a", Label: "A", Type: graph.NodeClass},
		{ID: "b", Label: "B", Type: graph.NodeClass},
	}
	links := []graph.Link{{Source: "a", Target: "b", Predicate: "p"}}

	root, err := Build(nodes, links)

	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, "a", root.ID)
	assert.False(t, IsVirtual(root))
	assert.Equal(t, []string{"b"}, childIDs(root))
	assert.Empty(t, root.Children[0].Children)
}

func TestBuild_CyclicUsesVirtualRootOverAllNodes(t *testing.T) {
	t.Parallel()

	links := []graph.Link{
		{Source: "a", Target: "b", Predicate: "p"},
		{Source: "b", Target: "a", Predicate: "q"},
	}

	root, err := Build(classNodes("a", "b"), links)

	require.NoError(t, err)
	require.NotNil(t, root)
	assert.True(t, IsVirtual(root))
	assert.Equal(t, VirtualRootID, root.ID)
	assert.Equal(t, VirtualRootLabel, root.Label)
	assert.Equal(t, graph.NodeClass, root.Type)
	assert.Equal(t, []string{"a", "b"}, childIDs(root))
	assert.Equal(t, 2, Count(root))
}

func TestBuild_MultipleRoots(t *testing.T) {
	t.Parallel()

	links := []graph.Link{
		{Source: "a", Target: "c", Predicate: "p"},
		{Source: "b", Target: "c", Predicate: "p"},
	}

	root, err := Build(classNodes("a", "b", "c"), links)

	require.NoError(t, err)
	assert.True(t, IsVirtual(root))
	assert.Equal(t, []string{"a", "b"}, childIDs(root))
	assert.Same(t, root.Children[0].Children[0], root.Children[1].Children[0])
	assert.Equal(t, 3, Count(root))
}

func TestBuild_DuplicatePairsAttachOnce(t *testing.T) {
	t.Parallel()

	links := []graph.Link{
		{Source: "a", Target: "b", Predicate: "p"},
		{Source: "a", Target: "b", Predicate: "q"},
		{Source: "a", Target: "b", Predicate: "p"},
	}

	root, err := Build(classNodes("a", "b"), links)

	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, childIDs(root))
}

func TestBuild_IgnoresDanglingLinks(t *testing.T) {
	t.Parallel()

	links := []graph.Link{{Source: "a", Target: "ghost", Predicate: "p"}}

	root, err := Build(classNodes("a"), links)

	require.NoError(t, err)
	assert.Equal(t, "a", root.ID)
	assert.Empty(t, root.Children)
}

func TestBuild_IsolatedCycleBesideRoot(t *testing.T) {
	t.Parallel()

	links := []graph.Link{
		{Source: "r", Target: "x", Predicate: "p"},
		{Source: "c", Target: "d", Predicate: "p"},
		{Source: "d", Target: "c", Predicate: "p"},
	}

	root, err := Build(classNodes("r", "x", "c", "d"), links)

	require.NoError(t, err)
	assert.True(t, IsVirtual(root))
	assert.Equal(t, []string{"r", "c"}, childIDs(root))
	assert.Equal(t, 4, Count(root))
}

func TestBuild_NeverDropsNodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []graph.Node
		links []graph.Link
	}{
		{
			name:  "Chain",
			nodes: classNodes("a", "b", "c", "d"),
			links: []graph.Link{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "c", Target: "d"}},
		},
		{
			name:  "Diamond",
			nodes: classNodes("top", "l", "r", "bottom"),
			links: []graph.Link{{Source: "top", Target: "l"}, {Source: "top", Target: "r"}, {Source: "l", Target: "bottom"}, {Source: "r", Target: "bottom"}},
		},
		{
			name:  "Ring",
			nodes: classNodes("a", "b", "c"),
			links: []graph.Link{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "c", Target: "a"}},
		},
		{
			name:  "Disconnected",
			nodes: classNodes("a", "b", "c"),
		},
		{
			name:  "RootIntoCycle",
			nodes: classNodes("root", "a", "b"),
			links: []graph.Link{{Source: "root", Target: "a"}, {Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root, err := Build(tt.nodes, tt.links)
			require.NoError(t, err)
			assert.Equal(t, len(tt.nodes), Count(root))
		})
	}
}

func TestBuild_Pure(t *testing.T) {
	t.Parallel()

	nodes := classNodes("a", "b", "c")
	links := []graph.Link{
		{Source: "a", Target: "b", Predicate: "p"},
		{Source: "b", Target: "c", Predicate: "p"},
		{Source: "c", Target: "b", Predicate: "p"},
	}
	nodesBefore := append([]graph.Node(nil), nodes...)

	first, err := Build(nodes, links)
	require.NoError(t, err)
	second, err := Build(nodes, links)
	require.NoError(t, err)

	assert.Equal(t, Render(first), Render(second))
	assert.NotSame(t, first, second)
	assert.Equal(t, nodesBefore, nodes)
	for _, n := range nodes {
		assert.Empty(t, n.Children)
	}
}

func TestBuild_TooLarge(t *testing.T) {
	t.Parallel()

	nodes := make([]graph.Node, 0, 11)
	for i := range 11 {
		nodes = append(nodes, graph.Node{ID: fmt.Sprintf("n%d", i)})
	}

	root, err := Build(nodes, nil, WithMaxNodes(10))

	assert.Nil(t, root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	var tooLarge *TooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 11, tooLarge.Nodes)
	assert.Equal(t, 10, tooLarge.Max)

	root, err = Build(nodes[:10], nil, WithMaxNodes(10))
	require.NoError(t, err)
	assert.Equal(t, 10, Count(root))
}

func TestBuild_DefaultLimit(t *testing.T) {
	t.Parallel()

	nodes := make([]graph.Node, DefaultMaxNodes+1)
	for i := range nodes {
		nodes[i] = graph.Node{ID: fmt.Sprintf("n%d", i)}
	}

	_, err := Build(nodes, nil)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestBuild_NodeNamedLikeVirtualRoot(t *testing.T) {
	t.Parallel()

	t.Run("SingleRoot", func(t *testing.T) {
		t.Parallel()
		root, err := Build(classNodes(VirtualRootID, "child"), []graph.Link{
			{Source: VirtualRootID, Target: "child", Predicate: "p"},
		})

		require.NoError(t, err)
		assert.False(t, IsVirtual(root))
		assert.Equal(t, 2, Count(root))
	})

	t.Run("BesideSynthesizedRoot", func(t *testing.T) {
		t.Parallel()
		root, err := Build(classNodes(VirtualRootID, "other"), nil)

		require.NoError(t, err)
		require.True(t, IsVirtual(root))
		assert.Equal(t, []string{VirtualRootID, "other"}, childIDs(root))
		assert.Equal(t, 2, Count(root))

		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, root))
		assert.Equal(t, "Root [class]\n  virtual_root [class]\n  other [class]\n", buf.String())
	})
}

func TestBuild_RootLabel(t *testing.T) {
	t.Parallel()

	root, err := Build(classNodes("a", "b"), nil, WithRootLabel("Ontology"))

	require.NoError(t, err)
	assert.Equal(t, "Ontology", root.Label)
}

func TestRender(t *testing.T) {
	t.Parallel()

	links := []graph.Link{
		{Source: "a", Target: "b", Predicate: "p"},
		{Source: "b", Target: "a", Predicate: "q"},
	}
	root, err := Build(classNodes("a", "b"), links)
	require.NoError(t, err)

	view := Render(root)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "virtual_root", "label": "Root", "type": "class",
		"children": [
			{"id": "a", "label": "a", "type": "class", "children": [
				{"id": "b", "label": "b", "type": "class", "children": [
					{"id": "a", "ref": true}
				]}
			]},
			{"id": "b", "ref": true}
		]
	}`, string(data))
	assert.Nil(t, Render(nil))
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	links := []graph.Link{
		{Source: "a", Target: "b", Predicate: "p"},
		{Source: "a", Target: "c", Predicate: "p"},
		{Source: "c", Target: "b", Predicate: "p"},
	}
	root, err := Build(classNodes("a", "b", "c"), links)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, root))

	assert.Equal(t, "a [class]\n  b [class]\n  c [class]\n    b (see above)\n", buf.String())
}

func TestWalk_SkipChildren(t *testing.T) {
	t.Parallel()

	links := []graph.Link{
		{Source: "a", Target: "b", Predicate: "p"},
		{Source: "b", Target: "c", Predicate: "p"},
	}
	root, err := Build(classNodes("a", "b", "c"), links)
	require.NoError(t, err)

	var visited []string
	Walk(root, func(n *graph.Node, depth int) bool {
		visited = append(visited, fmt.Sprintf("%s@%d", n.ID, depth))
		return n.ID != "b"
	})

	assert.Equal(t, []string{"a@0", "b@1"}, visited)
}
