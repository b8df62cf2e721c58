package storage

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Benny93/ontotree/internal/graph"
)

// bareNode strips persistence metadata and projection children.
func bareNode(n graph.Node) graph.Node {
	return graph.Node{ID: n.ID, Label: n.Label, Type: n.Type}
}

// diffNodes compares the stored nodes against doc and returns the changes
// that saving doc records. Creations and updates follow document order;
// deletions come last, sorted by id. Duplicate ids in doc keep their first
// occurrence.
func diffNodes(previous map[string]graph.Node, versions map[string]NodeVersion, doc graph.Document, author string, now time.Time) []NodeChange {
	seen := make(map[string]bool, len(doc.Nodes))
	var changes []NodeChange

	record := func(kind ChangeType, id string, oldValue, newValue *graph.Node) {
		changes = append(changes, NodeChange{
			ID:        uuid.NewString(),
			NodeID:    id,
			Type:      kind,
			Version:   versions[id].Version + 1,
			Author:    author,
			Timestamp: now,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	}

	for _, n := range doc.Nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true

		current := bareNode(n)
		old, existed := previous[n.ID]
		switch {
		case !existed:
			record(ChangeCreate, n.ID, nil, &current)
		case old.Label != current.Label || old.Type != current.Type:
			before := old
			record(ChangeUpdate, n.ID, &before, &current)
		}
	}

	var removed []string
	for id := range previous {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		before := previous[id]
		record(ChangeDelete, id, &before, nil)
	}

	return changes
}

// applyChange returns the version record resulting from change.
func applyChange(change NodeChange) NodeVersion {
	return NodeVersion{
		NodeID:    change.NodeID,
		Version:   change.Version,
		Author:    change.Author,
		UpdatedAt: change.Timestamp,
		Deleted:   change.Type == ChangeDelete,
	}
}

// tally counts changes by type.
func tally(changes []NodeChange) SaveStats {
	var stats SaveStats
	for _, c := range changes {
		switch c.Type {
		case ChangeCreate:
			stats.Created++
		case ChangeUpdate:
			stats.Updated++
		case ChangeDelete:
			stats.Deleted++
		}
	}
	return stats
}

// uniqueNodes drops repeated ids from nodes, keeping the first occurrence.
func uniqueNodes(nodes []graph.Node) []graph.Node {
	seen := make(map[string]bool, len(nodes))
	out := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, bareNode(n))
	}
	return out
}

// withVersions copies nodes and fills Version and Author from versions.
func withVersions(nodes []graph.Node, versions map[string]NodeVersion) []graph.Node {
	out := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if v, ok := versions[n.ID]; ok {
			out[i].Version = v.Version
			out[i].Author = v.Author
		}
	}
	return out
}

// newestFirst orders history entries by descending version.
func newestFirst(changes []NodeChange, limit int) []NodeChange {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Version > changes[j].Version
	})
	if limit > 0 && len(changes) > limit {
		changes = changes[:limit]
	}
	return changes
}
