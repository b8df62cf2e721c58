// Package graph provides the ontology data model for ontotree.
//
// It defines the node and link types that represent ontology entities
// (classes, properties, literal instances) and the predicate-labeled edges
// between them, together with the canonical flat document shape used for
// import, export and persistence.
package graph

import (
	"fmt"
	"strings"
)

// NodeType represents the ontological kind of a node.
type NodeType string

const (
	NodeClass    NodeType = "class"
	NodeProperty NodeType = "property"
	NodeLiteral  NodeType = "literal"
)

// ParseNodeType converts a string into a NodeType.
// The legacy value "instance" maps to NodeLiteral.
func ParseNodeType(s string) (NodeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "class":
		return NodeClass, nil
	case "property":
		return NodeProperty, nil
	case "literal", "instance":
		return NodeLiteral, nil
	default:
		return "", fmt.Errorf("unknown node type %q", s)
	}
}

// Node represents an ontology entity.
type Node struct {
	// ID is the unique, URI-shaped identifier of the node.
	ID string `json:"id"`

	// Label is the display string.
	Label string `json:"label"`

	// Type is the ontological kind of the node.
	Type NodeType `json:"type"`

	// Version is persistence metadata; opaque to the store.
	Version int `json:"version,omitempty"`

	// Author is persistence metadata; opaque to the store.
	Author string `json:"author,omitempty"`

	// Children is only populated in projected tree copies.
	Children []*Node `json:"children,omitempty"`

	synthetic bool
}

// NewSyntheticNode returns a class node that stands for no ontology entity,
// such as the root placed above a forest.
func NewSyntheticNode(id, label string, children []*Node) *Node {
	return &Node{
		ID:        id,
		Label:     label,
		Type:      NodeClass,
		Children:  children,
		synthetic: true,
	}
}

// Synthetic reports whether n was created by NewSyntheticNode.
func (n *Node) Synthetic() bool {
	return n.synthetic
}

// Link represents a directed, predicate-labeled edge between two nodes.
type Link struct {
	// Source is the ID of the subject node.
	Source string `json:"source"`

	// Target is the ID of the object node.
	Target string `json:"target"`

	// Predicate is the relation identifier.
	Predicate string `json:"predicate"`
}

// Touches reports whether the link has id as source or target.
func (l Link) Touches(id string) bool {
	return l.Source == id || l.Target == id
}

// Triple is a subject/predicate/object record rendered for display.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// Document is the flat node/link interchange shape.
type Document struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}
