// Package ingestion imports external triple data into the ontology store.
//
// Two formats are accepted: the flat {nodes, links} JSON document used for
// save/restore round-trips, and Turtle or N-Triples text that is parsed into
// triples and shaped into a class hierarchy before it reaches the store.
package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Benny93/ontotree/internal/graph"
)

// ErrMalformedDocument is matched by errors about structurally invalid
// node/link documents.
var ErrMalformedDocument = errors.New("malformed ontology document")

// DocumentError describes why a flat document was rejected.
type DocumentError struct {
	// Problems lists each violated constraint, e.g. "nodes: required".
	Problems []string

	// Err is the underlying decoding error, if any.
	Err error
}

func (e *DocumentError) Error() string {
	if len(e.Problems) == 0 && e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrMalformedDocument, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedDocument, strings.Join(e.Problems, "; "))
}

// Is makes errors.Is(err, ErrMalformedDocument) succeed.
func (e *DocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

type documentPayload struct {
	Nodes []nodePayload `json:"nodes" validate:"required,dive"`
	Links []linkPayload `json:"links" validate:"required,dive"`
}

type nodePayload struct {
	ID      string `json:"id" validate:"required"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Version int    `json:"version" validate:"gte=0"`
	Author  string `json:"author"`
}

type linkPayload struct {
	Source    string `json:"source" validate:"required"`
	Target    string `json:"target" validate:"required"`
	Predicate string `json:"predicate" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeDocument reads a flat {nodes, links} document. Both arrays must be
// present (they may be empty); every node needs an id and a known type
// (an empty type means class) and every link needs source, target and
// predicate. Violations are reported as a *DocumentError.
func DecodeDocument(r io.Reader) (*graph.Document, error) {
	var payload documentPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, &DocumentError{Err: fmt.Errorf("decoding JSON: %w", err)}
	}

	if err := validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &DocumentError{Err: err}
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			field := strings.TrimPrefix(fe.Namespace(), "documentPayload.")
			problems = append(problems, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
		return nil, &DocumentError{Problems: problems}
	}

	doc := &graph.Document{
		Nodes: make([]graph.Node, 0, len(payload.Nodes)),
		Links: make([]graph.Link, 0, len(payload.Links)),
	}
	var problems []string
	for i, n := range payload.Nodes {
		nodeType := graph.NodeClass
		if n.Type != "" {
			parsed, err := graph.ParseNodeType(n.Type)
			if err != nil {
				problems = append(problems, fmt.Sprintf("nodes[%d].type: %v", i, err))
				continue
			}
			nodeType = parsed
		}
		doc.Nodes = append(doc.Nodes, graph.Node{
			ID:      n.ID,
			Label:   n.Label,
			Type:    nodeType,
			Version: n.Version,
			Author:  n.Author,
		})
	}
	if len(problems) > 0 {
		return nil, &DocumentError{Problems: problems}
	}
	for _, l := range payload.Links {
		doc.Links = append(doc.Links, graph.Link{Source: l.Source, Target: l.Target, Predicate: l.Predicate})
	}
	return doc, nil
}

// LoadStats counts what a load wrote into the store.
type LoadStats struct {
	Nodes         int
	Links         int
	RejectedLinks int
}

// LoadDocument passes every node and link of doc to the store verbatim.
// Links whose endpoints are missing are counted as rejected.
func LoadDocument(store *graph.Store, doc *graph.Document) LoadStats {
	var stats LoadStats
	before := store.NodeCount()
	for _, n := range doc.Nodes {
		store.AddNode(n)
	}
	stats.Nodes = store.NodeCount() - before

	linksBefore := store.LinkCount()
	for _, l := range doc.Links {
		if !store.AddLink(l.Source, l.Target, l.Predicate) {
			stats.RejectedLinks++
		}
	}
	stats.Links = store.LinkCount() - linksBefore
	return stats
}
