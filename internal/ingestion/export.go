package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"

	"github.com/Benny93/ontotree/internal/graph"
)

// WriteDocument writes doc as indented {nodes, links} JSON.
func WriteDocument(w io.Writer, doc graph.Document) error {
	if doc.Nodes == nil {
		doc.Nodes = []graph.Node{}
	}
	if doc.Links == nil {
		doc.Links = []graph.Link{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// WriteTurtle serializes doc as Turtle. Every node yields an rdfs:label
// triple and, for classes and properties without an rdf:type link, an
// rdf:type triple; every link yields one triple. Bare identifiers are qualified with namespace.
func WriteTurtle(w io.Writer, doc graph.Document, namespace string) error {
	if namespace == "" {
		namespace = graph.DefaultNamespace
	}

	label, err := rdf.NewIRI(graph.RDFSLabel)
	if err != nil {
		return fmt.Errorf("building label predicate: %w", err)
	}
	typ, err := rdf.NewIRI(graph.RDFType)
	if err != nil {
		return fmt.Errorf("building type predicate: %w", err)
	}
	typeObjects := map[graph.NodeType]string{
		graph.NodeClass:    graph.RDFSClass,
		graph.NodeProperty: graph.RDFProperty,
	}

	typed := make(map[string]bool)
	for _, l := range doc.Links {
		if graph.ExpandName(l.Predicate) == graph.RDFType {
			typed[l.Source] = true
		}
	}

	enc := rdf.NewTripleEncoder(w, rdf.Turtle)

	for _, n := range doc.Nodes {
		subj, err := resourceTerm(n.ID, namespace)
		if err != nil {
			return err
		}
		lit, err := rdf.NewLiteral(n.Label)
		if err != nil {
			return fmt.Errorf("building label for %s: %w", n.ID, err)
		}
		if err := enc.Encode(rdf.Triple{Subj: subj, Pred: label, Obj: lit}); err != nil {
			return fmt.Errorf("encoding label of %s: %w", n.ID, err)
		}

		if class, ok := typeObjects[n.Type]; ok && !typed[n.ID] {
			obj, err := rdf.NewIRI(class)
			if err != nil {
				return fmt.Errorf("building type for %s: %w", n.ID, err)
			}
			if err := enc.Encode(rdf.Triple{Subj: subj, Pred: typ, Obj: obj}); err != nil {
				return fmt.Errorf("encoding type of %s: %w", n.ID, err)
			}
		}
	}

	for _, l := range doc.Links {
		subj, err := resourceTerm(l.Source, namespace)
		if err != nil {
			return err
		}
		obj, err := resourceTerm(l.Target, namespace)
		if err != nil {
			return err
		}
		pred, err := rdf.NewIRI(qualify(graph.ExpandName(l.Predicate), namespace))
		if err != nil {
			return fmt.Errorf("building predicate %q: %w", l.Predicate, err)
		}
		if err := enc.Encode(rdf.Triple{Subj: subj, Pred: pred, Obj: obj}); err != nil {
			return fmt.Errorf("encoding link %s -> %s: %w", l.Source, l.Target, err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing turtle: %w", err)
	}
	return nil
}

// resource is a term usable on either side of a triple: an IRI or a blank node.
type resource interface {
	rdf.Subject
	rdf.Object
}

// resourceTerm converts a node id into a subject/object term.
func resourceTerm(id, namespace string) (resource, error) {
	if strings.HasPrefix(id, "_:") {
		b, err := rdf.NewBlank(strings.TrimPrefix(id, "_:"))
		if err != nil {
			return nil, fmt.Errorf("building blank node %q: %w", id, err)
		}
		return b, nil
	}
	iri, err := rdf.NewIRI(qualify(id, namespace))
	if err != nil {
		return nil, fmt.Errorf("building IRI for %q: %w", id, err)
	}
	return iri, nil
}

func qualify(id, namespace string) string {
	if graph.IsQualified(id) {
		return id
	}
	return namespace + graph.Slug(id)
}
