package ingestion

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"
)

// Format identifies an ontology file format.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatJSON     Format = "json"
)

// Supported file extensions and their formats.
var supportedExtensions = map[string]Format{
	".ttl":    FormatTurtle,
	".turtle": FormatTurtle,
	".nt":     FormatNTriples,
	".json":   FormatJSON,
}

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "nt", "n-triples":
		return FormatNTriples, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// DetectFormat returns the format implied by a file extension.
func DetectFormat(path string) (Format, error) {
	if f, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported ontology file %q", filepath.Base(path))
}

// TermKind tags the variant held by a Term.
type TermKind int

const (
	TermIRI TermKind = iota
	TermBlank
	TermLiteral
)

func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlank:
		return "blank"
	case TermLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is one position of a parsed triple.
type Term struct {
	Kind TermKind

	// Value is the IRI, the "_:"-prefixed blank node label, or the
	// lexical form of a literal.
	Value string
}

// IsResource reports whether the term can become a graph node.
func (t Term) IsResource() bool {
	return t.Kind == TermIRI || t.Kind == TermBlank
}

// ErrLiteralObject is returned by Triple.Validate for literal-valued triples.
var ErrLiteralObject = errors.New("triple object is a literal")

// Triple is a parsed subject/predicate/object record.
type Triple struct {
	Subject   Term
	Predicate string
	Object    Term
}

// Validate rejects triples that cannot be represented as a link between
// two nodes.
func (t Triple) Validate() error {
	if !t.Subject.IsResource() {
		return fmt.Errorf("subject %q is not a resource", t.Subject.Value)
	}
	if t.Object.Kind == TermLiteral {
		return fmt.Errorf("%w: %s %s %q", ErrLiteralObject, t.Subject.Value, t.Predicate, t.Object.Value)
	}
	if t.Predicate == "" {
		return errors.New("triple has an empty predicate")
	}
	return nil
}

// ParseTriples decodes Turtle or N-Triples text into triples.
func ParseTriples(r io.Reader, format Format) ([]Triple, error) {
	var rdfFormat rdf.Format
	switch format {
	case FormatTurtle:
		rdfFormat = rdf.Turtle
	case FormatNTriples:
		rdfFormat = rdf.NTriples
	default:
		return nil, fmt.Errorf("format %q does not carry triples", format)
	}

	dec := rdf.NewTripleDecoder(r, rdfFormat)
	var triples []Triple
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding triples: %w", err)
		}
		triples = append(triples, Triple{
			Subject:   convertTerm(tr.Subj),
			Predicate: tr.Pred.String(),
			Object:    convertTerm(tr.Obj),
		})
	}
	return triples, nil
}

func convertTerm(t rdf.Term) Term {
	switch t.Type() {
	case rdf.TermIRI:
		return Term{Kind: TermIRI, Value: t.String()}
	case rdf.TermBlank:
		return Term{Kind: TermBlank, Value: "_:" + strings.TrimPrefix(t.String(), "_:")}
	default:
		return Term{Kind: TermLiteral, Value: t.String()}
	}
}
