package graph

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultNamespace is the namespace used for synthesized node and predicate ids.
const DefaultNamespace = "http://example.org/competencies#"

// Well-known vocabulary namespaces.
const (
	NamespaceRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NamespaceOWL  = "http://www.w3.org/2002/07/owl#"
	NamespaceXSD  = "http://www.w3.org/2001/XMLSchema#"
	NamespaceDC   = "http://purl.org/dc/elements/1.1/"
)

// Well-known vocabulary terms.
const (
	RDFType               = NamespaceRDF + "type"
	RDFProperty           = NamespaceRDF + "Property"
	RDFFirst              = NamespaceRDF + "first"
	RDFRest               = NamespaceRDF + "rest"
	RDFSClass             = NamespaceRDFS + "Class"
	RDFSResource          = NamespaceRDFS + "Resource"
	RDFSSubClassOf        = NamespaceRDFS + "subClassOf"
	RDFSDomain            = NamespaceRDFS + "domain"
	RDFSRange             = NamespaceRDFS + "range"
	RDFSLabel             = NamespaceRDFS + "label"
	OWLClass              = NamespaceOWL + "Class"
	OWLObjectProperty     = NamespaceOWL + "ObjectProperty"
	OWLDatatypeProperty   = NamespaceOWL + "DatatypeProperty"
	OWLAnnotationProperty = NamespaceOWL + "AnnotationProperty"
)

// knownPrefixes drives ShortName prefix compression.
var knownPrefixes = []struct {
	prefix    string
	namespace string
}{
	{"rdf", NamespaceRDF},
	{"rdfs", NamespaceRDFS},
	{"owl", NamespaceOWL},
	{"xsd", NamespaceXSD},
	{"dc", NamespaceDC},
}

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// IsQualified reports whether s already is a fully-qualified identifier,
// i.e. starts with a URI scheme such as "http://" or "urn:".
func IsQualified(s string) bool {
	return schemePattern.MatchString(s) || strings.HasPrefix(strings.ToLower(s), "urn:")
}

// Slug turns a free-text label into an identifier fragment. Runs of
// characters other than letters, digits, '_' and '-' collapse to one '_'.
func Slug(label string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			if pending {
				b.WriteByte('_')
				pending = false
			}
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if pending {
		b.WriteByte('_')
	}
	return b.String()
}

// LocalName returns the part of a URI after the last '#' or '/'.
// Identifiers without either separator are returned unchanged.
func LocalName(uri string) string {
	trimmed := strings.TrimRight(uri, "/#")
	if i := strings.LastIndexAny(trimmed, "#/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return uri
}

// ShortName compresses a URI for display: well-known vocabularies become
// "prefix:local", anything else is reduced to its local name.
func ShortName(uri string) string {
	for _, p := range knownPrefixes {
		if strings.HasPrefix(uri, p.namespace) && len(uri) > len(p.namespace) {
			return p.prefix + ":" + uri[len(p.namespace):]
		}
	}
	return LocalName(uri)
}

// ExpandName is the inverse of ShortName for well-known prefixes.
// Unknown or unprefixed names are returned unchanged.
func ExpandName(name string) string {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok || strings.HasPrefix(local, "//") {
		return name
	}
	for _, p := range knownPrefixes {
		if p.prefix == prefix {
			return p.namespace + local
		}
	}
	return name
}

// renamedID computes the id a node receives when relabeled: the old id up
// to and including its first '#', followed by the new label. Ids without a
// '#' are replaced by the new label verbatim.
func renamedID(oldID, newLabel string) string {
	if i := strings.Index(oldID, "#"); i >= 0 {
		return oldID[:i+1] + newLabel
	}
	return newLabel
}
