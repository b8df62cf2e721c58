// Ontotree - ontology graph store with tree projection.
//
// Ontotree imports RDF/OWL ontologies into a persistent graph of classes,
// properties and literals, and projects that graph into a single-rooted
// tree for browsing, editing and export.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/ontotree/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
