// Package main validates the GraphQL schema and prints it in canonical form.
//
// Usage:
//
//	go run ./cmd/schema > schema.graphql
package main

import (
	"flag"
	"log"
	"os"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/listenupapp/librarian/internal/graph"
)

var out = flag.String("o", "", "Write the schema to this file instead of stdout")

func main() {
	flag.Parse()

	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: graph.SDL})
	if err != nil {
		log.Fatalf("Invalid schema: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	formatter.NewFormatter(w, formatter.WithIndent("  ")).FormatSchema(schema)
}
