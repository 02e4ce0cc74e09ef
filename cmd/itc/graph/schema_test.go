package graph

import (
	"testing"

	graphql "github.com/graph-gophers/graphql-go"
)

// TestSchemaBindsResolver type-checks the schema against the resolver:
// every query, argument and output field must have a matching Go binding.
func TestSchemaBindsResolver(t *testing.T) {
	_, err := graphql.ParseSchema(Schema, &Resolver{}, graphql.UseFieldResolvers())
	if err != nil {
		t.Fatalf("schema does not bind resolver: %v", err)
	}
}
