package schemadoc

import _ "embed"

// SDL contains the GraphQL schema in schema definition language.
//
//go:embed schema.graphql
var SDL []byte
