// Package schemas embeds the JSON Schemas of the files the CLI reads.
package schemas

import _ "embed"

// Annotations is the schema of an annotated document file.
//
//go:embed annotations.schema.json
var Annotations []byte
