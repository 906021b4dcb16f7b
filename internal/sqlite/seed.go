package sqlite

import _ "embed"

// seedCatalog is loaded when the data directory has no exercises.jsonl.
//
//go:embed seed/catalog.jsonl
var seedCatalog []byte
