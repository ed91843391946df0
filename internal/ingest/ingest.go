// Package ingest turns invoice files into stored records.
//
// An Importer extracts raw text from one file format; the Engine runs the
// full pipeline: import text, extract structured fields, persist the record
// and attach a best-effort embedding.
package ingest

import (
	"context"

	"github.com/dadekugbe/gigledger/internal/extract"
)

// Importer extracts raw text from one invoice file format.
type Importer interface {
	// Extensions lists the lowercase file extensions handled, with dot.
	Extensions() []string
	// Import reads the file and returns its text content.
	Import(ctx context.Context, path string) (string, error)
}

// Result is the outcome of processing a single file.
type Result struct {
	ID       string
	Record   *extract.Record
	Embedded bool
}

// Summary aggregates a directory run.
type Summary struct {
	Processed int
	Failed    int
	IDs       []string
}
