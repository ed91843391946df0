package ingest

import (
	"context"
	"fmt"
	"os"
)

// TextImporter reads plain-text invoices verbatim. Mostly useful for
// invoices exported as text and for testing the pipeline without PDFs.
type TextImporter struct{}

// NewTextImporter creates a text importer.
func NewTextImporter() *TextImporter {
	return &TextImporter{}
}

// Extensions implements Importer.
func (t *TextImporter) Extensions() []string {
	return []string{".txt"}
}

// Import implements Importer.
func (t *TextImporter) Import(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
