package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFImporter extracts text from PDF invoices page by page, preserving row
// structure so labeled fields stay on their own lines.
type PDFImporter struct{}

// NewPDFImporter creates a PDF importer.
func NewPDFImporter() *PDFImporter {
	return &PDFImporter{}
}

// Extensions implements Importer.
func (p *PDFImporter) Extensions() []string {
	return []string{".pdf"}
}

// Import implements Importer.
func (p *PDFImporter) Import(ctx context.Context, path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d of %s: %w", pageNum, path, err)
		}
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
