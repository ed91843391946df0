package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dadekugbe/gigledger/internal/embed"
	"github.com/dadekugbe/gigledger/internal/extract"
	"github.com/dadekugbe/gigledger/internal/store"
)

const sampleInvoice = `INVOICE

Invoice No: INV-2024-001
Date: 15/03/2024

Bill To:
Acme Events Ltd
42 Festival Way
Brighton BN1 1AA

Description:
DJ performance Saturday night £450.00
Lighting package £120.00

Total: £570.00
`

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	s, err := store.NewStore(store.Config{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	eng := NewEngine(s, embed.NewFallback(32), extract.NewExtractor(extract.DefaultConfig()))
	return eng, s
}

func writeInvoice(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestProcessFile(t *testing.T) {
	eng, s := newTestEngine(t)
	dir := t.TempDir()
	path := writeInvoice(t, dir, "invoice.txt", sampleInvoice)

	result, err := eng.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.Record.InvoiceNumber != "INV-2024-001" {
		t.Errorf("invoice number = %q, want INV-2024-001", result.Record.InvoiceNumber)
	}
	if result.Record.ClientName != "Acme Events Ltd" {
		t.Errorf("client = %q, want Acme Events Ltd", result.Record.ClientName)
	}
	if !result.Embedded {
		t.Error("expected embedding to be stored")
	}

	stored, err := s.Get(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored == nil {
		t.Fatal("record not persisted")
	}
	vec, err := s.GetEmbedding(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("GetEmbedding: %v", err)
	}
	if len(vec) != 32 {
		t.Errorf("embedding dims = %d, want 32", len(vec))
	}
}

func TestProcessFileUnsupportedType(t *testing.T) {
	eng, _ := newTestEngine(t)
	dir := t.TempDir()
	path := writeInvoice(t, dir, "invoice.docx", "not supported")

	if _, err := eng.ProcessFile(context.Background(), path); err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestProcessDirectory(t *testing.T) {
	eng, s := newTestEngine(t)
	dir := t.TempDir()
	writeInvoice(t, dir, "a.txt", sampleInvoice)
	writeInvoice(t, dir, "b.txt", "Invoice #: INV-002\nBill To:\nOther Client Ltd\n")
	writeInvoice(t, dir, "notes.md", "ignored")

	summary, err := eng.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory: %v", err)
	}
	if summary.Processed != 2 {
		t.Errorf("Processed = %d, want 2", summary.Processed)
	}
	if summary.Failed != 0 {
		t.Errorf("Failed = %d, want 0", summary.Failed)
	}

	n, _ := s.Count(context.Background())
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestProcessDirectoryIdempotent(t *testing.T) {
	eng, s := newTestEngine(t)
	dir := t.TempDir()
	writeInvoice(t, dir, "a.txt", sampleInvoice)

	ctx := context.Background()
	if _, err := eng.ProcessDirectory(ctx, dir); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := eng.ProcessDirectory(ctx, dir); err != nil {
		t.Fatalf("second run: %v", err)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d after two runs, want 1 (same id overwritten)", n)
	}
}

func TestReprocessAll(t *testing.T) {
	eng, s := newTestEngine(t)
	dir := t.TempDir()
	writeInvoice(t, dir, "a.txt", sampleInvoice)

	ctx := context.Background()

	// Seed a stale record that the directory no longer contains.
	stale := &extract.Record{
		ClientName:    "Gone Client",
		InvoiceNumber: "OLD-1",
		InvoiceDate:   "01/01/2020",
		InvoiceAmount: "£10.00",
	}
	if _, err := s.Put(ctx, stale); err != nil {
		t.Fatalf("Put: %v", err)
	}

	summary, err := eng.ReprocessAll(ctx, dir)
	if err != nil {
		t.Fatalf("ReprocessAll: %v", err)
	}
	if summary.Processed != 1 {
		t.Errorf("Processed = %d, want 1", summary.Processed)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1 (stale record removed)", n)
	}
	got, _ := s.Get(ctx, stale.ID())
	if got != nil {
		t.Error("stale record survived ReprocessAll")
	}
}
