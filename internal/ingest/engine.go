package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dadekugbe/gigledger/internal/embed"
	"github.com/dadekugbe/gigledger/internal/extract"
	"github.com/dadekugbe/gigledger/internal/store"
)

// Engine runs the invoice ingestion pipeline.
type Engine struct {
	store     store.Store
	embedder  embed.Embedder
	extractor *extract.Extractor
	importers map[string]Importer
	logger    *slog.Logger
}

// NewEngine creates an Engine with the default PDF and text importers.
func NewEngine(s store.Store, e embed.Embedder, x *extract.Extractor) *Engine {
	eng := &Engine{
		store:     s,
		embedder:  e,
		extractor: x,
		importers: make(map[string]Importer),
		logger:    slog.Default(),
	}
	eng.Register(NewPDFImporter())
	eng.Register(NewTextImporter())
	return eng
}

// Register adds an importer, replacing any existing handler for its
// extensions.
func (e *Engine) Register(imp Importer) {
	for _, ext := range imp.Extensions() {
		e.importers[ext] = imp
	}
}

// ProcessFile ingests a single invoice file. Embedding failure is logged
// and reported on the Result, never returned as an error.
func (e *Engine) ProcessFile(ctx context.Context, path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	imp, ok := e.importers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	text, err := imp.Import(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}

	record := e.extractor.Extract(text, filepath.Base(path))
	id, err := e.store.Put(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("storing %s: %w", path, err)
	}

	result := &Result{ID: id, Record: record}
	if e.embedder != nil {
		if err := e.addEmbedding(ctx, id, record.FullText); err != nil {
			e.logger.Warn("embedding failed, record stored without vector",
				"id", id, "error", err)
		} else {
			result.Embedded = true
		}
	}

	e.logger.Info("processed invoice",
		"file", filepath.Base(path),
		"id", id,
		"client", record.ClientName,
		"amount", record.InvoiceAmount)
	return result, nil
}

func (e *Engine) addEmbedding(ctx context.Context, id, text string) error {
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	return e.store.AddEmbedding(ctx, id, vec)
}

// ProcessDirectory ingests every supported file in dir, in name order.
// Individual file failures are logged and counted; the run continues.
func (e *Engine) ProcessDirectory(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := e.importers[ext]; ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	summary := &Summary{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result, err := e.ProcessFile(ctx, path)
		if err != nil {
			e.logger.Error("skipping file", "file", filepath.Base(path), "error", err)
			summary.Failed++
			continue
		}
		summary.Processed++
		summary.IDs = append(summary.IDs, result.ID)
	}

	e.logger.Info("directory processed",
		"dir", dir, "processed", summary.Processed, "failed", summary.Failed)
	return summary, nil
}

// ReprocessAll clears the store and re-ingests the directory from scratch.
// Used after extraction rule changes so all records reflect current logic.
func (e *Engine) ReprocessAll(ctx context.Context, dir string) (*Summary, error) {
	removed, err := e.store.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("clearing store: %w", err)
	}
	e.logger.Info("cleared existing records", "removed", removed)
	return e.ProcessDirectory(ctx, dir)
}
