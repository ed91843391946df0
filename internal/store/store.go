// Package store provides the SQLite storage layer for gigledger.
//
// All invoice data lives in a single SQLite database file, including:
// - Normalized invoice records keyed by client + invoice number
// - Manually-entered client records with contact fields
// - Embedding vectors for best-effort similarity retrieval
//
// Field-exact fuzzy matching on client_name (Search) is authoritative for
// lookups; vector similarity (SearchSimilar) is a secondary channel.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/dadekugbe/gigledger/internal/extract"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.gigledger/gigledger.db"

// NA is the sentinel used on manual client records that carry no invoice.
const NA = "N/A"

// MatchResult holds one fuzzy-match hit with its heuristic score in [0,1].
type MatchResult struct {
	Record *extract.Record
	Score  float64
}

// SimilarResult holds one vector-similarity hit.
type SimilarResult struct {
	Record     *extract.Record
	Similarity float64
}

// UpdateResult reports the outcome of a client mutation. A missing target is
// a structured failure, never an error.
type UpdateResult struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	ClientName    string         `json:"client_name,omitempty"`
	UpdatedFields map[string]any `json:"updated_fields,omitempty"`
}

// ClientProfile is the aggregated view of all records sharing a client name.
type ClientProfile struct {
	Name          string
	Address       string
	InvoiceCount  int
	LatestInvoice string
}

// Stats holds observability counters for the store.
type Stats struct {
	InvoiceCount   int64
	ClientCount    int64
	EmbeddingCount int64
	DBSizeBytes    int64
}

// Config holds configuration for NewStore.
type Config struct {
	DBPath string
	// OwnerExcludes lists the invoice issuer's own contact details, removed
	// from client listings. Defaults to the extraction package's table plus
	// the issuer's postal code variants.
	OwnerExcludes []string
}

// Store defines the record store and fuzzy matcher.
type Store interface {
	// Records
	Put(ctx context.Context, r *extract.Record) (string, error)
	Get(ctx context.Context, id string) (*extract.Record, error)
	List(ctx context.Context) ([]*extract.Record, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (int64, error)

	// Fuzzy client lookup (authoritative)
	Search(ctx context.Context, query string, limit int) ([]*MatchResult, error)

	// Client mutations and profile view
	UpdateClient(ctx context.Context, clientName string, updates map[string]any) (*UpdateResult, error)
	AddClient(ctx context.Context, clientName string, info map[string]any) (*UpdateResult, error)
	GetClientDetails(ctx context.Context, clientName string) (*extract.Record, error)
	ListClients(ctx context.Context) ([]*ClientProfile, error)

	// Embeddings (best-effort secondary channel)
	AddEmbedding(ctx context.Context, invoiceID string, vector []float32) error
	GetEmbedding(ctx context.Context, invoiceID string) ([]float32, error)
	SearchSimilar(ctx context.Context, query []float32, limit int) ([]*SimilarResult, error)

	// Observability and maintenance
	Stats(ctx context.Context) (*Stats, error)
	Vacuum(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db            *sql.DB
	dbPath        string
	ownerExcludes []string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
//
// Opening runs migrations; if they fail the connection is reopened and
// migration retried once before the error is surfaced as fatal.
func NewStore(cfg Config) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}
	if cfg.OwnerExcludes == nil {
		cfg.OwnerExcludes = defaultOwnerExcludes()
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := openAndMigrate(cfg.DBPath)
	if err != nil {
		// One get-or-create recovery attempt before giving up.
		db, err = openAndMigrate(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening store after recovery attempt: %w", err)
		}
	}

	return &SQLiteStore{
		db:            db,
		dbPath:        cfg.DBPath,
		ownerExcludes: cfg.OwnerExcludes,
	}, nil
}

func openAndMigrate(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only — never auto-vacuum.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Stats returns record, client and embedding counts plus file size.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices").Scan(&st.InvoiceCount); err != nil {
		return nil, fmt.Errorf("counting invoices: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT client_name) FROM invoices WHERE client_name != '' AND client_name != 'unknown'",
	).Scan(&st.ClientCount); err != nil {
		return nil, fmt.Errorf("counting clients: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&st.EmbeddingCount); err != nil {
		return nil, fmt.Errorf("counting embeddings: %w", err)
	}
	if s.dbPath != ":memory:" {
		if fi, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = fi.Size()
		}
	}
	return st, nil
}

func defaultOwnerExcludes() []string {
	excludes := extract.DefaultConfig().OwnerExcludes
	return append(excludes, "se38un", "se3 8un")
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
