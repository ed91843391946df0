package store

import (
	"database/sql"
	"fmt"
)

// migrate applies the schema. Statements are idempotent so migration can be
// re-run safely on an existing database.
func migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS invoices (
			id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL DEFAULT '',
			client_address TEXT NOT NULL DEFAULT '',
			invoice_number TEXT NOT NULL DEFAULT '',
			invoice_date TEXT NOT NULL DEFAULT '',
			invoice_amount TEXT NOT NULL DEFAULT '',
			services TEXT NOT NULL DEFAULT '[]',
			extra TEXT NOT NULL DEFAULT '{}',
			source_file TEXT NOT NULL DEFAULT '',
			full_text TEXT NOT NULL DEFAULT '',
			imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_client_name ON invoices(client_name)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_invoice_number ON invoices(invoice_number)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			invoice_id TEXT PRIMARY KEY,
			vector BLOB NOT NULL,
			dimensions INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
