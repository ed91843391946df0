package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dadekugbe/gigledger/internal/extract"
)

// Put stores a record under its composite ID, overwriting any existing record
// with the same ID. Returns the ID under which the record was stored.
func (s *SQLiteStore) Put(ctx context.Context, r *extract.Record) (string, error) {
	return s.putWithID(ctx, r.ID(), r)
}

// putWithID stores a record under an explicit ID. Manual client entries use
// IDs that do not follow the client_invoiceNumber convention.
func (s *SQLiteStore) putWithID(ctx context.Context, id string, r *extract.Record) (string, error) {
	services, err := marshalServices(r.Services)
	if err != nil {
		return "", fmt.Errorf("encoding services: %w", err)
	}
	extra, err := marshalExtra(r.Extra)
	if err != nil {
		return "", fmt.Errorf("encoding extra fields: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, client_name, client_address, invoice_number,
			invoice_date, invoice_amount, services, extra, source_file, full_text,
			imported_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_name = excluded.client_name,
			client_address = excluded.client_address,
			invoice_number = excluded.invoice_number,
			invoice_date = excluded.invoice_date,
			invoice_amount = excluded.invoice_amount,
			services = excluded.services,
			extra = excluded.extra,
			source_file = excluded.source_file,
			full_text = excluded.full_text,
			updated_at = excluded.updated_at`,
		id, r.ClientName, r.ClientAddress, r.InvoiceNumber,
		r.InvoiceDate, r.InvoiceAmount, services, extra, r.SourceFile, r.FullText,
		now, now)
	if err != nil {
		return "", fmt.Errorf("storing invoice %s: %w", id, err)
	}
	return id, nil
}

// Get retrieves a record by ID. Returns nil without error if absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*extract.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM invoices WHERE id = ?", id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting invoice %s: %w", id, err)
	}
	return r, nil
}

// List returns all records in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]*extract.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" FROM invoices ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var records []*extract.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Delete removes a record by ID. Deleting a missing record is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting invoice %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes all records and returns the number removed.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM invoices")
	if err != nil {
		return 0, fmt.Errorf("deleting all invoices: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted invoices: %w", err)
	}
	return int(n), nil
}

// Count returns the total number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting invoices: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT client_name, client_address, invoice_number,
	invoice_date, invoice_amount, services, extra, source_file, full_text`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*extract.Record, error) {
	var r extract.Record
	var services, extra string
	if err := row.Scan(&r.ClientName, &r.ClientAddress, &r.InvoiceNumber,
		&r.InvoiceDate, &r.InvoiceAmount, &services, &extra,
		&r.SourceFile, &r.FullText); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(services), &r.Services); err != nil {
		return nil, fmt.Errorf("decoding services: %w", err)
	}
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &r.Extra); err != nil {
			return nil, fmt.Errorf("decoding extra fields: %w", err)
		}
	}
	return &r, nil
}

func marshalServices(services []extract.Service) (string, error) {
	if services == nil {
		services = []extract.Service{}
	}
	data, err := json.Marshal(services)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalExtra(extra map[string]string) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
