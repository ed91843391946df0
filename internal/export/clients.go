// Package export writes client summaries to CSV and XLSX files for use in
// spreadsheets and accounting handoffs.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/dadekugbe/gigledger/internal/store"
)

var clientHeader = []string{"Client Name", "Address", "Invoices", "Latest Invoice"}

// Service exports the aggregated client view from a store.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService creates an export service.
func NewService(s store.Store) *Service {
	return &Service{store: s, logger: slog.Default()}
}

// WriteCSV writes the client list as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("loading clients: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(clientHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, c := range clients {
		row := []string{c.Name, c.Address, strconv.Itoa(c.InvoiceCount), c.LatestInvoice}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", c.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	s.logger.Info("exported clients to csv", "count", len(clients))
	return nil
}

// WriteXLSX writes the client list as a single-sheet workbook.
func (s *Service) WriteXLSX(ctx context.Context, path string) error {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("loading clients: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Clients"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range clientHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("building header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, c := range clients {
		values := []any{c.Name, c.Address, c.InvoiceCount, c.LatestInvoice}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("building cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing row for %s: %w", c.Name, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}

	s.logger.Info("exported clients to xlsx", "path", path, "count", len(clients))
	return nil
}
