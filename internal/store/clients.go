package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dadekugbe/gigledger/internal/extract"
)

// recordColumns are the update keys stored as dedicated columns. Anything
// else lands in the extra JSON blob.
var recordColumns = map[string]bool{
	"client_name":    true,
	"client_address": true,
	"invoice_number": true,
	"invoice_date":   true,
	"invoice_amount": true,
	"source_file":    true,
	"full_text":      true,
}

// UpdateClient fuzzy-resolves clientName to a stored client and merges the
// given fields into its best-matching record. A miss is reported as an
// unsuccessful result, not an error.
func (s *SQLiteStore) UpdateClient(ctx context.Context, clientName string, updates map[string]any) (*UpdateResult, error) {
	results, err := s.Search(ctx, clientName, 5)
	if err != nil {
		return nil, fmt.Errorf("resolving client %q: %w", clientName, err)
	}
	if len(results) == 0 {
		return &UpdateResult{
			Success: false,
			Message: fmt.Sprintf("no client found matching %q", clientName),
		}, nil
	}
	matched := results[0].Record.ClientName

	var id string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM invoices WHERE client_name = ? ORDER BY rowid LIMIT 1", matched,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("locating record for %q: %w", matched, err)
	}

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for key, value := range updates {
		switch key {
		case "client_name":
			record.ClientName = stringify(value)
		case "client_address", "address":
			record.ClientAddress = stringify(value)
		case "invoice_number":
			record.InvoiceNumber = stringify(value)
		case "invoice_date":
			record.InvoiceDate = stringify(value)
		case "invoice_amount":
			record.InvoiceAmount = stringify(value)
		case "source_file":
			record.SourceFile = stringify(value)
		case "full_text":
			record.FullText = stringify(value)
		case "services":
			svcs, err := coerceServices(value)
			if err != nil {
				return nil, fmt.Errorf("updating services for %q: %w", matched, err)
			}
			record.Services = svcs
		default:
			if record.Extra == nil {
				record.Extra = make(map[string]string)
			}
			record.Extra[key] = stringify(value)
		}
	}

	if _, err := s.putWithID(ctx, id, record); err != nil {
		return nil, fmt.Errorf("saving update for %q: %w", matched, err)
	}

	return &UpdateResult{
		Success:       true,
		Message:       fmt.Sprintf("updated %d field(s) for %s", len(updates), matched),
		ClientName:    matched,
		UpdatedFields: updates,
	}, nil
}

// AddClient registers a client. If the name fuzzy-matches an existing client
// the call degrades to an update; otherwise a manual record is created with
// N/A invoice fields.
func (s *SQLiteStore) AddClient(ctx context.Context, clientName string, info map[string]any) (*UpdateResult, error) {
	results, err := s.Search(ctx, clientName, 1)
	if err != nil {
		return nil, fmt.Errorf("checking for existing client %q: %w", clientName, err)
	}
	if len(results) > 0 {
		return s.UpdateClient(ctx, results[0].Record.ClientName, info)
	}

	address := NA
	if v, ok := info["address"]; ok {
		address = stringify(v)
	} else if v, ok := info["client_address"]; ok {
		address = stringify(v)
	}

	record := &extract.Record{
		ClientName:    clientName,
		ClientAddress: address,
		InvoiceNumber: NA,
		InvoiceDate:   NA,
		InvoiceAmount: NA,
		Services:      []extract.Service{},
		SourceFile:    "manual_entry",
	}
	for key, value := range info {
		if key == "address" || key == "client_address" {
			continue
		}
		if record.Extra == nil {
			record.Extra = make(map[string]string)
		}
		record.Extra[key] = stringify(value)
	}
	record.FullText = manualClientText(record)

	id := strings.ReplaceAll(clientName, " ", "_") + "_manual"
	if _, err := s.putWithID(ctx, id, record); err != nil {
		return nil, fmt.Errorf("adding client %q: %w", clientName, err)
	}

	return &UpdateResult{
		Success:       true,
		Message:       fmt.Sprintf("added new client %s", clientName),
		ClientName:    clientName,
		UpdatedFields: info,
	}, nil
}

// GetClientDetails returns the best-matching record for a client name, or
// nil if no client matches.
func (s *SQLiteStore) GetClientDetails(ctx context.Context, clientName string) (*extract.Record, error) {
	results, err := s.Search(ctx, clientName, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0].Record, nil
}

var (
	allDigitsRE   = regexp.MustCompile(`^\d+$`)
	dateNameRE    = regexp.MustCompile(`^\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}$`)
	fragmentRE    = regexp.MustCompile(`^(and\b|as\b|ul\.|description|invoice|expenses|purchase|po:)`)
	addressNameRE = regexp.MustCompile(`^\d+\s+\w+.*\b(road|street|avenue|lane|grove|hill|park|gardens?)\b`)
	phoneRE       = regexp.MustCompile(`\b07\d{9}\b`)
	emailRE       = regexp.MustCompile(`\S+@\S+\.\S+`)
	spaceRunRE    = regexp.MustCompile(`\s+`)
	doubleCommaRE = regexp.MustCompile(`,\s*,`)
)

// ListClients aggregates stored records into one profile per client name,
// filtering out extraction artifacts that are not real client names and
// scrubbing issuer contact details from addresses.
func (s *SQLiteStore) ListClients(ctx context.Context) ([]*ClientProfile, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}

	profiles := make(map[string]*ClientProfile)
	var order []string
	for _, r := range records {
		name := strings.TrimSpace(r.ClientName)
		if name == "" || name == extract.Unknown || !s.validClientName(name) {
			continue
		}
		p, ok := profiles[name]
		if !ok {
			p = &ClientProfile{Name: name}
			profiles[name] = p
			order = append(order, name)
		}
		p.InvoiceCount++
		if p.Address == "" {
			p.Address = s.cleanClientAddress(r.ClientAddress)
		}
		if d := r.InvoiceDate; d != "" && d != extract.Unknown && d != NA && d > p.LatestInvoice {
			p.LatestInvoice = d
		}
	}

	out := make([]*ClientProfile, 0, len(order))
	for _, name := range order {
		p := profiles[name]
		if p.Address == "" {
			p.Address = "No address available"
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// validClientName rejects names that are extraction artifacts rather than
// actual clients: bare numbers, dates, sentence fragments, street addresses
// and the issuer's own contact details.
func (s *SQLiteStore) validClientName(name string) bool {
	lower := strings.ToLower(name)
	if len(name) < 3 {
		return false
	}
	if allDigitsRE.MatchString(name) || dateNameRE.MatchString(name) {
		return false
	}
	if fragmentRE.MatchString(lower) || addressNameRE.MatchString(lower) {
		return false
	}
	for _, excl := range s.ownerExcludes {
		if strings.Contains(lower, excl) {
			// Short names that are just the issuer's own details.
			if len(strings.Fields(name)) <= 5 {
				return false
			}
		}
	}
	return true
}

// cleanClientAddress strips phone numbers, emails and the issuer's own
// details from an extracted address.
func (s *SQLiteStore) cleanClientAddress(address string) string {
	if address == "" || address == extract.Unknown || address == NA {
		return ""
	}
	cleaned := phoneRE.ReplaceAllString(address, "")
	cleaned = emailRE.ReplaceAllString(cleaned, "")
	lower := strings.ToLower(cleaned)
	for _, excl := range s.ownerExcludes {
		for {
			idx := strings.Index(lower, excl)
			if idx < 0 {
				break
			}
			cleaned = cleaned[:idx] + cleaned[idx+len(excl):]
			lower = lower[:idx] + lower[idx+len(excl):]
		}
	}
	cleaned = doubleCommaRE.ReplaceAllString(cleaned, ",")
	cleaned = spaceRunRE.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " ,")
	low := strings.ToLower(cleaned)
	if cleaned == "" || low == "london" || low == extract.Unknown {
		return ""
	}
	return cleaned
}

func manualClientText(r *extract.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s\n", r.ClientName)
	fmt.Fprintf(&b, "Address: %s\n", r.ClientAddress)
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", titleKey(k), r.Extra[k])
	}
	return b.String()
}

func titleKey(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceServices(v any) ([]extract.Service, error) {
	switch t := v.(type) {
	case []extract.Service:
		return t, nil
	case string:
		var svcs []extract.Service
		if err := json.Unmarshal([]byte(t), &svcs); err != nil {
			return nil, err
		}
		return svcs, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var svcs []extract.Service
		if err := json.Unmarshal(data, &svcs); err != nil {
			return nil, err
		}
		return svcs, nil
	}
}
