// Package extract provides heuristic invoice extraction for gigledger.
//
// The extraction pipeline identifies structured invoice data from raw
// PDF-derived text without requiring an LLM or external API:
// - Invoice number, date and amount (ordered regex pattern tables)
// - Client name and address (section labels, positional heuristics, roster)
// - Billable service lines with price validation
//
// All extractors are pure functions over text: the same input always yields
// the same record, fields that cannot be resolved come back as the "unknown"
// sentinel, and nothing here ever returns an error.
package extract

import "strings"

// Unknown is the sentinel for a field no pattern could resolve.
// It is distinct from the empty string, which means "unresolved name".
const Unknown = "unknown"

// Service is one billable line item from an invoice.
type Service struct {
	Name  string `json:"service_name"`
	Price string `json:"service_price"`
}

// Record is the normalized representation of one invoice's extracted fields.
// Once stored it is only changed through an explicit update.
type Record struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	InvoiceAmount string `json:"invoice_amount"`
	ClientName    string `json:"client_name"`
	ClientAddress string `json:"client_address"`

	// Services preserves document order; duplicates by name are suppressed.
	Services []Service `json:"services"`

	SourceFile string `json:"source_file"`
	FullText   string `json:"full_text,omitempty"`

	// Extra carries manually-entered contact fields (email, phone, notes)
	// that never appear in invoice text.
	Extra map[string]string `json:"extra,omitempty"`
}

// ID derives the store key for the record: client name and invoice number
// joined by an underscore, with spaces replaced.
func (r *Record) ID() string {
	return strings.ReplaceAll(r.ClientName+"_"+r.InvoiceNumber, " ", "_")
}

// KnownClient is one entry of the known-entity roster: a client name seen on
// previous invoices, checked before any other identity heuristic.
type KnownClient struct {
	// Name is matched against the text as a whole word, case-insensitively.
	Name string `yaml:"name"`
	// AddressHint is a distinctive substring of the client's address,
	// searched for when no address lines were collected near the name.
	AddressHint string `yaml:"address_hint,omitempty"`
	// FallbackAddress is used only when no address is found at all.
	FallbackAddress string `yaml:"fallback_address,omitempty"`
}

// NameOverride is a last-resort identity assignment: when no heuristic found
// a client name but Match appears anywhere in the text, Name is used.
type NameOverride struct {
	Match string `yaml:"match"`
	Name  string `yaml:"name"`
}

// Config holds the reference data the resolver and service extractor consult.
type Config struct {
	KnownClients  []KnownClient  `yaml:"known_clients"`
	NameOverrides []NameOverride `yaml:"name_overrides"`
	// OwnerExcludes lists the invoice issuer's own contact details; lines
	// containing any of them are never treated as client or service data.
	OwnerExcludes []string `yaml:"owner_excludes"`
}

// DefaultConfig returns the built-in roster and exclusion tables.
func DefaultConfig() Config {
	return Config{
		KnownClients: []KnownClient{
			{Name: "ALR Music Ltd", AddressHint: "Lexington Street", FallbackAddress: "36 Lexington Street London"},
			{Name: "ALR Music"},
			{Name: "Warner Music UK LTD"},
			{Name: "Warner Music"},
			{Name: "The Peninsula"},
			{Name: "Peninsula"},
			{Name: "Park Chinois"},
			{Name: "Sky Garden"},
			{Name: "Quaglinos"},
			{Name: "100 Wardour Street"},
			{Name: "Maison Eselle"},
			{Name: "Maison Estelle"},
		},
		NameOverrides: []NameOverride{
			{Match: "ALR Music Ltd", Name: "ALR Music Ltd"},
			{Match: "Warner Music", Name: "Warner Music UK LTD"},
		},
		OwnerExcludes: []string{
			"277 shooters hill road",
			"07946670601",
			"dadekugbe@gmail.com",
		},
	}
}

// Extractor runs the full pipeline: field extractors, client identity
// resolver and service line extractor, merged into one Record.
type Extractor struct {
	cfg Config
}

// NewExtractor creates an extractor. Empty Config tables fall back to the
// built-in defaults.
func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.KnownClients == nil {
		cfg.KnownClients = def.KnownClients
	}
	if cfg.NameOverrides == nil {
		cfg.NameOverrides = def.NameOverrides
	}
	if cfg.OwnerExcludes == nil {
		cfg.OwnerExcludes = def.OwnerExcludes
	}
	return &Extractor{cfg: cfg}
}

// Extract runs every extractor over the text and assembles the record.
// sourceFile is kept for provenance; the text is retained verbatim for
// re-indexing and debugging.
func (e *Extractor) Extract(text, sourceFile string) *Record {
	client := e.ExtractClientInfo(text)
	return &Record{
		InvoiceNumber: ExtractInvoiceNumber(text),
		InvoiceDate:   ExtractInvoiceDate(text),
		InvoiceAmount: ExtractInvoiceAmount(text),
		ClientName:    client.Name,
		ClientAddress: client.Address,
		Services:      e.ExtractServices(text),
		SourceFile:    sourceFile,
		FullText:      text,
	}
}

// splitLines returns the trimmed, non-empty lines of text. Every line-wise
// heuristic in this package works on this view.
func splitLines(text string) []string {
	raw := strings.Split(strings.TrimSpace(text), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
