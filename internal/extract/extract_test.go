package extract

import (
	"reflect"
	"testing"
)

const fullInvoice = `INVOICE

Invoice No: INV-2024-031
Date: 15/03/2024

Bill To:
Acme Events Ltd
42 Festival Way
Brighton BN1 1AA

Description:
Wedding band performance £450.00
Sound engineering setup £150.00

Total: £600.00
`

func TestExtractFullInvoice(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	r := e.Extract(fullInvoice, "invoice_031.pdf")

	if r.InvoiceNumber != "INV-2024-031" {
		t.Errorf("InvoiceNumber = %q", r.InvoiceNumber)
	}
	if r.InvoiceDate != "15/03/2024" {
		t.Errorf("InvoiceDate = %q", r.InvoiceDate)
	}
	if r.InvoiceAmount != "£600.00" {
		t.Errorf("InvoiceAmount = %q", r.InvoiceAmount)
	}
	if r.ClientName != "Acme Events Ltd" {
		t.Errorf("ClientName = %q", r.ClientName)
	}
	if len(r.Services) != 2 {
		t.Errorf("Services = %+v, want 2", r.Services)
	}
	if r.SourceFile != "invoice_031.pdf" {
		t.Errorf("SourceFile = %q", r.SourceFile)
	}
	if r.FullText != fullInvoice {
		t.Error("FullText not preserved verbatim")
	}
}

func TestExtractIsPure(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	a := e.Extract(fullInvoice, "invoice_031.pdf")
	b := e.Extract(fullInvoice, "invoice_031.pdf")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different records:\n%+v\n%+v", a, b)
	}
}

func TestRecordID(t *testing.T) {
	tests := []struct {
		client string
		invNo  string
		want   string
	}{
		{"ALR Music Ltd", "INV-001", "ALR_Music_Ltd_INV-001"},
		{"Acme", "42", "Acme_42"},
		{"", Unknown, "_unknown"},
	}
	for _, tt := range tests {
		r := &Record{ClientName: tt.client, InvoiceNumber: tt.invNo}
		if got := r.ID(); got != tt.want {
			t.Errorf("ID() = %q, want %q", got, tt.want)
		}
	}
}

func TestUnknownFieldsFromEmptyText(t *testing.T) {
	e := NewExtractor(Config{
		KnownClients:  []KnownClient{},
		NameOverrides: []NameOverride{},
	})
	r := e.Extract("blank page", "empty.pdf")
	if r.InvoiceNumber != Unknown || r.InvoiceDate != Unknown || r.InvoiceAmount != Unknown {
		t.Errorf("fields = %q/%q/%q, want unknown sentinels",
			r.InvoiceNumber, r.InvoiceDate, r.InvoiceAmount)
	}
	if r.ClientName != "" {
		t.Errorf("ClientName = %q, want empty", r.ClientName)
	}
	if r.ClientAddress != Unknown {
		t.Errorf("ClientAddress = %q, want unknown", r.ClientAddress)
	}
}
