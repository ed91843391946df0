package extract

import "testing"

func TestExtractInvoiceNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled full", "Invoice Number: INV-2024-001", "INV-2024-001"},
		{"labelled no", "Invoice No: 4412", "4412"},
		{"hash", "Invoice #: GL-88", "GL-88"},
		{"bare inv", "INV 2024-07", "2024-07"},
		{"hash only", "# 998 due on receipt", "998"},
		{"slash in number", "Invoice No: 2024/031", "2024/031"},
		{"none", "completely blank text", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractInvoiceNumber(tt.text); got != tt.want {
				t.Errorf("ExtractInvoiceNumber(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractInvoiceDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled numeric", "Invoice Date: 15/03/2024", "15/03/2024"},
		{"date label", "Date: 1-2-24", "1-2-24"},
		{"dated month name", "Dated 5 March 2024", "5 March 2024"},
		{"bare date anywhere", "performed on 12/06/23 at the venue", "12/06/23"},
		{"format preserved", "Date: 03/15/2024", "03/15/2024"},
		{"none", "nothing here", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractInvoiceDate(tt.text); got != tt.want {
				t.Errorf("ExtractInvoiceDate(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractInvoiceAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"pound total", "Total: £450.00", "£450.00"},
		{"comma stripped", "Total due £1,250.00", "£1250.00"},
		{"dollar total", "Total due $99.50", "$99.50"},
		{"euro symbol", "Fee of EUR 50.00 payable", "€50.00"},
		{"bare total defaults pound", "Amount due 320.00", "£320.00"},
		{"bottom-up keyword line", "Line items above\nTotal for services rendered 500.00", "£500.00"},
		{"none", "no money mentioned", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractInvoiceAmount(tt.text); got != tt.want {
				t.Errorf("ExtractInvoiceAmount(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractInvoiceAmountPrefersLabelledOverBare(t *testing.T) {
	text := "Deposit £100.00 received\nTotal: £450.00"
	got := ExtractInvoiceAmount(text)
	if got != "£450.00" {
		t.Fatalf("got %q, want the labelled total £450.00", got)
	}
}
