package extract

import (
	"strings"
	"testing"
)

func TestExtractClientInfoKnownRoster(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	text := `INVOICE 2024-01
Performance for ALR Music Ltd
36 Lexington Street
London W1F 0LB
Total: £450.00`

	info := e.ExtractClientInfo(text)
	if info.Name != "ALR Music Ltd" {
		t.Errorf("Name = %q, want ALR Music Ltd", info.Name)
	}
	if !strings.Contains(info.Address, "Lexington Street") {
		t.Errorf("Address = %q, want Lexington Street line", info.Address)
	}
}

func TestExtractClientInfoRosterFallbackAddress(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	// No address anywhere in the document.
	info := e.ExtractClientInfo("Booking confirmed with ALR Music Ltd for Friday")
	if info.Name != "ALR Music Ltd" {
		t.Fatalf("Name = %q, want ALR Music Ltd", info.Name)
	}
	if info.Address != "36 Lexington Street London" {
		t.Errorf("Address = %q, want roster fallback", info.Address)
	}
}

func TestExtractClientInfoLabelledSection(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	text := `INVOICE

Bill To:
Acme Events Ltd
42 Festival Way
Brighton BN1 1AA

Description:
DJ set £450.00`

	info := e.ExtractClientInfo(text)
	if info.Name != "Acme Events Ltd" {
		t.Errorf("Name = %q, want Acme Events Ltd", info.Name)
	}
	if !strings.Contains(info.Address, "42 Festival Way") || !strings.Contains(info.Address, "Brighton BN1 1AA") {
		t.Errorf("Address = %q, want both address lines", info.Address)
	}
}

func TestExtractClientInfoPositional(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	text := `INVOICE 123
John Smith Events Company
10 Market Square
Leeds LS1 2AB
Total: £200.00`

	info := e.ExtractClientInfo(text)
	if info.Name != "John Smith Events Company" {
		t.Errorf("Name = %q, want John Smith Events Company", info.Name)
	}
	if !strings.Contains(info.Address, "10 Market Square") {
		t.Errorf("Address = %q, want street line", info.Address)
	}
}

func TestExtractClientInfoOverrides(t *testing.T) {
	// Empty roster so the override stage is reachable.
	e := NewExtractor(Config{
		KnownClients:  []KnownClient{},
		NameOverrides: DefaultConfig().NameOverrides,
	})

	text := `Invoice 99887766
UTR: 9876543210
Payment
Warner Music`

	info := e.ExtractClientInfo(text)
	if info.Name != "Warner Music UK LTD" {
		t.Errorf("Name = %q, want override Warner Music UK LTD", info.Name)
	}
}

func TestExtractClientInfoCleansName(t *testing.T) {
	e := NewExtractor(Config{
		KnownClients:  []KnownClient{},
		NameOverrides: []NameOverride{},
	})

	text := `Bill To:
Acme Ltd UTR: 1234567890
42 Festival Way
Brighton BN1 1AA`

	info := e.ExtractClientInfo(text)
	if info.Name != "Acme Ltd" {
		t.Errorf("Name = %q, want tax reference stripped", info.Name)
	}
}

func TestExtractClientInfoUnresolved(t *testing.T) {
	e := NewExtractor(Config{
		KnownClients:  []KnownClient{},
		NameOverrides: []NameOverride{},
	})

	info := e.ExtractClientInfo("x\ny")
	if info.Name != "" {
		t.Errorf("Name = %q, want empty when unresolved", info.Name)
	}
	if info.Address != Unknown {
		t.Errorf("Address = %q, want %q", info.Address, Unknown)
	}
}
