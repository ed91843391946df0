package extract

import "testing"

func TestExtractServicesSection(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	text := `INVOICE 2024-01

Description:
Wedding band performance £450.00
Sound engineering setup £150.00
Wedding band performance £450.00

Total: £1050.00`

	services := e.ExtractServices(text)
	if len(services) != 2 {
		t.Fatalf("got %d services, want 2 (duplicate suppressed): %+v", len(services), services)
	}
	if services[0].Name != "Wedding band performance" || services[0].Price != "£450.00" {
		t.Errorf("first service = %+v", services[0])
	}
	if services[1].Name != "Sound engineering setup" || services[1].Price != "£150.00" {
		t.Errorf("second service = %+v", services[1])
	}
}

func TestExtractServicesPriceRange(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	text := `Description:
Venue hire deposit £2500.00
Piano performance evening £400.00`

	services := e.ExtractServices(text)
	if len(services) != 1 {
		t.Fatalf("got %d services, want 1 (out-of-range price dropped): %+v", len(services), services)
	}
	if services[0].Name != "Piano performance evening" {
		t.Errorf("service = %+v", services[0])
	}
}

func TestExtractServicesStoresPoundPrefix(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	text := `Description:
Corporate event quartet $350.00`

	services := e.ExtractServices(text)
	if len(services) != 1 {
		t.Fatalf("got %d services, want 1: %+v", len(services), services)
	}
	if services[0].Price != "£350.00" {
		t.Errorf("price = %q, want pound-prefixed value", services[0].Price)
	}
}

func TestExtractServicesRejectsDateLikePrices(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	text := `Description:
28.04.23 - Kate Trio - Quaglinos
Choir rehearsal session £250.00`

	services := e.ExtractServices(text)
	for _, svc := range services {
		if svc.Price == "£28.04" {
			t.Fatalf("date fragment misread as price: %+v", services)
		}
	}
	if len(services) != 1 || services[0].Name != "Choir rehearsal session" {
		t.Errorf("services = %+v, want just the rehearsal line", services)
	}
}

func TestExtractServicesFallbackRequiresServicePattern(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	// No section headers anywhere, so only the fallback pass runs.
	text := `INVOICE 55
15/03/24 Jazz Quartet Sky Garden £450.00
Random widget delivery £300.00
277 Shooters Hill Road £500.00`

	services := e.ExtractServices(text)
	if len(services) != 1 {
		t.Fatalf("got %d services, want 1: %+v", len(services), services)
	}
	if services[0].Name != "15/03/24 Jazz Quartet Sky Garden" {
		t.Errorf("service = %+v", services[0])
	}
	if services[0].Price != "£450.00" {
		t.Errorf("price = %q", services[0].Price)
	}
}

func TestExtractServicesEmpty(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	if services := e.ExtractServices("no billable lines here"); len(services) != 0 {
		t.Errorf("got %+v, want none", services)
	}
}
