package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InvoicesDir != "invoices" {
		t.Errorf("InvoicesDir = %q, want default", cfg.InvoicesDir)
	}
	if cfg.EmbedInitTimeoutSecs != 10 {
		t.Errorf("EmbedInitTimeoutSecs = %d, want 10", cfg.EmbedInitTimeoutSecs)
	}
	if cfg.Embed != "" {
		t.Errorf("Embed = %q, want empty (fallback)", cfg.Embed)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `db_path: /tmp/gig.db
invoices_dir: /data/invoices
embed: ollama/nomic-embed-text
known_clients:
  - name: Acme Events Ltd
    address_hint: Festival Way
    fallback_address: 42 Festival Way Brighton
owner_excludes:
  - me@example.com
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/gig.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.InvoicesDir != "/data/invoices" {
		t.Errorf("InvoicesDir = %q", cfg.InvoicesDir)
	}

	xc := cfg.ExtractConfig()
	if len(xc.KnownClients) != 1 || xc.KnownClients[0].Name != "Acme Events Ltd" {
		t.Errorf("KnownClients = %+v, want file roster", xc.KnownClients)
	}
	if xc.KnownClients[0].AddressHint != "Festival Way" {
		t.Errorf("AddressHint = %q", xc.KnownClients[0].AddressHint)
	}
	// Overrides unset in the file fall back to the built-in table.
	if len(xc.NameOverrides) == 0 {
		t.Error("NameOverrides empty, want built-in defaults")
	}
	if len(xc.OwnerExcludes) != 1 || xc.OwnerExcludes[0] != "me@example.com" {
		t.Errorf("OwnerExcludes = %v, want file value", xc.OwnerExcludes)
	}

	ec, err := cfg.EmbedConfig()
	if err != nil {
		t.Fatalf("EmbedConfig: %v", err)
	}
	if ec == nil || ec.Provider != "ollama" || ec.Model != "nomic-embed-text" {
		t.Errorf("EmbedConfig = %+v", ec)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("db_path: [unclosed"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("db_path: /tmp/file.db\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("GIGLEDGER_DB", "/tmp/env.db")
	t.Setenv("GIGLEDGER_EMBED", "openai/text-embedding-3-small")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Errorf("DBPath = %q, want env override", cfg.DBPath)
	}
	if cfg.Embed != "openai/text-embedding-3-small" {
		t.Errorf("Embed = %q, want env override", cfg.Embed)
	}
}
