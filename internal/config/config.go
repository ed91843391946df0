// Package config resolves gigledger configuration from, in increasing
// priority: built-in defaults, a YAML config file, then GIGLEDGER_*
// environment variables. CLI flags are applied on top by the command layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dadekugbe/gigledger/internal/embed"
	"github.com/dadekugbe/gigledger/internal/extract"
)

// DefaultConfigPath is where the config file lives unless overridden by
// GIGLEDGER_CONFIG.
const DefaultConfigPath = "~/.gigledger/config.yaml"

// Config is the resolved application configuration.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path"`
	// InvoicesDir is the default directory scanned by process and reprocess.
	InvoicesDir string `yaml:"invoices_dir"`
	// Embed selects the embedding service as "provider/model". Empty means
	// the local deterministic fallback.
	Embed string `yaml:"embed"`
	// EmbedInitTimeoutSecs bounds the service probe at startup.
	EmbedInitTimeoutSecs int `yaml:"embed_init_timeout_secs"`

	// Client roster and issuer details used during extraction.
	KnownClients  []extract.KnownClient  `yaml:"known_clients"`
	NameOverrides []extract.NameOverride `yaml:"name_overrides"`
	OwnerExcludes []string               `yaml:"owner_excludes"`
}

// Load resolves configuration. path may be empty, in which case
// GIGLEDGER_CONFIG then the default location are consulted. A missing config
// file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("GIGLEDGER_CONFIG")
	}
	if path == "" {
		path = expandPath(DefaultConfigPath)
	} else {
		path = expandPath(path)
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DBPath:               expandPath("~/.gigledger/gigledger.db"),
		InvoicesDir:          "invoices",
		EmbedInitTimeoutSecs: 10,
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GIGLEDGER_DB"); v != "" {
		cfg.DBPath = expandPath(v)
	}
	if v := os.Getenv("GIGLEDGER_INVOICES_DIR"); v != "" {
		cfg.InvoicesDir = v
	}
	if v := os.Getenv("GIGLEDGER_EMBED"); v != "" {
		cfg.Embed = v
	}
	if v := os.Getenv("GIGLEDGER_EMBED_INIT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.EmbedInitTimeoutSecs = secs
		}
	}
}

// ExtractConfig builds the extraction configuration, falling back to the
// built-in roster for any table the file leaves unset.
func (c *Config) ExtractConfig() extract.Config {
	def := extract.DefaultConfig()
	out := extract.Config{
		KnownClients:  c.KnownClients,
		NameOverrides: c.NameOverrides,
		OwnerExcludes: c.OwnerExcludes,
	}
	if out.KnownClients == nil {
		out.KnownClients = def.KnownClients
	}
	if out.NameOverrides == nil {
		out.NameOverrides = def.NameOverrides
	}
	if out.OwnerExcludes == nil {
		out.OwnerExcludes = def.OwnerExcludes
	}
	return out
}

// EmbedConfig parses the embed selector, or returns nil when no service is
// configured.
func (c *Config) EmbedConfig() (*embed.Config, error) {
	if c.Embed == "" {
		return nil, nil
	}
	return embed.ParseEmbedFlag(c.Embed)
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
