// Package config loads cartkeeper settings.
//
// Values come from three layers, later ones winning: struct-tag defaults,
// an optional YAML file, and CARTKEEPER_* environment variables. Load
// validates the result so misconfiguration fails at startup.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all settings.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Import      ImportConfig      `yaml:"import"`
	Categorizer CategorizerConfig `yaml:"categorizer"`
	Secrets     SecretsConfig     `yaml:"secrets"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	// Backend is sqlite, memory or remote (default: sqlite)
	Backend string `yaml:"backend" env:"CARTKEEPER_DB_BACKEND" default:"sqlite"`

	// Path is the SQLite file (default: <config dir>/cartkeeper/cartkeeper.db)
	Path string `yaml:"path" env:"CARTKEEPER_DB_PATH"`

	// Driver is sqlite3 (cgo) or sqlite (pure Go) (default: sqlite3)
	Driver string `yaml:"driver" env:"CARTKEEPER_DB_DRIVER" default:"sqlite3"`

	// Endpoint is the remote server address
	Endpoint string `yaml:"endpoint" env:"CARTKEEPER_DB_ENDPOINT"`

	// SlowQuery is the threshold above which queries log at warn (default: 50ms)
	SlowQuery time.Duration `yaml:"slow_query" env:"CARTKEEPER_DB_SLOW_QUERY" default:"50ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `yaml:"level" env:"CARTKEEPER_LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `yaml:"format" env:"CARTKEEPER_LOG_FORMAT" default:"text"`
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	// Parser reads pasted input: text, yaml or gemini (default: text)
	Parser string `yaml:"parser" env:"CARTKEEPER_IMPORT_PARSER" default:"text"`

	// Concurrency bounds parallel categorizer calls (default: 4)
	Concurrency int `yaml:"concurrency" env:"CARTKEEPER_IMPORT_CONCURRENCY" default:"4"`
}

// CategorizerConfig selects how new items are placed.
type CategorizerConfig struct {
	// Provider is none, names or gemini (default: names)
	Provider string `yaml:"provider" env:"CARTKEEPER_CATEGORIZER" default:"names"`

	// Model is the Gemini model (default: gemini-2.5-flash)
	Model string `yaml:"model" env:"CARTKEEPER_GEMINI_MODEL" default:"gemini-2.5-flash"`

	// Timeout bounds one model call (default: 20s)
	Timeout time.Duration `yaml:"timeout" env:"CARTKEEPER_GEMINI_TIMEOUT" default:"20s"`

	// APIKeySecret is the secrets key holding the API key (default: gemini_api_key)
	APIKeySecret string `yaml:"api_key_secret" env:"CARTKEEPER_GEMINI_KEY_SECRET" default:"gemini_api_key"`

	// APIKeyEnv is consulted when the secret is not set (default: GEMINI_API_KEY)
	APIKeyEnv string `yaml:"api_key_env" env:"CARTKEEPER_GEMINI_KEY_ENV" default:"GEMINI_API_KEY"`
}

// SecretsConfig selects the credential store.
type SecretsConfig struct {
	// Backend is file or memory (default: file)
	Backend string `yaml:"backend" env:"CARTKEEPER_SECRETS_BACKEND" default:"file"`

	// Path is the secrets file (default: <config dir>/cartkeeper/secrets.yaml)
	Path string `yaml:"path" env:"CARTKEEPER_SECRETS_PATH"`
}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Backend {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	case "memory":
	case "remote":
		if c.Database.Endpoint == "" {
			errs = append(errs, "database.endpoint is required for the remote backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.backend (%q) must be one of: sqlite, memory, remote", c.Database.Backend))
	}
	if c.Database.Driver != "sqlite3" && c.Database.Driver != "sqlite" {
		errs = append(errs, fmt.Sprintf("database.driver (%q) must be one of: sqlite3, sqlite", c.Database.Driver))
	}
	if c.Database.SlowQuery < 0 {
		errs = append(errs, "database.slow_query must be non-negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("logging.format (%q) must be one of: text, json", c.Logging.Format))
	}

	validParsers := map[string]bool{"text": true, "yaml": true, "gemini": true}
	if !validParsers[c.Import.Parser] {
		errs = append(errs, fmt.Sprintf("import.parser (%q) must be one of: text, yaml, gemini", c.Import.Parser))
	}
	if c.Import.Concurrency <= 0 {
		errs = append(errs, "import.concurrency must be positive")
	}

	validProviders := map[string]bool{"none": true, "names": true, "gemini": true}
	if !validProviders[c.Categorizer.Provider] {
		errs = append(errs, fmt.Sprintf("categorizer.provider (%q) must be one of: none, names, gemini", c.Categorizer.Provider))
	}
	if c.Categorizer.Timeout <= 0 {
		errs = append(errs, "categorizer.timeout must be positive")
	}

	switch c.Secrets.Backend {
	case "file":
		if c.Secrets.Path == "" {
			errs = append(errs, "secrets.path is required for the file backend")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("secrets.backend (%q) must be one of: file, memory", c.Secrets.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// UsesGemini reports whether any component needs the Gemini API key.
func (c *Config) UsesGemini() bool {
	return c.Categorizer.Provider == "gemini" || c.Import.Parser == "gemini"
}
