package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/agenthands/cross/internal/core/model"
	"github.com/agenthands/cross/internal/observability"
)

const DefaultPath = "config/config.toml"

type ServerConfig struct {
	Port                  int `toml:"port" yaml:"port" json:"port"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds" yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`
	Format string `toml:"format" yaml:"format" json:"format" jsonschema:"enum=text,enum=json"`
}

// MemgraphConfig enables the audit trail when URI is set.
type MemgraphConfig struct {
	URI      string `toml:"uri" yaml:"uri" json:"uri,omitempty"`
	User     string `toml:"user" yaml:"user" json:"user,omitempty"`
	Password string `toml:"password" yaml:"password" json:"password,omitempty"`
}

type ConcurrencyConfig struct {
	BulkCompare int `toml:"bulk_compare" yaml:"bulk_compare" json:"bulk_compare"`
}

type SummaryConfig struct {
	MaxDisagreements int `toml:"max_disagreements" yaml:"max_disagreements" json:"max_disagreements"`
}

type Config struct {
	Server      ServerConfig                `toml:"server" yaml:"server" json:"server"`
	Log         LogConfig                   `toml:"log" yaml:"log" json:"log"`
	Tracing     observability.TracingConfig `toml:"tracing" yaml:"tracing" json:"tracing"`
	Memgraph    MemgraphConfig              `toml:"memgraph" yaml:"memgraph" json:"memgraph"`
	Concurrency ConcurrencyConfig           `toml:"concurrency" yaml:"concurrency" json:"concurrency"`
	Summary     SummaryConfig               `toml:"summary" yaml:"summary" json:"summary"`
	// Comparison is the default used when a request carries none.
	Comparison model.ComparisonSpec `toml:"comparison" yaml:"comparison" json:"comparison"`
}

func Default() *Config {
	return &Config{
		Server:      ServerConfig{Port: 8080, RequestTimeoutSeconds: 30},
		Log:         LogConfig{Level: "info", Format: "text"},
		Tracing:     observability.TracingConfig{Exporter: "none", ServiceName: observability.DefaultServiceName},
		Concurrency: ConcurrencyConfig{BulkCompare: 4},
		Summary:     SummaryConfig{MaxDisagreements: 20},
	}
}

// Load reads a TOML file, or YAML when the extension is .yaml or .yml, on
// top of Default. It does not consult the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides file settings with PORT, LOG_LEVEL, LOG_FORMAT,
// MEMGRAPH_URI, MEMGRAPH_USER and MEMGRAPH_PASSWORD when they are set.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	if uri := os.Getenv("MEMGRAPH_URI"); uri != "" {
		c.Memgraph.URI = uri
	}
	if user := os.Getenv("MEMGRAPH_USER"); user != "" {
		c.Memgraph.User = user
	}
	if pwd := os.Getenv("MEMGRAPH_PASSWORD"); pwd != "" {
		c.Memgraph.Password = pwd
	}
	return nil
}

// HasComparison reports whether a default comparison is configured.
func (c *Config) HasComparison() bool {
	return c.Comparison.KeyColumn != "" || len(c.Comparison.KeyColumns) > 0 || len(c.Comparison.Columns) > 0
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("server.request_timeout_seconds must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("tracing.exporter %q is not one of none, stdout", c.Tracing.Exporter)
	}
	if c.Concurrency.BulkCompare < 1 {
		return fmt.Errorf("concurrency.bulk_compare must be at least 1")
	}
	if c.Summary.MaxDisagreements < 0 {
		return fmt.Errorf("summary.max_disagreements must not be negative")
	}
	if c.HasComparison() {
		if err := c.Comparison.Validate(); err != nil {
			return fmt.Errorf("comparison: %w", err)
		}
	}
	return nil
}
