package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cross/internal/core/model"
)

const tomlConfig = `
[server]
port = 9090

[log]
level = "debug"

[memgraph]
uri = "bolt://localhost:7687"

[comparison]
key_column = "Title"

[comparison.key_normalize]
trim = true

[[comparison.columns]]
name = "Software"
mode = "categorical"
categories = ["TRUE", "FALSE"]
aliases = { YES = "TRUE", NO = "FALSE" }

[[comparison.columns]]
name = "Year"
mode = "numeric"
tolerance = 0.5
`

const yamlConfig = `
server:
  port: 9191
concurrency:
  bulk_compare: 8
comparison:
  key_columns: [Title, Year]
  columns:
    - name: Notes
      mode: exact
      normalize:
        trim: true
        case_fold: true
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(write(t, "config.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.RequestTimeoutSeconds)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "bolt://localhost:7687", cfg.Memgraph.URI)

	spec := cfg.Comparison
	assert.Equal(t, "Title", spec.KeyColumn)
	assert.True(t, spec.KeyNormalize.Trim)
	require.Len(t, spec.Columns, 2)
	assert.Equal(t, model.ModeCategorical, spec.Columns[0].Mode)
	assert.Equal(t, "TRUE", spec.Columns[0].Aliases["YES"])
	require.NotNil(t, spec.Columns[1].Tolerance)
	assert.Equal(t, 0.5, *spec.Columns[1].Tolerance)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(write(t, "config.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Concurrency.BulkCompare)
	assert.Equal(t, []string{"Title", "Year"}, cfg.Comparison.KeyColumns)
	assert.True(t, cfg.Comparison.Columns[0].Normalize.CaseFold)
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(write(t, "bad.toml", "[server\nport = "))
	assert.ErrorContains(t, err, "failed to parse TOML")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("MEMGRAPH_URI", "bolt://memgraph:7687")
	t.Setenv("MEMGRAPH_USER", "cross")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "bolt://memgraph:7687", cfg.Memgraph.URI)
	assert.Equal(t, "cross", cfg.Memgraph.User)

	t.Setenv("PORT", "eighty")
	assert.ErrorContains(t, Default().ApplyEnv(), "invalid PORT")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"bulk", func(c *Config) { c.Concurrency.BulkCompare = 0 }, "bulk_compare"},
		{"spec", func(c *Config) {
			c.Comparison = model.ComparisonSpec{KeyColumn: "Title", Columns: []model.ColumnSpec{{Name: "Year", Mode: model.ModeNumeric}}}
		}, "comparison"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestWatchReloadsValidChanges(t *testing.T) {
	path := write(t, "config.toml", tomlConfig)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, hclog.NewNullLogger(), func(c *Config) { changes <- c }))

	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 0\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 8181\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, 8181, cfg.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}
