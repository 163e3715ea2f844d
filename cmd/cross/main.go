// Command cross compares an extracted table against a reference table.
//
// Usage:
//
//	cross compare table_1.xlsx table_2.xlsx --key Title --columns Software --columns Testing
//	cross compare truth.csv extracted.csv --config config/config.toml --format json
//	cross overview table_1.xlsx table_2.xlsx
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"github.com/agenthands/cross/internal/config"
	"github.com/agenthands/cross/internal/logging"
)

type CLI struct {
	Compare  CompareCmd  `cmd:"" help:"Compare an extracted table against a reference table."`
	Overview OverviewCmd `cmd:"" help:"Show the shape and column overlap of two tables."`
	Schema   SchemaCmd   `cmd:"" help:"Print the JSON Schema of the configuration file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file (TOML or YAML)." type:"path"`
	LogLevel  string `help:"Log level (trace, debug, info, warn, error)." default:"warn" env:"LOG_LEVEL"`
	LogFormat string `help:"Log format (text, json)." default:"text" enum:"text,json"`
}

func (c *CLI) logger() hclog.Logger {
	return logging.New("cross", config.LogConfig{Level: c.LogLevel, Format: c.LogFormat}, os.Stderr)
}

// loadConfig returns the config named by --config, or nil when none was given.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config == "" {
		return nil, nil
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cross"),
		kong.Description("Table agreement engine: align, compare and score extracted tables against ground truth."),
		kong.UsageOnError(),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
