// Package logging builds the hclog loggers shared by the binaries.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/agenthands/cross/internal/config"
)

// New returns a logger named name. A nil out writes to stderr.
func New(name string, cfg config.LogConfig, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     out,
		JSONFormat: cfg.Format == "json",
	})
}
