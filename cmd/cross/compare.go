package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/cross/internal/core"
	"github.com/agenthands/cross/internal/core/model"
	"github.com/agenthands/cross/internal/core/summary"
	"github.com/agenthands/cross/internal/tableio"
)

const defaultKey = "Title"

type CompareCmd struct {
	Reference string `arg:"" help:"Reference (ground truth) table: .xlsx, .csv or .json." type:"existingfile"`
	Extracted string `arg:"" help:"Extracted table: .xlsx, .csv or .json." type:"existingfile"`

	Key        []string `short:"k" help:"Key column; repeat for a composite key. Title when not given."`
	Columns    []string `help:"Columns to compare. Defaults to every common non-key column."`
	Mode       string   `help:"Comparison mode for --columns." default:"exact" enum:"exact,numeric,categorical"`
	Tolerance  float64  `help:"Absolute tolerance in numeric mode."`
	Categories []string `help:"Declared categories in categorical mode."`
	Trim       bool     `help:"Trim surrounding whitespace before comparing keys and values."`
	CaseFold   bool     `name:"case-fold" help:"Compare keys and values case-insensitively."`

	Sheet            string `help:"Worksheet to read from XLSX inputs."`
	Format           string `help:"Output format." default:"text" enum:"text,json,yaml"`
	MaxDisagreements int    `name:"max-disagreements" help:"Disagreements listed in text output." default:"20"`
}

func (c *CompareCmd) Run(cli *CLI, out io.Writer) error {
	ref, err := tableio.Load(c.Reference, tableio.Options{Sheet: c.Sheet})
	if err != nil {
		return err
	}
	ext, err := tableio.Load(c.Extracted, tableio.Options{Sheet: c.Sheet})
	if err != nil {
		return err
	}

	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	var spec model.ComparisonSpec
	if cfg != nil && cfg.HasComparison() && len(c.Columns) == 0 {
		if flags := c.specFlags(); len(flags) > 0 {
			return fmt.Errorf("%s cannot be combined with the comparison in %s; add --columns to build the comparison from flags instead",
				strings.Join(flags, ", "), cli.Config)
		}
		spec = cfg.Comparison
	} else {
		spec = c.spec(ref, ext)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := core.NewEngine(core.WithLogger(cli.logger()))
	res, err := engine.Compare(ctx, ref, ext, spec)
	if err != nil {
		return err
	}
	return render(out, c.Format, res, c.MaxDisagreements)
}

// specFlags names the comparison flags that were set explicitly.
func (c *CompareCmd) specFlags() []string {
	var flags []string
	if len(c.Key) > 0 {
		flags = append(flags, "--key")
	}
	if c.Trim {
		flags = append(flags, "--trim")
	}
	if c.CaseFold {
		flags = append(flags, "--case-fold")
	}
	if c.Tolerance != 0 {
		flags = append(flags, "--tolerance")
	}
	if len(c.Categories) > 0 {
		flags = append(flags, "--categories")
	}
	return flags
}

// spec builds a comparison from the flags. Without --columns every column
// common to both tables, except the keys, is compared.
func (c *CompareCmd) spec(ref, ext *model.Table) model.ComparisonSpec {
	norm := model.Normalization{Trim: c.Trim, CaseFold: c.CaseFold}
	spec := model.ComparisonSpec{KeyNormalize: norm}
	key := c.Key
	if len(key) == 0 {
		key = []string{defaultKey}
	}
	if len(key) == 1 {
		spec.KeyColumn = key[0]
	} else {
		spec.KeyColumns = key
	}

	columns := c.Columns
	if len(columns) == 0 {
		keys := make(map[string]bool, len(key))
		for _, k := range key {
			keys[k] = true
		}
		for _, col := range core.NewEngine().Overview(ref, ext).CommonColumns {
			if !keys[col] {
				columns = append(columns, col)
			}
		}
	}

	for _, name := range columns {
		col := model.ColumnSpec{Name: name, Mode: model.Mode(c.Mode), Normalize: norm}
		switch col.Mode {
		case model.ModeNumeric:
			tol := c.Tolerance
			col.Tolerance = &tol
		case model.ModeCategorical:
			col.Categories = c.Categories
		}
		spec.Columns = append(spec.Columns, col)
	}
	return spec
}

func render(out io.Writer, format string, res *model.Result, maxDisagreements int) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		// through JSON so undefined coefficients and key texts render the same
		data, err := json.Marshal(res)
		if err != nil {
			return err
		}
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(doc)
	case "text", "":
		return summary.NewSummarizer(maxDisagreements).Render(out, res)
	}
	return fmt.Errorf("unknown format %q", format)
}
