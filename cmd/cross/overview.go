package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/agenthands/cross/internal/core"
	"github.com/agenthands/cross/internal/tableio"
)

type OverviewCmd struct {
	Reference string `arg:"" help:"Reference (ground truth) table." type:"existingfile"`
	Extracted string `arg:"" help:"Extracted table." type:"existingfile"`
	Sheet     string `help:"Worksheet to read from XLSX inputs."`
	JSON      bool   `name:"json" help:"Print the overview as JSON."`
}

func (c *OverviewCmd) Run(out io.Writer) error {
	ref, err := tableio.Load(c.Reference, tableio.Options{Sheet: c.Sheet})
	if err != nil {
		return err
	}
	ext, err := tableio.Load(c.Extracted, tableio.Options{Sheet: c.Sheet})
	if err != nil {
		return err
	}

	o := core.NewEngine().Overview(ref, ext)
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	}

	_, err = fmt.Fprintf(out,
		"reference: %s (%d rows, %d columns)\nextracted: %s (%d rows, %d columns)\ncommon columns: %s\nonly in reference: %s\nonly in extracted: %s\nrow counts match: %t\n",
		o.Reference.Name, o.Reference.RowCount, len(o.Reference.Columns),
		o.Extracted.Name, o.Extracted.RowCount, len(o.Extracted.Columns),
		join(o.CommonColumns), join(o.OnlyInReference), join(o.OnlyInExtracted),
		o.RowCountMatch)
	if err != nil {
		return err
	}

	for _, in := range []struct{ side, path string }{{"reference", c.Reference}, {"extracted", c.Extracted}} {
		sheets, err := tableio.Sheets(in.path)
		if err != nil {
			return err
		}
		if len(sheets) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s sheets: %s\n", in.side, join(sheets)); err != nil {
			return err
		}
	}
	return nil
}

func join(xs []string) string {
	if len(xs) == 0 {
		return "none"
	}
	return strings.Join(xs, ", ")
}
