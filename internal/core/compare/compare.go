package compare

import (
	"github.com/agenthands/cross/internal/core/model"
)

// Compare evaluates every configured column on every matched row of a.
// Unmatched keys never reach the comparison table.
func Compare(ref, ext *model.Table, a *model.Alignment, columns []model.ColumnSpec) (*model.ComparisonTable, error) {
	matchers := make([]Matcher, len(columns))
	names := make([]string, len(columns))
	for i, spec := range columns {
		m, err := NewMatcher(spec)
		if err != nil {
			return nil, err
		}
		matchers[i] = m
		names[i] = spec.Name
	}

	table := &model.ComparisonTable{
		Columns: names,
		Rows:    make([]model.ComparedRow, 0, len(a.Matched)),
	}
	for _, pair := range a.Matched {
		refRow := ref.Rows[pair.ReferenceRow]
		extRow := ext.Rows[pair.ExtractedRow]

		cells := make([]model.Cell, len(columns))
		for i, m := range matchers {
			cells[i] = m.Match(refRow[names[i]], extRow[names[i]])
		}
		table.Rows = append(table.Rows, model.ComparedRow{MatchedRow: pair, Cells: cells})
	}
	return table, nil
}
