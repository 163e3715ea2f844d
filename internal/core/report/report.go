package report

import (
	"sort"

	"github.com/agenthands/cross/internal/core/model"
)

// Build derives the disagreement report from the comparison table and the
// unmatched partitions of the alignment. It reads nothing else.
func Build(table *model.ComparisonTable, a *model.Alignment) model.Report {
	r := model.Report{
		Disagreements:      []model.Disagreement{},
		ReferenceOnly:      append([]model.RowKey{}, a.ReferenceOnly...),
		ExtractedOnly:      append([]model.RowKey{}, a.ExtractedOnly...),
		ReferenceOnlyCount: len(a.ReferenceOnly),
		ExtractedOnlyCount: len(a.ExtractedOnly),
	}

	type transitionKey struct {
		col      int
		from, to string
	}
	transitions := make(map[transitionKey]int)

	// rows are already in key order and cells in column order
	for _, row := range table.Rows {
		for i, cell := range row.Cells {
			if cell.Status == model.StatusAgree {
				continue
			}
			d := model.Disagreement{
				Key:       row.Key,
				Column:    cell.Column,
				Reference: cell.Reference,
				Extracted: cell.Extracted,
				Reason:    model.ReasonValueMismatch,
			}
			if cell.Issue != nil {
				d.Reason = reasonFor(cell.Issue.Kind)
				d.Detail = cell.Issue.Message
			} else {
				transitions[transitionKey{i, cell.NormalizedReference, cell.NormalizedExtracted}]++
			}
			r.Disagreements = append(r.Disagreements, d)
		}
	}

	sort.SliceStable(r.Disagreements, func(i, j int) bool {
		return r.Disagreements[i].Key < r.Disagreements[j].Key
	})

	r.Transitions = make([]model.Transition, 0, len(transitions))
	for k, n := range transitions {
		r.Transitions = append(r.Transitions, model.Transition{
			Column: table.Columns[k.col],
			From:   k.from,
			To:     k.to,
			Count:  n,
		})
	}
	position := make(map[string]int, len(table.Columns))
	for i, c := range table.Columns {
		position[c] = i
	}
	sort.Slice(r.Transitions, func(i, j int) bool {
		a, b := r.Transitions[i], r.Transitions[j]
		if a.Column != b.Column {
			return position[a.Column] < position[b.Column]
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return r
}

func reasonFor(kind model.IssueKind) model.Reason {
	switch kind {
	case model.IssueTypeMismatch:
		return model.ReasonTypeMismatch
	case model.IssueUnknownCategory:
		return model.ReasonUnknownCategory
	}
	return model.ReasonValueMismatch
}

// ByColumn returns the disagreements of one column, keeping report order.
func ByColumn(r model.Report, column string) []model.Disagreement {
	var out []model.Disagreement
	for _, d := range r.Disagreements {
		if d.Column == column {
			out = append(out, d)
		}
	}
	return out
}
