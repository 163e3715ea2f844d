package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/agenthands/cross/internal/core/model"
	"github.com/agenthands/cross/internal/core/report"
)

// Summarizer renders a comparison result as the plain-text digest handed to
// downstream reporting.
type Summarizer struct {
	// MaxDisagreements caps the itemized disagreement list; 0 lists none.
	MaxDisagreements int
}

func NewSummarizer(maxDisagreements int) *Summarizer {
	return &Summarizer{MaxDisagreements: maxDisagreements}
}

func (s *Summarizer) Summarize(r *model.Result) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = s.Render(&b, r)
	return b.String()
}

func (s *Summarizer) Render(w io.Writer, r *model.Result) error {
	p := &printer{w: w}

	p.line("Cross-Comparison Results")
	p.line("")
	p.line("Tables compared:")
	p.line("- reference: %s (%d rows)", nameOr(r.Overview.Reference.Name, "reference"), r.Overview.Reference.RowCount)
	p.line("- extracted: %s (%d rows)", nameOr(r.Overview.Extracted.Name, "extracted"), r.Overview.Extracted.RowCount)
	p.line("Matched rows: %d (reference-only: %d, extracted-only: %d)",
		len(r.MatchedKeys), r.Report.ReferenceOnlyCount, r.Report.ExtractedOnlyCount)

	for _, m := range r.Metrics {
		p.line("")
		p.line("Column: %s (%s)", m.Column, m.Mode)
		p.line("- Agreement rate: %s (%d/%d match, %d invalid)",
			percent(m.PercentAgreement), m.Agreements, m.Compared, m.Invalid)
		if m.Kappa != nil {
			p.line("- Cohen's Kappa: %s", coefficient(m.Kappa.Kappa))
			p.line("- Scott's Pi: %s", coefficient(*m.ScottsPi))
			p.line("- Gwet's AC1: %s", coefficient(*m.GwetsAC1))
			p.line("- Krippendorff's Alpha: %s", coefficient(*m.KrippendorffAlpha))
		}
		p.line("- Disagreements: %d", m.Disagreements+m.Invalid)
		if keys := s.keys(report.ByColumn(r.Report, m.Column)); keys != "" {
			p.line("- Disagreeing rows: %s", keys)
		}
		if m.Recommendation != "" {
			p.line("- Recommendation: %s", m.Recommendation)
		}
	}

	sum := r.Summary
	p.line("")
	p.line("Overall agreement: %s across %d comparisons (weighted by compared rows)",
		percent(sum.OverallAgreement), sum.Compared)
	p.line("Weighted Kappa: %s", coefficient(sum.WeightedKappa))
	p.line("Perfect columns: %s", list(sum.PerfectColumns))
	p.line("Columns with disagreements: %s", list(sum.DisagreeingColumns))
	if len(sum.UndefinedKappaColumns) > 0 {
		p.line("Kappa undefined (single category): %s", list(sum.UndefinedKappaColumns))
	}

	total := len(r.Report.Disagreements)
	if total > 0 && s.MaxDisagreements > 0 {
		shown := total
		if shown > s.MaxDisagreements {
			shown = s.MaxDisagreements
		}
		p.line("")
		p.line("Disagreements (%d of %d):", shown, total)
		for _, d := range r.Report.Disagreements[:shown] {
			p.line("- [%s] %s: reference %q, extracted %q (%s)", d.Key, d.Column, d.Reference, d.Extracted, d.Reason)
		}
	}
	return p.err
}

// keys lists the row keys of ds, capped at MaxDisagreements.
func (s *Summarizer) keys(ds []model.Disagreement) string {
	if len(ds) == 0 || s.MaxDisagreements <= 0 {
		return ""
	}
	parts := make([]string, 0, len(ds))
	for i, d := range ds {
		if i == s.MaxDisagreements {
			parts = append(parts, fmt.Sprintf("and %d more", len(ds)-i))
			break
		}
		parts = append(parts, d.Key.String())
	}
	return strings.Join(parts, ", ")
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func percent(c model.Coefficient) string {
	if c.Undefined {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", c.Value*100)
}

func coefficient(c model.Coefficient) string {
	if c.Undefined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f (%s)", c.Value, c.Interpretation)
}

func list(xs []string) string {
	if len(xs) == 0 {
		return "none"
	}
	return strings.Join(xs, ", ")
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
