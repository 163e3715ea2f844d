// Package metrics computes agreement statistics over compared cells.
//
// Invalid cells (type mismatches, unknown categories) never enter a
// denominator; they are counted separately so every exclusion stays visible.
package metrics

import (
	"fmt"
	"sort"

	"github.com/agenthands/cross/internal/core/common"
	"github.com/agenthands/cross/internal/core/model"
)

// Landis & Koch bands.
func Interpret(v float64) string {
	switch {
	case v >= 0.81:
		return "Almost Perfect"
	case v >= 0.61:
		return "Substantial"
	case v >= 0.41:
		return "Moderate"
	case v >= 0.21:
		return "Fair"
	case v >= 0:
		return "Slight"
	}
	return "Poor"
}

// Ratio returns num/den as a coefficient, undefined when den is zero.
func Ratio(num, den int) model.Coefficient {
	if den == 0 {
		return model.Undefined()
	}
	return model.Coefficient{Value: float64(num) / float64(den)}
}

// Categories returns the declared category axis of a categorical column in
// normalized form, or nil for other modes.
func Categories(spec model.ColumnSpec) []string {
	if spec.Mode != model.ModeCategorical {
		return nil
	}
	norm := common.NewNormalizer(spec.Normalize)
	out := make([]string, len(spec.Categories))
	for i, c := range spec.Categories {
		out[i] = norm.Apply(c)
	}
	sort.Strings(out)
	return out
}

// Column computes every metric of one column from its cells.
func Column(spec model.ColumnSpec, cells []model.Cell) model.ColumnMetrics {
	m := model.ColumnMetrics{Column: spec.Name, Mode: spec.Mode}

	var pairs [][2]string
	for _, c := range cells {
		switch c.Status {
		case model.StatusAgree:
			m.Agreements++
		case model.StatusDisagree:
			m.Disagreements++
		case model.StatusInvalid:
			m.Invalid++
			continue
		}
		pairs = append(pairs, [2]string{c.NormalizedReference, c.NormalizedExtracted})
	}
	m.Compared = m.Agreements + m.Disagreements
	m.PercentAgreement = Ratio(m.Agreements, m.Compared)

	if spec.Mode == model.ModeNumeric {
		return m
	}

	cm := NewConfusionMatrix(Categories(spec), pairs)
	kappa := CohensKappa(cm)
	pi := ScottsPi(cm)
	ac1 := GwetsAC1(cm)
	alpha := KrippendorffAlpha(cm)

	m.Kappa = &kappa
	m.ScottsPi = &pi
	m.GwetsAC1 = &ac1
	m.KrippendorffAlpha = &alpha
	m.Recommendation = Recommend(cm, kappa.Kappa, ac1)
	return m
}

// Recommend suggests which statistic to read for a column, flagging the
// Kappa paradox and strong prevalence imbalance.
func Recommend(cm *ConfusionMatrix, kappa, ac1 model.Coefficient) string {
	if cm.N == 0 {
		return "No valid comparisons; chance-corrected statistics do not apply."
	}
	if kappa.Undefined {
		return "Cohen's Kappa is undefined because a single category was observed in both tables; report percent agreement instead."
	}

	po := cm.ObservedAgreement()
	if po > 0.8 && kappa.Value < 0.4 && !ac1.Undefined {
		return fmt.Sprintf("Kappa paradox: high agreement (%.1f%%) but low Kappa (%.2f). Use Gwet's AC1 (%.2f) for interpretation.",
			po*100, kappa.Value, ac1.Value)
	}

	dominant, share := "", 0.0
	for i, c := range cm.Categories {
		if s := float64(cm.rowTotal(i)) / float64(cm.N); s > share {
			dominant, share = c, s
		}
	}
	if share > 0.9 {
		return fmt.Sprintf("High prevalence imbalance (%.1f%% %q in the reference table). Consider Gwet's AC1 alongside Kappa.",
			share*100, dominant)
	}
	return "Cohen's Kappa is appropriate for this data distribution."
}

// Aggregate combines per-column metrics. Overall agreement weights each
// column by its number of valid comparisons, and so does the Kappa mean.
func Aggregate(columns []model.ColumnMetrics) model.Summary {
	s := model.Summary{
		PerfectColumns:        []string{},
		DisagreeingColumns:    []string{},
		UndefinedKappaColumns: []string{},
	}

	kappaSum, kappaWeight := 0.0, 0
	for _, c := range columns {
		s.Compared += c.Compared
		s.Agreements += c.Agreements
		s.Disagreements += c.Disagreements
		s.Invalid += c.Invalid

		if c.Compared > 0 && c.Disagreements == 0 && c.Invalid == 0 {
			s.PerfectColumns = append(s.PerfectColumns, c.Column)
		}
		if c.Disagreements > 0 || c.Invalid > 0 {
			s.DisagreeingColumns = append(s.DisagreeingColumns, c.Column)
		}
		if c.Kappa == nil {
			continue
		}
		if c.Kappa.Kappa.Undefined {
			s.UndefinedKappaColumns = append(s.UndefinedKappaColumns, c.Column)
			continue
		}
		kappaSum += c.Kappa.Kappa.Value * float64(c.Kappa.N)
		kappaWeight += c.Kappa.N
	}

	s.OverallAgreement = Ratio(s.Agreements, s.Compared)
	if kappaWeight == 0 {
		s.WeightedKappa = model.Undefined()
	} else {
		v := kappaSum / float64(kappaWeight)
		s.WeightedKappa = model.Coefficient{Value: v, Interpretation: Interpret(v)}
	}
	return s
}
