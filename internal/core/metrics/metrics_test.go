package metrics

import (
	"math"
	"testing"

	"github.com/agenthands/cross/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairs expands a 2x2 yes/no table into rating pairs.
func pairs(yesYes, yesNo, noYes, noNo int) [][2]string {
	var out [][2]string
	add := func(n int, ref, ext string) {
		for i := 0; i < n; i++ {
			out = append(out, [2]string{ref, ext})
		}
	}
	add(yesYes, "yes", "yes")
	add(yesNo, "yes", "no")
	add(noYes, "no", "yes")
	add(noNo, "no", "no")
	return out
}

func TestCohensKappaTextbookTable(t *testing.T) {
	cm := NewConfusionMatrix(nil, pairs(20, 5, 10, 15))
	stats := CohensKappa(cm)

	assert.Equal(t, 50, stats.N)
	assert.Equal(t, []string{"no", "yes"}, stats.Categories)
	assert.Equal(t, [][]int{{15, 10}, {5, 20}}, stats.Matrix)
	assert.InDelta(t, 0.7, stats.Observed, 1e-12)
	assert.InDelta(t, 0.5, stats.Expected, 1e-12)
	assert.False(t, stats.Kappa.Undefined)
	assert.InDelta(t, 0.4, stats.Kappa.Value, 1e-12)
	assert.Equal(t, "Fair", stats.Kappa.Interpretation)
}

func TestOtherCoefficientsTextbookTable(t *testing.T) {
	cm := NewConfusionMatrix(nil, pairs(20, 5, 10, 15))

	pi := ScottsPi(cm)
	assert.InDelta(t, 0.195/0.495, pi.Value, 1e-12)

	ac1 := GwetsAC1(cm)
	assert.InDelta(t, 0.205/0.505, ac1.Value, 1e-12)

	alpha := KrippendorffAlpha(cm)
	assert.InDelta(t, 0.4, alpha.Value, 1e-12)
}

func TestPerfectAndInverseAgreement(t *testing.T) {
	perfect := CohensKappa(NewConfusionMatrix(nil, pairs(3, 0, 0, 2)))
	assert.InDelta(t, 1.0, perfect.Kappa.Value, 1e-12)
	assert.Equal(t, "Almost Perfect", perfect.Kappa.Interpretation)

	inverse := CohensKappa(NewConfusionMatrix(nil, pairs(0, 2, 2, 0)))
	assert.InDelta(t, -1.0, inverse.Kappa.Value, 1e-12)
	assert.Equal(t, "Poor", inverse.Kappa.Interpretation)
}

func TestKappaUndefinedForSingleCategory(t *testing.T) {
	cm := NewConfusionMatrix([]string{"yes"}, pairs(4, 0, 0, 0))
	stats := CohensKappa(cm)

	assert.True(t, stats.Kappa.Undefined)
	assert.True(t, math.IsNaN(stats.Kappa.Value))
	assert.Equal(t, "Undefined", stats.Kappa.Interpretation)
	assert.True(t, ScottsPi(cm).Undefined)
	assert.True(t, GwetsAC1(cm).Undefined)
	assert.True(t, KrippendorffAlpha(cm).Undefined)
}

func TestKappaUndefinedWithUnusedDeclaredCategory(t *testing.T) {
	// a declared but unobserved category does not rescue Pe == 1
	cm := NewConfusionMatrix([]string{"no", "yes"}, pairs(3, 0, 0, 0))
	assert.True(t, CohensKappa(cm).Kappa.Undefined)

	ac1 := GwetsAC1(cm)
	assert.False(t, ac1.Undefined)
	assert.InDelta(t, 1.0, ac1.Value, 1e-12)
}

func TestKappaUndefinedWithoutRows(t *testing.T) {
	stats := CohensKappa(NewConfusionMatrix([]string{"no", "yes"}, nil))
	assert.True(t, stats.Kappa.Undefined)
	assert.Equal(t, 0, stats.N)
	assert.Zero(t, stats.Observed)
}

func TestKappaStaysInRange(t *testing.T) {
	tables := [][4]int{
		{1, 0, 0, 0}, {0, 1, 0, 0}, {1, 1, 1, 1}, {9, 1, 0, 0}, {0, 5, 5, 0},
		{40, 3, 2, 1}, {1, 30, 20, 2}, {7, 7, 7, 8},
	}
	for _, tc := range tables {
		k := CohensKappa(NewConfusionMatrix(nil, pairs(tc[0], tc[1], tc[2], tc[3]))).Kappa
		if k.Undefined {
			assert.True(t, math.IsNaN(k.Value))
			continue
		}
		assert.GreaterOrEqual(t, k.Value, -1.0, "table %v", tc)
		assert.LessOrEqual(t, k.Value, 1.0, "table %v", tc)
	}
}

func TestInterpretBands(t *testing.T) {
	assert.Equal(t, "Almost Perfect", Interpret(0.81))
	assert.Equal(t, "Substantial", Interpret(0.8))
	assert.Equal(t, "Moderate", Interpret(0.41))
	assert.Equal(t, "Fair", Interpret(0.21))
	assert.Equal(t, "Slight", Interpret(0))
	assert.Equal(t, "Poor", Interpret(-0.01))
}

func cells(status ...model.CellStatus) []model.Cell {
	out := make([]model.Cell, len(status))
	for i, s := range status {
		v := "yes"
		ext := "yes"
		if s == model.StatusDisagree {
			ext = "no"
		}
		out[i] = model.Cell{Status: s, NormalizedReference: v, NormalizedExtracted: ext, Agreement: s == model.StatusAgree}
	}
	return out
}

func TestColumnExcludesInvalidFromDenominator(t *testing.T) {
	spec := model.ColumnSpec{Name: "Software", Mode: model.ModeExact}
	m := Column(spec, cells(model.StatusAgree, model.StatusDisagree, model.StatusInvalid, model.StatusAgree))

	assert.Equal(t, 3, m.Compared)
	assert.Equal(t, 2, m.Agreements)
	assert.Equal(t, 1, m.Disagreements)
	assert.Equal(t, 1, m.Invalid)
	assert.InDelta(t, 2.0/3.0, m.PercentAgreement.Value, 1e-12)
	require.NotNil(t, m.Kappa)
	assert.Equal(t, 3, m.Kappa.N)
	assert.NotEmpty(t, m.Recommendation)
}

func TestColumnNumericHasNoKappa(t *testing.T) {
	tol := 0.0
	m := Column(model.ColumnSpec{Name: "Year", Mode: model.ModeNumeric, Tolerance: &tol}, cells(model.StatusAgree))
	assert.Nil(t, m.Kappa)
	assert.Nil(t, m.ScottsPi)
	assert.InDelta(t, 1.0, m.PercentAgreement.Value, 1e-12)
}

func TestColumnWithOnlyInvalidCells(t *testing.T) {
	m := Column(model.ColumnSpec{Name: "c", Mode: model.ModeExact}, cells(model.StatusInvalid, model.StatusInvalid))
	assert.Equal(t, 0, m.Compared)
	assert.Equal(t, 2, m.Invalid)
	assert.True(t, m.PercentAgreement.Undefined)
}

func TestCategoriesAreNormalizedAndSorted(t *testing.T) {
	spec := model.ColumnSpec{
		Name:       "c",
		Mode:       model.ModeCategorical,
		Normalize:  model.Normalization{CaseFold: true},
		Categories: []string{"YES", "No"},
	}
	assert.Equal(t, []string{"no", "yes"}, Categories(spec))
	assert.Nil(t, Categories(model.ColumnSpec{Mode: model.ModeExact}))
}

func TestRecommend(t *testing.T) {
	paradox := NewConfusionMatrix(nil, pairs(45, 2, 2, 1))
	k := CohensKappa(paradox)
	assert.Contains(t, Recommend(paradox, k.Kappa, GwetsAC1(paradox)), "Kappa paradox")

	balanced := NewConfusionMatrix(nil, pairs(20, 5, 10, 15))
	k = CohensKappa(balanced)
	assert.Equal(t, "Cohen's Kappa is appropriate for this data distribution.",
		Recommend(balanced, k.Kappa, GwetsAC1(balanced)))

	single := NewConfusionMatrix(nil, pairs(3, 0, 0, 0))
	k = CohensKappa(single)
	assert.Contains(t, Recommend(single, k.Kappa, GwetsAC1(single)), "undefined")
}

func TestAggregateWeightsByComparedRows(t *testing.T) {
	columns := []model.ColumnMetrics{
		{Column: "a", Compared: 10, Agreements: 10, PercentAgreement: Ratio(10, 10),
			Kappa: &model.KappaStats{N: 10, Kappa: model.Coefficient{Value: 1}}},
		{Column: "b", Compared: 2, Agreements: 0, Disagreements: 2, PercentAgreement: Ratio(0, 2),
			Kappa: &model.KappaStats{N: 2, Kappa: model.Coefficient{Value: -1}}},
		{Column: "c", Compared: 4, Agreements: 4, Invalid: 1, PercentAgreement: Ratio(4, 4),
			Kappa: &model.KappaStats{N: 4, Kappa: model.Undefined()}},
	}

	s := Aggregate(columns)
	assert.Equal(t, 16, s.Compared)
	assert.Equal(t, 14, s.Agreements)
	assert.Equal(t, 1, s.Invalid)
	// weighted mean (10*1 + 2*0 + 4*1) / 16, not the simple mean 2/3
	assert.InDelta(t, 14.0/16.0, s.OverallAgreement.Value, 1e-12)
	assert.InDelta(t, (10.0-2.0)/12.0, s.WeightedKappa.Value, 1e-12)
	assert.Equal(t, []string{"a"}, s.PerfectColumns)
	assert.Equal(t, []string{"b", "c"}, s.DisagreeingColumns)
	assert.Equal(t, []string{"c"}, s.UndefinedKappaColumns)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	assert.True(t, s.OverallAgreement.Undefined)
	assert.True(t, s.WeightedKappa.Undefined)
	assert.NotNil(t, s.PerfectColumns)
}
