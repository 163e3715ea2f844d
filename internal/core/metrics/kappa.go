package metrics

import (
	"math"
	"sort"

	"github.com/agenthands/cross/internal/core/model"
)

// ConfusionMatrix counts (reference, extracted) value pairs over a fixed
// category axis. Counts[i][j] is the number of rows rated Categories[i] in
// the reference table and Categories[j] in the extracted table.
type ConfusionMatrix struct {
	Categories []string
	Counts     [][]int
	N          int
	index      map[string]int
}

// NewConfusionMatrix builds a matrix over categories. Categories are sorted
// and extended with any pair value that is not already on the axis.
func NewConfusionMatrix(categories []string, pairs [][2]string) *ConfusionMatrix {
	axis := make(map[string]bool, len(categories))
	for _, c := range categories {
		axis[c] = true
	}
	for _, p := range pairs {
		axis[p[0]] = true
		axis[p[1]] = true
	}
	sorted := make([]string, 0, len(axis))
	for c := range axis {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)

	cm := &ConfusionMatrix{
		Categories: sorted,
		Counts:     make([][]int, len(sorted)),
		index:      make(map[string]int, len(sorted)),
	}
	for i, c := range sorted {
		cm.index[c] = i
		cm.Counts[i] = make([]int, len(sorted))
	}
	for _, p := range pairs {
		cm.Counts[cm.index[p[0]]][cm.index[p[1]]]++
		cm.N++
	}
	return cm
}

func (cm *ConfusionMatrix) rowTotal(i int) int {
	total := 0
	for _, n := range cm.Counts[i] {
		total += n
	}
	return total
}

func (cm *ConfusionMatrix) colTotal(j int) int {
	total := 0
	for i := range cm.Counts {
		total += cm.Counts[i][j]
	}
	return total
}

func (cm *ConfusionMatrix) trace() int {
	total := 0
	for i := range cm.Counts {
		total += cm.Counts[i][i]
	}
	return total
}

// ObservedAgreement is Po, the share of rows on the diagonal.
func (cm *ConfusionMatrix) ObservedAgreement() float64 {
	if cm.N == 0 {
		return 0
	}
	return float64(cm.trace()) / float64(cm.N)
}

// ExpectedAgreement is Pe for Cohen's Kappa, from the marginal frequencies
// of each side.
func (cm *ConfusionMatrix) ExpectedAgreement() float64 {
	if cm.N == 0 {
		return 0
	}
	n := float64(cm.N)
	pe := 0.0
	for i := range cm.Categories {
		pe += (float64(cm.rowTotal(i)) / n) * (float64(cm.colTotal(i)) / n)
	}
	return pe
}

// observedCategories counts categories used by at least one side. With one
// or fewer, chance agreement is certain and Pe == 1.
func (cm *ConfusionMatrix) observedCategories() int {
	used := 0
	for i := range cm.Categories {
		if cm.rowTotal(i)+cm.colTotal(i) > 0 {
			used++
		}
	}
	return used
}

func (cm *ConfusionMatrix) degenerate() bool {
	return cm.N == 0 || cm.observedCategories() <= 1
}

// pooled returns the share of each category over both sides together.
func (cm *ConfusionMatrix) pooled() []float64 {
	out := make([]float64, len(cm.Categories))
	if cm.N == 0 {
		return out
	}
	total := float64(2 * cm.N)
	for i := range cm.Categories {
		out[i] = float64(cm.rowTotal(i)+cm.colTotal(i)) / total
	}
	return out
}

func chanceCorrected(po, pe float64) model.Coefficient {
	v := (po - pe) / (1 - pe)
	// rounding can push a perfect score a hair outside the range
	v = math.Max(-1, math.Min(1, v))
	return model.Coefficient{Value: v, Interpretation: Interpret(v)}
}

// CohensKappa computes (Po - Pe) / (1 - Pe). Kappa is undefined when no
// rows were compared or only one category was observed on both sides.
func CohensKappa(cm *ConfusionMatrix) model.KappaStats {
	stats := model.KappaStats{
		Observed:   cm.ObservedAgreement(),
		Expected:   cm.ExpectedAgreement(),
		Categories: append([]string{}, cm.Categories...),
		Matrix:     make([][]int, len(cm.Counts)),
		N:          cm.N,
	}
	for i, row := range cm.Counts {
		stats.Matrix[i] = append([]int{}, row...)
	}

	if cm.degenerate() {
		stats.Kappa = model.Undefined()
		return stats
	}
	stats.Kappa = chanceCorrected(stats.Observed, stats.Expected)
	return stats
}

// ScottsPi uses the pooled marginals of both sides for chance agreement.
func ScottsPi(cm *ConfusionMatrix) model.Coefficient {
	if cm.degenerate() {
		return model.Undefined()
	}
	pe := 0.0
	for _, p := range cm.pooled() {
		pe += p * p
	}
	return chanceCorrected(cm.ObservedAgreement(), pe)
}

// GwetsAC1 uses Pe = sum(pi_k * (1 - pi_k)) / (K - 1) over the K categories
// of the axis, which stays stable under extreme prevalence.
func GwetsAC1(cm *ConfusionMatrix) model.Coefficient {
	k := len(cm.Categories)
	if cm.N == 0 || k < 2 {
		return model.Undefined()
	}
	pe := 0.0
	for _, p := range cm.pooled() {
		pe += p * (1 - p)
	}
	pe /= float64(k - 1)
	return chanceCorrected(cm.ObservedAgreement(), pe)
}

// KrippendorffAlpha is the nominal alpha for two coders without missing
// values, computed from the coincidence matrix.
func KrippendorffAlpha(cm *ConfusionMatrix) model.Coefficient {
	n := 2 * cm.N
	if n == 0 {
		return model.Undefined()
	}

	observedOff := 2 * (cm.N - cm.trace())
	expectedOff := n * n
	for i := range cm.Categories {
		nc := cm.rowTotal(i) + cm.colTotal(i)
		expectedOff -= nc * nc
	}
	if expectedOff == 0 {
		return model.Undefined()
	}

	v := 1 - float64(n-1)*float64(observedOff)/float64(expectedOff)
	return model.Coefficient{Value: v, Interpretation: Interpret(v)}
}
