package model

import (
	"encoding/json"
	"math"
)

// Coefficient is an agreement statistic. An undefined coefficient carries
// NaN and the Undefined flag instead of a misleading 0 or 1.
type Coefficient struct {
	Value          float64
	Undefined      bool
	Interpretation string
}

func Undefined() Coefficient {
	return Coefficient{Value: math.NaN(), Undefined: true, Interpretation: "Undefined"}
}

func (c Coefficient) MarshalJSON() ([]byte, error) {
	out := struct {
		Value          *float64 `json:"value"`
		Undefined      bool     `json:"undefined"`
		Interpretation string   `json:"interpretation,omitempty"`
	}{Undefined: c.Undefined, Interpretation: c.Interpretation}
	if !c.Undefined {
		v := c.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func (c *Coefficient) UnmarshalJSON(data []byte) error {
	var in struct {
		Value          *float64 `json:"value"`
		Undefined      bool     `json:"undefined"`
		Interpretation string   `json:"interpretation"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Undefined = in.Undefined || in.Value == nil
	c.Interpretation = in.Interpretation
	if c.Undefined {
		c.Value = math.NaN()
	} else {
		c.Value = *in.Value
	}
	return nil
}

// KappaStats is Cohen's Kappa together with the confusion matrix it was
// computed from. Matrix[i][j] counts rows whose reference value is
// Categories[i] and extracted value is Categories[j].
type KappaStats struct {
	Kappa      Coefficient `json:"kappa"`
	Observed   float64     `json:"observed_agreement"`
	Expected   float64     `json:"expected_agreement"`
	Categories []string    `json:"categories"`
	Matrix     [][]int     `json:"matrix"`
	N          int         `json:"n"`
}

type ColumnMetrics struct {
	Column        string `json:"column"`
	Mode          Mode   `json:"mode"`
	Compared      int    `json:"compared"`
	Agreements    int    `json:"agreements"`
	Disagreements int    `json:"disagreements"`
	Invalid       int    `json:"invalid"`

	PercentAgreement Coefficient `json:"percent_agreement"`

	// Chance-corrected statistics are nil for numeric columns.
	Kappa             *KappaStats  `json:"cohens_kappa,omitempty"`
	ScottsPi          *Coefficient `json:"scotts_pi,omitempty"`
	GwetsAC1          *Coefficient `json:"gwets_ac1,omitempty"`
	KrippendorffAlpha *Coefficient `json:"krippendorff_alpha,omitempty"`
	Recommendation    string       `json:"recommendation,omitempty"`
}

// Summary aggregates all columns of one comparison.
type Summary struct {
	Compared      int `json:"compared"`
	Agreements    int `json:"agreements"`
	Disagreements int `json:"disagreements"`
	Invalid       int `json:"invalid"`

	// OverallAgreement weights each column by its number of valid comparisons.
	OverallAgreement Coefficient `json:"overall_agreement"`
	WeightedKappa    Coefficient `json:"weighted_kappa"`

	PerfectColumns        []string `json:"perfect_columns"`
	DisagreeingColumns    []string `json:"disagreeing_columns"`
	UndefinedKappaColumns []string `json:"undefined_kappa_columns"`
}
