package model

type Reason string

const (
	ReasonValueMismatch   Reason = "value_mismatch"
	ReasonTypeMismatch    Reason = "type_mismatch"
	ReasonUnknownCategory Reason = "unknown_category"
)

type Disagreement struct {
	Key       RowKey `json:"key"`
	Column    string `json:"column"`
	Reference string `json:"reference"`
	Extracted string `json:"extracted"`
	Reason    Reason `json:"reason"`
	Detail    string `json:"detail,omitempty"`
}

// Transition counts how often a reference value turned into a given
// extracted value in one column.
type Transition struct {
	Column string `json:"column"`
	From   string `json:"from"`
	To     string `json:"to"`
	Count  int    `json:"count"`
}

// Report lists every disagreement ordered by key, then column position.
type Report struct {
	Disagreements      []Disagreement `json:"disagreements"`
	ReferenceOnly      []RowKey       `json:"reference_only"`
	ExtractedOnly      []RowKey       `json:"extracted_only"`
	ReferenceOnlyCount int            `json:"reference_only_count"`
	ExtractedOnlyCount int            `json:"extracted_only_count"`
	Transitions        []Transition   `json:"transitions"`
}

type Result struct {
	RunID       string          `json:"run_id"`
	Spec        ComparisonSpec  `json:"spec"`
	Overview    Overview        `json:"overview"`
	MatchedKeys []RowKey        `json:"matched_keys"`
	Table       ComparisonTable `json:"comparison_table"`
	Metrics     []ColumnMetrics `json:"metrics"`
	Summary     Summary         `json:"summary"`
	Report      Report          `json:"report"`
}
