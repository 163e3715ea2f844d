package model

type Side string

const (
	SideReference Side = "reference"
	SideExtracted Side = "extracted"
	SideBoth      Side = "both"
)

type CellStatus string

const (
	StatusAgree    CellStatus = "agree"
	StatusDisagree CellStatus = "disagree"
	// StatusInvalid cells are excluded from metric denominators.
	StatusInvalid CellStatus = "invalid"
)

type IssueKind string

const (
	IssueTypeMismatch    IssueKind = "type_mismatch"
	IssueUnknownCategory IssueKind = "unknown_category"
)

type CellIssue struct {
	Kind    IssueKind `json:"kind"`
	Side    Side      `json:"side"`
	Message string    `json:"message"`
}

// Cell is the outcome of comparing one column of one matched row.
type Cell struct {
	Column              string     `json:"column"`
	Reference           string     `json:"reference"`
	Extracted           string     `json:"extracted"`
	NormalizedReference string     `json:"normalized_reference"`
	NormalizedExtracted string     `json:"normalized_extracted"`
	Status              CellStatus `json:"status"`
	Agreement           bool       `json:"agreement"`
	Issue               *CellIssue `json:"issue,omitempty"`
}

func (c Cell) Valid() bool {
	return c.Status != StatusInvalid
}

// MatchedRow pairs the positions of one key in both tables.
type MatchedRow struct {
	Key          RowKey `json:"key"`
	ReferenceRow int    `json:"reference_row"`
	ExtractedRow int    `json:"extracted_row"`
}

// Alignment partitions the keys of both tables. The three partitions are
// disjoint and each is sorted by key.
type Alignment struct {
	Matched       []MatchedRow `json:"matched"`
	ReferenceOnly []RowKey     `json:"reference_only"`
	ExtractedOnly []RowKey     `json:"extracted_only"`
}

type ComparedRow struct {
	MatchedRow
	Cells []Cell `json:"cells"`
}

// ComparisonTable holds one row per matched key, cells in declared column order.
type ComparisonTable struct {
	Columns []string      `json:"columns"`
	Rows    []ComparedRow `json:"rows"`
}

// Column returns the cells of the named column in row order.
func (t *ComparisonTable) Column(name string) []Cell {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	cells := make([]Cell, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells = append(cells, r.Cells[idx])
	}
	return cells
}
