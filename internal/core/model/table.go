package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one row of a table, column name -> raw cell text.
// Missing columns read as the empty string.
type Record map[string]string

// UnmarshalJSON accepts any JSON scalar as a cell value.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*r = nil
		return nil
	}

	out := make(Record, len(raw))
	for col, v := range raw {
		s, err := scalarString(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", col, err)
		}
		out[col] = s
	}
	*r = out
	return nil
}

func scalarString(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		if f, err := val.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return val.String(), nil
	default:
		return "", fmt.Errorf("unsupported cell value of type %T", v)
	}
}

type Table struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

func (t *Table) UnmarshalJSON(data []byte) error {
	type plain Table
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Columns) == 0 {
		p.Columns = InferColumns(p.Rows)
	}
	*t = Table(p)
	return nil
}

func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// InferColumns returns the sorted union of keys used by rows.
func InferColumns(rows []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for col := range r {
			seen[col] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// keySep separates composite key parts. It sorts below every printable
// character so RowKey ordering matches part-wise ordering.
const keySep = "\x1f"

// RowKey aligns a row across the two tables. Composite keys hold one part
// per key column.
type RowKey string

func NewRowKey(parts ...string) RowKey {
	return RowKey(strings.Join(parts, keySep))
}

// IsKeyPart reports whether s can be one part of a composite key.
func IsKeyPart(s string) bool {
	return !strings.Contains(s, keySep)
}

func (k RowKey) Parts() []string {
	return strings.Split(string(k), keySep)
}

func (k RowKey) String() string {
	return strings.ReplaceAll(string(k), keySep, " | ")
}

func (k RowKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TableInfo mirrors what the loader reports about a table without its rows.
type TableInfo struct {
	Name     string   `json:"name,omitempty"`
	Columns  []string `json:"columns"`
	RowCount int      `json:"row_count"`
}

func (t *Table) Info() TableInfo {
	return TableInfo{
		Name:     t.Name,
		Columns:  append([]string(nil), t.Columns...),
		RowCount: len(t.Rows),
	}
}

type Overview struct {
	Reference       TableInfo `json:"reference"`
	Extracted       TableInfo `json:"extracted"`
	CommonColumns   []string  `json:"common_columns"`
	OnlyInReference []string  `json:"only_in_reference"`
	OnlyInExtracted []string  `json:"only_in_extracted"`
	RowCountMatch   bool      `json:"row_count_match"`
}
