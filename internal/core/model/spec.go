package model

import (
	"fmt"
	"math"
)

type Mode string

const (
	ModeExact       Mode = "exact"
	ModeNumeric     Mode = "numeric"
	ModeCategorical Mode = "categorical"
)

// Normalization is applied to cell text before it is compared. Nothing is
// normalized unless asked for.
type Normalization struct {
	Trim     bool `json:"trim" toml:"trim" yaml:"trim"`
	CaseFold bool `json:"case_fold" toml:"case_fold" yaml:"case_fold"`
}

type ColumnSpec struct {
	Name      string        `json:"name" toml:"name" yaml:"name"`
	Mode      Mode          `json:"mode" toml:"mode" yaml:"mode" jsonschema:"enum=exact,enum=numeric,enum=categorical"`
	Tolerance *float64      `json:"tolerance,omitempty" toml:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Normalize Normalization `json:"normalize" toml:"normalize" yaml:"normalize"`
	// Categories is the canonical label set of a categorical column.
	Categories []string `json:"categories,omitempty" toml:"categories,omitempty" yaml:"categories,omitempty"`
	// Aliases maps a normalized raw value onto one of Categories, e.g. YES -> TRUE.
	Aliases map[string]string `json:"aliases,omitempty" toml:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// ComparisonSpec configures one comparison call. Exactly one of KeyColumn
// and KeyColumns is set.
type ComparisonSpec struct {
	KeyColumn    string        `json:"key_column,omitempty" toml:"key_column,omitempty" yaml:"key_column,omitempty"`
	KeyColumns   []string      `json:"key_columns,omitempty" toml:"key_columns,omitempty" yaml:"key_columns,omitempty"`
	KeyNormalize Normalization `json:"key_normalize" toml:"key_normalize" yaml:"key_normalize"`
	Columns      []ColumnSpec  `json:"columns" toml:"columns" yaml:"columns"`
}

// Keys returns the key column names in order.
func (s *ComparisonSpec) Keys() []string {
	if s.KeyColumn != "" {
		return []string{s.KeyColumn}
	}
	return s.KeyColumns
}

func (s *ComparisonSpec) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s *ComparisonSpec) Validate() error {
	switch {
	case s.KeyColumn != "" && len(s.KeyColumns) > 0:
		return &SpecError{Reason: "key_column and key_columns are mutually exclusive"}
	case s.KeyColumn == "" && len(s.KeyColumns) == 0:
		return &SpecError{Reason: "a key column is required"}
	}
	for _, k := range s.KeyColumns {
		if k == "" {
			return &SpecError{Reason: "key_columns contains an empty name"}
		}
	}
	if len(s.Columns) == 0 {
		return &SpecError{Reason: "at least one column must be compared"}
	}

	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return &SpecError{Reason: "column name must not be empty"}
		}
		if seen[c.Name] {
			return &SpecError{Column: c.Name, Reason: "declared more than once"}
		}
		seen[c.Name] = true
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *ColumnSpec) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return &SpecError{Column: c.Name, Reason: fmt.Sprintf(format, args...)}
	}

	switch c.Mode {
	case ModeExact:
	case ModeNumeric:
		if c.Tolerance == nil {
			return fail("numeric mode requires a tolerance")
		}
		if t := *c.Tolerance; math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return fail("tolerance must be a finite number >= 0, got %v", t)
		}
	case ModeCategorical:
		if len(c.Categories) == 0 {
			return fail("categorical mode requires categories")
		}
	case "":
		return fail("mode is required")
	default:
		return fail("unknown mode %q", c.Mode)
	}

	if c.Mode != ModeNumeric && c.Tolerance != nil {
		return fail("tolerance is only valid in numeric mode")
	}
	if c.Mode != ModeCategorical && (len(c.Categories) > 0 || len(c.Aliases) > 0) {
		return fail("categories and aliases are only valid in categorical mode")
	}
	return nil
}
