package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSchema          = errors.New("schema error")
	ErrAmbiguousKey    = errors.New("ambiguous key")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidSpec     = errors.New("invalid comparison spec")
)

// SchemaError reports a required column missing from a table, or a key
// column holding values that cannot form a key. It aborts the whole
// comparison.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("column %q in %s table: %s", e.Column, e.Table, e.Reason)
	}
	return fmt.Sprintf("column %q not found in %s table", e.Column, e.Table)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// AmbiguousKeyError reports a key shared by several rows of one table.
// Variants holds the distinct raw key texts of the colliding rows; more than
// one means key normalization folded near-duplicates together.
type AmbiguousKeyError struct {
	Table    string
	Key      RowKey
	Rows     []int
	Variants []string
}

func (e *AmbiguousKeyError) Error() string {
	msg := fmt.Sprintf("key %q appears %d times in %s table (rows %s)",
		e.Key.String(), len(e.Rows), e.Table, joinInts(e.Rows))
	if len(e.Variants) > 1 {
		msg += fmt.Sprintf(" as %s", quoteAll(e.Variants))
	}
	return msg
}

func (e *AmbiguousKeyError) Unwrap() error {
	return ErrAmbiguousKey
}

// TypeMismatchError marks a numeric cell whose text is not a finite number.
type TypeMismatchError struct {
	Column string
	Side   Side
	Value  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q: %s value %q is not numeric", e.Column, e.Side, e.Value)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// UnknownCategoryError marks a categorical cell outside the declared set.
type UnknownCategoryError struct {
	Column string
	Side   Side
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("column %q: %s value %q is not a declared category", e.Column, e.Side, e.Value)
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}

type SpecError struct {
	Column string
	Reason string
}

func (e *SpecError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("invalid comparison spec: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("invalid comparison spec: %s", e.Reason)
}

func (e *SpecError) Unwrap() error {
	return ErrInvalidSpec
}

// ErrorKind names the taxonomy entry of err, or "" for foreign errors.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrSchema):
		return "schema_error"
	case errors.Is(err, ErrAmbiguousKey):
		return "ambiguous_key"
	case errors.Is(err, ErrInvalidSpec):
		return "invalid_spec"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrUnknownCategory):
		return "unknown_category"
	}
	return ""
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}

func quoteAll(xs []string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%q", x)
	}
	return strings.Join(parts, ", ")
}
