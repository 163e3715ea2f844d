// Package align pairs the rows of a reference and an extracted table by key.
package align

import (
	"sort"

	"github.com/agenthands/cross/internal/core/dedupe"
	"github.com/agenthands/cross/internal/core/model"
)

const (
	Reference = "reference"
	Extracted = "extracted"
)

// CheckSchema fails with a SchemaError for the first column of cols missing
// from either table, reference table first.
func CheckSchema(ref, ext *model.Table, cols []string) error {
	for _, side := range []struct {
		name  string
		table *model.Table
	}{{Reference, ref}, {Extracted, ext}} {
		for _, col := range cols {
			if !side.table.HasColumn(col) {
				return &model.SchemaError{Table: side.name, Column: col}
			}
		}
	}
	return nil
}

// Align partitions the keys of ref and ext into matched, reference-only and
// extracted-only keys. Neither table is modified.
func Align(ref, ext *model.Table, keyColumns []string, norm model.Normalization) (*model.Alignment, error) {
	if err := CheckSchema(ref, ext, keyColumns); err != nil {
		return nil, err
	}

	d := dedupe.NewDeduplicator(keyColumns, norm)
	refIdx, err := d.Index(Reference, ref)
	if err != nil {
		return nil, err
	}
	extIdx, err := d.Index(Extracted, ext)
	if err != nil {
		return nil, err
	}

	a := &model.Alignment{
		Matched:       []model.MatchedRow{},
		ReferenceOnly: []model.RowKey{},
		ExtractedOnly: []model.RowKey{},
	}
	for i, k := range refIdx.Keys {
		if j, ok := extIdx.Lookup(k); ok {
			a.Matched = append(a.Matched, model.MatchedRow{Key: k, ReferenceRow: i, ExtractedRow: j})
		} else {
			a.ReferenceOnly = append(a.ReferenceOnly, k)
		}
	}
	for _, k := range extIdx.Keys {
		if _, ok := refIdx.Lookup(k); !ok {
			a.ExtractedOnly = append(a.ExtractedOnly, k)
		}
	}

	sort.Slice(a.Matched, func(i, j int) bool { return a.Matched[i].Key < a.Matched[j].Key })
	sortKeys(a.ReferenceOnly)
	sortKeys(a.ExtractedOnly)
	return a, nil
}

func sortKeys(keys []model.RowKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
