package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/cross/internal/core/common"
	"github.com/agenthands/cross/internal/core/model"
)

// KeyIndex maps each row key of one table to its row position.
type KeyIndex struct {
	Keys  []model.RowKey // by row position
	index map[model.RowKey]int
}

func (k *KeyIndex) Lookup(key model.RowKey) (int, bool) {
	row, ok := k.index[key]
	return row, ok
}

// Deduplicator derives row keys and rejects tables where two rows share a
// key after normalization. Keys that differ only by surrounding whitespace
// or letter case are near-duplicates and are rejected whatever the
// configured normalization. There is no first-match resolution.
type Deduplicator struct {
	KeyColumns []string
	normalizer *common.Normalizer
	canonical  *common.Normalizer
}

func NewDeduplicator(keyColumns []string, norm model.Normalization) *Deduplicator {
	return &Deduplicator{
		KeyColumns: keyColumns,
		normalizer: common.NewNormalizer(norm),
		canonical:  common.NewNormalizer(model.Normalization{Trim: true, CaseFold: true}),
	}
}

func (d *Deduplicator) Key(r model.Record) model.RowKey {
	parts := make([]string, len(d.KeyColumns))
	for i, col := range d.KeyColumns {
		parts[i] = d.normalizer.Apply(r[col])
	}
	return model.NewRowKey(parts...)
}

// canonicalKey is the trimmed, case-folded form used to spot near-duplicates.
func (d *Deduplicator) canonicalKey(r model.Record) model.RowKey {
	parts := make([]string, len(d.KeyColumns))
	for i, col := range d.KeyColumns {
		parts[i] = d.canonical.Apply(r[col])
	}
	return model.NewRowKey(parts...)
}

func (d *Deduplicator) rawKey(r model.Record) string {
	parts := make([]string, len(d.KeyColumns))
	for i, col := range d.KeyColumns {
		parts[i] = r[col]
	}
	return strings.Join(parts, " | ")
}

// Duplicates returns one error per group of rows whose keys coincide after
// trimming and case folding, ordered by key. Each error carries the key of
// the group's first row.
func (d *Deduplicator) Duplicates(side string, t *model.Table) []*model.AmbiguousKeyError {
	rows := make(map[model.RowKey][]int)
	for i, r := range t.Rows {
		k := d.canonicalKey(r)
		rows[k] = append(rows[k], i)
	}

	var dups []*model.AmbiguousKeyError
	for _, positions := range rows {
		if len(positions) < 2 {
			continue
		}
		var variants []string
		seen := make(map[string]bool)
		for _, p := range positions {
			raw := d.rawKey(t.Rows[p])
			if !seen[raw] {
				seen[raw] = true
				variants = append(variants, raw)
			}
		}
		dups = append(dups, &model.AmbiguousKeyError{
			Table:    side,
			Key:      d.Key(t.Rows[positions[0]]),
			Rows:     positions,
			Variants: variants,
		})
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].Key < dups[j].Key })
	return dups
}

// Index builds the key index of t or fails with the first duplicated key.
func (d *Deduplicator) Index(side string, t *model.Table) (*KeyIndex, error) {
	for _, r := range t.Rows {
		for _, col := range d.KeyColumns {
			if !model.IsKeyPart(r[col]) {
				return nil, &model.SchemaError{Table: side, Column: col, Reason: fmt.Sprintf("key value %q contains a control separator", r[col])}
			}
		}
	}
	if dups := d.Duplicates(side, t); len(dups) > 0 {
		return nil, dups[0]
	}

	idx := &KeyIndex{
		Keys:  make([]model.RowKey, len(t.Rows)),
		index: make(map[model.RowKey]int, len(t.Rows)),
	}
	for i, r := range t.Rows {
		k := d.Key(r)
		idx.Keys[i] = k
		idx.index[k] = i
	}
	return idx, nil
}
