package compare

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agenthands/cross/internal/core/common"
	"github.com/agenthands/cross/internal/core/model"
)

// Matcher decides agreement for one column. Matchers hold a Normalizer and
// are built per comparison call.
type Matcher interface {
	Match(ref, ext string) model.Cell
}

func NewMatcher(spec model.ColumnSpec) (Matcher, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	norm := common.NewNormalizer(spec.Normalize)

	switch spec.Mode {
	case model.ModeExact:
		return &exactMatcher{column: spec.Name, norm: norm}, nil
	case model.ModeNumeric:
		return &numericMatcher{column: spec.Name, norm: norm, tolerance: *spec.Tolerance}, nil
	case model.ModeCategorical:
		return newCategoricalMatcher(spec, norm)
	}
	return nil, &model.SpecError{Column: spec.Name, Reason: fmt.Sprintf("unknown mode %q", spec.Mode)}
}

type exactMatcher struct {
	column string
	norm   *common.Normalizer
}

func (m *exactMatcher) Match(ref, ext string) model.Cell {
	nr, ne := m.norm.Apply(ref), m.norm.Apply(ext)
	return decide(m.column, ref, ext, nr, ne, nr == ne)
}

type numericMatcher struct {
	column    string
	norm      *common.Normalizer
	tolerance float64
}

func (m *numericMatcher) Match(ref, ext string) model.Cell {
	nr, ne := m.norm.Apply(ref), m.norm.Apply(ext)
	a, okRef := common.ParseNumber(nr)
	b, okExt := common.ParseNumber(ne)

	if okRef {
		nr = strconv.FormatFloat(a, 'f', -1, 64)
	}
	if okExt {
		ne = strconv.FormatFloat(b, 'f', -1, 64)
	}

	if !okRef || !okExt {
		var errs []error
		if !okRef {
			errs = append(errs, &model.TypeMismatchError{Column: m.column, Side: model.SideReference, Value: ref})
		}
		if !okExt {
			errs = append(errs, &model.TypeMismatchError{Column: m.column, Side: model.SideExtracted, Value: ext})
		}
		return invalid(m.column, ref, ext, nr, ne, model.IssueTypeMismatch, sideOf(okRef, okExt), errs)
	}

	return decide(m.column, ref, ext, nr, ne, math.Abs(a-b) <= m.tolerance)
}

type categoricalMatcher struct {
	column     string
	norm       *common.Normalizer
	categories map[string]bool
	aliases    map[string]string
}

func newCategoricalMatcher(spec model.ColumnSpec, norm *common.Normalizer) (*categoricalMatcher, error) {
	m := &categoricalMatcher{
		column:     spec.Name,
		norm:       norm,
		categories: make(map[string]bool, len(spec.Categories)),
		aliases:    make(map[string]string, len(spec.Aliases)),
	}
	for _, c := range spec.Categories {
		n := norm.Apply(c)
		if m.categories[n] {
			return nil, &model.SpecError{Column: spec.Name, Reason: fmt.Sprintf("category %q is declared more than once after normalization", c)}
		}
		m.categories[n] = true
	}
	froms := make([]string, 0, len(spec.Aliases))
	for from := range spec.Aliases {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		to := spec.Aliases[from]
		target := norm.Apply(to)
		if !m.categories[target] {
			return nil, &model.SpecError{Column: spec.Name, Reason: fmt.Sprintf("alias %q targets undeclared category %q", from, to)}
		}
		key := norm.Apply(from)
		if prev, ok := m.aliases[key]; ok && prev != target {
			return nil, &model.SpecError{Column: spec.Name, Reason: fmt.Sprintf("alias %q collides with another alias after normalization", from)}
		}
		m.aliases[key] = target
	}
	return m, nil
}

func (m *categoricalMatcher) canonical(s string) (string, bool) {
	n := m.norm.Apply(s)
	if to, ok := m.aliases[n]; ok {
		n = to
	}
	return n, m.categories[n]
}

func (m *categoricalMatcher) Match(ref, ext string) model.Cell {
	nr, okRef := m.canonical(ref)
	ne, okExt := m.canonical(ext)

	if !okRef || !okExt {
		var errs []error
		if !okRef {
			errs = append(errs, &model.UnknownCategoryError{Column: m.column, Side: model.SideReference, Value: ref})
		}
		if !okExt {
			errs = append(errs, &model.UnknownCategoryError{Column: m.column, Side: model.SideExtracted, Value: ext})
		}
		return invalid(m.column, ref, ext, nr, ne, model.IssueUnknownCategory, sideOf(okRef, okExt), errs)
	}

	return decide(m.column, ref, ext, nr, ne, nr == ne)
}

func decide(column, ref, ext, nr, ne string, agree bool) model.Cell {
	status := model.StatusDisagree
	if agree {
		status = model.StatusAgree
	}
	return model.Cell{
		Column:              column,
		Reference:           ref,
		Extracted:           ext,
		NormalizedReference: nr,
		NormalizedExtracted: ne,
		Status:              status,
		Agreement:           agree,
	}
}

func invalid(column, ref, ext, nr, ne string, kind model.IssueKind, side model.Side, errs []error) model.Cell {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return model.Cell{
		Column:              column,
		Reference:           ref,
		Extracted:           ext,
		NormalizedReference: nr,
		NormalizedExtracted: ne,
		Status:              model.StatusInvalid,
		Issue: &model.CellIssue{
			Kind:    kind,
			Side:    side,
			Message: strings.Join(msgs, "; "),
		},
	}
}

// sideOf names the side(s) that failed given which sides parsed.
func sideOf(okRef, okExt bool) model.Side {
	switch {
	case !okRef && !okExt:
		return model.SideBoth
	case !okRef:
		return model.SideReference
	}
	return model.SideExtracted
}
