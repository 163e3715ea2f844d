package common

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/agenthands/cross/internal/core/model"
)

// Normalizer applies a model.Normalization to cell text.
// It wraps a cases.Caser and must not be shared between goroutines.
type Normalizer struct {
	trim     bool
	caseFold bool
	folder   cases.Caser
}

func NewNormalizer(n model.Normalization) *Normalizer {
	norm := &Normalizer{trim: n.Trim, caseFold: n.CaseFold}
	if n.CaseFold {
		norm.folder = cases.Fold()
	}
	return norm
}

func (n *Normalizer) Apply(s string) string {
	if n.trim {
		s = strings.TrimSpace(s)
	}
	if n.caseFold {
		s = n.folder.String(s)
	}
	return s
}

// ParseNumber reports whether s is a finite decimal number.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
