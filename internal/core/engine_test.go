package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cross/internal/core/model"
)

// table builds a two-column Title/Software table from key/value pairs.
func table(name string, pairs ...string) *model.Table {
	t := &model.Table{Name: name, Columns: []string{"Title", "Software"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Rows = append(t.Rows, model.Record{"Title": pairs[i], "Software": pairs[i+1]})
	}
	return t
}

func exactSpec() model.ComparisonSpec {
	return model.ComparisonSpec{
		KeyColumn: "Title",
		Columns:   []model.ColumnSpec{{Name: "Software", Mode: model.ModeExact}},
	}
}

func TestComparePercentAgreement(t *testing.T) {
	e := NewEngine()
	res, err := e.Compare(context.Background(),
		table("ref", "A", "yes", "B", "no"),
		table("ext", "A", "yes", "B", "yes"),
		exactSpec())
	require.NoError(t, err)

	require.Len(t, res.Metrics, 1)
	assert.InDelta(t, 0.5, res.Metrics[0].PercentAgreement.Value, 1e-12)
	require.Len(t, res.Report.Disagreements, 1)
	d := res.Report.Disagreements[0]
	assert.Equal(t, model.RowKey("B"), d.Key)
	assert.Equal(t, "Software", d.Column)
	assert.Equal(t, model.ReasonValueMismatch, d.Reason)
	assert.Equal(t, []model.RowKey{"A", "B"}, res.MatchedKeys)
	assert.NotEmpty(t, res.RunID)
}

func TestCompareReferenceOnlyKey(t *testing.T) {
	res, err := NewEngine().Compare(context.Background(),
		table("ref", "A", "yes", "C", "no"),
		table("ext", "A", "yes", "D", "no"),
		exactSpec())
	require.NoError(t, err)

	assert.Equal(t, []model.RowKey{"C"}, res.Report.ReferenceOnly)
	assert.Equal(t, []model.RowKey{"D"}, res.Report.ExtractedOnly)
	assert.Equal(t, 1, res.Report.ReferenceOnlyCount)
	for _, row := range res.Table.Rows {
		assert.NotEqual(t, model.RowKey("C"), row.Key)
	}
	assert.Equal(t, 1, res.Metrics[0].Compared)
}

func TestCompareDuplicateKeyFails(t *testing.T) {
	res, err := NewEngine().Compare(context.Background(),
		table("ref", "A", "yes", "A", "no"),
		table("ext", "A", "yes"),
		exactSpec())

	assert.Nil(t, res)
	require.ErrorIs(t, err, model.ErrAmbiguousKey)
	var ambiguous *model.AmbiguousKeyError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, model.RowKey("A"), ambiguous.Key)
	assert.Equal(t, "reference", ambiguous.Table)
	assert.Equal(t, []int{0, 1}, ambiguous.Rows)
}

func TestCompareWhitespaceKeyVariantFails(t *testing.T) {
	res, err := NewEngine().Compare(context.Background(),
		table("ref", "Paper A", "yes", "Paper A ", "no"),
		table("ext", "Paper A", "yes"),
		exactSpec())

	assert.Nil(t, res)
	assert.ErrorIs(t, err, model.ErrAmbiguousKey)
	assert.Equal(t, "ambiguous_key", model.ErrorKind(err))
}

func TestCompareSingleCategoryKappaUndefined(t *testing.T) {
	spec := model.ComparisonSpec{
		KeyColumn: "Title",
		Columns: []model.ColumnSpec{{
			Name: "Software", Mode: model.ModeCategorical, Categories: []string{"yes", "no"},
		}},
	}
	res, err := NewEngine().Compare(context.Background(),
		table("ref", "A", "yes", "B", "yes"),
		table("ext", "A", "yes", "B", "yes"),
		spec)
	require.NoError(t, err)

	m := res.Metrics[0]
	require.NotNil(t, m.Kappa)
	assert.True(t, m.Kappa.Kappa.Undefined)
	assert.True(t, math.IsNaN(m.Kappa.Kappa.Value))
	assert.InDelta(t, 1.0, m.PercentAgreement.Value, 1e-12)
	assert.Equal(t, []string{"Software"}, res.Summary.UndefinedKappaColumns)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kappa":{"value":null,"undefined":true`)
}

func TestCompareMissingColumn(t *testing.T) {
	ext := &model.Table{Columns: []string{"Title"}, Rows: []model.Record{{"Title": "A"}}}
	res, err := NewEngine().Compare(context.Background(), table("ref", "A", "yes"), ext, exactSpec())

	assert.Nil(t, res)
	var schema *model.SchemaError
	require.True(t, errors.As(err, &schema))
	assert.Equal(t, "extracted", schema.Table)
	assert.Equal(t, "Software", schema.Column)
}

func TestCompareInvalidSpec(t *testing.T) {
	spec := exactSpec()
	spec.KeyColumn = ""
	_, err := NewEngine().Compare(context.Background(), table("ref"), table("ext"), spec)
	assert.ErrorIs(t, err, model.ErrInvalidSpec)
}

func TestCompareNumericTypeMismatchIsNotFatal(t *testing.T) {
	tol := 0.5
	spec := model.ComparisonSpec{
		KeyColumn: "Title",
		Columns:   []model.ColumnSpec{{Name: "Software", Mode: model.ModeNumeric, Tolerance: &tol}},
	}
	res, err := NewEngine().Compare(context.Background(),
		table("ref", "A", "1.0", "B", "2", "C", "n/a"),
		table("ext", "A", "1.4", "B", "3", "C", "4"),
		spec)
	require.NoError(t, err)

	m := res.Metrics[0]
	assert.Equal(t, 1, m.Agreements)
	assert.Equal(t, 1, m.Disagreements)
	assert.Equal(t, 1, m.Invalid)
	assert.InDelta(t, 0.5, m.PercentAgreement.Value, 1e-12)
	require.Len(t, res.Report.Disagreements, 2)
	assert.Equal(t, model.ReasonTypeMismatch, res.Report.Disagreements[1].Reason)
}

func TestComparePartitionsAreExhaustiveAndDisjoint(t *testing.T) {
	ref := table("ref", "A", "1", "B", "2", "C", "3", "E", "5")
	ext := table("ext", "B", "2", "C", "x", "D", "4")
	res, err := NewEngine().Compare(context.Background(), ref, ext, exactSpec())
	require.NoError(t, err)

	seen := map[model.RowKey]int{}
	for _, k := range res.MatchedKeys {
		seen[k]++
	}
	for _, k := range res.Report.ReferenceOnly {
		seen[k]++
	}
	for _, k := range res.Report.ExtractedOnly {
		seen[k]++
	}
	assert.Len(t, seen, 5)
	for k, n := range seen {
		assert.Equal(t, 1, n, "key %s", k)
	}
}

func TestCompareIsDeterministicAndDoesNotMutate(t *testing.T) {
	ref := table("ref", "B", "no", "A", "yes", "C", "maybe")
	ext := table("ext", "C", "maybe", "A", "no", "B", "no")
	refBefore, _ := json.Marshal(ref)
	extBefore, _ := json.Marshal(ext)

	e := NewEngine()
	first, err := e.Compare(context.Background(), ref, ext, exactSpec())
	require.NoError(t, err)
	second, err := e.Compare(context.Background(), ref, ext, exactSpec())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, first.RunID, second.RunID)

	refAfter, _ := json.Marshal(ref)
	extAfter, _ := json.Marshal(ext)
	assert.Equal(t, refBefore, refAfter)
	assert.Equal(t, extBefore, extAfter)
}

func TestRunIDDependsOnInputs(t *testing.T) {
	a, err := RunID(table("ref", "A", "yes"), table("ext", "A", "yes"), exactSpec())
	require.NoError(t, err)
	b, err := RunID(table("ref", "A", "yes"), table("ext", "A", "no"), exactSpec())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCompareCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewEngine().Compare(ctx, table("ref", "A", "yes"), table("ext", "A", "yes"), exactSpec())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOverview(t *testing.T) {
	ref := &model.Table{Name: "table_1", Columns: []string{"Title", "Software", "Year"}, Rows: []model.Record{{}, {}}}
	ext := &model.Table{Name: "table_2", Columns: []string{"Title", "Year", "Notes"}, Rows: []model.Record{{}, {}}}

	o := NewEngine().Overview(ref, ext)
	assert.Equal(t, []string{"Title", "Year"}, o.CommonColumns)
	assert.Equal(t, []string{"Software"}, o.OnlyInReference)
	assert.Equal(t, []string{"Notes"}, o.OnlyInExtracted)
	assert.True(t, o.RowCountMatch)
	assert.Equal(t, 2, o.Reference.RowCount)
}

func TestCompareBatch(t *testing.T) {
	var jobs []Job
	for i := 0; i < 6; i++ {
		jobs = append(jobs, Job{
			ID:        fmt.Sprintf("job-%d", i),
			Reference: table("ref", "A", "yes", "B", "no"),
			Extracted: table("ext", "A", "yes", "B", "no"),
			Spec:      exactSpec(),
		})
	}
	jobs[2].Reference = table("ref", "A", "yes", "A", "no")
	jobs[4].Extracted = nil

	results, err := NewEngine().CompareBatch(context.Background(), jobs, 2)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, r := range results {
		assert.Equal(t, jobs[i].ID, r.ID)
		switch i {
		case 2:
			assert.ErrorIs(t, r.Err, model.ErrAmbiguousKey)
			assert.Nil(t, r.Result)
		case 4:
			assert.Error(t, r.Err)
		default:
			require.NoError(t, r.Err)
			assert.InDelta(t, 1.0, r.Result.Summary.OverallAgreement.Value, 1e-12)
		}
	}
}

func TestCompareBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().CompareBatch(ctx, []Job{{ID: "x"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
