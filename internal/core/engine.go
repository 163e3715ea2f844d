// Package core runs the comparison pipeline: Align, Compare, Aggregate and
// Report. The engine holds no per-call state and never modifies its inputs.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/cross/internal/core/align"
	"github.com/agenthands/cross/internal/core/compare"
	"github.com/agenthands/cross/internal/core/metrics"
	"github.com/agenthands/cross/internal/core/model"
	"github.com/agenthands/cross/internal/core/report"
	"github.com/agenthands/cross/internal/observability"
)

// runNamespace scopes the name-based run IDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/agenthands/cross/runs"))

type Engine struct {
	Logger hclog.Logger
	tracer trace.Tracer
}

type Option func(*Engine)

func WithLogger(l hclog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		Logger: hclog.NewNullLogger(),
		tracer: observability.Tracer("github.com/agenthands/cross/internal/core"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compare runs the full pipeline. Fatal errors (invalid comparison, missing
// columns, ambiguous keys, cancellation) yield no result at all.
func (e *Engine) Compare(ctx context.Context, ref, ext *model.Table, spec model.ComparisonSpec) (res *model.Result, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "cross.compare", trace.WithAttributes(
		attribute.Int("reference.rows", len(ref.Rows)),
		attribute.Int("extracted.rows", len(ext.Rows)),
		attribute.Int("columns", len(spec.Columns)),
	))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		observability.RecordComparison(outcome, time.Since(start))
	}()

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	keys := spec.Keys()
	if err := align.CheckSchema(ref, ext, append(append([]string{}, keys...), spec.ColumnNames()...)); err != nil {
		return nil, err
	}

	var alignment *model.Alignment
	err = e.stage(ctx, "align", func() error {
		var err error
		alignment, err = align.Align(ref, ext, keys, spec.KeyNormalize)
		return err
	})
	if err != nil {
		return nil, err
	}

	var table *model.ComparisonTable
	err = e.stage(ctx, "compare", func() error {
		var err error
		table, err = compare.Compare(ref, ext, alignment, spec.Columns)
		return err
	})
	if err != nil {
		return nil, err
	}

	columns := make([]model.ColumnMetrics, len(spec.Columns))
	var summary model.Summary
	err = e.stage(ctx, "aggregate", func() error {
		for i, col := range spec.Columns {
			columns[i] = metrics.Column(col, table.Column(col.Name))
		}
		summary = metrics.Aggregate(columns)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var rep model.Report
	err = e.stage(ctx, "report", func() error {
		rep = report.Build(table, alignment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID, err := RunID(ref, ext, spec)
	if err != nil {
		return nil, err
	}

	matched := make([]model.RowKey, len(alignment.Matched))
	for i, m := range alignment.Matched {
		matched[i] = m.Key
	}

	observability.RecordCells(summary.Agreements, summary.Disagreements, summary.Invalid)
	e.Logger.Debug("comparison finished",
		"run_id", runID,
		"matched", len(matched),
		"reference_only", rep.ReferenceOnlyCount,
		"extracted_only", rep.ExtractedOnlyCount,
		"disagreements", len(rep.Disagreements))

	return &model.Result{
		RunID:       runID,
		Spec:        spec,
		Overview:    e.Overview(ref, ext),
		MatchedKeys: matched,
		Table:       *table,
		Metrics:     columns,
		Summary:     summary,
		Report:      rep,
	}, nil
}

// stage runs fn under its own span unless ctx is already done.
func (e *Engine) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, span := e.tracer.Start(ctx, "cross."+name)
	defer span.End()

	start := time.Now()
	if err := fn(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.Logger.Debug("stage failed", "stage", name, "error", err)
		return err
	}
	e.Logger.Trace("stage complete", "stage", name, "duration", time.Since(start))
	return nil
}

func outcomeOf(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	if kind := model.ErrorKind(err); kind != "" {
		return kind
	}
	return "error"
}

// RunID derives a name-based UUID from the canonical JSON of the inputs, so
// identical calls report identical IDs.
func RunID(ref, ext *model.Table, spec model.ComparisonSpec) (string, error) {
	data, err := json.Marshal(struct {
		Reference *model.Table         `json:"reference"`
		Extracted *model.Table         `json:"extracted"`
		Spec      model.ComparisonSpec `json:"spec"`
	}{ref, ext, spec})
	if err != nil {
		return "", fmt.Errorf("failed to encode run inputs: %w", err)
	}
	return uuid.NewSHA1(runNamespace, data).String(), nil
}

// Overview reports the shape of both tables and their column overlap.
func (e *Engine) Overview(ref, ext *model.Table) model.Overview {
	o := model.Overview{
		Reference:       ref.Info(),
		Extracted:       ext.Info(),
		CommonColumns:   []string{},
		OnlyInReference: []string{},
		OnlyInExtracted: []string{},
		RowCountMatch:   len(ref.Rows) == len(ext.Rows),
	}
	for _, c := range ref.Columns {
		if ext.HasColumn(c) {
			o.CommonColumns = append(o.CommonColumns, c)
		} else {
			o.OnlyInReference = append(o.OnlyInReference, c)
		}
	}
	for _, c := range ext.Columns {
		if !ref.HasColumn(c) {
			o.OnlyInExtracted = append(o.OnlyInExtracted, c)
		}
	}
	return o
}

// Job is one independent comparison of a batch.
type Job struct {
	ID        string               `json:"id"`
	Reference *model.Table         `json:"reference"`
	Extracted *model.Table         `json:"extracted"`
	Spec      model.ComparisonSpec `json:"spec"`
}

type JobResult struct {
	ID     string
	Result *model.Result
	Err    error
}

// CompareBatch runs jobs with at most limit in flight. A failing job does not
// stop the others; results keep the order of jobs. The returned error is only
// set when ctx ends before every job was started.
func (e *Engine) CompareBatch(ctx context.Context, jobs []Job, limit int) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))
	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, job := range jobs {
		i, job := i, job
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return nil, err
		}
		g.Go(func() error {
			results[i] = JobResult{ID: job.ID}
			if job.Reference == nil || job.Extracted == nil {
				results[i].Err = fmt.Errorf("job %q: reference and extracted tables are required", job.ID)
				return nil
			}
			res, err := e.Compare(ctx, job.Reference, job.Extracted, job.Spec)
			results[i].Result, results[i].Err = res, err
			if err != nil {
				e.Logger.Warn("batch job failed", "job", job.ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
