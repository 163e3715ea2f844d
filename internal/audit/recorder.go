// Package audit keeps a trail of comparison runs in Memgraph: one
// ComparisonRun node per run, linked to its column metrics and disagreements.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/cross/internal/core/model"
	"github.com/agenthands/cross/internal/driver"
)

type Recorder struct {
	Driver driver.GraphDriver
	Logger hclog.Logger
	// Now stamps recorded runs; time.Now by default.
	Now func() time.Time
}

func NewRecorder(d driver.GraphDriver, logger hclog.Logger) *Recorder {
	return &Recorder{Driver: d, Logger: logger, Now: time.Now}
}

// RunRecord is the stored header of one run.
type RunRecord struct {
	RunID            string   `json:"run_id"`
	RecordedAt       string   `json:"recorded_at"`
	Reference        string   `json:"reference"`
	Extracted        string   `json:"extracted"`
	OverallAgreement *float64 `json:"overall_agreement"`
	WeightedKappa    *float64 `json:"weighted_kappa"`
}

// Record stores res. Recording the same run twice overwrites it.
func (r *Recorder) Record(ctx context.Context, res *model.Result) error {
	sum := res.Summary
	params := map[string]interface{}{
		"run_id":            res.RunID,
		"recorded_at":       r.Now().UTC().Format(time.RFC3339Nano),
		"reference":         res.Overview.Reference.Name,
		"extracted":         res.Overview.Extracted.Name,
		"key_columns":       res.Spec.Keys(),
		"matched":           len(res.MatchedKeys),
		"reference_only":    res.Report.ReferenceOnlyCount,
		"extracted_only":    res.Report.ExtractedOnlyCount,
		"compared":          sum.Compared,
		"agreements":        sum.Agreements,
		"invalid":           sum.Invalid,
		"overall_agreement": value(sum.OverallAgreement),
		"weighted_kappa":    value(sum.WeightedKappa),
	}
	if _, err := r.Driver.ExecuteQuery(ctx, driver.SaveComparisonRunQuery, params); err != nil {
		return fmt.Errorf("failed to save comparison run: %w", err)
	}

	columns := make([]map[string]interface{}, len(res.Metrics))
	for i, m := range res.Metrics {
		var kappa interface{}
		if m.Kappa != nil {
			kappa = value(m.Kappa.Kappa)
		}
		columns[i] = map[string]interface{}{
			"column":            m.Column,
			"mode":              string(m.Mode),
			"compared":          m.Compared,
			"agreements":        m.Agreements,
			"disagreements":     m.Disagreements,
			"invalid":           m.Invalid,
			"percent_agreement": value(m.PercentAgreement),
			"kappa":             kappa,
			"recommendation":    m.Recommendation,
		}
	}
	if len(columns) > 0 {
		_, err := r.Driver.ExecuteQuery(ctx, driver.SaveColumnMetricsQuery, map[string]interface{}{
			"run_id":  res.RunID,
			"columns": columns,
		})
		if err != nil {
			return fmt.Errorf("failed to save column metrics: %w", err)
		}
	}

	if len(res.Report.Disagreements) > 0 {
		rows := make([]map[string]interface{}, len(res.Report.Disagreements))
		for i, d := range res.Report.Disagreements {
			rows[i] = map[string]interface{}{
				"key":       d.Key.String(),
				"column":    d.Column,
				"reference": d.Reference,
				"extracted": d.Extracted,
				"reason":    string(d.Reason),
				"detail":    d.Detail,
			}
		}
		_, err := r.Driver.ExecuteQuery(ctx, driver.SaveDisagreementsQuery, map[string]interface{}{
			"run_id":        res.RunID,
			"disagreements": rows,
		})
		if err != nil {
			return fmt.Errorf("failed to save disagreements: %w", err)
		}
	}

	r.Logger.Debug("recorded comparison run", "run_id", res.RunID, "disagreements", len(res.Report.Disagreements))
	return nil
}

// Recent lists the latest recorded runs, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	res, err := r.Driver.ExecuteQuery(ctx, driver.GetRecentRunsQuery, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]RunRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		runs = append(runs, RunRecord{
			RunID:            str(rec, "run_id"),
			RecordedAt:       str(rec, "recorded_at"),
			Reference:        str(rec, "reference"),
			Extracted:        str(rec, "extracted"),
			OverallAgreement: number(rec, "overall_agreement"),
			WeightedKappa:    number(rec, "weighted_kappa"),
		})
	}
	return runs, nil
}

// value maps an undefined coefficient to a null property.
func value(c model.Coefficient) interface{} {
	if c.Undefined {
		return nil
	}
	return c.Value
}

func str(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func number(rec *neo4j.Record, key string) *float64 {
	v, _ := rec.Get(key)
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}
