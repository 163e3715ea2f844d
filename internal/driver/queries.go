package driver

// IndexQueries are run once at start-up by BuildIndices.
var IndexQueries = []string{
	"CREATE INDEX ON :ComparisonRun(run_id);",
	"CREATE INDEX ON :ComparisonRun(reference);",
	"CREATE INDEX ON :ColumnMetric(run_id);",
	"CREATE INDEX ON :Disagreement(run_id);",
}

const (
	SaveComparisonRunQuery = `
		MERGE (r:ComparisonRun {run_id: $run_id})
		SET r.recorded_at = $recorded_at,
			r.reference = $reference,
			r.extracted = $extracted,
			r.key_columns = $key_columns,
			r.matched = $matched,
			r.reference_only = $reference_only,
			r.extracted_only = $extracted_only,
			r.compared = $compared,
			r.agreements = $agreements,
			r.invalid = $invalid,
			r.overall_agreement = $overall_agreement,
			r.weighted_kappa = $weighted_kappa
		RETURN r.run_id AS run_id
	`

	SaveColumnMetricsQuery = `
		MATCH (r:ComparisonRun {run_id: $run_id})
		UNWIND $columns AS col
		MERGE (m:ColumnMetric {run_id: $run_id, column: col.column})
		SET m.mode = col.mode,
			m.compared = col.compared,
			m.agreements = col.agreements,
			m.disagreements = col.disagreements,
			m.invalid = col.invalid,
			m.percent_agreement = col.percent_agreement,
			m.kappa = col.kappa,
			m.recommendation = col.recommendation
		MERGE (r)-[:HAS_METRIC]->(m)
		RETURN count(m) AS saved
	`

	SaveDisagreementsQuery = `
		MATCH (r:ComparisonRun {run_id: $run_id})
		UNWIND $disagreements AS d
		MERGE (n:Disagreement {run_id: $run_id, key: d.key, column: d.column})
		SET n.reference = d.reference,
			n.extracted = d.extracted,
			n.reason = d.reason,
			n.detail = d.detail
		MERGE (r)-[:HAS_DISAGREEMENT]->(n)
		RETURN count(n) AS saved
	`

	GetRecentRunsQuery = `
		MATCH (r:ComparisonRun)
		RETURN r.run_id AS run_id,
			r.recorded_at AS recorded_at,
			r.reference AS reference,
			r.extracted AS extracted,
			r.overall_agreement AS overall_agreement,
			r.weighted_kappa AS weighted_kappa
		ORDER BY r.recorded_at DESC
		LIMIT $limit
	`

	GetRunDisagreementsQuery = `
		MATCH (:ComparisonRun {run_id: $run_id})-[:HAS_DISAGREEMENT]->(d:Disagreement)
		RETURN d.key AS key, d.column AS column, d.reference AS reference,
			d.extracted AS extracted, d.reason AS reason, d.detail AS detail
		ORDER BY d.key, d.column
	`
)
