package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockdelta/pkg/core/metrics"
)

// MetricsRepo provides storage for normalized financial values and the
// derived change metrics.
type MetricsRepo struct {
	pool *pgxpool.Pool
}

// NewMetricsRepo creates a metrics repository.
func NewMetricsRepo(pool *pgxpool.Pool) *MetricsRepo {
	return &MetricsRepo{pool: pool}
}

// UpsertFinancial stores a single normalized concept value for a filing.
func (r *MetricsRepo) UpsertFinancial(ctx context.Context, filingID int64, concept string, value float64) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO normalized_financials (filing_id, concept, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (filing_id, concept) DO UPDATE SET value = EXCLUDED.value`,
		filingID, concept, value)
	if err != nil {
		return fmt.Errorf("failed to upsert financial %s for filing %d: %w", concept, filingID, err)
	}
	return nil
}

// GetConceptValues returns a filing's normalized concept values keyed by
// concept name.
func (r *MetricsRepo) GetConceptValues(ctx context.Context, filingID int64) (map[string]float64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT concept, value FROM normalized_financials WHERE filing_id = $1`,
		filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query financials for filing %d: %w", filingID, err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var concept string
		var value float64
		if err := rows.Scan(&concept, &value); err != nil {
			return nil, fmt.Errorf("failed to scan financial row: %w", err)
		}
		values[concept] = value
	}
	return values, rows.Err()
}

// ReplaceForFiling swaps a filing's derived metric rows for a freshly
// calculated set.
func (r *MetricsRepo) ReplaceForFiling(ctx context.Context, filingID int64, ms []metrics.Metric) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM normalized_metrics WHERE filing_id = $1`, filingID); err != nil {
		return fmt.Errorf("failed to clear metrics for filing %d: %w", filingID, err)
	}

	for _, m := range ms {
		_, err := tx.Exec(ctx,
			`INSERT INTO normalized_metrics (filing_id, concept, basis, value)
			 VALUES ($1, $2, $3, $4)`,
			filingID, m.Concept, string(m.Basis), m.Value)
		if err != nil {
			return fmt.Errorf("failed to insert metric %s/%s for filing %d: %w", m.Concept, m.Basis, filingID, err)
		}
	}

	return tx.Commit(ctx)
}

// ListByFiling returns a filing's stored metric rows.
func (r *MetricsRepo) ListByFiling(ctx context.Context, filingID int64) ([]metrics.Metric, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT concept, basis, value FROM normalized_metrics
		 WHERE filing_id = $1 ORDER BY concept, basis`,
		filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics for filing %d: %w", filingID, err)
	}
	defer rows.Close()

	var out []metrics.Metric
	for rows.Next() {
		var m metrics.Metric
		if err := rows.Scan(&m.Concept, &m.Basis, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		m.FilingID = filingID
		out = append(out, m)
	}
	return out, rows.Err()
}
