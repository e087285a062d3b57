package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockdelta/pkg/models"
)

// DeltasRepo provides storage for computed filing deltas.
type DeltasRepo struct {
	pool *pgxpool.Pool
}

// NewDeltasRepo creates a deltas repository.
func NewDeltasRepo(pool *pgxpool.Pool) *DeltasRepo {
	return &DeltasRepo{pool: pool}
}

// Replace swaps a filing's delta set for a freshly computed one inside a
// single transaction and stamps the filing's deltas_computed_at marker. The
// marker is what distinguishes "computed, legitimately empty" from "never
// computed": zero stored rows alone cannot tell the two apart.
func (r *DeltasRepo) Replace(ctx context.Context, filingID int64, deltas []models.FilingDelta) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM filing_deltas WHERE filing_id = $1`, filingID); err != nil {
		return fmt.Errorf("failed to clear deltas for filing %d: %w", filingID, err)
	}

	for _, d := range deltas {
		_, err := tx.Exec(ctx,
			`INSERT INTO filing_deltas (filing_id, section, operation, snippet, score)
			 VALUES ($1, $2, $3, $4, $5)`,
			filingID, d.Section, d.Op, d.Snippet, d.Score)
		if err != nil {
			return fmt.Errorf("failed to insert delta for filing %d: %w", filingID, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE filings SET deltas_computed_at = NOW() WHERE id = $1`, filingID); err != nil {
		return fmt.Errorf("failed to mark deltas computed for filing %d: %w", filingID, err)
	}

	return tx.Commit(ctx)
}

// HasComputed reports whether a filing's delta set has ever been stored.
// False for unknown filings.
func (r *DeltasRepo) HasComputed(ctx context.Context, filingID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("database pool not configured")
	}

	var computed bool
	err := r.pool.QueryRow(ctx,
		`SELECT deltas_computed_at IS NOT NULL FROM filings WHERE id = $1`,
		filingID).Scan(&computed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check delta state for filing %d: %w", filingID, err)
	}
	return computed, nil
}

// ListByFiling returns a filing's deltas in insertion order, which preserves
// document order within each section.
func (r *DeltasRepo) ListByFiling(ctx context.Context, filingID int64) ([]models.FilingDelta, error) {
	return r.list(ctx, filingID, `ORDER BY id`)
}

// ListByFilingScoreDesc returns a filing's deltas ordered by importance.
func (r *DeltasRepo) ListByFilingScoreDesc(ctx context.Context, filingID int64) ([]models.FilingDelta, error) {
	return r.list(ctx, filingID, `ORDER BY score DESC, id`)
}

func (r *DeltasRepo) list(ctx context.Context, filingID int64, orderBy string) ([]models.FilingDelta, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, filing_id, section, operation, snippet, score
		 FROM filing_deltas WHERE filing_id = $1 `+orderBy,
		filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deltas for filing %d: %w", filingID, err)
	}
	defer rows.Close()

	var deltas []models.FilingDelta
	for rows.Next() {
		var d models.FilingDelta
		if err := rows.Scan(&d.ID, &d.FilingID, &d.Section, &d.Op, &d.Snippet, &d.Score); err != nil {
			return nil, fmt.Errorf("failed to scan delta row: %w", err)
		}
		deltas = append(deltas, d)
	}
	return deltas, rows.Err()
}
