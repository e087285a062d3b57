package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockdelta/pkg/models"
)

// SectionsRepo provides storage for extracted filing sections.
type SectionsRepo struct {
	pool *pgxpool.Pool
}

// NewSectionsRepo creates a sections repository.
func NewSectionsRepo(pool *pgxpool.Pool) *SectionsRepo {
	return &SectionsRepo{pool: pool}
}

// ListByFiling returns a filing's stored sections.
func (r *SectionsRepo) ListByFiling(ctx context.Context, filingID int64) ([]models.FilingSection, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, filing_id, section, text, text_hash, char_count
		 FROM filing_sections WHERE filing_id = $1 ORDER BY section`,
		filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections for filing %d: %w", filingID, err)
	}
	defer rows.Close()

	var sections []models.FilingSection
	for rows.Next() {
		var s models.FilingSection
		if err := rows.Scan(&s.ID, &s.FilingID, &s.Section, &s.Text, &s.TextHash, &s.CharCount); err != nil {
			return nil, fmt.Errorf("failed to scan section row: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// ReplaceAll atomically replaces a filing's section set: existing rows are
// deleted and the new set inserted in one transaction, so concurrent readers
// never observe a partially extracted filing.
func (r *SectionsRepo) ReplaceAll(ctx context.Context, filingID int64, sections []models.FilingSection) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM filing_sections WHERE filing_id = $1`, filingID); err != nil {
		return fmt.Errorf("failed to clear sections for filing %d: %w", filingID, err)
	}

	for _, s := range sections {
		_, err := tx.Exec(ctx,
			`INSERT INTO filing_sections (filing_id, section, text, text_hash, char_count)
			 VALUES ($1, $2, $3, $4, $5)`,
			filingID, s.Section, s.Text, s.TextHash, s.CharCount)
		if err != nil {
			return fmt.Errorf("failed to insert section %s for filing %d: %w", s.Section, filingID, err)
		}
	}

	return tx.Commit(ctx)
}
