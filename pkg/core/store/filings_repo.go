package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockdelta/pkg/models"
)

// FilingsRepo provides storage for filing records.
type FilingsRepo struct {
	pool *pgxpool.Pool
}

// NewFilingsRepo creates a filings repository.
func NewFilingsRepo(pool *pgxpool.Pool) *FilingsRepo {
	return &FilingsRepo{pool: pool}
}

const filingColumns = `id, cik, accession_no, form, filed_at, period_end, primary_doc_url, source, created_at`

// Upsert inserts a filing or refreshes its mutable metadata when the
// accession number already exists. Returns the stored filing with its ID and
// whether a new row was created.
func (r *FilingsRepo) Upsert(ctx context.Context, f models.Filing) (models.Filing, bool, error) {
	if r.pool == nil {
		return f, false, fmt.Errorf("database pool not configured")
	}

	query := `
		INSERT INTO filings (cik, accession_no, form, filed_at, period_end, primary_doc_url, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (accession_no)
		DO UPDATE SET
			period_end = EXCLUDED.period_end,
			primary_doc_url = EXCLUDED.primary_doc_url
		RETURNING id, created_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		f.CIK, f.AccessionNo, string(f.Form), f.FiledAt, f.PeriodEnd, f.PrimaryDocURL, f.Source,
	).Scan(&f.ID, &f.CreatedAt, &inserted)
	if err != nil {
		return f, false, fmt.Errorf("failed to upsert filing %s: %w", f.AccessionNo, err)
	}
	return f, inserted, nil
}

// GetByID loads one filing. Returns nil when it does not exist.
func (r *FilingsRepo) GetByID(ctx context.Context, id int64) (*models.Filing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	row := r.pool.QueryRow(ctx, `SELECT `+filingColumns+` FROM filings WHERE id = $1`, id)
	f, err := scanFiling(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load filing %d: %w", id, err)
	}
	return f, nil
}

// ListByCIKAndForm returns an issuer's filings of one form type, newest
// filed first. These are the candidate lists the baseline resolver consumes.
func (r *FilingsRepo) ListByCIKAndForm(ctx context.Context, cik string, form models.FormType) ([]models.Filing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+filingColumns+` FROM filings WHERE cik = $1 AND form = $2 ORDER BY filed_at DESC`,
		cik, string(form))
	if err != nil {
		return nil, fmt.Errorf("failed to query filings for CIK %s: %w", cik, err)
	}
	defer rows.Close()

	return scanFilings(rows)
}

// ListRecentByCIK returns an issuer's most recent filings across all forms.
func (r *FilingsRepo) ListRecentByCIK(ctx context.Context, cik string, since time.Time, limit int) ([]models.Filing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+filingColumns+` FROM filings WHERE cik = $1 AND filed_at >= $2 ORDER BY filed_at DESC LIMIT $3`,
		cik, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent filings for CIK %s: %w", cik, err)
	}
	defer rows.Close()

	return scanFilings(rows)
}

func scanFiling(row pgx.Row) (*models.Filing, error) {
	var f models.Filing
	var form string
	if err := row.Scan(&f.ID, &f.CIK, &f.AccessionNo, &form, &f.FiledAt,
		&f.PeriodEnd, &f.PrimaryDocURL, &f.Source, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Form = models.FormType(form)
	return &f, nil
}

func scanFilings(rows pgx.Rows) ([]models.Filing, error) {
	var filings []models.Filing
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filing row: %w", err)
		}
		filings = append(filings, *f)
	}
	return filings, rows.Err()
}
