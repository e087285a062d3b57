// Package store provides PostgreSQL persistence for filings, sections,
// deltas, and metrics via pgx connection pooling.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the database connection pool using the DATABASE_URL
// environment variable.
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// GetPool returns the database connection pool.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// Migrate creates the schema if it does not exist. Sections, deltas, and
// metrics cascade-delete with their filing.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS filings (
			id BIGSERIAL PRIMARY KEY,
			cik CHAR(10) NOT NULL,
			accession_no VARCHAR(25) NOT NULL UNIQUE,
			form VARCHAR(20) NOT NULL,
			filed_at TIMESTAMP NOT NULL,
			period_end DATE,
			primary_doc_url TEXT NOT NULL DEFAULT '',
			source VARCHAR(20) NOT NULL DEFAULT 'submissions',
			deltas_computed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`ALTER TABLE filings ADD COLUMN IF NOT EXISTS deltas_computed_at TIMESTAMP`,
		`CREATE INDEX IF NOT EXISTS idx_filings_cik_form_filed_at ON filings (cik, form, filed_at DESC)`,
		`CREATE TABLE IF NOT EXISTS filing_sections (
			id BIGSERIAL PRIMARY KEY,
			filing_id BIGINT NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
			section VARCHAR(20) NOT NULL,
			text TEXT NOT NULL,
			text_hash CHAR(64) NOT NULL,
			char_count INT NOT NULL,
			UNIQUE (filing_id, section)
		)`,
		`CREATE TABLE IF NOT EXISTS filing_deltas (
			id BIGSERIAL PRIMARY KEY,
			filing_id BIGINT NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
			section VARCHAR(20) NOT NULL,
			operation VARCHAR(10) NOT NULL,
			snippet TEXT NOT NULL,
			score NUMERIC(4,3) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_filing_deltas_filing_score ON filing_deltas (filing_id, score DESC)`,
		`CREATE TABLE IF NOT EXISTS normalized_financials (
			id BIGSERIAL PRIMARY KEY,
			filing_id BIGINT NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
			concept VARCHAR(60) NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			UNIQUE (filing_id, concept)
		)`,
		`CREATE TABLE IF NOT EXISTS normalized_metrics (
			filing_id BIGINT NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
			concept VARCHAR(60) NOT NULL,
			basis VARCHAR(5) NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (filing_id, concept, basis)
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_logs (
			id UUID PRIMARY KEY,
			ticker VARCHAR(10),
			cik CHAR(10),
			filings_found INT NOT NULL DEFAULT 0,
			filings_new INT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL,
			error TEXT,
			started_at TIMESTAMP NOT NULL DEFAULT NOW(),
			finished_at TIMESTAMP
		)`,
	}

	for _, stmt := range ddl {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
