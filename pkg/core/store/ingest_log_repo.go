package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestLog records one ingestion run for a company.
type IngestLog struct {
	ID           uuid.UUID  `json:"id"`
	Ticker       string     `json:"ticker"`
	CIK          string     `json:"cik"`
	FilingsFound int        `json:"filings_found"`
	FilingsNew   int        `json:"filings_new"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

const (
	IngestStatusRunning = "running"
	IngestStatusDone    = "done"
	IngestStatusFailed  = "failed"
)

// IngestLogRepo provides storage for ingestion run records.
type IngestLogRepo struct {
	pool *pgxpool.Pool
}

// NewIngestLogRepo creates an ingest log repository.
func NewIngestLogRepo(pool *pgxpool.Pool) *IngestLogRepo {
	return &IngestLogRepo{pool: pool}
}

// Start inserts a running log row and returns its ID.
func (r *IngestLogRepo) Start(ctx context.Context, ticker, cik string) (uuid.UUID, error) {
	if r.pool == nil {
		return uuid.Nil, fmt.Errorf("database pool not configured")
	}

	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ingest_logs (id, ticker, cik, status, started_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		id, ticker, cik, IngestStatusRunning)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert ingest log: %w", err)
	}
	return id, nil
}

// Finish marks a run as done and records its counts.
func (r *IngestLogRepo) Finish(ctx context.Context, id uuid.UUID, found, newCount int) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE ingest_logs SET status = $2, filings_found = $3, filings_new = $4, finished_at = NOW()
		 WHERE id = $1`,
		id, IngestStatusDone, found, newCount)
	if err != nil {
		return fmt.Errorf("failed to finish ingest log %s: %w", id, err)
	}
	return nil
}

// Fail marks a run as failed and records the error message.
func (r *IngestLogRepo) Fail(ctx context.Context, id uuid.UUID, runErr error) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE ingest_logs SET status = $2, error = $3, finished_at = NOW() WHERE id = $1`,
		id, IngestStatusFailed, msg)
	if err != nil {
		return fmt.Errorf("failed to fail ingest log %s: %w", id, err)
	}
	return nil
}

// Recent returns the most recent ingestion runs, newest first.
func (r *IngestLogRepo) Recent(ctx context.Context, limit int) ([]IngestLog, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, ticker, cik, filings_found, filings_new, status, COALESCE(error, ''), started_at, finished_at
		 FROM ingest_logs ORDER BY started_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest logs: %w", err)
	}
	defer rows.Close()

	var logs []IngestLog
	for rows.Next() {
		var l IngestLog
		if err := rows.Scan(&l.ID, &l.Ticker, &l.CIK, &l.FilingsFound, &l.FilingsNew, &l.Status, &l.Error, &l.StartedAt, &l.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingest log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
