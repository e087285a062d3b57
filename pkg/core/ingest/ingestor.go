package ingest

import (
	"context"
	"fmt"
	"log"

	"stockdelta/pkg/core/store"
	"stockdelta/pkg/models"
)

// DefaultIngestLimit bounds how many recent filings one run pulls per company.
const DefaultIngestLimit = 40

// Ingestor pulls a company's recent filings from the SEC submissions feed and
// upserts them into the filings table, recording each run in ingest_logs.
type Ingestor struct {
	client  *Client
	filings *store.FilingsRepo
	logs    *store.IngestLogRepo
	forms   []models.FormType
	limit   int
}

// NewIngestor creates an ingestor covering the delta-relevant form types.
func NewIngestor(client *Client, filings *store.FilingsRepo, logs *store.IngestLogRepo) *Ingestor {
	return &Ingestor{
		client:  client,
		filings: filings,
		logs:    logs,
		forms:   []models.FormType{models.Form10K, models.Form10Q},
		limit:   DefaultIngestLimit,
	}
}

// IngestTicker resolves a ticker to its CIK and ingests that company's recent
// filings. Returns the counts of filings seen and newly inserted.
func (ing *Ingestor) IngestTicker(ctx context.Context, ticker string) (found, inserted int, err error) {
	cik, err := ing.client.LookupCIK(ctx, ticker)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve ticker %s: %w", ticker, err)
	}

	logID, logErr := ing.logs.Start(ctx, ticker, cik)
	if logErr != nil {
		log.Printf("[Ingestor] Warning: could not record ingest run for %s: %v", ticker, logErr)
	}

	found, inserted, err = ing.ingestCIK(ctx, cik)

	if logErr == nil {
		if err != nil {
			if failErr := ing.logs.Fail(ctx, logID, err); failErr != nil {
				log.Printf("[Ingestor] Warning: could not mark ingest run failed: %v", failErr)
			}
		} else if finErr := ing.logs.Finish(ctx, logID, found, inserted); finErr != nil {
			log.Printf("[Ingestor] Warning: could not finish ingest run: %v", finErr)
		}
	}
	return found, inserted, err
}

func (ing *Ingestor) ingestCIK(ctx context.Context, cik string) (found, inserted int, err error) {
	filings, companyName, err := ing.client.FetchRecentFilings(ctx, cik, ing.forms, ing.limit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch submissions for CIK %s: %w", cik, err)
	}

	for _, f := range filings {
		f.CompanyName = companyName
		stored, wasNew, upsertErr := ing.filings.Upsert(ctx, f)
		if upsertErr != nil {
			return len(filings), inserted, fmt.Errorf("failed to store filing %s: %w", f.AccessionNo, upsertErr)
		}
		if wasNew {
			inserted++
			log.Printf("[Ingestor] New filing %s %s (%s) id=%d", f.Form, f.AccessionNo, f.FiledAt.Format("2006-01-02"), stored.ID)
		}
	}

	log.Printf("[Ingestor] CIK %s: %d filings seen, %d new", cik, len(filings), inserted)
	return len(filings), inserted, nil
}
