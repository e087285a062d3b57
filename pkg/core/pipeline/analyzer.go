// Package pipeline orchestrates the filing analysis flow: fetch the primary
// document, extract the named sections, resolve the comparison baseline, diff
// and score the changes, and persist every stage.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"stockdelta/pkg/core/baseline"
	"stockdelta/pkg/core/delta"
	"stockdelta/pkg/core/ingest"
	"stockdelta/pkg/core/section"
	"stockdelta/pkg/core/store"
	"stockdelta/pkg/models"
)

// DocumentFetcher retrieves a filing's primary document by URL.
// Implementations may fetch from live SEC EDGAR or a local cache.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) ([]byte, error)
}

// DefaultAnalyzeTimeout bounds a single filing's fetch+extract+diff cycle.
const DefaultAnalyzeTimeout = 2 * time.Minute

// Analyzer runs section extraction and delta computation for filings.
// A per-filing mutex serializes concurrent work on the same filing so the
// replace-all writes never interleave; different filings proceed in parallel.
type Analyzer struct {
	fetcher  DocumentFetcher
	cache    *ingest.DocumentCache
	filings  *store.FilingsRepo
	sections *store.SectionsRepo
	deltas   *store.DeltasRepo
	locator  *section.Locator
	computer *delta.Computer
	timeout  time.Duration

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewAnalyzer creates an analyzer. cache may be nil to disable local document
// caching.
func NewAnalyzer(fetcher DocumentFetcher, cache *ingest.DocumentCache, filings *store.FilingsRepo, sections *store.SectionsRepo, deltas *store.DeltasRepo) *Analyzer {
	return &Analyzer{
		fetcher:  fetcher,
		cache:    cache,
		filings:  filings,
		sections: sections,
		deltas:   deltas,
		locator:  section.NewLocator(),
		computer: delta.NewComputer(),
		timeout:  DefaultAnalyzeTimeout,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (a *Analyzer) filingLock(filingID int64) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[filingID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[filingID] = l
	}
	return l
}

// ExtractSections ensures a filing's sections are extracted and stored,
// returning the stored set. With force=false, previously extracted sections
// are returned as-is; force=true refetches the document and replaces them.
func (a *Analyzer) ExtractSections(ctx context.Context, filingID int64, force bool) ([]models.FilingSection, error) {
	lock := a.filingLock(filingID)
	lock.Lock()
	defer lock.Unlock()
	return a.extractSectionsLocked(ctx, filingID, force)
}

func (a *Analyzer) extractSectionsLocked(ctx context.Context, filingID int64, force bool) ([]models.FilingSection, error) {
	if !force {
		stored, err := a.sections.ListByFiling(ctx, filingID)
		if err != nil {
			return nil, err
		}
		if len(stored) > 0 {
			return stored, nil
		}
	}

	filing, err := a.filings.GetByID(ctx, filingID)
	if err != nil {
		return nil, err
	}
	if filing == nil {
		return nil, fmt.Errorf("filing %d not found", filingID)
	}
	if filing.PrimaryDocURL == "" {
		return nil, fmt.Errorf("filing %d has no primary document URL", filingID)
	}

	html, err := a.fetchDocument(ctx, filing)
	if err != nil {
		return nil, err
	}

	doc, flat := section.Prepare(string(html))
	texts := a.locator.LocateAll(doc, flat, filing.Form)

	rows := make([]models.FilingSection, 0, len(texts))
	for _, t := range texts {
		rows = append(rows, models.FilingSection{
			FilingID:  filingID,
			Section:   t.Section,
			Text:      t.Content,
			TextHash:  t.Hash,
			CharCount: t.CharCount,
		})
	}

	if err := a.sections.ReplaceAll(ctx, filingID, rows); err != nil {
		return nil, err
	}
	log.Printf("[Analyzer] Filing %d (%s %s): extracted %d/%d sections",
		filingID, filing.Form, filing.AccessionNo, len(rows), len(models.SectionsForForm(filing.Form)))
	return rows, nil
}

func (a *Analyzer) fetchDocument(ctx context.Context, filing *models.Filing) ([]byte, error) {
	if a.cache != nil {
		if cached := a.cache.Get(filing.CIK, filing.AccessionNo); cached != nil {
			return cached, nil
		}
	}

	doc, err := a.fetcher.FetchDocument(ctx, filing.PrimaryDocURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document for filing %d: %w", filing.ID, err)
	}

	if a.cache != nil {
		if err := a.cache.Set(filing.CIK, filing.AccessionNo, doc); err != nil {
			log.Printf("[Analyzer] Warning: could not cache document for filing %d: %v", filing.ID, err)
		}
	}
	return doc, nil
}

// ComputeDeltas diffs a filing's sections against its resolved baseline and
// stores the scored fragments. A filing with no resolvable baseline (first
// filing of its form for the company) stores an empty delta set; that is a
// normal outcome, not an error.
func (a *Analyzer) ComputeDeltas(ctx context.Context, filingID int64) ([]models.FilingDelta, error) {
	lock := a.filingLock(filingID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	filing, err := a.filings.GetByID(ctx, filingID)
	if err != nil {
		return nil, err
	}
	if filing == nil {
		return nil, fmt.Errorf("filing %d not found", filingID)
	}

	candidates, err := a.filings.ListByCIKAndForm(ctx, filing.CIK, filing.Form)
	if err != nil {
		return nil, err
	}
	previous := baseline.ResolvePrevious(*filing, candidates)

	current, err := a.extractSectionsLocked(ctx, filingID, false)
	if err != nil {
		return nil, err
	}

	deltas := []models.FilingDelta{}
	if previous != nil {
		prevSections, err := a.ExtractSections(ctx, previous.ID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to extract baseline filing %d: %w", previous.ID, err)
		}
		deltas = a.computer.ComputeDeltas(filingID, current, prevSections)
	} else {
		// First filing of its form: nothing to diff against. An empty set is
		// stored so the computed state is recorded.
		log.Printf("[Analyzer] Filing %d: no comparison baseline, storing empty delta set", filingID)
	}
	if err := a.deltas.Replace(ctx, filingID, deltas); err != nil {
		return nil, err
	}
	log.Printf("[Analyzer] Filing %d: %d deltas computed", filingID, len(deltas))
	return deltas, nil
}

// GetDeltaSummary loads a filing's stored deltas and aggregates them into the
// summary read model. Deltas are computed on demand if the filing has never
// been through ComputeDeltas; a stored empty set counts as computed and is
// served as-is.
func (a *Analyzer) GetDeltaSummary(ctx context.Context, filingID int64) (*models.DeltaSummary, error) {
	computed, err := a.deltas.HasComputed(ctx, filingID)
	if err != nil {
		return nil, err
	}
	var deltas []models.FilingDelta
	if computed {
		deltas, err = a.deltas.ListByFiling(ctx, filingID)
	} else {
		deltas, err = a.ComputeDeltas(ctx, filingID)
	}
	if err != nil {
		return nil, err
	}
	summary := delta.Summarize(filingID, deltas)
	return &summary, nil
}

// BatchResult reports the outcome of one filing in a batch run.
type BatchResult struct {
	FilingID int64
	Deltas   int
	Err      error
}

// AnalyzeBatch runs ComputeDeltas for a set of filings with a bounded worker
// pool. All filings are attempted; per-filing failures are reported in the
// results rather than aborting the batch.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, filingIDs []int64, workers int) []BatchResult {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(filingIDs) {
		workers = len(filingIDs)
	}

	jobs := make(chan int64)
	results := make(chan BatchResult, len(filingIDs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				deltas, err := a.ComputeDeltas(ctx, id)
				results <- BatchResult{FilingID: id, Deltas: len(deltas), Err: err}
			}
		}()
	}

	for _, id := range filingIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]BatchResult, 0, len(filingIDs))
	for r := range results {
		out = append(out, r)
	}
	return out
}
