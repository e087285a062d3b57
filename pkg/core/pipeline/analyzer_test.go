package pipeline

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"stockdelta/pkg/core/store"
	"stockdelta/pkg/models"
)

// fetcherFunc adapts a function to DocumentFetcher.
type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) FetchDocument(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func TestFilingLockIsPerFiling(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil, nil, nil)

	l1 := a.filingLock(1)
	l1again := a.filingLock(1)
	l2 := a.filingLock(2)

	if l1 != l1again {
		t.Error("the same filing must map to the same mutex")
	}
	if l1 == l2 {
		t.Error("different filings must map to different mutexes")
	}
}

func TestFilingLockConcurrentAccess(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			l := a.filingLock(id % 5)
			l.Lock()
			l.Unlock()
		}(int64(i))
	}
	wg.Wait()
}

// Full fetch-extract-diff cycle against a live database. The filing rows and
// documents are synthetic; only storage is real.
func TestAnalyzerEndToEnd(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	pool := store.GetPool()
	if err := store.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	filingsRepo := store.NewFilingsRepo(pool)
	sectionsRepo := store.NewSectionsRepo(pool)
	deltasRepo := store.NewDeltasRepo(pool)

	baseBody := "We face substantial competition in all of our markets and our operating results depend on sustained consumer demand for our products and services worldwide."
	docs := map[string]string{
		"https://test.local/prev.htm": filingHTML(baseBody),
		"https://test.local/cur.htm": filingHTML(
			"We are subject to ongoing litigation and regulatory investigations that could have material adverse outcomes. " + baseBody),
	}
	fetcher := fetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		return []byte(docs[url]), nil
	})

	analyzer := NewAnalyzer(fetcher, nil, filingsRepo, sectionsRepo, deltasRepo)

	pe1 := time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC)
	pe2 := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	prev, _, err := filingsRepo.Upsert(ctx, models.Filing{
		CIK: "0009999991", AccessionNo: "test-prev-0001", Form: models.Form10K,
		FiledAt: pe1.AddDate(0, 2, 0), PeriodEnd: &pe1,
		PrimaryDocURL: "https://test.local/prev.htm", Source: "test",
	})
	if err != nil {
		t.Fatalf("Upsert prev: %v", err)
	}
	cur, _, err := filingsRepo.Upsert(ctx, models.Filing{
		CIK: "0009999991", AccessionNo: "test-cur-0001", Form: models.Form10K,
		FiledAt: pe2.AddDate(0, 2, 0), PeriodEnd: &pe2,
		PrimaryDocURL: "https://test.local/cur.htm", Source: "test",
	})
	if err != nil {
		t.Fatalf("Upsert cur: %v", err)
	}
	_ = prev

	deltas, err := analyzer.ComputeDeltas(ctx, cur.ID)
	if err != nil {
		t.Fatalf("ComputeDeltas: %v", err)
	}
	if len(deltas) == 0 {
		t.Fatal("expected deltas for the inserted litigation clause")
	}

	summary, err := analyzer.GetDeltaSummary(ctx, cur.ID)
	if err != nil {
		t.Fatalf("GetDeltaSummary: %v", err)
	}
	if summary.TotalChanges != len(deltas) {
		t.Errorf("summary count %d != %d deltas", summary.TotalChanges, len(deltas))
	}
}

// A filing with no resolvable baseline stores an empty delta set; a later
// summary request must serve that stored result instead of re-running the
// whole fetch-and-diff cycle.
func TestSummaryReusesStoredEmptyDeltaSet(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	pool := store.GetPool()
	if err := store.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	filingsRepo := store.NewFilingsRepo(pool)
	sectionsRepo := store.NewSectionsRepo(pool)
	deltasRepo := store.NewDeltasRepo(pool)

	var fetches int
	fetcher := fetcherFunc(func(_ context.Context, _ string) ([]byte, error) {
		fetches++
		return []byte(filingHTML("We depend on a small number of suppliers for critical components and any disruption could materially harm our results.")), nil
	})
	analyzer := NewAnalyzer(fetcher, nil, filingsRepo, sectionsRepo, deltasRepo)

	pe := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	only, _, err := filingsRepo.Upsert(ctx, models.Filing{
		CIK: "0009999992", AccessionNo: "test-solo-0001", Form: models.Form10K,
		FiledAt: pe.AddDate(0, 2, 0), PeriodEnd: &pe,
		PrimaryDocURL: "https://test.local/solo.htm", Source: "test",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	deltas, err := analyzer.ComputeDeltas(ctx, only.ID)
	if err != nil {
		t.Fatalf("ComputeDeltas: %v", err)
	}
	if len(deltas) != 0 {
		t.Fatalf("expected empty delta set without a baseline, got %d", len(deltas))
	}
	if fetches != 1 {
		t.Fatalf("expected 1 document fetch, got %d", fetches)
	}

	summary, err := analyzer.GetDeltaSummary(ctx, only.ID)
	if err != nil {
		t.Fatalf("GetDeltaSummary: %v", err)
	}
	if summary.TotalChanges != 0 {
		t.Errorf("expected 0 changes in summary, got %d", summary.TotalChanges)
	}
	if fetches != 1 {
		t.Errorf("summary re-ran the analysis cycle: %d fetches", fetches)
	}
}

func filingHTML(riskBody string) string {
	return `<html><body>
		<a name="item1a"></a>
		<p>` + riskBody + `</p>
		<p>These factors are not exhaustive and additional unknown risks may also impair our business operations.</p>
		<p>ITEM 2. PROPERTIES</p>
	</body></html>`
}
