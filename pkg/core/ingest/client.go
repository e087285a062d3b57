// Package ingest provides SEC EDGAR API integration: company submissions,
// ticker->CIK resolution, and rate-limited document fetching.
// API documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stockdelta/pkg/models"
)

const (
	submissionsURL    = "https://data.sec.gov/submissions/CIK%s.json"
	filingArchiveURL  = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s"
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"

	// SEC fair-access guidelines cap automated clients around 10 req/s.
	defaultRateLimitRPS = 8
	defaultUserAgent    = "StockDeltaSystem/1.0 admin@stockdelta.example"
)

// Client is a rate-limited SEC EDGAR API client. All requests pass through a
// token-bucket limiter and carry the required User-Agent header.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string

	tickerOnce  sync.Once
	tickerErr   error
	tickerCache map[string]string // TICKER -> zero-padded CIK
}

// NewClient creates an EDGAR client. The User-Agent is taken from the
// SEC_USER_AGENT environment variable when set, per SEC registration
// guidance.
func NewClient() *Client {
	ua := os.Getenv("SEC_USER_AGENT")
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimitRPS), defaultRateLimitRPS),
		userAgent:  ua,
	}
}

// submissionsResponse mirrors the SEC submissions JSON (parallel arrays).
type submissionsResponse struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// FetchRecentFilings retrieves a company's recent filings, optionally
// filtered by form types, newest first as the SEC returns them. limit of 0
// means no limit.
func (c *Client) FetchRecentFilings(ctx context.Context, cik string, forms []models.FormType, limit int) ([]models.Filing, string, error) {
	cik = PadCIK(cik)
	body, err := c.get(ctx, fmt.Sprintf(submissionsURL, cik), "application/json")
	if err != nil {
		return nil, "", err
	}

	var resp submissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("failed to parse submissions JSON for CIK %s: %w", cik, err)
	}

	wanted := make(map[models.FormType]bool, len(forms))
	for _, f := range forms {
		wanted[f] = true
	}

	recent := resp.Filings.Recent
	filings := make([]models.Filing, 0)
	for i := range recent.AccessionNumber {
		form := models.FormType(recent.Form[i])
		if len(forms) > 0 && !wanted[form] {
			continue
		}

		filedAt, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}

		filing := models.Filing{
			CIK:         cik,
			AccessionNo: recent.AccessionNumber[i],
			Form:        form,
			FiledAt:     filedAt,
			Source:      "submissions",
			CompanyName: resp.Name,
		}
		if periodEnd, err := time.Parse("2006-01-02", recent.ReportDate[i]); err == nil {
			filing.PeriodEnd = &periodEnd
		}
		if doc := recent.PrimaryDocument[i]; doc != "" {
			noDashes := strings.ReplaceAll(filing.AccessionNo, "-", "")
			filing.PrimaryDocURL = fmt.Sprintf(filingArchiveURL, strings.TrimLeft(cik, "0"), noDashes, doc)
		}
		if len(resp.Tickers) > 0 {
			filing.Ticker = resp.Tickers[0]
		}

		filings = append(filings, filing)
		if limit > 0 && len(filings) >= limit {
			break
		}
	}

	return filings, resp.Name, nil
}

// FetchDocument downloads a filing document. Failures come back as
// *FetchError with the transient/permanent classification set.
func (c *Client) FetchDocument(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, "text/html,application/xhtml+xml")
}

// LookupCIK resolves a ticker symbol to a zero-padded CIK using the SEC's
// company ticker map, loaded lazily and cached for the client's lifetime.
func (c *Client) LookupCIK(ctx context.Context, ticker string) (string, error) {
	c.tickerOnce.Do(func() {
		c.tickerErr = c.loadTickerCache(ctx)
	})
	if c.tickerErr != nil {
		return "", c.tickerErr
	}

	cik, ok := c.tickerCache[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
	}
	return cik, nil
}

// loadTickerCache fetches the full ticker list from SEC.
// Format: {"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple"}, ...}
func (c *Client) loadTickerCache(ctx context.Context) error {
	fmt.Println("[Ingest] Loading Ticker->CIK map from SEC...")

	body, err := c.get(ctx, companyTickersURL, "application/json")
	if err != nil {
		return fmt.Errorf("failed to fetch company tickers: %w", err)
	}

	var entries map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return fmt.Errorf("failed to parse ticker JSON: %w", err)
	}

	c.tickerCache = make(map[string]string, len(entries))
	for _, e := range entries {
		c.tickerCache[strings.ToUpper(e.Ticker)] = fmt.Sprintf("%010d", e.CIK)
	}
	fmt.Printf("[Ingest] Loaded %d tickers from SEC.\n", len(c.tickerCache))
	return nil
}

// get performs a rate-limited GET. HTTP and transport failures are wrapped
// in *FetchError with the appropriate transient flag.
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Transient: true, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Transient:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Transient: true, Err: err}
	}
	return body, nil
}

// PadCIK zero-pads a CIK to the 10 digits SEC endpoints expect.
func PadCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}
