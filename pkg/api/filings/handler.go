// Package filings serves the stored filing index.
package filings

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockdelta/pkg/core/ingest"
	"stockdelta/pkg/core/store"
)

var client *ingest.Client
var filingsRepo *store.FilingsRepo

func InitHandler(c *ingest.Client, repo *store.FilingsRepo) {
	client = c
	filingsRepo = repo
}

// HandleRecent handles GET /api/filings/recent?ticker=AAPL[&limit=N][&days=N].
// Resolves the ticker to a CIK and returns the stored filings, newest first.
func HandleRecent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	days := 3 * 365
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}

	cik, err := client.LookupCIK(r.Context(), ticker)
	if err != nil {
		http.Error(w, fmt.Sprintf("Ticker not found: %s", ticker), http.StatusNotFound)
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	filings, err := filingsRepo.ListRecentByCIK(r.Context(), cik, since, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load filings: %v", err), http.StatusInternalServerError)
		return
	}

	for i := range filings {
		filings[i].Ticker = ticker
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ticker":  ticker,
		"cik":     cik,
		"filings": filings,
	})
}
