// Package tickers resolves ticker symbols against the SEC company index.
package tickers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"stockdelta/pkg/core/ingest"
)

var client *ingest.Client

func InitHandler(c *ingest.Client) {
	client = c
}

// HandleResolve handles GET /api/tickers/resolve?symbol=AAPL.
func HandleResolve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	cik, err := client.LookupCIK(r.Context(), symbol)
	if err != nil {
		http.Error(w, fmt.Sprintf("Ticker not found: %s", symbol), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"ticker": symbol, "cik": cik})
}
