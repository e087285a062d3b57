// Package ingestapi triggers and inspects EDGAR ingestion runs.
package ingestapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"stockdelta/pkg/core/ingest"
	"stockdelta/pkg/core/store"
)

var ingestor *ingest.Ingestor
var logsRepo *store.IngestLogRepo

func InitHandler(ing *ingest.Ingestor, logs *store.IngestLogRepo) {
	ingestor = ing
	logsRepo = logs
}

type IngestRequest struct {
	Ticker string `json:"ticker"`
}

type IngestResponse struct {
	Ticker       string `json:"ticker"`
	FilingsFound int    `json:"filings_found"`
	FilingsNew   int    `json:"filings_new"`
}

// HandleTrigger handles POST /api/ingest. It runs synchronously; the SEC
// submissions feed is a single request so there is no need for a job queue.
func HandleTrigger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	found, inserted, err := ingestor.IngestTicker(r.Context(), ticker)
	if err != nil {
		status := http.StatusInternalServerError
		if ingest.IsTransient(err) {
			status = http.StatusBadGateway
		}
		http.Error(w, fmt.Sprintf("Ingestion failed: %v", err), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(IngestResponse{Ticker: ticker, FilingsFound: found, FilingsNew: inserted})
}

// HandleRuns handles GET /api/ingest/runs[?limit=N].
func HandleRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	runs, err := logsRepo.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load ingest runs: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}
