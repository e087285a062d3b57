// Package deltamap exposes the section extraction and delta scoring results
// over HTTP: trigger analysis, read sections, read scored deltas and their
// summary, and the financial change heatmap.
package deltamap

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"stockdelta/pkg/core/metrics"
	"stockdelta/pkg/core/pipeline"
	"stockdelta/pkg/core/store"
)

var analyzer *pipeline.Analyzer
var filingsRepo *store.FilingsRepo
var sectionsRepo *store.SectionsRepo
var deltasRepo *store.DeltasRepo
var metricsRepo *store.MetricsRepo

func InitHandler(a *pipeline.Analyzer, filings *store.FilingsRepo, sections *store.SectionsRepo, deltas *store.DeltasRepo, m *store.MetricsRepo) {
	analyzer = a
	filingsRepo = filings
	sectionsRepo = sections
	deltasRepo = deltas
	metricsRepo = m
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func filingIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("filing_id")
	if raw == "" {
		return 0, fmt.Errorf("filing_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid filing_id: %s", raw)
	}
	return id, nil
}

type AnalyzeRequest struct {
	FilingID int64 `json:"filing_id"`
	Force    bool  `json:"force"`
}

// HandleAnalyze handles POST /api/deltamap/analyze.
// Extracts the filing's sections (force re-extracts), computes deltas against
// the resolved baseline, and returns the summary.
func HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.FilingID <= 0 {
		http.Error(w, "filing_id is required", http.StatusBadRequest)
		return
	}

	fmt.Printf("[DeltaMap] Analyze request: filing=%d force=%v\n", req.FilingID, req.Force)

	if _, err := analyzer.ExtractSections(r.Context(), req.FilingID, req.Force); err != nil {
		http.Error(w, fmt.Sprintf("Section extraction failed: %v", err), http.StatusInternalServerError)
		return
	}
	if _, err := analyzer.ComputeDeltas(r.Context(), req.FilingID); err != nil {
		http.Error(w, fmt.Sprintf("Delta computation failed: %v", err), http.StatusInternalServerError)
		return
	}

	summary, err := analyzer.GetDeltaSummary(r.Context(), req.FilingID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Summary failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleSections handles GET /api/deltamap/sections?filing_id=N.
func HandleSections(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := filingIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sections, err := sectionsRepo.ListByFiling(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load sections: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sections)
}

// HandleDeltas handles GET /api/deltamap/deltas?filing_id=N[&order=score].
// Default order is document order; order=score ranks by importance.
func HandleDeltas(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := filingIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var list func() (interface{}, error)
	if r.URL.Query().Get("order") == "score" {
		list = func() (interface{}, error) { return deltasRepo.ListByFilingScoreDesc(r.Context(), id) }
	} else {
		list = func() (interface{}, error) { return deltasRepo.ListByFiling(r.Context(), id) }
	}

	deltas, err := list()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load deltas: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deltas)
}

// HandleSummary handles GET /api/deltamap/summary?filing_id=N.
func HandleSummary(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := filingIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := analyzer.GetDeltaSummary(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Summary failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleHeatmap handles GET /api/deltamap/heatmap?filing_id=N.
// Recomputes metrics from normalized financials when none are stored yet.
func HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := filingIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := metricsRepo.ListByFiling(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load metrics: %v", err), http.StatusInternalServerError)
		return
	}

	if len(stored) == 0 {
		stored, err = computeAndStoreMetrics(r, id)
		if err != nil {
			http.Error(w, fmt.Sprintf("Metric computation failed: %v", err), http.StatusInternalServerError)
			return
		}
	}

	heatmap := metrics.BuildHeatmap(id, stored)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(heatmap)
}

func computeAndStoreMetrics(r *http.Request, filingID int64) ([]metrics.Metric, error) {
	ctx := r.Context()

	filing, err := filingsRepo.GetByID(ctx, filingID)
	if err != nil {
		return nil, err
	}
	if filing == nil {
		return nil, fmt.Errorf("filing %d not found", filingID)
	}

	candidates, err := filingsRepo.ListByCIKAndForm(ctx, filing.CIK, filing.Form)
	if err != nil {
		return nil, err
	}

	computed := metrics.Calculate(*filing, candidates, func(id int64) map[string]float64 {
		values, loadErr := metricsRepo.GetConceptValues(ctx, id)
		if loadErr != nil {
			fmt.Printf("[DeltaMap] Warning: could not load financials for filing %d: %v\n", id, loadErr)
			return nil
		}
		return values
	})

	if len(computed) > 0 {
		if err := metricsRepo.ReplaceForFiling(ctx, filingID, computed); err != nil {
			return nil, err
		}
	}
	return computed, nil
}
