package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"stockdelta/pkg/api/deltamap"
	"stockdelta/pkg/api/filings"
	"stockdelta/pkg/api/ingestapi"
	"stockdelta/pkg/api/tickers"
	"stockdelta/pkg/core/ingest"
	"stockdelta/pkg/core/pipeline"
	"stockdelta/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[FATAL] Database init failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	pool := store.GetPool()
	if err := store.Migrate(ctx, pool); err != nil {
		fmt.Printf("[FATAL] Migration failed: %v\n", err)
		os.Exit(1)
	}

	filingsRepo := store.NewFilingsRepo(pool)
	sectionsRepo := store.NewSectionsRepo(pool)
	deltasRepo := store.NewDeltasRepo(pool)
	metricsRepo := store.NewMetricsRepo(pool)
	logsRepo := store.NewIngestLogRepo(pool)

	client := ingest.NewClient()
	cache := ingest.NewDocumentCache()
	ingestor := ingest.NewIngestor(client, filingsRepo, logsRepo)
	analyzer := pipeline.NewAnalyzer(client, cache, filingsRepo, sectionsRepo, deltasRepo)

	tickers.InitHandler(client)
	filings.InitHandler(client, filingsRepo)
	ingestapi.InitHandler(ingestor, logsRepo)
	deltamap.InitHandler(analyzer, filingsRepo, sectionsRepo, deltasRepo, metricsRepo)

	http.HandleFunc("/api/tickers/resolve", tickers.HandleResolve)
	http.HandleFunc("/api/filings/recent", filings.HandleRecent)
	http.HandleFunc("/api/ingest", ingestapi.HandleTrigger)
	http.HandleFunc("/api/ingest/runs", ingestapi.HandleRuns)
	http.HandleFunc("/api/deltamap/analyze", deltamap.HandleAnalyze)
	http.HandleFunc("/api/deltamap/sections", deltamap.HandleSections)
	http.HandleFunc("/api/deltamap/deltas", deltamap.HandleDeltas)
	http.HandleFunc("/api/deltamap/summary", deltamap.HandleSummary)
	http.HandleFunc("/api/deltamap/heatmap", deltamap.HandleHeatmap)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - GET  /api/tickers/resolve")
	fmt.Println("  - GET  /api/filings/recent")
	fmt.Println("  - POST /api/ingest")
	fmt.Println("  - GET  /api/ingest/runs")
	fmt.Println("  - POST /api/deltamap/analyze")
	fmt.Println("  - GET  /api/deltamap/sections")
	fmt.Println("  - GET  /api/deltamap/deltas")
	fmt.Println("  - GET  /api/deltamap/summary")
	fmt.Println("  - GET  /api/deltamap/heatmap")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
