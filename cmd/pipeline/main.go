package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"stockdelta/pkg/core/ingest"
	"stockdelta/pkg/core/pipeline"
	"stockdelta/pkg/core/store"
)

// BatchConfig is the yaml config for a pipeline run.
type BatchConfig struct {
	Tickers   []string `yaml:"tickers"`
	Workers   int      `yaml:"workers"`
	Force     bool     `yaml:"force"`
	SinceDays int      `yaml:"since_days"`
}

func loadConfig(path string) BatchConfig {
	cfg := BatchConfig{Workers: 4, SinceDays: 2 * 365}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Pipeline] Config %s not readable (%v), using flags/defaults", path, err)
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("[Pipeline] Config %s invalid (%v), using flags/defaults", path, err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.SinceDays <= 0 {
		cfg.SinceDays = 2 * 365
	}
	return cfg
}

func main() {
	configPath := flag.String("config", "config/pipeline.yaml", "batch config file")
	tickersFlag := flag.String("tickers", "", "comma-separated tickers (overrides config)")
	forceFlag := flag.Bool("force", false, "re-extract sections even if already stored")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	cfg := loadConfig(*configPath)
	if *tickersFlag != "" {
		cfg.Tickers = strings.Split(*tickersFlag, ",")
	}
	if *forceFlag {
		cfg.Force = true
	}
	if len(cfg.Tickers) == 0 {
		log.Fatal("Error: no tickers configured (set tickers in config or pass -tickers)")
	}

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		log.Fatalf("Database init failed: %v", err)
	}
	defer store.Close()

	pool := store.GetPool()
	if err := store.Migrate(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	filingsRepo := store.NewFilingsRepo(pool)
	sectionsRepo := store.NewSectionsRepo(pool)
	deltasRepo := store.NewDeltasRepo(pool)
	logsRepo := store.NewIngestLogRepo(pool)

	client := ingest.NewClient()
	cache := ingest.NewDocumentCache()
	ingestor := ingest.NewIngestor(client, filingsRepo, logsRepo)
	analyzer := pipeline.NewAnalyzer(client, cache, filingsRepo, sectionsRepo, deltasRepo)

	since := time.Now().AddDate(0, 0, -cfg.SinceDays)

	for _, raw := range cfg.Tickers {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		if ticker == "" {
			continue
		}
		fmt.Printf("=== %s ===\n", ticker)

		found, inserted, err := ingestor.IngestTicker(ctx, ticker)
		if err != nil {
			log.Printf("[Pipeline] %s: ingestion failed: %v", ticker, err)
			continue
		}
		fmt.Printf("Ingested %s: %d filings seen, %d new\n", ticker, found, inserted)

		cik, err := client.LookupCIK(ctx, ticker)
		if err != nil {
			log.Printf("[Pipeline] %s: CIK lookup failed: %v", ticker, err)
			continue
		}
		filings, err := filingsRepo.ListRecentByCIK(ctx, cik, since, 0)
		if err != nil {
			log.Printf("[Pipeline] %s: could not list filings: %v", ticker, err)
			continue
		}

		ids := make([]int64, 0, len(filings))
		for _, f := range filings {
			if cfg.Force {
				if _, err := analyzer.ExtractSections(ctx, f.ID, true); err != nil {
					log.Printf("[Pipeline] Filing %d: forced extraction failed: %v", f.ID, err)
					continue
				}
			}
			ids = append(ids, f.ID)
		}

		results := analyzer.AnalyzeBatch(ctx, ids, cfg.Workers)
		var failed int
		for _, r := range results {
			if r.Err != nil {
				failed++
				log.Printf("[Pipeline] Filing %d: analysis failed: %v", r.FilingID, r.Err)
			}
		}
		fmt.Printf("Analyzed %s: %d filings, %d failed\n", ticker, len(results), failed)
	}
}
