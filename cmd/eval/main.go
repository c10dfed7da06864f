// Command eval grades extraction accuracy against a golden dataset.
//
// The dataset is a JSON file listing exam papers and the question records a
// correct extraction produces:
//
//	{
//	  "name": "NTSE 2023 papers",
//	  "tests": [
//	    {
//	      "pdf": "papers/stage1_sat.pdf",
//	      "expected": [
//	        {"qno": 1, "type": "mcq", "answer": "B", "text_contains": ["capital"]},
//	        {"qno": 2, "type": "text"}
//	      ]
//	    }
//	  ]
//	}
//
// Usage:
//
//	go run -tags sqlite_fts5 ./cmd/eval \
//	  --dataset ./data/golden.json \
//	  --vision-provider openai \
//	  --vision-model gpt-4o-mini \
//	  --output report.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prasadg/examsift"
	"github.com/prasadg/examsift/eval"
)

func main() {
	var (
		configPath     = flag.String("config", "", "Path to config file (JSON)")
		datasetPath    = flag.String("dataset", "", "Path to golden dataset JSON (required)")
		outputFile     = flag.String("output", "", "Path to write the JSON report")
		visionProvider = flag.String("vision-provider", "", "Vision LLM provider override")
		visionModel    = flag.String("vision-model", "", "Vision model name override")
		visionBaseURL  = flag.String("vision-base-url", "", "Vision provider base URL override")
		visionAPIKey   = flag.String("vision-api-key", "", "Vision provider API key (default: from env)")
		timeout        = flag.Duration("timeout", 30*time.Minute, "Per-run timeout")
		verbose        = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *datasetPath == "" {
		log.Fatal("--dataset is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	cfg := examsift.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			log.Fatalf("opening config: %v", err)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			log.Fatalf("parsing config: %v", err)
		}
		f.Close()
	}

	if *visionProvider != "" {
		cfg.Vision.Provider = *visionProvider
	}
	if *visionModel != "" {
		cfg.Vision.Model = *visionModel
	}
	if *visionBaseURL != "" {
		cfg.Vision.BaseURL = *visionBaseURL
	}
	if *visionAPIKey != "" {
		cfg.Vision.APIKey = *visionAPIKey
	}

	// Resolve the API key from well-known env vars when not given.
	if cfg.Vision.APIKey == "" {
		switch cfg.Vision.Provider {
		case "openai":
			cfg.Vision.APIKey = os.Getenv("OPENAI_API_KEY")
		case "openrouter":
			cfg.Vision.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case "nebius":
			cfg.Vision.APIKey = os.Getenv("NEBIUS_API_KEY")
		}
	}
	if cfg.Vision.APIKey == "" && cfg.Vision.Provider != "ollama" {
		log.Fatalf("API key required for provider %q: set --vision-api-key or the provider env var", cfg.Vision.Provider)
	}

	// Grading never persists anything, so use a throwaway database.
	runDir, err := os.MkdirTemp("", "examsift-eval-")
	if err != nil {
		log.Fatalf("creating run directory: %v", err)
	}
	defer os.RemoveAll(runDir)
	cfg.DBPath = filepath.Join(runDir, "eval.db")
	cfg.TempDir = runDir

	ds, err := eval.LoadDataset(*datasetPath)
	if err != nil {
		log.Fatalf("loading dataset: %v", err)
	}

	engine, err := examsift.New(cfg)
	if err != nil {
		log.Fatalf("creating engine: %v", err)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Running %s (%d papers)...\n", ds.Name, len(ds.Tests))

	report, err := eval.NewEvaluator(engine).Run(ctx, ds)
	if err != nil {
		log.Fatalf("running evaluation: %v", err)
	}

	printReport(report)

	if *outputFile != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatalf("encoding report: %v", err)
		}
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			log.Fatalf("writing report: %v", err)
		}
		fmt.Fprintf(os.Stderr, "JSON report written to: %s\n", *outputFile)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}

func printReport(r *eval.Report) {
	fmt.Printf("=== %s ===\n", r.Dataset)
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		if res.Error != "" {
			fmt.Printf("  [%s] %-45s error: %s\n", status, res.PDF, res.Error)
			continue
		}
		fmt.Printf("  [%s] %-45s %d/%d questions, answers %.0f%%, %dms\n",
			status, res.PDF, res.ExtractedCount-len(res.Spurious), res.ExpectedCount,
			res.AnswerAccuracy*100, res.ElapsedMs)
		for _, m := range res.Mismatches {
			fmt.Printf("         q%d %s: want %q, got %q\n", m.Qno, m.Field, m.Expected, m.Got)
		}
	}
	rate := 0.0
	if r.TotalTests > 0 {
		rate = float64(r.Passed) / float64(r.TotalTests) * 100
	}
	fmt.Printf("\n  %-52s %d/%d (%.1f%%)\n", "TOTAL", r.Passed, r.TotalTests, rate)
	fmt.Printf("  coverage %.2f  answers %.2f  types %.2f  text %.2f  spurious %.2f\n",
		r.Metrics.AvgCoverage, r.Metrics.AvgAnswerAccuracy, r.Metrics.AvgTypeAccuracy,
		r.Metrics.AvgTextAccuracy, r.Metrics.AvgSpuriousRate)
	fmt.Printf("  run time %s\n", r.RunTime.Round(time.Millisecond))
}
