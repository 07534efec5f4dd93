package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/reporting"
	"wallet-strategy-lab/internal/storage"
	"wallet-strategy-lab/internal/storage/migrations"
	pgstore "wallet-strategy-lab/internal/storage/postgres"
	"wallet-strategy-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	reportID := flag.String("report-id", "", "Render one report by ID instead of the latest")
	history := flag.Bool("history", false, "Render the run history summary instead of a single report")
	outputDir := flag.String("output-dir", "", "Write files here instead of stdout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if cfg.Storage.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required: reports are read from the stored history")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("connect to postgres")
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		log.WithError(err).Fatal("run migrations")
	}

	reports := pgstore.NewEvalReportStore(pool)
	gen := reporting.NewGenerator(reports, cfg.Scoring.RegressionEpsilon)

	if *history {
		md, err := gen.History(ctx)
		if err != nil {
			log.WithError(err).Fatal("render history")
		}
		if err := emit(*outputDir, "EVAL_HISTORY.md", md); err != nil {
			log.WithError(err).Fatal("write history")
		}
		return
	}

	var bundle *reporting.Bundle
	if *reportID != "" {
		report, err := reports.GetByID(ctx, *reportID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Fatalf("report %s not found", *reportID)
			}
			log.WithError(err).Fatal("load report")
		}
		bundle, err = gen.ForReport(ctx, report)
		if err != nil {
			log.WithError(err).Fatal("render report")
		}
	} else {
		bundle, err = gen.Latest(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Fatal("no evaluation runs recorded yet")
			}
			log.WithError(err).Fatal("render latest report")
		}
	}

	tag := bundle.Report.VersionTag
	if err := emit(*outputDir, fmt.Sprintf("EVAL_REPORT_%s.md", tag), bundle.Markdown); err != nil {
		log.WithError(err).Fatal("write report")
	}
	if *outputDir != "" {
		if err := emit(*outputDir, fmt.Sprintf("EVAL_SCORES_%s.csv", tag), bundle.CSV); err != nil {
			log.WithError(err).Fatal("write scores")
		}
	}
}

// emit writes to outputDir when set, stdout otherwise.
func emit(outputDir, name, content string) error {
	if outputDir == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("Written: %s\n", path)
	return nil
}
