package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/datasource"
	"wallet-strategy-lab/internal/evalrun"
	"wallet-strategy-lab/internal/llm"
	"wallet-strategy-lab/internal/observability"
	"wallet-strategy-lab/internal/reporting"
	"wallet-strategy-lab/internal/scoring"
	"wallet-strategy-lab/internal/skills"
	"wallet-strategy-lab/internal/storage"
	chstore "wallet-strategy-lab/internal/storage/clickhouse"
	"wallet-strategy-lab/internal/storage/jsonfile"
	"wallet-strategy-lab/internal/storage/memory"
	"wallet-strategy-lab/internal/storage/migrations"
	pgstore "wallet-strategy-lab/internal/storage/postgres"
	"wallet-strategy-lab/internal/synthesis"
	"wallet-strategy-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	versionTag := flag.String("version", "", "Version tag for this run (defaults to eval.version_tag)")
	outputDir := flag.String("output-dir", "", "Output directory for rendered reports (defaults to storage.output_dir)")
	fromArchive := flag.Bool("from-archive", false, "Read trade histories from the ClickHouse archive instead of the data API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if *versionTag == "" {
		*versionTag = cfg.Eval.VersionTag
	}
	if *outputDir == "" {
		*outputDir = cfg.Storage.OutputDir
	}

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr, log)
	}

	// SIGINT stops dispatching new wallets; in-flight wallets drain and the
	// partial report is still stored.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *versionTag, *outputDir, *fromArchive, log); err != nil {
		log.WithError(err).Fatal("evaluation failed")
	}
}

func run(ctx context.Context, cfg *config.Config, versionTag, outputDir string, fromArchive bool, log *logrus.Logger) error {
	// Ground truth, thesis, and report stores
	var (
		groundTruth storage.GroundTruthStore
		theses      storage.ThesisStore
		reports     storage.EvalReportStore
	)

	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		groundTruth = pgstore.NewGroundTruthStore(pool)
		theses = pgstore.NewThesisStore(pool)
		reports = pgstore.NewEvalReportStore(pool)
	} else {
		log.Info("POSTGRES_DSN not set, using in-memory stores")
		theses = memory.NewThesisStore()
		reports = memory.NewEvalReportStore()
	}

	// The labeled file is authoritative when present: it is how labels enter
	// the system in the first place.
	if cfg.Storage.GroundTruthFile != "" {
		fileStore, err := jsonfile.Load(cfg.Storage.GroundTruthFile)
		if err != nil {
			if groundTruth == nil {
				return fmt.Errorf("load ground truth file: %w", err)
			}
			log.WithError(err).Warn("ground truth file unavailable, falling back to postgres")
		} else {
			groundTruth = fileStore
		}
	}
	if groundTruth == nil {
		return fmt.Errorf("no ground truth source configured")
	}

	// Trade source
	var source evalrun.TradeSource
	if fromArchive {
		if cfg.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("--from-archive requires CLICKHOUSE_DSN")
		}
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		source = datasource.NewArchive(chstore.NewTradeEventStore(conn))
	} else {
		source = datasource.NewClient(cfg.DataAPI, log)
	}

	// Analyzer and judge share the backend but use different models.
	client := llm.NewOpenRouterClient(cfg.LLM, log)
	rules, err := synthesis.NewRuleSet(synthesis.DefaultRules(cfg.Rules))
	if err != nil {
		return fmt.Errorf("build override rules: %w", err)
	}
	synth := synthesis.New(client, cfg.LLM.AnalyzerModel, rules, cfg.LLM.MaxRetries, versionTag, log)
	scorer := scoring.NewScorer(client, cfg.LLM.JudgeModel, cfg.LLM.MaxRetries, cfg.Scoring, log)

	skillOpts := skills.DefaultOptions()
	skillOpts.MinTrades = cfg.Eval.MinTrades

	runner := evalrun.NewRunner(evalrun.Options{
		Source:      source,
		Synthesizer: synth,
		Scorer:      scorer,
		GroundTruth: groundTruth,
		Theses:      theses,
		Reports:     reports,
		SkillOpts:   skillOpts,
		Concurrency: cfg.Eval.Concurrency,
		VersionTag:  versionTag,
		Log:         log,
	})

	started := time.Now()
	report, err := runner.Run(ctx)
	if err != nil {
		observability.RecordEvalRun("error", time.Since(started).Seconds(), 0)
		return err
	}
	observability.RecordEvalRun("ok", time.Since(started).Seconds(), report.ScoringErrors)

	bundle, err := reporting.NewGenerator(reports, cfg.Scoring.RegressionEpsilon).ForReport(ctx, report)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	observability.DefaultMetrics.RegressionsFound.Add(float64(len(bundle.Regressions)))

	if err := writeOutputs(outputDir, versionTag, bundle); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"report_id": report.ReportID,
		"wallets":   report.WalletsEvaluated,
		"errors":    report.ScoringErrors,
		"accuracy":  report.StrategyAccuracy,
		"composite": report.MeanComposite,
	}).Info("evaluation complete")

	for _, reg := range bundle.Regressions {
		log.WithFields(logrus.Fields{
			"kind":   reg.Kind,
			"wallet": reg.WalletID,
		}).Warn(reg.Detail)
	}
	return nil
}

func writeOutputs(outputDir, versionTag string, bundle *reporting.Bundle) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	mdPath := filepath.Join(outputDir, fmt.Sprintf("EVAL_REPORT_%s.md", versionTag))
	if err := os.WriteFile(mdPath, []byte(bundle.Markdown), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}

	csvPath := filepath.Join(outputDir, fmt.Sprintf("EVAL_SCORES_%s.csv", versionTag))
	if err := os.WriteFile(csvPath, []byte(bundle.CSV), 0o644); err != nil {
		return fmt.Errorf("write score csv: %w", err)
	}

	fmt.Printf("Evaluation report written:\n  - %s\n  - %s\n", mdPath, csvPath)
	return nil
}

func serveMetrics(addr string, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	log.WithField("addr", addr).Info("metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("metrics server stopped")
	}
}
