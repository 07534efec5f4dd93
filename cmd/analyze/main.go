package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/datasource"
	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/evalrun"
	"wallet-strategy-lab/internal/llm"
	"wallet-strategy-lab/internal/observability"
	"wallet-strategy-lab/internal/skills"
	"wallet-strategy-lab/internal/storage"
	chstore "wallet-strategy-lab/internal/storage/clickhouse"
	"wallet-strategy-lab/internal/storage/migrations"
	pgstore "wallet-strategy-lab/internal/storage/postgres"
	"wallet-strategy-lab/internal/synthesis"
	"wallet-strategy-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	wallet := flag.String("wallet", "", "Wallet address to analyze (required)")
	versionTag := flag.String("version", "", "Version tag for the thesis (defaults to eval.version_tag)")
	fromArchive := flag.Bool("from-archive", false, "Read trade history from the ClickHouse archive instead of the data API")
	save := flag.Bool("save", false, "Persist the thesis to PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if *wallet == "" {
		log.Fatal("--wallet is required")
	}
	if *versionTag == "" {
		*versionTag = cfg.Eval.VersionTag
	}

	ctx := context.Background()

	// Pick the trade source
	var source evalrun.TradeSource
	if *fromArchive {
		if cfg.Storage.ClickhouseDSN == "" {
			log.Fatal("--from-archive requires CLICKHOUSE_DSN")
		}
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			log.WithError(err).Fatal("connect to clickhouse")
		}
		defer conn.Close()
		source = datasource.NewArchive(chstore.NewTradeEventStore(conn))
	} else {
		source = datasource.NewClient(cfg.DataAPI, log)
	}

	events, err := source.Events(ctx, *wallet)
	if err != nil {
		log.WithError(err).Fatal("fetch trade history")
	}
	if len(events) == 0 {
		log.Fatalf("no trade history for wallet %s", *wallet)
	}
	log.WithField("trades", len(events)).Info("trade history fetched")

	set, err := skills.RunAll(ctx, events, skillOptions(cfg))
	if err != nil {
		log.WithError(err).Fatal("run analyzers")
	}

	rules, err := synthesis.NewRuleSet(synthesis.DefaultRules(cfg.Rules))
	if err != nil {
		log.WithError(err).Fatal("build override rules")
	}
	client := llm.NewOpenRouterClient(cfg.LLM, log)
	synth := synthesis.New(client, cfg.LLM.AnalyzerModel, rules, cfg.LLM.MaxRetries, *versionTag, log)

	profile := fetchProfile(ctx, source, *wallet, log)

	thesis, err := synth.Synthesize(ctx, *wallet, profile, set, len(events))
	if err != nil {
		log.WithError(err).Fatal("synthesize thesis")
	}
	observability.RecordWalletAnalyzed(string(thesis.PrimaryStrategy))

	fmt.Print(renderThesis(thesis, len(events)))

	if *save {
		if cfg.Storage.PostgresDSN == "" {
			log.Fatal("--save requires POSTGRES_DSN")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("connect to postgres")
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			log.WithError(err).Fatal("run migrations")
		}
		store := pgstore.NewThesisStore(pool)
		if err := store.Insert(ctx, thesis); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				log.Warnf("thesis for %s already exists under %s", *wallet, *versionTag)
			} else {
				log.WithError(err).Fatal("store thesis")
			}
		} else {
			log.Info("thesis stored")
		}
	}
}

func skillOptions(cfg *config.Config) skills.Options {
	opts := skills.DefaultOptions()
	opts.MinTrades = cfg.Eval.MinTrades
	return opts
}

// fetchProfile is best-effort: a missing leaderboard profile just means less
// context in the prompt.
func fetchProfile(ctx context.Context, source evalrun.TradeSource, wallet string, log *logrus.Logger) *synthesis.Profile {
	p, err := source.Profile(ctx, wallet)
	if err != nil {
		log.Warnf("profile fetch failed for %s: %v", wallet, err)
		return nil
	}
	if p == (datasource.WalletProfile{}) {
		return nil
	}
	return &synthesis.Profile{
		Username:    p.Username,
		TotalPnL:    p.TotalPnL,
		Rank:        p.Rank,
		TotalTrades: p.TotalTrades,
	}
}

func renderThesis(t *domain.WalletThesis, tradeCount int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Wallet Thesis: %s\n\n", t.WalletID)
	fmt.Fprintf(&sb, "Version: %s\n\n", t.VersionTag)
	fmt.Fprintf(&sb, "Generated: %s\n\n", time.Unix(t.GeneratedAt, 0).UTC().Format(time.RFC3339))

	fmt.Fprintf(&sb, "| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(&sb, "| Primary Strategy | %s |\n", t.PrimaryStrategy)
	fmt.Fprintf(&sb, "| Confidence | %.2f |\n", t.Confidence)
	fmt.Fprintf(&sb, "| Trades Analyzed | %d |\n", tradeCount)
	if t.OverrideRule != "" {
		fmt.Fprintf(&sb, "| Override Rule | %s |\n", t.OverrideRule)
		fmt.Fprintf(&sb, "| Model Answer | %s |\n", t.RawStrategy)
	}
	sb.WriteString("\n")

	if len(t.EvidencePoints) > 0 {
		sb.WriteString("## Evidence\n\n")
		for _, e := range t.EvidencePoints {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
		sb.WriteString("\n")
	}

	if t.Reasoning != "" {
		sb.WriteString("## Reasoning\n\n")
		sb.WriteString(t.Reasoning)
		sb.WriteString("\n")
	}

	return sb.String()
}
