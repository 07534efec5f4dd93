package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/datasource"
	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/observability"
	"wallet-strategy-lab/internal/storage"
	chstore "wallet-strategy-lab/internal/storage/clickhouse"
	"wallet-strategy-lab/internal/storage/memory"
	"wallet-strategy-lab/internal/storage/migrations"
	"wallet-strategy-lab/pkg/logger"
)

const (
	flushInterval = 5 * time.Second
	flushSize     = 500 // fills buffered before a forced flush
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	wallets := flag.String("wallets", "", "Comma-separated wallet addresses to follow (required)")
	useMemory := flag.Bool("use-memory", false, "Use the in-memory archive instead of ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	walletList := splitWallets(*wallets)
	if len(walletList) == 0 {
		log.Fatal("--wallets is required")
	}
	if cfg.DataAPI.WSURL == "" {
		log.Fatal("DATA_WS_URL is required for ingestion")
	}

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr, log)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, walletList, *useMemory, log); err != nil && err != context.Canceled {
		log.WithError(err).Fatal("ingestion failed")
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, wallets []string, useMemory bool, log *logrus.Logger) error {
	var store storage.TradeEventStore = memory.NewTradeEventStore()
	if !useMemory {
		if cfg.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("CLICKHOUSE_DSN is required (use --use-memory for the in-memory archive)")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		store = chstore.NewTradeEventStore(conn)
	}

	// Feed fills carry no sequence number; the archive position determines
	// where numbering continues for each wallet.
	nextSeq := make(map[string]int, len(wallets))
	for _, w := range wallets {
		n, err := store.CountByWallet(ctx, w)
		if err != nil {
			return fmt.Errorf("count archived events for %s: %w", w, err)
		}
		nextSeq[w] = n
	}

	events := make(chan domain.TradeEvent, 256)
	listener := datasource.NewListener(cfg.DataAPI.WSURL, wallets, events, log)
	listener.Start(ctx)
	defer listener.Stop()

	log.WithFields(logrus.Fields{
		"wallets": len(wallets),
		"url":     cfg.DataAPI.WSURL,
	}).Info("following activity feed")

	var buffer []domain.TradeEvent
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		// Flushes run on a detached context so a shutdown never drops
		// buffered fills.
		if err := store.InsertBulk(context.WithoutCancel(ctx), buffer); err != nil {
			return fmt.Errorf("archive %d fills: %w", len(buffer), err)
		}
		observability.DefaultMetrics.FillsArchived.Add(float64(len(buffer)))
		log.WithField("fills", len(buffer)).Debug("flushed to archive")
		buffer = buffer[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return flush()
		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}
		case e := <-events:
			observability.DefaultMetrics.FillsReceived.Inc()
			e.SeqNum = nextSeq[e.WalletID]
			nextSeq[e.WalletID]++
			buffer = append(buffer, e)
			if len(buffer) >= flushSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
}

func splitWallets(raw string) []string {
	var list []string
	for _, w := range strings.Split(raw, ",") {
		if w = strings.TrimSpace(w); w != "" {
			list = append(list, w)
		}
	}
	return list
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
