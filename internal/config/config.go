// Package config handles loading and validating configuration from a YAML
// file, a .env file, and environment variables.
// Priority order: environment variables > YAML file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the wallet strategy lab.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	DataAPI DataAPIConfig `yaml:"data_api"`
	LLM     LLMConfig     `yaml:"llm"`
	Eval    EvalConfig    `yaml:"eval"`
	Scoring ScoringConfig `yaml:"scoring"`
	Rules   RulesConfig   `yaml:"rules"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig configures logrus output.
type LogConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	OutputFile string `yaml:"output_file"` // empty = stderr only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DataAPIConfig configures the trade-history data source.
type DataAPIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	WSURL       string        `yaml:"ws_url"` // live activity feed
	Timeout     time.Duration `yaml:"timeout"`
	PageSize    int           `yaml:"page_size"`
	RetryCount  int           `yaml:"retry_count"`
	RetryWait   time.Duration `yaml:"retry_wait"`
	MaxRetryWait time.Duration `yaml:"max_retry_wait"`
}

// LLMConfig configures the inference backend (OpenRouter-compatible).
type LLMConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"-"` // env only, never in YAML
	AnalyzerModel string        `yaml:"analyzer_model"`
	JudgeModel    string        `yaml:"judge_model"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`
	// Timeout must be generous: wallets with 60k+ trade records produce
	// large prompts and short timeouts were observed to fail.
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"` // per call, on top of the first attempt
}

// EvalConfig configures the evaluation runner.
type EvalConfig struct {
	VersionTag  string `yaml:"version_tag"`
	Concurrency int    `yaml:"concurrency"` // bounded wallet-level parallelism
	MinTrades   int    `yaml:"min_trades"`  // below this, analyzers emit insufficient-data
}

// ScoringConfig holds the composite-score weights. Weights must stay stable
// across a report series for version-over-version comparison to be meaningful.
type ScoringConfig struct {
	StrategyWeight    float64 `yaml:"strategy_weight"`
	EvidenceWeight    float64 `yaml:"evidence_weight"`
	FalseClaimWeight  float64 `yaml:"false_claim_weight"`
	RegressionEpsilon float64 `yaml:"regression_epsilon"` // material composite drop
}

// RulesConfig holds the override-layer thresholds. These are empirically
// tuned and expected to keep changing; every threshold is named here rather
// than hard-coded in the rule table.
type RulesConfig struct {
	WhaleAvgSize          float64 `yaml:"whale_avg_size"`           // force whale above this avg position
	WhaleMaxTrades        int     `yaml:"whale_max_trades"`         // ...with at most this many trades
	AntiWhaleMaxAvgSize   float64 `yaml:"anti_whale_max_avg_size"`  // veto whale below this avg position
	AntiWhaleMinTrades    int     `yaml:"anti_whale_min_trades"`    // ...with at least this many trades
	MakerMinTrades        int     `yaml:"maker_min_trades"`
	MakerWinRateBand      float64 `yaml:"maker_win_rate_band"`      // |win rate - 0.5| below this
	MakerMaxHHI           float64 `yaml:"maker_max_hhi"`
	MakerMaxEdge          float64 `yaml:"maker_max_edge"`           // |profit factor - 1| below this
	InfoEdgeMinWinRate    float64 `yaml:"info_edge_min_win_rate"`
	InfoEdgeMinCategory   float64 `yaml:"info_edge_min_category"`   // dominant category share
	InfoEdgeMaxConsistency float64 `yaml:"info_edge_max_consistency"` // sporadic timing
	ScalperMaxAvgSize     float64 `yaml:"scalper_max_avg_size"`
	ScalperMinTrades      int     `yaml:"scalper_min_trades"`
	HedgerMinHedgeRatio   float64 `yaml:"hedger_min_hedge_ratio"`
}

// StorageConfig configures persistence backends. Empty DSNs select the
// in-memory stores.
type StorageConfig struct {
	PostgresDSN    string `yaml:"-"` // env only
	ClickhouseDSN  string `yaml:"-"` // env only
	GroundTruthFile string `yaml:"ground_truth_file"`
	OutputDir      string `yaml:"output_dir"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"` // empty = disabled
}

// Default returns the built-in defaults. Threshold defaults follow the
// heuristics the classification prompt documents.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		DataAPI: DataAPIConfig{
			BaseURL:      "http://localhost:8000",
			Timeout:      120 * time.Second,
			PageSize:     500,
			RetryCount:   3,
			RetryWait:    time.Second,
			MaxRetryWait: 10 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:       "https://openrouter.ai/api/v1",
			AnalyzerModel: "google/gemini-2.5-flash",
			JudgeModel:    "anthropic/claude-sonnet-4",
			Temperature:   0.3,
			MaxTokens:     4096,
			Timeout:       120 * time.Second,
			MaxRetries:    1,
		},
		Eval: EvalConfig{
			VersionTag:  "dev",
			Concurrency: 4,
			MinTrades:   5,
		},
		Scoring: ScoringConfig{
			StrategyWeight:    0.5,
			EvidenceWeight:    0.3,
			FalseClaimWeight:  0.2,
			RegressionEpsilon: 0.05,
		},
		Rules: RulesConfig{
			WhaleAvgSize:           100_000,
			WhaleMaxTrades:         500,
			AntiWhaleMaxAvgSize:    1_000,
			AntiWhaleMinTrades:     1_000,
			MakerMinTrades:         10_000,
			MakerWinRateBand:       0.05,
			MakerMaxHHI:            0.1,
			MakerMaxEdge:           0.2,
			InfoEdgeMinWinRate:     0.65,
			InfoEdgeMinCategory:    0.8,
			InfoEdgeMaxConsistency: 0.1,
			ScalperMaxAvgSize:      100,
			ScalperMinTrades:       5_000,
			HedgerMinHedgeRatio:    0.15,
		},
		Storage: StorageConfig{
			GroundTruthFile: "eval/ground_truth/labeled.json",
			OutputDir:       "docs",
		},
	}
}

// Load reads configuration from the YAML file at path (optional) and applies
// environment overrides. A .env file is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and endpoints from the environment.
func (c *Config) applyEnv() {
	c.LLM.APIKey = getEnv("OPENROUTER_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.AnalyzerModel = getEnv("ANALYZER_MODEL", c.LLM.AnalyzerModel)
	c.LLM.JudgeModel = getEnv("JUDGE_MODEL", c.LLM.JudgeModel)
	c.DataAPI.BaseURL = getEnv("DATA_API_URL", c.DataAPI.BaseURL)
	c.DataAPI.WSURL = getEnv("DATA_WS_URL", c.DataAPI.WSURL)
	c.Storage.PostgresDSN = getEnv("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.ClickhouseDSN = getEnv("CLICKHOUSE_DSN", c.Storage.ClickhouseDSN)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	if v := getEnvInt("EVAL_CONCURRENCY", 0); v > 0 {
		c.Eval.Concurrency = v
	}
}

// Validate checks invariants that would otherwise surface deep in a run.
func (c *Config) Validate() error {
	if c.Eval.Concurrency < 1 {
		return fmt.Errorf("eval.concurrency must be >= 1, got %d", c.Eval.Concurrency)
	}
	if c.Eval.MinTrades < 1 {
		return fmt.Errorf("eval.min_trades must be >= 1, got %d", c.Eval.MinTrades)
	}
	w := c.Scoring
	if w.StrategyWeight < 0 || w.EvidenceWeight < 0 || w.FalseClaimWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if w.StrategyWeight+w.EvidenceWeight+w.FalseClaimWeight == 0 {
		return fmt.Errorf("scoring weights must not all be zero")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %v", c.LLM.Timeout)
	}
	if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > 1 {
		// Retries are single-shot to bound worst-case latency.
		return fmt.Errorf("llm.max_retries must be 0 or 1, got %d", c.LLM.MaxRetries)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
