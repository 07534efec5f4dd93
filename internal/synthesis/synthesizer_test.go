package synthesis

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/llm"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestSynthesizer(t *testing.T, client llm.Client, retries int) *Synthesizer {
	t.Helper()
	s := New(client, "test-model", defaultRuleSet(t), retries, "v-test", testLogger())
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestSynthesize_HappyPath(t *testing.T) {
	client := llm.NewScriptedClient(`{
		"primary_strategy": "contrarian",
		"confidence": 0.8,
		"evidence": ["78% NO-side positions", "avg entry price 0.22"],
		"reasoning": "consistent underdog buyer"
	}`)
	s := newTestSynthesizer(t, client, 1)

	set := signalSet(500, 0.4, 0.05, 1.2, 0.5, 0.5, 0)
	thesis, err := s.Synthesize(context.Background(), "0xabc", nil, set, 300)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if thesis.PrimaryStrategy != domain.StrategyContrarian {
		t.Errorf("expected contrarian, got %s", thesis.PrimaryStrategy)
	}
	if thesis.RawStrategy != domain.StrategyContrarian {
		t.Errorf("expected raw contrarian, got %s", thesis.RawStrategy)
	}
	if thesis.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %f", thesis.Confidence)
	}
	if len(thesis.EvidencePoints) != 2 {
		t.Errorf("expected 2 evidence points, got %d", len(thesis.EvidencePoints))
	}
	if thesis.VersionTag != "v-test" {
		t.Errorf("expected version tag v-test, got %s", thesis.VersionTag)
	}
	if thesis.GeneratedAt != 1700000000 {
		t.Errorf("expected injected clock timestamp, got %d", thesis.GeneratedAt)
	}
}

func TestSynthesize_FuzzyLabelCoercion(t *testing.T) {
	// "Market Maker (liquidity provision)" is not in the enumeration;
	// separator normalization plus containment matching coerces it to
	// market_maker instead of failing.
	client := llm.NewScriptedClient(`{
		"primary_strategy": "Market Maker (liquidity provision)",
		"confidence": 0.7,
		"evidence": [],
		"reasoning": ""
	}`)
	s := newTestSynthesizer(t, client, 0)

	set := signalSet(500, 0.6, 0.5, 2.0, 0.5, 0.5, 0)
	thesis, err := s.Synthesize(context.Background(), "0xabc", nil, set, 300)
	if err != nil {
		t.Fatal(err)
	}
	if thesis.RawStrategy != domain.StrategyMarketMaker {
		t.Errorf("expected fuzzy coercion to market_maker, got %s", thesis.RawStrategy)
	}
}

func TestSynthesize_OverrideApplied(t *testing.T) {
	// Model says momentum, sizing says $300K average on 40 trades: the
	// whale rule forces the final label.
	client := llm.NewScriptedClient(`{
		"primary_strategy": "momentum",
		"confidence": 0.6,
		"evidence": ["buys favorites"],
		"reasoning": "enters after price moves"
	}`)
	s := newTestSynthesizer(t, client, 0)

	set := signalSet(300_000, 0.6, 0.5, 2.0, 0.5, 0.5, 0)
	thesis, err := s.Synthesize(context.Background(), "0xabc", nil, set, 40)
	if err != nil {
		t.Fatal(err)
	}
	if thesis.PrimaryStrategy != domain.StrategyWhale {
		t.Errorf("expected whale after override, got %s", thesis.PrimaryStrategy)
	}
	if thesis.RawStrategy != domain.StrategyMomentum {
		t.Errorf("expected raw momentum preserved, got %s", thesis.RawStrategy)
	}
	if thesis.OverrideRule != "whale-large-positions" {
		t.Errorf("expected override rule recorded, got %q", thesis.OverrideRule)
	}
}

func TestSynthesize_RetryOnceThenSucceed(t *testing.T) {
	client := llm.NewScriptedClient(`{
		"primary_strategy": "scalper",
		"confidence": 0.9,
		"evidence": [],
		"reasoning": ""
	}`).FailWith(errors.New("upstream 500"))
	s := newTestSynthesizer(t, client, 1)

	set := signalSet(500, 0.5, 0.5, 1.0, 0.5, 0.5, 0)
	thesis, err := s.Synthesize(context.Background(), "0xabc", nil, set, 300)
	if err != nil {
		t.Fatal(err)
	}
	if thesis.RawStrategy != domain.StrategyScalper {
		t.Errorf("expected scalper after retry, got %s", thesis.RawStrategy)
	}
	if client.Calls() != 2 {
		t.Errorf("expected exactly 2 calls (1 failure + 1 retry), got %d", client.Calls())
	}
}

func TestSynthesize_FallbackToUnknownAfterRetryBudget(t *testing.T) {
	client := llm.NewScriptedClient().FailWith(
		errors.New("upstream 500"), errors.New("upstream 500"))
	s := newTestSynthesizer(t, client, 1)

	set := signalSet(500, 0.5, 0.5, 1.0, 0.5, 0.5, 0)
	thesis, err := s.Synthesize(context.Background(), "0xabc", nil, set, 300)
	if err != nil {
		t.Fatalf("model failure must not error the batch: %v", err)
	}
	if thesis.PrimaryStrategy != domain.StrategyUnknown {
		t.Errorf("expected unknown fallback, got %s", thesis.PrimaryStrategy)
	}
	if len(thesis.EvidencePoints) != 1 || !strings.Contains(thesis.EvidencePoints[0], "classification unavailable") {
		t.Errorf("expected failure recorded as evidence, got %v", thesis.EvidencePoints)
	}
	if client.Calls() != 2 {
		t.Errorf("expected 2 attempts, got %d", client.Calls())
	}
}

func TestBuildMessages_IncludesProfileAndBundles(t *testing.T) {
	set := signalSet(500, 0.5, 0.5, 1.0, 0.9, 0.5, 0)
	msgs := BuildMessages("0xabc", &Profile{Username: "trader1", TotalPnL: 12345.67, Rank: 9}, set, 300)

	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
	user := msgs[1].Content
	for _, want := range []string{"0xabc", "trader1", "12345.67", "Rank: 9", "SIZING ANALYSIS", "TIMING ANALYSIS"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q", want)
		}
	}
}

func TestBuildMessages_Deterministic(t *testing.T) {
	set := signalSet(500, 0.5, 0.5, 1.0, 0.9, 0.5, 0)
	a := BuildMessages("0xabc", nil, set, 300)
	b := BuildMessages("0xabc", nil, set, 300)
	if a[1].Content != b[1].Content {
		t.Error("prompt serialization must be deterministic")
	}
}
