package scoring

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/llm"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testGroundTruth() *domain.GroundTruth {
	return &domain.GroundTruth{
		WalletID:        "0xabc",
		PrimaryStrategy: domain.StrategyContrarian,
		Difficulty:      domain.DifficultyMedium,
		EvidencePoints: []domain.EvidencePoint{
			{Description: "78% NO-side positions", Importance: 0.9, Category: "market_selection"},
			{Description: "avg entry price 0.22", Importance: 0.8, Category: "sizing"},
			{Description: "profits concentrated in underdog wins", Importance: 0.7, Category: "flow"},
			{Description: "no martingale behavior after losses", Importance: 0.5, Category: "pattern"},
		},
	}
}

func testThesis(strategy domain.StrategyType) *domain.WalletThesis {
	return &domain.WalletThesis{
		WalletID:        "0xabc",
		PrimaryStrategy: strategy,
		Confidence:      0.8,
		EvidencePoints:  []string{"NO-side bias", "low entry prices"},
		Reasoning:       "underdog buyer",
	}
}

func newTestScorer(client llm.Client, retries int) *Scorer {
	return NewScorer(client, "judge-model", retries, config.Default().Scoring, testLogger())
}

func TestScore_CompositeArithmetic(t *testing.T) {
	// Correct strategy, 2 of 4 evidence points matched, 1 false claim:
	// 0.5*1 + 0.3*0.5 + 0.2*(1 - 1/4) = 0.5 + 0.15 + 0.15 = 0.8
	client := llm.NewScriptedClient(`{
		"strategy_correct": true,
		"evidence_matches": ["78% NO-side positions", "avg entry price 0.22"],
		"evidence_missed": ["profits concentrated in underdog wins", "no martingale behavior after losses"],
		"false_claims": ["claims to front-run news"],
		"reasoning": "solid but incomplete"
	}`)
	s := newTestScorer(client, 0)

	score, err := s.Score(context.Background(), testGroundTruth(), testThesis(domain.StrategyContrarian))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	if !score.StrategyCorrect {
		t.Error("expected strategy correct")
	}
	if score.EvidenceRecall != 0.5 {
		t.Errorf("expected recall 0.5, got %f", score.EvidenceRecall)
	}
	if score.FalseClaimCount != 1 {
		t.Errorf("expected 1 false claim, got %d", score.FalseClaimCount)
	}
	if math.Abs(score.CompositeScore-0.8) > 1e-9 {
		t.Errorf("expected composite 0.8, got %f", score.CompositeScore)
	}
}

func TestScore_UnknownPredictionIsNeverCorrect(t *testing.T) {
	// Even a lenient judge cannot make an unknown prediction correct.
	client := llm.NewScriptedClient(`{
		"strategy_correct": true,
		"evidence_matches": [],
		"evidence_missed": [],
		"false_claims": [],
		"reasoning": ""
	}`)
	s := newTestScorer(client, 0)

	score, err := s.Score(context.Background(), testGroundTruth(), testThesis(domain.StrategyUnknown))
	if err != nil {
		t.Fatal(err)
	}
	if score.StrategyCorrect {
		t.Error("unknown prediction must be scored incorrect")
	}
}

func TestScore_JudgeFailureFlagsScoringError(t *testing.T) {
	client := llm.NewScriptedClient().FailWith(
		errors.New("judge down"), errors.New("judge down"))
	s := newTestScorer(client, 1)

	score, err := s.Score(context.Background(), testGroundTruth(), testThesis(domain.StrategyContrarian))
	if err != nil {
		t.Fatalf("judge failure must not error: %v", err)
	}
	if !score.ScoringError {
		t.Error("expected scoring error flag")
	}
	if !strings.Contains(score.ErrorDetail, "judge down") {
		t.Errorf("expected error detail preserved, got %q", score.ErrorDetail)
	}
	if client.Calls() != 2 {
		t.Errorf("expected 1 retry (2 calls), got %d", client.Calls())
	}
}

func TestScore_WalletMismatchErrors(t *testing.T) {
	s := newTestScorer(llm.NewScriptedClient(`{}`), 0)
	thesis := testThesis(domain.StrategyContrarian)
	thesis.WalletID = "0xother"

	if _, err := s.Score(context.Background(), testGroundTruth(), thesis); err == nil {
		t.Fatal("expected error for mismatched wallet ids")
	}
}

func TestComposite_MoreFalseClaimsNeverRaiseScore(t *testing.T) {
	s := newTestScorer(llm.NewScriptedClient(), 0)
	prev := 2.0
	for claims := 0; claims <= 8; claims++ {
		c := s.Composite(true, 0.5, claims, 4)
		if c > prev {
			t.Errorf("composite rose from %f to %f at %d false claims", prev, c, claims)
		}
		prev = c
	}
	// Beyond evidenceCount the term is clamped at zero.
	if a, b := s.Composite(true, 0.5, 4, 4), s.Composite(true, 0.5, 100, 4); a != b {
		t.Errorf("false-claim term must saturate: %f vs %f", a, b)
	}
}

func TestComposite_ZeroEvidenceGroundTruth(t *testing.T) {
	s := newTestScorer(llm.NewScriptedClient(), 0)
	// Denominator clamps to 1: no division by zero, result stays in [0,1].
	c := s.Composite(true, 0, 0, 0)
	if c < 0 || c > 1 {
		t.Errorf("composite out of range: %f", c)
	}
}
