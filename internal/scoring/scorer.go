package scoring

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/llm"
	"wallet-strategy-lab/internal/observability"
)

// Scorer grades theses with the judge model and computes composite scores.
type Scorer struct {
	client     llm.Client
	model      string
	maxRetries int
	weights    config.ScoringConfig
	log        *logrus.Logger
}

// NewScorer builds a scorer. Weight validation happens in config.Validate;
// by the time a Scorer exists the weights are non-negative and not all zero.
func NewScorer(client llm.Client, model string, maxRetries int, weights config.ScoringConfig, log *logrus.Logger) *Scorer {
	return &Scorer{
		client:     client,
		model:      model,
		maxRetries: maxRetries,
		weights:    weights,
		log:        log,
	}
}

// Score judges one thesis against its ground truth. Judge failures after
// the retry budget do not surface as errors: the score comes back flagged
// as a scoring error so the runner can exclude it from aggregates. Only
// context cancellation returns an error.
func (s *Scorer) Score(ctx context.Context, gt *domain.GroundTruth, thesis *domain.WalletThesis) (*domain.EvalScore, error) {
	if gt.WalletID != thesis.WalletID {
		return nil, fmt.Errorf("ground truth wallet %s does not match thesis wallet %s", gt.WalletID, thesis.WalletID)
	}

	score := &domain.EvalScore{
		WalletID:          gt.WalletID,
		PredictedStrategy: thesis.PrimaryStrategy,
		ActualStrategy:    gt.PrimaryStrategy,
		Difficulty:        gt.Difficulty,
	}

	messages := []llm.Message{
		{Role: "system", Content: judgeSystemPrompt},
		{Role: "user", Content: BuildJudgePrompt(gt, thesis)},
	}

	var assessment JudgeAssessment
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		lastErr = llm.CompleteJSON(ctx, s.client, s.model, messages, &assessment)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("judge %s: %w", gt.WalletID, ctx.Err())
		}
		s.log.WithError(lastErr).WithFields(logrus.Fields{
			"wallet":  gt.WalletID,
			"attempt": attempt + 1,
		}).Warn("judge call failed")
		if attempt < s.maxRetries {
			observability.RecordLLMRetry(s.model)
		}
	}
	if lastErr != nil {
		score.ScoringError = true
		score.ErrorDetail = lastErr.Error()
		return score, nil
	}

	score.StrategyCorrect = assessment.StrategyCorrect
	// An unknown prediction is never correct against a labeled wallet,
	// whatever the judge decided.
	if thesis.PrimaryStrategy == domain.StrategyUnknown && gt.PrimaryStrategy != domain.StrategyUnknown {
		score.StrategyCorrect = false
	}

	evidenceCount := len(gt.EvidencePoints)
	denom := evidenceCount
	if denom == 0 {
		denom = 1
	}
	recall := float64(len(assessment.EvidenceMatches)) / float64(denom)
	if recall > 1 {
		recall = 1
	}
	score.EvidenceRecall = recall
	score.FalseClaimCount = len(assessment.FalseClaims)
	score.MatchedEvidence = assessment.EvidenceMatches
	score.MissedEvidence = assessment.EvidenceMissed
	score.FalseClaims = assessment.FalseClaims

	score.CompositeScore = s.Composite(score.StrategyCorrect, recall, score.FalseClaimCount, evidenceCount)
	return score, nil
}

// Composite folds the three criteria into one number in [0,1]. The false
// claim term saturates at zero: claiming more falsehoods than there are
// evidence points cannot push the score negative.
func (s *Scorer) Composite(strategyCorrect bool, evidenceRecall float64, falseClaims, evidenceCount int) float64 {
	strategyTerm := 0.0
	if strategyCorrect {
		strategyTerm = 1.0
	}

	denom := evidenceCount
	if denom == 0 {
		denom = 1
	}
	falseTerm := 1 - float64(falseClaims)/float64(denom)
	if falseTerm < 0 {
		falseTerm = 0
	}

	w := s.weights
	total := w.StrategyWeight + w.EvidenceWeight + w.FalseClaimWeight
	return (w.StrategyWeight*strategyTerm + w.EvidenceWeight*evidenceRecall + w.FalseClaimWeight*falseTerm) / total
}
