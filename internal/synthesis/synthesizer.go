package synthesis

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/llm"
	"wallet-strategy-lab/internal/observability"
)

// Synthesizer produces a WalletThesis from skill bundles: one model call,
// fuzzy label coercion, then the override layer.
type Synthesizer struct {
	client     llm.Client
	model      string
	rules      *RuleSet
	maxRetries int
	versionTag string
	log        *logrus.Logger

	now func() time.Time // injectable for tests
}

// New builds a synthesizer. maxRetries is the number of additional attempts
// after a failed model call (0 or 1).
func New(client llm.Client, model string, rules *RuleSet, maxRetries int, versionTag string, log *logrus.Logger) *Synthesizer {
	return &Synthesizer{
		client:     client,
		model:      model,
		rules:      rules,
		maxRetries: maxRetries,
		versionTag: versionTag,
		log:        log,
		now:        time.Now,
	}
}

// classifierAnswer is the JSON shape the analyzer model is asked for.
type classifierAnswer struct {
	PrimaryStrategy string   `json:"primary_strategy"`
	Confidence      float64  `json:"confidence"`
	Evidence        []string `json:"evidence"`
	Reasoning       string   `json:"reasoning"`
}

// Synthesize classifies one wallet. It never returns an error for model
// failures: after the retry budget is spent the thesis falls back to
// unknown with the failure recorded as an evidence point, so one bad wallet
// cannot sink a batch. Only context cancellation propagates.
func (s *Synthesizer) Synthesize(ctx context.Context, walletID string, profile *Profile, set domain.SignalSet, tradeCount int) (*domain.WalletThesis, error) {
	messages := BuildMessages(walletID, profile, set, tradeCount)

	var answer classifierAnswer
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		lastErr = llm.CompleteJSON(ctx, s.client, s.model, messages, &answer)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("synthesize %s: %w", walletID, ctx.Err())
		}
		s.log.WithError(lastErr).WithFields(logrus.Fields{
			"wallet":  walletID,
			"attempt": attempt + 1,
		}).Warn("classifier call failed")
		if attempt < s.maxRetries {
			observability.RecordLLMRetry(s.model)
		}
	}

	thesis := &domain.WalletThesis{
		WalletID:          walletID,
		SupportingSignals: set,
		VersionTag:        s.versionTag,
		GeneratedAt:       s.now().Unix(),
	}

	if lastErr != nil {
		thesis.PrimaryStrategy = domain.StrategyUnknown
		thesis.RawStrategy = domain.StrategyUnknown
		thesis.EvidencePoints = []string{"classification unavailable: " + lastErr.Error()}
		return thesis, nil
	}

	raw := domain.ParseStrategyType(answer.PrimaryStrategy)
	final, ruleName := s.rules.Apply(raw, set, tradeCount)

	thesis.RawStrategy = raw
	thesis.PrimaryStrategy = final
	thesis.Confidence = clamp01(answer.Confidence)
	thesis.EvidencePoints = answer.Evidence
	thesis.Reasoning = answer.Reasoning
	thesis.OverrideRule = ruleName

	if ruleName != "" {
		observability.RecordOverride(ruleName)
		s.log.WithFields(logrus.Fields{
			"wallet": walletID,
			"raw":    raw,
			"final":  final,
			"rule":   ruleName,
		}).Info("override rule applied")
	}
	return thesis, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
