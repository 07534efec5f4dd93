package evalrun

import (
	"context"
	"errors"
	"fmt"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// Regression describes one version-over-version degradation.
type Regression struct {
	Kind     string  `json:"kind"` // "wallet_flipped" or "composite_drop"
	WalletID string  `json:"wallet_id,omitempty"`
	Detail   string  `json:"detail"`
	Previous float64 `json:"previous,omitempty"`
	Current  float64 `json:"current,omitempty"`
}

// CompareReports finds regressions between two successive reports: wallets
// that were classified correctly in prev and incorrectly in curr, and a
// mean-composite drop larger than epsilon. Wallets flagged as scoring errors
// on either side are skipped; a judge outage is not a model regression.
func CompareReports(prev, curr *domain.EvalReport, epsilon float64) []Regression {
	var regressions []Regression

	prevByWallet := make(map[string]domain.EvalScore, len(prev.Scores))
	for _, s := range prev.Scores {
		prevByWallet[s.WalletID] = s
	}

	for _, s := range curr.Scores {
		if s.ScoringError {
			continue
		}
		p, ok := prevByWallet[s.WalletID]
		if !ok || p.ScoringError {
			continue
		}
		if p.StrategyCorrect && !s.StrategyCorrect {
			regressions = append(regressions, Regression{
				Kind:     "wallet_flipped",
				WalletID: s.WalletID,
				Detail: fmt.Sprintf("was %s, now predicts %s (actual %s)",
					p.PredictedStrategy, s.PredictedStrategy, s.ActualStrategy),
			})
		}
	}

	if drop := prev.MeanComposite - curr.MeanComposite; drop > epsilon {
		regressions = append(regressions, Regression{
			Kind:     "composite_drop",
			Detail:   fmt.Sprintf("mean composite dropped %.4f (epsilon %.4f)", drop, epsilon),
			Previous: prev.MeanComposite,
			Current:  curr.MeanComposite,
		})
	}

	return regressions
}

// DetectRegressions compares the newest stored report against its
// predecessor. A history with fewer than two reports has nothing to regress
// from and returns nil.
func DetectRegressions(ctx context.Context, reports storage.EvalReportStore, epsilon float64) ([]Regression, error) {
	history, err := reports.GetHistory(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load report history: %w", err)
	}
	if len(history) < 2 {
		return nil, nil
	}

	prev := history[len(history)-2]
	curr := history[len(history)-1]
	return CompareReports(prev, curr, epsilon), nil
}
