package reporting

import (
	"fmt"
	"strings"

	"wallet-strategy-lab/internal/domain"
)

// RenderCSV renders per-wallet scores as a CSV string. Error rows keep their
// wallet and label columns with empty score fields, so spreadsheets show the
// gap instead of a misleading zero.
func RenderCSV(scores []domain.EvalScore) string {
	var sb strings.Builder

	sb.WriteString("wallet_id,difficulty,actual_strategy,predicted_strategy,")
	sb.WriteString("strategy_correct,evidence_recall,false_claim_count,composite_score,")
	sb.WriteString("scoring_error,elapsed_seconds\n")

	for _, s := range scores {
		if s.ScoringError {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,,,,,,true,\n",
				s.WalletID, s.Difficulty, s.ActualStrategy))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%t,%.6f,%d,%.6f,false,%.3f\n",
			s.WalletID,
			s.Difficulty,
			s.ActualStrategy,
			s.PredictedStrategy,
			s.StrategyCorrect,
			s.EvidenceRecall,
			s.FalseClaimCount,
			s.CompositeScore,
			s.ElapsedSeconds,
		))
	}

	return sb.String()
}
