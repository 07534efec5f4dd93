package reporting

import (
	"fmt"
	"strings"
	"time"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/evalrun"
)

// RenderMarkdown renders one evaluation report as a Markdown string.
func RenderMarkdown(r *domain.EvalReport, regressions []evalrun.Regression) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Evaluation Report %s\n\n", r.VersionTag))
	sb.WriteString(fmt.Sprintf("Report ID: %s\n\n", r.ReportID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.CreatedAt.UTC().Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wallets Evaluated | %d |\n", r.WalletsEvaluated))
	sb.WriteString(fmt.Sprintf("| Scoring Errors | %d |\n", r.ScoringErrors))
	sb.WriteString(fmt.Sprintf("| Strategy Accuracy | %.4f |\n", r.StrategyAccuracy))
	sb.WriteString(fmt.Sprintf("| Mean Composite | %.4f |\n", r.MeanComposite))
	sb.WriteString(fmt.Sprintf("| Mean Evidence Recall | %.4f |\n", r.MeanEvidenceRecall))
	sb.WriteString(fmt.Sprintf("| Mean False Claims | %.4f |\n", r.MeanFalseClaims))
	sb.WriteString("\n")

	sb.WriteString("## Per-Wallet Scores\n\n")
	if len(r.Scores) > 0 {
		sb.WriteString("| Wallet | Difficulty | Actual | Predicted | Correct | Recall | FalseClaims | Composite |\n")
		sb.WriteString("|--------|------------|--------|-----------|---------|--------|-------------|----------|\n")
		for _, s := range r.Scores {
			if s.ScoringError {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | - | ERROR | - | - | - |\n",
					s.WalletID, s.Difficulty, s.ActualStrategy))
				continue
			}
			correct := "no"
			if s.StrategyCorrect {
				correct = "yes"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.4f | %d | %.4f |\n",
				s.WalletID, s.Difficulty, s.ActualStrategy, s.PredictedStrategy,
				correct, s.EvidenceRecall, s.FalseClaimCount, s.CompositeScore))
		}
	} else {
		sb.WriteString("No wallets scored.\n")
	}
	sb.WriteString("\n")

	if errs := scoringErrors(r.Scores); len(errs) > 0 {
		sb.WriteString("## Scoring Errors\n\n")
		for _, s := range errs {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", s.WalletID, s.ErrorDetail))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Regressions\n\n")
	if len(regressions) > 0 {
		for _, reg := range regressions {
			if reg.WalletID != "" {
				sb.WriteString(fmt.Sprintf("- **%s** %s: %s\n", reg.Kind, reg.WalletID, reg.Detail))
			} else {
				sb.WriteString(fmt.Sprintf("- **%s**: %s\n", reg.Kind, reg.Detail))
			}
		}
	} else {
		sb.WriteString("None detected.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderHistoryMarkdown renders the run history as a summary table, newest
// last to match the stored order.
func RenderHistoryMarkdown(history []*domain.EvalReport, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Evaluation History\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339)))

	if len(history) == 0 {
		sb.WriteString("No evaluation runs recorded.\n")
		return sb.String()
	}

	sb.WriteString("| Version | Created | Wallets | Errors | Accuracy | Composite | Recall |\n")
	sb.WriteString("|---------|---------|---------|--------|----------|-----------|--------|\n")
	for _, r := range history {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.4f | %.4f | %.4f |\n",
			r.VersionTag, r.CreatedAt.UTC().Format(time.RFC3339),
			r.WalletsEvaluated, r.ScoringErrors,
			r.StrategyAccuracy, r.MeanComposite, r.MeanEvidenceRecall))
	}
	sb.WriteString("\n")

	return sb.String()
}

func scoringErrors(scores []domain.EvalScore) []domain.EvalScore {
	var errs []domain.EvalScore
	for _, s := range scores {
		if s.ScoringError {
			errs = append(errs, s)
		}
	}
	return errs
}
