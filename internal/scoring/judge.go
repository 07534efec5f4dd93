// Package scoring grades wallet theses against ground truth labels using an
// LLM judge, then folds the assessment into a weighted composite score.
package scoring

import (
	"fmt"
	"strings"

	"wallet-strategy-lab/internal/domain"
)

// JudgeAssessment is the structured verdict the judge model returns when
// comparing one thesis to its ground truth entry.
type JudgeAssessment struct {
	StrategyCorrect bool     `json:"strategy_correct"`
	EvidenceMatches []string `json:"evidence_matches"` // ground truth points the thesis found
	EvidenceMissed  []string `json:"evidence_missed"`
	FalseClaims     []string `json:"false_claims"` // thesis claims unsupported by data
	Reasoning       string   `json:"reasoning"`
}

const judgeSystemPrompt = `You are an expert evaluator of trading account analyses. Respond in valid JSON with EXACTLY these snake_case field names:
{
  "strategy_correct": true,
  "evidence_matches": [],
  "evidence_missed": [],
  "false_claims": [],
  "reasoning": ""
}`

const judgePromptTemplate = `You will be given:
1. A GROUND TRUTH — what we know about this wallet's actual trading strategy
2. A THESIS — what an AI analyst produced about this wallet

Your job: Score how good the thesis is.

## Scoring Criteria

**Strategy Correct:** Did the thesis identify the correct primary strategy type?
The ground truth says: %s. The thesis says: %s.
Exact match = correct. Close match (e.g., "info_edge" vs description of information advantage) = correct.
Completely wrong = not correct.

**Evidence Matching:** The ground truth lists specific evidence points that a good analysis should find.
For each ground truth evidence point, determine if the thesis found it (even if worded differently).

**False Claims:** List any claims in the thesis that are NOT supported by the wallet's actual data.
Speculative claims clearly marked as speculation are OK. Stated-as-fact claims without evidence = false.

## Ground Truth
Wallet: %s
Primary Strategy: %s
Key Evidence Points:
%s
Notes: %s

## Thesis to Evaluate
Primary Strategy: %s
Confidence: %.2f
Evidence Cited:
%s
Reasoning:
%s`

// BuildJudgePrompt renders the comparison prompt for one (thesis, ground
// truth) pair. Output is deterministic for stable judging.
func BuildJudgePrompt(gt *domain.GroundTruth, thesis *domain.WalletThesis) string {
	var gtEvidence strings.Builder
	for _, ep := range gt.EvidencePoints {
		fmt.Fprintf(&gtEvidence, "  - [%s] %s (importance: %.2f)\n", ep.Category, ep.Description, ep.Importance)
	}
	if gtEvidence.Len() == 0 {
		gtEvidence.WriteString("  (none specified)\n")
	}

	var thesisEvidence strings.Builder
	for _, e := range thesis.EvidencePoints {
		fmt.Fprintf(&thesisEvidence, "  - %s\n", e)
	}
	if thesisEvidence.Len() == 0 {
		thesisEvidence.WriteString("  (none)\n")
	}

	notes := gt.Notes
	if notes == "" {
		notes = "none"
	}

	return fmt.Sprintf(judgePromptTemplate,
		gt.PrimaryStrategy, thesis.PrimaryStrategy,
		gt.WalletID, gt.PrimaryStrategy,
		strings.TrimRight(gtEvidence.String(), "\n"), notes,
		thesis.PrimaryStrategy, thesis.Confidence,
		strings.TrimRight(thesisEvidence.String(), "\n"), thesis.Reasoning,
	)
}
