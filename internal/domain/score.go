package domain

import "time"

// EvalScore is the graded result for one (wallet, thesis version) pair.
// Exactly one WalletThesis and one GroundTruth entry, sharing WalletID,
// back every score.
type EvalScore struct {
	WalletID          string       `json:"wallet_id"`
	PredictedStrategy StrategyType `json:"predicted_strategy"`
	ActualStrategy    StrategyType `json:"actual_strategy"`
	Difficulty        Difficulty   `json:"difficulty,omitempty"`

	StrategyCorrect bool    `json:"strategy_correct"`
	EvidenceRecall  float64 `json:"evidence_recall"` // [0,1]
	FalseClaimCount int     `json:"false_claim_count"`
	CompositeScore  float64 `json:"composite_score"`

	// Judge detail kept for debugging, not used in aggregates.
	MatchedEvidence []string `json:"matched_evidence,omitempty"`
	MissedEvidence  []string `json:"missed_evidence,omitempty"`
	FalseClaims     []string `json:"false_claims,omitempty"`

	// ScoringError marks wallets whose judge pass failed after retry. Such
	// scores are excluded from aggregate means and counted separately.
	ScoringError bool   `json:"scoring_error,omitempty"`
	ErrorDetail  string `json:"error_detail,omitempty"`

	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
}

// EvalReport aggregates one evaluation run across the ground truth set.
// Reports are append-only; successive version tags form the history used
// for regression detection.
type EvalReport struct {
	ReportID   string    `json:"report_id"`
	VersionTag string    `json:"version_tag"`
	CreatedAt  time.Time `json:"created_at"`

	// Aggregates over scored wallets (scoring errors excluded).
	MeanComposite      float64 `json:"mean_composite"`
	StrategyAccuracy   float64 `json:"strategy_accuracy"`
	MeanEvidenceRecall float64 `json:"mean_evidence_recall"`
	MeanFalseClaims    float64 `json:"mean_false_claims"`

	WalletsEvaluated int `json:"wallets_evaluated"` // all wallets attempted
	ScoringErrors    int `json:"scoring_errors"`    // judge failures, excluded from means

	Scores []EvalScore `json:"scores"`
}

// ScoredWallets returns the number of wallets included in aggregate means.
func (r *EvalReport) ScoredWallets() int {
	return r.WalletsEvaluated - r.ScoringErrors
}
