package domain

// Difficulty grades how hard a labeled wallet is to classify.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"   // obvious pattern, clear strategy
	DifficultyMedium Difficulty = "medium" // mixed signals, needs deeper analysis
	DifficultyHard   Difficulty = "hard"   // deceptive or deliberately obfuscated
)

// EvidencePoint is one specific finding a correct analysis should surface.
type EvidencePoint struct {
	Description string  `json:"description"`
	Importance  float64 `json:"importance"` // [0,1]
	Category    string  `json:"category"`   // e.g. "timing", "sizing", "market_selection"
}

// GroundTruth is a hand-labeled wallet. The set is append-only and read-only
// from the engine's perspective; labels are produced by an external process.
type GroundTruth struct {
	WalletID        string          `json:"wallet_id"`
	Username        string          `json:"username,omitempty"`
	PrimaryStrategy StrategyType    `json:"primary_strategy"`
	Difficulty      Difficulty      `json:"difficulty"`
	EvidencePoints  []EvidencePoint `json:"evidence_points"`
	Notes           string          `json:"notes,omitempty"`

	// Context stats from the data source, optional.
	TotalPnL    float64 `json:"total_pnl,omitempty"`
	TotalTrades int     `json:"total_trades,omitempty"`
}
