package domain

import "strings"

// StrategyType is one label from the fixed strategy enumeration.
type StrategyType string

// Known trading strategy archetypes.
const (
	StrategyInfoEdge    StrategyType = "info_edge"    // trades on non-public or early information
	StrategyModelBased  StrategyType = "model_based"  // quantitative/statistical models
	StrategyMarketMaker StrategyType = "market_maker" // provides liquidity, profits from spread
	StrategyContrarian  StrategyType = "contrarian"   // bets against consensus
	StrategyMomentum    StrategyType = "momentum"     // follows trends
	StrategyHedger      StrategyType = "hedger"       // hedges positions across markets
	StrategyArbitrage   StrategyType = "arbitrage"    // cross-market arb
	StrategyWhale       StrategyType = "whale"        // large positions that move markets
	StrategyScalper     StrategyType = "scalper"      // high-frequency small-profit trades
	StrategyUnknown     StrategyType = "unknown"      // cannot determine strategy
)

// AllStrategyTypes lists every valid strategy label.
var AllStrategyTypes = []StrategyType{
	StrategyInfoEdge,
	StrategyModelBased,
	StrategyMarketMaker,
	StrategyContrarian,
	StrategyMomentum,
	StrategyHedger,
	StrategyArbitrage,
	StrategyWhale,
	StrategyScalper,
	StrategyUnknown,
}

// Valid reports whether s is a member of the enumeration.
func (s StrategyType) Valid() bool {
	for _, t := range AllStrategyTypes {
		if s == t {
			return true
		}
	}
	return false
}

// labelSeparators maps the separator variants models emit onto the
// underscore form the enumeration uses.
var labelSeparators = strings.NewReplacer(" ", "_", "-", "_")

// ParseStrategyType coerces a raw label into the enumeration. Spaces and
// hyphens normalize to underscores first ("Market Maker" → market_maker),
// then unrecognized labels are matched by containment (either direction)
// before falling back to StrategyUnknown; a classifier never fails on a bad
// label.
func ParseStrategyType(raw string) StrategyType {
	label := labelSeparators.Replace(strings.ToLower(strings.TrimSpace(raw)))
	if s := StrategyType(label); s.Valid() {
		return s
	}
	for _, t := range AllStrategyTypes {
		if t == StrategyUnknown {
			continue
		}
		if strings.Contains(label, string(t)) || (label != "" && strings.Contains(string(t), label)) {
			return t
		}
	}
	return StrategyUnknown
}

// WalletThesis is the analyzer's conclusion for one wallet. Created once per
// analysis run and never mutated; a new run produces a new thesis.
type WalletThesis struct {
	WalletID        string       `json:"wallet_id"`
	PrimaryStrategy StrategyType `json:"primary_strategy"`
	Confidence      float64      `json:"confidence"` // [0,1]
	EvidencePoints  []string     `json:"evidence_points"`
	Reasoning       string       `json:"reasoning,omitempty"`

	// SupportingSignals are the exact bundles the synthesizer consulted, kept
	// so scoring and debugging can reconstruct why the label was chosen.
	SupportingSignals SignalSet `json:"supporting_signals,omitempty"`

	// OverrideRule names the override rule that forced or vetoed the raw
	// model answer, empty when the model answer stood.
	OverrideRule string `json:"override_rule,omitempty"`
	RawStrategy  StrategyType `json:"raw_strategy,omitempty"` // model answer before overrides

	VersionTag  string `json:"version_tag"`
	GeneratedAt int64  `json:"generated_at"` // unix seconds
}
