package domain

// Skill name constants. One SkillSignalBundle per skill per wallet.
const (
	SkillTiming      = "timing"
	SkillSizing      = "sizing"
	SkillMarket      = "market"
	SkillFlow        = "flow"
	SkillPattern     = "pattern"
	SkillCorrelation = "correlation"
)

// SignalValue kind constants.
const (
	SignalNumber  = "number"
	SignalInteger = "integer"
	SignalFlag    = "flag"
	SignalText    = "text"
)

// SignalValue is one scalar signal produced by a skill analyzer.
// Insufficient marks values that could not be computed stably
// (too few trades); such values carry no numeric payload.
type SignalValue struct {
	Kind         string  `json:"kind"`
	Num          float64 `json:"num,omitempty"`
	Int          int64   `json:"int,omitempty"`
	Flag         bool    `json:"flag,omitempty"`
	Text         string  `json:"text,omitempty"`
	Insufficient bool    `json:"insufficient,omitempty"`
}

// Number builds a numeric signal value.
func Number(v float64) SignalValue { return SignalValue{Kind: SignalNumber, Num: v} }

// Integer builds an integer signal value.
func Integer(v int64) SignalValue { return SignalValue{Kind: SignalInteger, Int: v} }

// Flag builds a boolean signal value.
func Flag(v bool) SignalValue { return SignalValue{Kind: SignalFlag, Flag: v} }

// Text builds a textual signal value.
func Text(v string) SignalValue { return SignalValue{Kind: SignalText, Text: v} }

// InsufficientData builds the sentinel for signals that cannot be computed
// from the available trade count.
func InsufficientData() SignalValue { return SignalValue{Insufficient: true} }

// SkillSignalBundle is the output of one skill analyzer for one wallet.
// Bundles are produced independently and never mutated after creation.
type SkillSignalBundle struct {
	Skill      string                 `json:"skill"`
	TradeCount int                    `json:"trade_count"`
	Signals    map[string]SignalValue `json:"signals"`
	// Notes are human-readable highlights (e.g. "CONSISTENT_SIZING: ...")
	// serialized into the synthesizer prompt.
	Notes []string `json:"notes,omitempty"`
}

// Num returns a numeric view of the named signal. The second return is false
// for missing, non-numeric, or insufficient-data signals.
func (b *SkillSignalBundle) Num(key string) (float64, bool) {
	v, ok := b.Signals[key]
	if !ok || v.Insufficient {
		return 0, false
	}
	switch v.Kind {
	case SignalNumber:
		return v.Num, true
	case SignalInteger:
		return float64(v.Int), true
	default:
		return 0, false
	}
}

// FlagSet reports whether the named signal is a flag set to true.
func (b *SkillSignalBundle) FlagSet(key string) bool {
	v, ok := b.Signals[key]
	return ok && !v.Insufficient && v.Kind == SignalFlag && v.Flag
}

// SignalSet is all six bundles for one wallet, keyed by skill name.
type SignalSet map[string]*SkillSignalBundle

// Num looks up a numeric signal as skill/key. Missing skills behave like
// missing signals.
func (s SignalSet) Num(skill, key string) (float64, bool) {
	b, ok := s[skill]
	if !ok || b == nil {
		return 0, false
	}
	return b.Num(key)
}
