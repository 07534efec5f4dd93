package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/llm"
)

// classifierPrompt instructs the analyzer model. The decision framework
// mirrors the order the override layer checks things in, so model answers
// and rule corrections rarely fight each other.
const classifierPrompt = `You are an expert Polymarket trading strategy analyst. You have been given structured analysis from 6 specialized tools that examined a wallet's trading history.

Your job: Synthesize these analyses into a precise strategy classification.

## Strategy Types (pick the BEST match — do NOT default to "unknown"):
- **info_edge**: Trades on early/non-public information. Signs: enters before major events, high win rate on time-sensitive markets, speed-to-market advantage.
- **model_based**: Uses quantitative/statistical models. Signs: high trade count, consistent sizing, systematic entry prices, diverse markets, algorithmic patterns.
- **market_maker**: Provides liquidity. Signs: massive volume, thin margins (near 50% win rate, profit factor near 1), trades both sides, very high position count.
- **contrarian**: Bets against consensus. Signs: buys at low odds (<0.3), NO-side bias, wins from underdog bets.
- **momentum**: Follows trends. Signs: buys at high odds (>0.7), YES-side bias, enters after price moves.
- **hedger**: Hedges across markets. Signs: paired positions, opposing bets in correlated markets, low net exposure.
- **arbitrage**: Cross-market or cross-platform arb. Signs: near-simultaneous opposing positions, tiny margins, very high volume.
- **whale**: Large positions that move markets. Signs: very large avg position size (>$100K), few positions relative to volume, high variance.
- **scalper**: High-frequency small-profit trades. Signs: many small positions, quick entries/exits, thin margins, high trade count.
- **unknown**: ONLY if truly unclassifiable after reviewing all evidence.

## Decision Framework:
1. Check SIZING first — is this a whale (huge positions) or scalper (tiny positions)?
2. Check MARKET — specialist or diversified? Sports, politics, crypto?
3. Check FLOW — win rate, profit factor, accumulation patterns
4. Check PATTERN — is edge consistent? Steady grinder or volatile?
5. Check TIMING — automated (consistent daily) or event-driven (sporadic)?
6. Check CORRELATION — hedged pairs, batch entries across markets?

## Important Rules:
- Be SPECIFIC in evidence — cite numbers from the analysis
- Set confidence based on how clear the signals are (0.3=ambiguous, 0.7=likely, 0.9=obvious)

Respond in JSON:
{
    "primary_strategy": "<strategy_type>",
    "confidence": 0.0,
    "evidence": ["specific evidence points with numbers"],
    "reasoning": "synthesis of all analyses"
}`

// Profile is optional wallet-level context from the data source.
type Profile struct {
	Username    string
	TotalPnL    float64
	Rank        int
	TotalTrades int
}

// skillOrder fixes the serialization order of bundles in the prompt.
var skillOrder = []string{
	domain.SkillTiming,
	domain.SkillSizing,
	domain.SkillMarket,
	domain.SkillFlow,
	domain.SkillPattern,
	domain.SkillCorrelation,
}

// BuildMessages serializes the signal bundles into the classification
// request. Output is deterministic: skills in fixed order, signals sorted by
// key.
func BuildMessages(walletID string, profile *Profile, set domain.SignalSet, tradeCount int) []llm.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Wallet: %s\n", walletID)
	if profile != nil {
		if profile.Username != "" {
			fmt.Fprintf(&sb, "Username: %s\n", profile.Username)
		}
		fmt.Fprintf(&sb, "Total PnL: $%.2f\n", profile.TotalPnL)
		if profile.Rank > 0 {
			fmt.Fprintf(&sb, "Rank: %d\n", profile.Rank)
		}
	}
	fmt.Fprintf(&sb, "Total positions: %d\n", tradeCount)

	for _, skill := range skillOrder {
		b, ok := set[skill]
		if !ok || b == nil {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(FormatBundle(b))
	}

	return []llm.Message{
		{Role: "system", Content: classifierPrompt},
		{Role: "user", Content: "Analyze this wallet based on the skill outputs:\n\n" + sb.String()},
	}
}

// FormatBundle renders one bundle as a prompt section.
func FormatBundle(b *domain.SkillSignalBundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s ANALYSIS ===\n", strings.ToUpper(b.Skill))
	fmt.Fprintf(&sb, "Trades analyzed: %d\n", b.TradeCount)

	keys := make([]string, 0, len(b.Signals))
	for k := range b.Signals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, formatSignal(b.Signals[k]))
	}
	if len(b.Notes) > 0 {
		fmt.Fprintf(&sb, "Signals: %s\n", strings.Join(b.Notes, "; "))
	}
	return sb.String()
}

func formatSignal(v domain.SignalValue) string {
	if v.Insufficient {
		return "insufficient_data"
	}
	switch v.Kind {
	case domain.SignalNumber:
		return fmt.Sprintf("%.4f", v.Num)
	case domain.SignalInteger:
		return fmt.Sprintf("%d", v.Int)
	case domain.SignalFlag:
		return fmt.Sprintf("%t", v.Flag)
	case domain.SignalText:
		return v.Text
	default:
		return "?"
	}
}
