package skills

import (
	"fmt"

	"wallet-strategy-lab/internal/domain"
)

// Pattern signal keys.
const (
	SigMaxWinStreak    = "max_win_streak"
	SigMaxLossStreak   = "max_loss_streak"
	SigMaxDrawdown     = "max_drawdown"
	SigMaxDrawdownPct  = "max_drawdown_pct"
	SigDrawdownRecovery = "drawdown_recovery_positions"
	SigSizeAfterLoss   = "size_after_loss_ratio"
	SigSizeAfterWin    = "size_after_win_ratio"
	SigFirstHalfWR     = "first_half_win_rate"
	SigSecondHalfWR    = "second_half_win_rate"
	SigEdgeTrend       = "edge_trend"
	SigPnLCurveR2      = "pnl_curve_r2"
	SigSteadyGrinder   = "steady_grinder"
	SigMartingale      = "martingale_tendency"
)

// AnalyzePattern derives streaks, drawdown shape, and post-loss behavior from
// the chronological result sequence.
func AnalyzePattern(events []domain.TradeEvent, opts Options) *domain.SkillSignalBundle {
	b := newBundle(domain.SkillPattern, len(events))

	if len(events) < opts.MinTrades {
		markInsufficient(b,
			SigMaxWinStreak, SigMaxLossStreak, SigMaxDrawdown, SigMaxDrawdownPct,
			SigDrawdownRecovery, SigSizeAfterLoss, SigSizeAfterWin,
			SigFirstHalfWR, SigSecondHalfWR, SigEdgeTrend, SigPnLCurveR2)
		return b
	}

	results := make([]bool, len(events))
	for i, e := range events {
		results[i] = e.PnL() > 0
	}

	maxWin, maxLoss := streaks(results)
	b.Signals[SigMaxWinStreak] = domain.Integer(int64(maxWin))
	b.Signals[SigMaxLossStreak] = domain.Integer(int64(maxLoss))

	// Cumulative PnL curve and peak-to-trough drawdown.
	cumulative := make([]float64, len(events))
	running := 0.0
	for i, e := range events {
		running += e.PnL()
		cumulative[i] = running
	}
	peak := cumulative[0]
	maxDD, maxDDPeak := 0.0, peak
	maxDDEnd := 0
	for i, v := range cumulative {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > maxDD {
			maxDD = dd
			maxDDPeak = peak
			maxDDEnd = i
		}
	}
	b.Signals[SigMaxDrawdown] = domain.Number(maxDD)
	ddPct := 0.0
	if maxDDPeak > 0 {
		ddPct = maxDD / maxDDPeak
	}
	b.Signals[SigMaxDrawdownPct] = domain.Number(ddPct)

	// Positions needed to climb back to the pre-drawdown peak.
	recovery := 0
	if maxDD > 0 {
		for i := maxDDEnd; i < len(cumulative); i++ {
			recovery++
			if cumulative[i] >= maxDDPeak {
				break
			}
		}
	}
	b.Signals[SigDrawdownRecovery] = domain.Integer(int64(recovery))

	// Sizing response to the previous outcome.
	avgSize := 0.0
	for _, e := range events {
		avgSize += e.Size
	}
	avgSize /= float64(len(events))
	var afterLoss, afterWin []float64
	for i := 1; i < len(events); i++ {
		if events[i-1].PnL() <= 0 {
			afterLoss = append(afterLoss, events[i].Size)
		} else {
			afterWin = append(afterWin, events[i].Size)
		}
	}
	lossRatio, winRatio := 0.0, 0.0
	if avgSize > 0 {
		if len(afterLoss) > 0 {
			lossRatio = mean(afterLoss) / avgSize
		}
		if len(afterWin) > 0 {
			winRatio = mean(afterWin) / avgSize
		}
	}
	b.Signals[SigSizeAfterLoss] = domain.Number(lossRatio)
	b.Signals[SigSizeAfterWin] = domain.Number(winRatio)

	// Edge consistency across halves.
	mid := len(results) / 2
	firstWR := winRateOf(results[:mid])
	secondWR := winRateOf(results[mid:])
	b.Signals[SigFirstHalfWR] = domain.Number(firstWR)
	b.Signals[SigSecondHalfWR] = domain.Number(secondWR)
	trend := "stable"
	if secondWR > firstWR+0.05 {
		trend = "improving"
	} else if secondWR < firstWR-0.05 {
		trend = "declining"
	}
	b.Signals[SigEdgeTrend] = domain.Text(trend)

	// Linearity of the cumulative curve. A short curve says nothing.
	r2 := 0.0
	if len(cumulative) >= 10 {
		r2 = linearR2(cumulative)
	}
	b.Signals[SigPnLCurveR2] = domain.Number(r2)

	// Flags and notes.
	if maxWin >= 10 {
		b.Notes = append(b.Notes, fmt.Sprintf("LONG_WIN_STREAKS: %d consecutive wins", maxWin))
	}
	if maxLoss >= 10 {
		b.Notes = append(b.Notes, fmt.Sprintf("LONG_LOSS_STREAKS: %d consecutive losses", maxLoss))
	}
	if r2 > 0.9 {
		b.Signals[SigSteadyGrinder] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("STEADY_GRINDER: R2=%.2f, very consistent returns", r2))
	} else if r2 < 0.3 && len(cumulative) >= 20 {
		b.Notes = append(b.Notes, fmt.Sprintf("VOLATILE_RETURNS: R2=%.2f, erratic PnL curve", r2))
	}
	if ddPct > 0.5 {
		b.Notes = append(b.Notes, fmt.Sprintf("SEVERE_DRAWDOWN: %.0f%% peak-to-trough", ddPct*100))
	}
	if lossRatio > 1.3 {
		b.Signals[SigMartingale] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("MARTINGALE_TENDENCY: sizes up %.1fx after losses", lossRatio))
	} else if lossRatio > 0 && lossRatio < 0.7 {
		b.Notes = append(b.Notes, fmt.Sprintf("RISK_REDUCER: sizes down to %.1fx after losses", lossRatio))
	}
	if trend == "improving" {
		b.Notes = append(b.Notes, "IMPROVING_EDGE: win rate increasing over time")
	} else if trend == "declining" {
		b.Notes = append(b.Notes, "DECLINING_EDGE: win rate decreasing over time")
	}

	return b
}

// streaks returns the longest win and loss runs in the result sequence.
func streaks(results []bool) (maxWin, maxLoss int) {
	if len(results) == 0 {
		return 0, 0
	}
	current := 1
	for i := 1; i <= len(results); i++ {
		if i < len(results) && results[i] == results[i-1] {
			current++
			continue
		}
		if results[i-1] {
			if current > maxWin {
				maxWin = current
			}
		} else {
			if current > maxLoss {
				maxLoss = current
			}
		}
		current = 1
	}
	return maxWin, maxLoss
}

func winRateOf(results []bool) float64 {
	if len(results) == 0 {
		return 0
	}
	wins := 0
	for _, r := range results {
		if r {
			wins++
		}
	}
	return float64(wins) / float64(len(results))
}
