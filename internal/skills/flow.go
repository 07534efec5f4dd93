package skills

import (
	"fmt"
	"sort"
	"time"

	"wallet-strategy-lab/internal/domain"
)

// Flow signal keys.
const (
	SigTotalPnL         = "total_pnl"
	SigWinRate          = "win_rate"
	SigWinCount         = "win_count"
	SigLossCount        = "loss_count"
	SigProfitFactor     = "profit_factor"
	SigExpectancy       = "expectancy"
	SigRiskReward       = "risk_reward_ratio"
	SigMaxSingleWin     = "max_single_win"
	SigMaxSingleLoss    = "max_single_loss"
	SigMultiEntryMarkets = "multi_entry_markets"
	SigAvgEntriesPerMkt = "avg_entries_per_market"
	SigMonthlyTrend     = "monthly_trend"
	SigHighWinRate      = "high_win_rate"
	SigAccumulator      = "accumulator"
)

// AnalyzeFlow derives profitability and accumulation signals. Profit factor
// saturates at the configured cap when gross loss is zero, so a perfect
// record never produces an infinity.
func AnalyzeFlow(events []domain.TradeEvent, opts Options) *domain.SkillSignalBundle {
	b := newBundle(domain.SkillFlow, len(events))

	if len(events) == 0 {
		markInsufficient(b,
			SigTotalPnL, SigWinRate, SigWinCount, SigLossCount, SigProfitFactor,
			SigExpectancy, SigRiskReward, SigMaxSingleWin, SigMaxSingleLoss,
			SigMultiEntryMarkets, SigAvgEntriesPerMkt, SigMonthlyTrend)
		return b
	}

	totalPnL := 0.0
	for _, e := range events {
		totalPnL += e.PnL()
	}
	b.Signals[SigTotalPnL] = domain.Number(totalPnL)

	wins, losses := 0, 0
	grossProfit, grossLoss := 0.0, 0.0
	maxWin, maxLoss := 0.0, 0.0
	var winPnLs, lossPnLs []float64
	for _, e := range events {
		pnl := e.PnL()
		if pnl > 0 {
			wins++
			grossProfit += pnl
			winPnLs = append(winPnLs, pnl)
			if pnl > maxWin {
				maxWin = pnl
			}
		} else {
			losses++
			grossLoss += -pnl
			lossPnLs = append(lossPnLs, pnl)
			if pnl < maxLoss {
				maxLoss = pnl
			}
		}
	}
	winRate := float64(wins) / float64(len(events))
	b.Signals[SigWinCount] = domain.Integer(int64(wins))
	b.Signals[SigLossCount] = domain.Integer(int64(losses))
	b.Signals[SigWinRate] = domain.Number(winRate)
	b.Signals[SigMaxSingleWin] = domain.Number(maxWin)
	b.Signals[SigMaxSingleLoss] = domain.Number(maxLoss)
	b.Signals[SigExpectancy] = domain.Number(totalPnL / float64(len(events)))

	if len(events) < opts.MinTrades {
		markInsufficient(b,
			SigProfitFactor, SigRiskReward,
			SigMultiEntryMarkets, SigAvgEntriesPerMkt, SigMonthlyTrend)
		return b
	}

	pf := opts.ProfitFactorCap
	if grossLoss > 0 {
		pf = grossProfit / grossLoss
		if pf > opts.ProfitFactorCap {
			pf = opts.ProfitFactorCap
		}
	}
	b.Signals[SigProfitFactor] = domain.Number(pf)

	rr := 0.0
	if avgLoss := mean(lossPnLs); avgLoss < 0 {
		rr = mean(winPnLs) / -avgLoss
	}
	b.Signals[SigRiskReward] = domain.Number(rr)

	// Accumulation: repeated entries into the same market.
	entriesByMarket := map[string]int{}
	for _, e := range events {
		if e.MarketID != "" {
			entriesByMarket[e.MarketID]++
		}
	}
	multiEntry := 0
	for _, c := range entriesByMarket {
		if c > 1 {
			multiEntry++
		}
	}
	b.Signals[SigMultiEntryMarkets] = domain.Integer(int64(multiEntry))
	avgEntries := 0.0
	if len(entriesByMarket) > 0 {
		avgEntries = float64(len(events)) / float64(len(entriesByMarket))
	}
	b.Signals[SigAvgEntriesPerMkt] = domain.Number(avgEntries)

	// Monthly trend: mean of the last three months against the earliest.
	monthlyPnL := map[string]float64{}
	for _, e := range events {
		if e.Timestamp > 0 {
			month := time.Unix(e.Timestamp, 0).UTC().Format("2006-01")
			monthlyPnL[month] += e.PnL()
		}
	}
	trend := monthlyTrend(monthlyPnL)
	b.Signals[SigMonthlyTrend] = domain.Text(trend)

	// Flags and notes.
	if pf > 2.0 {
		b.Notes = append(b.Notes, fmt.Sprintf("HIGH_PROFIT_FACTOR: %.1fx, strong edge", pf))
	} else if pf < 0.8 {
		b.Notes = append(b.Notes, fmt.Sprintf("LOW_PROFIT_FACTOR: %.1fx, losing strategy overall", pf))
	}
	if winRate > 0.65 {
		b.Signals[SigHighWinRate] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("HIGH_WIN_RATE: %.0f%%, consistent winner", winRate*100))
	} else if winRate < 0.35 {
		b.Notes = append(b.Notes, fmt.Sprintf("LOW_WIN_RATE: %.0f%%, few wins but possibly large payoffs", winRate*100))
	}
	if rr > 3 {
		b.Notes = append(b.Notes, fmt.Sprintf("HIGH_RR: %.1fx, asymmetric payoffs", rr))
	}
	if len(entriesByMarket) > 5 && float64(multiEntry) > float64(len(entriesByMarket))*0.3 {
		b.Signals[SigAccumulator] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("ACCUMULATOR: re-enters %d markets, builds positions over time", multiEntry))
	}

	return b
}

// monthlyTrend compares the most recent three months of PnL against the
// earliest months. Fewer than three months of history is insufficient.
func monthlyTrend(monthlyPnL map[string]float64) string {
	if len(monthlyPnL) < 3 {
		return "insufficient_data"
	}
	months := make([]string, 0, len(monthlyPnL))
	for m := range monthlyPnL {
		months = append(months, m)
	}
	sort.Strings(months)

	recent := months[len(months)-3:]
	var older []string
	if len(months) >= 6 {
		older = months[:3]
	} else {
		older = months[:1]
	}
	avgOf := func(ms []string) float64 {
		sum := 0.0
		for _, m := range ms {
			sum += monthlyPnL[m]
		}
		return sum / float64(len(ms))
	}
	avgRecent, avgOlder := avgOf(recent), avgOf(older)
	switch {
	case avgRecent > avgOlder*1.5:
		return "improving"
	case avgRecent < avgOlder*0.5:
		return "declining"
	default:
		return "stable"
	}
}
