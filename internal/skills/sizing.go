package skills

import (
	"fmt"
	"sort"

	"wallet-strategy-lab/internal/domain"
)

// Sizing signal keys.
const (
	SigTotalVolume     = "total_volume"
	SigAvgSize         = "avg_position_size"
	SigMedianSize      = "median_position_size"
	SigMaxSize         = "max_position_size"
	SigSizeCV          = "size_cv"
	SigSizeConc        = "size_concentration"
	SigWinLossSizeRatio = "win_loss_size_ratio"
	SigAvgEntryPrice   = "avg_entry_price"
	SigLowOddsPct      = "low_odds_pct"
	SigMidOddsPct      = "mid_odds_pct"
	SigHighOddsPct     = "high_odds_pct"
	SigWhaleSizing     = "whale_sizing"
	SigConsistentSizing = "consistent_sizing"
)

// AnalyzeSizing derives position-size distribution, consistency, and
// entry-price signals. Simple aggregates (volume, average, median, max) are
// reported even below the minimum trade count; variance-based signals are
// replaced by the insufficient-data sentinel there.
func AnalyzeSizing(events []domain.TradeEvent, opts Options) *domain.SkillSignalBundle {
	b := newBundle(domain.SkillSizing, len(events))

	var sizes []float64
	for _, e := range events {
		if e.Size > 0 {
			sizes = append(sizes, e.Size)
		}
	}
	if len(sizes) == 0 {
		markInsufficient(b,
			SigTotalVolume, SigAvgSize, SigMedianSize, SigMaxSize, SigSizeCV,
			SigSizeConc, SigWinLossSizeRatio, SigAvgEntryPrice,
			SigLowOddsPct, SigMidOddsPct, SigHighOddsPct)
		return b
	}

	total := 0.0
	maxSize := sizes[0]
	for _, s := range sizes {
		total += s
		if s > maxSize {
			maxSize = s
		}
	}
	avg := total / float64(len(sizes))
	b.Signals[SigTotalVolume] = domain.Number(total)
	b.Signals[SigAvgSize] = domain.Number(avg)
	b.Signals[SigMedianSize] = domain.Number(median(sizes))
	b.Signals[SigMaxSize] = domain.Number(maxSize)

	if len(events) < opts.MinTrades {
		markInsufficient(b,
			SigSizeCV, SigSizeConc, SigWinLossSizeRatio, SigAvgEntryPrice,
			SigLowOddsPct, SigMidOddsPct, SigHighOddsPct)
		return b
	}

	// Consistency: coefficient of variation of position size.
	cv := 0.0
	if avg > 0 {
		cv = stddev(sizes, avg) / avg
	}
	b.Signals[SigSizeCV] = domain.Number(cv)

	// Concentration: top decile of positions as share of volume.
	concentration := topDecileShare(sizes, total)
	b.Signals[SigSizeConc] = domain.Number(concentration)

	// Win vs loss sizing.
	var winSizes, lossSizes []float64
	for _, e := range events {
		if e.Size <= 0 {
			continue
		}
		if e.PnL() > 0 {
			winSizes = append(winSizes, e.Size)
		} else {
			lossSizes = append(lossSizes, e.Size)
		}
	}
	ratio := 0.0
	if avgLoss := mean(lossSizes); avgLoss > 0 {
		ratio = mean(winSizes) / avgLoss
	}
	b.Signals[SigWinLossSizeRatio] = domain.Number(ratio)

	// Entry price distribution over valid (0,1] prices.
	var entries []float64
	for _, e := range events {
		if e.Price > 0 && e.Price <= 1 {
			entries = append(entries, e.Price)
		}
	}
	if len(entries) > 0 {
		low, mid, high := 0, 0, 0
		for _, p := range entries {
			switch {
			case p < 0.3:
				low++
			case p > 0.7:
				high++
			default:
				mid++
			}
		}
		en := float64(len(entries))
		b.Signals[SigAvgEntryPrice] = domain.Number(mean(entries))
		b.Signals[SigLowOddsPct] = domain.Number(float64(low) / en)
		b.Signals[SigMidOddsPct] = domain.Number(float64(mid) / en)
		b.Signals[SigHighOddsPct] = domain.Number(float64(high) / en)
	} else {
		markInsufficient(b, SigAvgEntryPrice, SigLowOddsPct, SigMidOddsPct, SigHighOddsPct)
	}

	// Flags and notes.
	if cv < 0.5 {
		b.Signals[SigConsistentSizing] = domain.Flag(true)
		b.Notes = append(b.Notes, "CONSISTENT_SIZING: low CV suggests systematic/model-based approach")
	} else if cv > 2.0 {
		b.Notes = append(b.Notes, "HIGHLY_VARIABLE_SIZING: high CV, mixes small and very large bets")
	}
	whaleCount := 0
	for _, s := range sizes {
		if s >= 100_000 {
			whaleCount++
		}
	}
	if whaleCount > 0 && float64(whaleCount)/float64(len(sizes)) > 0.1 {
		b.Signals[SigWhaleSizing] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("WHALE_SIZING: %d positions over $100K", whaleCount))
	}
	if concentration > 0.5 {
		b.Notes = append(b.Notes, fmt.Sprintf("CONCENTRATED: top 10%% of positions carry %.0f%% of volume", concentration*100))
	}
	if ratio > 1.5 {
		b.Notes = append(b.Notes, "LARGER_ON_WINS: sizes up on winning trades, possible conviction scaling")
	} else if ratio > 0 && ratio < 0.7 {
		b.Notes = append(b.Notes, "LARGER_ON_LOSSES: sizes up on losing trades, possible averaging down")
	}
	if lowPct, ok := b.Num(SigLowOddsPct); ok && lowPct > 0.5 {
		b.Notes = append(b.Notes, fmt.Sprintf("LOW_ODDS_BUYER: %.0f%% entries below 0.30, hunting longshots", lowPct*100))
	} else if highPct, ok := b.Num(SigHighOddsPct); ok && highPct > 0.5 {
		b.Notes = append(b.Notes, fmt.Sprintf("HIGH_ODDS_BUYER: %.0f%% entries above 0.70, buying favorites", highPct*100))
	} else if midPct, ok := b.Num(SigMidOddsPct); ok && midPct > 0.6 {
		b.Notes = append(b.Notes, fmt.Sprintf("MID_ODDS_FOCUS: %.0f%% entries in 0.30-0.70, near-tossup markets", midPct*100))
	}
	if avg > 100_000 {
		b.Notes = append(b.Notes, fmt.Sprintf("VERY_LARGE_AVG: $%.0f average position", avg))
	}

	return b
}

// topDecileShare returns the share of total volume carried by the largest 10%
// of positions (at least one).
func topDecileShare(sizes []float64, total float64) float64 {
	if total <= 0 || len(sizes) == 0 {
		return 0
	}
	sorted := make([]float64, len(sizes))
	copy(sorted, sizes)
	sort.Float64s(sorted)
	topN := len(sorted) / 10
	if topN < 1 {
		topN = 1
	}
	sum := 0.0
	for _, s := range sorted[len(sorted)-topN:] {
		sum += s
	}
	return sum / total
}
