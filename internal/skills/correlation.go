package skills

import (
	"fmt"
	"regexp"
	"strings"

	"wallet-strategy-lab/internal/domain"
)

// Correlation signal keys.
const (
	SigBothSideMarkets = "both_side_markets"
	SigHedgeRatio      = "hedge_ratio"
	SigTemporalClusters = "temporal_clusters"
	SigAvgClusterSize  = "avg_cluster_size"
	SigMaxClusterSize  = "max_cluster_size"
	SigRelatedGroups   = "related_market_groups"
	SigRelatedPct      = "related_pct"
	SigOpposingPairs   = "opposing_pairs"
	SigHedger          = "hedger"
	SigBatchTrader     = "batch_trader"
)

var (
	dollarRe = regexp.MustCompile(`\$[\d,]+k?`)
	yearRe   = regexp.MustCompile(`\d{4}`)
	dateRe   = regexp.MustCompile(`(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s+\d+`)
)

// normalizeTitle reduces a market title to a root shared by its variants,
// e.g. "...hit $100K by March?" and "...hit $150K by March?".
func normalizeTitle(title string) string {
	t := strings.TrimSpace(strings.ToLower(title))
	t = dollarRe.ReplaceAllString(t, "$X")
	t = yearRe.ReplaceAllString(t, "YYYY")
	t = dateRe.ReplaceAllString(t, "DATE")
	if len(t) > 60 {
		t = t[:60]
	}
	return t
}

// AnalyzeCorrelation derives cross-market structure: same-market hedges,
// temporal clustering, related-market groups, and opposing pairs across
// variants of the same underlying question.
func AnalyzeCorrelation(events []domain.TradeEvent, opts Options) *domain.SkillSignalBundle {
	b := newBundle(domain.SkillCorrelation, len(events))

	if len(events) < opts.MinTrades {
		markInsufficient(b,
			SigBothSideMarkets, SigHedgeRatio, SigTemporalClusters,
			SigAvgClusterSize, SigMaxClusterSize,
			SigRelatedGroups, SigRelatedPct, SigOpposingPairs)
		return b
	}

	// Both-side detection: YES and NO taken in the same market.
	sidesByMarket := map[string]map[string]bool{}
	for _, e := range events {
		mid := e.MarketID
		if mid == "" {
			mid = "unknown"
		}
		if sidesByMarket[mid] == nil {
			sidesByMarket[mid] = map[string]bool{}
		}
		sidesByMarket[mid][strings.ToLower(e.OutcomeSide)] = true
	}
	bothSides := 0
	for _, sides := range sidesByMarket {
		if sides["yes"] && sides["no"] {
			bothSides++
		}
	}
	hedgeRatio := float64(bothSides) / float64(len(sidesByMarket))
	b.Signals[SigBothSideMarkets] = domain.Integer(int64(bothSides))
	b.Signals[SigHedgeRatio] = domain.Number(hedgeRatio)

	// Temporal clusters: 3+ positions within one hour spanning 2+ markets.
	// Events arrive sorted by (timestamp, seq).
	clusters := findClusters(events)
	b.Signals[SigTemporalClusters] = domain.Integer(int64(len(clusters)))
	if len(clusters) > 0 {
		maxSize, sum := 0, 0
		for _, c := range clusters {
			sum += c
			if c > maxSize {
				maxSize = c
			}
		}
		b.Signals[SigAvgClusterSize] = domain.Number(float64(sum) / float64(len(clusters)))
		b.Signals[SigMaxClusterSize] = domain.Integer(int64(maxSize))
	} else {
		b.Signals[SigAvgClusterSize] = domain.Number(0)
		b.Signals[SigMaxClusterSize] = domain.Integer(0)
	}

	// Related-market groups: same title root across distinct market IDs.
	type groupInfo struct {
		markets map[string]map[string]bool // market -> outcome sides
		count   int
	}
	groups := map[string]*groupInfo{}
	for _, e := range events {
		root := normalizeTitle(e.Title)
		g := groups[root]
		if g == nil {
			g = &groupInfo{markets: map[string]map[string]bool{}}
			groups[root] = g
		}
		if g.markets[e.MarketID] == nil {
			g.markets[e.MarketID] = map[string]bool{}
		}
		g.markets[e.MarketID][strings.ToLower(e.OutcomeSide)] = true
		g.count++
	}
	relatedGroups, relatedPositions, opposing := 0, 0, 0
	for _, g := range groups {
		if len(g.markets) < 2 {
			continue
		}
		relatedGroups++
		relatedPositions += g.count

		// Opposing pairs: YES in one variant, NO in another.
		mids := make([]string, 0, len(g.markets))
		for mid := range g.markets {
			mids = append(mids, mid)
		}
		for i := 0; i < len(mids); i++ {
			for j := i + 1; j < len(mids); j++ {
				a, c := g.markets[mids[i]], g.markets[mids[j]]
				if (a["yes"] && c["no"]) || (a["no"] && c["yes"]) {
					opposing++
				}
			}
		}
	}
	relatedPct := float64(relatedPositions) / float64(len(events))
	b.Signals[SigRelatedGroups] = domain.Integer(int64(relatedGroups))
	b.Signals[SigRelatedPct] = domain.Number(relatedPct)
	b.Signals[SigOpposingPairs] = domain.Integer(int64(opposing))

	// Flags and notes.
	if hedgeRatio > 0.15 {
		b.Signals[SigHedger] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("HEDGER: %.0f%% of markets have both YES and NO positions, active hedging", hedgeRatio*100))
	} else if hedgeRatio > 0.05 {
		b.Notes = append(b.Notes, fmt.Sprintf("PARTIAL_HEDGE: %.0f%% of markets have both sides", hedgeRatio*100))
	}
	if len(clusters) > 10 {
		b.Signals[SigBatchTrader] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("BATCH_TRADER: %d temporal clusters, enters multiple markets simultaneously", len(clusters)))
	}
	if relatedPct > 0.3 {
		b.Notes = append(b.Notes, fmt.Sprintf("RELATED_MARKET_FOCUS: %.0f%% of positions in related market variants", relatedPct*100))
	}
	if opposing > 5 {
		b.Notes = append(b.Notes, fmt.Sprintf("CROSS_MARKET_HEDGE: %d opposing pairs across related markets", opposing))
	} else if opposing > 0 {
		b.Notes = append(b.Notes, fmt.Sprintf("SOME_HEDGING: %d opposing pair(s) in related markets", opposing))
	}

	return b
}

// findClusters returns the sizes of groups of 3+ trades opened within one
// hour of the group's first trade and spanning at least two markets.
func findClusters(events []domain.TradeEvent) []int {
	var clusters []int
	var current []domain.TradeEvent
	flush := func() {
		if len(current) >= 3 {
			markets := map[string]bool{}
			for _, e := range current {
				markets[e.MarketID] = true
			}
			if len(markets) >= 2 {
				clusters = append(clusters, len(current))
			}
		}
	}
	for _, e := range events {
		if len(current) == 0 || e.Timestamp-current[0].Timestamp <= 3600 {
			current = append(current, e)
			continue
		}
		flush()
		current = []domain.TradeEvent{e}
	}
	flush()
	return clusters
}
