package skills

import (
	"fmt"
	"regexp"
	"strings"

	"wallet-strategy-lab/internal/domain"
)

// Market signal keys.
const (
	SigUniqueMarkets   = "unique_markets"
	SigDominantCategory = "dominant_category"
	SigCategoryConc    = "category_concentration"
	SigCategoryCount   = "category_count"
	SigHHI             = "hhi_concentration"
	SigYesPct          = "yes_pct"
	SigNoPct           = "no_pct"
	SigEntriesPerMarket = "entries_per_market"
	SigSpecialist      = "specialist"
	SigNoBias          = "no_bias"
)

// categoryRule maps a market category to the title patterns that select it.
// First match wins; unmatched titles fall into "other".
type categoryRule struct {
	category string
	patterns []*regexp.Regexp
}

var categoryRules = buildCategoryRules()

func buildCategoryRules() []categoryRule {
	compile := func(pats ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(pats))
		for i, p := range pats {
			out[i] = regexp.MustCompile(p)
		}
		return out
	}
	return []categoryRule{
		{"sports_betting", compile(
			`\bvs\.?\s`, `\bvs\b`,
			`spread`, `moneyline`, `over/under`, `\bo/u\b`, `total points`, `total goals`,
			`\bnfl\b`, `\bnba\b`, `\bmlb\b`, `\bnhl\b`, `\bmls\b`,
			`\bncaa\b`, `college`, `premier league`, `la liga`, `serie a`,
			`bundesliga`, `ligue 1`, `champions league`, `europa league`,
			`\bufc\b`, `\bwwe\b`, `boxing`, `tennis`, `golf`, `super bowl`,
			`will .+ win on \d{4}`, `will .+ win against`,
			`will .+ win .+ \d{4}`, `will .+ beat`,
			`man city`, `man utd`, `liverpool`,
			`villarreal`, `atletico`, `barcelona`, `real madrid`,
			`lakers`, `celtics`, `warriors`, `yankees`, `dodgers`,
			`seahawks`, `packers`, `patriots`, `bears`, `rams`,
			`chiefs`, `eagles`, `cowboys`, `49ers`, `ravens`,
			`bills`, `dolphins`, `steelers`, `bengals`, `broncos`,
			`knicks`, `nets`, `rockets`, `nuggets`, `heat`,
			`bucks`, `suns`, `clippers`, `spurs`, `mavericks`,
			`oilers`, `penguins`, `capitals`, `blackhawks`, `canadiens`,
			`panthers`, `flames`, `sharks`, `stars`, `wild`,
			`magic`, `raptors`, `pelicans`, `wizards`, `pistons`,
			`timberwolves`, `pacers`, `cavaliers`, `grizzlies`,
			`esport`, `\blol\b`, `league of legends`, `\bdota\b`, `\bcs2?\b`,
		)},
		{"politics", compile(
			`president`, `election`, `trump`, `biden`, `vote`, `congress`,
			`senate`, `governor`, `democrat`, `republican`, `poll`,
			`primary`, `nominee`, `cabinet`, `secretary of`,
		)},
		{"crypto", compile(
			`\bbitcoin\b`, `\beth\b`, `\bethereum\b`, `crypto`, `\bbtc\b`,
			`solana`, `\bsol\b`, `token`, `defi`, `nft`,
		)},
		{"economics", compile(
			`\bfed\b`, `federal reserve`, `interest rate`, `inflation`,
			`\bgdp\b`, `unemployment`, `cpi`, `treasury`, `tariff`,
		)},
		{"entertainment", compile(
			`oscar`, `grammy`, `super bowl halftime`, `movie`, `box office`,
			`album`, `streaming`, `netflix`, `disney`,
		)},
		{"science_tech", compile(
			`spacex`, `nasa`, `\bai\b`, `artificial intelligence`, `climate`,
			`vaccine`, `fda`, `drug approval`,
		)},
		{"weather", compile(
			`hurricane`, `temperature`, `weather`, `snowfall`, `rainfall`,
		)},
	}
}

// CategorizeMarket assigns a category from the market title. Exported for the
// correlation analyzer and tests.
func CategorizeMarket(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range categoryRules {
		for _, re := range rule.patterns {
			if re.MatchString(lower) {
				return rule.category
			}
		}
	}
	return "other"
}

// AnalyzeMarket derives market-selection signals: category focus, volume
// concentration (Herfindahl index over market volumes), and YES/NO bias.
func AnalyzeMarket(events []domain.TradeEvent, opts Options) *domain.SkillSignalBundle {
	b := newBundle(domain.SkillMarket, len(events))

	if len(events) == 0 {
		markInsufficient(b,
			SigUniqueMarkets, SigDominantCategory, SigCategoryConc, SigCategoryCount,
			SigHHI, SigYesPct, SigNoPct, SigEntriesPerMarket)
		return b
	}

	catCounts := map[string]int{}
	marketVolumes := map[string]float64{}
	for _, e := range events {
		catCounts[CategorizeMarket(e.Title)]++
		mid := e.MarketID
		if mid == "" {
			mid = "unknown"
		}
		marketVolumes[mid] += e.Size
	}
	b.Signals[SigUniqueMarkets] = domain.Integer(int64(len(marketVolumes)))
	b.Signals[SigCategoryCount] = domain.Integer(int64(len(catCounts)))

	dominant, domCount := "", 0
	for cat, c := range catCounts {
		if c > domCount || (c == domCount && cat < dominant) {
			dominant, domCount = cat, c
		}
	}
	catConc := float64(domCount) / float64(len(events))
	b.Signals[SigDominantCategory] = domain.Text(dominant)
	b.Signals[SigCategoryConc] = domain.Number(catConc)

	// Herfindahl index over per-market volume shares.
	totalVol := 0.0
	for _, v := range marketVolumes {
		totalVol += v
	}
	hhi := 0.0
	if totalVol > 0 {
		for _, v := range marketVolumes {
			share := v / totalVol
			hhi += share * share
		}
	}
	if len(events) < opts.MinTrades {
		b.Signals[SigHHI] = domain.InsufficientData()
	} else {
		b.Signals[SigHHI] = domain.Number(hhi)
	}

	// Outcome preference.
	yes, no := 0, 0
	for _, e := range events {
		switch strings.ToLower(e.OutcomeSide) {
		case "yes":
			yes++
		case "no":
			no++
		}
	}
	totalOutcomes := yes + no
	if totalOutcomes == 0 {
		totalOutcomes = 1
	}
	yesPct := float64(yes) / float64(totalOutcomes)
	noPct := float64(no) / float64(totalOutcomes)
	b.Signals[SigYesPct] = domain.Number(yesPct)
	b.Signals[SigNoPct] = domain.Number(noPct)

	perMarket := float64(len(events)) / float64(len(marketVolumes))
	b.Signals[SigEntriesPerMarket] = domain.Number(perMarket)

	// Flags and notes.
	if catConc > 0.8 {
		b.Signals[SigSpecialist] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("SPECIALIST: %.0f%% of positions in %s", catConc*100, dominant))
	} else if len(catCounts) >= 4 && catConc < 0.5 {
		b.Notes = append(b.Notes, fmt.Sprintf("DIVERSIFIED: trades across %d categories", len(catCounts)))
	}
	if len(events) >= opts.MinTrades {
		if hhi > 0.1 {
			b.Notes = append(b.Notes, fmt.Sprintf("MARKET_CONCENTRATED: HHI=%.3f, concentrated in few markets", hhi))
		} else if hhi < 0.01 {
			b.Notes = append(b.Notes, "HIGHLY_DIVERSIFIED: very spread across many markets")
		}
	}
	if noPct > 0.7 {
		b.Signals[SigNoBias] = domain.Flag(true)
		b.Notes = append(b.Notes, fmt.Sprintf("NO_BIAS: %.0f%% positions are NO, contrarian tendency", noPct*100))
	} else if yesPct > 0.7 {
		b.Notes = append(b.Notes, fmt.Sprintf("YES_BIAS: %.0f%% positions are YES", yesPct*100))
	}
	if perMarket > 3 {
		b.Notes = append(b.Notes, fmt.Sprintf("REPEAT_MARKETS: avg %.1f positions per market, re-enters markets", perMarket))
	}

	return b
}
