// Package synthesis turns skill signal bundles into a wallet thesis: an LLM
// classification pass followed by a deterministic override layer that
// corrects systematic model mistakes.
package synthesis

import (
	"fmt"
	"math"
	"sort"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/skills"
)

// RuleAction says what a matching rule does to the classification.
type RuleAction string

const (
	// ActionForce replaces the model answer with the rule's strategy.
	ActionForce RuleAction = "force"
	// ActionVeto invalidates the model answer when it equals the rule's
	// strategy; later force rules may still apply, otherwise the final
	// label falls back to unknown.
	ActionVeto RuleAction = "veto"
)

// Predicate decides whether a rule fires for the given signals. Predicates
// must treat missing or insufficient signals as non-matching.
type Predicate func(set domain.SignalSet, tradeCount int) bool

// Rule is one entry in the override table.
type Rule struct {
	Name     string
	Priority int // lower fires first; unique per conflicting outcome
	Action   RuleAction
	Strategy domain.StrategyType
	Match    Predicate
}

// RuleSet is a validated, priority-ordered override table.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates and orders the rules. Construction fails when two
// rules share a priority but disagree on outcome, when a strategy label is
// not in the enumeration, or when a predicate is missing. Catching these at
// startup keeps classification itself infallible.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	byPriority := map[int]Rule{}
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("override rule with empty name")
		}
		if r.Match == nil {
			return nil, fmt.Errorf("override rule %q has no predicate", r.Name)
		}
		if r.Action != ActionForce && r.Action != ActionVeto {
			return nil, fmt.Errorf("override rule %q has invalid action %q", r.Name, r.Action)
		}
		if !r.Strategy.Valid() {
			return nil, fmt.Errorf("override rule %q targets invalid strategy %q", r.Name, r.Strategy)
		}
		if prev, ok := byPriority[r.Priority]; ok {
			if prev.Action != r.Action || prev.Strategy != r.Strategy {
				return nil, fmt.Errorf("override rules %q and %q share priority %d with different outcomes",
					prev.Name, r.Name, r.Priority)
			}
		}
		byPriority[r.Priority] = r
	}

	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	return &RuleSet{rules: ordered}, nil
}

// Apply runs the table against the raw model answer. The first matching
// force rule wins outright. A matching veto rule invalidates the raw answer;
// if no later force rule fires, the result is unknown. With no matches the
// raw answer stands. The returned rule name is empty when no rule applied.
func (rs *RuleSet) Apply(raw domain.StrategyType, set domain.SignalSet, tradeCount int) (domain.StrategyType, string) {
	vetoedBy := ""
	for _, r := range rs.rules {
		if !r.Match(set, tradeCount) {
			continue
		}
		switch r.Action {
		case ActionForce:
			return r.Strategy, r.Name
		case ActionVeto:
			if vetoedBy == "" && raw == r.Strategy {
				vetoedBy = r.Name
			}
		}
	}
	if vetoedBy != "" {
		return domain.StrategyUnknown, vetoedBy
	}
	return raw, ""
}

// Rules returns the ordered table, for reporting.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// DefaultRules builds the standard override table from configured
// thresholds. The table encodes failure modes observed in judged runs:
// the model over-labels big accounts as whales and misses market makers
// behind huge trade counts.
func DefaultRules(cfg config.RulesConfig) []Rule {
	return []Rule{
		{
			Name:     "whale-large-positions",
			Priority: 10,
			Action:   ActionForce,
			Strategy: domain.StrategyWhale,
			Match: func(set domain.SignalSet, tradeCount int) bool {
				avg, ok := set.Num(domain.SkillSizing, skills.SigAvgSize)
				return ok && avg > cfg.WhaleAvgSize && tradeCount <= cfg.WhaleMaxTrades
			},
		},
		{
			Name:     "anti-whale-small-positions",
			Priority: 20,
			Action:   ActionVeto,
			Strategy: domain.StrategyWhale,
			Match: func(set domain.SignalSet, tradeCount int) bool {
				avg, ok := set.Num(domain.SkillSizing, skills.SigAvgSize)
				return ok && avg < cfg.AntiWhaleMaxAvgSize && tradeCount >= cfg.AntiWhaleMinTrades
			},
		},
		{
			Name:     "market-maker-thin-edge",
			Priority: 30,
			Action:   ActionForce,
			Strategy: domain.StrategyMarketMaker,
			Match: func(set domain.SignalSet, tradeCount int) bool {
				if tradeCount < cfg.MakerMinTrades {
					return false
				}
				wr, ok := set.Num(domain.SkillFlow, skills.SigWinRate)
				if !ok || math.Abs(wr-0.5) >= cfg.MakerWinRateBand {
					return false
				}
				hhi, ok := set.Num(domain.SkillMarket, skills.SigHHI)
				if !ok || hhi >= cfg.MakerMaxHHI {
					return false
				}
				pf, ok := set.Num(domain.SkillFlow, skills.SigProfitFactor)
				return ok && math.Abs(pf-1) < cfg.MakerMaxEdge
			},
		},
		{
			Name:     "scalper-small-and-fast",
			Priority: 40,
			Action:   ActionForce,
			Strategy: domain.StrategyScalper,
			Match: func(set domain.SignalSet, tradeCount int) bool {
				avg, ok := set.Num(domain.SkillSizing, skills.SigAvgSize)
				return ok && avg < cfg.ScalperMaxAvgSize && tradeCount >= cfg.ScalperMinTrades
			},
		},
		{
			Name:     "info-edge-sporadic-specialist",
			Priority: 50,
			Action:   ActionForce,
			Strategy: domain.StrategyInfoEdge,
			Match: func(set domain.SignalSet, tradeCount int) bool {
				wr, ok := set.Num(domain.SkillFlow, skills.SigWinRate)
				if !ok || wr < cfg.InfoEdgeMinWinRate {
					return false
				}
				catConc, ok := set.Num(domain.SkillMarket, skills.SigCategoryConc)
				if !ok || catConc < cfg.InfoEdgeMinCategory {
					return false
				}
				consistency, ok := set.Num(domain.SkillTiming, skills.SigDailyConsist)
				return ok && consistency <= cfg.InfoEdgeMaxConsistency
			},
		},
		{
			Name:     "hedger-both-sides",
			Priority: 60,
			Action:   ActionForce,
			Strategy: domain.StrategyHedger,
			Match: func(set domain.SignalSet, tradeCount int) bool {
				ratio, ok := set.Num(domain.SkillCorrelation, skills.SigHedgeRatio)
				return ok && ratio >= cfg.HedgerMinHedgeRatio
			},
		},
	}
}
