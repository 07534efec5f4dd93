// Package skills derives behavioral signal bundles from normalized trade
// sequences. Each analyzer is a pure function of the ordered sequence:
// no side effects, no dependency on other skills, deterministic output.
package skills

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"wallet-strategy-lab/internal/domain"
)

// Options holds the shared analyzer settings.
type Options struct {
	// MinTrades is the minimum sequence length below which statistical
	// signals resolve to the insufficient-data sentinel instead of a
	// numerically unstable value.
	MinTrades int

	// ProfitFactorCap saturates profit factor when gross loss is zero,
	// keeping bundles serializable (no +Inf).
	ProfitFactorCap float64
}

// DefaultOptions returns the standard analyzer settings.
func DefaultOptions() Options {
	return Options{
		MinTrades:       5,
		ProfitFactorCap: 999,
	}
}

// Analyzer computes one skill bundle from an ordered trade sequence.
type Analyzer func(events []domain.TradeEvent, opts Options) *domain.SkillSignalBundle

// All returns the six analyzers keyed by skill name.
func All() map[string]Analyzer {
	return map[string]Analyzer{
		domain.SkillTiming:      AnalyzeTiming,
		domain.SkillSizing:      AnalyzeSizing,
		domain.SkillMarket:      AnalyzeMarket,
		domain.SkillFlow:        AnalyzeFlow,
		domain.SkillPattern:     AnalyzePattern,
		domain.SkillCorrelation: AnalyzeCorrelation,
	}
}

// RunAll executes all six analyzers concurrently and joins on completion.
// The returned set always contains all six bundles.
func RunAll(ctx context.Context, events []domain.TradeEvent, opts Options) (domain.SignalSet, error) {
	ordered := sortEvents(events)

	set := make(domain.SignalSet, 6)
	results := make(map[string]*domain.SkillSignalBundle, 6)

	g, _ := errgroup.WithContext(ctx)
	type slot struct {
		skill string
		fn    Analyzer
	}
	var slots []slot
	for skill, fn := range All() {
		slots = append(slots, slot{skill: skill, fn: fn})
	}

	out := make([]*domain.SkillSignalBundle, len(slots))
	for i, s := range slots {
		g.Go(func() error {
			out[i] = s.fn(ordered, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, s := range slots {
		results[s.skill] = out[i]
	}
	for skill, b := range results {
		set[skill] = b
	}
	return set, nil
}

// sortEvents returns a copy ordered by (Timestamp ASC, SeqNum ASC). Analyzers
// sort defensively so output does not depend on caller ordering.
func sortEvents(events []domain.TradeEvent) []domain.TradeEvent {
	ordered := make([]domain.TradeEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp != ordered[j].Timestamp {
			return ordered[i].Timestamp < ordered[j].Timestamp
		}
		return ordered[i].SeqNum < ordered[j].SeqNum
	})
	return ordered
}

// newBundle initializes a bundle for a skill.
func newBundle(skill string, n int) *domain.SkillSignalBundle {
	return &domain.SkillSignalBundle{
		Skill:      skill,
		TradeCount: n,
		Signals:    make(map[string]domain.SignalValue),
	}
}

// mean computes the arithmetic mean. Returns 0 for empty input.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev computes sample standard deviation (n-1 denominator).
func stddev(xs []float64, m float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return sqrt(sumSq / float64(n-1))
}

// median computes the median of a sorted-or-unsorted slice without mutating it.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// linearR2 computes the R² of a least-squares linear fit of ys against their
// indices. Returns 0 when the fit is undefined (flat or too short).
func linearR2(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	yMean := mean(ys)
	var ssXY, ssXX, ssYY float64
	for i, y := range ys {
		dx := float64(i) - xMean
		dy := y - yMean
		ssXY += dx * dy
		ssXX += dx * dx
		ssYY += dy * dy
	}
	if ssXX == 0 || ssYY == 0 {
		return 0
	}
	r := ssXY / sqrt(ssXX*ssYY)
	return r * r
}

// linearSlope computes the least-squares slope of ys against their indices.
func linearSlope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	yMean := mean(ys)
	var ssXY, ssXX float64
	for i, y := range ys {
		dx := float64(i) - xMean
		ssXY += dx * (y - yMean)
		ssXX += dx * dx
	}
	if ssXX == 0 {
		return 0
	}
	return ssXY / ssXX
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}
