package skills

import (
	"math"
	"testing"

	"wallet-strategy-lab/internal/domain"
)

func TestCategorizeMarket(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Lakers vs. Celtics", "sports_betting"},
		{"Will Trump win the election?", "politics"},
		{"Will Bitcoin hit $100K by March?", "crypto"},
		{"Fed rate cut in June?", "economics"},
		{"Best Picture Oscar winner", "entertainment"},
		{"SpaceX Starship launch success?", "science_tech"},
		{"Hurricane landfall in Florida?", "weather"},
		{"Something entirely unrelated", "other"},
	}
	for _, c := range cases {
		if got := CategorizeMarket(c.title); got != c.want {
			t.Errorf("CategorizeMarket(%q) = %s, want %s", c.title, got, c.want)
		}
	}
}

func TestAnalyzeMarket_HHISingleMarket(t *testing.T) {
	// All volume in one market: HHI = 1.0
	var events []domain.TradeEvent
	for i := 0; i < 10; i++ {
		events = append(events, evt(i, int64(i)*3600, "mA", 100, 10))
	}

	b := AnalyzeMarket(events, DefaultOptions())

	hhi, ok := b.Num(SigHHI)
	if !ok || hhi != 1.0 {
		t.Errorf("expected HHI 1.0 for single market, got %f (ok=%v)", hhi, ok)
	}
}

func TestAnalyzeMarket_HHIEvenSplit(t *testing.T) {
	// Equal volume across 4 markets: HHI = 4 * 0.25² = 0.25
	var events []domain.TradeEvent
	for i := 0; i < 8; i++ {
		events = append(events, evt(i, int64(i)*3600, "m"+string(rune('A'+i%4)), 100, 10))
	}

	b := AnalyzeMarket(events, DefaultOptions())

	hhi, ok := b.Num(SigHHI)
	if !ok || math.Abs(hhi-0.25) > 1e-9 {
		t.Errorf("expected HHI 0.25 for even 4-way split, got %f (ok=%v)", hhi, ok)
	}
}

func TestAnalyzeMarket_SpecialistFlag(t *testing.T) {
	// 9 of 10 positions in sports: concentration 0.9 > 0.8 sets the flag.
	var events []domain.TradeEvent
	for i := 0; i < 9; i++ {
		e := evt(i, int64(i)*3600, "mA", 100, 10)
		e.Title = "Chiefs vs. Eagles"
		events = append(events, e)
	}
	e := evt(9, 9*3600, "mB", 100, 10)
	e.Title = "Will inflation exceed 3%?"
	events = append(events, e)

	b := AnalyzeMarket(events, DefaultOptions())

	if !b.FlagSet(SigSpecialist) {
		t.Error("expected specialist flag at 90% category concentration")
	}
	if v := b.Signals[SigDominantCategory]; v.Text != "sports_betting" {
		t.Errorf("expected dominant category sports_betting, got %q", v.Text)
	}
}

func TestAnalyzeMarket_NoBias(t *testing.T) {
	var events []domain.TradeEvent
	for i := 0; i < 10; i++ {
		e := evt(i, int64(i)*3600, "m"+string(rune('A'+i)), 100, 10)
		if i < 8 {
			e.OutcomeSide = "NO"
		}
		events = append(events, e)
	}

	b := AnalyzeMarket(events, DefaultOptions())

	if !b.FlagSet(SigNoBias) {
		t.Error("expected NO-bias flag at 80% NO positions")
	}
	noPct, ok := b.Num(SigNoPct)
	if !ok || noPct != 0.8 {
		t.Errorf("expected no_pct 0.8, got %f (ok=%v)", noPct, ok)
	}
}
