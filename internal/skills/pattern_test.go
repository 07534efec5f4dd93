package skills

import (
	"testing"

	"wallet-strategy-lab/internal/domain"
)

func TestStreaks_AlternatingResults(t *testing.T) {
	// W L W L W: max win streak 1, max loss streak 1
	results := []bool{true, false, true, false, true}
	maxW, maxL := streaks(results)
	if maxW != 1 || maxL != 1 {
		t.Errorf("expected streaks 1/1, got %d/%d", maxW, maxL)
	}
}

func TestStreaks_LongRuns(t *testing.T) {
	// W W W L L W: max win streak 3, max loss streak 2
	results := []bool{true, true, true, false, false, true}
	maxW, maxL := streaks(results)
	if maxW != 3 {
		t.Errorf("expected max win streak 3, got %d", maxW)
	}
	if maxL != 2 {
		t.Errorf("expected max loss streak 2, got %d", maxL)
	}
}

func TestAnalyzePattern_Drawdown(t *testing.T) {
	// Cumulative curve: 100, 200, 120, 60, 160.
	// Peak 200, trough 60 → max drawdown 140, pct = 140/200 = 0.7.
	events := []domain.TradeEvent{
		evt(0, 0, "mA", 50, 100),
		evt(1, 3600, "mB", 50, 100),
		evt(2, 7200, "mC", 50, -80),
		evt(3, 10800, "mD", 50, -60),
		evt(4, 14400, "mE", 50, 100),
	}

	b := AnalyzePattern(events, DefaultOptions())

	dd, ok := b.Num(SigMaxDrawdown)
	if !ok || dd != 140 {
		t.Errorf("expected max drawdown 140, got %f (ok=%v)", dd, ok)
	}
	pct, ok := b.Num(SigMaxDrawdownPct)
	if !ok || pct != 0.7 {
		t.Errorf("expected drawdown pct 0.7, got %f (ok=%v)", pct, ok)
	}
}

func TestAnalyzePattern_MartingaleFlag(t *testing.T) {
	// Sizes double after every loss. Average size pulled down by the small
	// opening bets, so the post-loss ratio clears the 1.3x threshold.
	events := []domain.TradeEvent{
		evt(0, 0, "mA", 100, -10),
		evt(1, 3600, "mB", 200, -10),
		evt(2, 7200, "mC", 400, -10),
		evt(3, 10800, "mD", 800, -10),
		evt(4, 14400, "mE", 1600, 50),
	}

	b := AnalyzePattern(events, DefaultOptions())

	if !b.FlagSet(SigMartingale) {
		t.Error("expected martingale flag when sizing up after losses")
	}
	ratio, ok := b.Num(SigSizeAfterLoss)
	if !ok || ratio <= 1.3 {
		t.Errorf("expected post-loss size ratio > 1.3, got %f (ok=%v)", ratio, ok)
	}
}

func TestAnalyzePattern_SteadyGrinderR2(t *testing.T) {
	// Identical positive PnL every trade yields a perfectly linear
	// cumulative curve: R² = 1.
	events := uniformSeq(20, 100)

	b := AnalyzePattern(events, DefaultOptions())

	r2, ok := b.Num(SigPnLCurveR2)
	if !ok || r2 < 0.999 {
		t.Errorf("expected R² ~1.0 for linear curve, got %f (ok=%v)", r2, ok)
	}
	if !b.FlagSet(SigSteadyGrinder) {
		t.Error("expected steady grinder flag for R² > 0.9")
	}
}

func TestAnalyzePattern_BelowMinTrades(t *testing.T) {
	events := uniformSeq(3, 100)

	b := AnalyzePattern(events, DefaultOptions())

	for _, key := range []string{SigMaxWinStreak, SigMaxDrawdown, SigPnLCurveR2} {
		if v := b.Signals[key]; !v.Insufficient {
			t.Errorf("expected %s insufficient below min trades, got %+v", key, v)
		}
	}
}
