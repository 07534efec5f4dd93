package domain

import "testing"

func TestParseStrategyType(t *testing.T) {
	cases := []struct {
		raw  string
		want StrategyType
	}{
		{"market_maker", StrategyMarketMaker},
		{"  Momentum ", StrategyMomentum},
		{"Market Maker (liquidity provision)", StrategyMarketMaker},
		{"info-edge", StrategyInfoEdge},
		{"Whale Trader", StrategyWhale},
		{"contrarian strategy", StrategyContrarian},
		{"arb", StrategyArbitrage},
		{"something else entirely", StrategyUnknown},
		{"", StrategyUnknown},
	}

	for _, tc := range cases {
		if got := ParseStrategyType(tc.raw); got != tc.want {
			t.Errorf("ParseStrategyType(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestStrategyTypeValid(t *testing.T) {
	for _, s := range AllStrategyTypes {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if StrategyType("degen").Valid() {
		t.Error("unlisted label must not be valid")
	}
}
