package skills

import (
	"wallet-strategy-lab/internal/domain"
)

// evt builds a resolved trade event with the given hour offset (in seconds
// from a fixed base), market, size, and pnl.
func evt(seq int, tsOffset int64, market string, size, pnl float64) domain.TradeEvent {
	const base = 1700000000 // 2023-11-14T22:13:20 UTC
	p := pnl
	return domain.TradeEvent{
		WalletID:    "0xwallet",
		SeqNum:      seq,
		Timestamp:   base + tsOffset,
		MarketID:    market,
		Title:       "Will something happen?",
		OutcomeSide: "YES",
		Side:        domain.SideBuy,
		Size:        size,
		Price:       0.5,
		RealizedPnL: &p,
	}
}

// uniformSeq builds n events spaced one day apart, alternating markets,
// constant size, all winning.
func uniformSeq(n int, size float64) []domain.TradeEvent {
	events := make([]domain.TradeEvent, n)
	for i := 0; i < n; i++ {
		events[i] = evt(i, int64(i)*86400, "m"+string(rune('A'+i%3)), size, 10)
	}
	return events
}
