package datasource

import (
	"sort"

	"wallet-strategy-lab/internal/domain"
)

// Normalize converts raw API positions into canonical trade events, ordered
// by timestamp ASC with source order breaking ties. SeqNum records source
// order so re-normalizing the same payload is byte-stable.
func Normalize(walletID string, raw []RawPosition) []domain.TradeEvent {
	events := make([]domain.TradeEvent, 0, len(raw))
	for i, p := range raw {
		events = append(events, domain.TradeEvent{
			WalletID:    walletID,
			SeqNum:      i,
			Timestamp:   p.Timestamp,
			MarketID:    p.ConditionID,
			Title:       p.Title,
			OutcomeSide: p.Outcome,
			Side:        "BUY", // the positions endpoint reports entries only
			Size:        p.TotalBought,
			Price:       p.AvgPrice,
			RealizedPnL: p.PnL,
		})
	}

	sortEvents(events)
	return events
}

// sortEvents orders events by timestamp ASC, seq_num breaking ties.
func sortEvents(events []domain.TradeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].SeqNum < events[j].SeqNum
	})
}
