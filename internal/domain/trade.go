package domain

// Trade side constants.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Outcome side constants.
const (
	OutcomeYes = "YES"
	OutcomeNo  = "NO"
)

// TradeEvent is one normalized fill/position event for a wallet.
// Events are immutable once fetched and ordered by Timestamp ASC,
// with SeqNum (original source order) breaking ties.
type TradeEvent struct {
	WalletID    string   `json:"wallet_id"`
	SeqNum      int      `json:"seq_num"`
	Timestamp   int64    `json:"timestamp"` // unix seconds
	MarketID    string   `json:"market_id"` // condition id
	Title       string   `json:"title"`     // market title, used for categorization
	OutcomeSide string   `json:"outcome_side"`
	Side        string   `json:"side"`
	Size        float64  `json:"size"`  // position size in USDC
	Price       float64  `json:"price"` // entry price in [0,1]
	RealizedPnL *float64 `json:"realized_pnl,omitempty"` // nil while unresolved
}

// Resolved reports whether the event carries a realized outcome.
func (e *TradeEvent) Resolved() bool {
	return e.RealizedPnL != nil
}

// PnL returns the realized PnL, or 0 for unresolved events.
func (e *TradeEvent) PnL() float64 {
	if e.RealizedPnL == nil {
		return 0
	}
	return *e.RealizedPnL
}
