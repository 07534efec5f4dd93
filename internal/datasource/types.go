// Package datasource fetches per-wallet position history from the trade-data
// API and normalizes it into canonical trade events. The API serves compact
// single-letter keys to keep large history payloads small.
package datasource

// RawPosition is one position row as served by the data API.
type RawPosition struct {
	TotalBought  float64  `json:"tb"`            // position size in USDC
	AvgPrice     float64  `json:"ap"`            // average entry price [0,1]
	CurrentPrice float64  `json:"cp"`            // current market price
	PnL          *float64 `json:"pnl,omitempty"` // realized pnl, absent while unresolved
	Timestamp    int64    `json:"ts"`            // unix seconds
	Title        string   `json:"t"`             // market title
	ConditionID  string   `json:"cid"`           // market identifier
	Outcome      string   `json:"o"`             // outcome side, e.g. "Yes"/"No"
}

// positionsPage is one page of the positions endpoint.
type positionsPage struct {
	Positions []RawPosition `json:"positions"`
	Total     int           `json:"total"`
}

// WalletProfile is the leaderboard context for a wallet. All fields are
// optional; the API omits them for unranked wallets.
type WalletProfile struct {
	Username    string  `json:"username"`
	TotalPnL    float64 `json:"total_pnl"`
	Rank        int     `json:"rank"`
	TotalTrades int     `json:"total_trades"`
}

// activityMessage is one fill pushed on the live activity feed.
type activityMessage struct {
	Type     string      `json:"type"` // "fill", "ping", ...
	Wallet   string      `json:"wallet"`
	Position RawPosition `json:"position"`
}
