package clickhouse

import (
	"context"
	"fmt"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// TradeEventStore implements storage.TradeEventStore using ClickHouse.
// MergeTree does not enforce uniqueness; dedupe is the ingest pipeline's job.
type TradeEventStore struct {
	conn *Conn
}

// NewTradeEventStore creates a new TradeEventStore.
func NewTradeEventStore(conn *Conn) *TradeEventStore {
	return &TradeEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeEventStore = (*TradeEventStore)(nil)

// InsertBulk adds events for a wallet in one batch.
func (s *TradeEventStore) InsertBulk(ctx context.Context, events []domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	for i := range events {
		if events[i].WalletID == "" {
			return fmt.Errorf("%w: event %d has empty wallet_id", storage.ErrInvalidInput, i)
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_events (
			wallet_id, seq_num, timestamp, market_id, title,
			outcome_side, side, size, price, realized_pnl
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.WalletID, uint32(e.SeqNum), e.Timestamp, e.MarketID, e.Title,
			e.OutcomeSide, e.Side, e.Size, e.Price, e.RealizedPnL,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves all events for a wallet, ordered by (timestamp ASC, seq_num ASC).
func (s *TradeEventStore) GetByWallet(ctx context.Context, walletID string) ([]domain.TradeEvent, error) {
	query := `
		SELECT wallet_id, seq_num, timestamp, market_id, title,
		       outcome_side, side, size, price, realized_pnl
		FROM trade_events
		WHERE wallet_id = ?
		ORDER BY timestamp ASC, seq_num ASC
	`

	rows, err := s.conn.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	var events []domain.TradeEvent
	for rows.Next() {
		var e domain.TradeEvent
		var seqNum uint32

		err := rows.Scan(
			&e.WalletID, &seqNum, &e.Timestamp, &e.MarketID, &e.Title,
			&e.OutcomeSide, &e.Side, &e.Size, &e.Price, &e.RealizedPnL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade event row: %w", err)
		}

		e.SeqNum = int(seqNum)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade event rows: %w", err)
	}

	return events, nil
}

// CountByWallet returns the number of archived events for a wallet.
func (s *TradeEventStore) CountByWallet(ctx context.Context, walletID string) (int, error) {
	query := `SELECT count(*) FROM trade_events WHERE wallet_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, walletID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by wallet: %w", err)
	}
	return int(count), nil
}
