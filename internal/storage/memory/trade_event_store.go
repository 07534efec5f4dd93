package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// TradeEventStore is an in-memory implementation of storage.TradeEventStore.
type TradeEventStore struct {
	mu   sync.RWMutex
	data map[string][]domain.TradeEvent // keyed by wallet_id
}

// NewTradeEventStore creates a new in-memory trade event archive.
func NewTradeEventStore() *TradeEventStore {
	return &TradeEventStore{
		data: make(map[string][]domain.TradeEvent),
	}
}

// InsertBulk adds events for a wallet.
func (s *TradeEventStore) InsertBulk(_ context.Context, events []domain.TradeEvent) error {
	for _, e := range events {
		if e.WalletID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		s.data[e.WalletID] = append(s.data[e.WalletID], e)
	}
	return nil
}

// GetByWallet retrieves all events for a wallet, ordered by (timestamp ASC, seq_num ASC).
func (s *TradeEventStore) GetByWallet(_ context.Context, walletID string) ([]domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.data[walletID]
	result := make([]domain.TradeEvent, len(events))
	copy(result, events)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].SeqNum < result[j].SeqNum
	})

	return result, nil
}

// CountByWallet returns the number of archived events for a wallet.
func (s *TradeEventStore) CountByWallet(_ context.Context, walletID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[walletID]), nil
}

// Verify interface compliance at compile time.
var _ storage.TradeEventStore = (*TradeEventStore)(nil)
