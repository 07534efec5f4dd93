package datasource

import (
	"context"
	"fmt"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// Archive serves wallet histories from the trade-event archive instead of the
// HTTP API, so evaluation runs over large wallets don't re-fetch.
type Archive struct {
	store storage.TradeEventStore
}

// NewArchive wraps a trade-event store as an event source.
func NewArchive(store storage.TradeEventStore) *Archive {
	return &Archive{store: store}
}

// Events returns the archived history for a wallet. The store guarantees
// (timestamp ASC, seq_num ASC) order.
func (a *Archive) Events(ctx context.Context, walletID string) ([]domain.TradeEvent, error) {
	events, err := a.store.GetByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("archive events for %s: %w", walletID, err)
	}
	return events, nil
}

// Profile returns the zero profile; the archive carries fills only.
func (a *Archive) Profile(context.Context, string) (WalletProfile, error) {
	return WalletProfile{}, nil
}

// Static is a fixed in-memory source for tests and offline runs.
type Static struct {
	EventsByWallet  map[string][]domain.TradeEvent
	ProfileByWallet map[string]WalletProfile
}

// Events returns the configured history for a wallet, normalized to canonical
// order. Unknown wallets get an empty history, not an error.
func (s *Static) Events(_ context.Context, walletID string) ([]domain.TradeEvent, error) {
	events := s.EventsByWallet[walletID]
	out := make([]domain.TradeEvent, len(events))
	copy(out, events)
	sortEvents(out)
	return out, nil
}

// Profile returns the configured profile for a wallet, zero if absent.
func (s *Static) Profile(_ context.Context, walletID string) (WalletProfile, error) {
	return s.ProfileByWallet[walletID], nil
}
