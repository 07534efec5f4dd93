// Package memory provides in-memory store implementations, used by tests
// and by runs that do not configure a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// GroundTruthStore is an in-memory implementation of storage.GroundTruthStore.
type GroundTruthStore struct {
	mu   sync.RWMutex
	data map[string]*domain.GroundTruth // keyed by wallet_id
}

// NewGroundTruthStore creates a new in-memory ground truth store.
func NewGroundTruthStore() *GroundTruthStore {
	return &GroundTruthStore{
		data: make(map[string]*domain.GroundTruth),
	}
}

// Insert adds a labeled wallet. Returns ErrDuplicateKey if wallet_id exists.
func (s *GroundTruthStore) Insert(_ context.Context, gt *domain.GroundTruth) error {
	if gt == nil || gt.WalletID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[gt.WalletID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	gtCopy := *gt
	s.data[gt.WalletID] = &gtCopy
	return nil
}

// GetByWallet retrieves the label for a wallet. Returns ErrNotFound if not labeled.
func (s *GroundTruthStore) GetByWallet(_ context.Context, walletID string) (*domain.GroundTruth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gt, exists := s.data[walletID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	gtCopy := *gt
	return &gtCopy, nil
}

// GetAll retrieves every labeled wallet, ordered by wallet_id ASC.
func (s *GroundTruthStore) GetAll(_ context.Context) ([]*domain.GroundTruth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.GroundTruth, 0, len(s.data))
	for _, gt := range s.data {
		gtCopy := *gt
		result = append(result, &gtCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].WalletID < result[j].WalletID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.GroundTruthStore = (*GroundTruthStore)(nil)
