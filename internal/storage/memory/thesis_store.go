package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

type thesisKey struct {
	walletID   string
	versionTag string
}

// ThesisStore is an in-memory implementation of storage.ThesisStore.
type ThesisStore struct {
	mu   sync.RWMutex
	data map[thesisKey]*domain.WalletThesis
}

// NewThesisStore creates a new in-memory thesis store.
func NewThesisStore() *ThesisStore {
	return &ThesisStore{
		data: make(map[thesisKey]*domain.WalletThesis),
	}
}

// Insert adds a thesis. Returns ErrDuplicateKey if (wallet_id, version_tag) exists.
func (s *ThesisStore) Insert(_ context.Context, th *domain.WalletThesis) error {
	if th == nil || th.WalletID == "" || th.VersionTag == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := thesisKey{walletID: th.WalletID, versionTag: th.VersionTag}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	thCopy := *th
	s.data[key] = &thCopy
	return nil
}

// GetByWallet retrieves all theses for a wallet, newest first.
func (s *ThesisStore) GetByWallet(_ context.Context, walletID string) ([]*domain.WalletThesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WalletThesis
	for key, th := range s.data {
		if key.walletID == walletID {
			thCopy := *th
			result = append(result, &thCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt > result[j].GeneratedAt
	})

	return result, nil
}

// GetByWalletVersion retrieves one thesis. Returns ErrNotFound if not exists.
func (s *ThesisStore) GetByWalletVersion(_ context.Context, walletID, versionTag string) (*domain.WalletThesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, exists := s.data[thesisKey{walletID: walletID, versionTag: versionTag}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	thCopy := *th
	return &thCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.ThesisStore = (*ThesisStore)(nil)
