// Package jsonfile loads the hand-labeled ground truth set from a JSON file.
// Labels are curated by hand in version control, so the file is the source
// of truth; this store is read-only.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// GroundTruthStore serves labels parsed from a JSON file.
type GroundTruthStore struct {
	byWallet map[string]*domain.GroundTruth
}

// labeledFile matches the on-disk layout: either a bare array of entries or
// an object with a "wallets" key.
type labeledFile struct {
	Wallets []labeledEntry `json:"wallets"`
}

type labeledEntry struct {
	Wallet          string                 `json:"wallet"`
	Username        string                 `json:"username"`
	PrimaryStrategy string                 `json:"primary_strategy"`
	Difficulty      string                 `json:"difficulty"`
	EvidencePoints  []domain.EvidencePoint `json:"evidence_points"`
	Notes           string                 `json:"notes"`
	PnLTotal        float64                `json:"pnl_total"`
	TotalTrades     int                    `json:"total_trades"`
}

// Load parses the labeled set at path. Entries with an empty wallet address
// or an invalid strategy label fail the load; a corrupt labeled set should
// stop a run before any model calls happen.
func Load(path string) (*GroundTruthStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground truth file: %w", err)
	}

	var entries []labeledEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var wrapped labeledFile
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parse ground truth file: %w", err)
		}
		entries = wrapped.Wallets
	}

	byWallet := make(map[string]*domain.GroundTruth, len(entries))
	for i, e := range entries {
		if e.Wallet == "" {
			return nil, fmt.Errorf("ground truth entry %d: %w: empty wallet", i, storage.ErrInvalidInput)
		}
		strategy := domain.StrategyType(e.PrimaryStrategy)
		if !strategy.Valid() {
			return nil, fmt.Errorf("ground truth entry %d (%s): %w: strategy %q",
				i, e.Wallet, storage.ErrInvalidInput, e.PrimaryStrategy)
		}
		if _, exists := byWallet[e.Wallet]; exists {
			return nil, fmt.Errorf("ground truth entry %d: %w: wallet %s", i, storage.ErrDuplicateKey, e.Wallet)
		}
		byWallet[e.Wallet] = &domain.GroundTruth{
			WalletID:        e.Wallet,
			Username:        e.Username,
			PrimaryStrategy: strategy,
			Difficulty:      domain.Difficulty(e.Difficulty),
			EvidencePoints:  e.EvidencePoints,
			Notes:           e.Notes,
			TotalPnL:        e.PnLTotal,
			TotalTrades:     e.TotalTrades,
		}
	}

	return &GroundTruthStore{byWallet: byWallet}, nil
}

// Insert is not supported; the labeled set is file-managed.
func (s *GroundTruthStore) Insert(context.Context, *domain.GroundTruth) error {
	return fmt.Errorf("%w: jsonfile ground truth store is read-only", storage.ErrInvalidInput)
}

// GetByWallet retrieves the label for a wallet. Returns ErrNotFound if not labeled.
func (s *GroundTruthStore) GetByWallet(_ context.Context, walletID string) (*domain.GroundTruth, error) {
	gt, exists := s.byWallet[walletID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	gtCopy := *gt
	return &gtCopy, nil
}

// GetAll retrieves every labeled wallet, ordered by wallet_id ASC.
func (s *GroundTruthStore) GetAll(context.Context) ([]*domain.GroundTruth, error) {
	result := make([]*domain.GroundTruth, 0, len(s.byWallet))
	for _, gt := range s.byWallet {
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
