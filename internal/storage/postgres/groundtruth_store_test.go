package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

func TestGroundTruthStore_InsertAndGetByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGroundTruthStore(pool)
	ctx := context.Background()

	gt := &domain.GroundTruth{
		WalletID:        "0xabc",
		Username:        "trader1",
		PrimaryStrategy: domain.StrategyContrarian,
		Difficulty:      domain.DifficultyMedium,
		EvidencePoints: []domain.EvidencePoint{
			{Description: "NO-side bias on longshot markets", Importance: 0.9, Category: "market_selection"},
			{Description: "entries cluster near resolution", Importance: 0.6, Category: "timing"},
		},
		Notes:       "labeled from 6 months of history",
		TotalPnL:    52000,
		TotalTrades: 340,
	}

	err := store.Insert(ctx, gt)
	require.NoError(t, err)

	retrieved, err := store.GetByWallet(ctx, "0xabc")
	require.NoError(t, err)

	assert.Equal(t, gt.WalletID, retrieved.WalletID)
	assert.Equal(t, gt.Username, retrieved.Username)
	assert.Equal(t, gt.PrimaryStrategy, retrieved.PrimaryStrategy)
	assert.Equal(t, gt.Difficulty, retrieved.Difficulty)
	assert.Equal(t, gt.EvidencePoints, retrieved.EvidencePoints)
	assert.Equal(t, gt.Notes, retrieved.Notes)
	assert.Equal(t, gt.TotalPnL, retrieved.TotalPnL)
	assert.Equal(t, gt.TotalTrades, retrieved.TotalTrades)
}

func TestGroundTruthStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGroundTruthStore(pool)
	ctx := context.Background()

	gt := &domain.GroundTruth{
		WalletID:        "0xdup",
		PrimaryStrategy: domain.StrategyWhale,
		Difficulty:      domain.DifficultyEasy,
	}

	err := store.Insert(ctx, gt)
	require.NoError(t, err)

	err = store.Insert(ctx, gt)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestGroundTruthStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGroundTruthStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, &domain.GroundTruth{PrimaryStrategy: domain.StrategyWhale})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Insert(ctx, &domain.GroundTruth{WalletID: "0xabc", PrimaryStrategy: "degenerate"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestGroundTruthStore_GetByWalletNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGroundTruthStore(pool)

	_, err := store.GetByWallet(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGroundTruthStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGroundTruthStore(pool)
	ctx := context.Background()

	// Inserted out of order, retrieved sorted by wallet_id.
	for _, id := range []string{"0xccc", "0xaaa", "0xbbb"} {
		err := store.Insert(ctx, &domain.GroundTruth{
			WalletID:        id,
			PrimaryStrategy: domain.StrategyScalper,
			Difficulty:      domain.DifficultyHard,
		})
		require.NoError(t, err)
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "0xaaa", all[0].WalletID)
	assert.Equal(t, "0xbbb", all[1].WalletID)
	assert.Equal(t, "0xccc", all[2].WalletID)
}
