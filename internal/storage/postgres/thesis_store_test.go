package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

func testThesis(walletID, versionTag string, generatedAt int64) *domain.WalletThesis {
	return &domain.WalletThesis{
		WalletID:        walletID,
		VersionTag:      versionTag,
		PrimaryStrategy: domain.StrategyWhale,
		RawStrategy:     domain.StrategyMomentum,
		Confidence:      0.85,
		EvidencePoints:  []string{"avg position size $210K", "only 42 trades over 6 months"},
		Reasoning:       "large infrequent positions dominate the profile",
		SupportingSignals: domain.SignalSet{
			domain.SkillSizing: {
				Skill:      domain.SkillSizing,
				TradeCount: 42,
				Signals: map[string]domain.SignalValue{
					"avg_size": domain.Number(210000),
				},
			},
		},
		OverrideRule: "whale-large-positions",
		GeneratedAt:  generatedAt,
	}
}

func TestThesisStore_InsertAndGetByWalletVersion(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewThesisStore(pool)
	ctx := context.Background()

	th := testThesis("0xabc", "v1", 1700000000)
	err := store.Insert(ctx, th)
	require.NoError(t, err)

	retrieved, err := store.GetByWalletVersion(ctx, "0xabc", "v1")
	require.NoError(t, err)

	assert.Equal(t, th.WalletID, retrieved.WalletID)
	assert.Equal(t, th.VersionTag, retrieved.VersionTag)
	assert.Equal(t, th.PrimaryStrategy, retrieved.PrimaryStrategy)
	assert.Equal(t, th.RawStrategy, retrieved.RawStrategy)
	assert.Equal(t, th.Confidence, retrieved.Confidence)
	assert.Equal(t, th.EvidencePoints, retrieved.EvidencePoints)
	assert.Equal(t, th.Reasoning, retrieved.Reasoning)
	assert.Equal(t, th.OverrideRule, retrieved.OverrideRule)
	assert.Equal(t, th.GeneratedAt, retrieved.GeneratedAt)

	require.Contains(t, retrieved.SupportingSignals, domain.SkillSizing)
	avg, ok := retrieved.SupportingSignals.Num(domain.SkillSizing, "avg_size")
	require.True(t, ok)
	assert.Equal(t, 210000.0, avg)
}

func TestThesisStore_InsertDuplicateVersion(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewThesisStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, testThesis("0xabc", "v1", 1700000000))
	require.NoError(t, err)

	// Same wallet under a new version tag is fine.
	err = store.Insert(ctx, testThesis("0xabc", "v2", 1700001000))
	require.NoError(t, err)

	// Re-inserting the same (wallet, version) pair is not.
	err = store.Insert(ctx, testThesis("0xabc", "v1", 1700002000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestThesisStore_GetByWalletNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewThesisStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testThesis("0xabc", "v1", 1700000000)))
	require.NoError(t, store.Insert(ctx, testThesis("0xabc", "v3", 1700002000)))
	require.NoError(t, store.Insert(ctx, testThesis("0xabc", "v2", 1700001000)))
	require.NoError(t, store.Insert(ctx, testThesis("0xother", "v1", 1700003000)))

	theses, err := store.GetByWallet(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, theses, 3)

	assert.Equal(t, "v3", theses[0].VersionTag)
	assert.Equal(t, "v2", theses[1].VersionTag)
	assert.Equal(t, "v1", theses[2].VersionTag)
}

func TestThesisStore_GetByWalletVersionNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewThesisStore(pool)

	_, err := store.GetByWalletVersion(context.Background(), "0xabc", "v99")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestThesisStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewThesisStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, &domain.WalletThesis{VersionTag: "v1"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Insert(ctx, &domain.WalletThesis{WalletID: "0xabc"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
