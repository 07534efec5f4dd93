package memory

import (
	"context"
	"errors"
	"testing"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

func TestGroundTruthStore_InsertAndGet(t *testing.T) {
	s := NewGroundTruthStore()
	ctx := context.Background()

	gt := &domain.GroundTruth{
		WalletID:        "0xabc",
		PrimaryStrategy: domain.StrategyWhale,
		Difficulty:      domain.DifficultyEasy,
	}
	if err := s.Insert(ctx, gt); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := s.GetByWallet(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if got.PrimaryStrategy != domain.StrategyWhale {
		t.Errorf("expected whale, got %s", got.PrimaryStrategy)
	}
}

func TestGroundTruthStore_DuplicateInsert(t *testing.T) {
	s := NewGroundTruthStore()
	ctx := context.Background()

	gt := &domain.GroundTruth{WalletID: "0xabc", PrimaryStrategy: domain.StrategyWhale}
	if err := s.Insert(ctx, gt); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(ctx, gt); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestGroundTruthStore_NotFound(t *testing.T) {
	s := NewGroundTruthStore()
	if _, err := s.GetByWallet(context.Background(), "0xmissing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGroundTruthStore_GetAllSorted(t *testing.T) {
	s := NewGroundTruthStore()
	ctx := context.Background()

	for _, id := range []string{"0xccc", "0xaaa", "0xbbb"} {
		if err := s.Insert(ctx, &domain.GroundTruth{WalletID: id, PrimaryStrategy: domain.StrategyUnknown}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	for i, want := range []string{"0xaaa", "0xbbb", "0xccc"} {
		if all[i].WalletID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].WalletID)
		}
	}
}

func TestGroundTruthStore_ReturnsCopies(t *testing.T) {
	s := NewGroundTruthStore()
	ctx := context.Background()

	gt := &domain.GroundTruth{WalletID: "0xabc", PrimaryStrategy: domain.StrategyWhale}
	if err := s.Insert(ctx, gt); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetByWallet(ctx, "0xabc")
	got.PrimaryStrategy = domain.StrategyScalper

	again, _ := s.GetByWallet(ctx, "0xabc")
	if again.PrimaryStrategy != domain.StrategyWhale {
		t.Error("mutating a returned record must not affect the store")
	}
}
