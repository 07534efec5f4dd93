package memory

import (
	"context"
	"errors"
	"testing"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

func TestThesisStore_VersionedInserts(t *testing.T) {
	s := NewThesisStore()
	ctx := context.Background()

	v1 := &domain.WalletThesis{WalletID: "0xabc", VersionTag: "v1", PrimaryStrategy: domain.StrategyWhale, GeneratedAt: 100}
	v2 := &domain.WalletThesis{WalletID: "0xabc", VersionTag: "v2", PrimaryStrategy: domain.StrategyScalper, GeneratedAt: 200}

	if err := s.Insert(ctx, v1); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(ctx, v2); err != nil {
		t.Fatal(err)
	}
	// Same (wallet, version) is a duplicate.
	if err := s.Insert(ctx, v1); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	all, err := s.GetByWallet(ctx, "0xabc")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 theses, got %d", len(all))
	}
	// Newest first.
	if all[0].VersionTag != "v2" {
		t.Errorf("expected v2 first, got %s", all[0].VersionTag)
	}

	got, err := s.GetByWalletVersion(ctx, "0xabc", "v1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PrimaryStrategy != domain.StrategyWhale {
		t.Errorf("expected whale for v1, got %s", got.PrimaryStrategy)
	}
}

func TestThesisStore_MissingVersion(t *testing.T) {
	s := NewThesisStore()
	if _, err := s.GetByWalletVersion(context.Background(), "0xabc", "v9"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestThesisStore_RejectsEmptyVersionTag(t *testing.T) {
	s := NewThesisStore()
	err := s.Insert(context.Background(), &domain.WalletThesis{WalletID: "0xabc"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
