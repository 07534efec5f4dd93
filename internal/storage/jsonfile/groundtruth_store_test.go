package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

func writeLabeled(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labeled.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_BareArray(t *testing.T) {
	path := writeLabeled(t, `[
		{
			"wallet": "0xabc",
			"username": "trader1",
			"primary_strategy": "contrarian",
			"difficulty": "medium",
			"evidence_points": [
				{"description": "NO-side bias", "importance": 0.9, "category": "market_selection"}
			],
			"notes": "labeled from 6 months of history",
			"pnl_total": 52000,
			"total_trades": 340
		}
	]`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	gt, err := s.GetByWallet(context.Background(), "0xabc")
	if err != nil {
		t.Fatal(err)
	}
	if gt.PrimaryStrategy != domain.StrategyContrarian {
		t.Errorf("expected contrarian, got %s", gt.PrimaryStrategy)
	}
	if gt.Difficulty != domain.DifficultyMedium {
		t.Errorf("expected medium difficulty, got %s", gt.Difficulty)
	}
	if len(gt.EvidencePoints) != 1 || gt.EvidencePoints[0].Importance != 0.9 {
		t.Errorf("evidence points not parsed: %+v", gt.EvidencePoints)
	}
}

func TestLoad_WrappedObject(t *testing.T) {
	path := writeLabeled(t, `{"wallets": [
		{"wallet": "0xaaa", "primary_strategy": "whale", "difficulty": "easy"},
		{"wallet": "0xbbb", "primary_strategy": "scalper", "difficulty": "hard"}
	]}`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	all, err := s.GetAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(all))
	}
	if all[0].WalletID != "0xaaa" || all[1].WalletID != "0xbbb" {
		t.Errorf("expected wallet_id ASC order, got %s, %s", all[0].WalletID, all[1].WalletID)
	}
}

func TestLoad_InvalidStrategyFailsLoad(t *testing.T) {
	path := writeLabeled(t, `[{"wallet": "0xabc", "primary_strategy": "degenerate", "difficulty": "easy"}]`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid strategy label")
	}
}

func TestLoad_DuplicateWalletFailsLoad(t *testing.T) {
	path := writeLabeled(t, `[
		{"wallet": "0xabc", "primary_strategy": "whale", "difficulty": "easy"},
		{"wallet": "0xabc", "primary_strategy": "scalper", "difficulty": "easy"}
	]`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate wallet")
	}
}

func TestStore_ReadOnly(t *testing.T) {
	path := writeLabeled(t, `[{"wallet": "0xabc", "primary_strategy": "whale", "difficulty": "easy"}]`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	err = s.Insert(context.Background(), &domain.GroundTruth{WalletID: "0xnew"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected read-only error, got %v", err)
	}
}
