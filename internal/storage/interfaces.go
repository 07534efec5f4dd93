// Package storage defines the persistence interfaces for the strategy lab.
// Implementations live in the memory, postgres, clickhouse, and jsonfile
// subpackages.
package storage

import (
	"context"

	"wallet-strategy-lab/internal/domain"
)

// GroundTruthStore provides access to hand-labeled wallets. The labeled set
// is read-mostly; inserts happen when labels are imported, never during a run.
type GroundTruthStore interface {
	// Insert adds a labeled wallet. Returns ErrDuplicateKey if wallet_id exists.
	Insert(ctx context.Context, gt *domain.GroundTruth) error

	// GetByWallet retrieves the label for a wallet. Returns ErrNotFound if not labeled.
	GetByWallet(ctx context.Context, walletID string) (*domain.GroundTruth, error)

	// GetAll retrieves every labeled wallet, ordered by wallet_id ASC.
	GetAll(ctx context.Context) ([]*domain.GroundTruth, error)
}

// ThesisStore provides access to generated wallet theses. Theses are
// append-only; re-analyzing a wallet under a new version tag adds a row.
type ThesisStore interface {
	// Insert adds a thesis. Returns ErrDuplicateKey if (wallet_id, version_tag) exists.
	Insert(ctx context.Context, th *domain.WalletThesis) error

	// GetByWallet retrieves all theses for a wallet, newest first.
	GetByWallet(ctx context.Context, walletID string) ([]*domain.WalletThesis, error)

	// GetByWalletVersion retrieves one thesis. Returns ErrNotFound if not exists.
	GetByWalletVersion(ctx context.Context, walletID, versionTag string) (*domain.WalletThesis, error)
}

// EvalReportStore provides access to evaluation reports. Reports form an
// append-only history ordered by creation time; regression detection reads
// the latest two entries.
type EvalReportStore interface {
	// Insert adds a report. Returns ErrDuplicateKey if report_id exists.
	Insert(ctx context.Context, r *domain.EvalReport) error

	// GetByID retrieves a report. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, reportID string) (*domain.EvalReport, error)

	// GetHistory retrieves reports ordered by created_at ASC, oldest first.
	GetHistory(ctx context.Context) ([]*domain.EvalReport, error)

	// GetLatest retrieves the most recent report. Returns ErrNotFound when
	// the history is empty.
	GetLatest(ctx context.Context) (*domain.EvalReport, error)
}

// TradeEventStore archives normalized trade events. Backed by ClickHouse in
// production; histories run to hundreds of thousands of rows per wallet.
type TradeEventStore interface {
	// InsertBulk adds events for a wallet. Duplicate (wallet_id, seq_num)
	// pairs are the caller's responsibility; the archive does not dedupe.
	InsertBulk(ctx context.Context, events []domain.TradeEvent) error

	// GetByWallet retrieves all events for a wallet, ordered by
	// (timestamp ASC, seq_num ASC).
	GetByWallet(ctx context.Context, walletID string) ([]domain.TradeEvent, error)

	// CountByWallet returns the number of archived events for a wallet.
	CountByWallet(ctx context.Context, walletID string) (int, error)
}
