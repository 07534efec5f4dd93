package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// GroundTruthStore implements storage.GroundTruthStore using PostgreSQL.
type GroundTruthStore struct {
	pool *Pool
}

// NewGroundTruthStore creates a new GroundTruthStore.
func NewGroundTruthStore(pool *Pool) *GroundTruthStore {
	return &GroundTruthStore{pool: pool}
}

// Compile-time interface check.
var _ storage.GroundTruthStore = (*GroundTruthStore)(nil)

// Insert adds a labeled wallet. Returns ErrDuplicateKey if wallet_id exists.
func (s *GroundTruthStore) Insert(ctx context.Context, gt *domain.GroundTruth) error {
	if gt.WalletID == "" {
		return fmt.Errorf("%w: empty wallet_id", storage.ErrInvalidInput)
	}
	if !gt.PrimaryStrategy.Valid() {
		return fmt.Errorf("%w: strategy %q", storage.ErrInvalidInput, gt.PrimaryStrategy)
	}

	evidence, err := json.Marshal(gt.EvidencePoints)
	if err != nil {
		return fmt.Errorf("marshal evidence points: %w", err)
	}

	query := `
		INSERT INTO ground_truth (
			wallet_id, username, primary_strategy, difficulty,
			evidence_points, notes, total_pnl, total_trades
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		gt.WalletID, gt.Username, string(gt.PrimaryStrategy), string(gt.Difficulty),
		evidence, gt.Notes, gt.TotalPnL, gt.TotalTrades,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ground truth: %w", err)
	}
	return nil
}

// GetByWallet retrieves the label for a wallet. Returns ErrNotFound if not labeled.
func (s *GroundTruthStore) GetByWallet(ctx context.Context, walletID string) (*domain.GroundTruth, error) {
	query := `
		SELECT wallet_id, username, primary_strategy, difficulty,
		       evidence_points, notes, total_pnl, total_trades
		FROM ground_truth
		WHERE wallet_id = $1
	`

	row := s.pool.QueryRow(ctx, query, walletID)
	gt, err := scanGroundTruth(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ground truth by wallet: %w", err)
	}
	return gt, nil
}

// GetAll retrieves every labeled wallet, ordered by wallet_id ASC.
func (s *GroundTruthStore) GetAll(ctx context.Context) ([]*domain.GroundTruth, error) {
	query := `
		SELECT wallet_id, username, primary_strategy, difficulty,
		       evidence_points, notes, total_pnl, total_trades
		FROM ground_truth
		ORDER BY wallet_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all ground truths: %w", err)
	}
	defer rows.Close()

	var result []*domain.GroundTruth
	for rows.Next() {
		gt, err := scanGroundTruth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ground truth row: %w", err)
		}
		result = append(result, gt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ground truth rows: %w", err)
	}

	return result, nil
}

// scanGroundTruth scans a single row into a GroundTruth.
func scanGroundTruth(row pgx.Row) (*domain.GroundTruth, error) {
	var gt domain.GroundTruth
	var strategy, difficulty string
	var evidence []byte

	err := row.Scan(
		&gt.WalletID, &gt.Username, &strategy, &difficulty,
		&evidence, &gt.Notes, &gt.TotalPnL, &gt.TotalTrades,
	)
	if err != nil {
		return nil, err
	}

	gt.PrimaryStrategy = domain.StrategyType(strategy)
	gt.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal(evidence, &gt.EvidencePoints); err != nil {
		return nil, fmt.Errorf("unmarshal evidence points: %w", err)
	}

	return &gt, nil
}
