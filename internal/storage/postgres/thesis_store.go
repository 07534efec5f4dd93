package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// ThesisStore implements storage.ThesisStore using PostgreSQL.
type ThesisStore struct {
	pool *Pool
}

// NewThesisStore creates a new ThesisStore.
func NewThesisStore(pool *Pool) *ThesisStore {
	return &ThesisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ThesisStore = (*ThesisStore)(nil)

// Insert adds a thesis. Returns ErrDuplicateKey if (wallet_id, version_tag) exists.
func (s *ThesisStore) Insert(ctx context.Context, th *domain.WalletThesis) error {
	if th.WalletID == "" {
		return fmt.Errorf("%w: empty wallet_id", storage.ErrInvalidInput)
	}
	if th.VersionTag == "" {
		return fmt.Errorf("%w: empty version_tag", storage.ErrInvalidInput)
	}

	evidence, err := json.Marshal(th.EvidencePoints)
	if err != nil {
		return fmt.Errorf("marshal evidence points: %w", err)
	}
	signals, err := json.Marshal(th.SupportingSignals)
	if err != nil {
		return fmt.Errorf("marshal supporting signals: %w", err)
	}

	query := `
		INSERT INTO wallet_theses (
			wallet_id, version_tag, primary_strategy, raw_strategy,
			confidence, evidence_points, reasoning, supporting_signals,
			override_rule, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		th.WalletID, th.VersionTag, string(th.PrimaryStrategy), string(th.RawStrategy),
		th.Confidence, evidence, th.Reasoning, signals,
		th.OverrideRule, th.GeneratedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert thesis: %w", err)
	}
	return nil
}

// GetByWallet retrieves all theses for a wallet, newest first.
func (s *ThesisStore) GetByWallet(ctx context.Context, walletID string) ([]*domain.WalletThesis, error) {
	query := `
		SELECT wallet_id, version_tag, primary_strategy, raw_strategy,
		       confidence, evidence_points, reasoning, supporting_signals,
		       override_rule, generated_at
		FROM wallet_theses
		WHERE wallet_id = $1
		ORDER BY generated_at DESC, version_tag DESC
	`

	rows, err := s.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("get theses by wallet: %w", err)
	}
	defer rows.Close()

	var result []*domain.WalletThesis
	for rows.Next() {
		th, err := scanThesis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thesis row: %w", err)
		}
		result = append(result, th)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thesis rows: %w", err)
	}

	return result, nil
}

// GetByWalletVersion retrieves one thesis. Returns ErrNotFound if not exists.
func (s *ThesisStore) GetByWalletVersion(ctx context.Context, walletID, versionTag string) (*domain.WalletThesis, error) {
	query := `
		SELECT wallet_id, version_tag, primary_strategy, raw_strategy,
		       confidence, evidence_points, reasoning, supporting_signals,
		       override_rule, generated_at
		FROM wallet_theses
		WHERE wallet_id = $1 AND version_tag = $2
	`

	row := s.pool.QueryRow(ctx, query, walletID, versionTag)
	th, err := scanThesis(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get thesis by wallet/version: %w", err)
	}
	return th, nil
}

// scanThesis scans a single row into a WalletThesis.
func scanThesis(row pgx.Row) (*domain.WalletThesis, error) {
	var th domain.WalletThesis
	var strategy, rawStrategy string
	var evidence, signals []byte

	err := row.Scan(
		&th.WalletID, &th.VersionTag, &strategy, &rawStrategy,
		&th.Confidence, &evidence, &th.Reasoning, &signals,
		&th.OverrideRule, &th.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}

	th.PrimaryStrategy = domain.StrategyType(strategy)
	th.RawStrategy = domain.StrategyType(rawStrategy)
	if err := json.Unmarshal(evidence, &th.EvidencePoints); err != nil {
		return nil, fmt.Errorf("unmarshal evidence points: %w", err)
	}
	if err := json.Unmarshal(signals, &th.SupportingSignals); err != nil {
		return nil, fmt.Errorf("unmarshal supporting signals: %w", err)
	}

	return &th, nil
}
