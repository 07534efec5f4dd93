package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// EvalReportStore implements storage.EvalReportStore using PostgreSQL.
// Per-wallet scores are stored as a JSONB document alongside the aggregates;
// reports are read whole, never by individual score row.
type EvalReportStore struct {
	pool *Pool
}

// NewEvalReportStore creates a new EvalReportStore.
func NewEvalReportStore(pool *Pool) *EvalReportStore {
	return &EvalReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EvalReportStore = (*EvalReportStore)(nil)

// Insert adds a report. Returns ErrDuplicateKey if report_id exists.
func (s *EvalReportStore) Insert(ctx context.Context, r *domain.EvalReport) error {
	if r.ReportID == "" {
		return fmt.Errorf("%w: empty report_id", storage.ErrInvalidInput)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("%w: zero created_at", storage.ErrInvalidInput)
	}

	scores, err := json.Marshal(r.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	query := `
		INSERT INTO eval_reports (
			report_id, version_tag, created_at,
			mean_composite, strategy_accuracy, mean_evidence_recall, mean_false_claims,
			wallets_evaluated, scoring_errors, scores
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ReportID, r.VersionTag, r.CreatedAt,
		r.MeanComposite, r.StrategyAccuracy, r.MeanEvidenceRecall, r.MeanFalseClaims,
		r.WalletsEvaluated, r.ScoringErrors, scores,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert eval report: %w", err)
	}
	return nil
}

// GetByID retrieves a report. Returns ErrNotFound if not exists.
func (s *EvalReportStore) GetByID(ctx context.Context, reportID string) (*domain.EvalReport, error) {
	query := `
		SELECT report_id, version_tag, created_at,
		       mean_composite, strategy_accuracy, mean_evidence_recall, mean_false_claims,
		       wallets_evaluated, scoring_errors, scores
		FROM eval_reports
		WHERE report_id = $1
	`

	row := s.pool.QueryRow(ctx, query, reportID)
	r, err := scanEvalReport(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get eval report by id: %w", err)
	}
	return r, nil
}

// GetHistory retrieves reports ordered by created_at ASC, oldest first.
func (s *EvalReportStore) GetHistory(ctx context.Context) ([]*domain.EvalReport, error) {
	query := `
		SELECT report_id, version_tag, created_at,
		       mean_composite, strategy_accuracy, mean_evidence_recall, mean_false_claims,
		       wallets_evaluated, scoring_errors, scores
		FROM eval_reports
		ORDER BY created_at ASC, report_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get eval report history: %w", err)
	}
	defer rows.Close()

	var result []*domain.EvalReport
	for rows.Next() {
		r, err := scanEvalReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan eval report row: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eval report rows: %w", err)
	}

	return result, nil
}

// GetLatest retrieves the most recent report. Returns ErrNotFound when the
// history is empty.
func (s *EvalReportStore) GetLatest(ctx context.Context) (*domain.EvalReport, error) {
	query := `
		SELECT report_id, version_tag, created_at,
		       mean_composite, strategy_accuracy, mean_evidence_recall, mean_false_claims,
		       wallets_evaluated, scoring_errors, scores
		FROM eval_reports
		ORDER BY created_at DESC, report_id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query)
	r, err := scanEvalReport(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest eval report: %w", err)
	}
	return r, nil
}

// scanEvalReport scans a single row into an EvalReport.
func scanEvalReport(row pgx.Row) (*domain.EvalReport, error) {
	var r domain.EvalReport
	var scores []byte

	err := row.Scan(
		&r.ReportID, &r.VersionTag, &r.CreatedAt,
		&r.MeanComposite, &r.StrategyAccuracy, &r.MeanEvidenceRecall, &r.MeanFalseClaims,
		&r.WalletsEvaluated, &r.ScoringErrors, &scores,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scores, &r.Scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}

	return &r, nil
}
