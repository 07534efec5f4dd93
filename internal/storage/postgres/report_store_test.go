package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

func testReport(reportID, versionTag string, createdAt time.Time) *domain.EvalReport {
	return &domain.EvalReport{
		ReportID:           reportID,
		VersionTag:         versionTag,
		CreatedAt:          createdAt,
		MeanComposite:      0.74,
		StrategyAccuracy:   0.8,
		MeanEvidenceRecall: 0.66,
		MeanFalseClaims:    0.4,
		WalletsEvaluated:   5,
		ScoringErrors:      1,
		Scores: []domain.EvalScore{
			{
				WalletID:          "0xabc",
				PredictedStrategy: domain.StrategyContrarian,
				ActualStrategy:    domain.StrategyContrarian,
				StrategyCorrect:   true,
				EvidenceRecall:    0.75,
				FalseClaimCount:   1,
				CompositeScore:    0.8,
			},
			{
				WalletID:     "0xerr",
				ScoringError: true,
				ErrorDetail:  "judge call failed after retry",
			},
		},
	}
}

func TestEvalReportStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEvalReportStore(pool)
	ctx := context.Background()

	r := testReport("report-001", "v1", time.Unix(1700000000, 0).UTC())
	err := store.Insert(ctx, r)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "report-001")
	require.NoError(t, err)

	assert.Equal(t, r.ReportID, retrieved.ReportID)
	assert.Equal(t, r.VersionTag, retrieved.VersionTag)
	assert.True(t, r.CreatedAt.Equal(retrieved.CreatedAt))
	assert.Equal(t, r.MeanComposite, retrieved.MeanComposite)
	assert.Equal(t, r.StrategyAccuracy, retrieved.StrategyAccuracy)
	assert.Equal(t, r.MeanEvidenceRecall, retrieved.MeanEvidenceRecall)
	assert.Equal(t, r.MeanFalseClaims, retrieved.MeanFalseClaims)
	assert.Equal(t, r.WalletsEvaluated, retrieved.WalletsEvaluated)
	assert.Equal(t, r.ScoringErrors, retrieved.ScoringErrors)
	assert.Equal(t, r.Scores, retrieved.Scores)
}

func TestEvalReportStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEvalReportStore(pool)
	ctx := context.Background()

	r := testReport("report-dup", "v1", time.Unix(1700000000, 0))
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestEvalReportStore_HistoryAndLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEvalReportStore(pool)
	ctx := context.Background()

	base := time.Unix(1700000000, 0).UTC()
	// Inserted out of chronological order.
	require.NoError(t, store.Insert(ctx, testReport("r2", "v2", base.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, testReport("r1", "v1", base)))
	require.NoError(t, store.Insert(ctx, testReport("r3", "v3", base.Add(2*time.Hour))))

	history, err := store.GetHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "r1", history[0].ReportID)
	assert.Equal(t, "r2", history[1].ReportID)
	assert.Equal(t, "r3", history[2].ReportID)

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r3", latest.ReportID)
}

func TestEvalReportStore_LatestOnEmptyHistory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEvalReportStore(pool)

	_, err := store.GetLatest(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEvalReportStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEvalReportStore(pool)

	_, err := store.GetByID(context.Background(), "report-missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
