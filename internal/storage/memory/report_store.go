package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/storage"
)

// EvalReportStore is an in-memory implementation of storage.EvalReportStore.
type EvalReportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EvalReport // keyed by report_id
}

// NewEvalReportStore creates a new in-memory report store.
func NewEvalReportStore() *EvalReportStore {
	return &EvalReportStore{
		data: make(map[string]*domain.EvalReport),
	}
}

// Insert adds a report. Returns ErrDuplicateKey if report_id exists.
func (s *EvalReportStore) Insert(_ context.Context, r *domain.EvalReport) error {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ReportID]; exists {
		return storage.ErrDuplicateKey
	}

	rCopy := *r
	rCopy.Scores = append([]domain.EvalScore(nil), r.Scores...)
	s.data[r.ReportID] = &rCopy
	return nil
}

// GetByID retrieves a report. Returns ErrNotFound if not exists.
func (s *EvalReportStore) GetByID(_ context.Context, reportID string) (*domain.EvalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[reportID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rCopy := *r
	rCopy.Scores = append([]domain.EvalScore(nil), r.Scores...)
	return &rCopy, nil
}

// GetHistory retrieves reports ordered by created_at ASC, oldest first.
func (s *EvalReportStore) GetHistory(_ context.Context) ([]*domain.EvalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.EvalReport, 0, len(s.data))
	for _, r := range s.data {
		rCopy := *r
		rCopy.Scores = append([]domain.EvalScore(nil), r.Scores...)
		result = append(result, &rCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ReportID < result[j].ReportID
	})

	return result, nil
}

// GetLatest retrieves the most recent report. Returns ErrNotFound when the
// history is empty.
func (s *EvalReportStore) GetLatest(ctx context.Context) (*domain.EvalReport, error) {
	history, err := s.GetHistory(ctx)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}
	return history[len(history)-1], nil
}

// Verify interface compliance at compile time.
var _ storage.EvalReportStore = (*EvalReportStore)(nil)
