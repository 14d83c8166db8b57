package memory

import (
	"context"
	"sort"
	"sync"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

// ScoreHistoryStore is an in-memory implementation of storage.ScoreHistoryStore.
type ScoreHistoryStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
}

// NewScoreHistoryStore creates a new in-memory score history store.
func NewScoreHistoryStore() *ScoreHistoryStore {
	return &ScoreHistoryStore{}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// Insert appends a score point.
func (s *ScoreHistoryStore) Insert(_ context.Context, r domain.ScoreRecord) error {
	if r.Address == "" || r.Kind == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

// GetByAddress retrieves score points within [start, end], ordered by time ASC.
func (s *ScoreHistoryStore) GetByAddress(_ context.Context, kind domain.AnalysisKind, chain domain.Chain, address string, start, end int64) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScoreRecord
	for _, r := range s.records {
		if r.Kind == kind && r.Chain == chain && r.Address == address && r.AnalyzedAt >= start && r.AnalyzedAt <= end {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnalyzedAt < out[j].AnalyzedAt })
	return out, nil
}
