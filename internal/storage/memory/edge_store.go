package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

type edgeKey struct {
	chain      domain.Chain
	center     string
	analyzedAt int64
	from, to   string
}

// EdgeStore is an in-memory implementation of storage.EdgeStore.
type EdgeStore struct {
	mu    sync.RWMutex
	edges []domain.EdgeRecord
	keys  map[edgeKey]struct{}
}

// NewEdgeStore creates a new in-memory edge store.
func NewEdgeStore() *EdgeStore {
	return &EdgeStore{keys: make(map[edgeKey]struct{})}
}

// Compile-time interface check.
var _ storage.EdgeStore = (*EdgeStore)(nil)

// InsertBulk appends edge records. Fails entire batch on any duplicate.
func (s *EdgeStore) InsertBulk(_ context.Context, edges []domain.EdgeRecord) error {
	if len(edges) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[edgeKey]struct{}, len(edges))
	for _, e := range edges {
		k := edgeKey{e.Chain, e.Center, e.AnalyzedAt, e.From, e.To}
		if _, exists := s.keys[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for k := range batch {
		s.keys[k] = struct{}{}
	}
	for _, e := range edges {
		s.edges = append(s.edges, copyEdgeRecord(e))
	}
	return nil
}

// GetSnapshot retrieves the edges of one analysis, ordered by count DESC.
func (s *EdgeStore) GetSnapshot(_ context.Context, chain domain.Chain, center string, analyzedAt int64) ([]domain.EdgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.EdgeRecord
	for _, e := range s.edges {
		if e.Chain == chain && e.Center == center && e.AnalyzedAt == analyzedAt {
			out = append(out, copyEdgeRecord(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// GetByCounterparty retrieves every edge touching addr, newest first.
func (s *EdgeStore) GetByCounterparty(_ context.Context, chain domain.Chain, addr string) ([]domain.EdgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.EdgeRecord
	for _, e := range s.edges {
		if e.Chain == chain && (e.From == addr || e.To == addr) {
			out = append(out, copyEdgeRecord(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnalyzedAt > out[j].AnalyzedAt })
	return out, nil
}

func copyEdgeRecord(e domain.EdgeRecord) domain.EdgeRecord {
	if e.TotalValue != nil {
		e.TotalValue = new(big.Int).Set(e.TotalValue)
	}
	e.TxTypes = append([]domain.TxKind(nil), e.TxTypes...)
	return e
}
