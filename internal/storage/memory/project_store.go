package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

type addressKey struct {
	chain   domain.Chain
	address string
}

// ProjectStore is an in-memory implementation of storage.ProjectStore.
type ProjectStore struct {
	mu     sync.RWMutex
	byKey  map[addressKey]*domain.Project
	nextID int64
	now    func() time.Time
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		byKey: make(map[addressKey]*domain.Project),
		now:   time.Now,
	}
}

// Compile-time interface check.
var _ storage.ProjectStore = (*ProjectStore)(nil)

// Upsert creates the project or refreshes its token fields.
func (s *ProjectStore) Upsert(_ context.Context, p *domain.Project) (*domain.Project, error) {
	if p == nil || p.Address == "" || p.Chain == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	k := addressKey{p.Chain, p.Address}
	existing, ok := s.byKey[k]
	if !ok {
		s.nextID++
		stored := *p
		stored.ID = s.nextID
		stored.CreatedAt = now
		stored.UpdatedAt = now
		s.byKey[k] = &stored
		out := stored
		return &out, nil
	}

	if p.Name != nil {
		existing.Name = p.Name
	}
	if p.TokenName != nil {
		existing.TokenName = p.TokenName
	}
	if p.TokenSymbol != nil {
		existing.TokenSymbol = p.TokenSymbol
	}
	existing.UpdatedAt = now
	out := *existing
	return &out, nil
}

// GetByAddress retrieves a project. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByAddress(_ context.Context, chain domain.Chain, address string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byKey[addressKey{chain, address}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *p
	return &out, nil
}

// List retrieves the most recently updated projects.
func (s *ProjectStore) List(_ context.Context, limit int) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Project, 0, len(s.byKey))
	for _, p := range s.byKey {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
