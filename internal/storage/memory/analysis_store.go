package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

// history keeps JSON snapshots of analyses per address, oldest first.
// Decoding on every read hands out independent copies.
type history struct {
	mu      sync.RWMutex
	entries map[addressKey][]snapshot
}

type snapshot struct {
	analyzedAt int64
	data       []byte
}

func newHistory() *history {
	return &history{entries: make(map[addressKey][]snapshot)}
}

func (h *history) insert(k addressKey, analyzedAt int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.entries[k]
	for _, s := range list {
		if s.analyzedAt == analyzedAt {
			return storage.ErrDuplicateKey
		}
	}

	// keep ascending by analyzed_at
	i := len(list)
	for i > 0 && list[i-1].analyzedAt > analyzedAt {
		i--
	}
	list = append(list, snapshot{})
	copy(list[i+1:], list[i:])
	list[i] = snapshot{analyzedAt: analyzedAt, data: data}
	h.entries[k] = list
	return nil
}

// newest returns up to limit snapshots, newest first. limit <= 0 means all.
func (h *history) newest(k addressKey, limit int) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := h.entries[k]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([][]byte, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i].data)
	}
	return out
}

func decode[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return &v, nil
}

// ContractAnalysisStore is an in-memory implementation of storage.ContractAnalysisStore.
type ContractAnalysisStore struct {
	analyses *history
	projects *ProjectStore
}

// NewContractAnalysisStore creates a new in-memory contract analysis store.
// Projects are upserted into the given project store.
func NewContractAnalysisStore(projects *ProjectStore) *ContractAnalysisStore {
	return &ContractAnalysisStore{analyses: newHistory(), projects: projects}
}

// Compile-time interface check.
var _ storage.ContractAnalysisStore = (*ContractAnalysisStore)(nil)

// Insert appends an analysis and upserts its project.
func (s *ContractAnalysisStore) Insert(ctx context.Context, a *domain.ContractAnalysis) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}
	if err := s.analyses.insert(addressKey{a.Chain, a.Address}, a.AnalyzedAt, a); err != nil {
		return err
	}
	if s.projects != nil {
		if _, err := s.projects.Upsert(ctx, domain.ProjectFromAnalysis(a)); err != nil {
			return fmt.Errorf("upsert project: %w", err)
		}
	}
	return nil
}

// GetLatest retrieves the newest analysis of an address.
func (s *ContractAnalysisStore) GetLatest(_ context.Context, chain domain.Chain, address string) (*domain.ContractAnalysis, error) {
	data := s.analyses.newest(addressKey{chain, address}, 1)
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return decode[domain.ContractAnalysis](data[0])
}

// GetHistory retrieves up to limit analyses of an address, newest first.
func (s *ContractAnalysisStore) GetHistory(_ context.Context, chain domain.Chain, address string, limit int) ([]*domain.ContractAnalysis, error) {
	var out []*domain.ContractAnalysis
	for _, data := range s.analyses.newest(addressKey{chain, address}, limit) {
		a, err := decode[domain.ContractAnalysis](data)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CreatorAnalysisStore is an in-memory implementation of storage.CreatorAnalysisStore.
type CreatorAnalysisStore struct {
	analyses *history

	mu         sync.RWMutex
	byDeployer map[addressKey][]addressKey
}

// NewCreatorAnalysisStore creates a new in-memory creator analysis store.
func NewCreatorAnalysisStore() *CreatorAnalysisStore {
	return &CreatorAnalysisStore{
		analyses:   newHistory(),
		byDeployer: make(map[addressKey][]addressKey),
	}
}

// Compile-time interface check.
var _ storage.CreatorAnalysisStore = (*CreatorAnalysisStore)(nil)

// Insert appends a trace.
func (s *CreatorAnalysisStore) Insert(_ context.Context, a *domain.CreatorAnalysis) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}
	k := addressKey{a.Chain, a.Address}
	if err := s.analyses.insert(k, a.AnalyzedAt, a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dk := addressKey{a.Chain, a.Deployer.Address}
	for _, existing := range s.byDeployer[dk] {
		if existing == k {
			return nil
		}
	}
	s.byDeployer[dk] = append(s.byDeployer[dk], k)
	return nil
}

// GetLatest retrieves the newest trace of an address.
func (s *CreatorAnalysisStore) GetLatest(_ context.Context, chain domain.Chain, address string) (*domain.CreatorAnalysis, error) {
	data := s.analyses.newest(addressKey{chain, address}, 1)
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return decode[domain.CreatorAnalysis](data[0])
}

// GetByDeployer retrieves every stored trace whose effective deployer is the
// given wallet, newest first.
func (s *CreatorAnalysisStore) GetByDeployer(_ context.Context, chain domain.Chain, deployer string) ([]*domain.CreatorAnalysis, error) {
	s.mu.RLock()
	keys := append([]addressKey(nil), s.byDeployer[addressKey{chain, deployer}]...)
	s.mu.RUnlock()

	var out []*domain.CreatorAnalysis
	for _, k := range keys {
		for _, data := range s.analyses.newest(k, 0) {
			a, err := decode[domain.CreatorAnalysis](data)
			if err != nil {
				return nil, err
			}
			if a.Deployer.Address == deployer {
				out = append(out, a)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnalyzedAt > out[j].AnalyzedAt
	})
	return out, nil
}

// InteractionAnalysisStore is an in-memory implementation of storage.InteractionAnalysisStore.
type InteractionAnalysisStore struct {
	analyses *history
}

// NewInteractionAnalysisStore creates a new in-memory interaction analysis store.
func NewInteractionAnalysisStore() *InteractionAnalysisStore {
	return &InteractionAnalysisStore{analyses: newHistory()}
}

// Compile-time interface check.
var _ storage.InteractionAnalysisStore = (*InteractionAnalysisStore)(nil)

// Insert appends an analysis.
func (s *InteractionAnalysisStore) Insert(_ context.Context, a *domain.InteractionAnalysis) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}
	return s.analyses.insert(addressKey{a.Chain, a.Address}, a.AnalyzedAt, a)
}

// GetLatest retrieves the newest analysis of an address.
func (s *InteractionAnalysisStore) GetLatest(_ context.Context, chain domain.Chain, address string) (*domain.InteractionAnalysis, error) {
	data := s.analyses.newest(addressKey{chain, address}, 1)
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return decode[domain.InteractionAnalysis](data[0])
}
