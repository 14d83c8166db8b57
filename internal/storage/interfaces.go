package storage

import (
	"context"
	"fmt"
	"time"

	"contract-risk-lab/internal/domain"
)

// ProjectStore provides access to projects storage.
type ProjectStore interface {
	// Upsert creates the project for (chain, address) or refreshes its token fields.
	// Returns the stored project with its ID.
	Upsert(ctx context.Context, p *domain.Project) (*domain.Project, error)

	// GetByAddress retrieves a project. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, chain domain.Chain, address string) (*domain.Project, error)

	// List retrieves the most recently updated projects.
	List(ctx context.Context, limit int) ([]*domain.Project, error)
}

// ContractAnalysisStore provides access to contract_analyses storage.
type ContractAnalysisStore interface {
	// Insert appends an analysis and upserts its project.
	// Returns ErrDuplicateKey if (chain, address, analyzed_at) exists.
	Insert(ctx context.Context, a *domain.ContractAnalysis) error

	// GetLatest retrieves the newest analysis of an address. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, chain domain.Chain, address string) (*domain.ContractAnalysis, error)

	// GetHistory retrieves up to limit analyses of an address, newest first.
	GetHistory(ctx context.Context, chain domain.Chain, address string, limit int) ([]*domain.ContractAnalysis, error)
}

// CreatorAnalysisStore provides access to creator_analyses storage.
type CreatorAnalysisStore interface {
	// Insert appends a trace. Returns ErrDuplicateKey if (chain, address, analyzed_at) exists.
	Insert(ctx context.Context, a *domain.CreatorAnalysis) error

	// GetLatest retrieves the newest trace of an address. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, chain domain.Chain, address string) (*domain.CreatorAnalysis, error)

	// GetByDeployer retrieves traces whose effective deployer is the given wallet, newest first.
	GetByDeployer(ctx context.Context, chain domain.Chain, deployer string) ([]*domain.CreatorAnalysis, error)
}

// InteractionAnalysisStore provides access to interaction_analyses storage.
type InteractionAnalysisStore interface {
	// Insert appends an analysis. Returns ErrDuplicateKey if (chain, address, analyzed_at) exists.
	Insert(ctx context.Context, a *domain.InteractionAnalysis) error

	// GetLatest retrieves the newest analysis of an address. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, chain domain.Chain, address string) (*domain.InteractionAnalysis, error)
}

// EdgeStore provides access to interaction_edges storage.
type EdgeStore interface {
	// InsertBulk appends edge records. Fails entire batch on duplicate
	// (chain, center, analyzed_at, from, to).
	InsertBulk(ctx context.Context, edges []domain.EdgeRecord) error

	// GetSnapshot retrieves the edges of one analysis, ordered by count DESC.
	GetSnapshot(ctx context.Context, chain domain.Chain, center string, analyzedAt int64) ([]domain.EdgeRecord, error)

	// GetByCounterparty retrieves every edge touching addr across all centers, newest first.
	GetByCounterparty(ctx context.Context, chain domain.Chain, addr string) ([]domain.EdgeRecord, error)
}

// ScoreHistoryStore provides access to score_history storage.
type ScoreHistoryStore interface {
	// Insert appends a score point.
	Insert(ctx context.Context, r domain.ScoreRecord) error

	// GetByAddress retrieves score points of an address and kind within [start, end], ordered by time ASC.
	GetByAddress(ctx context.Context, kind domain.AnalysisKind, chain domain.Chain, address string, start, end int64) ([]domain.ScoreRecord, error)
}

// Cache is a TTL key/value cache for serialized analyses.
type Cache interface {
	// Get returns the value under key. Returns ErrNotFound on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheKey builds the cache key of an analysis.
func CacheKey(kind domain.AnalysisKind, chain domain.Chain, address string) string {
	return fmt.Sprintf("analysis:%s:%s:%s", kind, chain, address)
}
