package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

// Analyses are stored as a JSONB payload next to the indexed summary
// columns that queries and dashboards filter on.

// ContractAnalysisStore implements storage.ContractAnalysisStore using PostgreSQL.
type ContractAnalysisStore struct {
	pool *Pool
}

// NewContractAnalysisStore creates a new ContractAnalysisStore.
func NewContractAnalysisStore(pool *Pool) *ContractAnalysisStore {
	return &ContractAnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ContractAnalysisStore = (*ContractAnalysisStore)(nil)

// Insert appends an analysis and upserts its project in one transaction.
func (s *ContractAnalysisStore) Insert(ctx context.Context, a *domain.ContractAnalysis) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal contract analysis: %w", err)
	}

	query := `
		INSERT INTO contract_analyses (
			project_id, chain, address, overall_score, risk_tier,
			code_quality_score, security_score, tokenomics_score, liquidity_score,
			verified, compiler_version, duration_seconds, payload, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	start := time.Now()
	err = s.pool.inTx(ctx, func(tx pgx.Tx) error {
		project, err := upsertProject(ctx, tx, domain.ProjectFromAnalysis(a), start.Unix())
		if err != nil {
			return fmt.Errorf("upsert project: %w", err)
		}
		_, err = tx.Exec(ctx, query,
			project.ID,
			string(a.Chain),
			a.Address,
			a.Scores.Overall,
			string(a.Scores.RiskTier),
			a.Scores.CodeQuality,
			a.Scores.Security,
			a.Scores.Tokenomics,
			a.Scores.Liquidity,
			a.Profile.Verified,
			a.Profile.CompilerVersion,
			a.DurationSeconds,
			payload,
			a.AnalyzedAt,
		)
		return err
	})
	observe("insert_contract_analysis", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert contract analysis: %w", err)
	}
	return nil
}

// GetLatest retrieves the newest analysis of an address. Returns ErrNotFound if none.
func (s *ContractAnalysisStore) GetLatest(ctx context.Context, chain domain.Chain, address string) (*domain.ContractAnalysis, error) {
	list, err := s.GetHistory(ctx, chain, address, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

// GetHistory retrieves up to limit analyses of an address, newest first.
func (s *ContractAnalysisStore) GetHistory(ctx context.Context, chain domain.Chain, address string, limit int) ([]*domain.ContractAnalysis, error) {
	query := `
		SELECT payload
		FROM contract_analyses
		WHERE chain = $1 AND address = $2
		ORDER BY analyzed_at DESC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 100
	}
	return queryPayloads[domain.ContractAnalysis](ctx, s.pool, "get_contract_analyses", query, string(chain), address, limit)
}

// CreatorAnalysisStore implements storage.CreatorAnalysisStore using PostgreSQL.
type CreatorAnalysisStore struct {
	pool *Pool
}

// NewCreatorAnalysisStore creates a new CreatorAnalysisStore.
func NewCreatorAnalysisStore(pool *Pool) *CreatorAnalysisStore {
	return &CreatorAnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CreatorAnalysisStore = (*CreatorAnalysisStore)(nil)

// Insert appends a trace. Returns ErrDuplicateKey if (chain, address, analyzed_at) exists.
func (s *CreatorAnalysisStore) Insert(ctx context.Context, a *domain.CreatorAnalysis) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal creator analysis: %w", err)
	}

	query := `
		INSERT INTO creator_analyses (
			chain, address, deployer, wallet_age_days, trust_score, risk_tier,
			total_siblings, alive_siblings, red_flag_count, payload, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		string(a.Chain),
		a.Address,
		a.Deployer.Address,
		a.Deployer.WalletAgeDays,
		a.Score.Overall,
		string(a.Score.RiskTier),
		a.Summary.TotalSiblings,
		a.Summary.AliveSiblings,
		len(a.RedFlags),
		payload,
		a.AnalyzedAt,
	)
	observe("insert_creator_analysis", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert creator analysis: %w", err)
	}
	return nil
}

// GetLatest retrieves the newest trace of an address. Returns ErrNotFound if none.
func (s *CreatorAnalysisStore) GetLatest(ctx context.Context, chain domain.Chain, address string) (*domain.CreatorAnalysis, error) {
	query := `
		SELECT payload
		FROM creator_analyses
		WHERE chain = $1 AND address = $2
		ORDER BY analyzed_at DESC
		LIMIT 1
	`
	list, err := queryPayloads[domain.CreatorAnalysis](ctx, s.pool, "get_creator_analysis", query, string(chain), address)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

// GetByDeployer retrieves traces whose effective deployer is the given wallet, newest first.
func (s *CreatorAnalysisStore) GetByDeployer(ctx context.Context, chain domain.Chain, deployer string) ([]*domain.CreatorAnalysis, error) {
	query := `
		SELECT payload
		FROM creator_analyses
		WHERE chain = $1 AND deployer = $2
		ORDER BY analyzed_at DESC
	`
	return queryPayloads[domain.CreatorAnalysis](ctx, s.pool, "get_creator_by_deployer", query, string(chain), deployer)
}

// InteractionAnalysisStore implements storage.InteractionAnalysisStore using PostgreSQL.
type InteractionAnalysisStore struct {
	pool *Pool
}

// NewInteractionAnalysisStore creates a new InteractionAnalysisStore.
func NewInteractionAnalysisStore(pool *Pool) *InteractionAnalysisStore {
	return &InteractionAnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InteractionAnalysisStore = (*InteractionAnalysisStore)(nil)

// Insert appends an analysis. Returns ErrDuplicateKey if (chain, address, analyzed_at) exists.
func (s *InteractionAnalysisStore) Insert(ctx context.Context, a *domain.InteractionAnalysis) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal interaction analysis: %w", err)
	}

	query := `
		INSERT INTO interaction_analyses (
			chain, address, total_transactions, unique_addresses,
			total_value_in, total_value_out, pattern_count, payload, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		string(a.Chain),
		a.Address,
		a.Stats.TotalTransactions,
		a.Stats.UniqueAddresses,
		numericText(a.Stats.TotalValueIn),
		numericText(a.Stats.TotalValueOut),
		len(a.Patterns),
		payload,
		a.AnalyzedAt,
	)
	observe("insert_interaction_analysis", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert interaction analysis: %w", err)
	}
	return nil
}

// GetLatest retrieves the newest analysis of an address. Returns ErrNotFound if none.
func (s *InteractionAnalysisStore) GetLatest(ctx context.Context, chain domain.Chain, address string) (*domain.InteractionAnalysis, error) {
	query := `
		SELECT payload
		FROM interaction_analyses
		WHERE chain = $1 AND address = $2
		ORDER BY analyzed_at DESC
		LIMIT 1
	`
	list, err := queryPayloads[domain.InteractionAnalysis](ctx, s.pool, "get_interaction_analysis", query, string(chain), address)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

// queryPayloads runs a query selecting a single JSONB payload column.
func queryPayloads[T any](ctx context.Context, pool *Pool, operation, query string, args ...any) ([]*T, error) {
	start := time.Now()
	rows, err := pool.Query(ctx, query, args...)
	observe(operation, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan payload: %w", err)
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payloads: %w", err)
	}
	return out, nil
}
