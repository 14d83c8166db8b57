package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

// ProjectStore implements storage.ProjectStore using PostgreSQL.
type ProjectStore struct {
	pool *Pool
}

// NewProjectStore creates a new ProjectStore.
func NewProjectStore(pool *Pool) *ProjectStore {
	return &ProjectStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProjectStore = (*ProjectStore)(nil)

const upsertProjectQuery = `
	INSERT INTO projects (chain, address, name, token_name, token_symbol, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6)
	ON CONFLICT (chain, address) DO UPDATE SET
		name         = COALESCE(EXCLUDED.name, projects.name),
		token_name   = COALESCE(EXCLUDED.token_name, projects.token_name),
		token_symbol = COALESCE(EXCLUDED.token_symbol, projects.token_symbol),
		updated_at   = EXCLUDED.updated_at
	RETURNING id, chain, address, name, token_name, token_symbol, created_at, updated_at
`

// Upsert creates the project or refreshes its token fields.
func (s *ProjectStore) Upsert(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if p == nil || p.Address == "" || p.Chain == "" {
		return nil, storage.ErrInvalidInput
	}
	start := time.Now()
	out, err := upsertProject(ctx, s.pool, p, start.Unix())
	observe("upsert_project", start, err)
	if err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}
	return out, nil
}

// queryRower is satisfied by both *Pool and pgx.Tx.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func upsertProject(ctx context.Context, q queryRower, p *domain.Project, now int64) (*domain.Project, error) {
	row := q.QueryRow(ctx, upsertProjectQuery, string(p.Chain), p.Address, p.Name, p.TokenName, p.TokenSymbol, now)
	return scanProject(row)
}

// GetByAddress retrieves a project. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByAddress(ctx context.Context, chain domain.Chain, address string) (*domain.Project, error) {
	query := `
		SELECT id, chain, address, name, token_name, token_symbol, created_at, updated_at
		FROM projects
		WHERE chain = $1 AND address = $2
	`

	start := time.Now()
	p, err := scanProject(s.pool.QueryRow(ctx, query, string(chain), address))
	observe("get_project", start, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// List retrieves the most recently updated projects.
func (s *ProjectStore) List(ctx context.Context, limit int) ([]*domain.Project, error) {
	query := `
		SELECT id, chain, address, name, token_name, token_symbol, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC, id DESC
		LIMIT $1
	`
	if limit <= 0 {
		limit = 100
	}

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, limit)
	observe("list_projects", start, err)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

// scanProject scans a single row into Project.
func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p     domain.Project
		chain string
	)
	err := row.Scan(&p.ID, &chain, &p.Address, &p.Name, &p.TokenName, &p.TokenSymbol, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Chain = domain.Chain(chain)
	return &p, nil
}
