package clickhouse

import (
	"context"
	"fmt"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

// ScoreHistoryStore implements storage.ScoreHistoryStore using ClickHouse.
type ScoreHistoryStore struct {
	conn *Conn
}

// NewScoreHistoryStore creates a new ScoreHistoryStore.
func NewScoreHistoryStore(conn *Conn) *ScoreHistoryStore {
	return &ScoreHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// Insert appends a score point.
func (s *ScoreHistoryStore) Insert(ctx context.Context, r domain.ScoreRecord) error {
	if r.Address == "" || r.Kind == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO score_history (kind, chain, address, overall, risk_tier, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	start := time.Now()
	err := s.conn.Exec(ctx, query,
		string(r.Kind), string(r.Chain), r.Address,
		uint8(domain.Clamp(r.Overall, 0, domain.MaxOverall)), string(r.Tier), r.AnalyzedAt,
	)
	observe("insert_score", start, err)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// GetByAddress retrieves score points within [start, end], ordered by time ASC.
func (s *ScoreHistoryStore) GetByAddress(ctx context.Context, kind domain.AnalysisKind, chain domain.Chain, address string, start, end int64) ([]domain.ScoreRecord, error) {
	query := `
		SELECT kind, chain, address, overall, risk_tier, analyzed_at
		FROM score_history
		WHERE kind = ? AND chain = ? AND address = ? AND analyzed_at >= ? AND analyzed_at <= ?
		ORDER BY analyzed_at ASC
	`

	began := time.Now()
	rows, err := s.conn.Query(ctx, query, string(kind), string(chain), address, start, end)
	observe("get_score_history", began, err)
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

func scanScores(rows chRows) ([]domain.ScoreRecord, error) {
	var out []domain.ScoreRecord

	for rows.Next() {
		var (
			r                 domain.ScoreRecord
			kind, chain, tier string
			overall           uint8
		)
		if err := rows.Scan(&kind, &chain, &r.Address, &overall, &tier, &r.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		r.Kind = domain.AnalysisKind(kind)
		r.Chain = domain.Chain(chain)
		r.Overall = int(overall)
		r.Tier = domain.RiskTier(tier)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}
	return out, nil
}
