package analysis

import (
	"context"

	"contract-risk-lab/internal/domain"
)

// ScoreHistory returns the stored scores of an address within [start, end], oldest first.
func (s *Service) ScoreHistory(ctx context.Context, kind domain.AnalysisKind, c domain.Chain, address string, start, end int64) ([]domain.ScoreRecord, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if s.stores.Scores == nil {
		return nil, nil
	}
	if end <= 0 {
		end = s.now().Unix()
	}
	return s.stores.Scores.GetByAddress(ctx, kind, c, addr, start, end)
}

// ContractHistory returns up to limit stored contract analyses, newest first.
func (s *Service) ContractHistory(ctx context.Context, c domain.Chain, address string, limit int) ([]*domain.ContractAnalysis, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if s.stores.Contracts == nil {
		return nil, nil
	}
	return s.stores.Contracts.GetHistory(ctx, c, addr, limit)
}

// Projects returns the most recently analysed projects.
func (s *Service) Projects(ctx context.Context, limit int) ([]*domain.Project, error) {
	if s.stores.Projects == nil {
		return nil, nil
	}
	return s.stores.Projects.List(ctx, limit)
}
