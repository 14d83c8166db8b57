package analysis

import (
	"context"
	"errors"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/events"
	"contract-risk-lab/internal/storage"
)

// Persistence never fails an analysis: every error below is logged and dropped.

func (s *Service) persistContract(ctx context.Context, a *domain.ContractAnalysis) {
	if s.stores.Contracts != nil {
		s.stored("contract analysis", a.Address, s.stores.Contracts.Insert(ctx, a))
	}
	s.recordScore(ctx, domain.KindContract, a.Chain, a.Address, a.Scores.Overall, a.Scores.RiskTier, a.AnalyzedAt)
	s.publish(ctx, events.AnalysisCompleted{
		Kind:       domain.KindContract,
		Chain:      a.Chain,
		Address:    a.Address,
		Overall:    a.Scores.Overall,
		Tier:       a.Scores.RiskTier,
		AnalyzedAt: a.AnalyzedAt,
		Flags:      len(a.Signals),
	})
}

func (s *Service) persistCreator(ctx context.Context, a *domain.CreatorAnalysis) {
	if s.stores.Creators != nil {
		s.stored("creator analysis", a.Address, s.stores.Creators.Insert(ctx, a))
	}
	s.recordScore(ctx, domain.KindCreator, a.Chain, a.Address, a.Score.Overall, a.Score.RiskTier, a.AnalyzedAt)
	s.publish(ctx, events.AnalysisCompleted{
		Kind:       domain.KindCreator,
		Chain:      a.Chain,
		Address:    a.Address,
		Overall:    a.Score.Overall,
		Tier:       a.Score.RiskTier,
		AnalyzedAt: a.AnalyzedAt,
		Flags:      len(a.RedFlags),
	})
}

func (s *Service) persistInteraction(ctx context.Context, a *domain.InteractionAnalysis) {
	if s.stores.Interactions != nil {
		s.stored("interaction analysis", a.Address, s.stores.Interactions.Insert(ctx, a))
	}
	if s.stores.Edges != nil && len(a.Edges) > 0 {
		s.stored("edge snapshot", a.Address, s.stores.Edges.InsertBulk(ctx, a.EdgeRecords()))
	}
	s.publish(ctx, events.AnalysisCompleted{
		Kind:       domain.KindInteraction,
		Chain:      a.Chain,
		Address:    a.Address,
		AnalyzedAt: a.AnalyzedAt,
		Flags:      len(a.Patterns),
	})
}

func (s *Service) recordScore(ctx context.Context, kind domain.AnalysisKind, c domain.Chain, addr string, overall int, tier domain.RiskTier, at int64) {
	if s.stores.Scores == nil {
		return
	}
	err := s.stores.Scores.Insert(ctx, domain.ScoreRecord{
		Kind:       kind,
		Chain:      c,
		Address:    addr,
		Overall:    overall,
		Tier:       tier,
		AnalyzedAt: at,
	})
	s.stored(string(kind)+" score", addr, err)
}

func (s *Service) stored(what, addr string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrDuplicateKey):
		s.log("%s of %s already stored", what, addr)
	default:
		s.log("store %s of %s: %v", what, addr, err)
	}
}

func (s *Service) publish(ctx context.Context, e events.AnalysisCompleted) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log("publish %s event for %s: %v", e.Kind, e.Address, err)
	}
}
