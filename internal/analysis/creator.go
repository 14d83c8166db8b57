package analysis

import (
	"context"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/storage"
)

// TraceCreator traces the deployer of a contract. A trace stored within
// CreatorFreshness is returned with Cached set unless refresh is true.
// A contract without a discoverable creator fails with creator.ErrCreatorNotFound.
func (s *Service) TraceCreator(ctx context.Context, c domain.Chain, address string, refresh bool) (*domain.CreatorAnalysis, error) {
	provider, addr, err := s.target(c, address)
	if err != nil {
		return nil, err
	}
	key := storage.CacheKey(domain.KindCreator, c, addr)

	if !refresh {
		var latest func(context.Context) (*domain.CreatorAnalysis, error)
		if s.stores.Creators != nil {
			latest = func(ctx context.Context) (*domain.CreatorAnalysis, error) {
				return s.stores.Creators.GetLatest(ctx, c, addr)
			}
		}
		cached := lookupFresh(ctx, s, domain.KindCreator, key, CreatorFreshness, latest,
			func(a *domain.CreatorAnalysis) int64 { return a.AnalyzedAt })
		if cached != nil {
			cached.Cached = true
			return cached, nil
		}
	}

	start := s.now()
	res, err := s.tracer.Trace(ctx, provider, c, addr)
	observability.RecordAnalysis(string(domain.KindCreator), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	observability.RecordScore(string(domain.KindCreator), res.Score.Overall)
	observability.UpdateLastSuccessfulAnalysis(res.AnalyzedAt)

	s.persistCreator(ctx, res)
	s.cache(ctx, key, res, CreatorFreshness)
	return res, nil
}

// DeployerTraces returns the stored traces of contracts deployed by deployer, newest first.
func (s *Service) DeployerTraces(ctx context.Context, c domain.Chain, deployer string) ([]*domain.CreatorAnalysis, error) {
	addr, err := domain.NormalizeAddress(deployer)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if s.stores.Creators == nil {
		return nil, nil
	}
	return s.stores.Creators.GetByDeployer(ctx, c, addr)
}
