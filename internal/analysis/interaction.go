package analysis

import (
	"context"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/storage"
)

// AnalyzeInteractions builds and analyses the interaction graph of an
// address. An analysis stored within InteractionFreshness is returned with
// Cached set unless refresh is true.
func (s *Service) AnalyzeInteractions(ctx context.Context, c domain.Chain, address string, refresh bool) (*domain.InteractionAnalysis, error) {
	provider, addr, err := s.target(c, address)
	if err != nil {
		return nil, err
	}
	key := storage.CacheKey(domain.KindInteraction, c, addr)

	if !refresh {
		var latest func(context.Context) (*domain.InteractionAnalysis, error)
		if s.stores.Interactions != nil {
			latest = func(ctx context.Context) (*domain.InteractionAnalysis, error) {
				return s.stores.Interactions.GetLatest(ctx, c, addr)
			}
		}
		cached := lookupFresh(ctx, s, domain.KindInteraction, key, InteractionFreshness, latest,
			func(a *domain.InteractionAnalysis) int64 { return a.AnalyzedAt })
		if cached != nil {
			cached.Cached = true
			return cached, nil
		}
	}

	start := s.now()
	res, err := s.graph.Analyze(ctx, provider, c, addr)
	observability.RecordAnalysis(string(domain.KindInteraction), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	observability.UpdateLastSuccessfulAnalysis(res.AnalyzedAt)

	s.persistInteraction(ctx, res)
	s.cache(ctx, key, res, InteractionFreshness)
	return res, nil
}

// CounterpartyEdges returns every stored graph edge touching addr, newest first.
func (s *Service) CounterpartyEdges(ctx context.Context, c domain.Chain, address string) ([]domain.EdgeRecord, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if s.stores.Edges == nil {
		return nil, nil
	}
	return s.stores.Edges.GetByCounterparty(ctx, c, addr)
}
