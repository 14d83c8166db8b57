package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/storage"
)

// lookupFresh returns a stored analysis younger than window, trying the cache
// first and then the store. analyzedAt extracts the timestamp of a result.
// Lookup failures count as misses.
func lookupFresh[T any](
	ctx context.Context,
	s *Service,
	kind domain.AnalysisKind,
	key string,
	window time.Duration,
	latest func(context.Context) (*T, error),
	analyzedAt func(*T) int64,
) *T {
	cutoff := s.now().Add(-window).Unix()

	if s.stores.Cache != nil {
		raw, err := s.stores.Cache.Get(ctx, key)
		switch {
		case err == nil:
			var v T
			if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil && analyzedAt(&v) >= cutoff {
				observability.RecordCacheLookup(string(kind), true)
				return &v
			}
		case !errors.Is(err, storage.ErrNotFound):
			s.log("cache get %s: %v", key, err)
		}
	}

	if latest != nil {
		v, err := latest(ctx)
		switch {
		case err == nil && v != nil && analyzedAt(v) >= cutoff:
			observability.RecordCacheLookup(string(kind), true)
			s.cache(ctx, key, v, window-time.Duration(s.now().Unix()-analyzedAt(v))*time.Second)
			return v
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			s.log("latest %s analysis: %v", kind, err)
		}
	}

	observability.RecordCacheLookup(string(kind), false)
	return nil
}

// cache stores v under key for ttl. Failures are logged.
func (s *Service) cache(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.stores.Cache == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.log("encode cache entry %s: %v", key, err)
		return
	}
	if err := s.stores.Cache.Set(ctx, key, raw, ttl); err != nil {
		s.log("cache set %s: %v", key, err)
	}
}
