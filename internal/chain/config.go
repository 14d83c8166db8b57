package chain

import (
	"strings"
	"time"

	"golang.org/x/time/rate"

	"contract-risk-lab/internal/domain"
)

// DefaultPacing is the delay between explorer-backed calls. It keeps a free
// explorer key under its per-second quota.
const DefaultPacing = 300 * time.Millisecond

// NewPacer returns a limiter that releases one call per interval.
// A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// EndpointsFromEnv reads <CHAIN>_RPC_URL and <CHAIN>_EXPLORER_API_KEY for
// every supported chain. Chains with neither variable set are omitted.
func EndpointsFromEnv(getenv func(string) string) map[domain.Chain]Endpoint {
	out := make(map[domain.Chain]Endpoint)
	for _, c := range domain.AllChains {
		prefix := strings.ToUpper(string(c))
		ep := Endpoint{
			RPCURL: strings.TrimSpace(getenv(prefix + "_RPC_URL")),
			APIKey: strings.TrimSpace(getenv(prefix + "_EXPLORER_API_KEY")),
		}
		if ep.RPCURL == "" && ep.APIKey == "" {
			continue
		}
		out[c] = ep
	}
	return out
}
