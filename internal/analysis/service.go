// Package analysis wires the scanners, scorers, tracer and graph engine into
// the four analyses the service offers, and decides what is cached, stored
// and published.
//
// Each call owns its result structures; the Service holds only read-only
// configuration and is safe for concurrent use.
package analysis

import (
	"errors"
	"fmt"
	"log"
	"time"

	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/creator"
	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/events"
	"contract-risk-lab/internal/interaction"
	"contract-risk-lab/internal/registry"
	"contract-risk-lab/internal/scanner"
	"contract-risk-lab/internal/storage"
)

var (
	// ErrNoContractCode is returned when the target address has no deployed code.
	ErrNoContractCode = errors.New("no contract code found at this address")

	// ErrInvalidAddress is returned for malformed addresses.
	ErrInvalidAddress = errors.New("invalid address")
)

// Freshness windows of stored analyses. A stored result younger than its
// window is returned instead of running the analysis again.
const (
	InteractionFreshness = time.Hour
	CreatorFreshness     = 6 * time.Hour
)

// Stores groups the persistence collaborators. Nil members are skipped.
type Stores struct {
	Projects     storage.ProjectStore
	Contracts    storage.ContractAnalysisStore
	Creators     storage.CreatorAnalysisStore
	Interactions storage.InteractionAnalysisStore
	Edges        storage.EdgeStore
	Scores       storage.ScoreHistoryStore
	Cache        storage.Cache
}

// Options configures a Service.
type Options struct {
	Providers chain.Providers
	Registry  *registry.Registry
	// Pacer spaces out explorer-backed calls. Nil means no pacing.
	Pacer     chain.Pacer
	Stores    Stores
	Publisher events.Publisher
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *log.Logger
}

// Service runs analyses against the configured chains.
type Service struct {
	providers chain.Providers
	reg       *registry.Registry
	pacer     chain.Pacer
	stores    Stores
	publisher events.Publisher
	now       func() time.Time
	logger    *log.Logger

	scanner *scanner.Scanner
	tracer  *creator.Tracer
	graph   *interaction.Analyzer
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		providers: opts.Providers,
		reg:       opts.Registry,
		pacer:     opts.Pacer,
		stores:    opts.Stores,
		publisher: opts.Publisher,
		now:       opts.Now,
		logger:    opts.Logger,
		scanner:   scanner.New(),
	}
	if s.reg == nil {
		s.reg = registry.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}

	s.tracer = creator.NewTracer(creator.Options{
		Registry: s.reg,
		Pacer:    s.pacer,
		Now:      s.now,
		Logger:   s.logger,
	})
	s.graph = interaction.NewAnalyzer(interaction.Options{
		Registry: s.reg,
		Pacer:    s.pacer,
		Now:      s.now,
		Logger:   s.logger,
	})
	return s
}

// Chains returns the chains with a configured provider.
func (s *Service) Chains() []domain.Chain {
	var out []domain.Chain
	for _, c := range domain.AllChains {
		if _, ok := s.providers[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// target validates the request and resolves its provider.
func (s *Service) target(c domain.Chain, address string) (chain.DataProvider, string, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	provider, err := s.providers.Get(c)
	if err != nil {
		return nil, "", err
	}
	return provider, addr, nil
}

func (s *Service) log(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf("[analysis] "+format, args...)
	}
}
