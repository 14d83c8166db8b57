package analysis

import (
	"context"
	"fmt"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/scanner"
	"contract-risk-lab/internal/scoring"
	"contract-risk-lab/internal/tokenomics"
)

// AnalyzeContract runs the full contract analysis: signals, tokenomics,
// scores, tier, priority issues and a quick creator check.
//
// It fails only when the address is invalid, the chain is not configured or
// no code is deployed at the address. Every other provider failure is recorded
// in Errors and the analysis continues with the empty value.
func (s *Service) AnalyzeContract(ctx context.Context, c domain.Chain, address string, progress Progress) (*domain.ContractAnalysis, error) {
	start := s.now()
	res, err := s.analyzeContract(ctx, c, address, progress)
	observability.RecordAnalysis(string(domain.KindContract), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	observability.RecordScore(string(domain.KindContract), res.Scores.Overall)
	for _, sig := range res.Signals {
		observability.RecordSignal(string(sig.Kind), string(sig.Severity))
	}
	observability.UpdateLastSuccessfulAnalysis(res.AnalyzedAt)

	s.persistContract(ctx, res)
	progress.report(StageDone, fmt.Sprintf("score %d/100", res.Scores.Overall))
	return res, nil
}

func (s *Service) analyzeContract(ctx context.Context, c domain.Chain, address string, progress Progress) (*domain.ContractAnalysis, error) {
	provider, addr, err := s.target(c, address)
	if err != nil {
		return nil, err
	}
	started := s.now()
	var errs []string

	progress.report(StageSource, "fetching verified source")
	if err := s.pace(ctx); err != nil {
		return nil, err
	}
	source, err := provider.GetSource(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, fmt.Sprintf("source: %v", err))
		source = nil
	}

	progress.report(StageBytecode, "fetching bytecode")
	code, err := provider.GetBytecode(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log("bytecode of %s failed: %v", addr, err)
		return nil, fmt.Errorf("%w: bytecode lookup failed: %v", ErrNoContractCode, err)
	}
	if len(code) == 0 {
		return nil, ErrNoContractCode
	}

	profile := domain.ContractProfile{Address: addr}
	if source != nil {
		profile = *source
		profile.Address = addr
	}
	profile.Bytecode = code

	progress.report(StageToken, "reading token metadata")
	token, err := provider.GetTokenInfo(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, fmt.Sprintf("token info: %v", err))
		token = nil
	}

	progress.report(StageSignals, "scanning source and bytecode")
	signals := s.scanner.Scan(source, code)

	var tok *domain.TokenomicsResult
	if profile.Verified && profile.SourceCode != "" {
		progress.report(StageTokenomics, "analysing tokenomics")
		r := tokenomics.Analyze(profile.SourceCode)
		tok = &r
	}

	progress.report(StageScoring, "computing scores")
	cq := scanner.CodeQuality(&profile)
	// Liquidity lock data has no provider yet, so liquidity is always unknown.
	var liquidity *domain.LiquidityInfo
	scores := scoring.Aggregate(cq, signals, tok, liquidity)

	res := &domain.ContractAnalysis{
		Address:     addr,
		Chain:       c,
		Profile:     profile,
		Token:       token,
		CodeQuality: cq,
		Signals:     signals,
		Tokenomics:  tok,
		Liquidity:   liquidity,
		Scores:      scores,
		Tier:        scoring.ContractTier(scores.RiskTier),
		Breakdown:   scoring.BreakdownLines(scores),
		Priority:    scoring.PriorityIssues(signals, tok, liquidity),
		AnalyzedAt:  started.Unix(),
	}

	progress.report(StageCreator, "checking deployer")
	info, err := s.tracer.QuickCheck(ctx, provider, c, addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log("quick creator check of %s skipped: %v", addr, err)
	}
	res.Creator = info

	if len(errs) > 0 {
		res.Errors = errs
	}
	res.DurationSeconds = s.now().Sub(started).Seconds()
	return res, nil
}

// QuickCheck reports whether address holds a contract, whether its source is
// verified and its token metadata. Nothing is scored or stored.
func (s *Service) QuickCheck(ctx context.Context, c domain.Chain, address string) (*domain.QuickCheck, error) {
	start := s.now()
	res, err := s.quickCheck(ctx, c, address)
	observability.RecordAnalysis(string(domain.KindQuick), time.Since(start).Seconds(), err)
	return res, err
}

func (s *Service) quickCheck(ctx context.Context, c domain.Chain, address string) (*domain.QuickCheck, error) {
	provider, addr, err := s.target(c, address)
	if err != nil {
		return nil, err
	}
	res := &domain.QuickCheck{Address: addr, Chain: c}

	code, err := provider.GetBytecode(ctx, addr)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	res.IsContract = err == nil && len(code) > 0
	if !res.IsContract {
		return res, nil
	}

	if err := s.pace(ctx); err != nil {
		return nil, err
	}
	source, err := provider.GetSource(ctx, addr)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	res.IsVerified = err == nil && source != nil && source.Verified

	token, err := provider.GetTokenInfo(ctx, addr)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil && token != nil && (token.Name != nil || token.Symbol != nil || token.TotalSupply != nil) {
		res.IsToken = true
		res.Token = token
	}
	return res, nil
}

func (s *Service) pace(ctx context.Context) error {
	if s.pacer == nil {
		return ctx.Err()
	}
	return s.pacer.Wait(ctx)
}
