package analysis

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/chain/stub"
	"contract-risk-lab/internal/creator"
	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/events"
	"contract-risk-lab/internal/storage/memory"
)

const (
	token    = "0x00000000000000000000000000000000000000c0"
	deployer = "0x00000000000000000000000000000000000000d0"
	peer     = "0x00000000000000000000000000000000000000e0"
	wallet   = "0x00000000000000000000000000000000000000f0"
	day      = int64(86400)
	testNow  = int64(1_700_000_000)
)

const tokenSource = `
pragma solidity ^0.8.20;
contract Pepe {
    uint256 public buyFee = 300;
    uint256 public sellFee = 400;
    function transfer(address to, uint256 amount) public returns (bool) {}
}
`

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	provider  *stub.Provider
	clock     *clock
	stores    Stores
	contracts *memory.ContractAnalysisStore
	creators  *memory.CreatorAnalysisStore
	edges     *memory.EdgeStore
	scores    *memory.ScoreHistoryStore
	events    *events.Recorder
	svc       *Service
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()

	p := stub.NewProvider()
	p.AddContract(token, []byte{0x60, 0x80, 0x60, 0x40}, deployer, "0xcreate")
	p.Sources[token] = &domain.ContractProfile{
		Address:          token,
		Verified:         true,
		ContractName:     "Pepe",
		CompilerVersion:  "v0.8.20+commit.a1b79de6",
		OptimizationUsed: true,
		License:          "MIT",
		SourceCode:       tokenSource,
	}
	name, symbol := "Pepe", "PEPE"
	p.Tokens[token] = &domain.TokenProfile{Name: &name, Symbol: &symbol, Decimals: 18, TotalSupply: big.NewInt(1_000_000)}
	p.Nonces[deployer] = 12
	p.Balances[deployer] = big.NewInt(5)
	p.AddTransactions(deployer, domain.TxNormal,
		domain.Transaction{Hash: "0xfund", From: peer, To: deployer, Value: big.NewInt(1e18), Timestamp: testNow - 400*day},
		domain.Transaction{Hash: "0xcreate", From: deployer, ContractAddress: token, Value: big.NewInt(0), Timestamp: testNow - 10*day},
	)
	p.AddTransactions(token, domain.TxNormal,
		domain.Transaction{From: peer, To: token, Value: big.NewInt(2)},
		domain.Transaction{From: token, To: peer, Value: big.NewInt(1)},
	)

	clk := &clock{now: time.Unix(testNow, 0)}
	projects := memory.NewProjectStore()
	f := &fixture{
		provider:  p,
		clock:     clk,
		contracts: memory.NewContractAnalysisStore(projects),
		creators:  memory.NewCreatorAnalysisStore(),
		edges:     memory.NewEdgeStore(),
		scores:    memory.NewScoreHistoryStore(),
		events:    &events.Recorder{},
	}
	f.stores = Stores{
		Projects:     projects,
		Contracts:    f.contracts,
		Creators:     f.creators,
		Interactions: memory.NewInteractionAnalysisStore(),
		Edges:        f.edges,
		Scores:       f.scores,
	}
	if withCache {
		f.stores.Cache = memory.NewCache().WithClock(clk.Now)
	}
	f.svc = New(Options{
		Providers: chain.Providers{domain.ChainEthereum: p},
		Stores:    f.stores,
		Publisher: f.events,
		Now:       clk.Now,
	})
	return f
}

func TestAnalyzeContract_FullFlow(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	var stages []Stage
	res, err := f.svc.AnalyzeContract(ctx, domain.ChainEthereum, token, func(s Stage, _ string) {
		stages = append(stages, s)
	})
	if err != nil {
		t.Fatalf("AnalyzeContract: %v", err)
	}

	sc := res.Scores
	if sc.CodeQuality != 25 {
		t.Errorf("expected code quality 25, got %d", sc.CodeQuality)
	}
	if sc.Security != 40 {
		t.Errorf("expected security 40 without signals, got %d (signals %+v)", sc.Security, res.Signals)
	}
	if sc.Liquidity != 0 {
		t.Errorf("unknown liquidity must score 0, got %d", sc.Liquidity)
	}
	if sc.Overall != sc.CodeQuality+sc.Security+sc.Tokenomics+sc.Liquidity {
		t.Errorf("overall %d is not the sum of its parts", sc.Overall)
	}
	if res.Tokenomics == nil {
		t.Fatal("verified contract must carry tokenomics")
	}
	if res.Tier.Tier != sc.RiskTier {
		t.Errorf("tier info %s disagrees with score tier %s", res.Tier.Tier, sc.RiskTier)
	}
	if len(res.Breakdown) == 0 {
		t.Error("expected breakdown lines")
	}
	if res.Creator == nil || res.Creator.Deployer != deployer {
		t.Fatalf("expected quick creator info for %s, got %+v", deployer, res.Creator)
	}
	if res.Creator.WalletAgeDays != 400 || res.Creator.IsNewWallet {
		t.Errorf("unexpected creator info %+v", res.Creator)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors %v", res.Errors)
	}

	if len(stages) == 0 || stages[len(stages)-1] != StageDone {
		t.Errorf("expected progress to end with done, got %v", stages)
	}

	stored, err := f.contracts.GetLatest(ctx, domain.ChainEthereum, token)
	if err != nil {
		t.Fatalf("stored analysis: %v", err)
	}
	if stored.Scores.Overall != sc.Overall {
		t.Errorf("stored overall %d, want %d", stored.Scores.Overall, sc.Overall)
	}

	history, err := f.svc.ScoreHistory(ctx, domain.KindContract, domain.ChainEthereum, token, 0, 0)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected 1 score point, got %d (%v)", len(history), err)
	}

	projects, err := f.svc.Projects(ctx, 10)
	if err != nil || len(projects) != 1 || *projects[0].TokenSymbol != "PEPE" {
		t.Errorf("expected PEPE project, got %+v (%v)", projects, err)
	}

	evs := f.events.Events()
	if len(evs) != 1 || evs[0].Kind != domain.KindContract || evs[0].Overall != sc.Overall {
		t.Errorf("unexpected events %+v", evs)
	}
}

func TestAnalyzeContract_NoCode(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.AnalyzeContract(context.Background(), domain.ChainEthereum, wallet, nil)
	if !errors.Is(err, ErrNoContractCode) {
		t.Fatalf("expected ErrNoContractCode, got %v", err)
	}
	if len(f.events.Events()) != 0 {
		t.Error("failed analysis must not publish")
	}
	if _, err := f.contracts.GetLatest(context.Background(), domain.ChainEthereum, wallet); err == nil {
		t.Error("failed analysis must not be stored")
	}
}

func TestAnalyzeContract_BytecodeFailureIsHard(t *testing.T) {
	f := newFixture(t, false)
	f.provider.Errors[stub.MethodGetBytecode] = errors.New("rpc down")

	_, err := f.svc.AnalyzeContract(context.Background(), domain.ChainEthereum, token, nil)
	if !errors.Is(err, ErrNoContractCode) {
		t.Fatalf("expected ErrNoContractCode, got %v", err)
	}
}

func TestAnalyzeContract_DegradesWhenSourceFails(t *testing.T) {
	f := newFixture(t, false)
	f.provider.Errors[stub.MethodGetSource] = errors.New("explorer timeout")
	f.provider.Errors[stub.MethodGetTxCount] = errors.New("rpc down")

	res, err := f.svc.AnalyzeContract(context.Background(), domain.ChainEthereum, token, nil)
	if err != nil {
		t.Fatalf("AnalyzeContract: %v", err)
	}
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "source:") {
		t.Errorf("expected source error recorded, got %v", res.Errors)
	}
	if len(res.Signals) == 0 || res.Signals[0].Kind != domain.SignalUnverifiedContract {
		t.Errorf("expected unverified signal first, got %+v", res.Signals)
	}
	if res.Tokenomics != nil {
		t.Error("unverified contract must not carry tokenomics")
	}
	if res.Scores.CodeQuality != 0 {
		t.Errorf("unverified code quality must be 0, got %d", res.Scores.CodeQuality)
	}
	if res.Creator != nil {
		t.Error("failed quick creator check must leave Creator nil")
	}
}

func TestAnalyzeContract_RejectsBadInput(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if _, err := f.svc.AnalyzeContract(ctx, domain.ChainEthereum, "0x1234", nil); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if _, err := f.svc.AnalyzeContract(ctx, domain.ChainBSC, token, nil); !errors.Is(err, chain.ErrUnsupportedChain) {
		t.Errorf("expected ErrUnsupportedChain, got %v", err)
	}
}

func TestQuickCheck(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.svc.QuickCheck(ctx, domain.ChainEthereum, token)
	if err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
	if !res.IsContract || !res.IsVerified || !res.IsToken || *res.Token.Symbol != "PEPE" {
		t.Errorf("unexpected quick check %+v", res)
	}

	res, err = f.svc.QuickCheck(ctx, domain.ChainEthereum, wallet)
	if err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
	if res.IsContract || res.IsVerified || res.IsToken {
		t.Errorf("wallet must not look like a contract: %+v", res)
	}
	if f.provider.CountFor(stub.MethodGetSource, wallet) != 0 {
		t.Error("source must not be fetched for a wallet")
	}
}

func TestTraceCreator_FreshnessWindow(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.svc.TraceCreator(ctx, domain.ChainEthereum, token, false)
	if err != nil {
		t.Fatalf("TraceCreator: %v", err)
	}
	if first.Cached {
		t.Error("first trace must not be cached")
	}

	f.clock.Advance(5 * time.Hour)
	second, err := f.svc.TraceCreator(ctx, domain.ChainEthereum, token, false)
	if err != nil {
		t.Fatalf("TraceCreator: %v", err)
	}
	if !second.Cached || second.Score.Overall != first.Score.Overall {
		t.Errorf("expected cached trace within window, got cached=%v", second.Cached)
	}
	if n := f.provider.Count(stub.MethodGetCreator); n != 1 {
		t.Errorf("expected 1 creator lookup, got %d", n)
	}

	f.clock.Advance(2 * time.Hour)
	third, err := f.svc.TraceCreator(ctx, domain.ChainEthereum, token, false)
	if err != nil {
		t.Fatalf("TraceCreator: %v", err)
	}
	if third.Cached {
		t.Error("trace older than 6h must be recomputed")
	}

	f.clock.Advance(time.Minute)
	fourth, err := f.svc.TraceCreator(ctx, domain.ChainEthereum, token, true)
	if err != nil || fourth.Cached {
		t.Errorf("refresh must bypass the cache: cached=%v err=%v", fourth != nil && fourth.Cached, err)
	}

	traces, err := f.svc.DeployerTraces(ctx, domain.ChainEthereum, deployer)
	if err != nil {
		t.Fatalf("DeployerTraces: %v", err)
	}
	if len(traces) != 3 {
		t.Errorf("expected 3 stored traces, got %d", len(traces))
	}
}

func TestTraceCreator_FallsBackToStore(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if _, err := f.svc.TraceCreator(ctx, domain.ChainEthereum, token, false); err != nil {
		t.Fatalf("TraceCreator: %v", err)
	}
	f.clock.Advance(time.Hour)

	res, err := f.svc.TraceCreator(ctx, domain.ChainEthereum, token, false)
	if err != nil {
		t.Fatalf("TraceCreator: %v", err)
	}
	if !res.Cached {
		t.Error("expected stored trace to be served")
	}
}

func TestTraceCreator_NoCreatorFails(t *testing.T) {
	f := newFixture(t, true)
	f.provider.AddContract(peer, []byte{0x60}, "", "")

	_, err := f.svc.TraceCreator(context.Background(), domain.ChainEthereum, peer, false)
	if !errors.Is(err, creator.ErrCreatorNotFound) {
		t.Fatalf("expected ErrCreatorNotFound, got %v", err)
	}
	if len(f.events.Events()) != 0 {
		t.Error("failed trace must not publish")
	}
}

func TestAnalyzeInteractions_StoresEdgesAndCaches(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.svc.AnalyzeInteractions(ctx, domain.ChainEthereum, token, false)
	if err != nil {
		t.Fatalf("AnalyzeInteractions: %v", err)
	}
	if res.Stats.EdgeCount != 2 {
		t.Fatalf("expected 2 edges, got %d", res.Stats.EdgeCount)
	}

	edges, err := f.svc.CounterpartyEdges(ctx, domain.ChainEthereum, peer)
	if err != nil || len(edges) != 2 {
		t.Fatalf("expected 2 stored edges touching peer, got %d (%v)", len(edges), err)
	}

	f.clock.Advance(59 * time.Minute)
	again, err := f.svc.AnalyzeInteractions(ctx, domain.ChainEthereum, token, false)
	if err != nil {
		t.Fatalf("AnalyzeInteractions: %v", err)
	}
	if !again.Cached {
		t.Error("expected cached analysis within 1h")
	}
	if again.Stats.TotalValueIn.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("cached value in = %s, want 2", again.Stats.TotalValueIn)
	}

	f.clock.Advance(2 * time.Minute)
	fresh, err := f.svc.AnalyzeInteractions(ctx, domain.ChainEthereum, token, false)
	if err != nil {
		t.Fatalf("AnalyzeInteractions: %v", err)
	}
	if fresh.Cached {
		t.Error("analysis older than 1h must be recomputed")
	}

	if n := len(f.events.Events()); n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}
}

type failingScores struct{}

func (failingScores) Insert(context.Context, domain.ScoreRecord) error {
	return errors.New("clickhouse unavailable")
}

func (failingScores) GetByAddress(context.Context, domain.AnalysisKind, domain.Chain, string, int64, int64) ([]domain.ScoreRecord, error) {
	return nil, errors.New("clickhouse unavailable")
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.AnalysisCompleted) error {
	return errors.New("broker down")
}

func (failingPublisher) Close() error { return nil }

func TestPersistenceFailureDoesNotFailAnalysis(t *testing.T) {
	f := newFixture(t, false)
	stores := f.stores
	stores.Scores = failingScores{}
	svc := New(Options{
		Providers: chain.Providers{domain.ChainEthereum: f.provider},
		Stores:    stores,
		Publisher: failingPublisher{},
		Now:       f.clock.Now,
	})

	if _, err := svc.AnalyzeContract(context.Background(), domain.ChainEthereum, token, nil); err != nil {
		t.Fatalf("AnalyzeContract: %v", err)
	}
	if _, err := f.contracts.GetLatest(context.Background(), domain.ChainEthereum, token); err != nil {
		t.Errorf("contract store must still receive the analysis: %v", err)
	}
}

type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

func TestAnalyzeContract_Cancelled(t *testing.T) {
	f := newFixture(t, false)
	svc := New(Options{
		Providers: chain.Providers{domain.ChainEthereum: f.provider},
		Pacer:     &countingPacer{},
		Now:       f.clock.Now,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.AnalyzeContract(ctx, domain.ChainEthereum, token, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
