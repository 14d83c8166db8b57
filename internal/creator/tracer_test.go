package creator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"contract-risk-lab/internal/chain/stub"
	"contract-risk-lab/internal/domain"
)

const (
	day      = int64(secondsPerDay)
	testNow  = int64(1_700_000_000)
	target   = "0x00000000000000000000000000000000000000c0"
	deployer = "0x00000000000000000000000000000000000000d0"
	funder   = "0x00000000000000000000000000000000000000f0"
	tornado  = "0x910cbd523d972eb0a6f4cae4618ad62622b39dbf"
)

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

func newTestTracer(pacer *countingPacer) *Tracer {
	opts := Options{Now: func() time.Time { return time.Unix(testNow, 0) }}
	if pacer != nil {
		opts.Pacer = pacer
	}
	return NewTracer(opts)
}

func siblingAddr(i int) string {
	return fmt.Sprintf("0x%040x", 0x1000+i)
}

func fundingTx(from, to string, ts int64) domain.Transaction {
	return domain.Transaction{Hash: "0xfund", Timestamp: ts, From: from, To: to, Value: big.NewInt(1e18)}
}

func creationTx(from, contract string, ts int64) domain.Transaction {
	return domain.Transaction{Hash: "0xcreate" + contract[len(contract)-4:], Timestamp: ts, From: from, Value: big.NewInt(0), ContractAddress: contract}
}

func TestTrace_NoCreatorFails(t *testing.T) {
	p := stub.NewProvider()

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if !errors.Is(err, ErrCreatorNotFound) {
		t.Fatalf("expected ErrCreatorNotFound, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no partial result, got %+v", res)
	}
}

func TestTrace_CreatorLookupErrorFails(t *testing.T) {
	p := stub.NewProvider()
	p.Errors[stub.MethodGetCreator] = errors.New("explorer down")

	if _, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target); err == nil {
		t.Fatal("expected error")
	}
}

func TestTrace_CapsDeepSiblingChecks(t *testing.T) {
	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xtarget")

	txs := []domain.Transaction{fundingTx(funder, deployer, testNow-400*day)}
	for i := 0; i < 50; i++ {
		txs = append(txs, creationTx(deployer, siblingAddr(i), testNow-(300-int64(i))*day))
	}
	txs = append(txs, creationTx(deployer, target, testNow-100*day))
	p.AddTransactions(deployer, domain.TxNormal, txs...)

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}

	if len(res.Siblings) != 50 {
		t.Fatalf("expected 50 siblings (target excluded), got %d", len(res.Siblings))
	}

	checked, codeCalls := 0, 0
	for i, s := range res.Siblings {
		if s.Checked {
			checked++
			if i >= MaxSiblingDeepCheck {
				t.Errorf("sibling %d checked beyond the cap", i)
			}
		}
		codeCalls += p.CountFor(stub.MethodGetBytecode, s.Address)
	}
	if checked != MaxSiblingDeepCheck {
		t.Errorf("expected %d checked siblings, got %d", MaxSiblingDeepCheck, checked)
	}
	if codeCalls != MaxSiblingDeepCheck {
		t.Errorf("expected %d sibling bytecode calls, got %d", MaxSiblingDeepCheck, codeCalls)
	}
	if res.Siblings[0].Address != siblingAddr(49) {
		t.Errorf("expected newest sibling first, got %s", res.Siblings[0].Address)
	}

	sum := res.Summary
	if sum.TotalSiblings != 50 || sum.CheckedSiblings != 10 || sum.DeadSiblings != 10 || !sum.SerialDeployer {
		t.Errorf("unexpected summary: %+v", sum)
	}

	// maturity 20, history 30-15, survival 0, transparency 15, behaviour 10
	if res.Score.Overall != 60 || res.Score.RiskTier != domain.TierMedium {
		t.Errorf("unexpected score: %+v", res.Score)
	}
	if res.Tier.Recommendation == "" {
		t.Error("expected tier recommendation")
	}
}

func TestTrace_FactoryResolvedToEOA(t *testing.T) {
	factory := "0x00000000000000000000000000000000000000fa"
	eoa := "0x00000000000000000000000000000000000000ee"

	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, factory, "0xt")
	p.AddContract(factory, []byte{0x60}, eoa, "0xf")

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if res.Deployer.Address != eoa {
		t.Errorf("expected EOA deployer, got %s", res.Deployer.Address)
	}
	if res.Deployer.IsFactory || res.Summary.Factory {
		t.Error("expected factory flag cleared after one hop")
	}
	if res.Deployer.CreationTxHash != "0xt" {
		t.Errorf("expected target creation hash, got %s", res.Deployer.CreationTxHash)
	}
}

func TestTrace_FactoryChainStopsAfterOneHop(t *testing.T) {
	factory := "0x00000000000000000000000000000000000000fa"
	parentFactory := "0x00000000000000000000000000000000000000fb"

	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, factory, "0xt")
	p.AddContract(factory, []byte{0x60}, parentFactory, "0xf")
	p.AddContract(parentFactory, []byte{0x60}, "0x00000000000000000000000000000000000000ee", "0xg")

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if res.Deployer.Address != factory || !res.Deployer.IsFactory {
		t.Errorf("expected factory kept as deployer, got %s factory=%v", res.Deployer.Address, res.Deployer.IsFactory)
	}
	if n := p.CountFor(stub.MethodGetCreator, parentFactory); n != 0 {
		t.Errorf("expected no second hop, got %d creator lookups", n)
	}
}

func TestTrace_MixerFundedNewWallet(t *testing.T) {
	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xt")
	p.AddTransactions(deployer, domain.TxNormal, fundingTx(tornado, deployer, testNow-2*day-3600))
	p.Balances[deployer] = big.NewInt(5e17)
	p.Nonces[deployer] = 4

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}

	w := res.Deployer
	if w.Funding.Address != tornado || !w.Funding.IsMixer || w.Funding.Label != "Tornado Cash 10 ETH" {
		t.Errorf("unexpected funding source: %+v", w.Funding)
	}
	if w.AgeDays() != 2 || w.TotalTransactions != 4 || w.Balance.Int64() != 5e17 {
		t.Errorf("unexpected wallet profile: %+v", w)
	}

	if len(res.RedFlags) != 2 {
		t.Fatalf("expected 2 red flags, got %+v", res.RedFlags)
	}
	if res.RedFlags[0].Kind != domain.RedFlagVeryNewWallet || res.RedFlags[0].Description != "Deployer wallet is only 2 days old" {
		t.Errorf("unexpected first flag: %+v", res.RedFlags[0])
	}
	if res.RedFlags[1].Kind != domain.RedFlagMixerFunding || res.RedFlags[1].Severity != domain.SeverityCritical {
		t.Errorf("unexpected second flag: %+v", res.RedFlags[1])
	}
	if res.Score.FundingTransparency != 0 || res.Score.WalletMaturity != 0 {
		t.Errorf("unexpected score: %+v", res.Score)
	}
}

func TestTrace_NoHistory(t *testing.T) {
	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xt")

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}

	if len(res.RedFlags) != 1 || res.RedFlags[0].Kind != domain.RedFlagNoHistory {
		t.Fatalf("expected only no_history, got %+v", res.RedFlags)
	}
	if res.Deployer.WalletAgeDays != nil {
		t.Error("expected unknown wallet age")
	}
	if res.Deployer.Funding.Label != domain.UnknownLabel || res.Deployer.Funding.Address != domain.UnknownLabel {
		t.Errorf("expected unknown funding, got %+v", res.Deployer.Funding)
	}
	if res.Score.SiblingSurvival != 15 || res.Score.FundingTransparency != 5 {
		t.Errorf("unexpected score: %+v", res.Score)
	}
}

func TestTrace_SiblingHealth(t *testing.T) {
	sib := siblingAddr(1)
	name, symbol := "Rug", "RUG"

	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xt")
	p.AddContract(sib, []byte{0x60}, deployer, "0xs")
	p.Tokens[sib] = &domain.TokenProfile{Name: &name, Symbol: &symbol, Decimals: 18}
	p.AddTransactions(deployer, domain.TxNormal,
		fundingTx(funder, deployer, testNow-500*day),
		creationTx(deployer, sib, testNow-20*day),
	)
	p.AddTransactions(sib, domain.TxNormal,
		domain.Transaction{Timestamp: testNow - 19*day, From: deployer, To: sib, Input: "0xa9059cbb0000"},
		domain.Transaction{Timestamp: testNow - 10*day, From: deployer, To: "0x7a250d5630b4cf539739df2c5dacb4c659f2488d", Input: "0x02751cec0000"},
	)

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if len(res.Siblings) != 1 {
		t.Fatalf("expected 1 sibling, got %d", len(res.Siblings))
	}

	s := res.Siblings[0]
	if !s.Checked || !s.IsAlive || !s.IsActive || !s.HadLiquidityRemoval {
		t.Errorf("unexpected health: %+v", s)
	}
	if s.LifespanDays == nil || *s.LifespanDays != 10 {
		t.Errorf("expected lifespan 10, got %v", s.LifespanDays)
	}
	if s.TokenSymbol == nil || *s.TokenSymbol != "RUG" {
		t.Errorf("unexpected token symbol: %v", s.TokenSymbol)
	}
	if res.Summary.AvgSiblingLifespanDays != 10 || res.Summary.ActiveSiblings != 1 {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}
	// one drain: LP removed with lifespan < 14 days
	if res.Score.BehavioralPatterns != 8 {
		t.Errorf("expected behaviour 8, got %d", res.Score.BehavioralPatterns)
	}
	// 1/1 alive = 25, one removal -5
	if res.Score.SiblingSurvival != 20 {
		t.Errorf("expected survival 20, got %d", res.Score.SiblingSurvival)
	}
}

func TestTrace_DegradesOnSiblingFailures(t *testing.T) {
	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xt")
	p.AddTransactions(deployer, domain.TxNormal, creationTx(deployer, siblingAddr(1), testNow-5*day))
	p.Errors[stub.MethodGetTokenInfo] = errors.New("rpc down")
	p.Errors[stub.MethodGetBalance] = errors.New("rpc down")

	res, err := newTestTracer(nil).Trace(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if len(res.Errors) != 2 {
		t.Errorf("expected 2 recorded errors, got %v", res.Errors)
	}
	if res.Deployer.Balance == nil || res.Deployer.Balance.Sign() != 0 {
		t.Errorf("expected zero balance fallback, got %v", res.Deployer.Balance)
	}
}

func TestTrace_PacesExplorerCalls(t *testing.T) {
	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xt")
	p.AddTransactions(deployer, domain.TxNormal,
		fundingTx(funder, deployer, testNow-50*day),
		creationTx(deployer, siblingAddr(1), testNow-40*day),
		creationTx(deployer, siblingAddr(2), testNow-30*day),
	)

	pacer := &countingPacer{}
	if _, err := newTestTracer(pacer).Trace(context.Background(), p, domain.ChainEthereum, target); err != nil {
		t.Fatalf("Trace: %v", err)
	}

	explorerCalls := p.Count(stub.MethodGetCreator) + p.Count(stub.MethodGetTransactions)
	if pacer.waits != explorerCalls {
		t.Errorf("expected %d waits, got %d", explorerCalls, pacer.waits)
	}
}

func TestTrace_Cancelled(t *testing.T) {
	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestTracer(&countingPacer{}).Trace(ctx, p, domain.ChainEthereum, target); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestQuickCheck(t *testing.T) {
	p := stub.NewProvider()
	p.AddContract(target, []byte{0x60}, deployer, "0xt")
	p.AddTransactions(deployer, domain.TxNormal, fundingTx(funder, deployer, testNow-3*day))
	p.Nonces[deployer] = 12

	info, err := newTestTracer(nil).QuickCheck(context.Background(), p, domain.ChainEthereum, target)
	if err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
	if info.Deployer != deployer || info.WalletAgeDays != 3 || info.TransactionCount != 12 || !info.IsNewWallet {
		t.Errorf("unexpected quick info: %+v", info)
	}

	info, err = newTestTracer(nil).QuickCheck(context.Background(), stub.NewProvider(), domain.ChainEthereum, target)
	if err != nil || info != nil {
		t.Errorf("expected nil info without creator, got %+v %v", info, err)
	}
}
