// Package creator traces the deployer of a contract and scores how much the
// wallet behind it can be trusted.
//
// A trace resolves the deployer (one factory hop at most), profiles the
// wallet, enumerates its other contract creations and deep-checks at most
// MaxSiblingDeepCheck of them, so the number of provider calls per trace is
// bounded regardless of how prolific the deployer is.
package creator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/big"
	"strings"
	"time"

	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/registry"
	"contract-risk-lab/internal/scoring"
)

// ErrCreatorNotFound is returned when a contract has no creation record.
var ErrCreatorNotFound = errors.New("could not find contract creator")

const (
	// MaxSiblingDeepCheck caps the siblings inspected per trace.
	MaxSiblingDeepCheck = 10

	// siblingHistoryPageSize is the number of recent transactions read per sibling.
	siblingHistoryPageSize = 5

	// firstTxLimit is the number of earliest deployer transactions inspected.
	firstTxLimit = 10

	// fundingTxLimit is how many of the earliest transactions may name the funder.
	fundingTxLimit = 3

	secondsPerDay  = 86400
	activeWindow   = 30 * secondsPerDay
	newWalletDays  = 7
	serialSiblings = 5
)

// Options configures a Tracer.
type Options struct {
	Registry *registry.Registry
	// Pacer delays explorer-backed calls. Nil means no pacing.
	Pacer chain.Pacer
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *log.Logger
}

// Tracer runs deployer traces. It holds no per-trace state and is safe for
// concurrent use.
type Tracer struct {
	reg    *registry.Registry
	pacer  chain.Pacer
	now    func() time.Time
	logger *log.Logger
}

// NewTracer creates a Tracer.
func NewTracer(opts Options) *Tracer {
	t := &Tracer{
		reg:    opts.Registry,
		pacer:  opts.Pacer,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if t.reg == nil {
		t.reg = registry.Default()
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// trace is the state of one Trace call.
type trace struct {
	*Tracer
	provider chain.DataProvider
	chain    domain.Chain
	now      int64
	errors   []string
}

// Trace runs a full deployer trace of a contract.
// It fails only when the contract has no discoverable creator.
func (t *Tracer) Trace(ctx context.Context, provider chain.DataProvider, c domain.Chain, address string) (*domain.CreatorAnalysis, error) {
	address = strings.ToLower(address)
	tr := &trace{Tracer: t, provider: provider, chain: c, now: t.now().Unix()}

	creation, err := tr.creator(ctx, address)
	if err != nil {
		return nil, err
	}
	if creation == nil {
		return nil, ErrCreatorNotFound
	}
	t.log("deployer of %s is %s", address, creation.Deployer)

	deployer, isFactory := tr.resolveFactory(ctx, creation.Deployer)

	first, err := tr.transactions(ctx, deployer, chain.TxQuery{Kind: domain.TxNormal, Page: 1, PageSize: firstTxLimit, Ascending: true})
	if err != nil {
		tr.fail("first transactions", err)
	}

	wallet := tr.profile(ctx, deployer, first)
	wallet.IsFactory = isFactory
	wallet.CreationTxHash = creation.TxHash

	siblings, err := tr.siblings(ctx, deployer, address)
	if err != nil {
		tr.fail("sibling enumeration", err)
	}
	t.log("found %d sibling contracts", len(siblings))

	for i := range siblings {
		if i == MaxSiblingDeepCheck {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr.checkSibling(ctx, &siblings[i])
		observability.RecordSiblingChecked()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	redFlags := tr.redFlags(first)
	for _, f := range redFlags {
		observability.RecordCreatorRedFlag(string(f.Kind))
	}

	score := Score(wallet, siblings, redFlags, tr.now)
	return &domain.CreatorAnalysis{
		Address:    address,
		Chain:      c,
		Deployer:   wallet,
		Siblings:   siblings,
		RedFlags:   redFlags,
		Score:      score,
		Tier:       scoring.CreatorTier(score.RiskTier),
		Summary:    Summarize(siblings, isFactory),
		Errors:     tr.errors,
		AnalyzedAt: tr.now,
	}, nil
}

// QuickCheck returns the deployer, its wallet age and nonce.
// Returns nil, nil when the contract has no creation record.
func (t *Tracer) QuickCheck(ctx context.Context, provider chain.DataProvider, c domain.Chain, address string) (*domain.CreatorQuickInfo, error) {
	tr := &trace{Tracer: t, provider: provider, chain: c, now: t.now().Unix()}

	creation, err := tr.creator(ctx, strings.ToLower(address))
	if err != nil || creation == nil {
		return nil, err
	}

	info := &domain.CreatorQuickInfo{Deployer: creation.Deployer}

	first, err := tr.transactions(ctx, creation.Deployer, chain.TxQuery{Kind: domain.TxNormal, Page: 1, PageSize: 1, Ascending: true})
	if err != nil {
		return nil, err
	}
	if len(first) > 0 && first[0].Timestamp > 0 {
		info.WalletAgeDays = ageDays(tr.now, first[0].Timestamp)
	}

	nonce, err := provider.GetTxCount(ctx, creation.Deployer)
	if err != nil {
		return nil, fmt.Errorf("tx count: %w", err)
	}
	info.TransactionCount = nonce
	info.IsNewWallet = info.WalletAgeDays < newWalletDays
	return info, nil
}

// resolveFactory follows one factory hop: when the deployer is a contract
// whose own creator is an externally owned account, that account is profiled
// instead. Deeper factory chains are not unwound.
func (tr *trace) resolveFactory(ctx context.Context, deployer string) (string, bool) {
	code, err := tr.provider.GetBytecode(ctx, deployer)
	if err != nil {
		tr.fail("deployer code", err)
		return deployer, false
	}
	if len(code) == 0 {
		return deployer, false
	}

	tr.log("deployer %s is a contract, tracing factory creator", deployer)
	parent, err := tr.creator(ctx, deployer)
	if err != nil {
		tr.fail("factory creator", err)
		return deployer, true
	}
	if parent == nil || parent.Deployer == "" {
		return deployer, true
	}

	parentCode, err := tr.provider.GetBytecode(ctx, parent.Deployer)
	if err != nil {
		tr.fail("factory creator code", err)
		return deployer, true
	}
	if len(parentCode) > 0 {
		return deployer, true
	}
	return parent.Deployer, false
}

// profile builds the wallet profile from the earliest transactions plus live state.
func (tr *trace) profile(ctx context.Context, deployer string, first []domain.Transaction) domain.WalletProfile {
	wallet := domain.WalletProfile{
		Address: deployer,
		Balance: new(big.Int),
		Funding: domain.FundingSource{
			Address: domain.UnknownLabel,
			Label:   domain.UnknownLabel,
		},
	}

	if len(first) > 0 && first[0].Timestamp > 0 {
		wallet.FirstSeen = first[0].Timestamp
		age := ageDays(tr.now, first[0].Timestamp)
		wallet.WalletAgeDays = &age
	}

	for i, tx := range first {
		if i == fundingTxLimit {
			break
		}
		if tx.To != deployer || tx.Value == nil || tx.Value.Sign() <= 0 {
			continue
		}
		label, isMixer := tr.reg.MixerLabel(tr.chain, tx.From)
		if !isMixer {
			label = domain.UnknownLabel
		}
		wallet.Funding = domain.FundingSource{Address: tx.From, Label: label, IsMixer: isMixer}
		break
	}

	if bal, err := tr.provider.GetBalance(ctx, deployer); err != nil {
		tr.fail("balance", err)
	} else if bal != nil {
		wallet.Balance = bal
	}

	if nonce, err := tr.provider.GetTxCount(ctx, deployer); err != nil {
		tr.fail("tx count", err)
	} else {
		wallet.TotalTransactions = nonce
	}

	return wallet
}

// siblings lists every other contract created by the deployer, newest first.
func (tr *trace) siblings(ctx context.Context, deployer, target string) ([]domain.SiblingContract, error) {
	txs, err := tr.transactions(ctx, deployer, chain.TxQuery{Kind: domain.TxNormal, Page: 1, PageSize: chain.MaxPageSize})
	if err != nil {
		return []domain.SiblingContract{}, err
	}

	siblings := []domain.SiblingContract{}
	for _, tx := range txs {
		if !tx.IsContractCreation() || tx.ContractAddress == target {
			continue
		}
		siblings = append(siblings, domain.SiblingContract{
			Address:           tx.ContractAddress,
			CreationTimestamp: tx.Timestamp,
			TxHash:            tx.Hash,
		})
	}
	return siblings, nil
}

// checkSibling fills in the health fields of a sibling.
func (tr *trace) checkSibling(ctx context.Context, s *domain.SiblingContract) {
	s.Checked = true

	code, err := tr.provider.GetBytecode(ctx, s.Address)
	if err != nil {
		tr.fail("sibling code "+s.Address, err)
	}
	s.IsAlive = len(code) > 0

	if token, err := tr.provider.GetTokenInfo(ctx, s.Address); err != nil {
		tr.fail("sibling token "+s.Address, err)
	} else if token != nil {
		s.TokenName = token.Name
		s.TokenSymbol = token.Symbol
	}

	recent, err := tr.transactions(ctx, s.Address, chain.TxQuery{Kind: domain.TxNormal, Page: 1, PageSize: siblingHistoryPageSize})
	if err != nil {
		tr.fail("sibling history "+s.Address, err)
		return
	}
	if len(recent) == 0 {
		return
	}

	if last := recent[0].Timestamp; last > 0 {
		s.LastActivity = last
		s.IsActive = tr.now-last < activeWindow
		if s.CreationTimestamp > 0 {
			days := int((last - s.CreationTimestamp) / secondsPerDay)
			if days < 0 {
				days = 0
			}
			s.LifespanDays = &days
		}
	}

	for _, tx := range recent {
		if len(tx.Input) >= 10 && tr.reg.IsRemoveLiquiditySelector(tx.Input[:10]) {
			s.HadLiquidityRemoval = true
			break
		}
	}
}

// redFlags derives funding red flags from the earliest transactions.
// An empty history short-circuits every other check.
func (tr *trace) redFlags(first []domain.Transaction) []domain.RedFlag {
	if len(first) == 0 {
		return []domain.RedFlag{{
			Kind:        domain.RedFlagNoHistory,
			Severity:    domain.SeverityHigh,
			Description: "Deployer wallet has no transaction history",
		}}
	}

	flags := []domain.RedFlag{}
	if ts := first[0].Timestamp; ts > 0 {
		age := float64(tr.now-ts) / secondsPerDay
		switch {
		case age < 1:
			flags = append(flags, domain.RedFlag{
				Kind:        domain.RedFlagBrandNewWallet,
				Severity:    domain.SeverityCritical,
				Description: "Deployer wallet was created less than 24 hours before deployment",
			})
		case age < newWalletDays:
			flags = append(flags, domain.RedFlag{
				Kind:        domain.RedFlagVeryNewWallet,
				Severity:    domain.SeverityHigh,
				Description: fmt.Sprintf("Deployer wallet is only %d days old", int(age)),
			})
		}
	}

	for _, tx := range first {
		if label, ok := tr.reg.MixerLabel(tr.chain, tx.From); ok {
			flags = append(flags, domain.RedFlag{
				Kind:        domain.RedFlagMixerFunding,
				Severity:    domain.SeverityCritical,
				Description: "Deployer funded by " + label,
			})
			break
		}
	}
	return flags
}

// creator paces and looks up a creation record.
func (tr *trace) creator(ctx context.Context, address string) (*domain.CreationRecord, error) {
	if err := tr.pace(ctx); err != nil {
		return nil, err
	}
	rec, err := tr.provider.GetCreator(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get creator: %w", err)
	}
	return rec, nil
}

// transactions paces and fetches a transaction page.
func (tr *trace) transactions(ctx context.Context, address string, q chain.TxQuery) ([]domain.Transaction, error) {
	if err := tr.pace(ctx); err != nil {
		return nil, err
	}
	return tr.provider.GetTransactions(ctx, address, q)
}

func (tr *trace) pace(ctx context.Context) error {
	if tr.pacer == nil {
		return nil
	}
	return tr.pacer.Wait(ctx)
}

func (tr *trace) fail(step string, err error) {
	tr.errors = append(tr.errors, fmt.Sprintf("%s: %v", step, err))
	tr.log("%s failed: %v", step, err)
}

func (t *Tracer) log(format string, args ...interface{}) {
	if t.logger != nil {
		t.logger.Printf("[creator] "+format, args...)
	}
}

// Summarize aggregates sibling health. Health counts cover checked siblings only.
func Summarize(siblings []domain.SiblingContract, isFactory bool) domain.CreatorSummary {
	sum := domain.CreatorSummary{
		TotalSiblings:  len(siblings),
		SerialDeployer: len(siblings) > serialSiblings,
		Factory:        isFactory,
	}

	for _, s := range siblings {
		if !s.Checked {
			continue
		}
		sum.CheckedSiblings++
		if s.IsAlive {
			sum.AliveSiblings++
		}
		if s.IsActive {
			sum.ActiveSiblings++
		}
	}
	sum.DeadSiblings = sum.CheckedSiblings - sum.AliveSiblings

	if mean, ok := meanLifespan(siblings); ok {
		sum.AvgSiblingLifespanDays = math.Round(mean*10) / 10
	}
	return sum
}

func ageDays(now, ts int64) int {
	return int((now - ts) / secondsPerDay)
}
