package interaction

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/registry"
)

const (
	// DefaultMaxTransactions is the page size fetched per stream.
	DefaultMaxTransactions = 200
	// DefaultDisplayNodes is the size of the reduced display node set.
	DefaultDisplayNodes = 25
	// TopCounterpartyLimit is the length of the sender and receiver rankings.
	TopCounterpartyLimit = 5

	summaryDigits = 4
)

// Options configures an Analyzer.
type Options struct {
	Registry *registry.Registry
	// Pacer delays every stream fetch. Nil means no pacing.
	Pacer           chain.Pacer
	MaxTransactions int
	DisplayNodes    int
	CycleBudget     int
	Now             func() time.Time
	Logger          *log.Logger
}

// Analyzer fetches the transaction streams of an address and analyses the
// resulting graph. It is safe for concurrent use.
type Analyzer struct {
	reg          *registry.Registry
	pacer        chain.Pacer
	maxTxs       int
	displayNodes int
	cycleBudget  int
	now          func() time.Time
	logger       *log.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	a := &Analyzer{
		reg:          opts.Registry,
		pacer:        opts.Pacer,
		maxTxs:       opts.MaxTransactions,
		displayNodes: opts.DisplayNodes,
		cycleBudget:  opts.CycleBudget,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if a.reg == nil {
		a.reg = registry.Default()
	}
	if a.maxTxs <= 0 {
		a.maxTxs = DefaultMaxTransactions
	}
	if a.displayNodes <= 0 {
		a.displayNodes = DefaultDisplayNodes
	}
	if a.cycleBudget <= 0 {
		a.cycleBudget = DefaultCycleBudget
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Analyze fetches the normal, internal and token streams of address and
// analyses them. A failed stream is recorded in Errors and treated as empty.
func (a *Analyzer) Analyze(ctx context.Context, provider chain.DataProvider, c domain.Chain, address string) (*domain.InteractionAnalysis, error) {
	address = strings.ToLower(address)

	var (
		streams = make(map[domain.TxKind][]domain.Transaction, 3)
		errs    []string
	)
	for _, kind := range []domain.TxKind{domain.TxNormal, domain.TxInternal, domain.TxToken} {
		if a.pacer != nil {
			if err := a.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}
		txs, err := provider.GetTransactions(ctx, address, chain.TxQuery{Kind: kind, Page: 1, PageSize: a.maxTxs})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			errs = append(errs, fmt.Sprintf("%s transactions: %v", kind, err))
			a.log("%s transactions of %s failed: %v", kind, address, err)
			continue
		}
		streams[kind] = txs
	}

	res := a.Assemble(c, address, streams[domain.TxNormal], streams[domain.TxInternal], streams[domain.TxToken])
	res.Errors = errs
	return res, nil
}

// Assemble builds and analyses the graph of already fetched streams.
func (a *Analyzer) Assemble(c domain.Chain, address string, normal, internal, token []domain.Transaction) *domain.InteractionAnalysis {
	address = strings.ToLower(address)
	label := func(addr string) (string, bool) { return a.reg.KnownLabel(c, addr) }

	g, stats := Build(address, label, normal, internal, token)
	cycles := g.ShortCycles(a.cycleBudget)
	observability.RecordGraph(g.NodeCount(), cycles.Count, cycles.Aborted)
	if cycles.Aborted {
		a.log("cycle search on %s stopped after %d visits", address, a.cycleBudget)
	}

	patterns := DetectPatterns(g, cycles, a.reg.IsDEXLabel)
	senders := TopCounterparties(g, Incoming, TopCounterpartyLimit)
	receivers := TopCounterparties(g, Outgoing, TopCounterpartyLimit)

	return &domain.InteractionAnalysis{
		Address:        address,
		Chain:          c,
		Stats:          stats,
		Nodes:          g.Nodes(),
		Edges:          g.Edges(),
		DisplayNodes:   DisplayNodes(g, a.displayNodes),
		TopSenders:     senders,
		TopReceivers:   receivers,
		Patterns:       patterns,
		RiskIndicators: RiskIndicators(stats, patterns),
		FlowSummary:    FlowSummary(stats, senders, receivers, a.reg.NativeSymbol(c)),
		AnalyzedAt:     a.now().Unix(),
	}
}

func (a *Analyzer) log(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Printf("[interaction] "+format, args...)
	}
}

// Build merges the three streams into a graph around center and tallies
// their stats. Native value moved in and out of the center counts the
// normal and internal streams.
func Build(center string, label Labeler, normal, internal, token []domain.Transaction) (*Graph, domain.InteractionStats) {
	g := NewGraph(center, label)
	stats := domain.InteractionStats{
		TotalTransactions: len(normal) + len(internal) + len(token),
		NormalCount:       len(normal),
		TotalValueIn:      new(big.Int),
		TotalValueOut:     new(big.Int),
	}

	add := func(kind domain.TxKind, txs []domain.Transaction) int {
		added := 0
		for _, tx := range txs {
			tx.Kind = kind
			if !g.Add(tx) {
				continue
			}
			added++
			if kind == domain.TxToken || tx.Value == nil {
				continue
			}
			if strings.EqualFold(tx.To, g.center) {
				stats.TotalValueIn.Add(stats.TotalValueIn, tx.Value)
			}
			if strings.EqualFold(tx.From, g.center) {
				stats.TotalValueOut.Add(stats.TotalValueOut, tx.Value)
			}
		}
		return added
	}

	add(domain.TxNormal, normal)
	stats.InternalCount = add(domain.TxInternal, internal)
	stats.TokenTransfers = add(domain.TxToken, token)

	stats.UniqueAddresses = g.endpointCount()
	stats.EdgeCount = g.EdgeCount()
	return g, stats
}

// FlowSummary renders a one-line description of the fund flow.
func FlowSummary(stats domain.InteractionStats, senders, receivers []domain.Counterparty, symbol string) string {
	parts := []string{fmt.Sprintf("%d total transactions with %d unique addresses.", stats.TotalTransactions, stats.UniqueAddresses)}

	if stats.TotalValueIn != nil && stats.TotalValueIn.Sign() > 0 {
		parts = append(parts, fmt.Sprintf("Total inflow: %s %s", domain.FormatUnits(stats.TotalValueIn, domain.DefaultTokenDecimals, summaryDigits), symbol))
	}
	if stats.TotalValueOut != nil && stats.TotalValueOut.Sign() > 0 {
		parts = append(parts, fmt.Sprintf("Total outflow: %s %s", domain.FormatUnits(stats.TotalValueOut, domain.DefaultTokenDecimals, summaryDigits), symbol))
	}
	if len(senders) > 0 {
		parts = append(parts, fmt.Sprintf("Top sender: %s (%d txns)", senders[0].Label, senders[0].TransactionCount))
	}
	if len(receivers) > 0 {
		parts = append(parts, fmt.Sprintf("Top receiver: %s (%d txns)", receivers[0].Label, receivers[0].TransactionCount))
	}
	return strings.Join(parts, " | ")
}
