package stub

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/domain"
)

// Method names used as keys of Errors and call counters.
const (
	MethodGetSource       = "GetSource"
	MethodGetBytecode     = "GetBytecode"
	MethodGetTokenInfo    = "GetTokenInfo"
	MethodGetBalance      = "GetBalance"
	MethodGetTxCount      = "GetTxCount"
	MethodGetCreator      = "GetCreator"
	MethodGetTransactions = "GetTransactions"
)

// Provider implements chain.DataProvider for testing.
// Transactions are stored oldest first; queries without Ascending get them reversed.
type Provider struct {
	Sources      map[string]*domain.ContractProfile
	Bytecode     map[string][]byte
	Tokens       map[string]*domain.TokenProfile
	Balances     map[string]*big.Int
	Nonces       map[string]uint64
	Creators     map[string]*domain.CreationRecord
	Transactions map[string]map[domain.TxKind][]domain.Transaction

	// Errors makes every call of a method fail.
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]map[string]int
}

var _ chain.DataProvider = (*Provider)(nil)

// NewProvider creates a new empty stub provider.
func NewProvider() *Provider {
	return &Provider{
		Sources:      make(map[string]*domain.ContractProfile),
		Bytecode:     make(map[string][]byte),
		Tokens:       make(map[string]*domain.TokenProfile),
		Balances:     make(map[string]*big.Int),
		Nonces:       make(map[string]uint64),
		Creators:     make(map[string]*domain.CreationRecord),
		Transactions: make(map[string]map[domain.TxKind][]domain.Transaction),
		Errors:       make(map[string]error),
		calls:        make(map[string]map[string]int),
	}
}

// AddContract registers deployed code and its creator.
func (p *Provider) AddContract(address string, code []byte, deployer, txHash string) {
	address = strings.ToLower(address)
	p.Bytecode[address] = code
	if deployer != "" {
		p.Creators[address] = &domain.CreationRecord{Deployer: strings.ToLower(deployer), TxHash: txHash}
	}
}

// AddTransactions appends transactions to an address stream in chronological order.
func (p *Provider) AddTransactions(address string, kind domain.TxKind, txs ...domain.Transaction) {
	address = strings.ToLower(address)
	if p.Transactions[address] == nil {
		p.Transactions[address] = make(map[domain.TxKind][]domain.Transaction)
	}
	for _, tx := range txs {
		tx.Kind = kind
		p.Transactions[address][kind] = append(p.Transactions[address][kind], tx)
	}
}

// Count returns how many times a method was called.
func (p *Provider) Count(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls[method] {
		total += n
	}
	return total
}

// CountFor returns how many times a method was called for an address.
func (p *Provider) CountFor(method, address string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method][strings.ToLower(address)]
}

func (p *Provider) record(method, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls[method] == nil {
		p.calls[method] = make(map[string]int)
	}
	p.calls[method][strings.ToLower(address)]++
	return p.Errors[method]
}

// GetSource returns the stored source profile.
func (p *Provider) GetSource(_ context.Context, address string) (*domain.ContractProfile, error) {
	if err := p.record(MethodGetSource, address); err != nil {
		return nil, err
	}
	src, ok := p.Sources[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	cp := *src
	return &cp, nil
}

// GetBytecode returns the stored code, empty for unknown addresses.
func (p *Provider) GetBytecode(_ context.Context, address string) ([]byte, error) {
	if err := p.record(MethodGetBytecode, address); err != nil {
		return nil, err
	}
	return p.Bytecode[strings.ToLower(address)], nil
}

// GetTokenInfo returns the stored token profile.
func (p *Provider) GetTokenInfo(_ context.Context, address string) (*domain.TokenProfile, error) {
	if err := p.record(MethodGetTokenInfo, address); err != nil {
		return nil, err
	}
	tok, ok := p.Tokens[strings.ToLower(address)]
	if !ok {
		return &domain.TokenProfile{Decimals: domain.DefaultTokenDecimals}, nil
	}
	cp := *tok
	return &cp, nil
}

// GetBalance returns the stored balance, zero for unknown addresses.
func (p *Provider) GetBalance(_ context.Context, address string) (*big.Int, error) {
	if err := p.record(MethodGetBalance, address); err != nil {
		return nil, err
	}
	if bal, ok := p.Balances[strings.ToLower(address)]; ok {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

// GetTxCount returns the stored nonce.
func (p *Provider) GetTxCount(_ context.Context, address string) (uint64, error) {
	if err := p.record(MethodGetTxCount, address); err != nil {
		return 0, err
	}
	return p.Nonces[strings.ToLower(address)], nil
}

// GetCreator returns the stored creation record.
func (p *Provider) GetCreator(_ context.Context, address string) (*domain.CreationRecord, error) {
	if err := p.record(MethodGetCreator, address); err != nil {
		return nil, err
	}
	rec, ok := p.Creators[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// GetTransactions returns one page of a stored stream.
func (p *Provider) GetTransactions(_ context.Context, address string, q chain.TxQuery) ([]domain.Transaction, error) {
	if err := p.record(MethodGetTransactions, address); err != nil {
		return nil, err
	}

	stored := p.Transactions[strings.ToLower(address)][q.Kind]
	ordered := make([]domain.Transaction, len(stored))
	if q.Ascending {
		copy(ordered, stored)
	} else {
		for i, tx := range stored {
			ordered[len(stored)-1-i] = tx
		}
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 || size > chain.MaxPageSize {
		size = chain.MaxPageSize
	}
	start := (page - 1) * size
	if start >= len(ordered) {
		return []domain.Transaction{}, nil
	}
	end := start + size
	if end > len(ordered) {
		end = len(ordered)
	}
	return ordered[start:end], nil
}
