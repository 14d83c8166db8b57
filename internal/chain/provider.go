package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"contract-risk-lab/internal/domain"
)

var (
	// ErrNotFound is returned when the explorer has no record for a query.
	ErrNotFound = errors.New("not found")

	// ErrNoAPIKey is returned by explorer actions that require an API key.
	ErrNoAPIKey = errors.New("explorer api key not configured")

	// ErrUnsupportedChain is returned when no provider is configured for a chain.
	ErrUnsupportedChain = errors.New("unsupported chain")
)

// Explorer page size limit.
const MaxPageSize = 10000

// TxQuery selects one page of a transaction stream.
type TxQuery struct {
	Kind      domain.TxKind
	Page      int  // 1-based
	PageSize  int  // capped at MaxPageSize
	Ascending bool // oldest first; default is newest first
}

// DataProvider fetches chain data for one chain.
type DataProvider interface {
	// GetSource returns the verified source profile.
	// Returns nil, nil when the contract is not verified.
	GetSource(ctx context.Context, address string) (*domain.ContractProfile, error)

	// GetBytecode returns the deployed runtime code, empty for wallets.
	GetBytecode(ctx context.Context, address string) ([]byte, error)

	// GetTokenInfo reads ERC20 metadata. Missing fields are left nil.
	GetTokenInfo(ctx context.Context, address string) (*domain.TokenProfile, error)

	// GetBalance returns the native balance in wei.
	GetBalance(ctx context.Context, address string) (*big.Int, error)

	// GetTxCount returns the account nonce.
	GetTxCount(ctx context.Context, address string) (uint64, error)

	// GetCreator returns the deployer of a contract.
	// Returns nil, nil when no creation record exists.
	GetCreator(ctx context.Context, address string) (*domain.CreationRecord, error)

	// GetTransactions returns one page of a transaction stream.
	GetTransactions(ctx context.Context, address string, q TxQuery) ([]domain.Transaction, error)
}

// Pacer spaces out explorer-backed calls. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Providers maps each configured chain to its provider.
type Providers map[domain.Chain]DataProvider

// Get returns the provider for a chain.
func (p Providers) Get(c domain.Chain) (DataProvider, error) {
	dp, ok := p[c]
	if !ok || dp == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, c)
	}
	return dp, nil
}
