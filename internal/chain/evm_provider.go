package chain

import (
	"context"
	"fmt"
	"math/big"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/registry"
)

// EVMProvider combines an explorer client for history and verified source
// with an RPC client for live state.
type EVMProvider struct {
	explorer *ExplorerClient
	rpc      *RPCClient
}

var _ DataProvider = (*EVMProvider)(nil)

// NewEVMProvider creates a provider from its two backends.
func NewEVMProvider(explorer *ExplorerClient, rpc *RPCClient) *EVMProvider {
	return &EVMProvider{explorer: explorer, rpc: rpc}
}

// GetSource implements DataProvider.
func (p *EVMProvider) GetSource(ctx context.Context, address string) (*domain.ContractProfile, error) {
	return p.explorer.GetSource(ctx, address)
}

// GetCreator implements DataProvider.
func (p *EVMProvider) GetCreator(ctx context.Context, address string) (*domain.CreationRecord, error) {
	return p.explorer.GetCreator(ctx, address)
}

// GetTransactions implements DataProvider.
func (p *EVMProvider) GetTransactions(ctx context.Context, address string, q TxQuery) ([]domain.Transaction, error) {
	return p.explorer.GetTransactions(ctx, address, q)
}

// GetBytecode implements DataProvider.
func (p *EVMProvider) GetBytecode(ctx context.Context, address string) ([]byte, error) {
	return p.rpc.GetBytecode(ctx, address)
}

// GetTokenInfo implements DataProvider.
func (p *EVMProvider) GetTokenInfo(ctx context.Context, address string) (*domain.TokenProfile, error) {
	return p.rpc.GetTokenInfo(ctx, address)
}

// GetBalance implements DataProvider.
func (p *EVMProvider) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return p.rpc.GetBalance(ctx, address)
}

// GetTxCount implements DataProvider.
func (p *EVMProvider) GetTxCount(ctx context.Context, address string) (uint64, error) {
	return p.rpc.GetTxCount(ctx, address)
}

// Endpoint holds the connection settings of one chain.
type Endpoint struct {
	RPCURL string
	APIKey string
}

// Dial builds a provider for every chain with an RPC URL.
// Chains without an RPC URL are skipped.
func Dial(ctx context.Context, reg *registry.Registry, endpoints map[domain.Chain]Endpoint, opts ...ClientOption) (Providers, error) {
	providers := make(Providers)
	for _, c := range reg.Chains() {
		ep, ok := endpoints[c]
		if !ok || ep.RPCURL == "" {
			continue
		}
		rpc, err := DialRPC(ctx, ep.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		explorer := NewExplorerClient(reg.ExplorerURL(c), ep.APIKey, opts...)
		providers[c] = NewEVMProvider(explorer, rpc)
	}
	return providers, nil
}
