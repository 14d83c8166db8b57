package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
)

// EthClient is the subset of ethclient.Client used by RPCClient.
type EthClient interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const erc20ABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

var erc20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

// RPCClient reads state from an EVM JSON-RPC node.
type RPCClient struct {
	client EthClient
}

// NewRPCClient wraps an existing client.
func NewRPCClient(client EthClient) *RPCClient {
	return &RPCClient{client: client}
}

// DialRPC connects to a JSON-RPC endpoint.
func DialRPC(ctx context.Context, rawURL string) (*RPCClient, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return NewRPCClient(client), nil
}

// GetBytecode returns the runtime code at address.
func (c *RPCClient) GetBytecode(ctx context.Context, address string) ([]byte, error) {
	start := time.Now()
	code, err := c.client.CodeAt(ctx, common.HexToAddress(address), nil)
	observability.RecordRPCLatency("eth_getCode", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("eth_getCode: %w", err)
	}
	return code, nil
}

// GetBalance returns the native balance in wei.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	start := time.Now()
	bal, err := c.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	observability.RecordRPCLatency("eth_getBalance", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	return bal, nil
}

// GetTxCount returns the account nonce.
func (c *RPCClient) GetTxCount(ctx context.Context, address string) (uint64, error) {
	start := time.Now()
	nonce, err := c.client.NonceAt(ctx, common.HexToAddress(address), nil)
	observability.RecordRPCLatency("eth_getTransactionCount", time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	return nonce, nil
}

// GetTokenInfo reads ERC20 metadata. Each getter is tried independently;
// a failing getter leaves its field nil and decimals falls back to 18.
func (c *RPCClient) GetTokenInfo(ctx context.Context, address string) (*domain.TokenProfile, error) {
	to := common.HexToAddress(address)
	token := &domain.TokenProfile{Decimals: domain.DefaultTokenDecimals}

	if v, ok := c.call(ctx, to, "name").(string); ok {
		token.Name = &v
	}
	if v, ok := c.call(ctx, to, "symbol").(string); ok {
		token.Symbol = &v
	}
	if v, ok := c.call(ctx, to, "decimals").(uint8); ok {
		token.Decimals = int(v)
	}
	if v, ok := c.call(ctx, to, "totalSupply").(*big.Int); ok {
		token.TotalSupply = v
	}
	if v, ok := c.call(ctx, to, "owner").(common.Address); ok {
		owner := strings.ToLower(v.Hex())
		token.Owner = &owner
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return token, nil
}

// call invokes a no-argument ERC20 getter and returns its single output,
// or nil when the call reverts or the output does not decode.
func (c *RPCClient) call(ctx context.Context, to common.Address, method string) interface{} {
	data, err := erc20.Pack(method)
	if err != nil {
		return nil
	}

	start := time.Now()
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	observability.RecordRPCLatency("eth_call", time.Since(start).Seconds(), err)
	if err != nil || len(out) == 0 {
		return nil
	}

	values, err := erc20.Unpack(method, out)
	if err != nil || len(values) != 1 {
		return nil
	}
	return values[0]
}
