package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain identifies an EVM network supported by the analyzers.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBSC      Chain = "bsc"
	ChainPolygon  Chain = "polygon"
	ChainArbitrum Chain = "arbitrum"
	ChainBase     Chain = "base"
	ChainOptimism Chain = "optimism"
)

// AllChains lists every supported chain in a stable order.
var AllChains = []Chain{
	ChainEthereum,
	ChainBSC,
	ChainPolygon,
	ChainArbitrum,
	ChainBase,
	ChainOptimism,
}

// ParseChain converts a user supplied name into a Chain.
// Empty input defaults to ethereum.
func ParseChain(s string) (Chain, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ChainEthereum, nil
	}
	for _, c := range AllChains {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported chain %q", s)
}

// Well-known sink addresses, lowercase.
const (
	NullAddress = "0x0000000000000000000000000000000000000000"
	DeadAddress = "0x000000000000000000000000000000000000dead"
)

// NormalizeAddress validates a hex address and returns its lowercase form.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("invalid address %q", addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// ShortenAddress renders 0x1234...abcd for display.
func ShortenAddress(addr string) string {
	if len(addr) > 10 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	}
	return addr
}
