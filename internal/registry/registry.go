// Package registry holds the immutable per-chain lookup tables used by the
// analyzers: explorer endpoints, known addresses, mixer addresses and
// liquidity-removal selectors. Tables are loaded once and never mutated.
package registry

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"contract-risk-lab/internal/domain"
)

//go:embed tables.yaml
var defaultTables []byte

// fileSchema is the YAML layout of a tables file.
type fileSchema struct {
	RemoveLiquiditySelectors []string               `yaml:"remove_liquidity_selectors"`
	DEXKeywords              []string               `yaml:"dex_keywords"`
	Chains                   map[string]chainSchema `yaml:"chains"`
}

type chainSchema struct {
	ChainID        int64             `yaml:"chain_id"`
	NativeSymbol   string            `yaml:"native_symbol"`
	ExplorerURL    string            `yaml:"explorer_url"`
	KnownAddresses map[string]string `yaml:"known_addresses"`
	Mixers         map[string]string `yaml:"mixers"`
}

// chainTable is the normalized, read-only form of chainSchema.
type chainTable struct {
	chainID      int64
	nativeSymbol string
	explorerURL  string
	known        map[string]string
	mixers       map[string]string
}

// Registry is a read-only set of per-chain tables. Safe for concurrent use.
type Registry struct {
	chains          map[domain.Chain]chainTable
	removeLiquidity map[string]struct{}
	dexKeywords     []string
}

// Load parses a tables file.
func Load(r io.Reader) (*Registry, error) {
	var schema fileSchema
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	reg := &Registry{
		chains:          make(map[domain.Chain]chainTable, len(schema.Chains)),
		removeLiquidity: make(map[string]struct{}, len(schema.RemoveLiquiditySelectors)),
	}

	for name, cs := range schema.Chains {
		chain, err := domain.ParseChain(name)
		if err != nil {
			return nil, fmt.Errorf("registry chain: %w", err)
		}
		reg.chains[chain] = chainTable{
			chainID:      cs.ChainID,
			nativeSymbol: cs.NativeSymbol,
			explorerURL:  cs.ExplorerURL,
			known:        lowerKeys(cs.KnownAddresses),
			mixers:       lowerKeys(cs.Mixers),
		}
	}

	for _, sel := range schema.RemoveLiquiditySelectors {
		reg.removeLiquidity[strings.ToLower(sel)] = struct{}{}
	}
	for _, kw := range schema.DEXKeywords {
		reg.dexKeywords = append(reg.dexKeywords, strings.ToLower(kw))
	}

	return reg, nil
}

// LoadFile parses a tables file from disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry built from the embedded tables.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(defaultTables))
		if err != nil {
			panic(fmt.Sprintf("embedded registry tables: %v", err))
		}
		defaultReg = reg
	})
	return defaultReg
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

// Chains returns the configured chains.
func (r *Registry) Chains() []domain.Chain {
	var out []domain.Chain
	for _, c := range domain.AllChains {
		if _, ok := r.chains[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ExplorerURL returns the Etherscan-compatible API endpoint for a chain.
func (r *Registry) ExplorerURL(c domain.Chain) string {
	return r.chains[c].explorerURL
}

// ChainID returns the EVM chain id.
func (r *Registry) ChainID(c domain.Chain) int64 {
	return r.chains[c].chainID
}

// NativeSymbol returns the ticker of the chain's native currency.
func (r *Registry) NativeSymbol(c domain.Chain) string {
	if s := r.chains[c].nativeSymbol; s != "" {
		return s
	}
	return "ETH"
}

// KnownLabel returns the directory label of an address.
func (r *Registry) KnownLabel(c domain.Chain, addr string) (string, bool) {
	label, ok := r.chains[c].known[strings.ToLower(addr)]
	return label, ok
}

// MixerLabel returns the label of a known mixer address.
func (r *Registry) MixerLabel(c domain.Chain, addr string) (string, bool) {
	label, ok := r.chains[c].mixers[strings.ToLower(addr)]
	return label, ok
}

// IsRemoveLiquiditySelector reports whether a 4-byte selector (0x-prefixed hex)
// belongs to a router remove-liquidity function.
func (r *Registry) IsRemoveLiquiditySelector(selector string) bool {
	_, ok := r.removeLiquidity[strings.ToLower(selector)]
	return ok
}

// IsDEXLabel reports whether a known-address label names an exchange.
func (r *Registry) IsDEXLabel(label string) bool {
	label = strings.ToLower(label)
	for _, kw := range r.dexKeywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}
