package domain

import (
	"encoding/hex"
	"math/big"
)

// DefaultTokenDecimals is assumed when a token does not expose decimals().
const DefaultTokenDecimals = 18

// ContractProfile describes the verified source and bytecode of a contract.
// Built once per analysis and never mutated afterwards.
type ContractProfile struct {
	Address          string `json:"address"`
	Verified         bool   `json:"verified"`
	ContractName     string `json:"contract_name,omitempty"`
	CompilerVersion  string `json:"compiler_version,omitempty"`
	OptimizationUsed bool   `json:"optimization_used"`
	Runs             int    `json:"runs,omitempty"`
	License          string `json:"license,omitempty"`
	Proxy            bool   `json:"proxy"`
	Implementation   string `json:"implementation,omitempty"`
	SourceCode       string `json:"-"`
	ABI              string `json:"-"`
	Bytecode         []byte `json:"-"`
}

// HasCode reports whether runtime bytecode is deployed at the address.
func (p *ContractProfile) HasCode() bool {
	return p != nil && len(p.Bytecode) > 0
}

// BytecodeHex returns the bytecode as lowercase hex without 0x prefix.
func (p *ContractProfile) BytecodeHex() string {
	if p == nil {
		return ""
	}
	return hex.EncodeToString(p.Bytecode)
}

// TokenProfile holds ERC20 metadata. Fields the token does not expose are nil.
type TokenProfile struct {
	Name     *string `json:"name,omitempty"`
	Symbol   *string `json:"symbol,omitempty"`
	Decimals int     `json:"decimals"`
	// TotalSupply is the raw integer supply; decimals are applied only for display.
	TotalSupply *big.Int `json:"total_supply,omitempty"`
	Owner       *string  `json:"owner,omitempty"`
}

// CodeQuality captures the compiler and verification facts used for scoring.
type CodeQuality struct {
	Verified         bool   `json:"verified"`
	CompilerVersion  string `json:"compiler_version,omitempty"`
	OptimizationUsed bool   `json:"optimization_used"`
	License          string `json:"license,omitempty"`
}

// LiquidityInfo describes the liquidity lock of a token's main pool.
// A nil *LiquidityInfo is treated as unlocked.
type LiquidityInfo struct {
	Locked           bool    `json:"locked"`
	LockDurationDays int     `json:"lock_duration_days"`
	LockedPercent    float64 `json:"locked_percent"`
}
