package domain

import "math/big"

// UnknownLabel marks an unresolved funding source.
const UnknownLabel = "Unknown"

// FundingSource is the sender of the first positive-value incoming transaction.
type FundingSource struct {
	Address string `json:"address"`
	Label   string `json:"label"`
	IsMixer bool   `json:"is_mixer"`
}

// WalletProfile describes the effective deployer of a contract.
type WalletProfile struct {
	Address string `json:"address"`
	// FirstSeen is the timestamp of the earliest transaction, 0 when the wallet has no history.
	FirstSeen int64 `json:"first_seen,omitempty"`
	// WalletAgeDays is nil when the wallet has no history.
	WalletAgeDays     *int          `json:"wallet_age_days,omitempty"`
	Balance           *big.Int      `json:"balance"`
	TotalTransactions uint64        `json:"total_transactions"`
	Funding           FundingSource `json:"funding_source"`
	IsFactory         bool          `json:"is_factory"`
	CreationTxHash    string        `json:"creation_tx_hash,omitempty"`
}

// AgeDays returns the wallet age or 0 when unknown.
func (w *WalletProfile) AgeDays() int {
	if w == nil || w.WalletAgeDays == nil {
		return 0
	}
	return *w.WalletAgeDays
}

// SiblingContract is another contract created by the same deployer.
// The health fields are meaningful only when Checked is true.
type SiblingContract struct {
	Address           string `json:"address"`
	CreationTimestamp int64  `json:"creation_timestamp"`
	TxHash            string `json:"tx_hash"`

	Checked  bool `json:"checked"`
	IsAlive  bool `json:"is_alive"`
	IsActive bool `json:"is_active"`
	// LastActivity is the timestamp of the most recent transaction, 0 if none was seen.
	LastActivity int64 `json:"last_activity,omitempty"`
	// LifespanDays is nil until both creation and last activity are known.
	LifespanDays        *int    `json:"lifespan_days,omitempty"`
	TokenName           *string `json:"token_name,omitempty"`
	TokenSymbol         *string `json:"token_symbol,omitempty"`
	HadLiquidityRemoval bool    `json:"had_liquidity_removal"`
}

// RedFlagKind names a deployer funding red flag.
type RedFlagKind string

const (
	RedFlagNoHistory      RedFlagKind = "no_history"
	RedFlagBrandNewWallet RedFlagKind = "brand_new_wallet"
	RedFlagVeryNewWallet  RedFlagKind = "very_new_wallet"
	RedFlagMixerFunding   RedFlagKind = "mixer_funding"
)

// RedFlag is a funding or wallet-age finding about a deployer.
type RedFlag struct {
	Kind        RedFlagKind `json:"kind"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
}
