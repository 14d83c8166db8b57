package domain

// Fees holds extracted fee values in basis points (10,000 = 100%).
// A nil fee was not found in the source.
type Fees struct {
	BuyFee      *int `json:"buy_fee,omitempty"`
	SellFee     *int `json:"sell_fee,omitempty"`
	TransferFee *int `json:"transfer_fee,omitempty"`
	Modifiable  bool `json:"modifiable"`
}

// TokenomicsResult is the output of the tokenomics analyzer.
type TokenomicsResult struct {
	Fees                 Fees     `json:"fees"`
	BurnMechanism        bool     `json:"burn_mechanism"`
	MintMechanism        bool     `json:"mint_mechanism"`
	MintAccessControlled bool     `json:"mint_access_controlled"`
	Pausable             bool     `json:"pausable"`
	Blacklist            bool     `json:"blacklist"`
	MaxTxLimit           bool     `json:"max_tx_limit"`
	MaxTxModifiable      bool     `json:"max_tx_modifiable"`
	Cooldown             bool     `json:"cooldown"`
	RedFlags             []string `json:"red_flags"`
	Warnings             []string `json:"warnings"`
	Score                int      `json:"score"`
}
