package domain

import "math/big"

// GraphNode is a vertex of the interaction graph, keyed by lowercase address.
type GraphNode struct {
	Address  string `json:"address"`
	Label    string `json:"label"`
	IsCenter bool   `json:"is_center"`
	IsKnown  bool   `json:"is_known"`
}

// GraphEdge aggregates every transaction from From to To.
// Count only grows while the graph is built.
type GraphEdge struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Count      int      `json:"count"`
	TotalValue *big.Int `json:"total_value"`
	TxTypes    []TxKind `json:"tx_types"` // sorted normal, internal, token
}

// PatternType names a structural pattern of the interaction graph.
type PatternType string

const (
	PatternCircularFlow      PatternType = "circular_flow"
	PatternHighConcentration PatternType = "high_concentration"
	PatternDEXActivity       PatternType = "dex_activity"
	PatternPassThrough       PatternType = "pass_through"
	PatternBurnActivity      PatternType = "burn_activity"
)

// PatternSeverity grades a detected pattern.
type PatternSeverity string

const (
	PatternInfo    PatternSeverity = "info"
	PatternWarning PatternSeverity = "warning"
)

// Pattern is derived from a graph snapshot.
type Pattern struct {
	Type        PatternType     `json:"type"`
	Severity    PatternSeverity `json:"severity"`
	Description string          `json:"description"`
	Detail      string          `json:"detail"`
}

// Counterparty is a ranked neighbour of the center address.
type Counterparty struct {
	Address          string   `json:"address"`
	Label            string   `json:"label"`
	IsKnown          bool     `json:"is_known"`
	TransactionCount int      `json:"transaction_count"`
	TotalValue       *big.Int `json:"total_value"`
	TxTypes          []TxKind `json:"tx_types"`
}

// InteractionStats summarises the fetched transaction streams.
type InteractionStats struct {
	TotalTransactions int      `json:"total_transactions"`
	NormalCount       int      `json:"normal_count"`
	InternalCount     int      `json:"internal_count"`
	TokenTransfers    int      `json:"token_transfers"`
	UniqueAddresses   int      `json:"unique_addresses"`
	TotalValueIn      *big.Int `json:"total_value_in"`
	TotalValueOut     *big.Int `json:"total_value_out"`
	EdgeCount         int      `json:"edge_count"`
}

// RiskIndicator is a graph-level risk finding.
type RiskIndicator struct {
	Level       Severity `json:"level"`
	Indicator   string   `json:"indicator"`
	Explanation string   `json:"explanation"`
}
