package domain

import "math/big"

// AnalysisKind names the kind of an analysis run.
type AnalysisKind string

const (
	KindContract    AnalysisKind = "contract"
	KindQuick       AnalysisKind = "quick"
	KindCreator     AnalysisKind = "creator"
	KindInteraction AnalysisKind = "interaction"
)

// Project is a tracked contract address, created on its first stored analysis.
type Project struct {
	ID          int64   `json:"id"`
	Chain       Chain   `json:"chain"`
	Address     string  `json:"address"`
	Name        *string `json:"name,omitempty"`
	TokenName   *string `json:"token_name,omitempty"`
	TokenSymbol *string `json:"token_symbol,omitempty"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// EdgeRecord is one interaction graph edge as of an analysis.
type EdgeRecord struct {
	Chain      Chain    `json:"chain"`
	Center     string   `json:"center"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Count      int      `json:"count"`
	TotalValue *big.Int `json:"total_value"`
	TxTypes    []TxKind `json:"tx_types"`
	AnalyzedAt int64    `json:"analyzed_at"`
}

// ScoreRecord is one point of the score history of an address.
type ScoreRecord struct {
	Kind       AnalysisKind `json:"kind"`
	Chain      Chain        `json:"chain"`
	Address    string       `json:"address"`
	Overall    int          `json:"overall"`
	Tier       RiskTier     `json:"risk_tier"`
	AnalyzedAt int64        `json:"analyzed_at"`
}

// EdgeRecords flattens the edges of an interaction analysis.
func (a *InteractionAnalysis) EdgeRecords() []EdgeRecord {
	out := make([]EdgeRecord, 0, len(a.Edges))
	for _, e := range a.Edges {
		out = append(out, EdgeRecord{
			Chain:      a.Chain,
			Center:     a.Address,
			From:       e.From,
			To:         e.To,
			Count:      e.Count,
			TotalValue: e.TotalValue,
			TxTypes:    e.TxTypes,
			AnalyzedAt: a.AnalyzedAt,
		})
	}
	return out
}

// ProjectFromAnalysis derives the project fields of a contract analysis.
func ProjectFromAnalysis(a *ContractAnalysis) *Project {
	p := &Project{Chain: a.Chain, Address: a.Address}
	if name := a.Profile.ContractName; name != "" {
		p.Name = &name
	}
	if a.Token != nil {
		p.TokenName = a.Token.Name
		p.TokenSymbol = a.Token.Symbol
	}
	return p
}
