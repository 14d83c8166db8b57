package reporting

import (
	"encoding/csv"
	"math/big"
	"strings"
	"testing"

	"contract-risk-lab/internal/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func TestRenderContract(t *testing.T) {
	a := &domain.ContractAnalysis{
		Address: "0x1111111111111111111111111111111111111111",
		Chain:   domain.ChainEthereum,
		Profile: domain.ContractProfile{ContractName: "PepeToken", Verified: true},
		Token: &domain.TokenProfile{
			Name:        strPtr("Pepe"),
			Symbol:      strPtr("PEPE"),
			Decimals:    18,
			TotalSupply: new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)),
		},
		Signals: []domain.RiskSignal{
			{Kind: "hidden_mint", Severity: domain.SeverityHigh, Description: "mint | owner"},
		},
		Tokenomics: &domain.TokenomicsResult{
			Fees:     domain.Fees{BuyFee: intPtr(300), SellFee: intPtr(400)},
			RedFlags: []string{"Fees can be changed by owner"},
		},
		Scores:     domain.NewScoreBreakdown(25, 30, 10, 0),
		Priority:   []domain.PriorityIssue{{Severity: domain.SeverityHigh, Category: domain.IssueSecurity, Issue: "Owner can mint"}},
		Errors:     []string{"liquidity: unavailable"},
		AnalyzedAt: 1700000000,
	}

	out := RenderContract(a)

	for _, want := range []string{
		"# Contract Analysis: PepeToken (0x1111111111111111111111111111111111111111)",
		"**Safety score: 65/100**",
		"| Code Quality | 25/25 |",
		"| Total Supply | 1000.00 |",
		"mint \\| owner",
		"Buy fee: 3.00% | Sell fee: 4.00% | Transfer fee: -",
		"**[HIGH]** security: Owner can mint",
		"## Incomplete Data",
		"2023-11-14T22:13:20Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRenderContract_NoSignals(t *testing.T) {
	out := RenderContract(&domain.ContractAnalysis{Address: "0xabc", Chain: domain.ChainBSC})

	if !strings.Contains(out, "No risk signals detected.") {
		t.Error("expected empty signals notice")
	}
	if strings.Contains(out, "## Token") || strings.Contains(out, "## Incomplete Data") {
		t.Error("optional sections must be omitted")
	}
}

func TestRenderCreator(t *testing.T) {
	a := &domain.CreatorAnalysis{
		Address: "0x2222222222222222222222222222222222222222",
		Chain:   domain.ChainEthereum,
		Deployer: domain.WalletProfile{
			Address:       "0x3333333333333333333333333333333333333333",
			WalletAgeDays: intPtr(3),
			Balance:       big.NewInt(5e17),
			Funding:       domain.FundingSource{Address: "0x910cbd523d972eb0a6f4cae4618ad62622b39dbf", Label: "Tornado Cash", IsMixer: true},
		},
		Siblings: []domain.SiblingContract{
			{Address: "0x4444444444444444444444444444444444444444", Checked: true, IsAlive: true, LifespanDays: intPtr(12), TokenSymbol: strPtr("RUG"), CreationTimestamp: 1700000000},
			{Address: "0x5555555555555555555555555555555555555555"},
		},
		RedFlags: []domain.RedFlag{{Kind: domain.RedFlagMixerFunding, Severity: domain.SeverityCritical, Description: "Funded through a mixer"}},
		Score:    domain.NewCreatorTrustScore(2, 10, 5, 0, 5),
		Summary:  domain.CreatorSummary{TotalSiblings: 2, CheckedSiblings: 1, AliveSiblings: 1},
		Cached:   true,
	}

	out := RenderCreator(a)

	for _, want := range []string{
		"# Deployer Trace: 0x2222222222222222222222222222222222222222",
		"| cached",
		"**Creator trust score: 22/100**",
		"| Age | 3 days |",
		"| Balance | 0.5000 |",
		"Tornado Cash",
		"**[CRITICAL]** Funded through a mixer",
		"Total: 2 | Checked: 1 | Alive: 1",
		"| RUG | 2023-11-14 | yes | no | 12d | no |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, domain.ShortenAddress("0x5555555555555555555555555555555555555555")) {
		t.Error("unchecked siblings must not be listed")
	}
}

func TestRenderCreator_NoHistory(t *testing.T) {
	out := RenderCreator(&domain.CreatorAnalysis{Address: "0xabc"})
	if !strings.Contains(out, "| Age | no history |") {
		t.Error("expected no history age")
	}
}

func TestRenderInteraction(t *testing.T) {
	a := &domain.InteractionAnalysis{
		Address:     "0x6666666666666666666666666666666666666666",
		Chain:       domain.ChainPolygon,
		Stats:       domain.InteractionStats{TotalTransactions: 4, NormalCount: 3, TokenTransfers: 1, UniqueAddresses: 3, EdgeCount: 2},
		FlowSummary: "Most value flows in.",
		Patterns:    []domain.Pattern{{Type: domain.PatternDEXActivity, Severity: domain.PatternInfo, Description: "Trades on DEX", Detail: "Uniswap"}},
		TopSenders: []domain.Counterparty{
			{Address: "0x7777777777777777777777777777777777777777", Label: "Uniswap V2 Router", TransactionCount: 3, TotalValue: big.NewInt(2e18)},
		},
	}

	out := RenderInteraction(a)

	for _, want := range []string{
		"# Interaction Analysis: 0x6666666666666666666666666666666666666666",
		"Most value flows in.",
		"| Normal / Internal / Token | 3 / 0 / 1 |",
		"- **dex_activity** (info): Trades on DEX - Uniswap",
		"## Top Senders",
		"| 0x7777777777777777777777777777777777777777 | Uniswap V2 Router | 3 | 2.0000 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "## Top Receivers") {
		t.Error("empty receivers section must be omitted")
	}
}

func TestRenderCounterpartiesCSV(t *testing.T) {
	a := &domain.InteractionAnalysis{
		TopSenders: []domain.Counterparty{
			{Address: "0xa", Label: "Router, V2", IsKnown: true, TransactionCount: 2, TotalValue: big.NewInt(10), TxTypes: []domain.TxKind{domain.TxNormal, domain.TxToken}},
		},
		TopReceivers: []domain.Counterparty{
			{Address: "0xb", TransactionCount: 1},
			{Address: "0xc", TransactionCount: 1, TotalValue: big.NewInt(3)},
		},
	}

	out, err := RenderCounterpartiesCSV(a)
	if err != nil {
		t.Fatalf("RenderCounterpartiesCSV: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "direction" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if got := rows[1]; got[0] != "in" || got[3] != "Router, V2" || got[4] != "true" || got[6] != "10" || got[7] != "normal;token" {
		t.Errorf("unexpected sender row: %v", got)
	}
	if got := rows[2]; got[0] != "out" || got[1] != "1" || got[6] != "0" {
		t.Errorf("unexpected receiver row: %v", got)
	}
	if rows[3][1] != "2" {
		t.Errorf("expected rank 2, got %s", rows[3][1])
	}
}
