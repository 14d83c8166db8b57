// Package reporting renders analysis results as Markdown and CSV.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"contract-risk-lab/internal/domain"
)

// RenderContract renders a contract analysis as Markdown.
func RenderContract(a *domain.ContractAnalysis) string {
	var sb strings.Builder

	title := a.Address
	if a.Profile.ContractName != "" {
		title = fmt.Sprintf("%s (%s)", a.Profile.ContractName, a.Address)
	}
	sb.WriteString(fmt.Sprintf("# Contract Analysis: %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Chain: %s | Analyzed: %s | Duration: %.1fs\n\n", a.Chain, formatTime(a.AnalyzedAt), a.DurationSeconds))

	sb.WriteString(fmt.Sprintf("**Safety score: %d/100** (%s risk)\n\n", a.Scores.Overall, tierLabel(a.Scores.RiskTier)))
	if a.Tier.Recommendation != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", a.Tier.Recommendation))
	}

	sb.WriteString("## Score Breakdown\n\n")
	sb.WriteString("| Component | Score |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Code Quality | %d/%d |\n", a.Scores.CodeQuality, domain.MaxCodeQuality))
	sb.WriteString(fmt.Sprintf("| Security | %d/%d |\n", a.Scores.Security, domain.MaxSecurity))
	sb.WriteString(fmt.Sprintf("| Tokenomics | %d/%d |\n", a.Scores.Tokenomics, domain.MaxTokenomics))
	sb.WriteString(fmt.Sprintf("| Liquidity | %d/%d |\n", a.Scores.Liquidity, domain.MaxLiquidity))
	sb.WriteString("\n")

	if t := a.Token; t != nil {
		sb.WriteString("## Token\n\n")
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Name | %s |\n", deref(t.Name)))
		sb.WriteString(fmt.Sprintf("| Symbol | %s |\n", deref(t.Symbol)))
		sb.WriteString(fmt.Sprintf("| Decimals | %d |\n", t.Decimals))
		if t.TotalSupply != nil {
			sb.WriteString(fmt.Sprintf("| Total Supply | %s |\n", domain.FormatUnits(t.TotalSupply, t.Decimals, 2)))
		}
		if t.Owner != nil {
			sb.WriteString(fmt.Sprintf("| Owner | %s |\n", *t.Owner))
		}
		sb.WriteString("\n")
	}

	if len(a.Priority) > 0 {
		sb.WriteString("## Priority Issues\n\n")
		for _, p := range a.Priority {
			sb.WriteString(fmt.Sprintf("- **[%s]** %s: %s\n", strings.ToUpper(string(p.Severity)), p.Category, p.Issue))
			if p.Recommendation != "" {
				sb.WriteString(fmt.Sprintf("  - %s\n", p.Recommendation))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Risk Signals\n\n")
	if len(a.Signals) == 0 {
		sb.WriteString("No risk signals detected.\n\n")
	} else {
		sb.WriteString("| Severity | Kind | Description |\n")
		sb.WriteString("|----------|------|-------------|\n")
		for _, s := range a.Signals {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", s.Severity, s.Kind, escapeCell(s.Description)))
		}
		sb.WriteString("\n")
	}

	if t := a.Tokenomics; t != nil {
		sb.WriteString("## Tokenomics\n\n")
		sb.WriteString(fmt.Sprintf("Buy fee: %s | Sell fee: %s | Transfer fee: %s | Modifiable: %s\n\n",
			bps(t.Fees.BuyFee), bps(t.Fees.SellFee), bps(t.Fees.TransferFee), yesNo(t.Fees.Modifiable)))
		writeList(&sb, "Red flags", t.RedFlags)
		writeList(&sb, "Warnings", t.Warnings)
	}

	if c := a.Creator; c != nil {
		sb.WriteString("## Deployer\n\n")
		sb.WriteString(fmt.Sprintf("%s, %d days old, %d transactions", c.Deployer, c.WalletAgeDays, c.TransactionCount))
		if c.IsNewWallet {
			sb.WriteString(" (new wallet)")
		}
		sb.WriteString("\n\n")
	}

	writeErrors(&sb, a.Errors)
	return sb.String()
}

// RenderQuickCheck renders a quick check as Markdown.
func RenderQuickCheck(q *domain.QuickCheck) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Quick Check: %s\n\n", q.Address))
	sb.WriteString("| Check | Result |\n")
	sb.WriteString("|-------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Chain | %s |\n", q.Chain))
	sb.WriteString(fmt.Sprintf("| Contract | %s |\n", yesNo(q.IsContract)))
	sb.WriteString(fmt.Sprintf("| Verified | %s |\n", yesNo(q.IsVerified)))
	sb.WriteString(fmt.Sprintf("| Token | %s |\n", yesNo(q.IsToken)))
	if q.Token != nil {
		sb.WriteString(fmt.Sprintf("| Symbol | %s |\n", deref(q.Token.Symbol)))
	}
	return sb.String()
}

// RenderCreator renders a deployer trace as Markdown.
func RenderCreator(a *domain.CreatorAnalysis) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Deployer Trace: %s\n\n", a.Address))
	sb.WriteString(fmt.Sprintf("Chain: %s | Analyzed: %s", a.Chain, formatTime(a.AnalyzedAt)))
	if a.Cached {
		sb.WriteString(" | cached")
	}
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("**Creator trust score: %d/100** (%s risk)\n\n", a.Score.Overall, tierLabel(a.Score.RiskTier)))
	if a.Tier.Recommendation != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", a.Tier.Recommendation))
	}

	sb.WriteString("## Score Breakdown\n\n")
	sb.WriteString("| Component | Score |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wallet Maturity | %d/%d |\n", a.Score.WalletMaturity, domain.MaxWalletMaturity))
	sb.WriteString(fmt.Sprintf("| Deployment History | %d/%d |\n", a.Score.DeploymentHistory, domain.MaxDeploymentHistory))
	sb.WriteString(fmt.Sprintf("| Sibling Survival | %d/%d |\n", a.Score.SiblingSurvival, domain.MaxSiblingSurvival))
	sb.WriteString(fmt.Sprintf("| Funding Transparency | %d/%d |\n", a.Score.FundingTransparency, domain.MaxFundingTransparency))
	sb.WriteString(fmt.Sprintf("| Behavioral Patterns | %d/%d |\n", a.Score.BehavioralPatterns, domain.MaxBehavioralPatterns))
	sb.WriteString("\n")

	d := a.Deployer
	sb.WriteString("## Deployer Wallet\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Address | %s |\n", d.Address))
	if d.WalletAgeDays != nil {
		sb.WriteString(fmt.Sprintf("| Age | %d days |\n", *d.WalletAgeDays))
	} else {
		sb.WriteString("| Age | no history |\n")
	}
	sb.WriteString(fmt.Sprintf("| Balance | %s |\n", domain.FormatUnits(d.Balance, domain.DefaultTokenDecimals, 4)))
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", d.TotalTransactions))
	funding := d.Funding.Label
	if d.Funding.Address != "" {
		funding = fmt.Sprintf("%s (%s)", d.Funding.Address, d.Funding.Label)
	}
	sb.WriteString(fmt.Sprintf("| Funded by | %s |\n", funding))
	sb.WriteString(fmt.Sprintf("| Factory | %s |\n", yesNo(d.IsFactory)))
	sb.WriteString("\n")

	if len(a.RedFlags) > 0 {
		sb.WriteString("## Red Flags\n\n")
		for _, f := range a.RedFlags {
			sb.WriteString(fmt.Sprintf("- **[%s]** %s\n", strings.ToUpper(string(f.Severity)), f.Description))
		}
		sb.WriteString("\n")
	}

	s := a.Summary
	sb.WriteString("## Sibling Contracts\n\n")
	sb.WriteString(fmt.Sprintf("Total: %d | Checked: %d | Alive: %d | Active: %d | Dead: %d | Avg lifespan: %.1f days\n\n",
		s.TotalSiblings, s.CheckedSiblings, s.AliveSiblings, s.ActiveSiblings, s.DeadSiblings, s.AvgSiblingLifespanDays))
	if s.SerialDeployer {
		sb.WriteString("Serial deployer.\n\n")
	}

	var checked []domain.SiblingContract
	for _, sib := range a.Siblings {
		if sib.Checked {
			checked = append(checked, sib)
		}
	}
	if len(checked) > 0 {
		sb.WriteString("| Address | Token | Created | Alive | Active | Lifespan | LP Removed |\n")
		sb.WriteString("|---------|-------|---------|-------|--------|----------|------------|\n")
		for _, sib := range checked {
			lifespan := "-"
			if sib.LifespanDays != nil {
				lifespan = fmt.Sprintf("%dd", *sib.LifespanDays)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
				domain.ShortenAddress(sib.Address), deref(sib.TokenSymbol), formatDate(sib.CreationTimestamp),
				yesNo(sib.IsAlive), yesNo(sib.IsActive), lifespan, yesNo(sib.HadLiquidityRemoval)))
		}
		sb.WriteString("\n")
	}

	writeErrors(&sb, a.Errors)
	return sb.String()
}

// RenderInteraction renders an interaction analysis as Markdown.
func RenderInteraction(a *domain.InteractionAnalysis) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Interaction Analysis: %s\n\n", a.Address))
	sb.WriteString(fmt.Sprintf("Chain: %s | Analyzed: %s", a.Chain, formatTime(a.AnalyzedAt)))
	if a.Cached {
		sb.WriteString(" | cached")
	}
	sb.WriteString("\n\n")

	sb.WriteString(a.FlowSummary)
	sb.WriteString("\n\n")

	st := a.Stats
	sb.WriteString("## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", st.TotalTransactions))
	sb.WriteString(fmt.Sprintf("| Normal / Internal / Token | %d / %d / %d |\n", st.NormalCount, st.InternalCount, st.TokenTransfers))
	sb.WriteString(fmt.Sprintf("| Unique Addresses | %d |\n", st.UniqueAddresses))
	sb.WriteString(fmt.Sprintf("| Edges | %d |\n", st.EdgeCount))
	sb.WriteString("\n")

	if len(a.Patterns) > 0 {
		sb.WriteString("## Patterns\n\n")
		for _, p := range a.Patterns {
			sb.WriteString(fmt.Sprintf("- **%s** (%s): %s", p.Type, p.Severity, p.Description))
			if p.Detail != "" {
				sb.WriteString(fmt.Sprintf(" - %s", p.Detail))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(a.RiskIndicators) > 0 {
		sb.WriteString("## Risk Indicators\n\n")
		for _, r := range a.RiskIndicators {
			sb.WriteString(fmt.Sprintf("- **[%s]** %s: %s\n", strings.ToUpper(string(r.Level)), r.Indicator, r.Explanation))
		}
		sb.WriteString("\n")
	}

	writeCounterparties(&sb, "Top Senders", a.TopSenders)
	writeCounterparties(&sb, "Top Receivers", a.TopReceivers)
	writeErrors(&sb, a.Errors)
	return sb.String()
}

func writeCounterparties(sb *strings.Builder, title string, list []domain.Counterparty) {
	if len(list) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString("| Address | Label | Txns | Value |\n")
	sb.WriteString("|---------|-------|------|-------|\n")
	for _, c := range list {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
			c.Address, escapeCell(c.Label), c.TransactionCount, domain.FormatUnits(c.TotalValue, domain.DefaultTokenDecimals, 4)))
	}
	sb.WriteString("\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("**%s:**\n\n", title))
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("- %s\n", it))
	}
	sb.WriteString("\n")
}

func writeErrors(sb *strings.Builder, errs []string) {
	if len(errs) == 0 {
		return
	}
	sb.WriteString("## Incomplete Data\n\n")
	for _, e := range errs {
		sb.WriteString(fmt.Sprintf("- %s\n", e))
	}
	sb.WriteString("\n")
}

func tierLabel(t domain.RiskTier) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func formatDate(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}

func bps(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", float64(*v)/100)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
