package scoring

import "contract-risk-lab/internal/domain"

const maxHighIssues = 3

// Issue texts.
const (
	RecommendCritical      = "Do not interact until this issue has been reviewed"
	RecommendHigh          = "Review this finding before interacting"
	RecommendTokenomics    = "Review tokenomics carefully"
	IssueLiquidityUnlocked = "Liquidity is NOT locked"
	RecommendLiquidity     = "Extreme caution - developers can remove liquidity at any time"
)

// PriorityIssues picks the headline problems: every critical signal, the
// first three high signals, the first three tokenomics red flags, and an
// unlocked or unknown liquidity lock.
func PriorityIssues(signals []domain.RiskSignal, tokenomics *domain.TokenomicsResult, liquidity *domain.LiquidityInfo) []domain.PriorityIssue {
	issues := []domain.PriorityIssue{}

	for _, s := range signals {
		if s.Severity == domain.SeverityCritical {
			issues = append(issues, domain.PriorityIssue{
				Severity:       domain.SeverityCritical,
				Category:       domain.IssueSecurity,
				Issue:          s.Description,
				Recommendation: RecommendCritical,
			})
		}
	}

	high := 0
	for _, s := range signals {
		if s.Severity != domain.SeverityHigh {
			continue
		}
		if high == maxHighIssues {
			break
		}
		high++
		issues = append(issues, domain.PriorityIssue{
			Severity:       domain.SeverityHigh,
			Category:       domain.IssueSecurity,
			Issue:          s.Description,
			Recommendation: RecommendHigh,
		})
	}

	if tokenomics != nil {
		flags := tokenomics.RedFlags
		if len(flags) > maxHighIssues {
			flags = flags[:maxHighIssues]
		}
		for _, f := range flags {
			issues = append(issues, domain.PriorityIssue{
				Severity:       domain.SeverityHigh,
				Category:       domain.IssueTokenomics,
				Issue:          f,
				Recommendation: RecommendTokenomics,
			})
		}
	}

	if liquidity == nil || !liquidity.Locked {
		issues = append(issues, domain.PriorityIssue{
			Severity:       domain.SeverityCritical,
			Category:       domain.IssueLiquidity,
			Issue:          IssueLiquidityUnlocked,
			Recommendation: RecommendLiquidity,
		})
	}

	return issues
}
