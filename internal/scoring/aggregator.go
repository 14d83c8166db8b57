// Package scoring combines code quality, security, tokenomics and liquidity
// findings into a bounded 0..100 contract score with a risk tier.
//
// Every function here is total: missing inputs score as their documented
// default and nothing returns an error.
package scoring

import (
	"fmt"
	"regexp"
	"strconv"

	"contract-risk-lab/internal/domain"
)

// Security deductions by severity.
var severityDeduction = map[domain.Severity]int{
	domain.SeverityCritical: 15,
	domain.SeverityHigh:     10,
	domain.SeverityMedium:   5,
	domain.SeverityLow:      2,
}

// Extra flat deductions by signal kind, applied once if any such signal exists.
const (
	reentrancyPenalty = 5
	honeypotPenalty   = 10
)

var compilerVersionRe = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)`)

// CodeQualityScore scores verification and compiler facts out of 25.
// Unverified contracts score 0.
func CodeQualityScore(cq domain.CodeQuality) int {
	if !cq.Verified {
		return 0
	}

	score := 10
	if m := compilerVersionRe.FindStringSubmatch(cq.CompilerVersion); m != nil {
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		switch {
		case major == 0 && minor >= 8:
			score += 5
		case major == 0 && minor >= 6:
			score += 3
		}
	}
	if cq.OptimizationUsed {
		score += 5
	}
	if cq.License != "" && cq.License != "None" {
		score += 5
	}
	return domain.Clamp(score, 0, domain.MaxCodeQuality)
}

// SecurityScore starts at 40 and deducts per signal severity, with extra
// penalties for reentrancy and honeypot findings. An empty list is always 40.
func SecurityScore(signals []domain.RiskSignal) int {
	if len(signals) == 0 {
		return domain.MaxSecurity
	}

	score := domain.MaxSecurity
	var reentrancy, honeypot bool
	for _, s := range signals {
		score -= severityDeduction[s.Severity]
		switch s.Kind {
		case domain.SignalReentrancy:
			reentrancy = true
		case domain.SignalHoneypotPattern:
			honeypot = true
		}
	}
	if reentrancy {
		score -= reentrancyPenalty
	}
	if honeypot {
		score -= honeypotPenalty
	}
	return domain.Clamp(score, 0, domain.MaxSecurity)
}

// TokenomicsScore returns the analyzer score, or 0 when tokenomics were not analyzed.
func TokenomicsScore(t *domain.TokenomicsResult) int {
	if t == nil {
		return 0
	}
	return domain.Clamp(t.Score, 0, domain.MaxTokenomics)
}

// LiquidityScore scores a liquidity lock out of 15. Unknown or unlocked liquidity scores 0.
func LiquidityScore(l *domain.LiquidityInfo) int {
	if l == nil || !l.Locked {
		return 0
	}

	score := 10
	switch {
	case l.LockDurationDays >= 365:
		score += 3
	case l.LockDurationDays >= 180:
		score += 2
	case l.LockDurationDays >= 90:
		score++
	}
	switch {
	case l.LockedPercent >= 90:
		score += 2
	case l.LockedPercent >= 70:
		score++
	}
	return domain.Clamp(score, 0, domain.MaxLiquidity)
}

// Aggregate computes the full contract score.
func Aggregate(cq domain.CodeQuality, signals []domain.RiskSignal, tokenomics *domain.TokenomicsResult, liquidity *domain.LiquidityInfo) domain.ScoreBreakdown {
	return domain.NewScoreBreakdown(
		CodeQualityScore(cq),
		SecurityScore(signals),
		TokenomicsScore(tokenomics),
		LiquidityScore(liquidity),
	)
}

// BreakdownLines renders the score as "Name: X/Max" lines.
func BreakdownLines(s domain.ScoreBreakdown) []string {
	return []string{
		fmt.Sprintf("Code Quality: %d/%d", s.CodeQuality, domain.MaxCodeQuality),
		fmt.Sprintf("Security: %d/%d", s.Security, domain.MaxSecurity),
		fmt.Sprintf("Tokenomics: %d/%d", s.Tokenomics, domain.MaxTokenomics),
		fmt.Sprintf("Liquidity: %d/%d", s.Liquidity, domain.MaxLiquidity),
		fmt.Sprintf("Overall: %d/%d", s.Overall, domain.MaxOverall),
	}
}
