package scoring

import "contract-risk-lab/internal/domain"

var contractTiers = map[domain.RiskTier]domain.TierInfo{
	domain.TierVeryLow: {
		Tier:           domain.TierVeryLow,
		Color:          "green",
		Recommendation: "Contract appears to be safe with minimal risks detected. Always DYOR.",
	},
	domain.TierLow: {
		Tier:           domain.TierLow,
		Color:          "lightgreen",
		Recommendation: "Contract appears relatively safe but has some minor concerns. Review carefully.",
	},
	domain.TierMedium: {
		Tier:           domain.TierMedium,
		Color:          "yellow",
		Recommendation: "Exercise caution. Contract has notable concerns that should be reviewed.",
	},
	domain.TierHigh: {
		Tier:           domain.TierHigh,
		Color:          "orange",
		Recommendation: "High risk detected. Multiple serious concerns found. Invest with extreme caution.",
	},
	domain.TierCritical: {
		Tier:           domain.TierCritical,
		Color:          "red",
		Recommendation: "CRITICAL RISK! Contract has severe security issues. Do not invest without thorough review.",
	},
}

var creatorTiers = map[domain.RiskTier]domain.TierInfo{
	domain.TierVeryLow: {
		Tier:           domain.TierVeryLow,
		Color:          "green",
		Recommendation: "Creator wallet has a reasonable track record. Always verify the contract code independently.",
	},
	domain.TierLow: {
		Tier:           domain.TierLow,
		Color:          "lightgreen",
		Recommendation: "Creator wallet has a reasonable track record. Always verify the contract code independently.",
	},
	domain.TierMedium: {
		Tier:           domain.TierMedium,
		Color:          "yellow",
		Recommendation: "Creator history shows some mixed signals. Proceed with caution and do thorough research.",
	},
	domain.TierHigh: {
		Tier:           domain.TierHigh,
		Color:          "orange",
		Recommendation: "Multiple warning signs in the creator's history. High risk of rug pull. Exercise extreme caution.",
	},
	domain.TierCritical: {
		Tier:           domain.TierCritical,
		Color:          "red",
		Recommendation: "Creator wallet has serious red flags. This has the hallmarks of a scam. Stay away.",
	},
}

// ContractTier returns display info for a contract score tier.
func ContractTier(tier domain.RiskTier) domain.TierInfo {
	return contractTiers[tier]
}

// CreatorTier returns display info for a creator trust tier.
func CreatorTier(tier domain.RiskTier) domain.TierInfo {
	return creatorTiers[tier]
}
