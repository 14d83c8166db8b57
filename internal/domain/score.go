package domain

// RiskTier is the discrete risk level derived from an overall score.
type RiskTier string

const (
	TierVeryLow  RiskTier = "very_low"
	TierLow      RiskTier = "low"
	TierMedium   RiskTier = "medium"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

// TierFor maps an overall 0..100 score to a risk tier.
// Used for both contract scores and creator trust scores.
func TierFor(overall int) RiskTier {
	switch {
	case overall >= 85:
		return TierVeryLow
	case overall >= 70:
		return TierLow
	case overall >= 50:
		return TierMedium
	case overall >= 30:
		return TierHigh
	default:
		return TierCritical
	}
}

// Sub-score maxima.
const (
	MaxCodeQuality = 25
	MaxSecurity    = 40
	MaxTokenomics  = 20
	MaxLiquidity   = 15

	MaxWalletMaturity      = 20
	MaxDeploymentHistory   = 30
	MaxSiblingSurvival     = 25
	MaxFundingTransparency = 15
	MaxBehavioralPatterns  = 10

	MaxOverall = 100
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ScoreBreakdown is the contract safety score.
// Invariant: Overall == Clamp(CodeQuality+Security+Tokenomics+Liquidity, 0, 100).
type ScoreBreakdown struct {
	CodeQuality int      `json:"code_quality"`
	Security    int      `json:"security"`
	Tokenomics  int      `json:"tokenomics"`
	Liquidity   int      `json:"liquidity"`
	Overall     int      `json:"overall"`
	RiskTier    RiskTier `json:"risk_tier"`
}

// NewScoreBreakdown builds a breakdown and derives Overall and RiskTier.
func NewScoreBreakdown(codeQuality, security, tokenomics, liquidity int) ScoreBreakdown {
	overall := Clamp(codeQuality+security+tokenomics+liquidity, 0, MaxOverall)
	return ScoreBreakdown{
		CodeQuality: codeQuality,
		Security:    security,
		Tokenomics:  tokenomics,
		Liquidity:   liquidity,
		Overall:     overall,
		RiskTier:    TierFor(overall),
	}
}

// CreatorTrustScore is the deployer trust score.
// Same clamp and tier invariants as ScoreBreakdown.
type CreatorTrustScore struct {
	WalletMaturity      int      `json:"wallet_maturity"`
	DeploymentHistory   int      `json:"deployment_history"`
	SiblingSurvival     int      `json:"sibling_survival"`
	FundingTransparency int      `json:"funding_transparency"`
	BehavioralPatterns  int      `json:"behavioral_patterns"`
	Overall             int      `json:"overall"`
	RiskTier            RiskTier `json:"risk_tier"`
}

// NewCreatorTrustScore builds a trust score and derives Overall and RiskTier.
func NewCreatorTrustScore(maturity, history, survival, transparency, behavior int) CreatorTrustScore {
	overall := Clamp(maturity+history+survival+transparency+behavior, 0, MaxOverall)
	return CreatorTrustScore{
		WalletMaturity:      maturity,
		DeploymentHistory:   history,
		SiblingSurvival:     survival,
		FundingTransparency: transparency,
		BehavioralPatterns:  behavior,
		Overall:             overall,
		RiskTier:            TierFor(overall),
	}
}
