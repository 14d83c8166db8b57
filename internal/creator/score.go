package creator

import (
	"math"
	"sort"

	"contract-risk-lab/internal/domain"
)

const (
	recentWindow      = 30 * secondsPerDay
	shortLifespanDays = 7
	longLifespanDays  = 180
	drainLifespanDays = 14
	rapidGapSeconds   = secondsPerDay
	rapidDeployments  = 3
)

// Score computes the creator trust score.
//
// Health-based components (dead, alive, lifespan and liquidity removal) use
// deep-checked siblings only. Creation-time components (recent and rapid
// deployments) use every enumerated sibling.
func Score(wallet domain.WalletProfile, siblings []domain.SiblingContract, flags []domain.RedFlag, now int64) domain.CreatorTrustScore {
	return domain.NewCreatorTrustScore(
		WalletMaturity(wallet.AgeDays()),
		DeploymentHistory(siblings, now),
		SiblingSurvival(siblings),
		FundingTransparency(flags),
		BehavioralPatterns(siblings),
	)
}

// WalletMaturity scores wallet age out of 20.
func WalletMaturity(ageDays int) int {
	switch {
	case ageDays > 365:
		return 20
	case ageDays > 180:
		return 15
	case ageDays > 30:
		return 10
	case ageDays > 7:
		return 5
	default:
		return 0
	}
}

// DeploymentHistory scores the deployer's past contracts out of 30.
func DeploymentHistory(siblings []domain.SiblingContract, now int64) int {
	history := domain.MaxDeploymentHistory

	dead := 0
	longLived := false
	for _, s := range siblings {
		if !s.Checked {
			continue
		}
		if !s.IsAlive {
			dead++
		}
		if s.IsAlive && s.LifespanDays != nil && *s.LifespanDays > longLifespanDays {
			longLived = true
		}
	}
	history -= min(15, dead*3)

	if len(siblings) > serialSiblings {
		recent := 0
		for _, s := range siblings {
			if s.CreationTimestamp > now-recentWindow {
				recent++
			}
		}
		if recent > serialSiblings {
			history -= 5
		}
	}

	if mean, ok := meanLifespan(siblings); ok && mean < shortLifespanDays {
		history -= 5
	}

	if longLived {
		history = min(domain.MaxDeploymentHistory, history+5)
	}
	return max(0, history)
}

// SiblingSurvival scores the alive ratio of checked siblings out of 25,
// minus 5 per liquidity removal. No siblings scores a neutral 15.
func SiblingSurvival(siblings []domain.SiblingContract) int {
	checked, alive, removals := 0, 0, 0
	for _, s := range siblings {
		if !s.Checked {
			continue
		}
		checked++
		if s.IsAlive {
			alive++
		}
		if s.HadLiquidityRemoval {
			removals++
		}
	}
	if checked == 0 {
		return 15
	}

	survival := int(math.RoundToEven(float64(alive) / float64(checked) * domain.MaxSiblingSurvival))
	survival -= min(15, removals*5)
	return max(0, survival)
}

// FundingTransparency starts at 15 and deducts for every red flag.
func FundingTransparency(flags []domain.RedFlag) int {
	transparency := domain.MaxFundingTransparency
	for _, f := range flags {
		switch f.Kind {
		case domain.RedFlagMixerFunding:
			transparency -= 15
		case domain.RedFlagBrandNewWallet:
			transparency -= 10
		case domain.RedFlagVeryNewWallet:
			transparency -= 5
		case domain.RedFlagNoHistory:
			transparency -= 10
		}
	}
	return max(0, transparency)
}

// BehavioralPatterns starts at 10 and deducts for deploy-and-drain siblings
// and bursts of deployments less than a day apart.
func BehavioralPatterns(siblings []domain.SiblingContract) int {
	behavior := domain.MaxBehavioralPatterns

	drains := 0
	for _, s := range siblings {
		if !s.Checked || !s.HadLiquidityRemoval {
			continue
		}
		// An unknown lifespan never counts as short.
		if s.LifespanDays != nil && *s.LifespanDays < drainLifespanDays {
			drains++
		}
	}
	behavior -= min(5, drains*2)

	if len(siblings) >= rapidDeployments {
		var stamps []int64
		for _, s := range siblings {
			if s.CreationTimestamp > 0 {
				stamps = append(stamps, s.CreationTimestamp)
			}
		}
		sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

		rapid := 0
		for i := 1; i < len(stamps); i++ {
			if stamps[i]-stamps[i-1] < rapidGapSeconds {
				rapid++
			}
		}
		if rapid >= rapidDeployments {
			behavior -= 5
		}
	}

	return max(0, behavior)
}

// meanLifespan averages the known lifespans of checked siblings.
func meanLifespan(siblings []domain.SiblingContract) (float64, bool) {
	total, n := 0, 0
	for _, s := range siblings {
		if s.Checked && s.LifespanDays != nil {
			total += *s.LifespanDays
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(total) / float64(n), true
}
