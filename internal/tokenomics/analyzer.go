// Package tokenomics detects fee, supply and trading-restriction mechanisms
// in token source code and scores them out of 20.
package tokenomics

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"contract-risk-lab/internal/domain"
)

// ExcessiveFeeBps is the fee above which a red flag is raised (10%).
const ExcessiveFeeBps = 1000

// Red flag and warning texts.
const (
	WarnFeesModifiable   = "Fees can be modified by owner"
	FlagMintUncontrolled = "Mint function may lack proper access control"
	WarnMintControlled   = "Contract has mint function (can increase supply)"
	WarnPausable         = "Contract can be paused, halting all transfers"
	FlagBlacklist        = "Contract has blacklist mechanism - users can be blocked from trading"
	WarnMaxTxModifiable  = "Maximum transaction limit can be modified by owner"
	WarnCooldown         = "Contract has cooldown mechanism between trades"
)

var (
	feePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\w*[Bb]uy[Ff]ee\w*)\s*=\s*(\d+)`),
		regexp.MustCompile(`(\w*[Ss]ell[Ff]ee\w*)\s*=\s*(\d+)`),
		regexp.MustCompile(`(\w*[Tt]ransfer[Ff]ee\w*)\s*=\s*(\d+)`),
		regexp.MustCompile(`(\w*[Tt]ax\w*)\s*=\s*(\d+)`),
	}
	feeSetterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`function\s+set\w*[Ff]ee`),
		regexp.MustCompile(`function\s+update\w*[Ff]ee`),
	}
	burnPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)function\s+burn\s*\(`),
		regexp.MustCompile(`(?i)_burn\s*\(`),
		regexp.MustCompile(`(?i)\.burn\s*\(`),
	}
	mintPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)function\s+mint\s*\(`),
		regexp.MustCompile(`(?i)_mint\s*\(`),
		regexp.MustCompile(`(?i)\.mint\s*\(`),
	}
	mintGuard        = regexp.MustCompile(`onlyOwner|onlyMinter|onlyRole`)
	pausablePattern  = regexp.MustCompile(`function\s+pause\s*\(|whenNotPaused|Pausable`)
	blacklistPattern = regexp.MustCompile(`(?i)blacklist|isBlacklisted|_blacklist|blocked|isBlocked`)
	maxTxPattern     = regexp.MustCompile(`(?i)maxTx|maxTransaction|_maxTxAmount|maxBuy|maxSell`)
	maxTxSetter      = regexp.MustCompile(`(?i)function\s+setMax`)
	cooldownPattern  = regexp.MustCompile(`(?i)cooldown|buyCooldown|sellCooldown|lastBuy|lastSell`)
)

// Analyze inspects token source code. It never fails; empty source yields
// a result with no mechanisms detected.
func Analyze(source string) domain.TokenomicsResult {
	res := domain.TokenomicsResult{
		RedFlags: []string{},
		Warnings: []string{},
	}

	res.Fees, res.RedFlags = analyzeFees(source, res.RedFlags)
	if res.Fees.Modifiable {
		res.Warnings = append(res.Warnings, WarnFeesModifiable)
	}

	res.BurnMechanism = matchAny(burnPatterns, source)

	if matchAny(mintPatterns, source) {
		res.MintMechanism = true
		res.MintAccessControlled = mintGuard.MatchString(source)
		if res.MintAccessControlled {
			res.Warnings = append(res.Warnings, WarnMintControlled)
		} else {
			res.RedFlags = append(res.RedFlags, FlagMintUncontrolled)
		}
	}

	if pausablePattern.MatchString(source) {
		res.Pausable = true
		res.Warnings = append(res.Warnings, WarnPausable)
	}

	if blacklistPattern.MatchString(source) {
		res.Blacklist = true
		res.RedFlags = append(res.RedFlags, FlagBlacklist)
	}

	if maxTxPattern.MatchString(source) {
		res.MaxTxLimit = true
		if maxTxSetter.MatchString(source) {
			res.MaxTxModifiable = true
			res.Warnings = append(res.Warnings, WarnMaxTxModifiable)
		}
	}

	if cooldownPattern.MatchString(source) {
		res.Cooldown = true
		res.Warnings = append(res.Warnings, WarnCooldown)
	}

	res.Score = Score(res)
	return res
}

// analyzeFees extracts fee assignments. A later assignment of the same
// fee overrides an earlier one; every fee above the threshold is flagged.
// Literals too large for an int are clamped to math.MaxInt so they still
// count as excessive.
func analyzeFees(source string, redFlags []string) (domain.Fees, []string) {
	var fees domain.Fees

	for _, pattern := range feePatterns {
		for _, m := range pattern.FindAllStringSubmatch(source, -1) {
			name := strings.ToLower(m[1])
			value, err := strconv.Atoi(m[2])
			shown := float64(value)
			switch {
			case errors.Is(err, strconv.ErrRange):
				value = math.MaxInt
				shown, _ = strconv.ParseFloat(m[2], 64)
			case err != nil:
				continue
			}

			v := value
			switch {
			case strings.Contains(name, "buy"):
				fees.BuyFee = &v
			case strings.Contains(name, "sell"):
				fees.SellFee = &v
			case strings.Contains(name, "transfer"):
				fees.TransferFee = &v
			}

			if value > ExcessiveFeeBps {
				redFlags = append(redFlags, fmt.Sprintf("Excessive %s: %s%%", name, formatPercent(shown)))
			}
		}
	}

	fees.Modifiable = matchAny(feeSetterPatterns, source)
	return fees, redFlags
}

// Score computes the 0..20 tokenomics sub-score.
func Score(res domain.TokenomicsResult) int {
	score := 0

	buy := valueOrZero(res.Fees.BuyFee)
	sell := valueOrZero(res.Fees.SellFee)
	switch {
	case buy <= 500 && sell <= 500:
		score += 5
	case buy <= 1000 && sell <= 1000:
		score += 3
	case buy <= 1500 && sell <= 1500:
		score += 1
	}

	if !res.Fees.Modifiable {
		score += 3
	} else {
		score++
	}

	if !res.Blacklist {
		score += 4
	}

	if !res.MintMechanism {
		score += 4
	} else if res.MintAccessControlled {
		score += 2
	}

	switch {
	case !res.MaxTxLimit:
		score += 2
	case !res.MaxTxModifiable:
		score++
	}

	if !res.Pausable {
		score += 2
	}

	if score > domain.MaxTokenomics {
		score = domain.MaxTokenomics
	}
	return score
}

func matchAny(patterns []*regexp.Regexp, source string) bool {
	for _, p := range patterns {
		if p.MatchString(source) {
			return true
		}
	}
	return false
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// formatPercent renders basis points as a percentage with at least one
// decimal place: 1500 -> "15.0", 1234 -> "12.34".
func formatPercent(bps float64) string {
	s := strconv.FormatFloat(bps/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
