// Package scanner turns contract source text and bytecode into risk signals.
//
// Source rules are data: each Rule pairs a pattern with the signal it emits,
// so new detections are added by extending the table. Every match of every
// rule is reported in table order, then the structural checks, then the
// bytecode checks. Output is deterministic for identical input.
package scanner

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"contract-risk-lab/internal/domain"
)

// MaxContractSize is the EIP-170 runtime code size limit in bytes.
const MaxContractSize = 24576

// selfdestructOpcodeHex is the SELFDESTRUCT opcode. The check is a plain
// substring match over the hex text and ignores instruction boundaries.
const selfdestructOpcodeHex = "ff"

// Rule is one entry of the source pattern table.
type Rule struct {
	Kind        domain.SignalKind
	Severity    domain.Severity
	Pattern     *regexp.Regexp
	Description string
}

// DefaultRules returns the built-in source pattern table. Patterns are case-insensitive.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind:        domain.SignalReentrancy,
			Severity:    domain.SeverityHigh,
			Pattern:     regexp.MustCompile(`(?i)\.call\{value:.*?\}\(`),
			Description: "Potential reentrancy vulnerability: External call before state change",
		},
		{
			Kind:        domain.SignalUncheckedSend,
			Severity:    domain.SeverityMedium,
			Pattern:     regexp.MustCompile(`(?i)\.send\(`),
			Description: "Unchecked send: Return value not checked",
		},
		{
			Kind:        domain.SignalDelegatecall,
			Severity:    domain.SeverityHigh,
			Pattern:     regexp.MustCompile(`(?i)\.delegatecall\(`),
			Description: "Delegatecall to untrusted contract can be dangerous",
		},
		{
			Kind:        domain.SignalSelfdestruct,
			Severity:    domain.SeverityMedium,
			Pattern:     regexp.MustCompile(`(?i)selfdestruct\(`),
			Description: "Contract contains selfdestruct function",
		},
		{
			Kind:        domain.SignalTxOrigin,
			Severity:    domain.SeverityMedium,
			Pattern:     regexp.MustCompile(`(?i)tx\.origin`),
			Description: "Use of tx.origin for authorization is dangerous",
		},
	}
}

// Scanner applies a rule table to contract source.
type Scanner struct {
	rules []Rule
}

// New creates a scanner with the default rules followed by extra rules.
func New(extra ...Rule) *Scanner {
	rules := DefaultRules()
	rules = append(rules, extra...)
	return &Scanner{rules: rules}
}

// Scan produces the full signal list of a contract.
// A nil or unverified profile yields a single unverified_contract signal in
// place of the source findings; bytecode findings are always appended.
func (s *Scanner) Scan(profile *domain.ContractProfile, bytecode []byte) []domain.RiskSignal {
	var signals []domain.RiskSignal
	if profile == nil || !profile.Verified || profile.SourceCode == "" {
		signals = append(signals, domain.RiskSignal{
			Kind:        domain.SignalUnverifiedContract,
			Severity:    domain.SeverityHigh,
			Description: "Contract source code is not verified on the block explorer",
		})
	} else {
		signals = append(signals, s.ScanSource(profile.SourceCode)...)
	}
	return append(signals, ScanBytecode(bytecode)...)
}

// ScanSource runs the rule table and the structural checks over source text.
func (s *Scanner) ScanSource(source string) []domain.RiskSignal {
	var signals []domain.RiskSignal

	for _, rule := range s.rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(source, -1) {
			offset := loc[0]
			signals = append(signals, domain.RiskSignal{
				Kind:         rule.Kind,
				Severity:     rule.Severity,
				Description:  rule.Description,
				SourceOffset: &offset,
			})
		}
	}

	return append(signals, structuralSignals(source)...)
}

// structuralSignals checks for privileged functions without access control.
// Keyword checks are case-sensitive.
func structuralSignals(source string) []domain.RiskSignal {
	var signals []domain.RiskSignal

	hasOwnerGuard := strings.Contains(source, "onlyOwner")
	hasOwnable := strings.Contains(source, "Ownable")

	if !hasOwnerGuard && !hasOwnable {
		if strings.Contains(source, "function mint") || strings.Contains(source, "function burn") {
			signals = append(signals, domain.RiskSignal{
				Kind:        domain.SignalMissingAccessControl,
				Severity:    domain.SeverityHigh,
				Description: "Critical functions may lack proper access control",
			})
		}
	}

	if strings.Contains(source, "function pause") && !hasOwnerGuard {
		signals = append(signals, domain.RiskSignal{
			Kind:        domain.SignalUnrestrictedPause,
			Severity:    domain.SeverityHigh,
			Description: "Pause function may be callable by anyone",
		})
	}

	return signals
}

// ScanBytecode checks deployed code for the SELFDESTRUCT opcode and oversize code.
func ScanBytecode(bytecode []byte) []domain.RiskSignal {
	if len(bytecode) == 0 {
		return nil
	}

	var signals []domain.RiskSignal
	hexCode := hex.EncodeToString(bytecode)

	if strings.Contains(hexCode, selfdestructOpcodeHex) {
		signals = append(signals, domain.RiskSignal{
			Kind:        domain.SignalSelfdestructOpcode,
			Severity:    domain.SeverityMedium,
			Description: "Contract contains SELFDESTRUCT opcode",
		})
	}

	if size := len(bytecode); size > MaxContractSize {
		signals = append(signals, domain.RiskSignal{
			Kind:        domain.SignalLargeBytecode,
			Severity:    domain.SeverityLow,
			Description: fmt.Sprintf("Contract bytecode is very large (%d bytes)", size),
		})
	}

	return signals
}

// CodeQuality extracts the compiler and verification facts of a profile.
func CodeQuality(profile *domain.ContractProfile) domain.CodeQuality {
	if profile == nil || !profile.Verified {
		return domain.CodeQuality{}
	}
	return domain.CodeQuality{
		Verified:         true,
		CompilerVersion:  profile.CompilerVersion,
		OptimizationUsed: profile.OptimizationUsed,
		License:          profile.License,
	}
}
