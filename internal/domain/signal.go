package domain

// Severity grades a risk signal or finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SignalKind names the rule that produced a RiskSignal.
type SignalKind string

const (
	SignalReentrancy           SignalKind = "reentrancy"
	SignalUncheckedSend        SignalKind = "unchecked_send"
	SignalDelegatecall         SignalKind = "delegatecall"
	SignalSelfdestruct         SignalKind = "selfdestruct"
	SignalTxOrigin             SignalKind = "tx_origin"
	SignalMissingAccessControl SignalKind = "missing_access_control"
	SignalUnrestrictedPause    SignalKind = "unrestricted_pause"
	SignalSelfdestructOpcode   SignalKind = "selfdestruct_opcode"
	SignalLargeBytecode        SignalKind = "large_bytecode"
	SignalUnverifiedContract   SignalKind = "unverified_contract"
	SignalHoneypotPattern      SignalKind = "honeypot_pattern"
)

// RiskSignal is a single finding produced by a scan.
// A scan yields signals in rule order; duplicates by (Kind, SourceOffset) are kept.
type RiskSignal struct {
	Kind        SignalKind `json:"kind"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	// SourceOffset is the byte offset of the match in the source text.
	// Nil for structural and bytecode findings.
	SourceOffset *int `json:"source_offset,omitempty"`
}
