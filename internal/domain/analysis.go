package domain

// TierInfo pairs a risk tier with its display colour and advice.
type TierInfo struct {
	Tier           RiskTier `json:"tier"`
	Color          string   `json:"color"`
	Recommendation string   `json:"recommendation"`
}

// IssueCategory groups priority issues.
type IssueCategory string

const (
	IssueSecurity   IssueCategory = "security"
	IssueTokenomics IssueCategory = "tokenomics"
	IssueLiquidity  IssueCategory = "liquidity"
)

// PriorityIssue is a headline problem surfaced to the user first.
type PriorityIssue struct {
	Severity       Severity      `json:"severity"`
	Category       IssueCategory `json:"category"`
	Issue          string        `json:"issue"`
	Recommendation string        `json:"recommendation"`
}

// CreatorQuickInfo is the lightweight deployer enrichment attached to a contract analysis.
type CreatorQuickInfo struct {
	Deployer         string `json:"deployer"`
	WalletAgeDays    int    `json:"wallet_age_days"`
	TransactionCount uint64 `json:"transaction_count"`
	IsNewWallet      bool   `json:"is_new_wallet"`
}

// ContractAnalysis is the result of a full contract analysis.
type ContractAnalysis struct {
	Address     string          `json:"address"`
	Chain       Chain           `json:"chain"`
	Profile     ContractProfile `json:"profile"`
	Token       *TokenProfile   `json:"token,omitempty"`
	CodeQuality CodeQuality     `json:"code_quality"`
	Signals     []RiskSignal    `json:"signals"`
	// Tokenomics is nil when the source is not verified.
	Tokenomics *TokenomicsResult `json:"tokenomics,omitempty"`
	Liquidity  *LiquidityInfo    `json:"liquidity,omitempty"`
	Scores     ScoreBreakdown    `json:"scores"`
	Tier       TierInfo          `json:"tier"`
	Breakdown  []string          `json:"breakdown"`
	Priority   []PriorityIssue   `json:"priority_issues"`
	// Creator is nil when the quick creator check failed or found nothing.
	Creator         *CreatorQuickInfo `json:"creator,omitempty"`
	Errors          []string          `json:"errors,omitempty"`
	AnalyzedAt      int64             `json:"analyzed_at"`
	DurationSeconds float64           `json:"duration_seconds"`
}

// QuickCheck is the result of a quick contract check.
type QuickCheck struct {
	Address    string        `json:"address"`
	Chain      Chain         `json:"chain"`
	IsContract bool          `json:"is_contract"`
	IsVerified bool          `json:"is_verified"`
	IsToken    bool          `json:"is_token"`
	Token      *TokenProfile `json:"token,omitempty"`
}

// CreatorSummary aggregates sibling health.
type CreatorSummary struct {
	TotalSiblings          int     `json:"total_siblings"`
	CheckedSiblings        int     `json:"checked_siblings"`
	AliveSiblings          int     `json:"alive_siblings"`
	ActiveSiblings         int     `json:"active_siblings"`
	DeadSiblings           int     `json:"dead_siblings"`
	AvgSiblingLifespanDays float64 `json:"avg_sibling_lifespan_days"`
	SerialDeployer         bool    `json:"serial_deployer"`
	Factory                bool    `json:"factory"`
}

// CreatorAnalysis is the result of a deployer trace.
type CreatorAnalysis struct {
	Address    string            `json:"address"`
	Chain      Chain             `json:"chain"`
	Deployer   WalletProfile     `json:"deployer"`
	Siblings   []SiblingContract `json:"siblings"`
	RedFlags   []RedFlag         `json:"red_flags"`
	Score      CreatorTrustScore `json:"score"`
	Tier       TierInfo          `json:"tier"`
	Summary    CreatorSummary    `json:"summary"`
	Errors     []string          `json:"errors,omitempty"`
	AnalyzedAt int64             `json:"analyzed_at"`
	Cached     bool              `json:"cached"`
}

// InteractionAnalysis is the result of an interaction graph analysis.
type InteractionAnalysis struct {
	Address        string           `json:"address"`
	Chain          Chain            `json:"chain"`
	Stats          InteractionStats `json:"stats"`
	Nodes          []GraphNode      `json:"nodes"`
	Edges          []GraphEdge      `json:"edges"`
	DisplayNodes   []string         `json:"display_nodes"`
	TopSenders     []Counterparty   `json:"top_senders"`
	TopReceivers   []Counterparty   `json:"top_receivers"`
	Patterns       []Pattern        `json:"patterns"`
	RiskIndicators []RiskIndicator  `json:"risk_indicators"`
	FlowSummary    string           `json:"flow_summary"`
	Errors         []string         `json:"errors,omitempty"`
	AnalyzedAt     int64            `json:"analyzed_at"`
	Cached         bool             `json:"cached"`
}
