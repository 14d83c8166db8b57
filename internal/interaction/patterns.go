package interaction

import (
	"fmt"
	"math/big"
	"strings"

	"contract-risk-lab/internal/domain"
)

const (
	concentrationRatio    = 0.5
	concentrationMinIn    = 5
	passThroughMinDegree  = 3
	passThroughMinBalance = 0.7
	dexListLimit          = 3

	lowDiversityAddresses    = 5
	lowDiversityTransactions = 20
	outflowRatio             = 5
)

// DetectPatterns derives structural patterns from a built graph.
// Graphs with fewer than two nodes have no patterns.
func DetectPatterns(g *Graph, cycles CycleStats, isDEX func(label string) bool) []domain.Pattern {
	patterns := []domain.Pattern{}
	if g.NodeCount() < 2 {
		return patterns
	}

	if cycles.Count > 0 {
		patterns = append(patterns, domain.Pattern{
			Type:        domain.PatternCircularFlow,
			Severity:    domain.PatternWarning,
			Description: fmt.Sprintf("Detected %d circular fund flow(s). Funds move in loops between addresses.", cycles.Count),
			Detail:      fmt.Sprintf("Shortest cycle involves %d addresses.", cycles.Shortest),
		})
	}

	if p, ok := concentration(g); ok {
		patterns = append(patterns, p)
	}

	if isDEX != nil {
		var dexes []string
		seen := make(map[string]bool)
		for _, n := range g.nodes {
			if n.IsKnown && isDEX(n.Label) && !seen[n.Label] {
				seen[n.Label] = true
				dexes = append(dexes, n.Label)
			}
		}
		if len(dexes) > 0 {
			patterns = append(patterns, domain.Pattern{
				Type:        domain.PatternDEXActivity,
				Severity:    domain.PatternInfo,
				Description: fmt.Sprintf("Interacts with %d DEX(es): %s", len(dexes), strings.Join(dexes[:min(dexListLimit, len(dexes))], ", ")),
				Detail:      "Active trading detected on decentralized exchanges.",
			})
		}
	}

	in, out := len(g.in[g.center]), len(g.out[g.center])
	if in > passThroughMinDegree && out > passThroughMinDegree {
		if float64(min(in, out))/float64(max(in, out)) > passThroughMinBalance {
			patterns = append(patterns, domain.Pattern{
				Type:        domain.PatternPassThrough,
				Severity:    domain.PatternWarning,
				Description: "Address shows balanced in/out flow - funds enter and leave at similar rates.",
				Detail:      fmt.Sprintf("In: %d connections, Out: %d connections", in, out),
			})
		}
	}

	_, hasNull := g.nodeIx[domain.NullAddress]
	_, hasDead := g.nodeIx[domain.DeadAddress]
	if hasNull || hasDead {
		patterns = append(patterns, domain.Pattern{
			Type:        domain.PatternBurnActivity,
			Severity:    domain.PatternInfo,
			Description: "Tokens have been sent to burn addresses.",
			Detail:      "Interactions with null (0x000...0) or dead address detected.",
		})
	}

	return patterns
}

// concentration reports whether a single predecessor dominates the
// center's incoming edge weight. The first maximum wins ties.
func concentration(g *Graph) (domain.Pattern, bool) {
	total, top := 0, -1
	for _, i := range g.in[g.center] {
		e := g.edges[i]
		total += e.Count
		if top < 0 || e.Count > g.edges[top].Count {
			top = i
		}
	}
	if top < 0 || total <= concentrationMinIn {
		return domain.Pattern{}, false
	}

	ratio := float64(g.edges[top].Count) / float64(total)
	if ratio <= concentrationRatio {
		return domain.Pattern{}, false
	}
	return domain.Pattern{
		Type:        domain.PatternHighConcentration,
		Severity:    domain.PatternInfo,
		Description: fmt.Sprintf("One address accounts for %.0f%% of all incoming transactions.", ratio*100),
		Detail:      "Top sender: " + domain.ShortenAddress(g.edges[top].From),
	}, true
}

// RiskIndicators derives graph-level risk findings from the stats and patterns.
func RiskIndicators(stats domain.InteractionStats, patterns []domain.Pattern) []domain.RiskIndicator {
	risks := []domain.RiskIndicator{}

	for _, p := range patterns {
		if p.Type == domain.PatternCircularFlow {
			risks = append(risks, domain.RiskIndicator{
				Level:       domain.SeverityMedium,
				Indicator:   "Circular fund flows detected",
				Explanation: "Could indicate wash trading or artificial volume inflation.",
			})
			break
		}
	}

	if stats.UniqueAddresses < lowDiversityAddresses && stats.TotalTransactions > lowDiversityTransactions {
		risks = append(risks, domain.RiskIndicator{
			Level:     domain.SeverityHigh,
			Indicator: "Low address diversity",
			Explanation: fmt.Sprintf("Only %d unique addresses in %d transactions. Activity may be concentrated among insiders.",
				stats.UniqueAddresses, stats.TotalTransactions),
		})
	}

	in, out := stats.TotalValueIn, stats.TotalValueOut
	if in != nil && out != nil && in.Sign() > 0 && out.Sign() > 0 {
		limit := new(big.Int).Mul(in, big.NewInt(outflowRatio))
		if out.Cmp(limit) > 0 {
			risks = append(risks, domain.RiskIndicator{
				Level:       domain.SeverityHigh,
				Indicator:   "Outflow greatly exceeds inflow",
				Explanation: "Significantly more value leaving than entering. Could indicate fund extraction.",
			})
		}
	}

	return risks
}
