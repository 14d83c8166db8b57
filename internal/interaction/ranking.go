package interaction

import (
	"math/big"
	"sort"

	"contract-risk-lab/internal/domain"
)

// Direction selects incoming or outgoing counterparties of the center.
type Direction int

const (
	Incoming Direction = iota
	Outgoing
)

// TopCounterparties ranks the center's neighbours in one direction by edge
// count. Equal counts keep discovery order.
func TopCounterparties(g *Graph, dir Direction, limit int) []domain.Counterparty {
	ix := g.in[g.center]
	if dir == Outgoing {
		ix = g.out[g.center]
	}

	out := make([]domain.Counterparty, 0, len(ix))
	for _, i := range ix {
		e := g.edges[i]
		addr := e.From
		if dir == Outgoing {
			addr = e.To
		}
		node := g.nodes[g.nodeIx[addr]]
		out = append(out, domain.Counterparty{
			Address:          addr,
			Label:            node.Label,
			IsKnown:          node.IsKnown,
			TransactionCount: e.Count,
			TotalValue:       new(big.Int).Set(e.TotalValue),
			TxTypes:          append([]domain.TxKind(nil), e.TxTypes...),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionCount > out[j].TransactionCount
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DisplayNodes selects the most important node addresses for rendering.
// Importance is the summed weight of incident edges, doubled for known
// nodes. The center always ranks first.
func DisplayNodes(g *Graph, limit int) []string {
	importance := make([]int, len(g.nodes))
	for _, e := range g.edges {
		importance[g.nodeIx[e.From]] += e.Count
		importance[g.nodeIx[e.To]] += e.Count
	}
	for i, n := range g.nodes {
		if n.IsKnown {
			importance[i] *= 2
		}
	}

	order := make([]int, len(g.nodes))
	for i := range order {
		order[i] = i
	}
	center := g.nodeIx[g.center]
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if ia == center || ib == center {
			return ia == center && ib != center
		}
		return importance[ia] > importance[ib]
	})

	if limit >= 0 && len(order) > limit {
		order = order[:limit]
	}
	out := make([]string, len(order))
	for i, ix := range order {
		out[i] = g.nodes[ix].Address
	}
	return out
}
