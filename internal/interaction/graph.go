// Package interaction builds the directed transaction graph around an
// address and derives flow patterns, risk indicators and ranked
// counterparties from it.
package interaction

import (
	"math/big"
	"strings"

	"contract-risk-lab/internal/domain"
)

// Labeler resolves the directory label of an address.
type Labeler func(addr string) (string, bool)

type edgeKey struct {
	from, to string
}

// Graph is a weighted directed graph with one edge per (from, to) pair.
// Nodes and edges keep discovery order, which breaks every ranking tie.
// The center node always exists, even when no transaction touches it.
type Graph struct {
	center string
	label  Labeler

	nodes  []domain.GraphNode
	nodeIx map[string]int
	edges  []domain.GraphEdge
	edgeIx map[edgeKey]int
	out    map[string][]int
	in     map[string][]int
}

// NewGraph creates a graph holding only the center node.
// A nil labeler leaves every node unknown.
func NewGraph(center string, label Labeler) *Graph {
	g := &Graph{
		center: strings.ToLower(center),
		label:  label,
		nodeIx: make(map[string]int),
		edgeIx: make(map[edgeKey]int),
		out:    make(map[string][]int),
		in:     make(map[string][]int),
	}
	g.addNode(g.center)
	return g
}

// Add accumulates a transaction into its (from, to) edge.
// Transactions without both endpoints are skipped and Add returns false.
// Token transfers add to the count but never to the native value.
func (g *Graph) Add(tx domain.Transaction) bool {
	from, to := strings.ToLower(tx.From), strings.ToLower(tx.To)
	if from == "" || to == "" {
		return false
	}
	g.addNode(from)
	g.addNode(to)

	k := edgeKey{from, to}
	i, ok := g.edgeIx[k]
	if !ok {
		i = len(g.edges)
		g.edges = append(g.edges, domain.GraphEdge{From: from, To: to, TotalValue: new(big.Int)})
		g.edgeIx[k] = i
		g.out[from] = append(g.out[from], i)
		g.in[to] = append(g.in[to], i)
	}

	e := &g.edges[i]
	e.Count++
	if tx.Kind != domain.TxToken && tx.Value != nil {
		e.TotalValue.Add(e.TotalValue, tx.Value)
	}
	e.TxTypes = addKind(e.TxTypes, tx.Kind)
	return true
}

func (g *Graph) addNode(addr string) {
	if _, ok := g.nodeIx[addr]; ok {
		return
	}
	node := domain.GraphNode{Address: addr, IsCenter: addr == g.center}
	if g.label != nil {
		if label, ok := g.label(addr); ok && label != "" {
			node.Label = label
			node.IsKnown = true
		}
	}
	if node.Label == "" {
		node.Label = domain.ShortenAddress(addr)
	}
	g.nodeIx[addr] = len(g.nodes)
	g.nodes = append(g.nodes, node)
}

var kindOrder = map[domain.TxKind]int{
	domain.TxNormal:   0,
	domain.TxInternal: 1,
	domain.TxToken:    2,
}

// addKind inserts k into a sorted kind set.
func addKind(kinds []domain.TxKind, k domain.TxKind) []domain.TxKind {
	for i, existing := range kinds {
		if existing == k {
			return kinds
		}
		if kindOrder[k] < kindOrder[existing] {
			kinds = append(kinds, "")
			copy(kinds[i+1:], kinds[i:])
			kinds[i] = k
			return kinds
		}
	}
	return append(kinds, k)
}

// Center returns the lowercase center address.
func (g *Graph) Center() string {
	return g.center
}

// NodeCount returns the number of nodes, center included.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct (from, to) edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Node returns a node by address.
func (g *Graph) Node(addr string) (domain.GraphNode, bool) {
	i, ok := g.nodeIx[strings.ToLower(addr)]
	if !ok {
		return domain.GraphNode{}, false
	}
	return g.nodes[i], true
}

// Nodes returns a copy of the nodes in discovery order.
func (g *Graph) Nodes() []domain.GraphNode {
	out := make([]domain.GraphNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the edges in discovery order.
func (g *Graph) Edges() []domain.GraphEdge {
	out := make([]domain.GraphEdge, len(g.edges))
	for i, e := range g.edges {
		out[i] = copyEdge(e)
	}
	return out
}

// Edge returns the edge from -> to.
func (g *Graph) Edge(from, to string) (domain.GraphEdge, bool) {
	i, ok := g.edgeIx[edgeKey{strings.ToLower(from), strings.ToLower(to)}]
	if !ok {
		return domain.GraphEdge{}, false
	}
	return copyEdge(g.edges[i]), true
}

// InEdges returns the edges ending at addr in discovery order.
func (g *Graph) InEdges(addr string) []domain.GraphEdge {
	return g.edgesAt(g.in[strings.ToLower(addr)])
}

// OutEdges returns the edges starting at addr in discovery order.
func (g *Graph) OutEdges(addr string) []domain.GraphEdge {
	return g.edgesAt(g.out[strings.ToLower(addr)])
}

func (g *Graph) edgesAt(ix []int) []domain.GraphEdge {
	out := make([]domain.GraphEdge, 0, len(ix))
	for _, i := range ix {
		out = append(out, copyEdge(g.edges[i]))
	}
	return out
}

// endpointCount returns the number of nodes touched by at least one edge.
func (g *Graph) endpointCount() int {
	n := len(g.nodes)
	if len(g.in[g.center]) == 0 && len(g.out[g.center]) == 0 {
		n--
	}
	return n
}

func copyEdge(e domain.GraphEdge) domain.GraphEdge {
	e.TotalValue = new(big.Int).Set(e.TotalValue)
	e.TxTypes = append([]domain.TxKind(nil), e.TxTypes...)
	return e
}
