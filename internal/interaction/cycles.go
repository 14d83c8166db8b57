package interaction

const (
	minCycleLen = 2
	maxCycleLen = 5

	// DefaultCycleBudget bounds the edge visits of one cycle search.
	DefaultCycleBudget = 200_000
)

// CycleStats summarises the short simple cycles of a graph.
type CycleStats struct {
	Count int
	// Shortest is the node count of the shortest cycle, 0 when none was found.
	Shortest int
	// Aborted is set when the budget ran out; Count is then a lower bound.
	Aborted bool
}

// ShortCycles counts simple cycles of 2 to 5 nodes. Self-loops are ignored.
// Each cycle is found once, rooted at its earliest-discovered node, and the
// search gives up after budget edge visits so dense graphs cannot stall it.
func (g *Graph) ShortCycles(budget int) CycleStats {
	n := len(g.nodes)
	adj := make([][]int, n)
	for _, e := range g.edges {
		from, to := g.nodeIx[e.From], g.nodeIx[e.To]
		if from != to {
			adj[from] = append(adj[from], to)
		}
	}

	var (
		st     CycleStats
		steps  int
		onPath = make([]bool, n)
	)

	var walk func(start, v, depth int) bool
	walk = func(start, v, depth int) bool {
		for _, w := range adj[v] {
			steps++
			if steps > budget {
				st.Aborted = true
				return false
			}
			if w == start {
				if depth >= minCycleLen {
					st.Count++
					if st.Shortest == 0 || depth < st.Shortest {
						st.Shortest = depth
					}
				}
				continue
			}
			if w < start || onPath[w] || depth == maxCycleLen {
				continue
			}
			onPath[w] = true
			ok := walk(start, w, depth+1)
			onPath[w] = false
			if !ok {
				return false
			}
		}
		return true
	}

	for s := 0; s < n; s++ {
		onPath[s] = true
		ok := walk(s, s, 1)
		onPath[s] = false
		if !ok {
			break
		}
	}
	return st
}
