package market

// Path is a closed loop of conversion edges: the first edge starts at the
// anchor currency and the last edge returns to it. Paths copy symbols and
// rates by value, so they stay valid after the graph they came from is
// discarded.
type Path struct {
	Edges []Edge
}

// Start returns the currency the path begins at.
func (p Path) Start() string {
	if len(p.Edges) == 0 {
		return ""
	}
	return p.Edges[0].From
}

// End returns the currency the path finishes at.
func (p Path) End() string {
	if len(p.Edges) == 0 {
		return ""
	}
	return p.Edges[len(p.Edges)-1].To
}

// Route returns the pair symbols traversed, in order.
func (p Path) Route() []string {
	route := make([]string, len(p.Edges))
	for i, e := range p.Edges {
		route[i] = e.Symbol
	}
	return route
}

// FindCycles enumerates simple directed cycles through the anchor currency
// with edge count in [minLen, maxLen], in depth-first discovery order. Only
// the anchor may repeat, and only as the closing node. An anchor missing from
// the graph yields no cycles. maxLen must stay small (the search is bounded
// by branching^maxLen).
func FindCycles(g Graph, anchor string, minLen, maxLen int) []Path {
	if _, ok := g[anchor]; !ok {
		return nil
	}

	var (
		found   []Path
		current []Edge
		visited = map[string]bool{}
	)

	var walk func(node string)
	walk = func(node string) {
		for _, edge := range g[node] {
			if edge.To == anchor {
				if len(current)+1 >= minLen {
					cycle := make([]Edge, len(current)+1)
					copy(cycle, current)
					cycle[len(current)] = edge
					found = append(found, Path{Edges: cycle})
				}
				continue
			}
			if len(current)+1 >= maxLen || visited[edge.To] {
				continue
			}
			visited[edge.To] = true
			current = append(current, edge)
			walk(edge.To)
			current = current[:len(current)-1]
			visited[edge.To] = false
		}
	}

	walk(anchor)
	return found
}
