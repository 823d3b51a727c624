package graph

// disjointSet groups station indices into connected components, merging by
// size with path halving.
type disjointSet struct {
	parent []uint32
	size   []uint32
}

func newDisjointSet(n uint32) *disjointSet {
	ds := &disjointSet{parent: make([]uint32, n), size: make([]uint32, n)}
	for i := range n {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSet) find(x uint32) uint32 {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

// union merges the sets of a and b and reports whether they were distinct.
func (ds *disjointSet) union(a, b uint32) bool {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return false
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
	return true
}

// components labels every station with its component root and records the
// component count and the size of the largest one.
func (g *Graph) components() {
	ds := newDisjointSet(g.NumStations)
	for u := uint32(0); u < g.NumStations; u++ {
		for _, e := range g.Adj[u] {
			ds.union(u, e.To)
		}
	}

	g.component = make([]uint32, g.NumStations)
	g.numComponents, g.largestComponent = 0, 0
	for i := range g.component {
		root := ds.find(uint32(i))
		g.component[i] = root
		if root == uint32(i) {
			g.numComponents++
			g.largestComponent = max(g.largestComponent, int(ds.size[root]))
		}
	}
}

// ComponentStats returns the number of connected components and the size of
// the largest one. Isolated stations count as components of size one.
func (g *Graph) ComponentStats() (count int, largest int) {
	return g.numComponents, g.largestComponent
}
