// Package graph holds the railway network: stations, undirected weighted
// connections and line readings. A Graph is immutable once built and safe to
// share between any number of concurrent readers.
package graph

import "rail_router/pkg/dataset"

// Edge is one direction of a connection. Parallel edges between the same
// pair of stations on different lines are kept as separate entries.
type Edge struct {
	To       uint32 // station index
	Line     string
	Duration int // minutes
}

// Graph is the network graph. Stations are addressed internally by a dense
// index in dataset order; Adj[i] lists the edges leaving station i in the
// order their connections appeared in the dataset.
type Graph struct {
	NumStations uint32
	NumEdges    uint32 // undirected connections; len(Adj) entries total 2*NumEdges

	Stations    []dataset.Station
	Adj         [][]Edge
	LineReading map[string]string

	byID             map[string]uint32
	component        []uint32 // component root per station
	numComponents    int
	largestComponent int
}

// Index returns the internal index for a station id.
func (g *Graph) Index(id string) (uint32, bool) {
	idx, ok := g.byID[id]
	return idx, ok
}

// ID returns the station id at index i.
func (g *Graph) ID(i uint32) string {
	return g.Stations[i].ID
}

// Station looks up a station by id.
func (g *Graph) Station(id string) (*dataset.Station, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return &g.Stations[idx], true
}

// EdgesFrom returns the edges leaving station index u.
func (g *Graph) EdgesFrom(u uint32) []Edge {
	return g.Adj[u]
}

// Connected reports whether two station indices lie in the same connected
// component of the unfiltered graph.
func (g *Graph) Connected(u, v uint32) bool {
	return g.component[u] == g.component[v]
}

// Reading returns the phonetic reading for a line, or "".
func (g *Graph) Reading(line string) string {
	return g.LineReading[line]
}
