// Package line answers per-line queries: which stations a line serves and in
// roughly what order, and fuzzy line-name search.
package line

import (
	"sort"
	"strings"

	"rail_router/pkg/dataset"
	"rail_router/pkg/graph"
)

// Index is read-only after New and safe for concurrent use.
type Index struct {
	g     *graph.Graph
	names []string // sorted, distinct, without the walk pseudo-line
}

// New builds the line index for g.
func New(g *graph.Graph) *Index {
	seen := make(map[string]bool)
	var names []string
	for i := range g.Stations {
		for _, l := range g.Stations[i].Lines {
			if l == dataset.WalkLine || seen[l] {
				continue
			}
			seen[l] = true
			names = append(names, l)
		}
	}
	sort.Strings(names)
	return &Index{g: g, names: names}
}

// Lines returns every line name in alphabetical order.
func (ix *Index) Lines() []string {
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

// Search returns the lines whose name or phonetic reading contains query,
// case-insensitively, in alphabetical order.
func (ix *Index) Search(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []string
	for _, name := range ix.names {
		if strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(ix.g.Reading(name)), q) {
			out = append(out, name)
		}
	}
	return out
}

// Stations returns the stations listing name among their lines, ordered to
// approximate travel along the line.
//
// The order is best effort. It starts from a terminus (the first station with
// exactly one same-line neighbor, or the first station when none exists, e.g.
// on a loop) and follows same-line connections depth first. On a branching
// line the most recently discovered branch is walked first. Stations not
// reached from the start are appended in dataset order.
func (ix *Index) Stations(name string) []dataset.Station {
	var members []uint32
	onLine := make(map[uint32]bool)
	for i := range ix.g.Stations {
		if ix.g.Stations[i].HasLine(name) {
			members = append(members, uint32(i))
			onLine[uint32(i)] = true
		}
	}
	if len(members) == 0 {
		return nil
	}

	neighbors := func(u uint32) []uint32 {
		var out []uint32
		for _, e := range ix.g.EdgesFrom(u) {
			if e.Line != name || !onLine[e.To] || containsIdx(out, e.To) {
				continue
			}
			out = append(out, e.To)
		}
		return out
	}

	start := members[0]
	for _, m := range members {
		if len(neighbors(m)) == 1 {
			start = m
			break
		}
	}

	visited := make(map[uint32]bool, len(members))
	ordered := make([]dataset.Station, 0, len(members))
	stack := []uint32{start}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[u] {
			continue
		}
		visited[u] = true
		ordered = append(ordered, ix.g.Stations[u])
		for _, v := range neighbors(u) {
			if !visited[v] {
				stack = append(stack, v)
			}
		}
	}

	for _, m := range members {
		if !visited[m] {
			ordered = append(ordered, ix.g.Stations[m])
		}
	}
	return ordered
}

func containsIdx(list []uint32, v uint32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
