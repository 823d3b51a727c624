package graph

import (
	"golang.org/x/exp/slog"

	"rail_router/pkg/dataset"
)

// Build creates a Graph from a dataset.
//
// Duplicate station ids overwrite earlier entries (last write wins, position
// of the first occurrence is kept). This is a tolerance for dirty input, not
// a guarantee that the surviving record is the correct one. Connections that
// reference an unknown station, or connect a station to itself, are skipped.
func Build(d *dataset.Dataset) *Graph {
	g := &Graph{
		byID:        make(map[string]uint32, len(d.Stations)),
		LineReading: make(map[string]string, len(d.Lines)),
	}

	// Step 1: Station table with a dense index.
	var duplicates int
	for _, s := range d.Stations {
		if idx, ok := g.byID[s.ID]; ok {
			g.Stations[idx] = s
			duplicates++
			continue
		}
		g.byID[s.ID] = uint32(len(g.Stations))
		g.Stations = append(g.Stations, s)
	}
	g.NumStations = uint32(len(g.Stations))
	g.Adj = make([][]Edge, g.NumStations)

	// Step 2: Undirected adjacency, both directions per connection.
	var unknown, selfLoops int
	for _, c := range d.Connections {
		u, okU := g.byID[c.From]
		v, okV := g.byID[c.To]
		if !okU || !okV {
			unknown++
			continue
		}
		if u == v {
			selfLoops++
			continue
		}
		g.Adj[u] = append(g.Adj[u], Edge{To: v, Line: c.Line, Duration: c.DurationMinutes})
		g.Adj[v] = append(g.Adj[v], Edge{To: u, Line: c.Line, Duration: c.DurationMinutes})
		g.NumEdges++
	}

	// Step 3: Line readings.
	for _, l := range d.Lines {
		g.LineReading[l.Name] = l.Reading
	}

	// Step 4: Connected components.
	g.components()

	if duplicates > 0 {
		slog.Warn("duplicate station ids overwritten", "count", duplicates)
	}
	if unknown > 0 {
		slog.Warn("skipped connections referencing unknown stations", "count", unknown)
	}
	if selfLoops > 0 {
		slog.Warn("skipped self-loop connections", "count", selfLoops)
	}

	return g
}
