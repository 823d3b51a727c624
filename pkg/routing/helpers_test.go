package routing

import (
	"fmt"
	"testing"

	"rail_router/pkg/dataset"
	"rail_router/pkg/graph"
)

func testStation(id string) dataset.Station {
	return dataset.Station{ID: id, Name: "Station " + id, Prefecture: "Tokyo", Latitude: 35.68, Longitude: 139.76}
}

func buildGraph(t testing.TB, ids []string, conns []dataset.Connection) *graph.Graph {
	t.Helper()
	stations := make([]dataset.Station, len(ids))
	for i, id := range ids {
		stations[i] = testStation(id)
	}
	return graph.Build(&dataset.Dataset{Stations: stations, Connections: conns})
}

// buildScenarioGraph builds
//
//	S1 -A(5)- S2 =A(5)/B(7)= S3 -A(4)- S4
func buildScenarioGraph(t testing.TB) *graph.Graph {
	t.Helper()
	return buildGraph(t, []string{"S1", "S2", "S3", "S4"}, []dataset.Connection{
		{From: "S1", To: "S2", Line: "A", DurationMinutes: 5},
		{From: "S2", To: "S3", Line: "A", DurationMinutes: 5},
		{From: "S2", To: "S3", Line: "B", DurationMinutes: 7},
		{From: "S3", To: "S4", Line: "A", DurationMinutes: 4},
	})
}

// buildLadderGraph builds two parallel lines joined by rungs:
//
//	T0 -2- T1 -2- T2 -2- T3 -2- T4   (Top)
//	|1     |1     |1     |1     |1   (Rung)
//	B0 -3- B1 -3- B2 -3- B3 -3- B4   (Bottom)
func buildLadderGraph(t testing.TB) *graph.Graph {
	t.Helper()
	var ids []string
	var conns []dataset.Connection
	for i := 0; i < 5; i++ {
		ids = append(ids, fmt.Sprintf("T%d", i), fmt.Sprintf("B%d", i))
	}
	for i := 0; i < 5; i++ {
		conns = append(conns, dataset.Connection{From: fmt.Sprintf("T%d", i), To: fmt.Sprintf("B%d", i), Line: "Rung", DurationMinutes: 1})
		if i < 4 {
			conns = append(conns,
				dataset.Connection{From: fmt.Sprintf("T%d", i), To: fmt.Sprintf("T%d", i+1), Line: "Top", DurationMinutes: 2},
				dataset.Connection{From: fmt.Sprintf("B%d", i), To: fmt.Sprintf("B%d", i+1), Line: "Bottom", DurationMinutes: 3},
			)
		}
	}
	return buildGraph(t, ids, conns)
}

// buildGridGraph builds an n x n grid with deterministic, uneven weights.
func buildGridGraph(t testing.TB, n int) *graph.Graph {
	t.Helper()
	id := func(r, c int) string { return fmt.Sprintf("g%d_%d", r, c) }
	var ids []string
	var conns []dataset.Connection
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			ids = append(ids, id(r, c))
			if c+1 < n {
				conns = append(conns, dataset.Connection{From: id(r, c), To: id(r, c+1), Line: fmt.Sprintf("H%d", r), DurationMinutes: (r*7+c*13)%9 + 1})
			}
			if r+1 < n {
				conns = append(conns, dataset.Connection{From: id(r, c), To: id(r+1, c), Line: fmt.Sprintf("V%d", c), DurationMinutes: (r*11+c*5)%7 + 1})
			}
		}
	}
	return buildGraph(t, ids, conns)
}

// buildChainGraph builds a single line of n stations, 1 minute apart.
func buildChainGraph(t testing.TB, n int) *graph.Graph {
	t.Helper()
	var ids []string
	var conns []dataset.Connection
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("c%d", i))
		if i > 0 {
			conns = append(conns, dataset.Connection{From: fmt.Sprintf("c%d", i-1), To: fmt.Sprintf("c%d", i), Line: "Chain", DurationMinutes: 1})
		}
	}
	return buildGraph(t, ids, conns)
}

func stopIDs(stops []RouteStop) []string {
	out := make([]string, len(stops))
	for i, s := range stops {
		out[i] = s.StationID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
