// Package network assembles the graph, the station and line indexes and the
// routing engine from one dataset.
package network

import (
	"context"

	"golang.org/x/exp/slog"

	"rail_router/pkg/dataset"
	"rail_router/pkg/graph"
	"rail_router/pkg/line"
	"rail_router/pkg/routing"
	"rail_router/pkg/station"
)

// Network is everything a query needs. It is immutable after New and safe
// for concurrent use.
type Network struct {
	Graph    *graph.Graph
	Stations *station.Index
	Lines    *line.Index
	Engine   *routing.Engine
}

// Stats summarizes a loaded network.
type Stats struct {
	Stations         int `json:"stations"`
	Connections      int `json:"connections"`
	Lines            int `json:"lines"`
	Components       int `json:"components"`
	LargestComponent int `json:"largest_component"`
}

// New builds a network from d.
func New(d *dataset.Dataset, opts ...routing.EngineOption) *Network {
	g := graph.Build(d)
	return &Network{
		Graph:    g,
		Stations: station.New(g),
		Lines:    line.New(g),
		Engine:   routing.NewEngine(g, opts...),
	}
}

// Load reads the dataset at path and builds a network. A dataset that cannot
// be read yields an empty network, so the caller can still serve requests.
func Load(ctx context.Context, path string, opts ...routing.EngineOption) *Network {
	n := New(dataset.LoadOrEmpty(ctx, path), opts...)
	s := n.Stats()
	slog.Info("network loaded",
		"path", path,
		"stations", s.Stations,
		"connections", s.Connections,
		"lines", s.Lines,
		"components", s.Components,
		"largest_component", s.LargestComponent)
	return n
}

// Stats reports the size of the network.
func (n *Network) Stats() Stats {
	count, largest := n.Graph.ComponentStats()
	return Stats{
		Stations:         int(n.Graph.NumStations),
		Connections:      int(n.Graph.NumEdges),
		Lines:            len(n.Lines.Lines()),
		Components:       count,
		LargestComponent: largest,
	}
}
