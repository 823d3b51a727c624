package routing

import (
	"context"
	"errors"
	"runtime"

	"rail_router/pkg/dataset"
	"rail_router/pkg/graph"
)

// Router is the interface for route queries.
type Router interface {
	FindSingleRoute(ctx context.Context, from, to string) ([]RouteStop, error)
	FindMultipleRoutes(ctx context.Context, from, to string, maxRoutes int, filter Filter) ([]Route, error)
	FindRouteVia(ctx context.Context, from, to string, via []string, maxRoutes int) ([]Route, error)
	AlternativeLines(from, to string) []string
	RouteDuration(stops []RouteStop) int
}

// Engine implements Router over an immutable graph. All methods are safe for
// concurrent use: each search owns its working state.
type Engine struct {
	g       *graph.Graph
	finder  *Finder
	workers int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers bounds how many searches one multi-route query runs in parallel.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates a routing engine for g.
func NewEngine(g *graph.Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		g:       g,
		finder:  NewFinder(g),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ShortestPath exposes the underlying single search.
func (e *Engine) ShortestPath(ctx context.Context, from, to string, opts Options) (*Path, error) {
	return e.finder.ShortestPath(ctx, from, to, opts)
}

// FindSingleRoute returns the stops of the fastest route with every train
// category allowed, or nil when there is none.
func (e *Engine) FindSingleRoute(ctx context.Context, from, to string) ([]RouteStop, error) {
	u, okU := e.g.Index(from)
	v, okV := e.g.Index(to)
	if !okU || !okV {
		return nil, nil
	}
	rp, err := e.finder.shortest(ctx, u, v, nil, AllowAll)
	if err != nil {
		if errors.Is(err, ErrNoRoute) {
			return nil, nil
		}
		return nil, err
	}
	return materialize(e.g, rp.steps), nil
}

// Materialize converts a path into annotated stops. A path naming an
// unknown station, or an empty path, yields nil.
func (e *Engine) Materialize(hops []Hop) []RouteStop {
	steps := make([]step, len(hops))
	for i, h := range hops {
		idx, ok := e.g.Index(h.StationID)
		if !ok {
			return nil
		}
		steps[i] = step{node: idx, line: h.Line, dur: h.Duration}
	}
	return materialize(e.g, steps)
}

// RouteDuration sums the recorded duration of each hop of stops. A hop with
// no matching connection (for example a synthetic walk) counts 3 minutes.
func (e *Engine) RouteDuration(stops []RouteStop) int {
	return routeDuration(e.g, stops)
}

// AlternativeLines lists the distinct lines directly connecting two stations.
func (e *Engine) AlternativeLines(from, to string) []string {
	u, okU := e.g.Index(from)
	v, okV := e.g.Index(to)
	if !okU || !okV {
		return []string{}
	}
	return linesBetween(e.g, u, v)
}

// Station returns the station with the given id.
func (e *Engine) Station(id string) (*dataset.Station, bool) {
	return e.g.Station(id)
}
