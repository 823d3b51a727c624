package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"rail_router/pkg/graph"
)

// ErrNoRoute is returned when no route exists between the two stations under
// the active filters and exclusions. It is an expected outcome, not a failure.
var ErrNoRoute = errors.New("no route found")

// ErrUnknownStation is returned when a query names a station id the graph
// does not contain. It matches ErrNoRoute under errors.Is.
var ErrUnknownStation = fmt.Errorf("%w: unknown station", ErrNoRoute)

// Line name fragments that classify a connection, matched case-insensitively.
var (
	shinkansenMarkers     = []string{"shinkansen", "新幹線"}
	limitedExpressMarkers = []string{"limited-express", "limited express", "express", "liner", "特急", "急行", "ライナー"}
)

type lineClass uint8

const (
	classShinkansen lineClass = 1 << iota
	classLimitedExpress
)

func classify(line string) lineClass {
	l := strings.ToLower(line)
	var c lineClass
	for _, m := range shinkansenMarkers {
		if strings.Contains(l, m) {
			c |= classShinkansen
			break
		}
	}
	for _, m := range limitedExpressMarkers {
		if strings.Contains(l, m) {
			c |= classLimitedExpress
			break
		}
	}
	return c
}

// Filter selects which train categories a search may use.
type Filter struct {
	AllowShinkansen     bool
	AllowLimitedExpress bool
}

// AllowAll permits every category.
var AllowAll = Filter{AllowShinkansen: true, AllowLimitedExpress: true}

func (f Filter) blocked() lineClass {
	var b lineClass
	if !f.AllowShinkansen {
		b |= classShinkansen
	}
	if !f.AllowLimitedExpress {
		b |= classLimitedExpress
	}
	return b
}

// StationPair names an undirected connection by its endpoint ids.
type StationPair struct {
	A, B string
}

// Options configures a single shortest-path search.
type Options struct {
	Filter
	Exclude []StationPair // connections that must not be used, in either direction
}

// edgeSet is a set of undirected station-index pairs.
type edgeSet map[uint64]struct{}

func edgeKey(u, v uint32) uint64 {
	if u > v {
		u, v = v, u
	}
	return uint64(u)<<32 | uint64(v)
}

func (s edgeSet) add(u, v uint32) { s[edgeKey(u, v)] = struct{}{} }

func (s edgeSet) has(u, v uint32) bool {
	_, ok := s[edgeKey(u, v)]
	return ok
}

// Hop is one station on a path with the connection used to arrive there.
// The first hop of a path has an empty Line and zero Duration.
type Hop struct {
	StationID string
	Line      string
	Duration  int
}

// Path is a stop-by-stop route with its total duration in minutes.
type Path struct {
	Hops          []Hop
	TotalDuration int
}

// StationIDs returns the ordered station ids of the path.
func (p *Path) StationIDs() []string {
	ids := make([]string, len(p.Hops))
	for i, h := range p.Hops {
		ids[i] = h.StationID
	}
	return ids
}

// step is the index-based form of a Hop used inside the engine.
type step struct {
	node uint32
	line string
	dur  int
}

type rawPath struct {
	steps []step
	total int
}

// Finder runs shortest-path searches over a graph. It is safe for concurrent
// use; every search works on its own QueryState.
type Finder struct {
	g     *graph.Graph
	class [][]lineClass // parallel to g.Adj
	pool  sync.Pool
}

// NewFinder prepares a Finder for g.
func NewFinder(g *graph.Graph) *Finder {
	f := &Finder{g: g, class: make([][]lineClass, g.NumStations)}
	cache := make(map[string]lineClass)
	for u, edges := range g.Adj {
		cls := make([]lineClass, len(edges))
		for i, e := range edges {
			c, ok := cache[e.Line]
			if !ok {
				c = classify(e.Line)
				cache[e.Line] = c
			}
			cls[i] = c
		}
		f.class[u] = cls
	}
	f.pool.New = func() any { return NewQueryState(g.NumStations) }
	return f
}

// ShortestPath returns the minimum-duration path between two station ids.
// Unknown ids yield ErrUnknownStation; no connecting path yields ErrNoRoute.
func (f *Finder) ShortestPath(ctx context.Context, from, to string, opts Options) (*Path, error) {
	u, ok := f.g.Index(from)
	if !ok {
		return nil, ErrUnknownStation
	}
	v, ok := f.g.Index(to)
	if !ok {
		return nil, ErrUnknownStation
	}
	excl := make(edgeSet, len(opts.Exclude))
	for _, p := range opts.Exclude {
		a, okA := f.g.Index(p.A)
		b, okB := f.g.Index(p.B)
		if okA && okB {
			excl.add(a, b)
		}
	}

	rp, err := f.shortest(ctx, u, v, excl, opts.Filter)
	if err != nil {
		return nil, err
	}
	return f.toPath(rp), nil
}

// shortest is the index-based search used by the engine.
func (f *Finder) shortest(ctx context.Context, u, v uint32, excl edgeSet, filter Filter) (*rawPath, error) {
	if u == v {
		return &rawPath{steps: []step{{node: u}}}, nil
	}
	if !f.g.Connected(u, v) {
		return nil, ErrNoRoute
	}

	blocked := filter.blocked()
	allowed := func(a uint32, i int) bool {
		if f.class[a][i]&blocked != 0 {
			return false
		}
		if len(excl) > 0 && excl.has(a, f.g.Adj[a][i].To) {
			return false
		}
		return true
	}

	qs := f.pool.Get().(*QueryState)
	defer func() {
		qs.Reset()
		f.pool.Put(qs)
	}()

	dist, err := f.runDijkstra(ctx, qs, u, v, allowed)
	if err != nil {
		return nil, err
	}
	if dist == math.MaxInt {
		return nil, ErrNoRoute
	}

	// Walk predecessors back from the target.
	var steps []step
	for node := v; node != noNode; node = qs.Pred[node] {
		s := step{node: node}
		if pred := qs.Pred[node]; pred != noNode {
			e := f.g.Adj[pred][qs.PredE[node]]
			s.line = e.Line
			s.dur = e.Duration
		}
		steps = append(steps, s)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}

	return &rawPath{steps: steps, total: dist}, nil
}

func (f *Finder) toPath(rp *rawPath) *Path {
	hops := make([]Hop, len(rp.steps))
	for i, s := range rp.steps {
		hops[i] = Hop{StationID: f.g.ID(s.node), Line: s.line, Duration: s.dur}
	}
	return &Path{Hops: hops, TotalDuration: rp.total}
}
