package routing

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"rail_router/pkg/dataset"
)

const (
	// DefaultMaxRoutes is used when a caller asks for zero or fewer routes.
	DefaultMaxRoutes = 5

	// TransferPenaltyMinutes is added to a route's score per transfer.
	TransferPenaltyMinutes = 5

	// detourFactor bounds candidate duration relative to the fastest route.
	detourFactor = 1.8

	// avoidLegSeeds is how many found routes seed an "avoid this leg" search.
	avoidLegSeeds = 3
)

// Route is a ranked search result.
type Route struct {
	Stops         []RouteStop `json:"stops"`
	TotalDuration int         `json:"total_duration"`
	Transfers     int         `json:"transfer_count"`
}

// Score ranks routes: duration plus a fixed penalty per transfer. Lower is better.
func (r *Route) Score() int {
	return r.TotalDuration + r.Transfers*TransferPenaltyMinutes
}

// candidates collects distinct routes in discovery order.
type candidates struct {
	e        *Engine
	seen     map[string]bool
	routes   []Route
	paths    []*rawPath
	maxTotal float64 // 0 disables the detour bound
}

func newCandidates(e *Engine) *candidates {
	return &candidates{e: e, seen: make(map[string]bool)}
}

// add records rp unless it repeats an earlier station sequence or exceeds
// the detour bound. It reports whether rp was kept.
func (c *candidates) add(rp *rawPath) bool {
	if rp == nil || len(rp.steps) == 0 {
		return false
	}
	key := c.key(rp)
	if c.seen[key] {
		return false
	}
	c.seen[key] = true
	if c.maxTotal > 0 && float64(rp.total) > c.maxTotal {
		return false
	}

	stops := materialize(c.e.g, rp.steps)
	c.routes = append(c.routes, Route{
		Stops:         stops,
		TotalDuration: rp.total,
		Transfers:     transferCount(stops),
	})
	c.paths = append(c.paths, rp)
	return true
}

// key joins the station ids of a path with NUL separators.
func (c *candidates) key(rp *rawPath) string {
	var b strings.Builder
	for i, s := range rp.steps {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(c.e.g.ID(s.node))
	}
	return b.String()
}

// ranked returns the best max routes by score; equal scores keep discovery order.
func (c *candidates) ranked(max int) []Route {
	out := c.routes
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() < out[j].Score()
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// job is one constrained search of the diversification phase.
type job struct {
	target uint32
	excl   edgeSet
	tail   *step // appended after the path to target, e.g. a final walk
}

// FindMultipleRoutes returns up to maxRoutes distinct routes from one station
// to another, best score first. Candidates come from the fastest route, from
// forcing each first and last hop in turn, from walking in from a nearby
// station, and from avoiding the middle leg of early results. Candidates more
// than 1.8x slower than the fastest route are dropped.
//
// Unknown stations or no connecting path yield an empty result and nil error;
// only context cancellation is reported as an error.
func (e *Engine) FindMultipleRoutes(ctx context.Context, from, to string, maxRoutes int, filter Filter) ([]Route, error) {
	if maxRoutes <= 0 {
		maxRoutes = DefaultMaxRoutes
	}
	u, okU := e.g.Index(from)
	v, okV := e.g.Index(to)
	if !okU || !okV {
		return nil, nil
	}

	base, err := e.finder.shortest(ctx, u, v, nil, filter)
	if err != nil {
		if errors.Is(err, ErrNoRoute) {
			// Every constrained search below searches a subgraph of this one.
			return nil, nil
		}
		return nil, err
	}

	c := newCandidates(e)
	c.add(base)
	if u == v {
		return c.ranked(maxRoutes), nil
	}
	c.maxTotal = float64(base.total) * detourFactor

	var jobs []job
	jobs = append(jobs, e.forceHopJobs(u, v)...)
	jobs = append(jobs, e.forceHopJobs(v, v)...)
	jobs = append(jobs, e.walkArrivalJobs(v)...)

	results, err := e.runJobs(ctx, u, jobs, filter)
	if err != nil {
		return nil, err
	}
	for _, rp := range results {
		c.add(rp)
	}

	// Avoid the middle leg of the first routes found so far.
	jobs = jobs[:0]
	for i := 0; i < len(c.paths) && i < avoidLegSeeds; i++ {
		steps := c.paths[i].steps
		if len(steps) < 2 {
			continue
		}
		k := (len(steps) - 1) / 2
		excl := edgeSet{}
		excl.add(steps[k].node, steps[k+1].node)
		jobs = append(jobs, job{target: v, excl: excl})
	}
	results, err = e.runJobs(ctx, u, jobs, filter)
	if err != nil {
		return nil, err
	}
	for _, rp := range results {
		c.add(rp)
	}

	return c.ranked(maxRoutes), nil
}

// forceHopJobs builds one search to target per distinct neighbor of pivot,
// leaving only the connections between pivot and that neighbor usable.
func (e *Engine) forceHopJobs(pivot, target uint32) []job {
	neighbors := e.distinctNeighbors(pivot)
	if len(neighbors) < 2 {
		return nil
	}
	jobs := make([]job, 0, len(neighbors))
	for _, keep := range neighbors {
		excl := edgeSet{}
		for _, n := range neighbors {
			if n != keep {
				excl.add(pivot, n)
			}
		}
		jobs = append(jobs, job{target: target, excl: excl})
	}
	return jobs
}

// walkArrivalJobs builds, for each walk connection into dest, a search to the
// walk's far end with every direct connection into dest excluded; the walk is
// then appended as the final hop.
func (e *Engine) walkArrivalJobs(dest uint32) []job {
	all := edgeSet{}
	for _, n := range e.distinctNeighbors(dest) {
		all.add(dest, n)
	}
	var jobs []job
	seen := make(map[uint32]bool)
	for _, edge := range e.g.EdgesFrom(dest) {
		if edge.Line != dataset.WalkLine || seen[edge.To] {
			continue
		}
		seen[edge.To] = true
		jobs = append(jobs, job{
			target: edge.To,
			excl:   all,
			tail:   &step{node: dest, line: dataset.WalkLine, dur: edge.Duration},
		})
	}
	return jobs
}

// runJobs executes jobs concurrently and returns their paths in job order;
// a job with no path leaves a nil entry.
func (e *Engine) runJobs(ctx context.Context, origin uint32, jobs []job, filter Filter) ([]*rawPath, error) {
	results := make([]*rawPath, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, j := range jobs {
		g.Go(func() error {
			rp, err := e.finder.shortest(gctx, origin, j.target, j.excl, filter)
			if err != nil {
				if errors.Is(err, ErrNoRoute) {
					return nil
				}
				return err
			}
			if j.tail != nil {
				steps := make([]step, len(rp.steps), len(rp.steps)+1)
				copy(steps, rp.steps)
				rp = &rawPath{steps: append(steps, *j.tail), total: rp.total + j.tail.dur}
			}
			results[i] = rp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) distinctNeighbors(u uint32) []uint32 {
	var out []uint32
	seen := make(map[uint32]bool)
	for _, edge := range e.g.EdgesFrom(u) {
		if !seen[edge.To] {
			seen[edge.To] = true
			out = append(out, edge.To)
		}
	}
	return out
}
