package routing

import (
	"context"
	"errors"
)

// FindRouteVia returns up to maxRoutes routes from one station to another
// passing through every via station in order. Each attempt chains a shortest
// path per leg; an attempt with an unreachable leg is discarded. Later
// attempts exclude one more connection of the previous route, rotating
// through its hops, for up to maxRoutes*3 attempts.
func (e *Engine) FindRouteVia(ctx context.Context, from, to string, via []string, maxRoutes int) ([]Route, error) {
	if maxRoutes <= 0 {
		maxRoutes = DefaultMaxRoutes
	}
	waypoints := make([]uint32, 0, len(via)+2)
	for _, id := range append(append([]string{from}, via...), to) {
		idx, ok := e.g.Index(id)
		if !ok {
			return nil, nil
		}
		waypoints = append(waypoints, idx)
	}

	c := newCandidates(e)
	excl := edgeSet{}
	var prev *rawPath

	for attempt := 0; attempt < maxRoutes*3; attempt++ {
		var added uint64
		if attempt > 0 {
			if prev == nil || len(prev.steps) < 2 {
				break
			}
			k := (attempt - 1) % (len(prev.steps) - 1)
			added = edgeKey(prev.steps[k].node, prev.steps[k+1].node)
			if _, dup := excl[added]; dup {
				continue
			}
			excl[added] = struct{}{}
		}

		rp, err := e.chain(ctx, waypoints, excl)
		if err != nil {
			if errors.Is(err, ErrNoRoute) {
				if attempt == 0 {
					break
				}
				// The excluded hop is required by some leg; keep it usable.
				delete(excl, added)
				continue
			}
			return nil, err
		}
		c.add(rp)
		prev = rp
	}

	return c.ranked(maxRoutes), nil
}

// chain concatenates one shortest path per consecutive waypoint pair,
// dropping the repeated junction station between legs.
func (e *Engine) chain(ctx context.Context, waypoints []uint32, excl edgeSet) (*rawPath, error) {
	full := &rawPath{}
	for i := 0; i+1 < len(waypoints); i++ {
		leg, err := e.finder.shortest(ctx, waypoints[i], waypoints[i+1], excl, AllowAll)
		if err != nil {
			return nil, err
		}
		steps := leg.steps
		if i > 0 {
			steps = steps[1:]
		}
		full.steps = append(full.steps, steps...)
		full.total += leg.total
	}
	return full, nil
}
