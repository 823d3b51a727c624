package station

import (
	"sort"

	"rail_router/pkg/dataset"
	"rail_router/pkg/geo"
)

// Search radii for nearest-station lookups. Each step widens the box by 4x;
// past the last radius every station is considered.
const (
	initialRadiusMeters = 2_000.0
	maxRadiusMeters     = 2_000_000.0
)

// neighbor is a station index with its distance from the query point.
type neighbor struct {
	idx  uint32
	dist float64
}

// Nearest returns the station closest to (lat, lon) and its distance in meters.
func (ix *Index) Nearest(lat, lon float64) (*dataset.Station, float64, bool) {
	found := ix.closest(lat, lon, 1)
	if len(found) == 0 {
		return nil, 0, false
	}
	return &ix.g.Stations[found[0].idx], found[0].dist, true
}

// Within returns the stations within radiusMeters of (lat, lon), closest first.
func (ix *Index) Within(lat, lon, radiusMeters float64) []dataset.Station {
	found := ix.within(lat, lon, radiusMeters)
	out := make([]dataset.Station, len(found))
	for i, n := range found {
		out[i] = ix.g.Stations[n.idx]
	}
	return out
}

// closest returns the k stations nearest to (lat, lon) ordered by distance,
// ties broken by dataset order. It widens an R-tree box search until k
// stations lie inside the search radius; the box is a superset of the
// radius, so every station closer than the k-th result has been seen.
func (ix *Index) closest(lat, lon float64, k int) []neighbor {
	if k <= 0 || ix.g.NumStations == 0 {
		return nil
	}
	for r := initialRadiusMeters; r <= maxRadiusMeters; r *= 4 {
		found := ix.within(lat, lon, r)
		if len(found) >= k {
			return found[:k]
		}
	}

	all := make([]neighbor, ix.g.NumStations)
	for i := range ix.g.Stations {
		s := &ix.g.Stations[i]
		all[i] = neighbor{idx: uint32(i), dist: geo.Haversine(lat, lon, s.Latitude, s.Longitude)}
	}
	sortNeighbors(all)
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// within returns all stations within radiusMeters, sorted by distance.
func (ix *Index) within(lat, lon, radiusMeters float64) []neighbor {
	var found []neighbor
	ix.searchBox(geo.Around(lat, lon, radiusMeters), func(idx uint32) {
		s := &ix.g.Stations[idx]
		if d := geo.Haversine(lat, lon, s.Latitude, s.Longitude); d <= radiusMeters {
			found = append(found, neighbor{idx: idx, dist: d})
		}
	})
	sortNeighbors(found)
	return found
}

// searchBox visits every station inside b, splitting boxes that cross the
// antimeridian into two searches.
func (ix *Index) searchBox(b geo.BBox, visit func(idx uint32)) {
	iter := func(_, _ [2]float64, idx uint32) bool {
		visit(idx)
		return true
	}
	if b.MaxLng-b.MinLng >= 360 {
		b.MinLng, b.MaxLng = -180, 180
		ix.tree.Search(b.Min(), b.Max(), iter)
		return
	}
	if b.MinLng < -180 {
		wrapped := geo.BBox{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng + 360, MaxLng: 180}
		ix.tree.Search(wrapped.Min(), wrapped.Max(), iter)
		b.MinLng = -180
	}
	if b.MaxLng > 180 {
		wrapped := geo.BBox{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: -180, MaxLng: b.MaxLng - 360}
		ix.tree.Search(wrapped.Min(), wrapped.Max(), iter)
		b.MaxLng = 180
	}
	ix.tree.Search(b.Min(), b.Max(), iter)
}

func sortNeighbors(ns []neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].dist != ns[j].dist {
			return ns[i].dist < ns[j].dist
		}
		return ns[i].idx < ns[j].idx
	})
}
