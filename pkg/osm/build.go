package osm

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/paulmach/osm"
	"github.com/tidwall/rtree"
	"golang.org/x/exp/slog"

	"rail_router/pkg/dataset"
	"rail_router/pkg/geo"
)

const (
	highSpeedKmh        = 260.0
	regularSpeedKmh     = 45.0
	dwellMinutes        = 1.0
	walkMetersPerMinute = 80.0
)

// BuildOptions configures how parsed OSM data becomes a dataset.
type BuildOptions struct {
	BBox         geo.BBox // if non-zero, only stations inside are kept
	SameNameSnap float64  // meters; a stop snaps to a station of the same name within this
	AnySnap      float64  // meters; otherwise to any station within this
	WalkRadius   float64  // meters; 0 disables walk connections
	KeepUnserved bool     // keep stations no imported route stops at
}

// DefaultBuildOptions returns the snapping and walking distances used by
// the importer.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{SameNameSnap: 500, AnySnap: 200, WalkRadius: 300}
}

// StationID is the dataset id of the station imported from node id.
func StationID(id osm.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

// travelMinutes estimates the running time of one hop.
func travelMinutes(meters float64, highSpeed bool) int {
	speed := regularSpeedKmh
	if highSpeed {
		speed = highSpeedKmh
	}
	m := int(math.Ceil(meters/(speed*1000/60) + dwellMinutes))
	return max(m, 1)
}

func walkMinutes(meters float64) int {
	return max(int(math.Ceil(meters/walkMetersPerMinute)), 1)
}

type builder struct {
	res      *ParseResult
	opts     BuildOptions
	stations []dataset.Station
	byNode   map[osm.NodeID]int
	tree     rtree.RTreeG[int]
}

// Build converts parsed OSM data into a dataset. Route stops are snapped to
// stations; consecutive stops become connections, deduplicated per line.
// Stations that share no line and lie within WalkRadius of each other are
// joined by a walk connection.
func Build(res *ParseResult, opts BuildOptions) *dataset.Dataset {
	b := &builder{res: res, opts: opts, byNode: make(map[osm.NodeID]int)}

	// Step 1: Station table and spatial index.
	for _, sn := range res.Stations {
		if !opts.BBox.IsZero() && !opts.BBox.Contains(sn.Lat, sn.Lon) {
			continue
		}
		if _, dup := b.byNode[sn.ID]; dup {
			continue
		}
		idx := len(b.stations)
		b.byNode[sn.ID] = idx
		b.stations = append(b.stations, dataset.Station{
			ID:         StationID(sn.ID),
			Name:       sn.Name,
			Prefecture: sn.Prefecture,
			Latitude:   sn.Lat,
			Longitude:  sn.Lon,
			Lines:      []string{},
			Aliases:    sn.Aliases,
		})
		pt := [2]float64{sn.Lon, sn.Lat}
		b.tree.Insert(pt, pt, idx)
	}

	// Step 2: Connections between consecutive snapped stops.
	type connKey struct {
		a, b int
		line string
	}
	seen := make(map[connKey]bool)
	var conns []dataset.Connection
	var lines []dataset.Line
	lineIdx := make(map[string]int)
	var unsnapped int

	for _, r := range res.Routes {
		served := false
		prev := -1
		for _, stop := range r.Stops {
			idx, ok := b.snap(stop)
			if !ok {
				unsnapped++
				continue
			}
			if idx == prev {
				continue
			}
			if prev >= 0 {
				k := connKey{a: min(prev, idx), b: max(prev, idx), line: r.Name}
				if !seen[k] {
					seen[k] = true
					from, to := &b.stations[prev], &b.stations[idx]
					dist := geo.Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
					conns = append(conns, dataset.Connection{
						From:            from.ID,
						To:              to.ID,
						Line:            r.Name,
						DurationMinutes: travelMinutes(dist, r.HighSpeed),
					})
					addLine(from, r.Name)
					addLine(to, r.Name)
				}
				served = true
			}
			prev = idx
		}

		if !served {
			continue
		}
		if i, ok := lineIdx[r.Name]; !ok {
			lineIdx[r.Name] = len(lines)
			lines = append(lines, dataset.Line{Name: r.Name, Reading: r.Reading})
		} else if lines[i].Reading == "" {
			lines[i].Reading = r.Reading
		}
	}

	// Step 3: Walk connections between nearby unrelated stations.
	var walks int
	if opts.WalkRadius > 0 {
		for i := range b.stations {
			s := &b.stations[i]
			if len(s.Lines) == 0 {
				continue
			}
			box := geo.Around(s.Latitude, s.Longitude, opts.WalkRadius)
			var near []int
			b.tree.Search(box.Min(), box.Max(), func(_, _ [2]float64, j int) bool {
				if j > i {
					near = append(near, j)
				}
				return true
			})
			sort.Ints(near)
			for _, j := range near {
				o := &b.stations[j]
				if len(o.Lines) == 0 || shareLine(s, o) {
					continue
				}
				dist := geo.Haversine(s.Latitude, s.Longitude, o.Latitude, o.Longitude)
				if dist > opts.WalkRadius {
					continue
				}
				conns = append(conns, dataset.Connection{
					From:            s.ID,
					To:              o.ID,
					Line:            dataset.WalkLine,
					DurationMinutes: walkMinutes(dist),
				})
				walks++
			}
		}
	}

	// Step 4: Drop stations no route serves.
	stations := b.stations
	if !opts.KeepUnserved {
		kept := stations[:0:0]
		for _, s := range stations {
			if len(s.Lines) > 0 {
				kept = append(kept, s)
			}
		}
		stations = kept
	}

	slog.Info("osm import built",
		"stations", len(stations),
		"connections", len(conns),
		"walk_connections", walks,
		"lines", len(lines),
		"unsnapped_stops", unsnapped)

	return &dataset.Dataset{Stations: stations, Connections: conns, Lines: lines}
}

// Import parses an OSM PBF extract and builds a dataset from it.
func Import(ctx context.Context, rs io.ReadSeeker, opts BuildOptions) (*dataset.Dataset, error) {
	res, err := Parse(ctx, rs)
	if err != nil {
		return nil, err
	}
	return Build(res, opts), nil
}

// snap resolves a stop node to a station index: the node itself when it is
// a station, else the closest same-name station within SameNameSnap, else
// the closest station within AnySnap.
func (b *builder) snap(id osm.NodeID) (int, bool) {
	if idx, ok := b.byNode[id]; ok {
		return idx, true
	}
	stop, ok := b.res.Stops[id]
	if !ok {
		return -1, false
	}
	if stop.Name != "" {
		if idx, ok := b.closest(stop.Lat, stop.Lon, b.opts.SameNameSnap, func(i int) bool {
			return b.stations[i].Name == stop.Name
		}); ok {
			return idx, true
		}
	}
	return b.closest(stop.Lat, stop.Lon, b.opts.AnySnap, nil)
}

func (b *builder) closest(lat, lon, radius float64, accept func(int) bool) (int, bool) {
	if radius <= 0 {
		return -1, false
	}
	best, bestDist := -1, math.Inf(1)
	box := geo.Around(lat, lon, radius)
	b.tree.Search(box.Min(), box.Max(), func(_, _ [2]float64, i int) bool {
		if accept != nil && !accept(i) {
			return true
		}
		s := &b.stations[i]
		d := geo.Haversine(lat, lon, s.Latitude, s.Longitude)
		if d <= radius && (d < bestDist || (d == bestDist && i < best)) {
			best, bestDist = i, d
		}
		return true
	})
	return best, best >= 0
}

func addLine(s *dataset.Station, line string) {
	if !s.HasLine(line) {
		s.Lines = append(s.Lines, line)
	}
}

func shareLine(a, b *dataset.Station) bool {
	for _, l := range a.Lines {
		if b.HasLine(l) {
			return true
		}
	}
	return false
}
