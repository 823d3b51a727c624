// Package station provides name, alias and location lookups over the
// stations of a network graph.
package station

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/rtree"

	"rail_router/pkg/dataset"
	"rail_router/pkg/geo"
	"rail_router/pkg/graph"
)

// MaxSearchResults caps the number of stations Search returns.
const MaxSearchResults = 50

// nearbyStationCount is how many of the closest stations NearbyLines scans.
const nearbyStationCount = 30

// Location is a user position used to rank substring matches.
type Location struct {
	Lat float64
	Lon float64
}

// Index answers station queries. It is read-only after New and safe for
// concurrent use.
type Index struct {
	g    *graph.Graph
	tree rtree.RTreeG[uint32]

	lowerName    []string
	lowerAliases [][]string
}

// New builds the station index for g.
func New(g *graph.Graph) *Index {
	ix := &Index{
		g:            g,
		lowerName:    make([]string, g.NumStations),
		lowerAliases: make([][]string, g.NumStations),
	}
	for i, s := range g.Stations {
		ix.lowerName[i] = strings.ToLower(s.Name)
		aliases := make([]string, len(s.Aliases))
		for j, a := range s.Aliases {
			aliases[j] = strings.ToLower(a)
		}
		ix.lowerAliases[i] = aliases

		pt := [2]float64{s.Longitude, s.Latitude}
		ix.tree.Insert(pt, pt, uint32(i))
	}
	return ix
}

// Search matches stations against query, case-insensitively, in four tiers:
// exact name, exact alias, substring of name, substring of an alias. The
// substring tiers are ordered by distance to loc when loc is non-nil and by
// name length otherwise; ties keep dataset order. At most MaxSearchResults
// stations are returned.
func (ix *Index) Search(query string, loc *Location) []dataset.Station {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var exactName, exactAlias, subName, subAlias []uint32
	for i := range ix.lowerName {
		idx := uint32(i)
		switch {
		case ix.lowerName[i] == q:
			exactName = append(exactName, idx)
		case containsExact(ix.lowerAliases[i], q):
			exactAlias = append(exactAlias, idx)
		case strings.Contains(ix.lowerName[i], q):
			subName = append(subName, idx)
		case containsSubstring(ix.lowerAliases[i], q):
			subAlias = append(subAlias, idx)
		}
	}

	ix.rank(subName, loc)
	ix.rank(subAlias, loc)

	out := make([]dataset.Station, 0, min(MaxSearchResults,
		len(exactName)+len(exactAlias)+len(subName)+len(subAlias)))
	for _, tier := range [][]uint32{exactName, exactAlias, subName, subAlias} {
		for _, idx := range tier {
			if len(out) == MaxSearchResults {
				return out
			}
			out = append(out, ix.g.Stations[idx])
		}
	}
	return out
}

// rank orders a substring tier in place.
func (ix *Index) rank(tier []uint32, loc *Location) {
	if len(tier) < 2 {
		return
	}
	keys := make(map[uint32]float64, len(tier))
	for _, idx := range tier {
		s := &ix.g.Stations[idx]
		if loc != nil {
			keys[idx] = geo.Haversine(loc.Lat, loc.Lon, s.Latitude, s.Longitude)
		} else {
			keys[idx] = float64(utf8.RuneCountInString(s.Name))
		}
	}
	sort.SliceStable(tier, func(i, j int) bool {
		return keys[tier[i]] < keys[tier[j]]
	})
}

// NearbyLines returns up to limit distinct line names served by the 30
// stations closest to (lat, lon). Lines appear in the order they were first
// seen walking outward from the closest station.
func (ix *Index) NearbyLines(lat, lon float64, limit int) []string {
	if limit <= 0 {
		return nil
	}
	seen := make(map[string]bool)
	var lines []string
	for _, n := range ix.closest(lat, lon, nearbyStationCount) {
		for _, l := range ix.g.Stations[n.idx].Lines {
			if l == dataset.WalkLine || seen[l] {
				continue
			}
			seen[l] = true
			lines = append(lines, l)
			if len(lines) == limit {
				return lines
			}
		}
	}
	return lines
}

// Get returns the station with the given id.
func (ix *Index) Get(id string) (*dataset.Station, bool) {
	return ix.g.Station(id)
}

func containsExact(list []string, q string) bool {
	for _, s := range list {
		if s == q {
			return true
		}
	}
	return false
}

func containsSubstring(list []string, q string) bool {
	for _, s := range list {
		if strings.Contains(s, q) {
			return true
		}
	}
	return false
}
