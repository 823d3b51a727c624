// Package osm imports railway stations and train routes from an
// OpenStreetMap PBF extract.
package osm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/exp/slog"
)

// StationNode is a node tagged as a passenger railway station.
type StationNode struct {
	ID         osm.NodeID
	Name       string
	Aliases    []string
	Prefecture string
	Lat, Lon   float64
}

// StopNode is a stop member of a route relation.
type StopNode struct {
	Name     string
	Lat, Lon float64
}

// RouteRelation is a train route: an ordered list of stops on one line.
type RouteRelation struct {
	ID        osm.RelationID
	Name      string
	Reading   string
	HighSpeed bool
	Stops     []osm.NodeID
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Stations []StationNode
	Stops    map[osm.NodeID]StopNode
	Routes   []RouteRelation
}

// railRoutes lists route tag values treated as rail lines.
var railRoutes = map[string]bool{
	"train":      true,
	"subway":     true,
	"light_rail": true,
	"monorail":   true,
}

// isRailRoute returns true if the relation is a passenger rail route.
func isRailRoute(tags osm.Tags) bool {
	return tags.Find("type") == "route" && railRoutes[tags.Find("route")]
}

// isStation returns true if the node is a passenger railway station.
func isStation(tags osm.Tags) bool {
	if tags.Find("name") == "" {
		return false
	}
	switch tags.Find("railway") {
	case "station", "halt":
		return tags.Find("station") != "freight"
	}
	if tags.Find("public_transport") == "station" {
		for mode := range railRoutes {
			if tags.Find(mode) == "yes" {
				return true
			}
		}
	}
	return false
}

// isHighSpeed returns true for high-speed services such as the Shinkansen.
func isHighSpeed(tags osm.Tags) bool {
	if tags.Find("service") == "high_speed" || tags.Find("highspeed") == "yes" {
		return true
	}
	name := strings.ToLower(tags.Find("name") + " " + tags.Find("name:en"))
	return strings.Contains(name, "shinkansen") || strings.Contains(name, "新幹線")
}

// isStopRole returns true for relation member roles that mark a stop.
func isStopRole(role string) bool {
	return role == "stop" || strings.HasPrefix(role, "stop_")
}

// aliasKeys are read, in order, as alternative station names.
var aliasKeys = []string{"name:en", "name:ja", "name:ja-Hira", "name:ja-Latn", "official_name", "alt_name"}

func aliases(tags osm.Tags) []string {
	name := tags.Find("name")
	var out []string
	seen := map[string]bool{name: true}
	for _, k := range aliasKeys {
		for _, v := range strings.Split(tags.Find(k), ";") {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func prefecture(tags osm.Tags) string {
	for _, k := range []string{"addr:province", "is_in:province", "addr:state"} {
		if v := tags.Find(k); v != "" {
			return v
		}
	}
	return ""
}

func lineName(tags osm.Tags) string {
	if n := tags.Find("name"); n != "" {
		return n
	}
	return tags.Find("ref")
}

func lineReading(tags osm.Tags) string {
	for _, k := range []string{"name:ja-Hira", "name:ja_kana", "name:ja-Latn"} {
		if v := tags.Find(k); v != "" {
			return v
		}
	}
	return ""
}

// Parse reads an OSM PBF file and returns its stations and rail routes.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker) (*ParseResult, error) {
	// Pass 1: Scan relations for rail routes and the stop nodes they reference.
	referencedNodes := make(map[osm.NodeID]struct{})
	var routes []RouteRelation

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipWays = true

	for scanner.Scan() {
		rel, ok := scanner.Object().(*osm.Relation)
		if !ok || !isRailRoute(rel.Tags) {
			continue
		}
		name := lineName(rel.Tags)
		if name == "" {
			continue
		}

		r := RouteRelation{
			ID:        rel.ID,
			Name:      name,
			Reading:   lineReading(rel.Tags),
			HighSpeed: isHighSpeed(rel.Tags),
		}
		for _, m := range rel.Members {
			if m.Type != osm.TypeNode || !isStopRole(m.Role) {
				continue
			}
			id := osm.NodeID(m.Ref)
			r.Stops = append(r.Stops, id)
			referencedNodes[id] = struct{}{}
		}
		if len(r.Stops) < 2 {
			continue
		}
		routes = append(routes, r)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (relations): %w", err)
	}
	scanner.Close()

	slog.Info("pass 1 complete", "routes", len(routes), "stop_nodes", len(referencedNodes))

	// Pass 2: Scan nodes for stations and the coordinates of referenced stops.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	res := &ParseResult{
		Stops:  make(map[osm.NodeID]StopNode, len(referencedNodes)),
		Routes: routes,
	}

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if isStation(n.Tags) {
			res.Stations = append(res.Stations, StationNode{
				ID:         n.ID,
				Name:       n.Tags.Find("name"),
				Aliases:    aliases(n.Tags),
				Prefecture: prefecture(n.Tags),
				Lat:        n.Lat,
				Lon:        n.Lon,
			})
		}
		if _, needed := referencedNodes[n.ID]; needed {
			res.Stops[n.ID] = StopNode{Name: n.Tags.Find("name"), Lat: n.Lat, Lon: n.Lon}
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	slog.Info("pass 2 complete", "stations", len(res.Stations), "stops", len(res.Stops))
	return res, nil
}
