package routing

import (
	"fmt"
	"strings"

	"rail_router/pkg/graph"
)

// StopStatus describes the role of a stop on a route. A route of a single
// station has one stop that is both StopDeparture and StopArrival.
type StopStatus uint8

const (
	StopDeparture StopStatus = 1 << iota
	StopArrival
	StopTransfer
	StopPass
)

// Has reports whether s includes flag.
func (s StopStatus) Has(flag StopStatus) bool { return s&flag != 0 }

func (s StopStatus) String() string {
	var parts []string
	if s.Has(StopDeparture) {
		parts = append(parts, "departure")
	}
	if s.Has(StopArrival) {
		parts = append(parts, "arrival")
	}
	if s.Has(StopTransfer) {
		parts = append(parts, "transfer")
	}
	if s.Has(StopPass) {
		parts = append(parts, "pass")
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "+")
}

// MarshalText encodes the status as its String form.
func (s StopStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the form written by MarshalText.
func (s *StopStatus) UnmarshalText(b []byte) error {
	text := string(b)
	if text == "unknown" {
		*s = 0
		return nil
	}
	var out StopStatus
	for _, part := range strings.Split(text, "+") {
		switch part {
		case "departure":
			out |= StopDeparture
		case "arrival":
			out |= StopArrival
		case "transfer":
			out |= StopTransfer
		case "pass":
			out |= StopPass
		default:
			return fmt.Errorf("unknown stop status %q", part)
		}
	}
	*s = out
	return nil
}

// fallbackHopMinutes is charged for a hop with no matching connection, such
// as a synthetic walk. It is a conservative estimate, not a data error.
const fallbackHopMinutes = 3

// RouteStop is one annotated stop of a materialized route. Line is the line
// taken when leaving the stop; on the arrival stop it is the line arrived on.
// AlternativeLines lists every line connecting this stop to the next one.
type RouteStop struct {
	StationID        string     `json:"station_id"`
	StationName      string     `json:"station_name"`
	Prefecture       string     `json:"prefecture"`
	Lat              float64    `json:"lat"`
	Lon              float64    `json:"lon"`
	Status           StopStatus `json:"status"`
	Line             string     `json:"line,omitempty"`
	AlternativeLines []string   `json:"alternative_lines"`
}

// materialize converts an index path into annotated stops.
func materialize(g *graph.Graph, steps []step) []RouteStop {
	n := len(steps)
	if n == 0 {
		return nil
	}

	stops := make([]RouteStop, n)
	for i, s := range steps {
		st := &g.Stations[s.node]
		stop := RouteStop{
			StationID:        st.ID,
			StationName:      st.Name,
			Prefecture:       st.Prefecture,
			Lat:              st.Latitude,
			Lon:              st.Longitude,
			AlternativeLines: []string{},
		}

		switch {
		case i == 0:
			stop.Status = StopDeparture
			if n == 1 {
				stop.Status |= StopArrival
			}
		case i == n-1:
			stop.Status = StopArrival
		case steps[i+1].line != s.line:
			stop.Status = StopTransfer
		default:
			stop.Status = StopPass
		}

		if i < n-1 {
			stop.Line = steps[i+1].line
			stop.AlternativeLines = linesBetween(g, s.node, steps[i+1].node)
		} else {
			stop.Line = s.line
		}
		stops[i] = stop
	}
	return stops
}

// linesBetween lists the distinct lines directly connecting u to v, in
// adjacency order.
func linesBetween(g *graph.Graph, u, v uint32) []string {
	lines := []string{}
	for _, e := range g.EdgesFrom(u) {
		if e.To != v || contains(lines, e.Line) {
			continue
		}
		lines = append(lines, e.Line)
	}
	return lines
}

// routeDuration sums the recorded duration of the connection used for each
// hop, charging fallbackHopMinutes when the hop has no matching connection.
func routeDuration(g *graph.Graph, stops []RouteStop) int {
	total := 0
	for i := 0; i+1 < len(stops); i++ {
		total += hopDuration(g, stops[i].StationID, stops[i+1].StationID, stops[i].Line)
	}
	return total
}

func hopDuration(g *graph.Graph, from, to, line string) int {
	u, okU := g.Index(from)
	v, okV := g.Index(to)
	if !okU || !okV {
		return fallbackHopMinutes
	}
	best := -1
	for _, e := range g.EdgesFrom(u) {
		if e.To == v && e.Line == line && (best < 0 || e.Duration < best) {
			best = e.Duration
		}
	}
	if best < 0 {
		return fallbackHopMinutes
	}
	return best
}

// transferCount counts the transfer stops of a route.
func transferCount(stops []RouteStop) int {
	n := 0
	for _, s := range stops {
		if s.Status.Has(StopTransfer) {
			n++
		}
	}
	return n
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
