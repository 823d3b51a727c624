package osm

import (
	"context"
	"testing"

	"github.com/paulmach/osm"

	"rail_router/pkg/dataset"
	"rail_router/pkg/geo"
	"rail_router/pkg/network"
)

func TestIsRailRoute(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "train route",
			tags: osm.Tags{{Key: "type", Value: "route"}, {Key: "route", Value: "train"}},
			want: true,
		},
		{
			name: "subway route",
			tags: osm.Tags{{Key: "type", Value: "route"}, {Key: "route", Value: "subway"}},
			want: true,
		},
		{
			name: "bus route",
			tags: osm.Tags{{Key: "type", Value: "route"}, {Key: "route", Value: "bus"}},
			want: false,
		},
		{
			name: "route master",
			tags: osm.Tags{{Key: "type", Value: "route_master"}, {Key: "route_master", Value: "train"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRailRoute(tt.tags); got != tt.want {
				t.Errorf("isRailRoute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsStation(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "railway station",
			tags: osm.Tags{{Key: "railway", Value: "station"}, {Key: "name", Value: "Tokyo"}},
			want: true,
		},
		{
			name: "halt",
			tags: osm.Tags{{Key: "railway", Value: "halt"}, {Key: "name", Value: "Kita"}},
			want: true,
		},
		{
			name: "freight station",
			tags: osm.Tags{{Key: "railway", Value: "station"}, {Key: "station", Value: "freight"}, {Key: "name", Value: "Yard"}},
			want: false,
		},
		{
			name: "unnamed station",
			tags: osm.Tags{{Key: "railway", Value: "station"}},
			want: false,
		},
		{
			name: "public transport subway station",
			tags: osm.Tags{{Key: "public_transport", Value: "station"}, {Key: "subway", Value: "yes"}, {Key: "name", Value: "Ginza"}},
			want: true,
		},
		{
			name: "bus station",
			tags: osm.Tags{{Key: "public_transport", Value: "station"}, {Key: "bus", Value: "yes"}, {Key: "name", Value: "Terminal"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStation(tt.tags); got != tt.want {
				t.Errorf("isStation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsHighSpeed(t *testing.T) {
	tests := []struct {
		tags osm.Tags
		want bool
	}{
		{osm.Tags{{Key: "name", Value: "東海道新幹線"}}, true},
		{osm.Tags{{Key: "name", Value: "JR Tokaido Line"}, {Key: "name:en", Value: "Tokaido Shinkansen"}}, true},
		{osm.Tags{{Key: "service", Value: "high_speed"}, {Key: "name", Value: "ICE 1"}}, true},
		{osm.Tags{{Key: "name", Value: "Yamanote Line"}}, false},
	}
	for _, tt := range tests {
		if got := isHighSpeed(tt.tags); got != tt.want {
			t.Errorf("isHighSpeed(%v) = %v, want %v", tt.tags, got, tt.want)
		}
	}
}

func TestIsStopRole(t *testing.T) {
	for role, want := range map[string]bool{
		"stop":            true,
		"stop_entry_only": true,
		"stop_exit_only":  true,
		"platform":        false,
		"":                false,
	} {
		if got := isStopRole(role); got != want {
			t.Errorf("isStopRole(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestAliases(t *testing.T) {
	tags := osm.Tags{
		{Key: "name", Value: "東京"},
		{Key: "name:en", Value: "Tokyo"},
		{Key: "name:ja", Value: "東京"},
		{Key: "name:ja-Hira", Value: "とうきょう"},
		{Key: "alt_name", Value: "Tokyo Station; Tokyo"},
	}
	got := aliases(tags)
	want := []string{"Tokyo", "とうきょう", "Tokyo Station"}
	if len(got) != len(want) {
		t.Fatalf("aliases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("aliases[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTravelMinutes(t *testing.T) {
	tests := []struct {
		meters    float64
		highSpeed bool
		want      int
	}{
		{0, false, 1},
		{750, false, 2},
		{1000, false, 3},
		{12000, true, 4},
		{100, true, 2},
	}
	for _, tt := range tests {
		if got := travelMinutes(tt.meters, tt.highSpeed); got != tt.want {
			t.Errorf("travelMinutes(%v, %v) = %d, want %d", tt.meters, tt.highSpeed, got, tt.want)
		}
	}
}

func TestWalkMinutes(t *testing.T) {
	tests := []struct {
		meters float64
		want   int
	}{
		{0, 1},
		{80, 1},
		{81, 2},
		{300, 4},
	}
	for _, tt := range tests {
		if got := walkMinutes(tt.meters); got != tt.want {
			t.Errorf("walkMinutes(%v) = %d, want %d", tt.meters, got, tt.want)
		}
	}
}

// fixture is a small slice of central Tokyo.
//
//	Tokyo(1) -Yamanote- Kanda(2) -Yamanote- Akihabara(3) ~walk~ Iwamotocho(4) -Shinjuku- Bakuro(6)
//	Tokyo(1) -Tohoku Shinkansen- Akihabara(3)
//
// Stop 101 is a same-name stop position near Tokyo, 102 an unnamed one near
// Kanda, 103 is too far from any station. Station 5 is served by no route.
func fixture() *ParseResult {
	return &ParseResult{
		Stations: []StationNode{
			{ID: 1, Name: "Tokyo", Aliases: []string{"東京"}, Prefecture: "Tokyo", Lat: 35.6812, Lon: 139.7671},
			{ID: 2, Name: "Kanda", Lat: 35.6918, Lon: 139.7709},
			{ID: 3, Name: "Akihabara", Lat: 35.6984, Lon: 139.7731},
			{ID: 4, Name: "Iwamotocho", Lat: 35.6970, Lon: 139.7745},
			{ID: 5, Name: "Unserved", Lat: 36.0, Lon: 140.0},
			{ID: 6, Name: "Bakuro-yokoyama", Lat: 35.6925, Lon: 139.7820},
		},
		Stops: map[osm.NodeID]StopNode{
			101: {Name: "Tokyo", Lat: 35.6830, Lon: 139.7690},
			102: {Lat: 35.6920, Lon: 139.7710},
			103: {Name: "Nowhere", Lat: 35.80, Lon: 139.90},
		},
		Routes: []RouteRelation{
			{ID: 10, Name: "Yamanote Line", Stops: []osm.NodeID{101, 102, 3, 103}},
			{ID: 11, Name: "Yamanote Line", Reading: "やまのてせん", Stops: []osm.NodeID{3, 102, 101}},
			{ID: 12, Name: "Tohoku Shinkansen", HighSpeed: true, Stops: []osm.NodeID{1, 3}},
			{ID: 13, Name: "Toei Shinjuku Line", Stops: []osm.NodeID{4, 6}},
			{ID: 14, Name: "Ghost Line", Stops: []osm.NodeID{103, 999}},
		},
	}
}

func TestBuild(t *testing.T) {
	d := Build(fixture(), DefaultBuildOptions())

	if len(d.Stations) != 5 {
		t.Fatalf("stations = %d, want 5 (unserved dropped)", len(d.Stations))
	}
	for _, s := range d.Stations {
		if s.ID == StationID(5) {
			t.Error("unserved station kept")
		}
	}

	type key struct{ from, to, line string }
	got := make(map[key]int)
	for _, c := range d.Connections {
		got[key{c.From, c.To, c.Line}] = c.DurationMinutes
	}
	wantKeys := []key{
		{"n1", "n2", "Yamanote Line"},
		{"n2", "n3", "Yamanote Line"},
		{"n1", "n3", "Tohoku Shinkansen"},
		{"n4", "n6", "Toei Shinjuku Line"},
		{"n3", "n4", dataset.WalkLine},
	}
	if len(d.Connections) != len(wantKeys) {
		t.Errorf("connections = %+v, want %d", d.Connections, len(wantKeys))
	}
	for _, k := range wantKeys {
		if _, ok := got[k]; !ok {
			t.Errorf("missing connection %+v", k)
		}
	}
	if m := got[key{"n3", "n4", dataset.WalkLine}]; m != 3 {
		t.Errorf("walk minutes = %d, want 3", m)
	}
	if m := got[key{"n1", "n3", "Tohoku Shinkansen"}]; m != 2 {
		t.Errorf("shinkansen minutes = %d, want 2", m)
	}

	if len(d.Lines) != 3 {
		t.Fatalf("lines = %+v, want 3", d.Lines)
	}
	if d.Lines[0].Name != "Yamanote Line" || d.Lines[0].Reading != "やまのてせん" {
		t.Errorf("lines[0] = %+v, want Yamanote Line with reading", d.Lines[0])
	}

	tokyo := d.Stations[0]
	if !tokyo.HasLine("Yamanote Line") || !tokyo.HasLine("Tohoku Shinkansen") || tokyo.HasLine(dataset.WalkLine) {
		t.Errorf("Tokyo lines = %v", tokyo.Lines)
	}
	if len(tokyo.Aliases) != 1 || tokyo.Prefecture != "Tokyo" {
		t.Errorf("Tokyo = %+v", tokyo)
	}

	if rep := d.Clean(); rep.Dropped() != 0 {
		t.Errorf("imported dataset has invalid records: %+v", rep)
	}
}

func TestBuildBBoxAndOptions(t *testing.T) {
	opts := DefaultBuildOptions()
	opts.BBox = geo.BBox{MinLat: 35.68, MaxLat: 35.695, MinLng: 139.76, MaxLng: 139.775}
	d := Build(fixture(), opts)

	if len(d.Stations) != 2 {
		t.Fatalf("stations = %+v, want Tokyo and Kanda", d.Stations)
	}
	if len(d.Connections) != 1 || d.Connections[0].Line != "Yamanote Line" {
		t.Errorf("connections = %+v, want one Yamanote hop", d.Connections)
	}

	opts = DefaultBuildOptions()
	opts.WalkRadius = 0
	opts.KeepUnserved = true
	d = Build(fixture(), opts)
	if len(d.Stations) != 6 {
		t.Errorf("stations = %d, want 6 with KeepUnserved", len(d.Stations))
	}
	for _, c := range d.Connections {
		if c.Line == dataset.WalkLine {
			t.Errorf("walk connection %+v with WalkRadius 0", c)
		}
	}
}

func TestBuildFeedsRouting(t *testing.T) {
	n := network.New(Build(fixture(), DefaultBuildOptions()))

	stops, err := n.Engine.FindSingleRoute(context.Background(), "n1", "n6")
	if err != nil {
		t.Fatalf("FindSingleRoute: %v", err)
	}
	if len(stops) == 0 || stops[len(stops)-1].StationID != "n6" {
		t.Fatalf("stops = %+v, want a route ending at n6", stops)
	}
	walked := false
	for _, s := range stops {
		if s.Line == dataset.WalkLine {
			walked = true
		}
	}
	if !walked {
		t.Errorf("route %+v does not use the walk connection", stops)
	}
}
