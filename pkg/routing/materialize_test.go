package routing

import (
	"context"
	"encoding/json"
	"testing"

	"rail_router/pkg/dataset"
)

func TestMaterializeScenario(t *testing.T) {
	g := buildScenarioGraph(t)
	e := NewEngine(g)

	stops, err := e.FindSingleRoute(context.Background(), "S1", "S4")
	if err != nil {
		t.Fatalf("FindSingleRoute: %v", err)
	}
	if ids := stopIDs(stops); !equalStrings(ids, []string{"S1", "S2", "S3", "S4"}) {
		t.Fatalf("stops = %v, want [S1 S2 S3 S4]", ids)
	}

	wantStatus := []StopStatus{StopDeparture, StopPass, StopPass, StopArrival}
	for i, s := range stops {
		if s.Status != wantStatus[i] {
			t.Errorf("stop %d status = %v, want %v", i, s.Status, wantStatus[i])
		}
		if s.Line != "A" {
			t.Errorf("stop %d line = %q, want A", i, s.Line)
		}
		if s.StationName != "Station "+s.StationID {
			t.Errorf("stop %d name = %q", i, s.StationName)
		}
	}
	if alt := stops[1].AlternativeLines; !equalStrings(alt, []string{"A", "B"}) {
		t.Errorf("S2 alternatives = %v, want [A B]", alt)
	}
	if alt := stops[3].AlternativeLines; alt == nil || len(alt) != 0 {
		t.Errorf("arrival alternatives = %v, want empty", alt)
	}

	if got := e.RouteDuration(stops); got != 14 {
		t.Errorf("RouteDuration = %d, want 14", got)
	}
	if alt := e.AlternativeLines("S2", "S3"); !equalStrings(alt, []string{"A", "B"}) {
		t.Errorf("AlternativeLines(S2, S3) = %v, want [A B]", alt)
	}
}

func TestMaterializeSingleStop(t *testing.T) {
	g := buildScenarioGraph(t)
	e := NewEngine(g)

	stops, err := e.FindSingleRoute(context.Background(), "S3", "S3")
	if err != nil {
		t.Fatalf("FindSingleRoute: %v", err)
	}
	if len(stops) != 1 {
		t.Fatalf("len(stops) = %d, want 1", len(stops))
	}
	s := stops[0]
	if !s.Status.Has(StopDeparture) || !s.Status.Has(StopArrival) {
		t.Errorf("status = %v, want departure+arrival", s.Status)
	}
	if len(s.AlternativeLines) != 0 {
		t.Errorf("alternatives = %v, want none", s.AlternativeLines)
	}
	if got := e.RouteDuration(stops); got != 0 {
		t.Errorf("RouteDuration = %d, want 0", got)
	}
}

func TestMaterializeTransfer(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, []dataset.Connection{
		{From: "a", To: "b", Line: "Red", DurationMinutes: 3},
		{From: "b", To: "c", Line: "Red", DurationMinutes: 3},
		{From: "c", To: "d", Line: "Blue", DurationMinutes: 4},
	})
	e := NewEngine(g)

	stops, err := e.FindSingleRoute(context.Background(), "a", "d")
	if err != nil {
		t.Fatalf("FindSingleRoute: %v", err)
	}
	wantStatus := []StopStatus{StopDeparture, StopPass, StopTransfer, StopArrival}
	wantLine := []string{"Red", "Red", "Blue", "Blue"}
	for i, s := range stops {
		if s.Status != wantStatus[i] {
			t.Errorf("stop %d status = %v, want %v", i, s.Status, wantStatus[i])
		}
		if s.Line != wantLine[i] {
			t.Errorf("stop %d line = %q, want %q", i, s.Line, wantLine[i])
		}
	}
	if n := transferCount(stops); n != 1 {
		t.Errorf("transferCount = %d, want 1", n)
	}
}

func TestMaterializeFromHops(t *testing.T) {
	g := buildScenarioGraph(t)
	e := NewEngine(g)

	stops := e.Materialize([]Hop{
		{StationID: "S1"},
		{StationID: "S2", Line: "A", Duration: 5},
		{StationID: "S3", Line: "B", Duration: 7},
	})
	if len(stops) != 3 {
		t.Fatalf("len(stops) = %d, want 3", len(stops))
	}
	if stops[1].Status != StopTransfer {
		t.Errorf("S2 status = %v, want transfer", stops[1].Status)
	}
	if got := e.RouteDuration(stops); got != 12 {
		t.Errorf("RouteDuration = %d, want 12", got)
	}

	if got := e.Materialize([]Hop{{StationID: "S1"}, {StationID: "missing"}}); got != nil {
		t.Errorf("Materialize with unknown id = %v, want nil", got)
	}
	if got := e.Materialize(nil); got != nil {
		t.Errorf("Materialize(nil) = %v, want nil", got)
	}
}

func TestRouteDurationFallback(t *testing.T) {
	g := buildScenarioGraph(t)
	e := NewEngine(g)

	// S1 and S3 share no connection; no line C exists.
	stops := []RouteStop{
		{StationID: "S1", Line: "A"},
		{StationID: "S3", Line: "C"},
		{StationID: "S2", Line: "C"},
		{StationID: "S3"},
	}
	if got := e.RouteDuration(stops); got != fallbackHopMinutes*3 {
		t.Errorf("RouteDuration = %d, want %d", got, fallbackHopMinutes*3)
	}
}

func TestAlternativeLinesUnknown(t *testing.T) {
	e := NewEngine(buildScenarioGraph(t))
	if alt := e.AlternativeLines("S1", "missing"); alt == nil || len(alt) != 0 {
		t.Errorf("AlternativeLines = %v, want empty", alt)
	}
	if alt := e.AlternativeLines("S1", "S4"); len(alt) != 0 {
		t.Errorf("AlternativeLines(S1, S4) = %v, want empty", alt)
	}
}

func TestStopStatusText(t *testing.T) {
	tests := []struct {
		s    StopStatus
		want string
	}{
		{StopDeparture, "departure"},
		{StopDeparture | StopArrival, "departure+arrival"},
		{StopTransfer, "transfer"},
		{StopPass, "pass"},
		{0, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.s, got, tt.want)
		}
	}

	b, err := json.Marshal(RouteStop{StationID: "x", Status: StopArrival})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["status"] != "arrival" {
		t.Errorf("status = %v, want arrival", m["status"])
	}
}

func TestStopStatusTextRoundTrip(t *testing.T) {
	for _, s := range []StopStatus{
		StopDeparture,
		StopArrival,
		StopDeparture | StopArrival,
		StopTransfer,
		StopPass,
		0,
	} {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", s, err)
		}
		var got StopStatus
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != s {
			t.Errorf("round trip %q = %d, want %d", b, got, s)
		}
	}

	var s StopStatus
	for _, bad := range []string{"", "boarding", "departure+"} {
		if err := s.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("UnmarshalText(%q) = nil, want error", bad)
		}
	}

	g := buildScenarioGraph(t)
	stops, err := NewEngine(g).FindSingleRoute(context.Background(), "S1", "S4")
	if err != nil {
		t.Fatalf("FindSingleRoute: %v", err)
	}
	b, err := json.Marshal(stops)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded []RouteStop
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != len(stops) {
		t.Fatalf("decoded %d stops, want %d", len(decoded), len(stops))
	}
	for i := range stops {
		if decoded[i].Status != stops[i].Status || decoded[i].StationID != stops[i].StationID {
			t.Errorf("stop %d = %+v, want %+v", i, decoded[i], stops[i])
		}
	}
}
