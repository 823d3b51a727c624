package network

import (
	"context"
	"path/filepath"
	"testing"

	"rail_router/pkg/dataset"
	"rail_router/pkg/routing"
)

func sample() *dataset.Dataset {
	return &dataset.Dataset{
		Stations: []dataset.Station{
			{ID: "S1", Name: "Alpha", Latitude: 35.0, Longitude: 139.0, Lines: []string{"A"}},
			{ID: "S2", Name: "Beta", Latitude: 35.01, Longitude: 139.0, Lines: []string{"A", "B"}},
			{ID: "S3", Name: "Gamma", Latitude: 35.02, Longitude: 139.0, Lines: []string{"A", "B"}},
			{ID: "S4", Name: "Delta", Latitude: 35.03, Longitude: 139.0, Lines: []string{"A"}},
			{ID: "X", Name: "Island", Latitude: 36.0, Longitude: 140.0, Lines: []string{"C"}},
		},
		Connections: []dataset.Connection{
			{From: "S1", To: "S2", Line: "A", DurationMinutes: 5},
			{From: "S2", To: "S3", Line: "A", DurationMinutes: 5},
			{From: "S2", To: "S3", Line: "B", DurationMinutes: 7},
			{From: "S3", To: "S4", Line: "A", DurationMinutes: 4},
		},
	}
}

func TestNewWiresComponents(t *testing.T) {
	n := New(sample(), routing.WithWorkers(2))

	s := n.Stats()
	want := Stats{Stations: 5, Connections: 4, Lines: 3, Components: 2, LargestComponent: 4}
	if s != want {
		t.Errorf("Stats = %+v, want %+v", s, want)
	}

	stops, err := n.Engine.FindSingleRoute(context.Background(), "S1", "S4")
	if err != nil || len(stops) != 4 {
		t.Fatalf("FindSingleRoute = %d stops, %v", len(stops), err)
	}
	if got := n.Stations.Search("beta", nil); len(got) != 1 || got[0].ID != "S2" {
		t.Errorf("Search(beta) = %v", got)
	}
	if got := n.Lines.Stations("B"); len(got) != 2 {
		t.Errorf("Stations(B) = %v", got)
	}
}

func TestLoadMissingDatasetIsEmpty(t *testing.T) {
	n := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))

	if s := n.Stats(); s.Stations != 0 || s.Connections != 0 {
		t.Errorf("Stats = %+v, want empty", s)
	}
	routes, err := n.Engine.FindMultipleRoutes(context.Background(), "a", "b", 5, routing.AllowAll)
	if err != nil || len(routes) != 0 {
		t.Errorf("FindMultipleRoutes = %v, %v; want empty", routes, err)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.json")
	if err := dataset.WriteJSON(path, sample()); err != nil {
		t.Fatal(err)
	}
	n := Load(context.Background(), path)
	if s := n.Stats(); s.Stations != 5 {
		t.Errorf("Stations = %d, want 5", s.Stations)
	}
}
