package api

import (
	"rail_router/pkg/dataset"
	"rail_router/pkg/network"
	"rail_router/pkg/routing"
)

// StationsResponse is the JSON response for GET /api/v1/stations.
type StationsResponse struct {
	Stations []dataset.Station `json:"stations"`
}

// NearestStationResponse is the JSON response for GET /api/v1/stations/nearest.
type NearestStationResponse struct {
	Station        dataset.Station `json:"station"`
	DistanceMeters float64         `json:"distance_meters"`
}

// LinesResponse lists line names.
type LinesResponse struct {
	Lines []string `json:"lines"`
}

// LineStationsResponse is the JSON response for GET /api/v1/lines/{name}/stations.
type LineStationsResponse struct {
	Line     string            `json:"line"`
	Stations []dataset.Station `json:"stations"`
}

// RouteJSON is a ranked route with its score.
type RouteJSON struct {
	routing.Route
	Score int `json:"score"`
}

// RoutesResponse is the JSON response for GET /api/v1/routes.
type RoutesResponse struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Via    []string    `json:"via,omitempty"`
	Routes []RouteJSON `json:"routes"`
}

// AlternativesResponse is the JSON response for GET /api/v1/alternatives.
type AlternativesResponse struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Lines []string `json:"lines"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	network.Stats
	CachedRoutes int `json:"cached_routes"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
