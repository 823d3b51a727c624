package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	"rail_router/pkg/dataset"
	"rail_router/pkg/line"
	"rail_router/pkg/network"
	"rail_router/pkg/routing"
	"rail_router/pkg/station"
)

const (
	maxRoutesLimit       = 50
	defaultNearbyLines   = 5
	maxNearbyLines       = 30
	cacheCleanupInterval = 10 * time.Minute
)

// Deps are the query backends used by the handlers.
type Deps struct {
	Router   routing.Router
	Stations *station.Index
	Lines    *line.Index
	Stats    network.Stats
}

// DepsFor wires the handlers to a network.
func DepsFor(n *network.Network) Deps {
	return Deps{Router: n.Engine, Stations: n.Stations, Lines: n.Lines, Stats: n.Stats()}
}

// RouteDefaults apply when a route query omits a parameter.
type RouteDefaults struct {
	MaxRoutes int
	Filter    routing.Filter
	CacheTTL  time.Duration // 0 disables the route cache
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	deps     Deps
	defaults RouteDefaults
	routes   *cache.Cache // nil when caching is disabled
}

// NewHandlers creates handlers over deps.
func NewHandlers(deps Deps, defaults RouteDefaults) *Handlers {
	if defaults.MaxRoutes <= 0 {
		defaults.MaxRoutes = routing.DefaultMaxRoutes
	}
	h := &Handlers{deps: deps, defaults: defaults}
	if defaults.CacheTTL > 0 {
		h.routes = cache.New(defaults.CacheTTL, cacheCleanupInterval)
	}
	return h
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.deps.Stats.Stations == 0 {
		status = "no_data"
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: status})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Stats: h.deps.Stats}
	if h.routes != nil {
		resp.CachedRoutes = h.routes.ItemCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSearchStations handles GET /api/v1/stations?q=&lat=&lon=.
func (h *Handlers) HandleSearchStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_parameter", "q")
		return
	}
	var loc *station.Location
	if q.Has("lat") || q.Has("lon") {
		lat, lon, err := parseCoord(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
			return
		}
		loc = &station.Location{Lat: lat, Lon: lon}
	}
	writeJSON(w, http.StatusOK, StationsResponse{Stations: nonNilStations(h.deps.Stations.Search(query, loc))})
}

// HandleGetStation handles GET /api/v1/stations/{id}.
func (h *Handlers) HandleGetStation(w http.ResponseWriter, r *http.Request) {
	st, ok := h.deps.Stations.Get(urlParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_station", "id")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleNearestStation handles GET /api/v1/stations/nearest?lat=&lon=.
func (h *Handlers) HandleNearestStation(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoord(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}
	st, dist, ok := h.deps.Stations.Nearest(lat, lon)
	if !ok {
		writeError(w, http.StatusNotFound, "no_station", "")
		return
	}
	writeJSON(w, http.StatusOK, NearestStationResponse{Station: *st, DistanceMeters: math.Round(dist*10) / 10})
}

// HandleSearchLines handles GET /api/v1/lines?q=. An empty query lists all lines.
func (h *Handlers) HandleSearchLines(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	var lines []string
	if query == "" {
		lines = h.deps.Lines.Lines()
	} else {
		lines = h.deps.Lines.Search(query)
	}
	writeJSON(w, http.StatusOK, LinesResponse{Lines: nonNilStrings(lines)})
}

// HandleNearbyLines handles GET /api/v1/lines/nearby?lat=&lon=&limit=.
func (h *Handlers) HandleNearbyLines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon, err := parseCoord(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}
	limit, err := parseInt(q.Get("limit"), defaultNearbyLines, 1, maxNearbyLines)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "limit")
		return
	}
	writeJSON(w, http.StatusOK, LinesResponse{Lines: nonNilStrings(h.deps.Stations.NearbyLines(lat, lon, limit))})
}

// HandleLineStations handles GET /api/v1/lines/{name}/stations.
func (h *Handlers) HandleLineStations(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	stations := h.deps.Lines.Stations(name)
	if len(stations) == 0 {
		writeError(w, http.StatusNotFound, "unknown_line", "name")
		return
	}
	writeJSON(w, http.StatusOK, LineStationsResponse{Line: name, Stations: stations})
}

// routeQuery is a validated GET /api/v1/routes request.
type routeQuery struct {
	from, to  string
	via       []string
	maxRoutes int
	filter    routing.Filter
}

func (q routeQuery) key() string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%t\x00%t",
		q.from, q.to, strings.Join(q.via, ","), q.maxRoutes, q.filter.AllowShinkansen, q.filter.AllowLimitedExpress)
}

// HandleRoutes handles GET /api/v1/routes. The shinkansen and
// limited_express filters cannot be combined with via.
func (h *Handlers) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	rq, field, ok := h.parseRouteQuery(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", field)
		return
	}
	for _, id := range append([]string{rq.from, rq.to}, rq.via...) {
		if _, known := h.deps.Stations.Get(id); !known {
			writeError(w, http.StatusNotFound, "unknown_station", id)
			return
		}
	}

	var routes []routing.Route
	if h.routes != nil {
		if v, hit := h.routes.Get(rq.key()); hit {
			routes = v.([]routing.Route)
		}
	}
	if routes == nil {
		var err error
		if len(rq.via) > 0 {
			routes, err = h.deps.Router.FindRouteVia(r.Context(), rq.from, rq.to, rq.via, rq.maxRoutes)
		} else {
			routes, err = h.deps.Router.FindMultipleRoutes(r.Context(), rq.from, rq.to, rq.maxRoutes, rq.filter)
		}
		if err != nil {
			writeSearchError(w, r, err)
			return
		}
		if h.routes != nil {
			h.routes.SetDefault(rq.key(), routes)
		}
	}
	if len(routes) == 0 {
		writeError(w, http.StatusNotFound, "no_route_found", "")
		return
	}

	resp := RoutesResponse{From: rq.from, To: rq.to, Via: rq.via, Routes: make([]RouteJSON, len(routes))}
	for i := range routes {
		resp.Routes[i] = RouteJSON{Route: routes[i], Score: routes[i].Score()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) parseRouteQuery(q url.Values) (routeQuery, string, bool) {
	rq := routeQuery{
		from:   strings.TrimSpace(q.Get("from")),
		to:     strings.TrimSpace(q.Get("to")),
		filter: h.defaults.Filter,
	}
	if rq.from == "" {
		return rq, "from", false
	}
	if rq.to == "" {
		return rq, "to", false
	}
	for _, v := range strings.Split(q.Get("via"), ",") {
		if v = strings.TrimSpace(v); v != "" {
			rq.via = append(rq.via, v)
		}
	}

	var err error
	if rq.maxRoutes, err = parseInt(q.Get("max"), h.defaults.MaxRoutes, 1, maxRoutesLimit); err != nil {
		return rq, "max", false
	}
	if len(rq.via) > 0 {
		// Via searches always allow every train category.
		for _, name := range []string{"shinkansen", "limited_express"} {
			if q.Has(name) {
				return rq, name, false
			}
		}
		rq.filter = routing.AllowAll
		return rq, "", true
	}
	if rq.filter.AllowShinkansen, err = parseBool(q.Get("shinkansen"), rq.filter.AllowShinkansen); err != nil {
		return rq, "shinkansen", false
	}
	if rq.filter.AllowLimitedExpress, err = parseBool(q.Get("limited_express"), rq.filter.AllowLimitedExpress); err != nil {
		return rq, "limited_express", false
	}
	return rq, "", true
}

// HandleAlternatives handles GET /api/v1/alternatives?from=&to=.
func (h *Handlers) HandleAlternatives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "missing_parameter", "from,to")
		return
	}
	writeJSON(w, http.StatusOK, AlternativesResponse{
		From:  from,
		To:    to,
		Lines: nonNilStrings(h.deps.Router.AlternativeLines(from, to)),
	})
}

func writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		slog.Error("route search failed", "err", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func urlParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func parseCoord(q url.Values) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err = strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, validateCoord(lat, lon)
}

func validateCoord(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func parseInt(s string, def, min, max int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, min, max)
	}
	return n, nil
}

func parseBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilStations(s []dataset.Station) []dataset.Station {
	if s == nil {
		return []dataset.Station{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}
