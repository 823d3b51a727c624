package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"rail_router/pkg/dataset"
	"rail_router/pkg/logging"
	"rail_router/pkg/network"
	"rail_router/pkg/routing"
)

func main() {
	datasetPath := flag.String("dataset", "data/network.json", "Path to dataset (.json or .db)")
	from := flag.String("from", "", "Origin station id or name")
	to := flag.String("to", "", "Destination station id or name")
	via := flag.String("via", "", "Comma-separated waypoint station ids or names")
	maxRoutes := flag.Int("max", routing.DefaultMaxRoutes, "Maximum number of routes")
	noShinkansen := flag.Bool("no-shinkansen", false, "Exclude Shinkansen lines")
	noLimitedExpress := flag.Bool("no-limited-express", false, "Exclude limited express lines")
	asJSON := flag.Bool("json", false, "Print routes as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "Search timeout")
	flag.Parse()

	logger, _ := logging.New("warn", "plain", os.Stderr)
	slog.SetDefault(logger)

	if *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "Usage: route --from <station> --to <station> [--via a,b] [--dataset network.json] [--max 5] [--no-shinkansen] [--no-limited-express] [--json]")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	n := network.Load(ctx, *datasetPath)

	origin := resolve(n, *from)
	dest := resolve(n, *to)
	var waypoints []string
	if *via != "" {
		for _, v := range strings.Split(*via, ",") {
			if v = strings.TrimSpace(v); v != "" {
				waypoints = append(waypoints, resolve(n, v))
			}
		}
	}

	var (
		routes []routing.Route
		err    error
	)
	if len(waypoints) > 0 {
		routes, err = n.Engine.FindRouteVia(ctx, origin, dest, waypoints, *maxRoutes)
	} else {
		filter := routing.Filter{AllowShinkansen: !*noShinkansen, AllowLimitedExpress: !*noLimitedExpress}
		routes, err = n.Engine.FindMultipleRoutes(ctx, origin, dest, *maxRoutes, filter)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		os.Exit(1)
	}
	if len(routes) == 0 {
		fmt.Fprintf(os.Stderr, "no route from %s to %s\n", origin, dest)
		os.Exit(2)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(routes); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	for i := range routes {
		printRoute(i+1, &routes[i])
	}
}

// resolve maps a station id or name to an id. Unknown names are passed
// through so the search reports them as unreachable.
func resolve(n *network.Network, s string) string {
	if _, ok := n.Stations.Get(s); ok {
		return s
	}
	if found := n.Stations.Search(s, nil); len(found) > 0 {
		return found[0].ID
	}
	return s
}

func printRoute(rank int, r *routing.Route) {
	fmt.Printf("#%d  %d min, %d transfer(s), score %d\n", rank, r.TotalDuration, r.Transfers, r.Score())
	for _, s := range r.Stops {
		switch {
		case s.Status.Has(routing.StopPass):
			continue
		case s.Status.Has(routing.StopArrival):
			fmt.Printf("    %-10s %s\n", s.Status, s.StationName)
		case s.Line == dataset.WalkLine:
			fmt.Printf("    %-10s %s  (walk)\n", s.Status, s.StationName)
		default:
			fmt.Printf("    %-10s %s  [%s]\n", s.Status, s.StationName, s.Line)
		}
	}
	fmt.Println()
}
