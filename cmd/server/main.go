package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"rail_router/pkg/api"
	"rail_router/pkg/config"
	"rail_router/pkg/logging"
	"rail_router/pkg/network"
	"rail_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	envFile := flag.String("env-file", ".env", "Path to .env file (ignored if missing)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	start := time.Now()

	// Load dataset and build the network. A missing dataset starts the
	// server with an empty network.
	n := network.Load(context.Background(), cfg.Dataset.Path, routing.WithWorkers(cfg.Routing.SearchWorkers))
	slog.Info("ready", "elapsed", time.Since(start).Round(time.Millisecond))

	handlers := api.NewHandlers(api.DepsFor(n), api.RouteDefaults{
		MaxRoutes: cfg.Routing.MaxRoutes,
		Filter: routing.Filter{
			AllowShinkansen:     cfg.Routing.AllowShinkansen,
			AllowLimitedExpress: cfg.Routing.AllowLimitedExpress,
		},
		CacheTTL: cfg.Routing.CacheTTL,
	})
	srv := api.NewServer(cfg.Server, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
