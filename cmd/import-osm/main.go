package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"rail_router/pkg/dataset"
	"rail_router/pkg/geo"
	"rail_router/pkg/logging"
	osmimport "rail_router/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "network.json", "Output dataset path (.json or .db)")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 35.5,139.4,35.9,140.0)")
	kanto := flag.Bool("kanto", false, "Shortcut for --bbox 34.9,138.9,37.2,140.9 (Kanto region bounding box)")
	walkRadius := flag.Float64("walk-radius", osmimport.DefaultBuildOptions().WalkRadius, "Max meters between stations joined by a walk connection (0 disables)")
	keepUnserved := flag.Bool("keep-unserved", false, "Keep stations that no imported route stops at")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger, err := logging.New(*logLevel, "plain", os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: import-osm --input <file.osm.pbf> [--output network.json|network.db] [--kanto | --bbox minLat,minLng,maxLat,maxLng] [--walk-radius 300] [--keep-unserved]")
		os.Exit(1)
	}

	opts := osmimport.DefaultBuildOptions()
	opts.WalkRadius = *walkRadius
	opts.KeepUnserved = *keepUnserved
	if *kanto {
		opts.BBox = geo.BBox{MinLat: 34.9, MaxLat: 37.2, MinLng: 138.9, MaxLng: 140.9}
	} else if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			fatal("invalid bbox format (expected minLat,minLng,maxLat,maxLng)", err)
		}
		opts.BBox = geo.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	}
	if !opts.BBox.IsZero() {
		slog.Info("using bounding box filter",
			"lat", fmt.Sprintf("[%.4f, %.4f]", opts.BBox.MinLat, opts.BBox.MaxLat),
			"lng", fmt.Sprintf("[%.4f, %.4f]", opts.BBox.MinLng, opts.BBox.MaxLng))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	// Step 1: Parse OSM data and build the dataset.
	f, err := os.Open(*input)
	if err != nil {
		fatal("failed to open input file", err)
	}
	defer f.Close()

	d, err := osmimport.Import(ctx, f, opts)
	if err != nil {
		fatal("failed to import OSM data", err)
	}

	// Step 2: Drop anything the loader would reject.
	if rep := d.Clean(); rep.Dropped() > 0 {
		slog.Warn("dropped invalid records", "stations", rep.InvalidStations, "connections", rep.InvalidConnections, "lines", rep.InvalidLines)
	}

	// Step 3: Write the dataset.
	if err := dataset.Write(ctx, *output, d); err != nil {
		fatal("failed to write dataset", err)
	}

	info, _ := os.Stat(*output)
	var sizeMB float64
	if info != nil {
		sizeMB = float64(info.Size()) / (1024 * 1024)
	}
	slog.Info("done",
		"elapsed", time.Since(start).Round(time.Second),
		"output", *output,
		"size_mb", fmt.Sprintf("%.1f", sizeMB),
		"stations", len(d.Stations),
		"connections", len(d.Connections))
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
