// Package dataset holds the static railway dataset: stations, connections
// between them, and optional phonetic line readings.
package dataset

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"
)

// WalkLine marks a pedestrian connection between two nearby stations.
const WalkLine = "walk"

// Station is a railway station. ID is the stable external key.
type Station struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name"`
	Prefecture string   `json:"prefecture"`
	Latitude   float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Lines      []string `json:"lines"`
	Aliases    []string `json:"aliases,omitempty"`
}

// HasLine reports whether the station lists the named line.
func (s *Station) HasLine(name string) bool {
	for _, l := range s.Lines {
		if l == name {
			return true
		}
	}
	return false
}

// Connection is an undirected edge between two stations on one line.
type Connection struct {
	From            string `json:"from" validate:"required"`
	To              string `json:"to" validate:"required"`
	Line            string `json:"line" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
}

// Line carries the phonetic reading of a line name for fuzzy search.
type Line struct {
	Name    string `json:"name" validate:"required"`
	Reading string `json:"reading"`
}

// Dataset is the raw input the network graph is built from.
type Dataset struct {
	Stations    []Station    `json:"stations"`
	Connections []Connection `json:"connections"`
	Lines       []Line       `json:"lines,omitempty"`
}

// ErrUnsupportedFormat is returned when a dataset path has an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// CleanReport counts the records dropped by Clean.
type CleanReport struct {
	InvalidStations    int
	InvalidConnections int
	InvalidLines       int
}

// Dropped returns the total number of dropped records.
func (r CleanReport) Dropped() int {
	return r.InvalidStations + r.InvalidConnections + r.InvalidLines
}

var validate = validator.New()

// Clean removes records that fail validation, in place, preserving order.
// A malformed record never fails the load; it is skipped and counted.
func (d *Dataset) Clean() CleanReport {
	var rep CleanReport

	stations := d.Stations[:0]
	for _, s := range d.Stations {
		if err := validate.Struct(s); err != nil {
			slog.Debug("dropping invalid station", "id", s.ID, "err", err)
			rep.InvalidStations++
			continue
		}
		stations = append(stations, s)
	}
	d.Stations = stations

	conns := d.Connections[:0]
	for _, c := range d.Connections {
		if err := validate.Struct(c); err != nil {
			slog.Debug("dropping invalid connection", "from", c.From, "to", c.To, "err", err)
			rep.InvalidConnections++
			continue
		}
		conns = append(conns, c)
	}
	d.Connections = conns

	lines := d.Lines[:0]
	for _, l := range d.Lines {
		if err := validate.Struct(l); err != nil {
			rep.InvalidLines++
			continue
		}
		lines = append(lines, l)
	}
	d.Lines = lines

	return rep
}
