package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slog"
)

// Load reads a dataset from path. The format is chosen by extension:
// .json for a JSON document, .db/.sqlite/.sqlite3 for a SQLite file.
// Invalid records are dropped (see Clean).
func Load(ctx context.Context, path string) (*Dataset, error) {
	var (
		d   *Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		d, err = ReadJSON(f)
	case ".db", ".sqlite", ".sqlite3":
		d, err = ReadSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if rep := d.Clean(); rep.Dropped() > 0 {
		slog.Warn("dropped invalid dataset records",
			"stations", rep.InvalidStations,
			"connections", rep.InvalidConnections,
			"lines", rep.InvalidLines)
	}
	return d, nil
}

// LoadOrEmpty is Load that never fails: a missing or malformed dataset
// yields an empty dataset and a logged warning.
func LoadOrEmpty(ctx context.Context, path string) *Dataset {
	d, err := Load(ctx, path)
	if err != nil {
		slog.Warn("dataset unavailable, continuing with an empty network", "path", path, "err", err)
		return &Dataset{}
	}
	return d
}

// Write stores d at path, choosing the format by extension as Load does.
func Write(ctx context.Context, path string, d *Dataset) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return WriteJSON(path, d)
	case ".db", ".sqlite", ".sqlite3":
		return WriteSQLite(ctx, path, d)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
