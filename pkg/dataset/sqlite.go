package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	id         TEXT NOT NULL,
	name       TEXT NOT NULL,
	prefecture TEXT NOT NULL DEFAULT '',
	latitude   REAL NOT NULL,
	longitude  REAL NOT NULL,
	lines      TEXT NOT NULL DEFAULT '[]',
	aliases    TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS connections (
	from_id          TEXT NOT NULL,
	to_id            TEXT NOT NULL,
	line             TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS lines (
	name    TEXT NOT NULL,
	reading TEXT NOT NULL DEFAULT ''
);
`

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// ReadSQLite loads a dataset from a SQLite file. Rows are read in insertion
// order so station order matches the order the dataset was written in.
func ReadSQLite(ctx context.Context, path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var d Dataset

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, prefecture, latitude, longitude, lines, aliases
		FROM stations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	for rows.Next() {
		var s Station
		var lines, aliases string
		if err := rows.Scan(&s.ID, &s.Name, &s.Prefecture, &s.Latitude, &s.Longitude, &lines, &aliases); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan station: %w", err)
		}
		if err := json.Unmarshal([]byte(lines), &s.Lines); err != nil {
			rows.Close()
			return nil, fmt.Errorf("station %s lines: %w", s.ID, err)
		}
		if err := json.Unmarshal([]byte(aliases), &s.Aliases); err != nil {
			rows.Close()
			return nil, fmt.Errorf("station %s aliases: %w", s.ID, err)
		}
		d.Stations = append(d.Stations, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}

	rows, err = db.QueryContext(ctx, `
		SELECT from_id, to_id, line, duration_minutes
		FROM connections ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.From, &c.To, &c.Line, &c.DurationMinutes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		d.Connections = append(d.Connections, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	// The lines table is optional.
	rows, err = db.QueryContext(ctx, `SELECT name, reading FROM lines ORDER BY rowid`)
	if err != nil {
		return &d, nil
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.Name, &l.Reading); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		d.Lines = append(d.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}

	return &d, nil
}

// WriteSQLite replaces the contents of the SQLite file at path with d.
func WriteSQLite(ctx context.Context, path string, d *Dataset) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stations", "connections", "lines"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (id, name, prefecture, latitude, longitude, lines, aliases)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stations: %w", err)
	}
	defer stStmt.Close()
	for _, s := range d.Stations {
		lines, err := marshalList(s.Lines)
		if err != nil {
			return err
		}
		aliases, err := marshalList(s.Aliases)
		if err != nil {
			return err
		}
		if _, err := stStmt.ExecContext(ctx, s.ID, s.Name, s.Prefecture, s.Latitude, s.Longitude, lines, aliases); err != nil {
			return fmt.Errorf("insert station %s: %w", s.ID, err)
		}
	}

	connStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO connections (from_id, to_id, line, duration_minutes)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare connections: %w", err)
	}
	defer connStmt.Close()
	for _, c := range d.Connections {
		if _, err := connStmt.ExecContext(ctx, c.From, c.To, c.Line, c.DurationMinutes); err != nil {
			return fmt.Errorf("insert connection %s-%s: %w", c.From, c.To, err)
		}
	}

	lineStmt, err := tx.PrepareContext(ctx, `INSERT INTO lines (name, reading) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare lines: %w", err)
	}
	defer lineStmt.Close()
	for _, l := range d.Lines {
		if _, err := lineStmt.ExecContext(ctx, l.Name, l.Reading); err != nil {
			return fmt.Errorf("insert line %s: %w", l.Name, err)
		}
	}

	return tx.Commit()
}

func marshalList(v []string) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(b), nil
}
