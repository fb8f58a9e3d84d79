package collector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
)

// Timestamps are stored as RFC 3339 text with the collector's offset so hour and day stay local when read back.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		machine TEXT NOT NULL,
		energy REAL NOT NULL,
		timestamp TEXT NOT NULL,
		hour INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readings_machine ON readings(machine);`

type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and its readings table.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string {
	return "sqlite"
}

func (s *SQLite) Write(ctx context.Context, readings []meter.Reading) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO readings(machine, energy, timestamp, hour) VALUES(?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		_, err := stmt.ExecContext(ctx, r.Machine, r.Energy, r.Timestamp.Format(time.RFC3339Nano), r.Hour)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting reading for %s: %w", r.Machine, err)
		}
	}
	return tx.Commit()
}

// Readings returns every stored reading in insertion order.
func (s *SQLite) Readings(ctx context.Context) ([]meter.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT machine, energy, timestamp, hour FROM readings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error querying readings: %w", err)
	}
	defer rows.Close()

	var readings []meter.Reading
	for rows.Next() {
		var r meter.Reading
		var ts string
		if err := rows.Scan(&r.Machine, &r.Energy, &ts, &r.Hour); err != nil {
			return nil, err
		}
		r.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("error parsing timestamp %q: %w", ts, err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
