// Package congestiondb keeps a log of congestion state changes.
// The database is written only by the read loop of the serve command.
package congestiondb

import (
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"

	"github.com/NotCoffee418/dbmigrator"
	"github.com/NotCoffee418/p1plus_monitor/pkg/pathing"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Open opens the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := pathing.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open congestion db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if !migrateUp(db) {
		db.Close()
		return nil, ErrMigrationFailed
	}

	return &Store{db: db}, nil
}

// migrateUp applies the embedded migrations and reports success.
var migrateUp = func(db *sql.DB) bool {
	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	return <-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertEvent(event *CongestionEvent) error {
	_, err := s.db.Exec(
		"INSERT INTO congestion_events (timestamp, identifier, state, active_limits, message, demo) "+
			"VALUES (?, ?, ?, ?, ?, ?)",
		event.Timestamp,
		event.Identifier,
		event.State,
		event.ActiveLimits,
		event.Message,
		event.Demo,
	)
	if err != nil {
		return err
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(limit int) ([]CongestionEvent, error) {
	rows, err := s.db.Query(
		"SELECT id, timestamp, identifier, state, active_limits, message, demo "+
			"FROM congestion_events ORDER BY timestamp DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]CongestionEvent, 0, limit)
	for rows.Next() {
		var e CongestionEvent
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Identifier, &e.State, &e.ActiveLimits, &e.Message, &e.Demo); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
