// Package sqlite implements the repository interfaces on SQLite via
// database/sql and the pure-Go modernc.org/sqlite driver (no CGo, works
// everywhere Go works; ":memory:" gives tests a throwaway database).
//
// SQLite has no SELECT FOR UPDATE. The per-ride exclusive lock that
// serializes seat accounting therefore lives in the service layer (see
// service.RideLocks); here WAL mode keeps reads concurrent with writes and
// the unique index on shares(ride_id, sharer_id) is the final guard against
// a first-join race.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and exposes one typed repository per
// entity, all sharing the pool. Services receive the repositories as
// interfaces; the DB itself only manages lifecycle and migrations.
type DB struct {
	conn *sql.DB

	Users    *UserRepo
	Profiles *ProfileRepo
	Rides    *RideRepo
	Shares   *ShareRepo
	Ratings  *RatingRepo
}

// New opens (or creates) the database at dbPath and runs migrations.
// Pass ":memory:" for an in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Fail now on a bad path or permissions, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Off by default in SQLite; required for the ride → share cascade.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	db.Users = &UserRepo{conn: conn}
	db.Profiles = &ProfileRepo{conn: conn}
	db.Rides = &RideRepo{conn: conn}
	db.Shares = &ShareRepo{conn: conn}
	db.Ratings = &RatingRepo{conn: conn}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL DEFAULT '',
			is_admin      INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// One profile per user; the UNIQUE on user_id enforces the 1:1.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			role       TEXT NOT NULL DEFAULT 'passenger',
			contact    TEXT NOT NULL DEFAULT '',
			vehicle    TEXT NOT NULL DEFAULT '',
			plate      TEXT NOT NULL DEFAULT '',
			capacity   INTEGER NOT NULL DEFAULT 0,
			special    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	// driver_id is '' while unassigned; assigned_at is NULL until then.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS rides (
			id                TEXT PRIMARY KEY,
			rider_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			driver_id         TEXT NOT NULL DEFAULT '',
			source            TEXT NOT NULL,
			destination       TEXT NOT NULL,
			arrival_time      DATETIME NOT NULL,
			passengers        INTEGER NOT NULL DEFAULT 1,
			sharable          INTEGER NOT NULL DEFAULT 0,
			special           TEXT NOT NULL DEFAULT '',
			status            TEXT NOT NULL DEFAULT 'open',
			assignment_status TEXT NOT NULL DEFAULT 'none',
			assigned_at       DATETIME,
			assigned_by       TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rides_rider_id ON rides(rider_id);
		CREATE INDEX IF NOT EXISTS idx_rides_driver_id ON rides(driver_id);
		CREATE INDEX IF NOT EXISTS idx_rides_destination ON rides(destination COLLATE NOCASE);
	`)
	if err != nil {
		return fmt.Errorf("creating rides table: %w", err)
	}

	// UNIQUE(ride_id, sharer_id): at most one active reservation per sharer
	// per ride, and the backstop for racing first-time joins.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS shares (
			id        TEXT PRIMARY KEY,
			ride_id   TEXT NOT NULL REFERENCES rides(id) ON DELETE CASCADE,
			sharer_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			seats     INTEGER NOT NULL DEFAULT 1,
			joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (ride_id, sharer_id)
		);
		CREATE INDEX IF NOT EXISTS idx_shares_sharer_id ON shares(sharer_id);
	`)
	if err != nil {
		return fmt.Errorf("creating shares table: %w", err)
	}

	// One rating per ride.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ratings (
			id         TEXT PRIMARY KEY,
			ride_id    TEXT NOT NULL UNIQUE REFERENCES rides(id) ON DELETE CASCADE,
			rater_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			ratee_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			score      INTEGER NOT NULL,
			review     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating ratings table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The driver does not export a stable error type for this, so we
// match the documented message prefix.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
