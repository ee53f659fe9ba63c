// Package database manages the embedded SQLite store and its schema.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Base schema as originally shipped. Columns introduced later
// (events.creator_email, events.manage_token, rsvps.email) are applied by
// Migrate so that stores created before those columns existed are upgraded
// in place.
const baseSchema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	playlist TEXT NOT NULL DEFAULT '',
	format TEXT NOT NULL,
	location TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	video_recorded INTEGER NOT NULL DEFAULT 0,
	proficiency TEXT NOT NULL,
	artist_type TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS rsvps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id INTEGER NOT NULL,
	user_identifier TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
`

// The empty-email predicate keeps index creation idempotent on stores whose
// legacy rsvps rows were backfilled with the '' placeholder.
const uniqueRSVPIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_rsvps_event_email
	ON rsvps(event_id, email) WHERE email <> '';
`

// addedColumns lists every column introduced after the base schema, in the
// order it was introduced.
var addedColumns = []struct {
	table, column, alter string
}{
	{"events", "creator_email", "ALTER TABLE events ADD COLUMN creator_email TEXT NOT NULL DEFAULT ''"},
	{"events", "manage_token", "ALTER TABLE events ADD COLUMN manage_token TEXT NOT NULL DEFAULT ''"},
	{"rsvps", "email", "ALTER TABLE rsvps ADD COLUMN email TEXT NOT NULL DEFAULT ''"},
}

// Open connects to the SQLite store at path, verifies the connection, and
// brings the schema up to date. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string, log zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection to :memory: gets its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db, log); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate guarantees the full current column set. It is idempotent: the
// base tables are created only if absent, and each later-added column is
// probed with a one-row read before the additive ALTER runs. Existing data
// is never dropped or rewritten.
func Migrate(ctx context.Context, db *sqlx.DB, log zerolog.Logger) error {
	if _, err := db.ExecContext(ctx, baseSchema); err != nil {
		return fmt.Errorf("create base schema: %w", err)
	}

	for _, c := range addedColumns {
		probe := fmt.Sprintf("SELECT %s FROM %s LIMIT 1", c.column, c.table)
		if _, err := db.ExecContext(ctx, probe); err != nil {
			if !isMissingColumn(err) {
				return fmt.Errorf("probe %s.%s: %w", c.table, c.column, err)
			}
			log.Info().Str("table", c.table).Str("column", c.column).Msg("adding missing column")
			if _, err := db.ExecContext(ctx, c.alter); err != nil {
				return fmt.Errorf("add column %s.%s: %w", c.table, c.column, err)
			}
		}
	}

	if _, err := db.ExecContext(ctx, uniqueRSVPIndex); err != nil {
		return fmt.Errorf("create rsvp unique index: %w", err)
	}
	return nil
}

// isMissingColumn reports whether err is SQLite's complaint about a column
// that does not exist. This is the expected, recoverable probe outcome on
// a pre-migration store.
func isMissingColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such column")
}
