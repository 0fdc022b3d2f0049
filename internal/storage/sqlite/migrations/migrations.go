// Package migrations holds the individual, idempotent schema migrations
// applied to a corectl database, one small function per migration, in
// the style of the teacher's internal/storage/sqlite/migrations package:
// each function takes the *sql.DB and uses CREATE TABLE / CREATE INDEX
// IF NOT EXISTS, so re-running a migration against an already-migrated
// database is a no-op.
package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateBaseSchema creates the five core tables spec.md 6 names. The
// interests table backing the callback registry's persistence is created
// separately, by MigrateInterestsTable.
func MigrateBaseSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			value TEXT NOT NULL DEFAULT '{}',
			display_name TEXT NOT NULL DEFAULT '',
			ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS category_children (
			parent TEXT NOT NULL,
			child TEXT NOT NULL,
			UNIQUE(parent, child)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_category_children_parent ON category_children(parent)`,
		`CREATE INDEX IF NOT EXISTS idx_category_children_child ON category_children(child)`,
		`CREATE TABLE IF NOT EXISTS scheduled_processes (
			name TEXT PRIMARY KEY,
			script TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			schedule_name TEXT NOT NULL,
			process_name TEXT NOT NULL,
			schedule_type SMALLINT NOT NULL,
			schedule_time TEXT,
			schedule_day SMALLINT,
			schedule_interval INTEGER,
			repeat SMALLINT,
			exclusive BOOLEAN NOT NULL DEFAULT 0,
			paused BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			process_name TEXT NOT NULL,
			state INTEGER NOT NULL,
			start_time TIMESTAMP,
			end_time TIMESTAMP,
			pid INTEGER,
			exit_code INTEGER,
			reason VARCHAR(255)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("base schema: %w", err)
		}
	}
	return nil
}

// MigrateInterestsTable adds the interests table backing the callback
// registry, kept as its own migration (rather than folded into
// MigrateBaseSchema) so future migrations can follow the same one-concern
// per migration discipline the teacher's migration list uses. The argv
// column holds a JSON-encoded argument vector for interests registered
// against an external callback (internal/callback.RegisterExternal), so a
// restarting daemon can rebuild a working handler instead of only the bare
// subscription; it is empty for interests backed by an in-process handler,
// which must be re-registered under the same id by the process that owns it.
func MigrateInterestsTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS interests (
		category TEXT NOT NULL,
		callback_id TEXT NOT NULL,
		argv TEXT NOT NULL DEFAULT '',
		UNIQUE(category, callback_id)
	)`)
	if err != nil {
		return fmt.Errorf("interests table: %w", err)
	}
	return nil
}
