package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const memoryPath = ":memory:"

type Database struct {
	db      *sql.DB
	applied []string
}

// DB returns the underlying *sql.DB instance
func (d *Database) DB() *sql.DB {
	return d.db
}

// Applied lists the migrations run by the last call to New.
func (d *Database) Applied() []string {
	return d.applied
}

// New opens the SQLite database at path and brings its schema up to date.
// Use ":memory:" for a throwaway database.
func New(path string) (*Database, error) {
	if path != memoryPath && !strings.HasPrefix(path, "file:") {
		// Create the directory if it doesn't exist
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection, and an in-memory
	// database only lives as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	dbInstance := &Database{db: db}
	if err := dbInstance.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return dbInstance, nil
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// migrate runs the database migrations
func (d *Database) migrate() error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS _migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			run_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	d.applied = nil
	for _, migration := range getMigrations() {
		var count int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM _migrations WHERE name = ?`,
			migration.name,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			continue
		}

		if _, err := tx.Exec(migration.statement); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", migration.name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO _migrations (name) VALUES (?)`,
			migration.name,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.name, err)
		}
		d.applied = append(d.applied, migration.name)
	}

	return tx.Commit()
}

type migration struct {
	name      string
	statement string
}

func getMigrations() []migration {
	return []migration{
		{
			name: "initial_schema",
			statement: `
				CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					display_name TEXT NOT NULL,
					hashed_password TEXT NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);

				CREATE TRIGGER IF NOT EXISTS update_users_timestamp
				AFTER UPDATE ON users
				BEGIN
					UPDATE users SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
				END;

				-- start_time is RFC3339 text so ordering and round trips stay exact
				CREATE TABLE IF NOT EXISTS events (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					location TEXT NOT NULL DEFAULT '',
					start_time TEXT NOT NULL,
					duration_minutes INTEGER NOT NULL,
					organiser_id INTEGER NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (organiser_id) REFERENCES users(id)
				);

				CREATE TRIGGER IF NOT EXISTS update_events_timestamp
				AFTER UPDATE ON events
				BEGIN
					UPDATE events SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
				END;
			`,
		},
		{
			name: "relationship_tables",
			statement: `
				-- relation: contact, sent_invite, received_invite, calendar, created_event, event_invite
				CREATE TABLE IF NOT EXISTS user_relations (
					user_id INTEGER NOT NULL,
					relation TEXT NOT NULL,
					other_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
					PRIMARY KEY (user_id, relation, position)
				);

				CREATE INDEX IF NOT EXISTS idx_user_relations_other
				ON user_relations (relation, other_id);

				-- role: attendee, invitee
				CREATE TABLE IF NOT EXISTS event_members (
					event_id INTEGER NOT NULL,
					role TEXT NOT NULL,
					user_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
					FOREIGN KEY (user_id) REFERENCES users(id),
					PRIMARY KEY (event_id, role, position)
				);
			`,
		},
	}
}
