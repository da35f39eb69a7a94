package database

import (
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/noah-isme/studentdesk/pkg/config"
)

//go:embed schema.sql
var schemaSQL string

// Open creates or opens the SQLite database at the configured path, applies
// the schema and seeds the default accounts when the users table is empty.
// The connection is held for the process lifetime and owned by the caller.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_fk=1&_busy_timeout=%d&_loc=UTC",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection sidesteps
	// SQLITE_BUSY between our own statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := seedUsers(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// seedUsers inserts the two default accounts on first run. Credentials are
// stored in plaintext, matching the system this replaces.
func seedUsers(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	const insert = "INSERT INTO users (username, password, role) VALUES (?, ?, ?)"
	for _, u := range [][3]string{
		{"admin", "admin", "Admin"},
		{"teacher", "teacher", "Teacher"},
	} {
		if _, err := db.Exec(insert, u[0], u[1], u[2]); err != nil {
			return fmt.Errorf("seed user %s: %w", u[0], err)
		}
	}
	return nil
}
