package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrUnknownDriver is returned for an unsupported DB_TYPE
var ErrUnknownDriver = errors.New("unknown database type")

// Store is the durable per-user progress store
type Store struct {
	db    *sqlx.DB
	locks *userLocks
}

// driverName maps DB_TYPE values to registered database/sql drivers
func driverName(dbType string) (string, error) {
	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3", "":
		return "sqlite3", nil
	case "postgres":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDriver, dbType)
}

// Open establishes a connection to the database and initializes the schema
func Open(dbType, dsn string) (*Store, error) {
	driver, err := driverName(dbType)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, locks: newUserLocks()}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func (s *Store) initializeSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	// One row per user, superseded when a new day starts
	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_progress (
			user_id BIGINT PRIMARY KEY,
			verb TEXT NOT NULL,
			day_key TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_progress table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_tenses (
			user_id BIGINT NOT NULL,
			tense TEXT NOT NULL,
			day_key TEXT NOT NULL,
			sent_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, tense, day_key),
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create sent_tenses table: %w", err)
	}

	return nil
}
