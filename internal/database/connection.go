package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("database: not found")

// Config selects the database backend.
type Config struct {
	Driver string // sqlite3 or postgres
	DSN    string // File path for sqlite3, connection string for postgres
}

// dialect holds the column types that differ between backends.
type dialect struct {
	serial string
	float  string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return dialect{serial: "INTEGER PRIMARY KEY AUTOINCREMENT", float: "REAL"}, nil
	case DriverPostgres:
		return dialect{serial: "BIGSERIAL PRIMARY KEY", float: "DOUBLE PRECISION"}, nil
	}
	return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// Connect opens the database and creates the schema if needed
func Connect(cfg Config) (*sqlx.DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite && !strings.HasPrefix(cfg.DSN, ":memory:") && !strings.HasPrefix(cfg.DSN, "file:") {
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers; one connection also keeps
		// an in-memory database alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db, d); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB, d dialect) error {
	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS sweep_runs (
			id %s,
			name TEXT NOT NULL,
			capacity INTEGER NOT NULL,
			horizon INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			feed_proportion %s NOT NULL,
			spacing TEXT NOT NULL,
			seed BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, d.serial, d.float))
	if err != nil {
		return fmt.Errorf("failed to create sweep_runs table: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS sweep_cells (
			id %s,
			run_id BIGINT NOT NULL REFERENCES sweep_runs(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			col_index INTEGER NOT NULL,
			feed_chance %[2]s NOT NULL,
			skip_chance %[2]s NOT NULL,
			avg_days_late %[2]s NOT NULL,
			abandoned_share %[2]s NOT NULL,
			trials INTEGER NOT NULL,
			UNIQUE(run_id, row_index, col_index)
		)
	`, d.serial, d.float))
	if err != nil {
		return fmt.Errorf("failed to create sweep_cells table: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			id %s,
			label TEXT NOT NULL,
			lesson_id INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(label, lesson_id)
		)
	`, d.serial))
	if err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}

	return nil
}
