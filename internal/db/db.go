package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store is an open database handle plus the dialect its queries are written for.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

// Close closes the underlying pool.
func (s *Store) Close() error { return s.DB.Close() }

// Conn returns a DBTX for non-transactional reads and writes.
func (s *Store) Conn() DBTX { return Bind(s.DB, s.Dialect) }

// Open opens the database for driver ("sqlite" or "postgres") and runs
// migrations.
func Open(driver, dsn string) (*Store, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite":
		return OpenSQLite(dsn)
	case "postgres", "postgresql", "pgx":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// OpenSQLite opens a SQLite database at the given path.
// If path is ":memory:", uses a single-connection in-memory database.
// File databases get WAL mode, foreign keys, a busy timeout and immediate
// transactions on every pooled connection.
func OpenSQLite(path string) (*Store, error) {
	var dsn string
	memory := path == ":memory:"
	if memory {
		dsn = path
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	store := &Store{DB: db, Dialect: SQLite}
	if err := Migrate(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

// OpenPostgres opens a PostgreSQL database through the pgx stdlib driver.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	store := &Store{DB: db, Dialect: Postgres}
	if err := Migrate(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}
