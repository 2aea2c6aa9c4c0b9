// Package storage persists scan records in a SQL database. SQLite is the
// default; PostgreSQL is supported for shared deployments.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	memoryDSN = ":memory:"
)

// SQLStore implements scan.Store on top of database/sql. Each record is
// kept as a JSON document next to the columns used for lookup and
// ordering.
type SQLStore struct {
	db      *sql.DB
	dialect string
	mu      sync.RWMutex
}

// Open connects to the database for driver ("sqlite" or "postgres") and
// creates the schema if needed. For SQLite the dsn is a file path or
// ":memory:".
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "", DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

func openSQLite(path string) (*SQLStore, error) {
	if path == "" {
		path = memoryDSN
	}

	dsn := path
	if path != memoryDSN {
		// WAL mode and busy timeout for concurrent readers
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// SQLite writers.
	db.SetMaxOpenConns(1)

	store, err := newSQLStore(db, DriverSQLite)
	if err != nil {
		return nil, err
	}

	if path != memoryDSN {
		if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to restrict database file permissions")
		}
	}

	return store, nil
}

func openPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newSQLStore(db, DriverPostgres)
}

func newSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	store := &SQLStore{db: db, dialect: dialect}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		document TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create scans table: %w", err)
	}

	indexQuery := `CREATE INDEX IF NOT EXISTS idx_scans_user_created ON scans (user_id, created_at DESC, id DESC)`
	if _, err := s.db.Exec(indexQuery); err != nil {
		return fmt.Errorf("failed to create scans index: %w", err)
	}

	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
