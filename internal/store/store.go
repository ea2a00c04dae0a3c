package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database. The store keeps a single
// connection, so the database lives as long as the Store.
const MemoryPath = ":memory:"

// migration upgrades a database to version. Statements must be idempotent:
// schema.sql already holds the latest shape for fresh databases.
type migration struct {
	version int
	stmt    string
}

// migrations run in order for databases whose user_version is below theirs.
var migrations = []migration{
	{
		version: 1,
		stmt:    `CREATE INDEX IF NOT EXISTS idx_query_log_session_seq ON query_log(session_id, seq)`,
	},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Store persists modelq sessions, their key/value state and query logs in
// SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path and brings its schema
// up to date. Pass MemoryPath for a throwaway store.
//
// File databases run in WAL mode with NORMAL synchronous writes and a
// five second busy timeout. Foreign keys are always enforced, so deleting
// a session removes its values and query log.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	if err := applyPragmas(db, pragmasFor(path)); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func pragmasFor(path string) []string {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path == MemoryPath {
		return pragmas
	}
	return append(pragmas,
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	)
}

func applyPragmas(db *sql.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// migrate creates missing tables, then runs the migrations newer than the
// database's user_version and records the new version.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		version = m.version
	}

	// PRAGMA does not take bound parameters.
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
