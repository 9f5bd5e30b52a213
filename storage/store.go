package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	collection_id TEXT NOT NULL,
	owner_id      TEXT NOT NULL,
	content       TEXT NOT NULL,
	source        TEXT NOT NULL,
	metadata      TEXT,
	embedding     BLOB NOT NULL,
	created_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection_id);
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(collection_id, source);

CREATE TABLE IF NOT EXISTS api_keys (
	key        TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Store is the SQLite-backed persistence layer. It hands out the document
// and API-key stores that share the underlying connection pool.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the SQLite database at path and applies the
// schema. Pass ":memory:" for an in-process database, used by tests.
func NewStore(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		// WAL mode for better concurrency under parallel requests.
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// An in-memory database exists per connection; pin the pool to one.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Documents returns the document store backed by this database.
func (s *Store) Documents() *DocumentStore {
	return &DocumentStore{db: s.db}
}

// APIKeys returns the API-key store backed by this database.
func (s *Store) APIKeys() *APIKeyStore {
	return &APIKeyStore{db: s.db}
}
