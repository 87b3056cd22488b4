// Package store provides SQLite-backed persistence for rules and analysis
// history. Both stores hang off one database handle so the CLI and server
// share a single file.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
)

const ddl = `
CREATE TABLE IF NOT EXISTS rules (
	id          TEXT PRIMARY KEY,
	scope       TEXT NOT NULL,
	document_id TEXT NOT NULL DEFAULT '',
	text        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rules_scope ON rules(scope, document_id);

CREATE TABLE IF NOT EXISTS analyses (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL,
	filename     TEXT NOT NULL DEFAULT '',
	score        INTEGER NOT NULL,
	level        TEXT NOT NULL,
	result_json  TEXT NOT NULL,
	generated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_generated ON analyses(generated_at);
`

// Store is the unified SQLite storage handle.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates (or opens) the database under dataDir. An empty dataDir
// defaults to ~/.complilint/data.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".complilint", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "complilint.db")

	// WAL mode keeps concurrent API reads from blocking on writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Rules returns a rules.Repository backed by this store.
func (s *Store) Rules() rules.Repository {
	return &ruleStore{store: s}
}

// History returns the analysis history store.
func (s *Store) History() *HistoryStore {
	return &HistoryStore{store: s}
}
