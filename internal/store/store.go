package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite fact graph: loaded source files and the triples each
// one contributed.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == MemoryPath {
		return NewMemoryStore()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// MemoryPath selects an in-memory database in NewStore.
const MemoryPath = ":memory:"

// NewMemoryStore opens a private in-memory database, already migrated.
// Each in-memory store is isolated from every other.
func NewMemoryStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open memory database: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT,
  triple_count    INTEGER DEFAULT 0,
  last_loaded     TIMESTAMP
);

-- Terms are stored encoded: a one-letter kind prefix (I, B, L) and the value.
CREATE TABLE IF NOT EXISTS triples (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  subject         TEXT NOT NULL,
  predicate       TEXT NOT NULL,
  object          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_triples_file ON triples(file_id);
CREATE INDEX IF NOT EXISTS idx_triples_sp ON triples(subject, predicate);
CREATE INDEX IF NOT EXISTS idx_triples_po ON triples(predicate, object);
CREATE INDEX IF NOT EXISTS idx_triples_object ON triples(object);
`

// FileByPath returns the file record for path, or nil if it was never loaded.
func (s *Store) FileByPath(ctx context.Context, path string) (*File, error) {
	f := &File{}
	var lastLoaded sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT id, path, hash, triple_count, last_loaded FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Hash, &f.TripleCount, &lastLoaded)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	f.LastLoaded = lastLoaded.Time
	return f, nil
}

// Files returns every loaded file ordered by path.
func (s *Store) Files(ctx context.Context) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, path, hash, triple_count, last_loaded FROM files ORDER BY path",
	)
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		var lastLoaded sql.NullTime
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.TripleCount, &lastLoaded); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.LastLoaded = lastLoaded.Time
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes a file record and, through the cascade, its triples.
func (s *Store) DeleteFile(ctx context.Context, fileID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// TripleCount returns the number of stored triples.
func (s *Store) TripleCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM triples").Scan(&n); err != nil {
		return 0, fmt.Errorf("triple count: %w", err)
	}
	return n, nil
}

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var v sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return v.String, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}
