// Package cache persists per-path inspection results between runs.
//
// Each row maps an absolute file path to its last-seen fingerprint: the
// content hash (when hashing was enabled), the serialised info record, and
// the (size, mtime) pair a host compares to decide whether the file needs
// re-inspection. The store is a single SQLite file created on demand.
//
// Safe for interleaved reads and writes from one process. No cross-process
// guarantee is made.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/luricodes/samuraizer/internal/errors"
)

const schema = `CREATE TABLE IF NOT EXISTS cache (
	file_path TEXT PRIMARY KEY,
	file_hash TEXT,
	file_info TEXT NOT NULL,
	size INTEGER NOT NULL,
	mtime REAL NOT NULL
)`

// Entry is a stored fingerprint for one file path
type Entry struct {
	FileHash *string `json:"file_hash"`
	FileInfo any     `json:"file_info"`
	Size     int64   `json:"size"`
	Mtime    float64 `json:"mtime"`
}

// Matches reports whether the cached fingerprint still describes a file
// with the given size and mtime, allowing the host to skip re-inspection.
func (e *Entry) Matches(size int64, mtime float64) bool {
	return e != nil && e.Size == size && e.Mtime == mtime
}

// Store is an open cache database
type Store struct {
	db *sql.DB

	mu          sync.Mutex
	schemaReady bool
}

// Open opens (or creates) the cache database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.IO(dbPath, err)
	}
	// SQLite handles one writer at a time; serialise on a single conn so
	// interleaved goroutines never trip SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Otherf("creating cache schema: %v", err)
	}
	s.schemaReady = true
	return nil
}

// Get returns the stored entry for filePath, or nil when absent.
// A stored info blob that no longer parses is reported as an error.
func (s *Store) Get(filePath string) (*Entry, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(
		"SELECT file_hash, file_info, size, mtime FROM cache WHERE file_path = ?",
		filePath,
	)

	var (
		hash     sql.NullString
		infoJSON string
		size     int64
		mtime    float64
	)
	switch err := row.Scan(&hash, &infoJSON, &size, &mtime); err {
	case nil:
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, errors.Otherf("reading cache entry for %s: %v", filePath, err)
	}

	var info any
	if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
		return nil, errors.Otherf("corrupt cache entry for %s: %v", filePath, err)
	}

	entry := &Entry{FileInfo: info, Size: size, Mtime: mtime}
	if hash.Valid {
		entry.FileHash = &hash.String
	}
	return entry, nil
}

// Set upserts the entry for filePath. The synchronous flag asks SQLite to
// fsync the write before returning; it is advisory.
func (s *Store) Set(filePath string, fileHash *string, fileInfo any, size int64, mtime float64, synchronous bool) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}

	infoJSON, err := json.Marshal(fileInfo)
	if err != nil {
		return errors.Otherf("serialising cache info for %s: %v", filePath, err)
	}

	mode := "NORMAL"
	if synchronous {
		mode = "FULL"
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA synchronous = %s", mode)); err != nil {
		return errors.Otherf("configuring cache sync mode: %v", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO cache (file_path, file_hash, file_info, size, mtime)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET
			file_hash = excluded.file_hash,
			file_info = excluded.file_info,
			size = excluded.size,
			mtime = excluded.mtime`,
		filePath, hashParam(fileHash), string(infoJSON), size, mtime,
	)
	if err != nil {
		return errors.Otherf("writing cache entry for %s: %v", filePath, err)
	}
	return nil
}

func hashParam(hash *string) any {
	if hash == nil {
		return nil
	}
	return *hash
}

// GetEntry opens dbPath for a single lookup
func GetEntry(dbPath, filePath string) (*Entry, error) {
	store, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Get(filePath)
}

// SetEntry opens dbPath for a single upsert
func SetEntry(dbPath, filePath string, fileHash *string, fileInfo any, size int64, mtime float64, synchronous bool) error {
	store, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Set(filePath, fileHash, fileInfo, size, mtime, synchronous)
}
