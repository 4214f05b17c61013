package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/damon-go/internal/logger"
)

// Storage is durable client-side key/value state: string values under
// string keys, read and written synchronously.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
}

// MemoryStorage keeps values in process memory only.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStorage) SetItem(key, value string) error {
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
	return nil
}

// SQLiteStorage persists items in a SQLite database. The database is opened
// lazily and created on first use. If opening the DB or executing queries
// fails, it falls back to in-memory storage for the rest of the session.
type SQLiteStorage struct {
	path string

	once    sync.Once
	db      *sql.DB
	initErr error

	mem *MemoryStorage
}

// NewSQLiteStorage returns a storage backed by the database file at path.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path, mem: NewMemoryStorage()}
}

// initDB opens the SQLite database and creates the items table if it doesn't exist.
func (s *SQLiteStorage) initDB() {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.initErr = err
			logger.L.Warn("storage dir creation failed; using in-memory storage", "error", err)
			return
		}
	}
	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory storage", "error", err)
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS items (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`); err != nil {
		s.initErr = err
		db.Close()
		logger.L.Warn("sqlite table creation failed; using in-memory storage", "error", err)
		return
	}
	s.db = db
	logger.L.Info("sqlite storage initialized", "path", s.path)
}

func (s *SQLiteStorage) ready() bool {
	s.once.Do(s.initDB)
	return s.initErr == nil && s.db != nil
}

// GetItem returns the value stored under key.
func (s *SQLiteStorage) GetItem(key string) (string, bool, error) {
	if !s.ready() {
		return s.mem.GetItem(key)
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM items WHERE key = ?;`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		logger.L.Error("failed to read item from sqlite; falling back to memory", "key", key, "error", err)
		return s.mem.GetItem(key)
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value. An in-memory
// copy is always kept as fallback.
func (s *SQLiteStorage) SetItem(key, value string) error {
	if s.ready() {
		_, err := s.db.Exec(`INSERT INTO items (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, key, value)
		if err != nil {
			logger.L.Error("failed to store item in sqlite; falling back to memory", "key", key, "error", err)
		}
	}
	return s.mem.SetItem(key, value)
}

// Close releases the database handle, if one was opened.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
