// Package history remembers the filenames of uploaded documents across
// sessions and tracks which one is currently in focus.
//
// The persisted form is a JSON array of filenames in append order, stored
// under a single key. The rendered form is most-recent-first: each added
// entry is prepended.
package history

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/comigor/damon-go/internal/logger"
)

// DefaultKey is the storage key holding the filename collection.
const DefaultKey = "damon_files"

// Entry is a previously uploaded document as shown in the history panel.
type Entry struct {
	Filename    string
	Highlighted bool
}

// Label is the display text of the entry.
func (e Entry) Label() string {
	return "📜 " + e.Filename
}

// Store renders and persists the upload history.
type Store struct {
	storage Storage
	key     string

	mu       sync.Mutex
	entries  []string // render order, most recent first
	selected string

	persistMu sync.Mutex
}

// NewStore returns a Store persisting under key. An empty key means DefaultKey.
func NewStore(storage Storage, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{storage: storage, key: key}
}

// Add prepends filename to the rendered entries. It is a no-op, returning
// false, when an entry with the same filename is already rendered.
func (s *Store) Add(filename string) bool {
	if filename == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.entries, filename) {
		return false
	}
	s.entries = slices.Insert(s.entries, 0, filename)
	return true
}

// Persist appends filename to the durable collection unless already present.
func (s *Store) Persist(filename string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	files, err := s.stored()
	if err != nil {
		return err
	}
	if slices.Contains(files, filename) {
		return nil
	}
	data, err := json.Marshal(append(files, filename))
	if err != nil {
		return err
	}
	return s.storage.SetItem(s.key, string(data))
}

// Load reads the full persisted collection and renders one entry per
// filename. Later filenames end up above earlier ones.
func (s *Store) Load() error {
	files, err := s.stored()
	if err != nil {
		return err
	}
	for _, f := range files {
		s.Add(f)
	}
	logger.L.Debug("history loaded", "count", len(files))
	return nil
}

// Files returns the persisted collection in append order.
func (s *Store) Files() ([]string, error) {
	return s.stored()
}

// stored decodes the persisted collection. A corrupt value reads as empty and
// is replaced on the next Persist.
func (s *Store) stored() ([]string, error) {
	raw, ok, err := s.storage.GetItem(s.key)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var files []string
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		logger.L.Warn("discarding unreadable history", "key", s.key, "error", err)
		return nil, nil
	}
	return files, nil
}

// Select makes filename the sole highlighted entry. It returns false if no
// such entry is rendered.
func (s *Store) Select(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.entries, filename) {
		return false
	}
	s.selected = filename
	return true
}

// Selected returns the highlighted filename, if any.
func (s *Store) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// Entries returns the rendered entries, most recent first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	for i, f := range s.entries {
		out[i] = Entry{Filename: f, Highlighted: f == s.selected}
	}
	return out
}

// Len returns the number of rendered entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
