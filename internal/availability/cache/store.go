package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Common store errors.
var (
	// ErrCorruptCache marks a results file that could not be parsed.
	// Callers recover by starting from an empty dictionary; startup is
	// never blocked by a corrupt cache.
	ErrCorruptCache = errors.New("results cache file is corrupt")

	// ErrFingerprintMismatch is returned by Put when the key does not
	// match the entry's own fingerprint.
	ErrFingerprintMismatch = errors.New("cache key does not match entry fingerprint")
)

// resultsDocument is the persisted shape: a single top-level mapping
// from fingerprint to entry.
type resultsDocument struct {
	Results map[string]*Entry `yaml:"results"`
}

// Store is the in-memory results dictionary with YAML persistence.
// It is loaded once at startup, mutated during the session, and flushed
// back exactly once at orderly shutdown. Safe for concurrent use; every
// key in the dictionary equals the fingerprint of its own entry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Load reads a persisted results dictionary. A missing file yields an
// empty store and no error. A malformed file yields an empty store and
// ErrCorruptCache; the store is still usable. Entries whose key does
// not match their own fingerprint are dropped.
func Load(path string) (*Store, error) {
	s := NewStore()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}

	var doc resultsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}

	for fp, entry := range doc.Results {
		if entry == nil {
			continue
		}
		if entry.Fingerprint == "" {
			entry.Fingerprint = fp
		}
		if entry.Fingerprint != fp {
			continue
		}
		s.entries[fp] = entry
	}
	return s, nil
}

// Get returns the entry stored under the fingerprint, if any.
func (s *Store) Get(fingerprint string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[fingerprint]
	return e, ok
}

// Put inserts or replaces the entry under its fingerprint. Last write
// wins. The key must equal the entry's own fingerprint.
func (s *Store) Put(fingerprint string, e *Entry) error {
	if e == nil || fingerprint == "" {
		return errors.New("cache entry and fingerprint must be non-empty")
	}
	if e.Fingerprint != fingerprint {
		return fmt.Errorf("%w: key %s, entry %s", ErrFingerprintMismatch, fingerprint, e.Fingerprint)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fingerprint] = e
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of the dictionary for inspection. The entries
// themselves are shared; they are immutable by contract.
func (s *Store) Snapshot() map[string]*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Entry, len(s.entries))
	for fp, e := range s.entries {
		out[fp] = e
	}
	return out
}

// RemoveStale drops every entry older than the TTL and returns how many
// were removed. Used by manual cache maintenance; the session itself
// never deletes entries except by replacement.
func (s *Store) RemoveStale(now time.Time, ttlDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for fp, e := range s.entries {
		if !IsFresh(e, now, ttlDays) {
			delete(s.entries, fp)
			removed++
		}
	}
	return removed
}

// Clear drops all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
}

// Save persists the dictionary atomically: the document is written to a
// temp file in the target directory and renamed over the destination,
// so a crash mid-write never corrupts the previous valid file.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	doc := resultsDocument{Results: make(map[string]*Entry, len(s.entries))}
	for fp, e := range s.entries {
		doc.Results[fp] = e
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encoding results cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}
