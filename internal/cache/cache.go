// Package cache is a small TTL'd JSON file cache used to avoid
// re-fetching market listing searches inside their freshness window.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type entry struct {
	Data    json.RawMessage `json:"data"`
	Fetched time.Time       `json:"fetched"`
	TTL     time.Duration   `json:"ttl"`
}

// Store is a file-backed cache. Safe for concurrent use.
type Store struct {
	path    string
	mu      sync.RWMutex
	entries map[string]entry
}

// Open loads the cache file at path, starting fresh if it is missing
// or corrupt.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			s.entries = make(map[string]entry)
		}
	}
	return s, nil
}

// Lookup unmarshals a fresh entry into target and reports whether one
// was found. Expired entries are dropped.
func (s *Store) Lookup(key string, target interface{}) bool {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	if e.TTL > 0 && time.Since(e.Fetched) > e.TTL {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return false
	}

	if err := json.Unmarshal(e.Data, target); err != nil {
		return false
	}
	return true
}

// Save stores value under key and persists the cache file.
func (s *Store) Save(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	s.mu.Lock()
	s.entries[key] = entry{Data: data, Fetched: time.Now(), TTL: ttl}
	s.mu.Unlock()

	return s.flush()
}

// Prune drops every expired entry and persists the result.
func (s *Store) Prune() error {
	s.mu.Lock()
	for k, e := range s.entries {
		if e.TTL > 0 && time.Since(e.Fetched) > e.TTL {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
	return s.flush()
}

func (s *Store) flush() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// SearchKey builds a stable cache key for a vehicle listing search.
func SearchKey(year int, make, model, trim, zip string, radius int) string {
	parts := []string{
		fmt.Sprintf("%d", year),
		strings.ToLower(make),
		strings.ToLower(model),
		strings.ToLower(trim),
		zip,
		fmt.Sprintf("%d", radius),
	}
	return "search|" + strings.Join(parts, "|")
}
