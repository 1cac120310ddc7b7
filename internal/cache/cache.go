// Package cache stores JSON responses of third-party lookups on disk for a fixed lifetime.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/where"
)

// TTL is the lifetime of entries in the default store.
const TTL = 7 * 24 * time.Hour

// Store is a directory of JSON entries that expire ttl after they were written.
type Store struct {
	dir string
	ttl time.Duration
}

// New creates a store in dir.
func New(dir string, ttl time.Duration) *Store {
	return &Store{dir: dir, ttl: ttl}
}

// Default returns the store under the application cache directory.
func Default() *Store {
	return New(filepath.Join(where.Cache(), "responses"), TTL)
}

// Key derives a file-safe entry name from parts.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.Join(parts, "\x00"))))
	return hex.EncodeToString(hash[:])
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Read decodes the entry into target. It reports false for missing, expired or corrupt entries.
func (s *Store) Read(key string, target any) bool {
	path := s.path(key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > s.ttl {
		return false
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, target) == nil
}

// Write stores data under key, replacing the entry atomically.
func (s *Store) Write(key string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return filesystem.WriteAtomic(s.path(key), encoded)
}

// CollectGarbage removes expired entries.
func (s *Store) CollectGarbage() {
	fs := filesystem.API()
	entries, err := fs.ReadDir(s.dir)
	if err != nil {
		return
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() || time.Since(entry.ModTime()) <= s.ttl {
			continue
		}
		if fs.Remove(filepath.Join(s.dir, entry.Name())) == nil {
			removed++
		}
	}

	if removed > 0 {
		log.Debugf("removed %d expired cache entries", removed)
	}
}
