// Package cache stores recognized notation files keyed by input content
// hash, so repeated runs skip the slow OMR stage.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// NotationCache manages cached recognition results
type NotationCache struct {
	dir string
}

// Entry describes one cached recognition result
type Entry struct {
	Key          string    `json:"key"`
	Input        string    `json:"input"`
	NotationName string    `json:"notation_name"`
	CachedAt     time.Time `json:"cached_at"`
}

// New creates a notation cache rooted at dir. An empty dir selects
// ~/.cache/scorepipe.
func New(dir string) (*NotationCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("locate cache dir: %w", err)
		}
		dir = filepath.Join(base, "scorepipe")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &NotationCache{dir: dir}, nil
}

// KeyForFile generates a cache key from a file's content hash
func KeyForFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil))[:16], nil
}

// Get returns the cached notation file for key, if present
func (c *NotationCache) Get(key string) (string, bool) {
	entry, err := c.readEntry(key)
	if err != nil {
		return "", false
	}

	path := filepath.Join(c.dir, key, entry.NotationName)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Put copies a notation file into the cache under key
func (c *NotationCache) Put(key, inputPath, notationPath string) error {
	entryDir := filepath.Join(c.dir, key)
	if err := os.MkdirAll(entryDir, 0755); err != nil {
		return fmt.Errorf("create cache entry dir: %w", err)
	}

	name := filepath.Base(notationPath)
	data, err := os.ReadFile(notationPath)
	if err != nil {
		return fmt.Errorf("read notation: %w", err)
	}
	if err := os.WriteFile(filepath.Join(entryDir, name), data, 0644); err != nil {
		return fmt.Errorf("write cached notation: %w", err)
	}

	entry := Entry{
		Key:          key,
		Input:        inputPath,
		NotationName: name,
		CachedAt:     time.Now(),
	}
	meta, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(entryDir, "entry.json"), meta, 0644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	return nil
}

func (c *NotationCache) readEntry(key string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, key, "entry.json"))
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse cache entry: %w", err)
	}
	return &entry, nil
}
