package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store keeps small best-effort results on disk, one JSON envelope per key.
// It backs the formatter and LLM classifier memoization; losing it is never
// fatal, and an entry that does not verify is treated as a miss.
type Store struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the directory and 0600 on
	// files.
	StrictPerms bool
}

// envelope is the on-disk form of an entry. Digest is the hex SHA-256 of
// Data and Key repeats the entry key, so truncated or misplaced files fail
// verification.
type envelope struct {
	Key     string    `json:"key"`
	SavedAt time.Time `json:"savedAt"`
	Digest  string    `json:"sha256"`
	Data    []byte    `json:"data"`
}

// KeyFrom builds a cache key from a namespace and the parts that determine
// the cached value.
func KeyFrom(namespace string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	for _, p := range parts {
		h.Write([]byte("\n\n"))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Path returns the file that holds key.
func (c *Store) Path(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

func (c *Store) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// Get returns the cached bytes for key. A missing, unreadable or corrupt
// entry is a miss, not an error; corrupt entries are removed.
func (c *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.Path(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil || env.Key != key || env.Digest != digest(env.Data) {
		_ = os.Remove(p)
		return nil, false, nil
	}
	// Touch mtime on access for LRU eviction
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return env.Data, true, nil
}

// Save stores data under key. The entry is written to a temporary file in
// the same directory and renamed into place, so readers never see a partial
// entry.
func (c *Store) Save(_ context.Context, key string, data []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	b, err := json.Marshal(envelope{Key: key, SavedAt: time.Now().UTC(), Digest: digest(data), Data: data})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	tmp, err := os.CreateTemp(c.Dir, ".entry-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, c.Path(key)); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
