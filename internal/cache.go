package internal

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	tt "github.com/gnolang/astrule/internal/types"
)

const (
	cacheFileName = "match_cache.gob"

	// DefaultCacheMaxAge bounds how long an entry stays valid.
	DefaultCacheMaxAge = 24 * time.Hour
)

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

// CacheEntry is the stored result of one file.
type CacheEntry struct {
	Metadata     fileMetadata
	Fingerprint  string
	Dependencies map[string]string
	Issues       []tt.Issue
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache stores match results per file on disk. An entry is reused only while
// the file content, the fingerprint and the dependency files are unchanged.
type Cache struct {
	CacheDir string

	mu               sync.RWMutex
	entries          map[string]CacheEntry
	maxAge           time.Duration
	fingerprint      string
	dependencyFiles  []string
	dependencyHashes map[string]string
}

// NewCache opens or creates the cache in cacheDir. fingerprint identifies the
// run configuration (selected rules, severities); entries written under a
// different fingerprint are ignored. dependencies are files whose change
// invalidates every entry, typically the rule document. Their hashes are
// taken here and stored with each entry, so an edit is noticed by later
// caches opened on the same directory.
func NewCache(cacheDir, fingerprint string, dependencies ...string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}

	c := &Cache{
		CacheDir:         cacheDir,
		entries:          make(map[string]CacheEntry),
		maxAge:           DefaultCacheMaxAge,
		fingerprint:      fingerprint,
		dependencyFiles:  dependencies,
		dependencyHashes: make(map[string]string),
	}
	if err := c.load(); err != nil {
		return nil, errors.Wrap(err, "failed to load cache")
	}
	if err := c.updateDependencyHashes(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) path() string {
	return filepath.Join(c.CacheDir, cacheFileName)
}

func (c *Cache) load() error {
	file, err := os.Open(c.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to open cache file")
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		// a cache written by another version is discarded
		c.entries = make(map[string]CacheEntry)
	}
	return nil
}

func (c *Cache) save() error {
	file, err := os.Create(c.path())
	if err != nil {
		return errors.Wrap(err, "failed to create cache file")
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.entries); err != nil {
		return errors.Wrap(err, "failed to encode cache file")
	}
	return nil
}

// Set records the issues of filename and writes the cache to disk.
func (c *Cache) Set(filename string, issues []tt.Issue) error {
	metadata, err := getFileMetadata(filename)
	if err != nil {
		return errors.Wrap(err, "failed to get file metadata")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entries[filename] = CacheEntry{
		Metadata:     metadata,
		Fingerprint:  c.fingerprint,
		Dependencies: c.dependencyHashes,
		Issues:       issues,
		CreatedAt:    now,
		LastAccessed: now,
	}
	return c.save()
}

// Get returns the cached issues of filename if the entry is still valid.
func (c *Cache) Get(filename string) ([]tt.Issue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}
	if c.isEntryInvalid(filename, entry) {
		delete(c.entries, filename)
		return nil, false
	}

	entry.LastAccessed = time.Now()
	c.entries[filename] = entry
	return entry.Issues, true
}

func (c *Cache) isEntryInvalid(filename string, entry CacheEntry) bool {
	if time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	if entry.Fingerprint != c.fingerprint {
		return true
	}
	current, err := getFileMetadata(filename)
	if err != nil || current.Hash != entry.Metadata.Hash {
		return true
	}
	return c.haveDependenciesChanged(entry.Dependencies)
}

// haveDependenciesChanged compares the dependency hashes stored with an
// entry against the files on disk.
func (c *Cache) haveDependenciesChanged(stored map[string]string) bool {
	if len(stored) != len(c.dependencyHashes) {
		return true
	}
	for _, file := range c.dependencyFiles {
		hash, err := getFileHash(file)
		if err != nil || hash != stored[file] {
			return true
		}
	}
	return false
}

func (c *Cache) updateDependencyHashes() error {
	for _, file := range c.dependencyFiles {
		hash, err := getFileHash(file)
		if err != nil {
			return errors.Wrapf(err, "failed to get hash for %s", file)
		}
		c.dependencyHashes[file] = hash
	}
	return nil
}

// SetMaxAge changes how long entries stay valid.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxAge = d
}

// Len returns the number of entries held.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
	return c.save()
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, err
	}
	defer file.Close()

	hash, err := hashReader(file)
	if err != nil {
		return fileMetadata{}, err
	}
	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, err
	}
	return fileMetadata{Hash: hash, LastModified: info.ModTime()}, nil
}

func getFileHash(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return hashReader(file)
}

func hashReader(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.Wrap(err, "failed to calculate hash")
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
