// Package diskstore keeps cache entries as plain files, one directory per
// memoized function and one file per key.
package diskstore

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-memocache/cache"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	tmpExt   = ".tmp"

	tmpKeyPrefix = 64
)

// provisionMu serializes directory creation across every Store in the
// process. Entry reads and writes are not guarded.
var provisionMu sync.Mutex

// Entry describes one stored entry.
type Entry struct {
	Key     string
	Path    string
	Size    int64
	ModTime time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithAtomicWrites selects between write-to-temp-then-rename (true, the
// default) and truncating the entry in place.
func WithAtomicWrites(enabled bool) Option {
	return func(s *Store) {
		s.atomic = enabled
	}
}

// Store implements cache.Store on a single directory.
type Store struct {
	dir    string
	atomic bool
}

var _ cache.Store = (*Store)(nil)

// New returns a store rooted at dir. Nothing is created until Ensure.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: filepath.Clean(dir), atomic: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding the entries.
func (s *Store) Dir() string { return s.dir }

// Ensure creates the directory. An existing directory is not an error.
func (s *Store) Ensure() error {
	provisionMu.Lock()
	defer provisionMu.Unlock()

	if info, err := os.Stat(s.dir); err == nil {
		if info.IsDir() {
			return nil
		}
		return cache.NewDirectoryCreateError(s.dir, fs.ErrExist)
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return cache.NewDirectoryCreateError(s.dir, err)
	}
	return nil
}

// Location returns the path of the entry for key.
func (s *Store) Location(key string) string {
	return filepath.Join(s.dir, key)
}

// Exists reports whether an entry for key is present.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.Location(key))
	return err == nil
}

// Read returns the raw entry contents.
func (s *Store) Read(key string) ([]byte, error) {
	path := s.Location(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cache.NewCacheReadError(path, err)
	}
	return data, nil
}

// Write replaces the entry for key with data.
func (s *Store) Write(key string, data []byte) error {
	path := s.Location(key)
	if !s.atomic {
		if err := os.WriteFile(path, data, filePerm); err != nil {
			return cache.NewCacheWriteError(path, err)
		}
		return nil
	}

	// long keys are cut so the temp name stays within file name limits
	prefix := key
	if len(prefix) > tmpKeyPrefix {
		prefix = prefix[:tmpKeyPrefix]
	}
	tmp := filepath.Join(s.dir, "."+prefix+"."+uuid.NewString()+tmpExt)
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		_ = os.Remove(tmp)
		return cache.NewCacheWriteError(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return cache.NewCacheWriteError(path, err)
	}
	return nil
}

// Remove deletes the entry for key. A missing entry is not an error.
func (s *Store) Remove(key string) error {
	path := s.Location(key)
	if err := os.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return cache.NewCacheWriteError(path, err)
	}
	return nil
}

// List returns the entries sorted by key. Temporary files left by
// interrupted writes and subdirectories are skipped. A missing directory
// lists as empty.
func (s *Store) List() ([]Entry, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, cache.NewCacheReadError(s.dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || isTemp(name) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			// removed since ReadDir
			continue
		}
		entries = append(entries, Entry{
			Key:     name,
			Path:    filepath.Join(s.dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Purge removes entries, and stale temporary files, last modified more than
// olderThan before now. With dryRun set nothing is removed. It returns the
// entries that were (or would be) removed.
func (s *Store) Purge(olderThan time.Duration, now time.Time, dryRun bool) ([]Entry, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, cache.NewCacheReadError(s.dir, err)
	}

	cutoff := now.Add(-olderThan)
	var purged []Entry
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		info, err := item.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		entry := Entry{
			Key:     item.Name(),
			Path:    filepath.Join(s.dir, item.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if !dryRun {
			if err := os.Remove(entry.Path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
				return purged, cache.NewCacheWriteError(entry.Path, err)
			}
		}
		purged = append(purged, entry)
	}
	return purged, nil
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tmpExt)
}
