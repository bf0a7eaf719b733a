package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// CorruptContent is what CorruptEntry writes: it is not valid in any
// supported entry format.
var CorruptContent = []byte("\x00{not an entry")

// TempCacheRoot returns a fresh directory and points CACHE_DIR at it for the
// duration of the test. Tests using it cannot run in parallel.
func TempCacheRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv("CACHE_DIR", root)
	return root
}

// WriteEntry writes raw entry bytes for key under dir, creating dir when
// needed, and returns the entry path.
func WriteEntry(t *testing.T, dir, key string, data []byte) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create cache directory %s: %v", dir, err)
	}
	path := filepath.Join(dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write entry %s: %v", path, err)
	}
	return path
}

// CorruptEntry replaces the entry for key with undecodable bytes.
func CorruptEntry(t *testing.T, dir, key string) string {
	t.Helper()
	return WriteEntry(t, dir, key, CorruptContent)
}

// ReadEntry returns the raw bytes stored for key under dir.
func ReadEntry(t *testing.T, dir, key string) []byte {
	t.Helper()

	path := filepath.Join(dir, key)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read entry %s: %v", path, err)
	}
	return data
}
