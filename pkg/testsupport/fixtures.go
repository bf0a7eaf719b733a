package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// EnvUpdateGolden, when set to any non-empty value, makes CompareWithGolden
// rewrite golden files instead of comparing against them.
const EnvUpdateGolden = "UPDATE_GOLDEN"

// FixturePath is name under the package testdata directory.
func FixturePath(name string) string {
	return filepath.Join("testdata", name)
}

// GoldenPath is name under testdata/golden.
func GoldenPath(name string) string {
	return filepath.Join("testdata", "golden", name)
}

// LoadFixture returns the raw bytes of a hand-written entry or test table.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()
	return mustRead(t, "fixture", path)
}

// LoadFixtureJSON fills dest from a JSON test table with encoding/json.
// Cache entries belong in LoadFixture: only the codec rebuilds tagged values.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, path), dest); err != nil {
		t.Fatalf("fixture %s is not a JSON table: %v", path, err)
	}
}

func LoadGolden(t *testing.T, path string) []byte {
	t.Helper()
	return mustRead(t, "golden file", path)
}

func WriteGolden(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("golden directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing golden file %s: %v", path, err)
	}
}

// CompareWithGolden checks encoder output byte for byte against path.
// A missing golden file is seeded from actual; UPDATE_GOLDEN rewrites an
// existing one.
func CompareWithGolden(t *testing.T, path string, actual []byte) {
	t.Helper()

	_, statErr := os.Stat(path)
	if os.Getenv(EnvUpdateGolden) != "" || os.IsNotExist(statErr) {
		t.Logf("writing golden file %s", path)
		WriteGolden(t, path, actual)
		return
	}
	assert.Equal(t, string(LoadGolden(t, path)), string(actual), "encoder output drifted from %s", path)
}

func mustRead(t *testing.T, kind, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s %s: %v", kind, path, err)
	}
	return data
}
