package cache

// Store holds the entries of one cache directory. Entry names are keys that
// passed ValidateKey.
type Store interface {
	// Ensure creates the directory if needed. Failures are
	// DirectoryCreate errors.
	Ensure() error
	// Exists reports whether an entry is present.
	Exists(key string) bool
	// Read returns the entry contents. Failures are CacheRead errors.
	Read(key string) ([]byte, error)
	// Write replaces the entry contents. Failures are CacheWrite errors.
	Write(key string, data []byte) error
	// Location returns the entry path.
	Location(key string) string
}
