package cache

import (
	stderrors "errors"
	"fmt"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-memocache/codec"
)

// Text codes carried by the errors of this module.
const (
	TextCodeDirectoryCreate   = "DIRECTORY_CREATE"
	TextCodeCacheRead         = "CACHE_READ"
	TextCodeCacheWrite        = "CACHE_WRITE"
	TextCodeInvalidKey        = "INVALID_KEY"
	TextCodeInvalidResultType = "INVALID_RESULT_TYPE"
	TextCodeSerialization     = codec.TextCodeSerialization
	TextCodeDecode            = codec.TextCodeDecode
)

// NewDirectoryCreateError reports that a cache directory could not be
// created. It is fatal for the call that needed the directory.
func NewDirectoryCreateError(dir string, err error) error {
	return errors.Wrap(err, errors.CategoryInternal, fmt.Sprintf("cannot create cache directory %s", dir)).
		WithTextCode(TextCodeDirectoryCreate).
		WithMetadata(map[string]any{"directory": dir})
}

// NewCacheReadError reports that an entry could not be read. The memoizer
// treats it as a miss.
func NewCacheReadError(path string, err error) error {
	return errors.Wrap(err, errors.CategoryOperation, fmt.Sprintf("cannot read cache entry %s", path)).
		WithTextCode(TextCodeCacheRead).
		WithMetadata(map[string]any{"path": path})
}

// NewCacheWriteError reports that an entry could not be written.
func NewCacheWriteError(path string, err error) error {
	return errors.Wrap(err, errors.CategoryOperation, fmt.Sprintf("cannot write cache entry %s", path)).
		WithTextCode(TextCodeCacheWrite).
		WithMetadata(map[string]any{"path": path})
}

// NewInvalidKeyError reports a key strategy failure or a key that cannot be
// used as a file name.
func NewInvalidKeyError(format string, args ...any) error {
	return errors.New(fmt.Sprintf(format, args...), errors.CategoryBadInput).
		WithTextCode(TextCodeInvalidKey)
}

// IsDirectoryCreate reports whether err is a directory creation failure.
func IsDirectoryCreate(err error) bool { return hasTextCode(err, TextCodeDirectoryCreate) }

// IsCacheRead reports whether err is an entry read failure.
func IsCacheRead(err error) bool { return hasTextCode(err, TextCodeCacheRead) }

// IsCacheWrite reports whether err is an entry write failure.
func IsCacheWrite(err error) bool { return hasTextCode(err, TextCodeCacheWrite) }

// IsInvalidKey reports whether err comes from key derivation or validation.
func IsInvalidKey(err error) bool { return hasTextCode(err, TextCodeInvalidKey) }

// IsSerialization reports whether a result could not be encoded.
func IsSerialization(err error) bool { return codec.IsSerialization(err) }

// IsDecode reports whether an entry could not be decoded.
func IsDecode(err error) bool { return codec.IsDecode(err) }

func hasTextCode(err error, code string) bool {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}
