// Package memoize persists the results of expensive functions on disk so
// later calls with the same arguments, in this or any later process, are
// served from the cache directory instead of being recomputed.
//
// # Overview
//
// A memoized function owns one directory. Every call:
//
//  1. derives a key from its arguments with a cache.KeyStrategy
//  2. makes sure the directory exists
//  3. returns the decoded entry named by the key, if there is a readable one
//  4. otherwise runs the function, writes the encoded result and returns it
//
// Unreadable or undecodable entries are treated as misses and overwritten.
// Errors returned by the wrapped function pass through unchanged and leave
// the cache untouched.
//
// # Basic Usage
//
//	square, err := memoize.Unary(func(ctx context.Context, x int) (int, error) {
//		return x * x, nil
//	}, memoize.WithKeyStrategy(cache.ConcatKey), memoize.WithDirectory("/tmp/t1"))
//
//	v, err := square(ctx, 4) // computes 16 and writes /tmp/t1/4
//	v, err = square(ctx, 4)  // reads /tmp/t1/4
//
// Functions with richer signatures use New with cache.Args:
//
//	m, err := memoize.New(func(ctx context.Context, args cache.Args) (*codec.Frame, error) {
//		...
//	}, memoize.WithKeyStrategy(cache.DatePlaceKey))
//	frame, err := m.Call(ctx, cache.Positional(geom, years))
//
// # Directories
//
// Without WithDirectory, entries go to <root>/<qualified function name>,
// where root is Config.Root ($CACHE_DIR or the temp directory) and the
// qualified name is the import path with "/" written as ".".
//
// # Recompute and Memory Tier
//
// WithRecompute(ctx) forces the next calls made with ctx to recompute and
// overwrite. When Config.Memory is set, decoded results are also held in an
// in-memory tier keyed by entry path, which serves repeated calls without
// touching the disk and lets concurrent calls for one key share a single
// computation.
package memoize
