// Package cache defines the building blocks shared by memoized functions:
// call arguments, key strategies, the entry store port, the optional
// in-memory tier, metrics hooks, configuration and the error taxonomy.
//
// # Key Strategies
//
// A KeyStrategy maps the arguments of one call to the name of its entry
// file. The built-in strategies are:
//
//   - JoinKey: hash of the canonical encoding of every argument (default)
//   - ConcatKey: readable "_"-joined text of every argument, no hashing
//   - ArrayKey: hash of the element type, shape and bytes of a numeric array
//   - ConstantKey / OneKey: a fixed key for argument-independent results
//   - DatePlaceKey: hash of a years sequence plus a geometry
//
// Named arguments are always visited sorted by name, so the order in which a
// caller builds them never changes the key:
//
//	key, err := cache.JoinKey(cache.Positional(geom).With("scale", 2).With("mode", "fast"))
//
// Keys must be usable as a single file name; ValidateKey rejects the rest.
//
// # Configuration
//
// Config carries the cache root, entry format, write mode, default key
// strategy and memory tier settings. It can be loaded from YAML:
//
//	root: /var/cache/models
//	format: json
//	atomic_writes: true
//	key_strategy: join
//	memory:
//	  capacity: 1024
//	  num_shards: 16
//	  ttl: 10m
//	  eviction_percentage: 10
//
// # Errors
//
// Every error produced by this module is a *errors.Error from
// github.com/goliatone/go-errors with a text code. Use the Is* predicates
// to tell them apart; read and decode failures never reach callers of a
// memoized function because they are turned into cache misses.
//
// # See Also
//
// The memoize package wires these pieces around a function. The
// internal/diskstore package implements Store on the local filesystem.
package cache
