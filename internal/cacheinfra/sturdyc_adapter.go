package cacheinfra

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the settings of the in-memory tier that sits in front of the
// cache directories.
type Config struct {
	// Capacity is the maximum number of decoded results kept in memory.
	// Must be greater than 0.
	Capacity int

	// NumShards splits the tier for concurrent access. Must be greater than 0.
	NumShards int

	// TTL bounds how long a result is served from memory before the entry
	// file is consulted again. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage is the share of entries dropped when the tier is
	// full. Must be between 1 and 100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept. Zero keeps
	// the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config sized for a few thousand hot results.
func DefaultConfig() Config {
	return Config{
		Capacity:           4096,
		NumShards:          64,
		TTL:                10 * time.Minute,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions maps the optional settings to sturdyc options. Capacity,
// NumShards, TTL and EvictionPercentage go straight to sturdyc.New.
//
// Early refreshes are never enabled: a refresh would invoke the memoized
// function again in the background.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.NumShards > c.Capacity {
		return &ConfigError{Field: "NumShards", Message: "must not exceed Capacity"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// MemoryTier keeps decoded results of memoized calls in a sturdyc client,
// keyed by entry path. Concurrent misses on one key share a single fetch.
type MemoryTier struct {
	client *sturdyc.Client[any]
}

// NewMemoryTier validates cfg and builds the sturdyc client.
func NewMemoryTier(cfg Config) (*MemoryTier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &MemoryTier{client: client}, nil
}

// validateFetchFn checks that fetchFn has the signature
// func(context.Context) (T, error).
func validateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)
	if fnType.Kind() != reflect.Func {
		return &ConfigError{Field: "fetchFn", Message: "must be a function"}
	}

	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}

	contextType := reflect.TypeOf((*context.Context)(nil)).Elem()
	if !fnType.In(0).Implements(contextType) {
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}

	errorType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errorType) {
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}

	return nil
}

// GetOrFetch returns the value cached under key, or runs fetchFn and keeps
// its result. fetchFn errors are returned and nothing is cached.
func (m *MemoryTier) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	return m.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return callFetchFunction(ctx, fetchFn)
	})
}

// callFetchFunction calls a pre-validated func(context.Context) (T, error).
func callFetchFunction(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(ctx)})

	var result any
	if v := results[0]; v.IsValid() && v.CanInterface() {
		result = v.Interface()
	}

	var err error
	if e := results[1]; e.IsValid() && !e.IsNil() {
		err = e.Interface().(error)
	}

	return result, err
}

// Delete drops the value cached under key.
func (m *MemoryTier) Delete(ctx context.Context, key string) error {
	m.client.Delete(key)
	return nil
}

// DeleteByPrefix drops every value whose key starts with prefix, which for
// path keys means every entry of one cache directory.
func (m *MemoryTier) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range m.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			m.client.Delete(key)
		}
	}
	return nil
}

// Len returns the number of values held in memory.
func (m *MemoryTier) Len() int {
	return len(m.client.ScanKeys())
}
