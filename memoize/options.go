package memoize

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-memocache/cache"
	"github.com/goliatone/go-memocache/codec"
)

// Option configures a memoized function.
type Option func(*options)

type options struct {
	config    *cache.Config
	strategy  cache.KeyStrategy
	directory string
	root      string
	name      string
	codec     *codec.Codec
	store     cache.Store
	tier      cache.Tier
	tierSet   bool
	logger    *zerolog.Logger
	metrics   cache.Metrics
}

// WithKeyStrategy sets how call arguments map to entry keys. Defaults to the
// strategy named by the config, JoinKey unless changed.
func WithKeyStrategy(strategy cache.KeyStrategy) Option {
	return func(o *options) {
		o.strategy = strategy
	}
}

// WithDirectory stores entries directly in dir.
func WithDirectory(dir string) Option {
	return func(o *options) {
		o.directory = dir
	}
}

// WithRoot stores entries in <root>/<name>, overriding Config.Root.
// WithDirectory takes precedence.
func WithRoot(root string) Option {
	return func(o *options) {
		o.root = root
	}
}

// WithName overrides the function name used for the default directory,
// logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithConfig replaces cache.DefaultConfig.
func WithConfig(cfg cache.Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithCodec overrides the codec selected by the config format.
func WithCodec(c *codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithStore replaces the directory store. Directory options are ignored.
func WithStore(store cache.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithTier puts a read-through tier in front of the store. A nil tier
// disables the tier configured by Config.Memory.
func WithTier(tier cache.Tier) Option {
	return func(o *options) {
		o.tier = tier
		o.tierSet = true
	}
}

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithMetrics sets the metrics sink. Defaults to cache.NoopMetrics.
func WithMetrics(m cache.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
