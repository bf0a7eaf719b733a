package di

import (
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-memocache/cache"
	"github.com/goliatone/go-memocache/codec"
	"github.com/goliatone/go-memocache/memoize"
)

// Container wires the shared pieces of a memoization setup: the
// configuration, the codec, the optional in-memory tier, the logger and the
// metrics sink. Functions built through NewMemoized share all of them.
type Container struct {
	config  cache.Config
	codec   *codec.Codec
	tier    cache.Tier
	logger  zerolog.Logger
	metrics cache.Metrics

	// directory -> function name, used to spot functions sharing a directory
	directories *xsync.MapOf[string, string]
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger handed to every memoized function.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink handed to every memoized function.
func WithMetrics(m cache.Metrics) Option {
	return func(c *Container) {
		c.metrics = m
	}
}

// NewContainer validates config and builds the shared components. The
// memory tier is only created when config.Memory is set.
func NewContainer(config cache.Config, opts ...Option) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cdc, err := config.Codec()
	if err != nil {
		return nil, err
	}

	tier, err := cache.NewMemoryTier(config)
	if err != nil {
		return nil, err
	}

	c := &Container{
		config:      config,
		codec:       cdc,
		tier:        tier,
		logger:      zerolog.Nop(),
		metrics:     cache.NoopMetrics{},
		directories: xsync.NewMapOf[string, string](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewContainerWithDefaults creates a container from cache.DefaultConfig.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

// NewContainerFromFile creates a container from a YAML config file.
func NewContainerFromFile(path string, opts ...Option) (*Container, error) {
	config, err := cache.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewContainer(config, opts...)
}

// Config returns a copy of the configuration.
func (c *Container) Config() cache.Config {
	return c.config
}

// Codec returns the shared codec.
func (c *Container) Codec() *codec.Codec {
	return c.codec
}

// Tier returns the shared memory tier, nil when disabled.
func (c *Container) Tier() cache.Tier {
	return c.tier
}

// Logger returns the shared logger.
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// Metrics returns the shared metrics sink.
func (c *Container) Metrics() cache.Metrics {
	return c.metrics
}

// Directories returns the cache directory of every function built by the
// container, mapped to the function name.
func (c *Container) Directories() map[string]string {
	out := make(map[string]string, c.directories.Size())
	c.directories.Range(func(dir, name string) bool {
		out[dir] = name
		return true
	})
	return out
}

// NewMemoized memoizes fn with the container's shared components. Options
// passed here are applied last and override the container defaults.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewMemoized[*codec.Frame](container, loadYears, memoize.WithKeyStrategy(cache.DatePlaceKey))
func NewMemoized[T any](c *Container, fn memoize.Func[T], opts ...memoize.Option) (*memoize.Memoized[T], error) {
	base := []memoize.Option{
		memoize.WithConfig(c.config),
		memoize.WithCodec(c.codec),
		memoize.WithTier(c.tier),
		memoize.WithLogger(c.logger),
		memoize.WithMetrics(c.metrics),
	}

	m, err := memoize.New(fn, append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	dir := m.Directory()
	if prev, loaded := c.directories.LoadOrStore(dir, m.Name()); loaded && prev != m.Name() {
		c.logger.Warn().
			Str("directory", dir).
			Str("function", m.Name()).
			Str("other", prev).
			Msg("functions share a cache directory; keys may collide")
	}
	return m, nil
}
