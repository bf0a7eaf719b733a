package memoize

import (
	"context"
	"path/filepath"
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-memocache/cache"
	"github.com/goliatone/go-memocache/codec"
	"github.com/goliatone/go-memocache/internal/diskstore"
)

// Func is the shape of a function that can be memoized.
type Func[T any] func(ctx context.Context, args cache.Args) (T, error)

// Stats counts call outcomes since the memoized function was built.
type Stats struct {
	Hits    int64
	Misses  int64
	Corrupt int64
	Writes  int64
}

// Memoized wraps a function with a persistent cache. Each call derives a key
// from its arguments; an existing readable entry is returned without
// running the function, otherwise the function runs once and its result is
// written to the entry.
//
// A Memoized is safe for concurrent use. Concurrent cold calls for one key
// may each run the function; the last write wins.
type Memoized[T any] struct {
	fn       Func[T]
	name     string
	strategy cache.KeyStrategy
	store    cache.Store
	codec    *codec.Codec
	tier     cache.Tier
	logger   zerolog.Logger
	metrics  cache.Metrics

	// writeOnly is set when entries cannot be decoded back into T.
	writeOnly bool

	hits    *xsync.Counter
	misses  *xsync.Counter
	corrupt *xsync.Counter
	writes  *xsync.Counter
}

// New memoizes fn.
func New[T any](fn Func[T], opts ...Option) (*Memoized[T], error) {
	if fn == nil {
		return nil, errors.New("memoize: nil function", errors.CategoryBadInput)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := cache.DefaultConfig()
	if o.config != nil {
		cfg = *o.config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Memoized[T]{
		fn:      fn,
		name:    o.name,
		metrics: o.metrics,
		hits:    xsync.NewCounter(),
		misses:  xsync.NewCounter(),
		corrupt: xsync.NewCounter(),
		writes:  xsync.NewCounter(),
	}
	if m.name == "" {
		m.name = QualifiedName(fn)
	}
	if m.metrics == nil {
		m.metrics = cache.NoopMetrics{}
	}

	m.strategy = o.strategy
	if m.strategy == nil {
		s, err := cfg.Strategy()
		if err != nil {
			return nil, err
		}
		m.strategy = s
	}

	m.codec = o.codec
	if m.codec == nil {
		c, err := cfg.Codec()
		if err != nil {
			return nil, err
		}
		m.codec = c
	}

	m.store = o.store
	if m.store == nil {
		dir := o.directory
		if dir == "" {
			root := o.root
			if root == "" {
				root = cfg.Root
			}
			if m.name == "" {
				return nil, errors.New("memoize: cannot derive a directory without a function name", errors.CategoryBadInput)
			}
			dir = filepath.Join(root, m.name)
		}
		m.store = diskstore.New(dir, diskstore.WithAtomicWrites(cfg.AtomicWrites))
	}

	if o.tierSet {
		m.tier = o.tier
	} else {
		tier, err := cache.NewMemoryTier(cfg)
		if err != nil {
			return nil, err
		}
		m.tier = tier
	}

	logger := zerolog.Nop()
	if o.logger != nil {
		logger = *o.logger
	}
	m.logger = logger.With().
		Str("component", "memoize").
		Str("function", m.name).
		Logger()

	if !codec.ReadsBack(reflect.TypeFor[T]()) {
		m.writeOnly = true
		m.logger.Debug().Msg("result type is stored lossily; entries are written but never read")
	}

	return m, nil
}

// Name returns the function name used for logs, metrics and the default
// directory.
func (m *Memoized[T]) Name() string { return m.name }

// Directory returns the directory holding the entries.
func (m *Memoized[T]) Directory() string {
	if d, ok := m.store.(interface{ Dir() string }); ok {
		return d.Dir()
	}
	return filepath.Dir(m.store.Location("_"))
}

// Stats returns a snapshot of the call counters.
func (m *Memoized[T]) Stats() Stats {
	return Stats{
		Hits:    m.hits.Value(),
		Misses:  m.misses.Value(),
		Corrupt: m.corrupt.Value(),
		Writes:  m.writes.Value(),
	}
}

// Key returns the validated entry key for args.
func (m *Memoized[T]) Key(args cache.Args) (string, error) {
	key, err := m.strategy(args)
	if err != nil {
		if cache.IsInvalidKey(err) {
			return "", err
		}
		return "", errors.Wrap(err, errors.CategoryBadInput, "key strategy failed").
			WithTextCode(cache.TextCodeInvalidKey)
	}
	if err := cache.ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// Call returns the cached result for args, computing and storing it on a
// miss. Errors from the wrapped function are returned unchanged and nothing
// is written.
func (m *Memoized[T]) Call(ctx context.Context, args cache.Args) (T, error) {
	var zero T

	key, err := m.Key(args)
	if err != nil {
		return zero, err
	}
	if err := m.store.Ensure(); err != nil {
		return zero, err
	}

	recompute := recomputeRequested(ctx)
	if m.tier == nil {
		return m.load(ctx, key, args, recompute)
	}

	path := m.store.Location(key)
	if recompute {
		_ = m.tier.Delete(ctx, path)
	}
	loaded := false
	value, err := cache.GetOrFetch(ctx, m.tier, path, func(ctx context.Context) (T, error) {
		loaded = true
		return m.load(ctx, key, args, recompute)
	})
	if err == nil && !loaded {
		m.recordHit(key, "memory")
	}
	return value, err
}

// Forget removes the entry for args so the next call recomputes it.
func (m *Memoized[T]) Forget(ctx context.Context, args cache.Args) error {
	key, err := m.Key(args)
	if err != nil {
		return err
	}
	if m.tier != nil {
		_ = m.tier.Delete(ctx, m.store.Location(key))
	}
	if r, ok := m.store.(interface{ Remove(string) error }); ok {
		return r.Remove(key)
	}
	return nil
}

func (m *Memoized[T]) load(ctx context.Context, key string, args cache.Args, recompute bool) (T, error) {
	var zero T

	if !recompute && !m.writeOnly && m.store.Exists(key) {
		value, err := m.read(key)
		if err == nil {
			m.recordHit(key, "disk")
			return value, nil
		}
		m.corrupt.Inc()
		m.metrics.Corrupt(m.name)
		m.logger.Warn().Err(err).Str("key", key).Msg("ignoring unreadable cache entry")
	}

	m.misses.Inc()
	m.metrics.Miss(m.name)
	m.logger.Debug().Str("key", key).Bool("recompute", recompute).Msg("cache miss")

	value, err := m.fn(ctx, args)
	if err != nil {
		return zero, err
	}

	data, err := m.codec.Marshal(value)
	if err != nil {
		return zero, err
	}
	if err := m.store.Write(key, data); err != nil {
		return zero, err
	}

	m.writes.Inc()
	m.metrics.Stored(m.name, len(data))
	m.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("cache entry written")
	return value, nil
}

func (m *Memoized[T]) read(key string) (T, error) {
	var out T
	data, err := m.store.Read(key)
	if err != nil {
		return out, err
	}
	if err := m.codec.UnmarshalInto(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (m *Memoized[T]) recordHit(key, source string) {
	m.hits.Inc()
	m.metrics.Hit(m.name)
	m.logger.Debug().Str("key", key).Str("source", source).Msg("cache hit")
}
