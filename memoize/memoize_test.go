package memoize

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-memocache/cache"
	"github.com/goliatone/go-memocache/codec"
	"github.com/goliatone/go-memocache/pkg/testsupport"
)

func squareInt(ctx context.Context, x int) (int, error) {
	return x * x, nil
}

// countedSquare returns a memoized square and the number of times the
// underlying function ran.
func countedSquare(t *testing.T, opts ...Option) (func(context.Context, int) (int, error), *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	fn, err := Unary(func(ctx context.Context, x int) (int, error) {
		calls.Add(1)
		return x * x, nil
	}, append([]Option{WithKeyStrategy(cache.ConcatKey)}, opts...)...)
	require.NoError(t, err)
	return fn, calls
}

func TestSquareExample(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "t1")
	square, calls := countedSquare(t, WithDirectory(dir))

	got, err := square(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 16, got)
	assert.Equal(t, "16", string(testsupport.ReadEntry(t, dir, "4")))

	got, err = square(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 16, got)
	assert.Equal(t, int32(1), calls.Load(), "second call must be served from the cache")

	got, err = square(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 25, got)
	assert.Equal(t, "25", string(testsupport.ReadEntry(t, dir, "5")))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheSurvivesNewInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, calls := countedSquare(t, WithDirectory(dir))
	_, err := first(ctx, 7)
	require.NoError(t, err)

	second, secondCalls := countedSquare(t, WithDirectory(dir))
	got, err := second(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 49, got)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(0), secondCalls.Load())
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	calls := 0
	m, err := New(func(ctx context.Context, args cache.Args) (int, error) {
		calls++
		return calls, nil
	}, WithKeyStrategy(cache.ConcatKey), WithDirectory(t.TempDir()))
	require.NoError(t, err)

	for _, x := range []int{1, 1, 2, 1} {
		_, err := m.Call(ctx, cache.Positional(x))
		require.NoError(t, err)
	}

	assert.Equal(t, Stats{Hits: 2, Misses: 2, Writes: 2}, m.Stats())
}

func TestCorruptEntryIsRecomputed(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"garbage", []byte("{not json")},
		{"truncated", []byte(`{"type": "numpy.ndarray", "data_type": "int64", "data": [1, 2`)},
		{"empty", []byte{}},
		{"wrong type", []byte(`"sixteen"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			testsupport.WriteEntry(t, dir, "4", tt.content)

			var logs bytes.Buffer
			m, err := New(func(ctx context.Context, args cache.Args) (int, error) {
				return 16, nil
			}, WithKeyStrategy(cache.ConcatKey), WithDirectory(dir), WithLogger(zerolog.New(&logs)))
			require.NoError(t, err)

			got, err := m.Call(ctx, cache.Positional(4))
			require.NoError(t, err)
			assert.Equal(t, 16, got)
			assert.Equal(t, "16", string(testsupport.ReadEntry(t, dir, "4")), "entry must be overwritten")
			assert.Equal(t, Stats{Misses: 1, Corrupt: 1, Writes: 1}, m.Stats())
			assert.Contains(t, logs.String(), "ignoring unreadable cache entry")
		})
	}
}

func TestReadsEntriesFromOtherWriters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	testsupport.WriteEntry(t, dir, "one_key",
		[]byte(`{"type": "numpy.ndarray", "data_type": "float64", "data": [1.0, null, 3.0]}`))

	m, err := New(func(ctx context.Context, args cache.Args) (*codec.Array, error) {
		t.Error("function must not run when a readable entry exists")
		return nil, nil
	}, WithKeyStrategy(cache.OneKey), WithDirectory(dir))
	require.NoError(t, err)

	got, err := m.Call(ctx, cache.Args{})
	require.NoError(t, err)
	vals, ok := codec.Values[float64](got)
	require.True(t, ok)
	assert.Equal(t, 1.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))
	assert.Equal(t, 3.0, vals[2])
}

func TestArrayResults(t *testing.T) {
	ctx := context.Background()
	calls := 0
	mask, err := New(func(ctx context.Context, args cache.Args) (*codec.Array, error) {
		calls++
		in, err := codec.AsArray(args.Positional[0])
		if err != nil {
			return nil, err
		}
		out := make([]bool, in.Len())
		for i, v := range in.Float64s() {
			out[i] = v > 2
		}
		return codec.NewArray(out, in.Shape()...)
	}, WithKeyStrategy(cache.ArrayKey), WithDirectory(t.TempDir()))
	require.NoError(t, err)

	input := codec.MustArray([]float64{1, 2, 3, math.NaN()}, 2, 2)
	want := codec.MustArray([]bool{false, false, true, false}, 2, 2)

	for i := 0; i < 2; i++ {
		got, err := mask.Call(ctx, cache.Positional(input))
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "got %v", got)
	}
	assert.Equal(t, 1, calls)
}

func TestErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	boom := errors.New("upstream unavailable")
	calls := 0

	m, err := New(func(ctx context.Context, args cache.Args) (string, error) {
		calls++
		return "", boom
	}, WithKeyStrategy(cache.ConcatKey), WithDirectory(dir))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := m.Call(ctx, cache.Positional("x"))
		assert.Same(t, boom, err, "error must be returned unchanged")
	}
	assert.Equal(t, 2, calls, "failures are never cached")
	_, statErr := os.Stat(filepath.Join(dir, "x"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSerializationErrorFailsTheCall(t *testing.T) {
	dir := t.TempDir()
	m, err := New(func(ctx context.Context, args cache.Args) (any, error) {
		return make(chan int), nil
	}, WithKeyStrategy(cache.OneKey), WithDirectory(dir))
	require.NoError(t, err)

	_, err = m.Call(context.Background(), cache.Args{})
	require.Error(t, err)
	assert.True(t, cache.IsSerialization(err))
	_, statErr := os.Stat(filepath.Join(dir, "one_key"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be written")
}

func TestInvalidKeysFailBeforeComputing(t *testing.T) {
	ctx := context.Background()
	calls := &atomic.Int32{}

	m, err := New(func(ctx context.Context, args cache.Args) (string, error) {
		calls.Add(1)
		return "", nil
	}, WithKeyStrategy(cache.ConcatKey), WithDirectory(t.TempDir()))
	require.NoError(t, err)

	_, err = m.Call(ctx, cache.Positional("a/b"))
	assert.True(t, cache.IsInvalidKey(err), "got %v", err)

	_, err = m.Call(ctx, cache.Args{})
	assert.True(t, cache.IsInvalidKey(err), "got %v", err)

	failing, err := New(func(ctx context.Context, args cache.Args) (string, error) {
		calls.Add(1)
		return "", nil
	}, WithKeyStrategy(func(cache.Args) (string, error) {
		return "", errors.New("no key for you")
	}), WithDirectory(t.TempDir()))
	require.NoError(t, err)

	_, err = failing.Call(ctx, cache.Positional(1))
	assert.True(t, cache.IsInvalidKey(err), "got %v", err)

	assert.Equal(t, int32(0), calls.Load())
}

func TestDirectoryCreateErrorIsFatal(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	square, calls := countedSquare(t, WithDirectory(filepath.Join(blocker, "cache")))
	_, err := square(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, cache.IsDirectoryCreate(err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestConcurrentColdCallsCreateTheDirectory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "deep", "ly", "nested")

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			square, err := Unary(squareInt, WithKeyStrategy(cache.ConcatKey), WithDirectory(dir))
			if err != nil {
				return err
			}
			got, err := square(ctx, i)
			if err != nil {
				return err
			}
			if got != i*i {
				return errors.New("wrong result for " + strconv.Itoa(i))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 16)
}

func TestConcurrentWritersToOneKey(t *testing.T) {
	for _, atomicWrites := range []bool{true, false} {
		t.Run("atomic="+strconv.FormatBool(atomicWrites), func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			cfg := cache.DefaultConfig()
			cfg.AtomicWrites = atomicWrites

			square, _ := countedSquare(t, WithDirectory(dir), WithConfig(cfg))

			var g errgroup.Group
			for i := 0; i < 32; i++ {
				g.Go(func() error {
					_, err := square(ctx, 12)
					return err
				})
			}
			require.NoError(t, g.Wait())

			got, err := square(ctx, 12)
			require.NoError(t, err)
			assert.Equal(t, 144, got)
			assert.Equal(t, "144", string(testsupport.ReadEntry(t, dir, "12")))
		})
	}
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	version := 0

	m, err := New(func(ctx context.Context, args cache.Args) (int, error) {
		version++
		return version, nil
	}, WithKeyStrategy(cache.OneKey), WithDirectory(dir))
	require.NoError(t, err)

	got, err := m.Call(ctx, cache.Args{})
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = m.Call(WithRecompute(ctx), cache.Args{})
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, "2", string(testsupport.ReadEntry(t, dir, "one_key")))

	got, err = m.Call(ctx, cache.Args{})
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestMemoryTier(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := cache.DefaultConfig()
	cfg.Memory = cache.DefaultMemoryConfig()

	square, calls := countedSquare(t, WithDirectory(dir), WithConfig(cfg))

	got, err := square(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 81, got)

	// served from memory even though the entry is gone
	require.NoError(t, os.Remove(filepath.Join(dir, "9")))
	got, err = square(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 81, got)
	assert.Equal(t, int32(1), calls.Load())

	got, err = square(WithRecompute(ctx), 9)
	require.NoError(t, err)
	assert.Equal(t, 81, got)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "81", string(testsupport.ReadEntry(t, dir, "9")))
}

func TestMemoryTierPassesErrorsThrough(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.Memory = cache.DefaultMemoryConfig()
	boom := errors.New("boom")

	m, err := New(func(ctx context.Context, args cache.Args) (int, error) {
		return 0, boom
	}, WithKeyStrategy(cache.OneKey), WithDirectory(t.TempDir()), WithConfig(cfg))
	require.NoError(t, err)

	_, err = m.Call(context.Background(), cache.Args{})
	assert.ErrorIs(t, err, boom)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, err := New(func(ctx context.Context, args cache.Args) (string, error) {
		return "v", nil
	}, WithKeyStrategy(cache.ConcatKey), WithDirectory(dir))
	require.NoError(t, err)

	_, err = m.Call(ctx, cache.Positional("k"))
	require.NoError(t, err)
	require.NoError(t, m.Forget(ctx, cache.Positional("k")))
	_, statErr := os.Stat(filepath.Join(dir, "k"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDurationResultsAreRecomputed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	calls := 0
	var logs bytes.Buffer
	m, err := New(func(ctx context.Context, args cache.Args) (time.Duration, error) {
		calls++
		return 49 * time.Hour, nil
	}, WithKeyStrategy(cache.OneKey), WithDirectory(dir), WithLogger(zerolog.New(&logs).Level(zerolog.WarnLevel)))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := m.Call(ctx, cache.Args{})
		require.NoError(t, err)
		assert.Equal(t, 49*time.Hour, got)
	}
	assert.Equal(t, 2, calls, "durations are stored lossily and never read back")
	assert.Equal(t, Stats{Misses: 2, Writes: 2}, m.Stats(), "a lossy entry is not corrupt")
	assert.Empty(t, logs.String())
	assert.Equal(t, `"0001-01-03"`, string(testsupport.ReadEntry(t, dir, "one_key")))
}

func TestNonFiniteFloatResults(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatMsgpack} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			c, err := codec.New(format)
			require.NoError(t, err)

			calls := 0
			m, err := New(func(ctx context.Context, args cache.Args) ([]float64, error) {
				calls++
				return []float64{1, math.NaN(), 3}, nil
			}, WithKeyStrategy(cache.OneKey), WithDirectory(t.TempDir()), WithCodec(c))
			require.NoError(t, err)

			for i := 0; i < 2; i++ {
				got, err := m.Call(ctx, cache.Args{})
				require.NoError(t, err)
				require.Len(t, got, 3)
				assert.Equal(t, 1.0, got[0])
				assert.True(t, math.IsNaN(got[1]), "call %d: got %v", i, got)
				assert.Equal(t, 3.0, got[2])
			}
			assert.Equal(t, 1, calls)

			scalar, err := New(func(ctx context.Context, args cache.Args) (float64, error) {
				return math.NaN(), nil
			}, WithKeyStrategy(cache.OneKey), WithDirectory(t.TempDir()), WithCodec(c))
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				got, err := scalar.Call(ctx, cache.Args{})
				require.NoError(t, err)
				assert.True(t, math.IsNaN(got))
			}
			assert.Equal(t, int64(1), scalar.Stats().Hits)
		})
	}
}

func TestUntypedResultsKeepNumberKinds(t *testing.T) {
	ctx := context.Background()
	m, err := New(func(ctx context.Context, args cache.Args) (map[string]any, error) {
		return map[string]any{"count": 16, "mean": 2.0, "ratio": 0.5}, nil
	}, WithKeyStrategy(cache.OneKey), WithDirectory(t.TempDir()))
	require.NoError(t, err)

	_, err = m.Call(ctx, cache.Args{})
	require.NoError(t, err)
	got, err := m.Call(ctx, cache.Args{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Stats().Hits)
	assert.Equal(t, map[string]any{"count": int64(16), "mean": 2.0, "ratio": 0.5}, got)
}

func TestDefaultDirectory(t *testing.T) {
	root := t.TempDir()

	m, err := New(func(ctx context.Context, args cache.Args) (int, error) {
		return 0, nil
	}, WithRoot(root), WithName("geo.square"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "geo.square"), m.Directory())

	root = testsupport.TempCacheRoot(t)
	square, err := Unary(squareInt, WithKeyStrategy(cache.ConcatKey))
	require.NoError(t, err)
	_, err = square(context.Background(), 3)
	require.NoError(t, err)

	want := filepath.Join(root, "github.com.goliatone.go-memocache.memoize.squareInt", "3")
	_, statErr := os.Stat(want)
	assert.NoError(t, statErr)
}

type recordingMetrics struct {
	mu     sync.Mutex
	events []string
	bytes  int
}

func (r *recordingMetrics) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingMetrics) Hit(fn string)     { r.record("hit:" + fn) }
func (r *recordingMetrics) Miss(fn string)    { r.record("miss:" + fn) }
func (r *recordingMetrics) Corrupt(fn string) { r.record("corrupt:" + fn) }
func (r *recordingMetrics) Stored(fn string, n int) {
	r.record("stored:" + fn)
	r.mu.Lock()
	r.bytes += n
	r.mu.Unlock()
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	testsupport.CorruptEntry(t, dir, "2")

	metrics := &recordingMetrics{}
	square, _ := countedSquare(t, WithDirectory(dir), WithName("square"), WithMetrics(metrics))

	for _, x := range []int{2, 2} {
		_, err := square(ctx, x)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"corrupt:square", "miss:square", "stored:square", "hit:square"}, metrics.events)
	assert.Equal(t, 1, metrics.bytes)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New[int](nil)
	assert.Error(t, err)

	cfg := cache.DefaultConfig()
	cfg.Format = "xml"
	_, err = New(func(ctx context.Context, args cache.Args) (int, error) { return 0, nil }, WithConfig(cfg))
	assert.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"github.com/acme/geo.Square", "github.com.acme.geo.Square"},
		{"github.com/acme/geo.(*Grid).Mask-fm", "github.com.acme.geo.Grid.Mask"},
		{"github.com/acme/geo.Unary[...].func1", "github.com.acme.geo.Unary.func1"},
		{"main.TestX.func2", "main.TestX.func2"},
		{"github.com/acme/go-tools/v2.load_data", "github.com.acme.go-tools.v2.load_data"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	assert.Equal(t, "github.com.goliatone.go-memocache.memoize.squareInt", QualifiedName(squareInt))
	assert.Equal(t, "", QualifiedName(42))
	assert.Equal(t, "", QualifiedName(nil))
}

func TestBinary(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	calls := 0

	label, err := Binary(func(ctx context.Context, place string, year int) (string, error) {
		calls++
		return place + "@" + strconv.Itoa(year), nil
	}, WithKeyStrategy(cache.ConcatKey), WithDirectory(dir))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := label(ctx, "north", 2019)
		require.NoError(t, err)
		assert.Equal(t, "north@2019", got)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, `"north@2019"`, string(testsupport.ReadEntry(t, dir, "north_2019")))
}
