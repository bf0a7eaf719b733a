package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-memocache/internal/cacheinfra"
)

var _ Tier = (*cacheinfra.MemoryTier)(nil)

// mockTier returns a fixed result for every key.
type mockTier struct {
	result any
	err    error
}

func (m *mockTier) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return m.result, m.err
}

func (m *mockTier) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockTier) DeleteByPrefix(ctx context.Context, prefix string) error {
	return nil
}

func TestGetOrFetch_NilInterface(t *testing.T) {
	mock := &mockTier{result: nil}

	type Shape interface {
		Area() float64
	}

	result, err := GetOrFetch[Shape](context.Background(), mock, "/cache/area/1", func(ctx context.Context) (Shape, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_NilPointer(t *testing.T) {
	mock := &mockTier{result: (*string)(nil)}

	result, err := GetOrFetch[*string](context.Background(), mock, "/cache/name/1", func(ctx context.Context) (*string, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeMismatch(t *testing.T) {
	mock := &mockTier{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "/cache/square/4", func(ctx context.Context) (int, error) {
		return 16, nil
	})

	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value but got: %v", result)
	}
}

func TestGetOrFetch_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	mock := &mockTier{err: boom}

	_, err := GetOrFetch[int](context.Background(), mock, "/cache/square/4", func(ctx context.Context) (int, error) {
		return 16, nil
	})

	if !errors.Is(err, boom) {
		t.Errorf("expected fetch error but got: %v", err)
	}
}

func TestGetOrFetch_MemoryTier(t *testing.T) {
	tier, err := cacheinfra.NewMemoryTier(DefaultMemoryConfig().toInternal())
	if err != nil {
		t.Fatalf("failed to create tier: %v", err)
	}

	calls := 0
	fetch := func(ctx context.Context) (float64, error) {
		calls++
		return 2.5, nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetOrFetch(context.Background(), tier, "/cache/ratio/1", fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 2.5 {
			t.Errorf("expected 2.5, got %v", got)
		}
	}
	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}
}
