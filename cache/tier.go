package cache

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
)

// FetchFn is the function a Tier runs when it does not hold a value.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Tier is a read-through cache placed in front of the entry files. Keys are
// entry locations, so one tier can be shared by many memoized functions.
type Tier interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ErrInvalidResultType is returned by GetOrFetch when the tier holds a value
// of another type than requested, which happens when two functions share a
// cache directory.
var ErrInvalidResultType = errors.New("cached value has an unexpected type", errors.CategoryInternal).
	WithTextCode(TextCodeInvalidResultType)

// GetOrFetch is a type-safe wrapper around Tier.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, tier Tier, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := tier.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}

	// a nil interface carries no type to assert on
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %T", ErrInvalidResultType, key, result, zero)
	}
	return typed, nil
}
