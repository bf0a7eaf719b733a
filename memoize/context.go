package memoize

import (
	"context"
)

type recomputeContextKey struct{}

// WithRecompute marks ctx so memoized calls made with it skip existing
// entries, run the wrapped function and overwrite the entry.
func WithRecompute(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, recomputeContextKey{}, true)
}

func recomputeRequested(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	force, _ := ctx.Value(recomputeContextKey{}).(bool)
	return force
}
