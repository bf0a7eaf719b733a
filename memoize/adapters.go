package memoize

import (
	"context"

	"github.com/goliatone/go-memocache/cache"
)

// Unary memoizes a one-argument function. The default name, and therefore
// the default directory, comes from fn itself.
func Unary[A, R any](fn func(context.Context, A) (R, error), opts ...Option) (func(context.Context, A) (R, error), error) {
	opts = append([]Option{WithName(QualifiedName(fn))}, opts...)
	m, err := New(func(ctx context.Context, args cache.Args) (R, error) {
		return fn(ctx, argAt[A](args, 0))
	}, opts...)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, a A) (R, error) {
		return m.Call(ctx, cache.Positional(a))
	}, nil
}

// Binary memoizes a two-argument function.
func Binary[A, B, R any](fn func(context.Context, A, B) (R, error), opts ...Option) (func(context.Context, A, B) (R, error), error) {
	opts = append([]Option{WithName(QualifiedName(fn))}, opts...)
	m, err := New(func(ctx context.Context, args cache.Args) (R, error) {
		return fn(ctx, argAt[A](args, 0), argAt[B](args, 1))
	}, opts...)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, a A, b B) (R, error) {
		return m.Call(ctx, cache.Positional(a, b))
	}, nil
}

func argAt[A any](args cache.Args, i int) A {
	var zero A
	if i >= len(args.Positional) {
		return zero
	}
	a, ok := args.Positional[i].(A)
	if !ok {
		return zero
	}
	return a
}
