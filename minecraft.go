// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package minecraft

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/z5labs/minecraft/internal/try"
)

// Builder represents anything which can construct a value of type T.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a func implementation of the [Builder] interface.
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// BuilderOf returns a [Builder] which always returns the given value.
func BuilderOf[T any](v T) Builder[T] {
	return BuilderFunc[T](func(_ context.Context) (T, error) {
		return v, nil
	})
}

// MustBuild builds a value from the given [Builder] and panics if an
// error is returned. It is meant to be used inside other [Builder]s
// which are run by a [Runner] wrapped with [RecoverPanics].
func MustBuild[T any](ctx context.Context, b Builder[T]) T {
	v, err := b.Build(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

// MemoizeBuilder wraps the given [Builder] such that it's only ever
// successfully built once. Subsequent calls return the cached value.
// Failed builds are not cached.
func MemoizeBuilder[T any](b Builder[T]) Builder[T] {
	var (
		mu    sync.Mutex
		done  bool
		value T
	)
	return BuilderFunc[T](func(ctx context.Context) (T, error) {
		mu.Lock()
		defer mu.Unlock()

		if done {
			return value, nil
		}

		v, err := b.Build(ctx)
		if err != nil {
			return v, err
		}
		value = v
		done = true
		return value, nil
	})
}

// Map transforms the output of a [Builder] with the given func.
// The func is only called if the underlying [Builder] succeeds.
func Map[A, B any](b Builder[A], f func(context.Context, A) (B, error)) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := b.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(ctx, a)
	})
}

// Bind chains two [Builder]s together, allowing the output of the first
// to decide how the second is constructed.
func Bind[A, B any](b Builder[A], f func(A) Builder[B]) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := b.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}

		v, err := f(a).Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return v, nil
	})
}

// Runtime represents a long running process e.g. the Minecraft server.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a func implementation of the [Runtime] interface.
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runner builds and runs a [Runtime].
type Runner[T Runtime] interface {
	Run(context.Context, Builder[T]) error
}

// RunnerFunc is a func implementation of the [Runner] interface.
type RunnerFunc[T Runtime] func(context.Context, Builder[T]) error

// Run implements the [Runner] interface.
func (f RunnerFunc[T]) Run(ctx context.Context, b Builder[T]) error {
	return f(ctx, b)
}

// DefaultRunner returns a [Runner] which simply builds the [Runtime]
// and then runs it.
func DefaultRunner[T Runtime]() Runner[T] {
	return RunnerFunc[T](func(ctx context.Context, b Builder[T]) error {
		rt, err := b.Build(ctx)
		if err != nil {
			return err
		}
		return rt.Run(ctx)
	})
}

// RecoverPanics wraps the given [Runner] such that any panics raised while
// building or running the [Runtime] are returned as a [try.PanicError].
func RecoverPanics[T Runtime](r Runner[T]) Runner[T] {
	return RunnerFunc[T](func(ctx context.Context, b Builder[T]) (err error) {
		defer try.Recover(&err)

		return r.Run(ctx, b)
	})
}

// NotifyOnSignal wraps the given [Runner] such that the [context.Context]
// passed to it is cancelled when any of the given [os.Signal]s are received.
func NotifyOnSignal[T Runtime](r Runner[T], signals ...os.Signal) Runner[T] {
	return RunnerFunc[T](func(ctx context.Context, b Builder[T]) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return r.Run(sigCtx, b)
	})
}
