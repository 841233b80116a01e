// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package minecraft

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/z5labs/minecraft/internal/try"

	"github.com/stretchr/testify/require"
)

var (
	signalSettleTime  = 100 * time.Millisecond
	signalWaitTimeout = 5 * time.Second
)

func init() {
	if s := os.Getenv("GO_TEST_TIMEOUT_SCALE"); s != "" {
		if scale, err := strconv.Atoi(s); err == nil && scale > 0 {
			signalSettleTime *= time.Duration(scale)
			signalWaitTimeout *= time.Duration(scale)
		}
	}
}

// quiesce waits for signal handlers to be ready.
func quiesce() {
	start := time.Now()
	for time.Since(start) < signalSettleTime {
		time.Sleep(signalSettleTime / 10)
	}
}

func TestBuilderOf(t *testing.T) {
	v, err := BuilderOf("1.21.1").Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.21.1", v)
}

func TestMustBuild(t *testing.T) {
	t.Run("returns the built value", func(t *testing.T) {
		require.Equal(t, 42, MustBuild(context.Background(), BuilderOf(42)))
	})

	t.Run("panics with the build error", func(t *testing.T) {
		buildErr := errors.New("build failed")
		b := BuilderFunc[int](func(ctx context.Context) (int, error) {
			return 0, buildErr
		})

		require.PanicsWithError(t, buildErr.Error(), func() {
			MustBuild(context.Background(), b)
		})
	})
}

func TestMemoizeBuilder(t *testing.T) {
	t.Run("builds the value once", func(t *testing.T) {
		calls := 0
		b := MemoizeBuilder(BuilderFunc[int](func(ctx context.Context) (int, error) {
			calls++
			return calls, nil
		}))

		for range 3 {
			v, err := b.Build(context.Background())
			require.NoError(t, err)
			require.Equal(t, 1, v)
		}
		require.Equal(t, 1, calls)
	})

	t.Run("does not cache failed builds", func(t *testing.T) {
		calls := 0
		b := MemoizeBuilder(BuilderFunc[int](func(ctx context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("not yet")
			}
			return 7, nil
		}))

		_, err := b.Build(context.Background())
		require.Error(t, err)

		v, err := b.Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, 7, v)

		v, err = b.Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, 7, v)
		require.Equal(t, 2, calls)
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls int
		)
		b := MemoizeBuilder(BuilderFunc[int](func(ctx context.Context) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return 42, nil
		}))

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := b.Build(context.Background())
				if err == nil && v != 42 {
					t.Errorf("unexpected value: %d", v)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, calls)
	})
}

func TestMap(t *testing.T) {
	testCases := []struct {
		name        string
		builder     Builder[int]
		mapper      func(context.Context, int) (string, error)
		expectedVal string
		expectErr   string
	}{
		{
			name:    "transforms the built value",
			builder: BuilderOf(25565),
			mapper: func(ctx context.Context, port int) (string, error) {
				return "localhost:" + strconv.Itoa(port), nil
			},
			expectedVal: "localhost:25565",
		},
		{
			name: "skips the mapper when the builder fails",
			builder: BuilderFunc[int](func(ctx context.Context) (int, error) {
				return 0, errors.New("build failed")
			}),
			mapper: func(ctx context.Context, port int) (string, error) {
				panic("mapper must not be called")
			},
			expectErr: "build failed",
		},
		{
			name:    "propagates the mapper error",
			builder: BuilderOf(1),
			mapper: func(ctx context.Context, port int) (string, error) {
				return "", errors.New("map failed")
			},
			expectErr: "map failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Map(tc.builder, tc.mapper).Build(context.Background())
			if tc.expectErr != "" {
				require.EqualError(t, err, tc.expectErr)
				require.Zero(t, v)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectedVal, v)
		})
	}
}

func TestBind(t *testing.T) {
	t.Run("uses the first value to choose the next builder", func(t *testing.T) {
		b := Bind(BuilderOf("fabric"), func(loader string) Builder[string] {
			return BuilderOf("mods/" + loader)
		})

		v, err := b.Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, "mods/fabric", v)
	})

	t.Run("does not call f when the first builder fails", func(t *testing.T) {
		called := false
		b := Bind(
			BuilderFunc[string](func(ctx context.Context) (string, error) {
				return "", errors.New("first failed")
			}),
			func(s string) Builder[int] {
				called = true
				return BuilderOf(1)
			},
		)

		_, err := b.Build(context.Background())
		require.EqualError(t, err, "first failed")
		require.False(t, called)
	})

	t.Run("returns the zero value when the second builder fails", func(t *testing.T) {
		b := Bind(BuilderOf(1), func(n int) Builder[int] {
			return BuilderFunc[int](func(ctx context.Context) (int, error) {
				return 99, errors.New("second failed")
			})
		})

		v, err := b.Build(context.Background())
		require.EqualError(t, err, "second failed")
		require.Zero(t, v)
	})
}

func TestDefaultRunner(t *testing.T) {
	t.Run("runs the built runtime with the same context", func(t *testing.T) {
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "launcher")

		var seen any
		b := BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
			seen = ctx.Value(ctxKey{})
			return nil
		}))

		err := DefaultRunner[Runtime]().Run(ctx, b)
		require.NoError(t, err)
		require.Equal(t, "launcher", seen)
	})

	t.Run("returns the build error without running", func(t *testing.T) {
		b := BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
			return nil, errors.New("build failed")
		})

		err := DefaultRunner[Runtime]().Run(context.Background(), b)
		require.EqualError(t, err, "build failed")
	})

	t.Run("returns the runtime error", func(t *testing.T) {
		b := BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
			return errors.New("server crashed")
		}))

		err := DefaultRunner[Runtime]().Run(context.Background(), b)
		require.EqualError(t, err, "server crashed")
	})
}

func TestRecoverPanics(t *testing.T) {
	testCases := []struct {
		name        string
		builder     Builder[Runtime]
		expectErr   string
		expectPanic bool
	}{
		{
			name: "passes through success",
			builder: BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
				return nil
			})),
		},
		{
			name: "passes through normal errors",
			builder: BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
				return errors.New("normal error")
			})),
			expectErr: "normal error",
		},
		{
			name: "recovers a panic while running",
			builder: BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
				panic("test panic")
			})),
			expectErr:   "recovered from panic: test panic",
			expectPanic: true,
		},
		{
			name: "recovers a panic while building",
			builder: BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
				return MustBuild(ctx, BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
					return nil, errors.New("missing server jar")
				})), nil
			}),
			expectErr:   "recovered from panic: missing server jar",
			expectPanic: true,
		},
		{
			name: "recovers a panic with a non error value",
			builder: BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
				panic(42)
			})),
			expectErr:   "recovered from panic: 42",
			expectPanic: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := RecoverPanics(DefaultRunner[Runtime]())

			var err error
			require.NotPanics(t, func() {
				err = runner.Run(context.Background(), tc.builder)
			})

			if tc.expectErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tc.expectErr)

			var perr try.PanicError
			require.Equal(t, tc.expectPanic, errors.As(err, &perr))
		})
	}
}

func TestNotifyOnSignal(t *testing.T) {
	t.Run("passes through the runtime result", func(t *testing.T) {
		b := BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
			return errors.New("runtime failed")
		}))

		err := NotifyOnSignal(DefaultRunner[Runtime](), os.Interrupt).Run(context.Background(), b)
		require.EqualError(t, err, "runtime failed")
	})

	t.Run("cancels when the parent context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		b := BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		err := NotifyOnSignal(DefaultRunner[Runtime](), os.Interrupt).Run(ctx, b)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("cancels the context when a signal is received", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("signals work differently on Windows")
		}

		received := make(chan struct{})
		b := BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(received)
			return ctx.Err()
		}))

		runner := NotifyOnSignal(DefaultRunner[Runtime](), syscall.SIGUSR1, syscall.SIGUSR2)

		go func() {
			quiesce()
			syscall.Kill(syscall.Getpid(), syscall.SIGUSR2)
		}()

		err := runner.Run(context.Background(), b)

		select {
		case <-received:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(signalWaitTimeout):
			t.Fatalf("timeout after %v waiting for signal", signalWaitTimeout)
		}
	})
}
