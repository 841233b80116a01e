// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package try

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecover(t *testing.T) {
	t.Run("will update the error ref value", func(t *testing.T) {
		t.Run("if a panic is recovered and the ref is nil", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				panic("hello world")
			}

			err := f()

			var perr PanicError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, "hello world", perr.Value)
			require.Equal(t, "recovered from panic: hello world", perr.Error())
			require.Nil(t, perr.Unwrap())
		})

		t.Run("if a panic is recovered and the ref is already set", func(t *testing.T) {
			funcErr := errors.New("error value")
			panicErr := errors.New("panic error")
			f := func() (err error) {
				defer Recover(&err)
				err = funcErr
				panic(panicErr)
			}

			err := f()

			require.ErrorIs(t, err, funcErr)
			require.ErrorIs(t, err, panicErr)

			var perr PanicError
			require.ErrorAs(t, err, &perr)
		})
	})

	t.Run("will not update the error ref value", func(t *testing.T) {
		t.Run("if no panic occurred", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				return nil
			}

			require.NoError(t, f())
		})
	})
}

func TestCall(t *testing.T) {
	testCases := []struct {
		name      string
		f         func() error
		expectErr bool
		panicked  bool
	}{
		{
			name: "returns nil on success",
			f:    func() error { return nil },
		},
		{
			name:      "returns the func error",
			f:         func() error { return errors.New("failed") },
			expectErr: true,
		},
		{
			name:      "converts a panic",
			f:         func() error { panic("boom") },
			expectErr: true,
			panicked:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				err = Call(tc.f)
			})
			if !tc.expectErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)

			var perr PanicError
			require.Equal(t, tc.panicked, errors.As(err, &perr))
		})
	}
}

type closeFunc func() error

func (f closeFunc) Close() error {
	return f()
}

func TestClose(t *testing.T) {
	t.Run("will not set the error", func(t *testing.T) {
		t.Run("if the value is not an io.Closer", func(t *testing.T) {
			var err error
			Close(&err, struct{}{})
			require.NoError(t, err)
		})

		t.Run("if close succeeds", func(t *testing.T) {
			var err error
			Close(&err, closeFunc(func() error { return nil }))
			require.NoError(t, err)
		})
	})

	t.Run("will set the error", func(t *testing.T) {
		t.Run("if close fails and the ref is nil", func(t *testing.T) {
			closeErr := errors.New("close failed")

			var err error
			Close(&err, closeFunc(func() error { return closeErr }))

			var cerr CloseError
			require.ErrorAs(t, err, &cerr)
			require.ErrorIs(t, err, closeErr)
		})

		t.Run("if close fails and the ref is already set", func(t *testing.T) {
			funcErr := errors.New("func failed")
			closeErr := errors.New("close failed")

			err := funcErr
			Close(&err, closeFunc(func() error { return closeErr }))

			require.ErrorIs(t, err, funcErr)
			require.ErrorIs(t, err, closeErr)
		})
	})
}
