// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// ReadFile opens the file at path. A missing file counts as not set,
// any other failure to open it is returned as an error.
//
// The caller owns the returned file and must close it.
func ReadFile(path string) Reader[*os.File] {
	return ReaderFunc[*os.File](func(_ context.Context) (Value[*os.File], error) {
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return Value[*os.File]{}, nil
		}
		if err != nil {
			return Value[*os.File]{}, err
		}
		return ValueOf(f), nil
	})
}
