// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"fmt"
	"io"

	"github.com/z5labs/minecraft/internal/try"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DecodeError occurs if the underlying bytes are not valid for the given format.
type DecodeError struct {
	Format string
	Cause  error
}

// Error implements the [error] interface.
func (e DecodeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Format, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DecodeError) Unwrap() error {
	return e.Cause
}

// Yaml decodes YAML from the set reader into T. Struct fields are matched
// using the `config` struct tag. Durations may be given as strings (e.g. "5s")
// and any field implementing [encoding.TextUnmarshaler] is decoded from text.
//
// If the reader implements [io.Closer] it is closed once decoded.
func Yaml[T any, R io.Reader](r Reader[R]) Reader[T] {
	return Map(r, func(_ context.Context, src R) (_ T, err error) {
		defer try.Close(&err, src)

		var v T
		b, err := io.ReadAll(src)
		if err != nil {
			return v, err
		}

		m := make(map[string]any)
		err = yaml.Unmarshal(b, &m)
		if err != nil {
			return v, DecodeError{Format: "yaml", Cause: err}
		}

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "config",
			Result:           &v,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		})
		if err != nil {
			return v, err
		}

		err = dec.Decode(m)
		if err != nil {
			return v, DecodeError{Format: "yaml", Cause: err}
		}
		return v, nil
	})
}

// Toml decodes TOML from the set reader into T using the `toml` struct tag.
//
// If the reader implements [io.Closer] it is closed once decoded.
func Toml[T any, R io.Reader](r Reader[R]) Reader[T] {
	return Map(r, func(_ context.Context, src R) (_ T, err error) {
		defer try.Close(&err, src)

		var v T
		err = toml.NewDecoder(src).Decode(&v)
		if err != nil {
			return v, DecodeError{Format: "toml", Cause: err}
		}
		return v, nil
	})
}
