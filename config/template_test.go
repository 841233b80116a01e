// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type readFunc func([]byte) (int, error)

func (f readFunc) Read(b []byte) (int, error) {
	return f(b)
}

func render(t *testing.T, r Reader[io.Reader]) (string, error) {
	t.Helper()

	src, err := Read(context.Background(), r)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(src)
	require.NoError(t, err)
	return string(b), nil
}

func TestTextTemplate(t *testing.T) {
	t.Run("will render env lookups", func(t *testing.T) {
		t.Setenv("MINECRAFT_TEMPLATE_TEST_DIR", "/srv/minecraft")

		out, err := render(t, TextTemplate(ReaderOf(strings.NewReader(`dir: {{ env "MINECRAFT_TEMPLATE_TEST_DIR" }}`))))
		require.NoError(t, err)
		require.Equal(t, "dir: /srv/minecraft", out)
	})

	t.Run("will use custom funcs and delimiters", func(t *testing.T) {
		out, err := render(t, TextTemplate(
			ReaderOf(strings.NewReader(`stage: ${ stage }`)),
			TemplateDelims("${", "}"),
			TemplateFunc("stage", func() string { return "server-start" }),
		))
		require.NoError(t, err)
		require.Equal(t, "stage: server-start", out)
	})

	t.Run("will feed the rendered template to a decoder", func(t *testing.T) {
		t.Setenv("MINECRAFT_TEMPLATE_TEST_GRACE", "45s")

		type launcher struct {
			GracePeriod string `config:"gracePeriod"`
		}

		cfg, err := Read(context.Background(), Yaml[launcher](
			TextTemplate(ReaderOf(strings.NewReader(`gracePeriod: {{ env "MINECRAFT_TEMPLATE_TEST_GRACE" }}`))),
		))
		require.NoError(t, err)
		require.Equal(t, "45s", cfg.GracePeriod)
	})

	t.Run("will stay unset when the source is unset", func(t *testing.T) {
		_, err := Read(context.Background(), TextTemplate(unset[*strings.Reader]()))
		require.ErrorIs(t, err, ErrValueNotSet)
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the underlying io.Reader fails", func(t *testing.T) {
			readErr := errors.New("failed to read")
			r := readFunc(func(b []byte) (int, error) {
				return 0, readErr
			})

			_, err := render(t, TextTemplate(ReaderOf(r)))
			require.ErrorIs(t, err, readErr)
		})

		t.Run("if the template is invalid", func(t *testing.T) {
			_, err := render(t, TextTemplate(ReaderOf(strings.NewReader(`{{ hello`))))

			var perr TemplateParseError
			require.ErrorAs(t, err, &perr)
			require.NotEmpty(t, perr.Error())
		})

		t.Run("if the template fails to execute", func(t *testing.T) {
			_, err := render(t, TextTemplate(
				ReaderOf(strings.NewReader(`{{ hello }}`)),
				TemplateFunc("hello", func() (string, error) {
					return "", errors.New("no greeting")
				}),
			))

			var eerr TemplateExecError
			require.ErrorAs(t, err, &eerr)
			require.ErrorContains(t, eerr, "no greeting")
		})
	})
}
