// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/z5labs/minecraft/internal/try"
)

type templateOptions struct {
	leftDelim  string
	rightDelim string
	funcs      template.FuncMap
}

// TemplateOption configures [TextTemplate].
type TemplateOption func(*templateOptions)

// TemplateFunc registers the given function, f, for use in the config
// template via the given name.
func TemplateFunc(name string, f any) TemplateOption {
	return func(o *templateOptions) {
		o.funcs[name] = f
	}
}

// TemplateDelims sets the action delimiters to the specified strings.
// An empty delimiter stands for the corresponding default: {{ or }}.
func TemplateDelims(left, right string) TemplateOption {
	return func(o *templateOptions) {
		o.leftDelim = left
		o.rightDelim = right
	}
}

// TemplateParseError occurs when the config template fails to be parsed.
type TemplateParseError struct {
	Cause error
}

// Error implements the [error] interface.
func (e TemplateParseError) Error() string {
	return fmt.Sprintf("failed to parse config template: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TemplateParseError) Unwrap() error {
	return e.Cause
}

// TemplateExecError occurs when a template fails to execute. Most
// likely cause is a template function returning an error or panicking.
type TemplateExecError struct {
	Cause error
}

// Error implements the [error] interface.
func (e TemplateExecError) Error() string {
	return fmt.Sprintf("failed to exec config template: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TemplateExecError) Unwrap() error {
	return e.Cause
}

// TextTemplate renders the set reader as a [text/template] before it is
// decoded, e.g. by [Yaml]. The env function is always available:
//
//	dir: {{ env "MINECRAFT_SERVER_DIR" }}
//
// If the reader implements [io.Closer] it is closed once read.
func TextTemplate[R io.Reader](r Reader[R], opts ...TemplateOption) Reader[io.Reader] {
	o := &templateOptions{
		funcs: template.FuncMap{
			"env": os.Getenv,
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	return Map(r, func(_ context.Context, src R) (_ io.Reader, err error) {
		defer try.Close(&err, src)

		b, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}

		tmpl, err := template.New("config").
			Delims(o.leftDelim, o.rightDelim).
			Funcs(o.funcs).
			Option("missingkey=error").
			Parse(string(b))
		if err != nil {
			return nil, TemplateParseError{Cause: err}
		}

		var buf bytes.Buffer
		err = tmpl.Execute(&buf, struct{}{})
		if err != nil {
			return nil, TemplateExecError{Cause: err}
		}
		return &buf, nil
	})
}
