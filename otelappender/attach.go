// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelappender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/z5labs/minecraft/internal/try"
	"github.com/z5labs/minecraft/lifecycle"
	"github.com/z5labs/minecraft/logging"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

const (
	// AppenderName is the name the appender is installed under by default.
	AppenderName = "OpenTelemetry"

	// InstrumentationName is the instrumentation scope of emitted log records.
	InstrumentationName = "github.com/z5labs/minecraft/otelappender"
)

// ProviderError is returned when the logger provider could not be obtained.
type ProviderError struct {
	Cause error
}

// Error implements the [error] interface.
func (e ProviderError) Error() string {
	return fmt.Sprintf("failed to obtain OpenTelemetry logger provider: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ProviderError) Unwrap() error {
	return e.Cause
}

// InstallError is returned when the logging subsystem rejects the appender.
type InstallError struct {
	Name  string
	Cause error
}

// Error implements the [error] interface.
func (e InstallError) Error() string {
	return fmt.Sprintf("failed to install appender %q: %s", e.Name, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InstallError) Unwrap() error {
	return e.Cause
}

// Registry is a logging subsystem which accepts appenders of type H.
// Installing a name twice should fail with [logging.ErrAppenderExists].
type Registry[H any] interface {
	Install(name string, appender H) error
}

// Bridge builds an appender which emits to the given provider.
type Bridge[H any] func(log.LoggerProvider) H

// SlogBridge returns an otelslog handler bound to lp.
func SlogBridge(lp log.LoggerProvider) slog.Handler {
	return otelslog.NewHandler(InstrumentationName, otelslog.WithLoggerProvider(lp))
}

// ZapBridge returns an otelzap core bound to lp.
func ZapBridge(lp log.LoggerProvider) zapcore.Core {
	return otelzap.NewCore(InstrumentationName, otelzap.WithLoggerProvider(lp))
}

type options struct {
	name   string
	source ProviderSource
	log    *slog.Logger
}

// Option configures an [Attacher].
type Option interface {
	applyOption(*options)
}

type optionFunc func(*options)

func (f optionFunc) applyOption(o *options) {
	f(o)
}

// Name overrides [AppenderName].
func Name(name string) Option {
	return optionFunc(func(o *options) {
		o.name = name
	})
}

// Source overrides the default [GlobalSource].
func Source(src ProviderSource) Option {
	return optionFunc(func(o *options) {
		o.source = src
	})
}

// Logger sets the logger used to report attaching. Defaults to [slog.Default].
func Logger(l *slog.Logger) Option {
	return optionFunc(func(o *options) {
		o.log = l
	})
}

// Attacher installs an OpenTelemetry bridge appender into a [Registry] exactly once.
type Attacher[H any] struct {
	registry Registry[H]
	bridge   Bridge[H]
	name     string
	source   ProviderSource
	log      *slog.Logger

	mu       sync.Mutex
	attached bool
}

// New returns an [Attacher] installing appenders built by bridge into registry.
func New[H any](registry Registry[H], bridge Bridge[H], opts ...Option) *Attacher[H] {
	o := &options{
		name: AppenderName,
	}
	for _, opt := range opts {
		opt.applyOption(o)
	}
	if o.source == nil {
		o.source = GlobalSource()
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return &Attacher[H]{
		registry: registry,
		bridge:   bridge,
		name:     o.name,
		source:   o.source,
		log:      o.log,
	}
}

// NewSlogAttacher returns an [Attacher] for a slog based logging subsystem.
func NewSlogAttacher(registry Registry[slog.Handler], opts ...Option) *Attacher[slog.Handler] {
	return New(registry, SlogBridge, opts...)
}

// NewZapAttacher returns an [Attacher] for a zap based logging subsystem.
func NewZapAttacher(registry Registry[zapcore.Core], opts ...Option) *Attacher[zapcore.Core] {
	return New(registry, ZapBridge, opts...)
}

// Attach obtains the logger provider and installs the bridge appender.
// It returns nil if the appender is already installed. A failed attempt
// leaves the Attacher unattached so a later call may succeed.
func (a *Attacher[H]) Attach(ctx context.Context) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.attached {
		return nil
	}
	defer try.Recover(&err)

	a.log.InfoContext(ctx, "obtaining a reference to the global OpenTelemetry logger provider")
	lp, err := a.source.LoggerProvider(ctx)
	if err != nil {
		a.log.ErrorContext(ctx, "failed to obtain the OpenTelemetry logger provider", slog.Any("error", err))
		return ProviderError{Cause: err}
	}

	err = a.registry.Install(a.name, a.bridge(lp))
	if errors.Is(err, logging.ErrAppenderExists) {
		a.attached = true
		a.log.DebugContext(ctx, "OpenTelemetry appender is already installed", slog.String("appender", a.name))
		return nil
	}
	if err != nil {
		a.log.ErrorContext(ctx, "failed to install the OpenTelemetry appender", slog.String("appender", a.name), slog.Any("error", err))
		return InstallError{Name: a.name, Cause: err}
	}

	a.attached = true
	a.log.InfoContext(ctx, "installed the OpenTelemetry appender", slog.String("appender", a.name))
	return nil
}

// Attached reports whether the appender has been installed.
func (a *Attacher[H]) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.attached
}

// Hook returns [Attacher.Attach] as a [lifecycle.Hook].
func (a *Attacher[H]) Hook() lifecycle.Hook {
	return lifecycle.HookFunc(a.Attach)
}
