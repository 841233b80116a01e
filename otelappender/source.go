// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelappender

import (
	"context"
	"errors"
	"reflect"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// ErrProviderUnavailable is returned when no OpenTelemetry logger
// provider has been installed yet.
var ErrProviderUnavailable = errors.New("otelappender: OpenTelemetry logger provider is unavailable")

// ProviderSource hands out the OpenTelemetry logger provider.
type ProviderSource interface {
	LoggerProvider(context.Context) (log.LoggerProvider, error)
}

// ProviderSourceFunc is a func implementation of the [ProviderSource] interface.
type ProviderSourceFunc func(context.Context) (log.LoggerProvider, error)

// LoggerProvider implements the [ProviderSource] interface.
func (f ProviderSourceFunc) LoggerProvider(ctx context.Context) (log.LoggerProvider, error) {
	return f(ctx)
}

// StaticSource always returns lp. A nil lp is reported as [ErrProviderUnavailable].
func StaticSource(lp log.LoggerProvider) ProviderSource {
	return ProviderSourceFunc(func(_ context.Context) (log.LoggerProvider, error) {
		if lp == nil {
			return nil, ErrProviderUnavailable
		}
		return lp, nil
	})
}

// delegatePkgPath is the package of the delegating provider the otel
// global package hands out until [global.SetLoggerProvider] is called.
const delegatePkgPath = "go.opentelemetry.io/otel/log/internal/global"

func isDelegate(lp log.LoggerProvider) bool {
	t := reflect.TypeOf(lp)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.PkgPath() == delegatePkgPath
}

// GlobalSource returns a [ProviderSource] backed by [global.GetLoggerProvider].
// It reports [ErrProviderUnavailable] until a provider has been set with
// [global.SetLoggerProvider].
func GlobalSource() ProviderSource {
	return ProviderSourceFunc(func(_ context.Context) (log.LoggerProvider, error) {
		lp := global.GetLoggerProvider()
		if lp == nil || isDelegate(lp) {
			return nil, ErrProviderUnavailable
		}
		return lp, nil
	})
}
