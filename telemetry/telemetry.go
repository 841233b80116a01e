// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/z5labs/minecraft"
	"github.com/z5labs/minecraft/config"
	"github.com/z5labs/minecraft/internal/fixedpool"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// BuildResource describes this process. Attributes from OTEL_RESOURCE_ATTRIBUTES
// are merged in, an unset version is left out.
func BuildResource(serviceName, serviceVersion config.Reader[string]) minecraft.Builder[*resource.Resource] {
	return minecraft.MemoizeBuilder(minecraft.BuilderFunc[*resource.Resource](func(ctx context.Context) (*resource.Resource, error) {
		attrs := []resource.Option{
			resource.WithAttributes(semconv.ServiceName(config.Must(ctx, serviceName))),
		}
		if v, err := config.Read(ctx, serviceVersion); err == nil {
			attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(v)))
		}
		attrs = append(
			attrs,
			resource.WithFromEnv(),
			resource.WithTelemetrySDK(),
			resource.WithHost(),
		)
		return resource.New(ctx, attrs...)
	}))
}

// LogErrorHandler reports internal OpenTelemetry errors, e.g. failed exports, to log.
func LogErrorHandler(log *slog.Logger) otel.ErrorHandler {
	return otel.ErrorHandlerFunc(func(err error) {
		log.Error("opentelemetry error", slog.Any("error", err))
	})
}

func BuildTraceIDRatioBasedSampler(ratio config.Reader[float64]) minecraft.Builder[sdktrace.Sampler] {
	return minecraft.BuilderFunc[sdktrace.Sampler](func(ctx context.Context) (sdktrace.Sampler, error) {
		sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.Must(ctx, ratio)))

		return sampler, nil
	})
}

func BuildBatchSpanProcessor[E sdktrace.SpanExporter](
	exporterBuilder minecraft.Builder[E],
) minecraft.Builder[sdktrace.SpanProcessor] {
	return minecraft.BuilderFunc[sdktrace.SpanProcessor](func(ctx context.Context) (sdktrace.SpanProcessor, error) {
		bsp := sdktrace.NewBatchSpanProcessor(
			minecraft.MustBuild(ctx, exporterBuilder),
		)

		return bsp, nil
	})
}

func BuildTracerProvider[S sdktrace.Sampler, P sdktrace.SpanProcessor](
	resourceBuilder minecraft.Builder[*resource.Resource],
	samplerBuilder minecraft.Builder[S],
	spanProcessorBuilder minecraft.Builder[P],
) minecraft.Builder[*sdktrace.TracerProvider] {
	return minecraft.BuilderFunc[*sdktrace.TracerProvider](func(ctx context.Context) (*sdktrace.TracerProvider, error) {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(minecraft.MustBuild(ctx, resourceBuilder)),
			sdktrace.WithSampler(minecraft.MustBuild(ctx, samplerBuilder)),
			sdktrace.WithSpanProcessor(minecraft.MustBuild(ctx, spanProcessorBuilder)),
		)

		return tp, nil
	})
}

func BuildPeriodicReader[E sdkmetric.Exporter](
	exporterBuilder minecraft.Builder[E],
) minecraft.Builder[*sdkmetric.PeriodicReader] {
	return minecraft.BuilderFunc[*sdkmetric.PeriodicReader](func(ctx context.Context) (*sdkmetric.PeriodicReader, error) {
		pr := sdkmetric.NewPeriodicReader(
			minecraft.MustBuild(ctx, exporterBuilder),
		)

		return pr, nil
	})
}

func BuildMeterProvider[R sdkmetric.Reader](
	resourceBuilder minecraft.Builder[*resource.Resource],
	readerBuilder minecraft.Builder[R],
) minecraft.Builder[*sdkmetric.MeterProvider] {
	return minecraft.BuilderFunc[*sdkmetric.MeterProvider](func(ctx context.Context) (*sdkmetric.MeterProvider, error) {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(minecraft.MustBuild(ctx, resourceBuilder)),
			sdkmetric.WithReader(minecraft.MustBuild(ctx, readerBuilder)),
		)

		return mp, nil
	})
}

func BuildBatchLogProcessor[E sdklog.Exporter](
	exporterBuilder minecraft.Builder[E],
) minecraft.Builder[*sdklog.BatchProcessor] {
	return minecraft.BuilderFunc[*sdklog.BatchProcessor](func(ctx context.Context) (*sdklog.BatchProcessor, error) {
		bp := sdklog.NewBatchProcessor(
			minecraft.MustBuild(ctx, exporterBuilder),
		)

		return bp, nil
	})
}

func BuildLoggerProvider[P sdklog.Processor](
	resourceBuilder minecraft.Builder[*resource.Resource],
	processorBuilder minecraft.Builder[P],
) minecraft.Builder[*sdklog.LoggerProvider] {
	return minecraft.BuilderFunc[*sdklog.LoggerProvider](func(ctx context.Context) (*sdklog.LoggerProvider, error) {
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(minecraft.MustBuild(ctx, resourceBuilder)),
			sdklog.WithProcessor(minecraft.MustBuild(ctx, processorBuilder)),
		)

		return lp, nil
	})
}

// Runtime installs the OpenTelemetry providers globally for the
// duration of the wrapped runtime.
type Runtime[
	E otel.ErrorHandler,
	T trace.TracerProvider,
	M metric.MeterProvider,
	L log.LoggerProvider,
	R minecraft.Runtime,
] struct {
	errorHandler      E
	textMapPropagator propagation.TextMapPropagator
	tracerProvider    T
	meterProvider     M
	loggerProvider    L
	runtime           R
}

func BuildRuntime[
	E otel.ErrorHandler,
	T trace.TracerProvider,
	M metric.MeterProvider,
	L log.LoggerProvider,
	R minecraft.Runtime,
](
	errorHandlerBuilder minecraft.Builder[E],
	textMapPropagatorBuilder minecraft.Builder[propagation.TextMapPropagator],
	tracerProviderBuilder minecraft.Builder[T],
	meterProviderBuilder minecraft.Builder[M],
	loggerProviderBuilder minecraft.Builder[L],
	runtimeBuilder minecraft.Builder[R],
) minecraft.Builder[Runtime[E, T, M, L, R]] {
	return minecraft.BuilderFunc[Runtime[E, T, M, L, R]](func(ctx context.Context) (Runtime[E, T, M, L, R], error) {
		errorHandler := minecraft.MustBuild(ctx, errorHandlerBuilder)
		textMapPropagator := minecraft.MustBuild(ctx, textMapPropagatorBuilder)
		tracerProvider := minecraft.MustBuild(ctx, tracerProviderBuilder)
		meterProvider := minecraft.MustBuild(ctx, meterProviderBuilder)
		loggerProvider := minecraft.MustBuild(ctx, loggerProviderBuilder)
		runtime := minecraft.MustBuild(ctx, runtimeBuilder)

		return Runtime[E, T, M, L, R]{
			errorHandler:      errorHandler,
			textMapPropagator: textMapPropagator,
			tracerProvider:    tracerProvider,
			meterProvider:     meterProvider,
			loggerProvider:    loggerProvider,
			runtime:           runtime,
		}, nil
	})
}

type shutdownInterface interface {
	Shutdown(ctx context.Context) error
}

// Run implements the [minecraft.Runtime] interface.
func (r Runtime[E, T, M, L, R]) Run(ctx context.Context) (err error) {
	shutdownFuncs := make([]func(context.Context) error, 3)

	otel.SetErrorHandler(r.errorHandler)
	otel.SetTextMapPropagator(r.textMapPropagator)

	otel.SetTracerProvider(r.tracerProvider)
	if sd, ok := any(r.tracerProvider).(shutdownInterface); ok {
		shutdownFuncs[0] = sd.Shutdown
	}

	otel.SetMeterProvider(r.meterProvider)
	if sd, ok := any(r.meterProvider).(shutdownInterface); ok {
		shutdownFuncs[1] = sd.Shutdown
	}

	global.SetLoggerProvider(r.loggerProvider)
	if sd, ok := any(r.loggerProvider).(shutdownInterface); ok {
		shutdownFuncs[2] = sd.Shutdown
	}

	defer func() {
		// flush even if ctx has been cancelled
		shutdownCtx := context.WithoutCancel(ctx)

		tasks := make([]fixedpool.Task, 0, len(shutdownFuncs))
		for _, shutdown := range shutdownFuncs {
			if shutdown == nil {
				continue
			}
			// a failed provider must not cancel the flush of the others
			tasks = append(tasks, func(context.Context) error {
				return shutdown(shutdownCtx)
			})
		}
		err = errors.Join(err, fixedpool.Wait(shutdownCtx, tasks...))
	}()

	return r.runtime.Run(ctx)
}
