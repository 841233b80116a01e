// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/z5labs/minecraft"
	"github.com/z5labs/minecraft/config"
	"github.com/z5labs/minecraft/internal/try"
	"github.com/z5labs/minecraft/telemetry/noop"
	"github.com/z5labs/minecraft/telemetry/otlp"
	"github.com/z5labs/minecraft/telemetry/stdout"

	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

// Exporter selects where telemetry is sent.
type Exporter string

const (
	ExporterOTLPGrpc Exporter = "otlp-grpc"
	ExporterOTLPHttp Exporter = "otlp-http"
	ExporterStdout   Exporter = "stdout"
	ExporterNone     Exporter = "none"
)

// UnknownExporterError is returned by [ParseExporter] for unsupported exporters.
type UnknownExporterError struct {
	Exporter string
}

// Error implements the [error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown telemetry exporter: %q", e.Exporter)
}

// ParseExporter parses an [Exporter], ignoring case.
func ParseExporter(s string) (Exporter, error) {
	switch e := Exporter(strings.ToLower(s)); e {
	case ExporterOTLPGrpc, ExporterOTLPHttp, ExporterStdout, ExporterNone:
		return e, nil
	default:
		return "", UnknownExporterError{Exporter: s}
	}
}

const (
	defaultGrpcEndpoint = "localhost:4317"
	defaultHttpEndpoint = "http://localhost:4318"
)

// ExporterFromEnv reads OTEL_EXPORTER. If it is unset but
// OTEL_EXPORTER_OTLP_ENDPOINT is set, OTLP over gRPC is assumed.
func ExporterFromEnv() config.Reader[Exporter] {
	return config.Or(
		config.Map(config.Env("OTEL_EXPORTER"), func(_ context.Context, s string) (Exporter, error) {
			return ParseExporter(s)
		}),
		config.Map(config.Env("OTEL_EXPORTER_OTLP_ENDPOINT"), func(_ context.Context, _ string) (Exporter, error) {
			return ExporterOTLPGrpc, nil
		}),
	)
}

func as[I, C any](b minecraft.Builder[C]) minecraft.Builder[I] {
	return minecraft.Map(b, func(_ context.Context, c C) (I, error) {
		return any(c).(I), nil
	})
}

type exporters struct {
	span   minecraft.Builder[sdktrace.SpanExporter]
	metric minecraft.Builder[sdkmetric.Exporter]
	log    minecraft.Builder[sdklog.Exporter]
	conn   *grpc.ClientConn
}

func buildExporters(ctx context.Context, exp Exporter) (exporters, error) {
	endpoint := config.Env("OTEL_EXPORTER_OTLP_ENDPOINT")

	switch exp {
	case ExporterOTLPGrpc:
		conn, err := otlp.BuildGrpcConn(config.Default(defaultGrpcEndpoint, endpoint)).Build(ctx)
		if err != nil {
			return exporters{}, err
		}
		connB := minecraft.BuilderOf(conn)
		return exporters{
			span:   as[sdktrace.SpanExporter](otlp.BuildGrpcSpanExporter(connB)),
			metric: as[sdkmetric.Exporter](otlp.BuildGrpcMetricExporter(connB)),
			log:    as[sdklog.Exporter](otlp.BuildGrpcLogExporter(connB)),
			conn:   conn,
		}, nil
	case ExporterOTLPHttp:
		url := config.Default(defaultHttpEndpoint, endpoint)
		clientB := minecraft.BuilderOf(&http.Client{Timeout: 10 * time.Second})
		return exporters{
			span:   as[sdktrace.SpanExporter](otlp.BuildHttpSpanExporter(url, clientB)),
			metric: as[sdkmetric.Exporter](otlp.BuildHttpMetricExporter(url, clientB)),
			log:    as[sdklog.Exporter](otlp.BuildHttpLogExporter(url, clientB)),
		}, nil
	case ExporterStdout:
		w := minecraft.BuilderOf(os.Stdout)
		return exporters{
			span:   as[sdktrace.SpanExporter](stdout.BuildSpanExporter(w)),
			metric: as[sdkmetric.Exporter](stdout.BuildMetricExporter(w)),
			log:    as[sdklog.Exporter](stdout.BuildLogExporter(w)),
		}, nil
	case ExporterNone:
		return exporters{
			span:   noop.BuildSpanExporter(),
			metric: noop.BuildMetricExporter(),
			log:    noop.BuildLogExporter(),
		}, nil
	default:
		return exporters{}, UnknownExporterError{Exporter: string(exp)}
	}
}

// BuildFromEnv wraps the runtime built by runtimeB with OpenTelemetry
// providers configured from the environment:
//
//   - OTEL_EXPORTER: one of otlp-grpc, otlp-http, stdout or none (default)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: collector endpoint
//   - OTEL_SERVICE_NAME: overrides serviceName
//   - OTEL_TRACES_SAMPLER_ARG: trace sampling ratio, defaults to 1
//   - OTEL_RESOURCE_ATTRIBUTES: extra resource attributes
//
// OpenTelemetry errors are reported to log, which should not itself be
// exported through the configured logger provider.
func BuildFromEnv[R minecraft.Runtime](
	serviceName string,
	serviceVersion config.Reader[string],
	log *slog.Logger,
	runtimeB minecraft.Builder[R],
) minecraft.Builder[minecraft.Runtime] {
	return minecraft.BuilderFunc[minecraft.Runtime](func(ctx context.Context) (minecraft.Runtime, error) {
		exp, err := config.Read(ctx, config.Default(ExporterNone, ExporterFromEnv()))
		if err != nil {
			return nil, err
		}

		exps, err := buildExporters(ctx, exp)
		if err != nil {
			return nil, err
		}

		resourceB := BuildResource(
			config.Default(serviceName, config.Env("OTEL_SERVICE_NAME")),
			serviceVersion,
		)

		rt, err := BuildRuntime(
			minecraft.BuilderOf(LogErrorHandler(log)),
			minecraft.BuilderOf[propagation.TextMapPropagator](propagation.NewCompositeTextMapPropagator(
				propagation.Baggage{},
				propagation.TraceContext{},
			)),
			BuildTracerProvider(
				resourceB,
				BuildTraceIDRatioBasedSampler(
					config.Default(1.0, config.Float64FromString(config.Env("OTEL_TRACES_SAMPLER_ARG"))),
				),
				BuildBatchSpanProcessor(exps.span),
			),
			BuildMeterProvider(
				resourceB,
				BuildPeriodicReader(exps.metric),
			),
			BuildLoggerProvider(
				resourceB,
				BuildBatchLogProcessor(exps.log),
			),
			runtimeB,
		).Build(ctx)
		if err != nil {
			return nil, err
		}

		log.DebugContext(ctx, "configured telemetry", slog.String("exporter", string(exp)))
		if exps.conn == nil {
			return rt, nil
		}

		return minecraft.RuntimeFunc(func(ctx context.Context) (err error) {
			defer try.Close(&err, exps.conn)

			return rt.Run(ctx)
		}), nil
	})
}
