// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"net/http"
	"net/url"

	"github.com/z5labs/minecraft"
	"github.com/z5labs/minecraft/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GrpcTarget converts an endpoint such as "http://collector:4317" into
// a gRPC dial target. Endpoints without a scheme are returned unchanged.
func GrpcTarget(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

// BuildGrpcConn returns a Builder that creates a plaintext gRPC client
// connection to the collector at endpoint. The caller owns the connection.
func BuildGrpcConn(endpoint config.Reader[string]) minecraft.BuilderFunc[*grpc.ClientConn] {
	return func(ctx context.Context) (*grpc.ClientConn, error) {
		return grpc.NewClient(
			GrpcTarget(config.Must(ctx, endpoint)),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}
}

// BuildGrpcSpanExporter returns a Builder that creates an OTLP span exporter using
// gRPC transport over the provided gRPC connection.
func BuildGrpcSpanExporter(grpcConnB minecraft.Builder[*grpc.ClientConn]) minecraft.BuilderFunc[*otlptrace.Exporter] {
	return func(ctx context.Context) (*otlptrace.Exporter, error) {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithGRPCConn(minecraft.MustBuild(ctx, grpcConnB)),
		)
	}
}

// BuildHttpSpanExporter returns a Builder that creates an OTLP span exporter using
// HTTP transport. The endpoint is a URL, e.g. "http://collector:4318".
func BuildHttpSpanExporter(
	endpoint config.Reader[string],
	httpClientB minecraft.Builder[*http.Client],
) minecraft.BuilderFunc[*otlptrace.Exporter] {
	return func(ctx context.Context) (*otlptrace.Exporter, error) {
		return otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(config.Must(ctx, endpoint)),
			otlptracehttp.WithHTTPClient(minecraft.MustBuild(ctx, httpClientB)),
		)
	}
}

// BuildGrpcMetricExporter returns a Builder that creates an OTLP metric exporter using
// gRPC transport over the provided gRPC connection.
func BuildGrpcMetricExporter(grpcConnB minecraft.Builder[*grpc.ClientConn]) minecraft.BuilderFunc[*otlpmetricgrpc.Exporter] {
	return func(ctx context.Context) (*otlpmetricgrpc.Exporter, error) {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithGRPCConn(minecraft.MustBuild(ctx, grpcConnB)),
		)
	}
}

// BuildHttpMetricExporter returns a Builder that creates an OTLP metric exporter using
// HTTP transport. The endpoint is a URL, e.g. "http://collector:4318".
func BuildHttpMetricExporter(
	endpoint config.Reader[string],
	httpClientB minecraft.Builder[*http.Client],
) minecraft.BuilderFunc[*otlpmetrichttp.Exporter] {
	return func(ctx context.Context) (*otlpmetrichttp.Exporter, error) {
		return otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(config.Must(ctx, endpoint)),
			otlpmetrichttp.WithHTTPClient(minecraft.MustBuild(ctx, httpClientB)),
		)
	}
}

// BuildGrpcLogExporter returns a Builder that creates an OTLP log exporter using
// gRPC transport over the provided gRPC connection.
func BuildGrpcLogExporter(grpcConnB minecraft.Builder[*grpc.ClientConn]) minecraft.BuilderFunc[*otlploggrpc.Exporter] {
	return func(ctx context.Context) (*otlploggrpc.Exporter, error) {
		return otlploggrpc.New(
			ctx,
			otlploggrpc.WithGRPCConn(minecraft.MustBuild(ctx, grpcConnB)),
		)
	}
}

// BuildHttpLogExporter returns a Builder that creates an OTLP log exporter using
// HTTP transport. The endpoint is a URL, e.g. "http://collector:4318".
func BuildHttpLogExporter(
	endpoint config.Reader[string],
	httpClientB minecraft.Builder[*http.Client],
) minecraft.BuilderFunc[*otlploghttp.Exporter] {
	return func(ctx context.Context) (*otlploghttp.Exporter, error) {
		return otlploghttp.New(
			ctx,
			otlploghttp.WithEndpointURL(config.Must(ctx, endpoint)),
			otlploghttp.WithHTTPClient(minecraft.MustBuild(ctx, httpClientB)),
		)
	}
}
