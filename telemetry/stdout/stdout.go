// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package stdout

import (
	"context"
	"io"

	"github.com/z5labs/minecraft"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
)

// BuildSpanExporter returns a Builder that creates a span exporter which writes
// trace data to the provided io.Writer.
func BuildSpanExporter[W io.Writer](writerB minecraft.Builder[W]) minecraft.BuilderFunc[*stdouttrace.Exporter] {
	return func(ctx context.Context) (*stdouttrace.Exporter, error) {
		return stdouttrace.New(
			stdouttrace.WithWriter(minecraft.MustBuild(ctx, writerB)),
		)
	}
}

// BuildMetricExporter returns a Builder that creates a metric exporter which writes
// metric data to the provided io.Writer.
func BuildMetricExporter[W io.Writer](writerB minecraft.Builder[W]) minecraft.BuilderFunc[metric.Exporter] {
	return func(ctx context.Context) (metric.Exporter, error) {
		return stdoutmetric.New(
			stdoutmetric.WithWriter(minecraft.MustBuild(ctx, writerB)),
		)
	}
}

// BuildLogExporter returns a Builder that creates a log exporter which writes
// log records to the provided io.Writer.
func BuildLogExporter[W io.Writer](writerB minecraft.Builder[W]) minecraft.BuilderFunc[*stdoutlog.Exporter] {
	return func(ctx context.Context) (*stdoutlog.Exporter, error) {
		return stdoutlog.New(
			stdoutlog.WithWriter(minecraft.MustBuild(ctx, writerB)),
		)
	}
}
