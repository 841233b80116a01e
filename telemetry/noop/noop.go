// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package noop

import (
	"context"

	"github.com/z5labs/minecraft"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanExporter drops every span.
type SpanExporter struct{}

// BuildSpanExporter
func BuildSpanExporter() minecraft.Builder[sdktrace.SpanExporter] {
	return minecraft.BuilderOf[sdktrace.SpanExporter](SpanExporter{})
}

func (SpanExporter) ExportSpans(_ context.Context, _ []sdktrace.ReadOnlySpan) error { return nil }
func (SpanExporter) Shutdown(_ context.Context) error                              { return nil }

// MetricExporter drops every metric.
type MetricExporter struct{}

// BuildMetricExporter
func BuildMetricExporter() minecraft.Builder[sdkmetric.Exporter] {
	return minecraft.BuilderOf[sdkmetric.Exporter](MetricExporter{})
}

func (MetricExporter) Temporality(_ sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (MetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (MetricExporter) Export(_ context.Context, _ *metricdata.ResourceMetrics) error { return nil }
func (MetricExporter) ForceFlush(_ context.Context) error                           { return nil }
func (MetricExporter) Shutdown(_ context.Context) error                             { return nil }

// LogExporter drops every log record.
type LogExporter struct{}

// BuildLogExporter
func BuildLogExporter() minecraft.Builder[sdklog.Exporter] {
	return minecraft.BuilderOf[sdklog.Exporter](LogExporter{})
}

func (LogExporter) Export(_ context.Context, _ []sdklog.Record) error { return nil }
func (LogExporter) ForceFlush(_ context.Context) error                { return nil }
func (LogExporter) Shutdown(_ context.Context) error                  { return nil }
