// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package telemetry sets up the process wide OpenTelemetry providers
// around a [minecraft.Runtime].
//
// It plays the role a Java agent plays for a JVM based server: the
// providers are built and installed globally before the wrapped runtime
// runs, so anything running inside it, e.g. the log appender hook from
// package otelappender, can pick them up.
//
// # Core Components
//
//   - Tracing: BuildTracerProvider, BuildBatchSpanProcessor, BuildTraceIDRatioBasedSampler
//   - Metrics: BuildMeterProvider, BuildPeriodicReader
//   - Logging: BuildLoggerProvider, BuildBatchLogProcessor
//
// # Basic Usage
//
//	resourceB := telemetry.BuildResource(config.ReaderOf("mcserver"), config.ReaderOf("1.21.1"))
//
//	runtimeB := telemetry.BuildRuntime(
//	    minecraft.BuilderOf(telemetry.LogErrorHandler(logger)),
//	    minecraft.BuilderOf(propagation.NewCompositeTextMapPropagator(
//	        propagation.Baggage{},
//	        propagation.TraceContext{},
//	    )),
//	    telemetry.BuildTracerProvider(resourceB, samplerB, spanProcessorB),
//	    telemetry.BuildMeterProvider(resourceB, readerB),
//	    telemetry.BuildLoggerProvider(resourceB, logProcessorB),
//	    serverB,
//	)
//
// [BuildFromEnv] wires all of the above from OTEL_* environment variables.
//
// # Exporters
//
//   - telemetry/otlp: OTLP exporters for gRPC and HTTP protocols
//   - telemetry/stdout: Stdout exporters for development and debugging
//   - telemetry/noop: No-op exporters for disabling telemetry
//
// # Provider Lifecycle
//
// When the Runtime runs, it:
//  1. Registers all providers globally with OpenTelemetry
//  2. Runs the wrapped runtime
//  3. Shuts down all providers when the wrapped runtime completes
//
// Any errors from provider shutdown are joined with the runtime error.
package telemetry
