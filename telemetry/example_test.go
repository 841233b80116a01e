// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"fmt"

	"github.com/z5labs/minecraft"
	"github.com/z5labs/minecraft/config"
	"github.com/z5labs/minecraft/logging"
	"github.com/z5labs/minecraft/telemetry/noop"

	"go.opentelemetry.io/otel/propagation"
)

func Example() {
	resourceB := BuildResource(config.ReaderOf("mcserver"), config.ReaderOf("0.1.0"))

	runtimeB := BuildRuntime(
		minecraft.BuilderOf(LogErrorHandler(logging.Discard())),
		minecraft.BuilderOf[propagation.TextMapPropagator](propagation.NewCompositeTextMapPropagator(
			propagation.Baggage{},
			propagation.TraceContext{},
		)),
		BuildTracerProvider(
			resourceB,
			BuildTraceIDRatioBasedSampler(config.ReaderOf(1.0)),
			BuildBatchSpanProcessor(noop.BuildSpanExporter()),
		),
		BuildMeterProvider(
			resourceB,
			BuildPeriodicReader(noop.BuildMetricExporter()),
		),
		BuildLoggerProvider(
			resourceB,
			BuildBatchLogProcessor(noop.BuildLogExporter()),
		),
		minecraft.BuilderOf(minecraft.RuntimeFunc(func(ctx context.Context) error {
			fmt.Println("hello from the server runtime")
			return nil
		})),
	)

	rt, err := runtimeB.Build(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}

	if err := rt.Run(context.Background()); err != nil {
		fmt.Println(err)
		return
	}

	// Output:
	// hello from the server runtime
}
