// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelappender attaches the process wide OpenTelemetry logger
// provider to the host logging subsystem, so every log record written
// after attaching is also emitted as an OpenTelemetry log record.
//
// An [Attacher] is meant to be registered as a [lifecycle.Hook] on the
// earliest [lifecycle.Stage] at which the provider is guaranteed to exist.
// Attaching is idempotent. Once the appender has been installed every
// further call to [Attacher.Attach] is a no-op.
//
// [lifecycle.Hook]: github.com/z5labs/minecraft/lifecycle.Hook
// [lifecycle.Stage]: github.com/z5labs/minecraft/lifecycle.Stage
package otelappender
