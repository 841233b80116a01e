// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logging is the logging subsystem of the server host.
//
// A [Subsystem] is a [log/slog.Handler] which always writes to a base
// handler, typically the console, and additionally fans records out to
// named appenders installed at runtime. [ZapSubsystem] provides the same
// for [go.uber.org/zap] based code.
//
// Appenders installed after a logger has been derived with
// [log/slog.Logger.With] still receive that logger's records, including
// its attributes and groups.
package logging

import "errors"

// ErrAppenderExists is returned when installing an appender under a
// name which is already in use.
var ErrAppenderExists = errors.New("logging: appender already installed")
