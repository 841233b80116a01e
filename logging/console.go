// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format is the encoding used for console output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// UnknownFormatError is returned by [ParseFormat] for unsupported formats.
type UnknownFormatError struct {
	Format string
}

// Error implements the [error] interface.
func (e UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown log format: %q", e.Format)
}

// ParseFormat parses a [Format], ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", UnknownFormatError{Format: s}
	}
}

// ParseLevel parses a [slog.Level] such as "info" or "debug+2".
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(s))
	return lvl, err
}

// NewConsoleHandler returns a [slog.Handler] writing to w in the given
// format. Records logged within a valid span carry its trace and span IDs.
func NewConsoleHandler(w io.Writer, format Format, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}

	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return NewTraceHandler(h)
}

// NewConsoleCore is the [zapcore.Core] counterpart of [NewConsoleHandler].
func NewConsoleCore(w io.Writer, format Format, level slog.Level) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(cfg)
	default:
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewCore(enc, zapcore.AddSync(w), ZapLevel(level))
}

// ZapLevel converts a [slog.Level] to the nearest [zapcore.Level].
func ZapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl >= slog.LevelError:
		return zapcore.ErrorLevel
	case lvl >= slog.LevelWarn:
		return zapcore.WarnLevel
	case lvl >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
