// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli holds the setup shared by the commands.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"syscall"

	"github.com/z5labs/minecraft"
	"github.com/z5labs/minecraft/config"
	"github.com/z5labs/minecraft/logging"

	"github.com/spf13/cobra"
)

// LoggingFromEnv builds the logging subsystem writing to w, configured by
// LOG_FORMAT (text or json) and LOG_LEVEL (e.g. debug).
func LoggingFromEnv(ctx context.Context, w io.Writer) (*logging.Subsystem, error) {
	format, err := config.Read(ctx, config.Default(
		logging.FormatText,
		config.Map(config.Env("LOG_FORMAT"), func(_ context.Context, s string) (logging.Format, error) {
			return logging.ParseFormat(s)
		}),
	))
	if err != nil {
		return nil, err
	}

	level, err := config.Read(ctx, config.Default(
		slog.LevelInfo,
		config.Map(config.Env("LOG_LEVEL"), func(_ context.Context, s string) (slog.Level, error) {
			return logging.ParseLevel(s)
		}),
	))
	if err != nil {
		return nil, err
	}

	return logging.NewSubsystem(logging.NewConsoleHandler(w, format, level)), nil
}

// TelemetryLogger returns the logger OpenTelemetry reports its own errors
// to. It only writes to the console so a failing exporter is never sent
// records about its own failures.
func TelemetryLogger(sub *logging.Subsystem) *slog.Logger {
	return slog.New(sub.Base())
}

// Version returns the module version the binary was built from.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// Run builds and runs the runtime, cancelling it on SIGINT or SIGTERM.
func Run[T minecraft.Runtime](ctx context.Context, b minecraft.Builder[T]) error {
	runner := minecraft.RecoverPanics(
		minecraft.NotifyOnSignal(
			minecraft.DefaultRunner[T](),
			os.Interrupt,
			syscall.SIGTERM,
		),
	)
	return runner.Run(ctx, b)
}

// Execute runs cmd and returns the process exit code.
func Execute(cmd *cobra.Command) int {
	cmd.SilenceUsage = true

	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		return 1
	}
	return 0
}
