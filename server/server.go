// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server launches and supervises the Minecraft server process.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/z5labs/minecraft/lifecycle"
	"github.com/z5labs/minecraft/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxLineLength = 1024 * 1024

// Command describes the server process, e.g. java -jar server.jar nogui.
type Command struct {
	Path string
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is appended to the environment of the current process.
	Env []string
}

// ProcessError is returned when the server process could not be
// started or exited unsuccessfully.
type ProcessError struct {
	Path  string
	Cause error
}

// Error implements the [error] interface.
func (e ProcessError) Error() string {
	return fmt.Sprintf("server process %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ProcessError) Unwrap() error {
	return e.Cause
}

// Option configures a [Runtime].
type Option func(*Runtime)

// Lifecycle sets the lifecycle whose stages the [Runtime] fires.
func Lifecycle(lc *lifecycle.Context) Option {
	return func(rt *Runtime) {
		rt.lc = lc
	}
}

// Logger sets the logger the server output is written to.
func Logger(log *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.log = log
	}
}

// GracePeriod is how long the server may take to stop after being
// interrupted before it is killed.
//
// Default: 30s
func GracePeriod(d time.Duration) Option {
	return func(rt *Runtime) {
		rt.grace = d
	}
}

// Stdin is forwarded to the server console.
func Stdin(r io.Reader) Option {
	return func(rt *Runtime) {
		rt.stdin = r
	}
}

// Runtime runs the server process between the lifecycle stages.
type Runtime struct {
	cmd   Command
	lc    *lifecycle.Context
	log   *slog.Logger
	grace time.Duration
	stdin io.Reader
}

// NewRuntime returns a [Runtime] which runs cmd.
func NewRuntime(cmd Command, opts ...Option) *Runtime {
	rt := &Runtime{
		cmd:   cmd,
		log:   logging.Discard(),
		grace: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.lc == nil {
		rt.lc = lifecycle.NewLifecycle()
	}
	return rt
}

// Lifecycle returns the lifecycle fired by the [Runtime].
func (rt *Runtime) Lifecycle() *lifecycle.Context {
	return rt.lc
}

// Run fires the pre-launch, mod-init and server-start stages, runs the
// server until it exits or ctx is cancelled and finally fires post-run.
// Cancelling ctx interrupts the server and kills it once the grace
// period has passed.
func (rt *Runtime) Run(ctx context.Context) (err error) {
	spanCtx, span := otel.Tracer("github.com/z5labs/minecraft/server").Start(ctx, "Runtime.Run", trace.WithAttributes(
		attribute.String("process.executable.path", rt.cmd.Path),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx = lifecycle.NewContext(spanCtx, rt.lc)
	defer func() {
		postErr := rt.lc.Fire(context.WithoutCancel(ctx), lifecycle.PostRun)
		err = errors.Join(err, postErr)
	}()

	for _, stage := range []lifecycle.Stage{lifecycle.PreLaunch, lifecycle.ModInit} {
		err = rt.lc.Fire(ctx, stage)
		if err != nil {
			return err
		}
	}

	cmd := exec.CommandContext(ctx, rt.cmd.Path, rt.cmd.Args...)
	cmd.Dir = rt.cmd.Dir
	if len(rt.cmd.Env) > 0 {
		cmd.Env = append(os.Environ(), rt.cmd.Env...)
	}
	cmd.Stdin = rt.stdin
	cmd.Cancel = func() error {
		rt.log.InfoContext(ctx, "interrupting the server", slog.Duration("grace_period", rt.grace))
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = rt.grace

	stdout := newLineWriter(ctx, rt.log.With(slog.String("stream", "stdout")), maxLineLength)
	stderr := newLineWriter(ctx, rt.log.With(slog.String("stream", "stderr")), maxLineLength)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err = rt.lc.Fire(ctx, lifecycle.ServerStart)
	if err != nil {
		return err
	}

	err = cmd.Start()
	if err != nil {
		return ProcessError{Path: rt.cmd.Path, Cause: err}
	}
	rt.log.InfoContext(ctx, "started the server", slog.Int("pid", cmd.Process.Pid))

	// Wait closes the output pipes once the grace period has passed after
	// the server exits, even if a child of the server still holds them.
	waitErr := cmd.Wait()
	stdout.Flush()
	stderr.Flush()
	switch {
	case ctx.Err() != nil:
		rt.log.InfoContext(ctx, "the server has been stopped", slog.Any("error", waitErr))
		return nil
	case errors.Is(waitErr, exec.ErrWaitDelay):
		rt.log.WarnContext(ctx, "the server exited but its output was still open", slog.Duration("grace_period", rt.grace))
		return nil
	case waitErr != nil:
		return ProcessError{Path: rt.cmd.Path, Cause: waitErr}
	}
	rt.log.InfoContext(ctx, "the server has exited")
	return nil
}
