// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle provides named points in the server startup sequence
// at which custom initialization logic can run.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Hook represents functionality that needs to be performed
// at a specific [Stage] of the server lifecycle.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// MultiHook returns a [Hook] that's the logical concatenation
// of the provided [Hook]s. They're applied sequentially and every
// hook runs even if an earlier one fails.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Stage identifies a point in the server lifecycle.
type Stage int

const (
	// PreLaunch fires before anything about the server has been prepared.
	PreLaunch Stage = iota

	// ModInit fires once the launcher is configured, just like a mod
	// initializer runs once the loader has discovered every mod.
	ModInit

	// ServerStart fires immediately before the server process is started.
	ServerStart

	// PostRun fires after the server process has exited.
	PostRun
)

var stageNames = map[Stage]string{
	PreLaunch:   "pre-launch",
	ModInit:     "mod-init",
	ServerStart: "server-start",
	PostRun:     "post-run",
}

// String implements the [fmt.Stringer] interface.
func (s Stage) String() string {
	name, ok := stageNames[s]
	if !ok {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return name
}

// UnknownStageError is returned when parsing an unknown [Stage] name.
type UnknownStageError struct {
	Name string
}

// Error implements the [error] interface.
func (e UnknownStageError) Error() string {
	return fmt.Sprintf("unknown lifecycle stage: %q", e.Name)
}

// ParseStage returns the [Stage] with the given name.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	return 0, UnknownStageError{Name: name}
}

// MarshalText implements the [encoding.TextMarshaler] interface.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (s *Stage) UnmarshalText(b []byte) error {
	stage, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}

// StageFiredError is returned when a [Stage] is fired more than once.
type StageFiredError struct {
	Stage Stage
}

// Error implements the [error] interface.
func (e StageFiredError) Error() string {
	return fmt.Sprintf("lifecycle stage has already fired: %s", e.Stage)
}

// HookError wraps the error returned by the hooks of a [Stage].
type HookError struct {
	Stage Stage
	Cause error
}

// Error implements the [error] interface.
func (e HookError) Error() string {
	return fmt.Sprintf("%s hook failed: %s", e.Stage, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e HookError) Unwrap() error {
	return e.Cause
}

// Context holds the [Hook]s registered for each [Stage]. Every
// [Stage] fires at most once.
type Context struct {
	mu    sync.Mutex
	hooks map[Stage]multiHook
	fired map[Stage]bool
}

// NewLifecycle returns an empty lifecycle [Context].
func NewLifecycle() *Context {
	return &Context{
		hooks: make(map[Stage]multiHook),
		fired: make(map[Stage]bool),
	}
}

// On registers the given [Hook] to run when stage fires. Registering
// on a [Stage] which has already fired returns a [StageFiredError].
func (c *Context) On(stage Stage, hook Hook) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fired[stage] {
		return StageFiredError{Stage: stage}
	}
	c.hooks[stage] = append(c.hooks[stage], hook)
	return nil
}

// OnPostRun is shorthand for registering a [PostRun] hook.
func (c *Context) OnPostRun(hook Hook) error {
	return c.On(PostRun, hook)
}

// Fire runs every [Hook] registered for stage, in registration order,
// on the calling goroutine.
func (c *Context) Fire(ctx context.Context, stage Stage) error {
	c.mu.Lock()
	if c.fired[stage] {
		c.mu.Unlock()
		return StageFiredError{Stage: stage}
	}
	c.fired[stage] = true
	hooks := c.hooks[stage]
	delete(c.hooks, stage)
	c.mu.Unlock()

	err := hooks.Run(ctx)
	if err != nil {
		return HookError{Stage: stage, Cause: err}
	}
	return nil
}

// Fired reports whether stage has fired.
func (c *Context) Fired(stage Stage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fired[stage]
}

type key struct{}

var contextKey = &key{}

// NewContext returns a new [context.Context] containing the lifecycle [Context].
func NewContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey, c)
}

// FromContext tries to extract a lifecycle [Context] from the given [context.Context].
func FromContext(ctx context.Context) (*Context, bool) {
	lc, ok := ctx.Value(contextKey).(*Context)
	return lc, ok
}
