// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

type handlerSet struct {
	names    []string
	handlers []slog.Handler
}

// handlerState is shared by a Subsystem and every handler derived from it.
type handlerState struct {
	mu  sync.Mutex
	set atomic.Pointer[handlerSet]
}

type handlerOp struct {
	group string
	attrs []slog.Attr
}

func (op handlerOp) apply(h slog.Handler) slog.Handler {
	if op.group != "" {
		return h.WithGroup(op.group)
	}
	return h.WithAttrs(op.attrs)
}

type derivedHandlers struct {
	src      *handlerSet
	handlers []slog.Handler
}

// Subsystem is a [slog.Handler] which writes every record to a base
// handler and to every installed appender.
type Subsystem struct {
	state *handlerState
	base  slog.Handler
	ops   []handlerOp
	cache atomic.Pointer[derivedHandlers]
}

// NewSubsystem returns a [Subsystem] which always writes to base.
func NewSubsystem(base slog.Handler) *Subsystem {
	st := &handlerState{}
	st.set.Store(&handlerSet{})
	return &Subsystem{
		state: st,
		base:  base,
	}
}

// Logger returns a [slog.Logger] backed by the subsystem.
func (s *Subsystem) Logger() *slog.Logger {
	return slog.New(s)
}

// Base returns the handler every record is written to, without any of
// the installed appenders.
func (s *Subsystem) Base() slog.Handler {
	return s.base
}

// Install adds an appender under the given name. Every record handled
// after Install returns is also passed to h.
func (s *Subsystem) Install(name string, h slog.Handler) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	cur := s.state.set.Load()
	if slices.Contains(cur.names, name) {
		return ErrAppenderExists
	}

	next := &handlerSet{
		names:    append(slices.Clone(cur.names), name),
		handlers: append(slices.Clone(cur.handlers), h),
	}
	s.state.set.Store(next)
	return nil
}

// Appenders returns the names of the installed appenders in installation order.
func (s *Subsystem) Appenders() []string {
	return slices.Clone(s.state.set.Load().names)
}

func (s *Subsystem) appenders() []slog.Handler {
	set := s.state.set.Load()
	if len(s.ops) == 0 {
		return set.handlers
	}

	d := s.cache.Load()
	if d != nil && d.src == set {
		return d.handlers
	}

	hs := make([]slog.Handler, len(set.handlers))
	for i, h := range set.handlers {
		for _, op := range s.ops {
			h = op.apply(h)
		}
		hs[i] = h
	}
	s.cache.Store(&derivedHandlers{src: set, handlers: hs})
	return hs
}

// Enabled implements the [slog.Handler] interface.
func (s *Subsystem) Enabled(ctx context.Context, lvl slog.Level) bool {
	if s.base.Enabled(ctx, lvl) {
		return true
	}
	for _, h := range s.appenders() {
		if h.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

// Handle implements the [slog.Handler] interface.
func (s *Subsystem) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if s.base.Enabled(ctx, r.Level) {
		err := s.base.Handle(ctx, r.Clone())
		if err != nil {
			errs = append(errs, err)
		}
	}
	for _, h := range s.appenders() {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		err := h.Handle(ctx, r.Clone())
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements the [slog.Handler] interface.
func (s *Subsystem) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	return s.derive(handlerOp{attrs: slices.Clone(attrs)})
}

// WithGroup implements the [slog.Handler] interface.
func (s *Subsystem) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	return s.derive(handlerOp{group: name})
}

func (s *Subsystem) derive(op handlerOp) *Subsystem {
	ops := make([]handlerOp, len(s.ops), len(s.ops)+1)
	copy(ops, s.ops)
	return &Subsystem{
		state: s.state,
		base:  op.apply(s.base),
		ops:   append(ops, op),
	}
}
