// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type coreSet struct {
	names []string
	cores []zapcore.Core
}

type coreState struct {
	mu  sync.Mutex
	set atomic.Pointer[coreSet]
}

type derivedCores struct {
	src   *coreSet
	cores []zapcore.Core
}

// ZapSubsystem is a [zapcore.Core] which tees every entry to a base
// core and to every installed appender core.
type ZapSubsystem struct {
	state  *coreState
	base   zapcore.Core
	fields []zapcore.Field
	cache  atomic.Pointer[derivedCores]
}

// NewZapSubsystem returns a [ZapSubsystem] which always writes to base.
func NewZapSubsystem(base zapcore.Core) *ZapSubsystem {
	st := &coreState{}
	st.set.Store(&coreSet{})
	return &ZapSubsystem{
		state: st,
		base:  base,
	}
}

// Logger returns a [zap.Logger] backed by the subsystem.
func (z *ZapSubsystem) Logger(opts ...zap.Option) *zap.Logger {
	return zap.New(z, opts...)
}

// Install adds an appender core under the given name.
func (z *ZapSubsystem) Install(name string, c zapcore.Core) error {
	z.state.mu.Lock()
	defer z.state.mu.Unlock()

	cur := z.state.set.Load()
	if slices.Contains(cur.names, name) {
		return ErrAppenderExists
	}

	z.state.set.Store(&coreSet{
		names: append(slices.Clone(cur.names), name),
		cores: append(slices.Clone(cur.cores), c),
	})
	return nil
}

// Appenders returns the names of the installed appenders in installation order.
func (z *ZapSubsystem) Appenders() []string {
	return slices.Clone(z.state.set.Load().names)
}

func (z *ZapSubsystem) appenders() []zapcore.Core {
	set := z.state.set.Load()
	if len(z.fields) == 0 {
		return set.cores
	}

	d := z.cache.Load()
	if d != nil && d.src == set {
		return d.cores
	}

	cs := make([]zapcore.Core, len(set.cores))
	for i, c := range set.cores {
		cs[i] = c.With(z.fields)
	}
	z.cache.Store(&derivedCores{src: set, cores: cs})
	return cs
}

// Enabled implements the [zapcore.LevelEnabler] interface.
func (z *ZapSubsystem) Enabled(lvl zapcore.Level) bool {
	if z.base.Enabled(lvl) {
		return true
	}
	for _, c := range z.appenders() {
		if c.Enabled(lvl) {
			return true
		}
	}
	return false
}

// With implements the [zapcore.Core] interface.
func (z *ZapSubsystem) With(fields []zapcore.Field) zapcore.Core {
	if len(fields) == 0 {
		return z
	}

	all := make([]zapcore.Field, 0, len(z.fields)+len(fields))
	all = append(all, z.fields...)
	all = append(all, fields...)
	return &ZapSubsystem{
		state:  z.state,
		base:   z.base.With(fields),
		fields: all,
	}
}

// Check implements the [zapcore.Core] interface.
func (z *ZapSubsystem) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	ce = z.base.Check(ent, ce)
	for _, c := range z.appenders() {
		ce = c.Check(ent, ce)
	}
	return ce
}

// Write implements the [zapcore.Core] interface.
func (z *ZapSubsystem) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	var errs []error
	for _, c := range append([]zapcore.Core{z.base}, z.appenders()...) {
		if !c.Enabled(ent.Level) {
			continue
		}
		err := c.Write(ent, fields)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sync implements the [zapcore.Core] interface.
func (z *ZapSubsystem) Sync() error {
	errs := []error{z.base.Sync()}
	for _, c := range z.appenders() {
		errs = append(errs, c.Sync())
	}
	return errors.Join(errs...)
}
