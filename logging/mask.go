// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"context"
	"log/slog"
	"sync"
)

type maskOptions struct {
	attrTransformers   map[string]func(slog.Attr) slog.Attr
	recordTransformers []func(slog.Record) slog.Record
}

// MaskOption configures a [MaskHandler].
type MaskOption interface {
	applyMaskOption(*maskOptions)
}

type maskOptionFunc func(*maskOptions)

func (f maskOptionFunc) applyMaskOption(opts *maskOptions) {
	f(opts)
}

// MaskMessage registers a function for masking record messages.
func MaskMessage(f func(string) string) MaskOption {
	return maskOptionFunc(func(o *maskOptions) {
		o.recordTransformers = append(o.recordTransformers, func(r slog.Record) slog.Record {
			r.Message = f(r.Message)
			return r
		})
	})
}

var attrPool = &sync.Pool{
	New: func() any {
		s := make([]slog.Attr, 0, 5)
		return &s
	},
}

// MaskAttr registers a function for masking a [slog.Attr] given its key.
func MaskAttr(key string, f func(slog.Attr) slog.Attr) MaskOption {
	return maskOptionFunc(func(o *maskOptions) {
		o.attrTransformers[key] = f
		o.recordTransformers = append(o.recordTransformers, func(r slog.Record) slog.Record {
			attrs := attrPool.Get().(*[]slog.Attr)
			defer func() {
				*attrs = (*attrs)[:0]
				attrPool.Put(attrs)
			}()

			r.Attrs(func(a slog.Attr) bool {
				if a.Key == key {
					a = f(a)
				}
				*attrs = append(*attrs, a)
				return true
			})

			nr := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
			nr.AddAttrs(*attrs...)
			return nr
		})
	})
}

// Mask is shorthand for MaskAttr(key, [AnonymousStringAttr]).
func Mask(key string) MaskOption {
	return MaskAttr(key, AnonymousStringAttr)
}

// AnonymousStringAttr replaces the value of any [slog.Attr] with "****".
func AnonymousStringAttr(a slog.Attr) slog.Attr {
	return slog.String(a.Key, "****")
}

// MaskHandler is a [slog.Handler] which masks sensitive values,
// such as API tokens, before passing records on.
type MaskHandler struct {
	slog slog.Handler

	attrTransformers   map[string]func(slog.Attr) slog.Attr
	recordTransformers []func(slog.Record) slog.Record
}

// NewMaskHandler returns a new [MaskHandler].
func NewMaskHandler(h slog.Handler, opts ...MaskOption) *MaskHandler {
	o := &maskOptions{
		attrTransformers: make(map[string]func(slog.Attr) slog.Attr),
	}
	for _, opt := range opts {
		opt.applyMaskOption(o)
	}
	return &MaskHandler{
		slog:               h,
		attrTransformers:   o.attrTransformers,
		recordTransformers: o.recordTransformers,
	}
}

// Enabled implements the [slog.Handler] interface.
func (h *MaskHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the [slog.Handler] interface.
func (h *MaskHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, t := range h.recordTransformers {
		record = t(record)
	}
	return h.slog.Handle(ctx, record)
}

// WithAttrs implements the [slog.Handler] interface.
func (h *MaskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nr := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		f, exists := h.attrTransformers[a.Key]
		if !exists {
			nr[i] = a
			continue
		}
		nr[i] = f(a)
	}
	return &MaskHandler{
		slog:               h.slog.WithAttrs(nr),
		attrTransformers:   h.attrTransformers,
		recordTransformers: h.recordTransformers,
	}
}

// WithGroup implements the [slog.Handler] interface.
func (h *MaskHandler) WithGroup(name string) slog.Handler {
	return &MaskHandler{
		slog:               h.slog.WithGroup(name),
		attrTransformers:   h.attrTransformers,
		recordTransformers: h.recordTransformers,
	}
}
