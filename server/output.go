// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

// lineWriter logs everything written to it one line at a time. Lines
// longer than max bytes are truncated and the rest of the line is
// discarded. Write never returns an error.
type lineWriter struct {
	ctx context.Context
	log *slog.Logger
	max int

	mu        sync.Mutex
	buf       []byte
	truncated bool
}

func newLineWriter(ctx context.Context, log *slog.Logger, max int) *lineWriter {
	return &lineWriter{
		ctx: ctx,
		log: log,
		max: max,
	}
}

// Write implements the [io.Writer] interface.
func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.append(p)
			break
		}
		w.append(p[:i])
		w.emit()
		p = p[i+1:]
	}
	return n, nil
}

// Flush logs any trailing output which was not terminated by a newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 || w.truncated {
		w.emit()
	}
}

func (w *lineWriter) append(p []byte) {
	room := w.max - len(w.buf)
	if len(p) > room {
		p = p[:room]
		w.truncated = true
	}
	w.buf = append(w.buf, p...)
}

func (w *lineWriter) emit() {
	line := string(bytes.TrimSuffix(w.buf, []byte{'\r'}))
	truncated := w.truncated
	w.buf = w.buf[:0]
	w.truncated = false

	var attrs []slog.Attr
	if truncated {
		attrs = append(attrs, slog.Bool("truncated", true))
	}

	l, ok := ParseLogLine(line)
	if !ok {
		w.log.LogAttrs(w.ctx, slog.LevelInfo, line, attrs...)
		return
	}
	attrs = append(attrs, slog.String("thread", l.Thread))
	w.log.LogAttrs(w.ctx, l.Level, l.Message, attrs...)
}
