// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package logging is the structured logger used by the run loop and the
// trace exporters.
package logging

import (
	"context"

	"goa.design/clue/log"
)

// Logger emits structured messages. keyvals alternate string keys and
// values.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// ClueLogger delegates to goa.design/clue/log. Format, output and debug
// level come from the context (see Context); on a context without a clue
// logger every entry is dropped. Unless debug is enabled, Info and Warn
// entries are buffered by clue and written with the next Error.
type ClueLogger struct{}

// Context returns ctx carrying a clue logger: terminal format on a TTY, JSON
// otherwise, debug entries when debug is set. opts are applied last.
func Context(ctx context.Context, debug bool, opts ...log.LogOption) context.Context {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	all := []log.LogOption{log.WithFormat(format)}
	if debug {
		all = append(all, log.WithDebug())
	}
	return log.Context(ctx, append(all, opts...)...)
}

func NewClueLogger() Logger {
	return ClueLogger{}
}

func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, fielders(msg, keyvals)...)
}

func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Info(ctx, fielders(msg, keyvals)...)
}

func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	log.Warn(ctx, fielders(msg, keyvals)...)
}

func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	log.Error(ctx, nil, fielders(msg, keyvals)...)
}

// fielders converts msg and the pairs k1, v1, k2, v2... into clue fields.
// Non-string keys are skipped; a trailing key gets a nil value.
func fielders(msg string, keyvals []any) []log.Fielder {
	fs := make([]log.Fielder, 0, 1+len(keyvals)/2)
	fs = append(fs, log.KV{K: "msg", V: msg})
	for i := 0; i < len(keyvals); i += 2 {
		k, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		var v any
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		fs = append(fs, log.KV{K: k, V: v})
	}
	return fs
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(context.Context, string, ...any) {}
func (NoopLogger) Info(context.Context, string, ...any)  {}
func (NoopLogger) Warn(context.Context, string, ...any)  {}
func (NoopLogger) Error(context.Context, string, ...any) {}

// OrNoop returns l, or a NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}
