// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tracing

import "context"

type contextKey struct{}

// ContextWithSpan returns a copy of ctx carrying span as the current span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	return context.WithValue(ctx, contextKey{}, span)
}

// SpanFromContext returns the current span of ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	span, _ := ctx.Value(contextKey{}).(Span)
	return span
}

// OrNoop returns t, or a NoopTracer when t is nil.
func OrNoop(t Tracer) Tracer {
	if t == nil {
		return NoopTracer{}
	}
	return t
}

// NoopTracer is a tracer that does nothing
type NoopTracer struct{}

func (NoopTracer) StartSpan(ctx context.Context, name string, kind SpanKind, attributes map[string]any) (Span, context.Context) {
	return NoopSpan{}, ctx
}

func (NoopTracer) Close(ctx context.Context) error {
	return nil
}

// NoopSpan is a span that does nothing
type NoopSpan struct{}

func (NoopSpan) End()                                            {}
func (NoopSpan) AddEvent(name string, attributes map[string]any) {}
func (NoopSpan) SetAttribute(key string, value any)              {}
func (NoopSpan) SetAttributes(attributes map[string]any)         {}
func (NoopSpan) RecordError(err error)                           {}
func (NoopSpan) Data() SpanData                                  { return SpanData{} }
