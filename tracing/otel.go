// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the OpenTelemetry tracer and meter of the runner.
const InstrumentationName = "github.com/ryichk/agentloop"

// OTelTracer sends spans to OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer wraps t. A nil t uses the global TracerProvider, which the
// application configures (for example with clue.ConfigureOpenTelemetry).
func NewOTelTracer(t trace.Tracer) *OTelTracer {
	if t == nil {
		t = otel.Tracer(InstrumentationName)
	}
	return &OTelTracer{tracer: t}
}

func (t *OTelTracer) StartSpan(ctx context.Context, name string, kind SpanKind, attributes map[string]any) (Span, context.Context) {
	attrs := append(toAttributes(attributes), attribute.String("span.kind", string(kind)))
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	s := &otelSpan{span: span, data: SpanData{
		TraceID:    span.SpanContext().TraceID().String(),
		SpanID:     span.SpanContext().SpanID().String(),
		Name:       name,
		Kind:       kind,
		Attributes: map[string]any{},
	}}
	for k, v := range attributes {
		s.data.Attributes[k] = v
	}
	return s, ContextWithSpan(ctx, s)
}

// Close is a no-op; the TracerProvider owner shuts it down.
func (t *OTelTracer) Close(ctx context.Context) error {
	return nil
}

type otelSpan struct {
	span trace.Span

	mu   sync.Mutex
	data SpanData
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) AddEvent(name string, attributes map[string]any) {
	s.span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

func (s *otelSpan) SetAttribute(key string, value any) {
	s.SetAttributes(map[string]any{key: value})
}

func (s *otelSpan) SetAttributes(attributes map[string]any) {
	s.mu.Lock()
	for k, v := range attributes {
		s.data.Attributes[k] = v
	}
	s.mu.Unlock()
	s.span.SetAttributes(toAttributes(attributes)...)
}

func (s *otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.data.Error = err.Error()
	s.mu.Unlock()
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) Data() SpanData {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	d.Attributes = make(map[string]any, len(s.data.Attributes))
	for k, v := range s.data.Attributes {
		d.Attributes[k] = v
	}
	return d
}

// toAttributes converts span attributes to OpenTelemetry attributes.
// Values without a native attribute type are JSON encoded.
func toAttributes(m map[string]any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case []string:
			attrs = append(attrs, attribute.StringSlice(k, val))
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				raw = []byte(fmt.Sprintf("%v", val))
			}
			attrs = append(attrs, attribute.String(k, string(raw)))
		}
	}
	return attrs
}
