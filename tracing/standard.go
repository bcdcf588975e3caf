// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tracing

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StandardTracer hands finished spans to its processors.
type StandardTracer struct {
	processors []SpanProcessor
}

// NewStandardTracer creates a new StandardTracer
func NewStandardTracer(processors ...SpanProcessor) *StandardTracer {
	return &StandardTracer{processors: processors}
}

// StartSpan starts a new span
func (t *StandardTracer) StartSpan(ctx context.Context, name string, kind SpanKind, attributes map[string]any) (Span, context.Context) {
	data := SpanData{
		TraceID:    "trace_" + uuid.NewString(),
		SpanID:     "span_" + uuid.NewString(),
		Name:       name,
		Kind:       kind,
		StartTime:  time.Now().UTC(),
		Attributes: make(map[string]any, len(attributes)),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		if pd := parent.Data(); pd.TraceID != "" {
			data.TraceID = pd.TraceID
			data.ParentSpanID = pd.SpanID
		}
	}
	maps.Copy(data.Attributes, attributes)

	span := &StandardSpan{tracer: t, data: data}
	for _, p := range t.processors {
		p.OnStart(span.Data())
	}
	return span, ContextWithSpan(ctx, span)
}

// Close flushes and shuts down every processor.
func (t *StandardTracer) Close(ctx context.Context) error {
	var errs []error
	for _, p := range t.processors {
		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StandardSpan is the standard implementation of a Span
type StandardSpan struct {
	tracer    *StandardTracer
	mu        sync.Mutex
	data      SpanData
	completed bool
}

// End ends the span
func (s *StandardSpan) End() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.data.EndTime = time.Now().UTC()
	s.completed = true
	s.mu.Unlock()

	snapshot := s.Data()
	for _, p := range s.tracer.processors {
		p.OnEnd(snapshot)
	}
}

// AddEvent adds an event to the span
func (s *StandardSpan) AddEvent(name string, attributes map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return
	}
	s.data.Events = append(s.data.Events, SpanEvent{
		Name:       name,
		Timestamp:  time.Now().UTC(),
		Attributes: maps.Clone(attributes),
	})
}

// SetAttribute sets an attribute on the span
func (s *StandardSpan) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return
	}
	s.data.Attributes[key] = value
}

// SetAttributes sets multiple attributes on the span
func (s *StandardSpan) SetAttributes(attributes map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return
	}
	maps.Copy(s.data.Attributes, attributes)
}

func (s *StandardSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return
	}
	s.data.Error = err.Error()
}

// Data returns a copy of the span's current state.
func (s *StandardSpan) Data() SpanData {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	d.Attributes = maps.Clone(s.data.Attributes)
	d.Events = append([]SpanEvent(nil), s.data.Events...)
	return d
}
