// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package tracing records the spans of a run: one workflow span per run with
// nested turn, generation, function, handoff and guardrail spans.
//
// Tracers are plain values handed to the runner through its configuration;
// there is no process-wide tracer.
package tracing

import (
	"context"
	"time"
)

// SpanKind is the type of work a span covers. It is exported as the
// "type" of the span data.
type SpanKind string

const (
	SpanKindWorkflow   SpanKind = "workflow"
	SpanKindAgent      SpanKind = "agent"
	SpanKindGeneration SpanKind = "generation"
	SpanKindFunction   SpanKind = "function"
	SpanKindHandoff    SpanKind = "handoff"
	SpanKindGuardrail  SpanKind = "guardrail"
	SpanKindCustom     SpanKind = "custom"
)

// Attribute keys set by the runner.
const (
	AttrWorkflowName = "workflow_name"
	AttrGroupID      = "group_id"
	AttrMetadata     = "metadata"
	AttrAgent        = "agent"
	AttrTools        = "tools"
	AttrHandoffs     = "handoffs"
	AttrOutputType   = "output_type"
	AttrTurn         = "turn"
	AttrModel        = "model"
	AttrUsage        = "usage"
	AttrToolName     = "tool_name"
	AttrArguments    = "arguments"
	AttrResult       = "result"
	AttrFromAgent    = "from_agent"
	AttrToAgent      = "to_agent"
	AttrTriggered    = "triggered"
	AttrError        = "error"
)

// SpanData is an immutable snapshot of a span.
type SpanData struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_id,omitempty"`
	Name         string         `json:"name"`
	Kind         SpanKind       `json:"kind"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	Events       []SpanEvent    `json:"events,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// SpanEvent represents an event in a span
type SpanEvent struct {
	Name       string         `json:"name"`
	Timestamp  time.Time      `json:"timestamp"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Span represents a span in a trace. Spans are safe for concurrent use;
// calls after End are ignored.
type Span interface {
	End()

	AddEvent(name string, attributes map[string]any)

	SetAttribute(key string, value any)

	SetAttributes(attributes map[string]any)

	// RecordError marks the span as failed
	RecordError(err error)

	// Data returns a snapshot of the span
	Data() SpanData
}

// Tracer is an interface for creating spans
type Tracer interface {
	// StartSpan starts a span as a child of the span carried by ctx, or as the
	// root of a new trace
	StartSpan(ctx context.Context, name string, kind SpanKind, attributes map[string]any) (Span, context.Context)

	// Close flushes and shuts down the tracer
	Close(ctx context.Context) error
}

// SpanProcessor receives spans as they start and end.
type SpanProcessor interface {
	OnStart(span SpanData)

	OnEnd(span SpanData)

	// ForceFlush exports everything received so far
	ForceFlush(ctx context.Context) error

	Shutdown(ctx context.Context) error
}

// SpanExporter is an interface for exporting traces to external systems
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []SpanData) error

	Shutdown(ctx context.Context) error
}
