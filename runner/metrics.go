// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package runner

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ryichk/agentloop/tracing"
)

// runMetrics holds the OpenTelemetry instruments of the runner. Instrument
// creation errors leave the instrument nil; recording on a nil instrument
// is skipped.
type runMetrics struct {
	runs           metric.Int64Counter
	turns          metric.Int64Counter
	toolCalls      metric.Int64Counter
	handoffs       metric.Int64Counter
	guardrailTrips metric.Int64Counter
	tokens         metric.Int64Counter
	duration       metric.Float64Histogram
}

func newRunMetrics(provider metric.MeterProvider) *runMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(tracing.InstrumentationName)

	m := &runMetrics{}
	m.runs, _ = meter.Int64Counter("agentloop.runs",
		metric.WithDescription("Number of runs, by outcome"))
	m.turns, _ = meter.Int64Counter("agentloop.turns",
		metric.WithDescription("Number of model calls"))
	m.toolCalls, _ = meter.Int64Counter("agentloop.tool_calls",
		metric.WithDescription("Number of tool invocations, by tool"))
	m.handoffs, _ = meter.Int64Counter("agentloop.handoffs",
		metric.WithDescription("Number of handoffs taken"))
	m.guardrailTrips, _ = meter.Int64Counter("agentloop.guardrail_trips",
		metric.WithDescription("Number of tripped guardrails"))
	m.tokens, _ = meter.Int64Counter("agentloop.tokens",
		metric.WithDescription("Tokens used by model calls"))
	m.duration, _ = meter.Float64Histogram("agentloop.run.duration",
		metric.WithDescription("Run duration"),
		metric.WithUnit("s"))
	return m
}

func (m *runMetrics) recordRun(ctx context.Context, agentName, outcome string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("agent", agentName),
		attribute.String("outcome", outcome),
	)
	if m.runs != nil {
		m.runs.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, seconds, attrs)
	}
}

func (m *runMetrics) recordTurn(ctx context.Context, agentName string, totalTokens int) {
	attrs := metric.WithAttributes(attribute.String("agent", agentName))
	if m.turns != nil {
		m.turns.Add(ctx, 1, attrs)
	}
	if m.tokens != nil && totalTokens > 0 {
		m.tokens.Add(ctx, int64(totalTokens), attrs)
	}
}

func (m *runMetrics) recordToolCall(ctx context.Context, toolName string, failed bool) {
	if m.toolCalls != nil {
		m.toolCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", toolName),
			attribute.Bool("failed", failed),
		))
	}
}

func (m *runMetrics) recordHandoff(ctx context.Context, from, to string) {
	if m.handoffs != nil {
		m.handoffs.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		))
	}
}

func (m *runMetrics) recordGuardrailTrip(ctx context.Context, kind, guardrail string) {
	if m.guardrailTrips != nil {
		m.guardrailTrips.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("guardrail", guardrail),
		))
	}
}
