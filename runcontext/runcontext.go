// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package runcontext threads caller-owned data through a run.
//
// The runner stores a *RunContext in the context.Context it passes to tools,
// guardrails, handoff callbacks, hooks and instruction functions:
//
//	type userInfo struct{ Name string }
//
//	func greet(ctx context.Context) (string, error) {
//		info, ok := runcontext.Value[*userInfo](ctx)
//		...
//	}
package runcontext

import "context"

type contextKey int

const (
	runContextKey contextKey = iota
	toolCallKey
)

// RunContext wraps the value a caller attached to one run.
type RunContext struct {
	Value any
}

// With returns a copy of ctx carrying rc.
func With(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey, rc)
}

// From returns the RunContext stored in ctx, if any.
func From(ctx context.Context) (*RunContext, bool) {
	rc, ok := ctx.Value(runContextKey).(*RunContext)
	return rc, ok && rc != nil
}

// Value returns the run value stored in ctx as a T.
func Value[T any](ctx context.Context) (T, bool) {
	var zero T
	rc, ok := From(ctx)
	if !ok {
		return zero, false
	}
	v, ok := rc.Value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// WithToolCallID records the id of the tool call being executed.
func WithToolCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, toolCallKey, id)
}

// ToolCallID returns the id of the tool call being executed, or "".
func ToolCallID(ctx context.Context) string {
	id, _ := ctx.Value(toolCallKey).(string)
	return id
}
