// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package testutil

import (
	"context"
	"sync/atomic"
)

// TestTool returns a fixed result and counts its invocations.
type TestTool struct {
	name        string
	description string
	result      string
	err         error
	calls       atomic.Int32
}

func NewTestTool(name string, description string, result string) *TestTool {
	return &TestTool{
		name:        name,
		description: description,
		result:      result,
	}
}

// NewFailingTool returns a tool whose every invocation fails with err.
func NewFailingTool(name string, err error) *TestTool {
	return &TestTool{name: name, description: "always fails", err: err}
}

func (t *TestTool) Name() string {
	return t.name
}

func (t *TestTool) Description() string {
	return t.description
}

func (t *TestTool) ParamsJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"param": map[string]any{
				"type": "string",
			},
		},
	}
}

func (t *TestTool) Invoke(ctx context.Context, input string) (string, error) {
	t.calls.Add(1)
	if t.err != nil {
		return "", t.err
	}
	return t.result, nil
}

// Calls returns how many times the tool was invoked.
func (t *TestTool) Calls() int {
	return int(t.calls.Load())
}
