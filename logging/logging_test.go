// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"goa.design/clue/log"
)

func TestFielders(t *testing.T) {
	fs := fielders("turn started", []any{"agent", "Triage", 42, "skipped", "turn", 1, "dangling"})

	assert.Equal(t, []log.Fielder{
		log.KV{K: "msg", V: "turn started"},
		log.KV{K: "agent", V: "Triage"},
		log.KV{K: "turn", V: 1},
		log.KV{K: "dangling", V: nil},
	}, fs)
}

func TestClueLoggerWritesToContextOutput(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.Context(context.Background(), log.WithOutput(&buf), log.WithFormat(log.FormatJSON), log.WithDebug())

	logger := NewClueLogger()
	logger.Info(ctx, "dispatching tools", "count", 2)
	logger.Error(ctx, "tool failed", "tool", "add_numbers")

	out := buf.String()
	assert.Contains(t, out, "dispatching tools")
	assert.Contains(t, out, "tool failed")
	assert.Contains(t, out, "add_numbers")
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := Context(context.Background(), true, log.WithOutput(&buf))

	NewClueLogger().Debug(ctx, "turn started", "agent", "Triage")

	assert.Contains(t, buf.String(), "turn started")
	assert.Contains(t, buf.String(), "Triage")
}

func TestContextWithoutDebugDropsDebugEntries(t *testing.T) {
	var buf bytes.Buffer
	ctx := Context(context.Background(), false, log.WithOutput(&buf))

	NewClueLogger().Debug(ctx, "turn started")

	assert.NotContains(t, buf.String(), "turn started")
}

func TestClueLoggerWithoutContextLoggerWritesNothing(t *testing.T) {
	assert.NotPanics(t, func() {
		NewClueLogger().Error(context.Background(), "dropped")
	})
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, NoopLogger{}, OrNoop(nil))

	l := NewClueLogger()
	assert.Equal(t, l, OrNoop(l))

	// NoopLogger accepts anything.
	NoopLogger{}.Error(context.Background(), "ignored", "k", "v")
}
