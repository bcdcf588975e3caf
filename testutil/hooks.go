// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package testutil provides fakes shared by the package tests: a scripted
// model provider, recording hooks and a fixed-output tool.
package testutil

import (
	"context"
	"fmt"
	"sync"
)

// TestHooks counts and records lifecycle callbacks. Agents are taken as
// any so that the agent package can adapt it without an import cycle. It is
// safe for concurrent use since tool hooks fire from parallel tool calls.
type TestHooks struct {
	mu             sync.Mutex
	StartCount     int
	EndCount       int
	HandoffCount   int
	ToolStartCount int
	ToolEndCount   int
	events         []string
}

func (h *TestHooks) record(event string, agent any, detail string) {
	name := fmt.Sprintf("%v", agent)
	if named, ok := agent.(interface{ GetName() string }); ok {
		name = named.GetName()
	}
	if detail != "" {
		name += ":" + detail
	}
	h.events = append(h.events, event+":"+name)
}

func (h *TestHooks) OnStart(ctx context.Context, agent any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.StartCount++
	h.record("start", agent, "")
	return nil
}

func (h *TestHooks) OnEnd(ctx context.Context, agent any, output any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.EndCount++
	h.record("end", agent, "")
	return nil
}

// OnHandoff records the agent receiving control.
func (h *TestHooks) OnHandoff(ctx context.Context, agent any, source any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.HandoffCount++
	h.record("handoff", agent, "")
	return nil
}

func (h *TestHooks) OnToolStart(ctx context.Context, agent any, toolName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ToolStartCount++
	h.record("tool_start", agent, toolName)
	return nil
}

func (h *TestHooks) OnToolEnd(ctx context.Context, agent any, toolName string, result string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ToolEndCount++
	h.record("tool_end", agent, toolName)
	return nil
}

// Events returns the recorded callbacks, e.g. "start:Triage" or
// "tool_end:Math:add".
func (h *TestHooks) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

// Counts returns start, end, handoff, tool start and tool end counts read
// under the lock.
func (h *TestHooks) Counts() (start, end, handoff, toolStart, toolEnd int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.StartCount, h.EndCount, h.HandoffCount, h.ToolStartCount, h.ToolEndCount
}
