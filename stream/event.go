// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package stream carries the events of a streamed run from the run loop to
// its consumer.
package stream

import (
	"github.com/ryichk/agentloop/agent"
	"github.com/ryichk/agentloop/item"
)

// Names of RunItem events.
const (
	MessageOutputCreated = "message_output_created"
	ToolCalled           = "tool_called"
	ToolOutput           = "tool_output"
	HandoffRequested     = "handoff_requested"
	HandoffOccurred      = "handoff_occurred"
	ReasoningItemCreated = "reasoning_item_created"
)

// Event is one of RawResponse, RunItem or AgentUpdated.
type Event interface {
	isEvent()
}

// RawResponse is a text delta as the model produces it.
type RawResponse struct {
	Delta string
}

// RunItem reports an item appended to the run's history.
type RunItem struct {
	Name string
	Item item.Item
}

// AgentUpdated reports that Agent became the active agent.
type AgentUpdated struct {
	Agent *agent.Agent
}

func (RawResponse) isEvent()  {}
func (RunItem) isEvent()      {}
func (AgentUpdated) isEvent() {}

// ItemEvent wraps it in a RunItem named after its kind. Tool calls that
// request a handoff should be published as HandoffRequested instead.
func ItemEvent(it item.Item) RunItem {
	name := ""
	switch it.(type) {
	case item.AssistantMessage:
		name = MessageOutputCreated
	case item.ToolCall:
		name = ToolCalled
	case item.ToolResult:
		name = ToolOutput
	case item.HandoffSignal:
		name = HandoffOccurred
	case item.Reasoning:
		name = ReasoningItemCreated
	}
	return RunItem{Name: name, Item: it}
}
