// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package item defines the conversation items a run reads and produces.
//
// A history is an ordered []Item. Items are plain values and are never
// modified once they are part of a history; Append always returns a new
// slice so histories handed to callers cannot be changed behind their back.
package item

import "strings"

// Kind identifies the variant of an Item.
type Kind string

const (
	KindUserMessage      Kind = "user_message"
	KindAssistantMessage Kind = "assistant_message"
	KindToolCall         Kind = "tool_call"
	KindToolResult       Kind = "tool_result"
	KindHandoffSignal    Kind = "handoff_signal"
	KindReasoning        Kind = "reasoning"
)

// Item is one entry of a conversation history.
type Item interface {
	Kind() Kind
	isItem()
}

type UserMessage struct {
	Content string `json:"content"`
}

// AssistantMessage is text produced by the model on behalf of Agent.
type AssistantMessage struct {
	Content string `json:"content"`
	Agent   string `json:"agent,omitempty"`
}

// ToolCall is a request from the model to run a tool or take a handoff.
// Arguments holds the raw JSON payload as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Agent     string `json:"agent,omitempty"`
}

type ToolResult struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Output string `json:"output"`
	Agent  string `json:"agent,omitempty"`
}

// HandoffSignal records that control moved from one agent to another in
// answer to the tool call CallID. Input is the handoff payload, if any.
type HandoffSignal struct {
	CallID string `json:"call_id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Input  string `json:"input,omitempty"`
}

type Reasoning struct {
	Text  string `json:"text"`
	Agent string `json:"agent,omitempty"`
}

func (UserMessage) Kind() Kind      { return KindUserMessage }
func (AssistantMessage) Kind() Kind { return KindAssistantMessage }
func (ToolCall) Kind() Kind         { return KindToolCall }
func (ToolResult) Kind() Kind       { return KindToolResult }
func (HandoffSignal) Kind() Kind    { return KindHandoffSignal }
func (Reasoning) Kind() Kind        { return KindReasoning }

func (UserMessage) isItem()      {}
func (AssistantMessage) isItem() {}
func (ToolCall) isItem()         {}
func (ToolResult) isItem()       {}
func (HandoffSignal) isItem()    {}
func (Reasoning) isItem()        {}

// Append returns a new history holding history followed by items.
func Append(history []Item, items ...Item) []Item {
	out := make([]Item, 0, len(history)+len(items))
	out = append(out, history...)
	return append(out, items...)
}

// Clone returns a copy of history that shares no backing array with it.
func Clone(history []Item) []Item {
	if history == nil {
		return nil
	}
	return Append(history)
}

// UserText wraps a plain string input as a one-item history.
func UserText(text string) []Item {
	return []Item{UserMessage{Content: text}}
}

// TextOutput returns the content of the last assistant message in items, or
// the empty string if there is none.
func TextOutput(items []Item) string {
	for i := len(items) - 1; i >= 0; i-- {
		if msg, ok := items[i].(AssistantMessage); ok {
			return msg.Content
		}
	}
	return ""
}

// IsToolRelated reports whether it is a tool call, a tool result or a handoff
// signal.
func IsToolRelated(it Item) bool {
	switch it.(type) {
	case ToolCall, ToolResult, HandoffSignal:
		return true
	}
	return false
}

// Transcript renders items as "kind: text" lines, mostly for logs and tests.
func Transcript(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(string(it.Kind()))
		b.WriteString(": ")
		switch v := it.(type) {
		case UserMessage:
			b.WriteString(v.Content)
		case AssistantMessage:
			b.WriteString(v.Content)
		case ToolCall:
			b.WriteString(v.Name + " " + v.Arguments)
		case ToolResult:
			b.WriteString(v.Output)
		case HandoffSignal:
			b.WriteString(v.From + " -> " + v.To)
		case Reasoning:
			b.WriteString(v.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}
