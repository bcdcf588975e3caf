// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package model is the boundary between the run loop and LLM backends.
package model

import (
	"context"

	"github.com/ryichk/agentloop/item"
)

// Tool choice values understood by every provider. Any other value names the
// tool the model must call.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceRequired = "required"
	ToolChoiceNone     = "none"
)

// Settings represents model settings
type Settings struct {
	// Temperature sets the generation temperature (0.0-2.0)
	Temperature float64

	// MaxTokens sets the maximum number of tokens to generate
	MaxTokens int

	// TopP sets the top P for generation (0.0-1.0)
	TopP float64

	// FrequencyPenalty sets the frequency penalty (-2.0-2.0)
	FrequencyPenalty float64

	// PresencePenalty sets the presence penalty (-2.0-2.0)
	PresencePenalty float64

	// StopSequences sets sequences that stop generation
	StopSequences []string

	// Seed sets the generation seed
	Seed int

	// ToolChoice is auto, required, none or the name of a tool. Empty leaves
	// the choice to the provider.
	ToolChoice string

	// ParallelToolCalls allows the model to request several tool calls in one
	// response. Nil leaves the provider default.
	ParallelToolCalls *bool
}

// DefaultSettings returns default model settings
func DefaultSettings() Settings {
	return Settings{
		Temperature: 0.7,
		MaxTokens:   1024,
		TopP:        1.0,
	}
}

// Resolve returns s with every non-zero field of override applied on top.
func (s Settings) Resolve(override Settings) Settings {
	out := s
	if override.Temperature != 0 {
		out.Temperature = override.Temperature
	}
	if override.MaxTokens != 0 {
		out.MaxTokens = override.MaxTokens
	}
	if override.TopP != 0 {
		out.TopP = override.TopP
	}
	if override.FrequencyPenalty != 0 {
		out.FrequencyPenalty = override.FrequencyPenalty
	}
	if override.PresencePenalty != 0 {
		out.PresencePenalty = override.PresencePenalty
	}
	if override.StopSequences != nil {
		out.StopSequences = override.StopSequences
	}
	if override.Seed != 0 {
		out.Seed = override.Seed
	}
	if override.ToolChoice != "" {
		out.ToolChoice = override.ToolChoice
	}
	if override.ParallelToolCalls != nil {
		out.ParallelToolCalls = override.ParallelToolCalls
	}
	return out
}

// ToolDefinition describes a tool, or a handoff, offered to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// OutputSchema asks the model for a final answer matching Schema.
type OutputSchema struct {
	Name   string
	Schema map[string]any
}

// Request is everything a provider needs for one model call.
type Request struct {
	// Model names the model; providers fall back to their default when empty.
	Model        string
	Instructions string
	Input        []item.Item
	Tools        []ToolDefinition
	Handoffs     []ToolDefinition
	OutputSchema *OutputSchema
	Settings     Settings
}

// AllTools returns Tools followed by Handoffs.
func (r *Request) AllTools() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.Tools)+len(r.Handoffs))
	out = append(out, r.Tools...)
	return append(out, r.Handoffs...)
}

// Response represents a model response. Output holds assistant messages,
// tool calls and reasoning items, without the Agent field set.
type Response struct {
	ID     string
	Output []item.Item
	Usage  Usage
}

// Usage represents token usage
type Usage struct {
	// Requests is the number of model calls
	Requests int

	// PromptTokens is the number of tokens in the prompt
	PromptTokens int

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int

	// TotalTokens is the total number of tokens
	TotalTokens int
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.Requests += other.Requests
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Provider is the interface for model providers
type Provider interface {
	GetResponse(ctx context.Context, req *Request) (*Response, error)
	StreamResponse(ctx context.Context, req *Request) (Stream, error)
}

// Stream is the interface for streaming responses. Recv returns io.EOF after
// the chunk carrying the final Response.
type Stream interface {
	// Recv receives the next chunk from the stream
	Recv() (*StreamChunk, error)

	// Close closes the stream
	Close() error
}

// StreamChunk is either a text delta or, last, the assembled response.
type StreamChunk struct {
	Delta    string
	Response *Response
}
