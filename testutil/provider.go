// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ryichk/agentloop/item"
	"github.com/ryichk/agentloop/model"
)

type fakeTurn struct {
	output []item.Item
	err    error
}

// FakeProvider is a model.Provider that replays scripted turns. Once the
// script is exhausted it answers "default response".
type FakeProvider struct {
	mu       sync.Mutex
	turns    []fakeTurn
	requests []*model.Request
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// SetNextOutput queues one turn producing output.
func (p *FakeProvider) SetNextOutput(output ...item.Item) {
	p.AddMultipleTurnOutputs(output)
}

// AddMultipleTurnOutputs queues one turn per element of outputs.
func (p *FakeProvider) AddMultipleTurnOutputs(outputs ...[]item.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, out := range outputs {
		p.turns = append(p.turns, fakeTurn{output: out})
	}
}

// AddError queues a turn failing with err.
func (p *FakeProvider) AddError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns = append(p.turns, fakeTurn{err: err})
}

// Calls returns the number of model calls made so far.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns the requests received, in call order.
func (p *FakeProvider) Requests() []*model.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*model.Request(nil), p.requests...)
}

// LastRequest returns the most recent request, or nil.
func (p *FakeProvider) LastRequest() *model.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

func (p *FakeProvider) GetResponse(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	snapshot := *req
	snapshot.Input = item.Clone(req.Input)
	p.requests = append(p.requests, &snapshot)

	turn := fakeTurn{output: []item.Item{item.AssistantMessage{Content: "default response"}}}
	if len(p.turns) > 0 {
		turn = p.turns[0]
		p.turns = p.turns[1:]
	}
	p.mu.Unlock()

	if turn.err != nil {
		return nil, turn.err
	}
	return &model.Response{
		Output: turn.output,
		Usage: model.Usage{
			Requests:         1,
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
		},
	}, nil
}

// StreamResponse streams assistant text word by word.
func (p *FakeProvider) StreamResponse(ctx context.Context, req *model.Request) (model.Stream, error) {
	resp, err := p.GetResponse(ctx, req)
	if err != nil {
		return nil, err
	}
	s := &FakeStream{}
	for _, it := range resp.Output {
		if msg, ok := it.(item.AssistantMessage); ok {
			for _, word := range strings.SplitAfter(msg.Content, " ") {
				if word != "" {
					s.chunks = append(s.chunks, &model.StreamChunk{Delta: word})
				}
			}
		}
	}
	s.chunks = append(s.chunks, &model.StreamChunk{Response: resp})
	return s, nil
}

type FakeStream struct {
	index  int
	chunks []*model.StreamChunk
}

// Recv receives the next chunk from the stream
func (s *FakeStream) Recv() (*model.StreamChunk, error) {
	if s.index >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.index]
	s.index++
	return chunk, nil
}

func (s *FakeStream) Close() error {
	return nil
}

func GetTextMessage(content string) item.Item {
	return item.AssistantMessage{Content: content}
}

// GetFunctionToolCall calls the tool name. Every call gets a fresh ID.
func GetFunctionToolCall(name string, arguments string) item.Item {
	return item.ToolCall{ID: "call_" + uuid.NewString(), Name: name, Arguments: arguments}
}

// GetHandoffToolCall calls the handoff tool toolName, e.g.
// handoff.DefaultToolName("Refund Agent").
func GetHandoffToolCall(toolName string, arguments string) item.Item {
	if arguments == "" {
		arguments = "{}"
	}
	return item.ToolCall{ID: "call_" + uuid.NewString(), Name: toolName, Arguments: arguments}
}
