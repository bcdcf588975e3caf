// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package runner

import (
	"context"
	"iter"
	"sync"

	"github.com/ryichk/agentloop/agent"
	"github.com/ryichk/agentloop/guardrail"
	"github.com/ryichk/agentloop/item"
	"github.com/ryichk/agentloop/model"
	"github.com/ryichk/agentloop/stream"
)

// Result represents the result of an agent execution
type Result struct {
	// Input is the history the run started from: the session items, if any,
	// followed by the caller's input.
	Input []item.Item

	// NewItems are the items produced by the run, in order. Handoff input
	// filters change what the next agent sees, not this record.
	NewItems []item.Item

	// FinalOutput is the final output as text
	FinalOutput string

	// StructuredOutput is the decoded final output when the last agent
	// declared an OutputType, nil otherwise
	StructuredOutput any

	// LastAgent is the agent that produced the final output
	LastAgent *agent.Agent

	InputGuardrailResults  []guardrail.InputResult
	OutputGuardrailResults []guardrail.OutputResult

	// Usage is the token usage summed over every model call
	Usage model.Usage

	// Turns is the number of model calls
	Turns int

	RawResponses []model.Response
}

// ToInputList returns Input followed by NewItems, ready to be passed to
// RunItems.
func (r *Result) ToInputList() []item.Item {
	return item.Append(r.Input, r.NewItems...)
}

// ToContinuationInput returns ToInputList followed by one user message
// holding text.
func (r *Result) ToContinuationInput(text string) []item.Item {
	return item.Append(r.ToInputList(), item.UserMessage{Content: text})
}

// GetFinalOutput implements interfaces.RunResult
func (r *Result) GetFinalOutput() string {
	if r == nil {
		return ""
	}
	return r.FinalOutput
}

// GetStructuredOutput implements interfaces.RunResult
func (r *Result) GetStructuredOutput() any {
	if r == nil {
		return nil
	}
	return r.StructuredOutput
}

// GetLastAgentName implements interfaces.RunResult
func (r *Result) GetLastAgentName() string {
	if r == nil || r.LastAgent == nil {
		return ""
	}
	return r.LastAgent.Name
}

// StructuredOutputAs returns the structured output of r as a T.
func StructuredOutputAs[T any](r *Result) (T, bool) {
	v, ok := r.GetStructuredOutput().(T)
	return v, ok
}

// StreamedResult is a run in progress started by RunStreamed.
//
// Events must be consumed for the run to make progress: once the buffer is
// full the run waits for the consumer. Stopping the iteration early, or
// calling Cancel, cancels the run; Wait then reports context.Canceled.
type StreamedResult struct {
	bus    *stream.Bus
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result *Result
	err    error
}

// Events yields the events of the run in the order they happened. The
// sequence ends when the run finishes.
func (s *StreamedResult) Events() iter.Seq[stream.Event] {
	return func(yield func(stream.Event) bool) {
		for ev := range s.bus.Events() {
			if !yield(ev) {
				s.cancel()
				return
			}
		}
	}
}

// Wait blocks until the run finishes and returns its result.
func (s *StreamedResult) Wait() (*Result, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Cancel stops the run.
func (s *StreamedResult) Cancel() {
	s.cancel()
}

func (s *StreamedResult) finish(result *Result, err error) {
	s.mu.Lock()
	s.result, s.err = result, err
	s.mu.Unlock()
	s.bus.Close()
	s.cancel()
	close(s.done)
}
