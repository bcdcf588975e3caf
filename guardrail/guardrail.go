// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package guardrail checks the input and the final output of an agent.
//
// A guardrail that sets TripwireTriggered halts the run: input guardrails
// before the agent's first model call, output guardrails before the result
// is returned.
package guardrail

import (
	"context"
	"strings"

	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/item"
)

// Output is the verdict of a single guardrail check.
type Output struct {
	// OutputInfo is optional information about the check, reported back to
	// the caller in results and tripwire errors.
	OutputInfo any

	// TripwireTriggered halts the run when true.
	TripwireTriggered bool
}

// InputCheckFunc checks the input an agent is about to receive.
type InputCheckFunc func(ctx context.Context, agent interfaces.Agent, input []item.Item) (Output, error)

// OutputCheckFunc checks the final output an agent produced. output is the
// text output, or the decoded value when the agent declares an output type.
type OutputCheckFunc func(ctx context.Context, agent interfaces.Agent, output any) (Output, error)

type InputGuardrail interface {
	Name() string
	Description() string
	Check(ctx context.Context, agent interfaces.Agent, input []item.Item) (Output, error)
}

type OutputGuardrail interface {
	Name() string
	Description() string
	Check(ctx context.Context, agent interfaces.Agent, output any) (Output, error)
}

type FunctionInputGuardrail struct {
	name        string
	description string
	checkFunc   InputCheckFunc
}

func (g *FunctionInputGuardrail) Name() string {
	return g.name
}

func (g *FunctionInputGuardrail) Description() string {
	return g.description
}

func (g *FunctionInputGuardrail) Check(ctx context.Context, agent interfaces.Agent, input []item.Item) (Output, error) {
	return g.checkFunc(ctx, agent, input)
}

type FunctionOutputGuardrail struct {
	name        string
	description string
	checkFunc   OutputCheckFunc
}

func (g *FunctionOutputGuardrail) Name() string {
	return g.name
}

func (g *FunctionOutputGuardrail) Description() string {
	return g.description
}

func (g *FunctionOutputGuardrail) Check(ctx context.Context, agent interfaces.Agent, output any) (Output, error) {
	return g.checkFunc(ctx, agent, output)
}

func NewInputGuardrail(name string, description string, checkFunc InputCheckFunc) InputGuardrail {
	return &FunctionInputGuardrail{
		name:        name,
		description: description,
		checkFunc:   checkFunc,
	}
}

func NewOutputGuardrail(name string, description string, checkFunc OutputCheckFunc) OutputGuardrail {
	return &FunctionOutputGuardrail{
		name:        name,
		description: description,
		checkFunc:   checkFunc,
	}
}

// NewTextInputGuardrail builds an input guardrail that only looks at the text
// of the user messages in the input.
func NewTextInputGuardrail(name string, description string, checkFunc func(ctx context.Context, text string) (Output, error)) InputGuardrail {
	return NewInputGuardrail(name, description, func(ctx context.Context, _ interfaces.Agent, input []item.Item) (Output, error) {
		return checkFunc(ctx, InputText(input))
	})
}

// NewTextOutputGuardrail builds an output guardrail over the textual form of
// the final output.
func NewTextOutputGuardrail(name string, description string, checkFunc func(ctx context.Context, text string) (Output, error)) OutputGuardrail {
	return NewOutputGuardrail(name, description, func(ctx context.Context, _ interfaces.Agent, output any) (Output, error) {
		return checkFunc(ctx, OutputText(output))
	})
}

// InputText joins the content of the user messages in input.
func InputText(input []item.Item) string {
	var parts []string
	for _, it := range input {
		if m, ok := it.(item.UserMessage); ok {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
