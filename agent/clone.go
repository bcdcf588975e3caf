// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package agent

import (
	"reflect"

	"github.com/ryichk/agentloop/guardrail"
	"github.com/ryichk/agentloop/handoff"
	"github.com/ryichk/agentloop/model"
	"github.com/ryichk/agentloop/tool"
)

// Option configures an Agent in New and Clone.
type Option func(*Agent)

func WithName(name string) Option {
	return func(a *Agent) {
		a.Name = name
	}
}

// WithInstructions replaces the instructions, e.g. with an InstructionsFunc.
func WithInstructions(instructions Instructions) Option {
	return func(a *Agent) {
		a.Instructions = instructions
	}
}

func WithHandoffDescription(desc string) Option {
	return func(a *Agent) {
		a.HandoffDescription = desc
	}
}

func WithModel(model string) Option {
	return func(a *Agent) {
		a.Model = model
	}
}

func WithModelSettings(settings model.Settings) Option {
	return func(a *Agent) {
		a.ModelSettings = settings
	}
}

func WithTools(tools ...tool.Tool) Option {
	return func(a *Agent) {
		a.Tools = tools
	}
}

func WithHandoffs(handoffs ...*handoff.Handoff) Option {
	return func(a *Agent) {
		a.Handoffs = handoffs
	}
}

func WithInputGuardrails(guardrails ...guardrail.InputGuardrail) Option {
	return func(a *Agent) {
		a.InputGuardrails = guardrails
	}
}

func WithOutputGuardrails(guardrails ...guardrail.OutputGuardrail) Option {
	return func(a *Agent) {
		a.OutputGuardrails = guardrails
	}
}

func WithOutputType(outputType reflect.Type) Option {
	return func(a *Agent) {
		a.OutputType = outputType
	}
}

// WithHooks sets the hooks of the agent
func WithHooks(hooks Hooks) Option {
	return func(a *Agent) {
		a.Hooks = hooks
	}
}

func WithToolUseBehavior(behavior ToolUseBehavior) Option {
	return func(a *Agent) {
		a.ToolUseBehavior = behavior
	}
}

func WithResetToolChoice(reset bool) Option {
	return func(a *Agent) {
		a.ResetToolChoice = reset
	}
}

// Clone makes a copy of the agent with the given options applied.
// For example:
//
//	pirate, err := assistant.Clone(
//		agent.WithName("Pirate"),
//		agent.WithInstructions(agent.StaticInstructions("Talk like a pirate.")),
//	)
//
// Slices that are not overridden share their elements with the original.
// Their capacity is clipped, so appending to a clone's slice never writes
// into the original's backing array.
func (a *Agent) Clone(opts ...Option) (*Agent, error) {
	cloned := *a
	cloned.Tools = a.Tools[:len(a.Tools):len(a.Tools)]
	cloned.Handoffs = a.Handoffs[:len(a.Handoffs):len(a.Handoffs)]
	cloned.InputGuardrails = a.InputGuardrails[:len(a.InputGuardrails):len(a.InputGuardrails)]
	cloned.OutputGuardrails = a.OutputGuardrails[:len(a.OutputGuardrails):len(a.OutputGuardrails)]

	for _, opt := range opts {
		opt(&cloned)
	}
	if err := cloned.validate(); err != nil {
		return nil, err
	}
	return &cloned, nil
}
