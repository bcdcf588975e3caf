// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package agent

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/guardrail"
	"github.com/ryichk/agentloop/handoff"
	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/internal/schema"
	"github.com/ryichk/agentloop/model"
	"github.com/ryichk/agentloop/tool"
)

// Instructions produces the system prompt of an agent. It is resolved once
// per model call and never cached, so dynamic instructions can depend on the
// run context.
type Instructions interface {
	Resolve(ctx context.Context, a *Agent) (string, error)
}

// StaticInstructions is a fixed system prompt.
type StaticInstructions string

func (s StaticInstructions) Resolve(ctx context.Context, a *Agent) (string, error) {
	return string(s), nil
}

// InstructionsFunc generates the system prompt for every model call.
type InstructionsFunc func(ctx context.Context, a *Agent) (string, error)

func (f InstructionsFunc) Resolve(ctx context.Context, a *Agent) (string, error) {
	return f(ctx, a)
}

// An agent is an AI model configured with instructions, tools, guardrails, and handoffs and more.
//
// Agents are built with New and treated as immutable afterwards; use Clone
// to derive a variant. A single Agent may be used by concurrent runs.
type Agent struct {
	// The name of the agent.
	Name string

	// The instructions for the agent. Will be used as the "system prompt" when this agent is invoked.
	Instructions Instructions

	// A description of the agent.
	// This is used when the agent is used as a handoff, so that an LLM knows what it does and when to invoke it.
	HandoffDescription string

	// Handoffs are sub-agents that the agent can delegate to.
	Handoffs []*handoff.Handoff

	// The model name to use. Falls back to the run configuration, then to the provider default.
	Model string

	// Configures model-specific tuning parameters (e.g. Temperature, TopP).
	ModelSettings model.Settings

	// A list of tools that the agent can use.
	Tools []tool.Tool

	// Checks run concurrently over the pending input when this agent becomes active.
	InputGuardrails []guardrail.InputGuardrail

	// Checks run on the final output of the agent.
	OutputGuardrails []guardrail.OutputGuardrail

	// The type of the output object. If nil, the output is plain text.
	OutputType reflect.Type

	// Receives callbacks on lifecycle events for this agent.
	Hooks Hooks

	// Decides whether tool results end the run. Nil means RunLLMAgain.
	ToolUseBehavior ToolUseBehavior

	// ResetToolChoice reverts a forced tool choice to auto once the agent
	// has used a tool, so a "required" choice cannot loop forever.
	ResetToolChoice bool
}

// New creates an agent and validates its configuration. Empty names,
// duplicate tool names, a tool named like a handoff tool and duplicate
// guardrail names are reported as agenterr.UserError.
func New(name string, instructions string, opts ...Option) (*Agent, error) {
	a := &Agent{
		Name:            name,
		Instructions:    StaticInstructions(instructions),
		Hooks:           &BaseAgentHooks{},
		ResetToolChoice: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// MustNew is like New but panics on a configuration error. It is meant for
// package-level agent definitions.
func MustNew(name string, instructions string, opts ...Option) *Agent {
	a, err := New(name, instructions, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Agent) validate() error {
	if a.Name == "" {
		return agenterr.NewUserError("agent name cannot be empty")
	}
	// Model output formats only accept object schemas.
	if a.OutputType != nil && !schema.IsObject(a.OutputType) {
		return agenterr.NewUserError("agent %s: output type %s must be a struct", a.Name, a.OutputType)
	}

	names := make(map[string]bool, len(a.Tools)+len(a.Handoffs))
	for _, t := range a.Tools {
		if schema.IsNil(t) {
			return agenterr.NewUserError("agent %s: nil tool", a.Name)
		}
		if names[t.Name()] {
			return agenterr.NewUserError("agent %s: duplicate tool name %q", a.Name, t.Name())
		}
		names[t.Name()] = true
	}
	for _, h := range a.Handoffs {
		if h == nil {
			return agenterr.NewUserError("agent %s: nil handoff", a.Name)
		}
		if names[h.ToolName()] {
			return agenterr.NewUserError("agent %s: handoff tool name %q collides with another tool", a.Name, h.ToolName())
		}
		names[h.ToolName()] = true
	}

	guardrails := make(map[string]bool, len(a.InputGuardrails))
	for _, g := range a.InputGuardrails {
		if schema.IsNil(g) {
			return agenterr.NewUserError("agent %s: nil input guardrail", a.Name)
		}
		if guardrails[g.Name()] {
			return agenterr.NewUserError("agent %s: duplicate input guardrail %q", a.Name, g.Name())
		}
		guardrails[g.Name()] = true
	}
	clear(guardrails)
	for _, g := range a.OutputGuardrails {
		if schema.IsNil(g) {
			return agenterr.NewUserError("agent %s: nil output guardrail", a.Name)
		}
		if guardrails[g.Name()] {
			return agenterr.NewUserError("agent %s: duplicate output guardrail %q", a.Name, g.Name())
		}
		guardrails[g.Name()] = true
	}
	return nil
}

// GetName returns the agent name
// Implements interfaces.Agent interface
func (a *Agent) GetName() string {
	return a.Name
}

// GetDescription returns the agent description
// Implements interfaces.Agent interface
func (a *Agent) GetDescription() string {
	if a.HandoffDescription != "" {
		return a.HandoffDescription
	}
	return fmt.Sprintf("Agent %s", a.Name)
}

// GetSystemPrompt resolves the instructions for one model call.
func (a *Agent) GetSystemPrompt(ctx context.Context) (string, error) {
	if a.Instructions == nil {
		return "", nil
	}
	prompt, err := a.Instructions.Resolve(ctx, a)
	if err != nil {
		return "", fmt.Errorf("resolve instructions of %s: %w", a.Name, err)
	}
	return prompt, nil
}

// ToolSet returns the agent's tools as a tool.Set.
func (a *Agent) ToolSet() (*tool.Set, error) {
	return tool.NewSet(a.Tools...)
}

// HandoffFor returns the handoff whose tool is named toolName.
func (a *Agent) HandoffFor(toolName string) (*handoff.Handoff, bool) {
	for _, h := range a.Handoffs {
		if h.ToolName() == toolName {
			return h, true
		}
	}
	return nil, false
}

// AsTool converts this agent to a tool that can be used by other agents.
//
// This is different from a handoff in two ways:
//  1. In handoffs, the new agent receives the conversation history.
//     In this tool, the new agent receives generated input.
//  2. In handoffs, the new agent takes over the conversation.
//     In this tool, the new agent is called as a tool, and the conversation is continued by the original agent.
func (a *Agent) AsTool(runner interfaces.Runner, options ...tool.AgentToolOption) (tool.Tool, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	return tool.NewAgentTool(a, runner, options...)
}
