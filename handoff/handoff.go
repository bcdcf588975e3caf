// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package handoff defines how an agent transfers the conversation to another
// agent. A handoff is offered to the model as a tool named
// transfer_to_<agent>; calling it makes the target the active agent.
package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/internal/schema"
	"github.com/ryichk/agentloop/item"
	"github.com/ryichk/agentloop/tool"
)

// InputData is the history handed to the next agent, split the way input
// filters need to see it.
type InputData struct {
	// InputHistory is the input of the run, before any item it produced.
	InputHistory []item.Item
	// PreHandoffItems are the items produced before the turn that handed off.
	PreHandoffItems []item.Item
	// NewItems are the items of the turn that handed off, including the
	// handoff signal.
	NewItems []item.Item
}

// All returns InputHistory, PreHandoffItems and NewItems as one history.
func (d InputData) All() []item.Item {
	return item.Append(item.Append(d.InputHistory, d.PreHandoffItems...), d.NewItems...)
}

// InputFilter rewrites the history the next agent receives.
type InputFilter func(ctx context.Context, data InputData) (InputData, error)

// Handoff is a transfer of control to a target agent.
type Handoff struct {
	target          interfaces.Agent
	targetName      string
	toolName        string
	toolDescription string

	inputType   reflect.Type
	inputSchema map[string]any
	validator   *schema.Validator

	onHandoff      func(ctx context.Context) error
	onHandoffInput func(ctx context.Context, input any) error
	inputFilter    InputFilter
}

// Option configures a Handoff.
type Option func(*Handoff)

// WithToolName overrides the default transfer_to_<agent> tool name.
func WithToolName(name string) Option {
	return func(h *Handoff) {
		h.toolName = name
	}
}

// WithToolDescription overrides the default tool description.
func WithToolDescription(description string) Option {
	return func(h *Handoff) {
		h.toolDescription = description
	}
}

// WithInputType makes the model supply an argument of type t when handing
// off. The argument is validated and decoded before the callback runs.
func WithInputType(t reflect.Type) Option {
	return func(h *Handoff) {
		h.inputType = t
	}
}

// WithOnHandoff registers a callback run when the handoff is taken.
func WithOnHandoff(fn func(ctx context.Context) error) Option {
	return func(h *Handoff) {
		h.onHandoff = fn
	}
}

// WithOnHandoffInput registers a callback receiving the decoded input. It
// requires WithInputType; the value passed is a pointer to that type.
func WithOnHandoffInput(fn func(ctx context.Context, input any) error) Option {
	return func(h *Handoff) {
		h.onHandoffInput = fn
	}
}

// WithInputFilter sets the filter applied to the history given to the target.
func WithInputFilter(filter InputFilter) Option {
	return func(h *Handoff) {
		h.inputFilter = filter
	}
}

// New creates a handoff to target.
func New(target interfaces.Agent, opts ...Option) (*Handoff, error) {
	if schema.IsNil(target) {
		return nil, agenterr.NewUserError("handoff target cannot be nil")
	}
	h := &Handoff{target: target, targetName: target.GetName()}
	return h.init(target.GetDescription(), opts)
}

// To creates a handoff to the agent registered under name. The target is
// looked up in a Registry when the handoff is taken, which allows agents
// that hand off to each other.
func To(name string, opts ...Option) (*Handoff, error) {
	if name == "" {
		return nil, agenterr.NewUserError("handoff target name cannot be empty")
	}
	h := &Handoff{targetName: name}
	return h.init("", opts)
}

func (h *Handoff) init(handoffDescription string, opts []Option) (*Handoff, error) {
	for _, opt := range opts {
		opt(h)
	}
	if h.onHandoffInput != nil && h.inputType == nil {
		return nil, agenterr.NewUserError("handoff to %s: an input callback requires an input type", h.targetName)
	}
	if h.onHandoffInput != nil && h.onHandoff != nil {
		return nil, agenterr.NewUserError("handoff to %s: set either an input callback or a plain callback", h.targetName)
	}
	if h.toolName == "" {
		h.toolName = DefaultToolName(h.targetName)
	}
	if h.toolDescription == "" {
		h.toolDescription = DefaultToolDescription(h.targetName, handoffDescription)
	}

	if h.inputType != nil {
		h.inputSchema = schema.FromType(h.inputType)
	} else {
		h.inputSchema = schema.Object()
	}
	validator, err := schema.Compile(h.inputSchema)
	if err != nil {
		return nil, fmt.Errorf("handoff to %s: %w", h.targetName, err)
	}
	h.validator = validator
	return h, nil
}

// DefaultToolName generates a default tool name for an agent
func DefaultToolName(agentName string) string {
	return "transfer_to_" + tool.SnakeCase(agentName)
}

// DefaultToolDescription generates a default tool description for an agent
func DefaultToolDescription(agentName, handoffDescription string) string {
	desc := fmt.Sprintf("Handoff to the %s agent to handle the request.", agentName)
	if handoffDescription != "" {
		desc += " " + handoffDescription
	}
	return desc
}

func (h *Handoff) ToolName() string {
	return h.toolName
}

func (h *Handoff) ToolDescription() string {
	return h.toolDescription
}

// InputJSONSchema returns the schema of the tool arguments.
func (h *Handoff) InputJSONSchema() map[string]any {
	return h.inputSchema
}

// TargetName returns the name of the agent the handoff transfers to.
func (h *Handoff) TargetName() string {
	return h.targetName
}

// InputFilter returns the filter set with WithInputFilter, or nil.
func (h *Handoff) InputFilter() InputFilter {
	return h.inputFilter
}

// Target returns the target agent. A handoff created with To resolves its
// target through reg.
func (h *Handoff) Target(reg *Registry) (interfaces.Agent, error) {
	if h.target != nil {
		return h.target, nil
	}
	if a, ok := reg.Resolve(h.targetName); ok {
		return a, nil
	}
	return nil, agenterr.NewUserError("handoff target %q is not registered", h.targetName)
}

// Invoke validates the arguments the model supplied and runs the callbacks.
// It returns the decoded input, or nil when the handoff takes no input.
// Arguments that do not match the input schema are a ModelBehaviorError.
func (h *Handoff) Invoke(ctx context.Context, argsJSON string) (any, error) {
	if err := h.validator.ValidateJSON(argsJSON); err != nil {
		return nil, agenterr.NewModelBehaviorError(err, "invalid input for handoff %s", h.toolName)
	}

	var input any
	if h.inputType != nil {
		ptr := reflect.New(h.inputType)
		raw := argsJSON
		if raw == "" {
			raw = "{}"
		}
		if err := json.Unmarshal([]byte(raw), ptr.Interface()); err != nil {
			return nil, agenterr.NewModelBehaviorError(err, "invalid input for handoff %s", h.toolName)
		}
		input = ptr.Interface()
	}

	switch {
	case h.onHandoffInput != nil:
		if err := h.onHandoffInput(ctx, input); err != nil {
			return nil, fmt.Errorf("handoff %s callback: %w", h.toolName, err)
		}
	case h.onHandoff != nil:
		if err := h.onHandoff(ctx); err != nil {
			return nil, fmt.Errorf("handoff %s callback: %w", h.toolName, err)
		}
	}
	return input, nil
}
