// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/internal/schema"
)

var agentToolParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"input": map[string]any{
			"type":        "string",
			"description": "The input to send to the agent",
		},
	},
	"required":             []string{"input"},
	"additionalProperties": false,
}

var agentToolValidator = schema.MustCompile(agentToolParams)

// AgentTool exposes an agent as a tool. Each invocation starts a nested run
// with its own history, seeded only with the input the calling model wrote.
type AgentTool struct {
	name            string
	description     string
	agent           interfaces.Agent
	runner          interfaces.Runner
	outputExtractor func(result any) (string, error)
}

func (t *AgentTool) Name() string {
	return t.name
}

func (t *AgentTool) Description() string {
	return t.description
}

// ParamsJSONSchema returns the JSON schema for the tool parameters
func (t *AgentTool) ParamsJSONSchema() map[string]any {
	return agentToolParams
}

// Invoke runs the wrapped agent on the provided input
func (t *AgentTool) Invoke(ctx context.Context, paramsJSON string) (string, error) {
	if err := agentToolValidator.ValidateJSON(paramsJSON); err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrInvalidArguments, t.name, err)
	}
	var params struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrInvalidArguments, t.name, err)
	}

	result, err := t.runner.Run(ctx, t.agent, params.Input)
	if err != nil {
		return "", fmt.Errorf("failed to run agent %s: %w", t.agent.GetName(), err)
	}

	if t.outputExtractor != nil {
		return t.outputExtractor(result)
	}
	if runResult, ok := result.(interfaces.RunResult); ok {
		return runResult.GetFinalOutput(), nil
	}
	return fmt.Sprintf("%v", result), nil
}

// AgentToolOption represents options for creating an AgentTool
type AgentToolOption struct {
	// Name for the tool (optional, defaults to the snake-cased agent name)
	Name string
	// Description for the tool (optional, defaults to agent's description)
	Description string
	// OutputExtractor converts the nested run result into the tool output.
	// It receives whatever the runner returned, usually an interfaces.RunResult.
	OutputExtractor func(result any) (string, error)
}

// NewAgentTool converts an agent to a tool.
//
// This differs from a handoff in two ways: the target agent receives input
// written by the calling model instead of the conversation history, and the
// calling agent keeps control of the conversation after the tool returns.
func NewAgentTool(a interfaces.Agent, r interfaces.Runner, options ...AgentToolOption) (*AgentTool, error) {
	if a == nil {
		return nil, fmt.Errorf("agent cannot be nil")
	}
	if r == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	agentTool := &AgentTool{
		agent:       a,
		runner:      r,
		name:        SnakeCase(a.GetName()),
		description: a.GetDescription(),
	}

	for _, option := range options {
		if option.Name != "" {
			agentTool.name = option.Name
		}
		if option.Description != "" {
			agentTool.description = option.Description
		}
		if option.OutputExtractor != nil {
			agentTool.outputExtractor = option.OutputExtractor
		}
	}

	return agentTool, nil
}
