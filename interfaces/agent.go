// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package interfaces holds the small contracts that let tools, guardrails and
// handoffs refer to agents and runners without importing them.
package interfaces

import (
	"context"
)

// Agent is the view of an agent that tools, guardrails and handoffs need.
type Agent interface {
	// GetName returns the name of the agent
	GetName() string

	// GetDescription returns the description used when the agent is offered
	// to another agent as a tool or handoff target
	GetDescription() string
}

// Runner runs an agent to completion on a fresh history holding input.
type Runner interface {
	Run(ctx context.Context, agent any, input string) (any, error)
}

// RunResult is the view of a finished run handed to output extractors and
// agent-backed guardrails.
type RunResult interface {
	// GetFinalOutput returns the final text output of the run
	GetFinalOutput() string

	// GetStructuredOutput returns the decoded output when the final agent
	// declared an output type, nil otherwise
	GetStructuredOutput() any

	// GetLastAgentName returns the name of the agent that produced the output
	GetLastAgentName() string
}
