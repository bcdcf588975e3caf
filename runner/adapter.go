// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package runner

import (
	"context"
	"fmt"

	"github.com/ryichk/agentloop/agent"
	"github.com/ryichk/agentloop/interfaces"
)

// Adapter implements interfaces.Runner so agents can be run as tools or as
// guardrails of other agents. Each call starts a fresh run with Config.
type Adapter struct {
	Config RunConfig
}

var _ interfaces.Runner = (*Adapter)(nil)

// NewAdapter creates a new Adapter instance
func NewAdapter(config RunConfig) *Adapter {
	return &Adapter{Config: config}
}

// Run executes the agent and returns its *Result, which implements
// interfaces.RunResult.
func (r *Adapter) Run(ctx context.Context, agentIF any, input string) (any, error) {
	a, ok := agentIF.(*agent.Agent)
	if !ok {
		return nil, fmt.Errorf("agent must be of type *agent.Agent, got %T", agentIF)
	}
	result, err := Run(ctx, a, input, r.Config)
	if err != nil {
		return nil, err
	}
	return result, nil
}
