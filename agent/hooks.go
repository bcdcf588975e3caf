// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package agent

import (
	"context"

	"github.com/ryichk/agentloop/tool"
)

// Hooks is the interface for agent lifecycle hooks. A hook returning an
// error aborts the run with that error.
type Hooks interface {
	// OnStart is called each time the agent becomes the active agent
	OnStart(ctx context.Context, agent *Agent) error

	// OnEnd is called when the agent produces the final output
	OnEnd(ctx context.Context, agent *Agent, output any) error

	// OnHandoff is called on the agent receiving control
	OnHandoff(ctx context.Context, agent *Agent, source *Agent) error

	// OnToolStart is called before a tool runs
	OnToolStart(ctx context.Context, agent *Agent, tool tool.Tool) error

	// OnToolEnd is called after a tool returned its output
	OnToolEnd(ctx context.Context, agent *Agent, tool tool.Tool, output string) error
}

// BaseAgentHooks provides a basic implementation of the Hooks interface
type BaseAgentHooks struct{}

func (h *BaseAgentHooks) OnStart(ctx context.Context, agent *Agent) error {
	return nil
}

func (h *BaseAgentHooks) OnEnd(ctx context.Context, agent *Agent, output any) error {
	return nil
}

func (h *BaseAgentHooks) OnHandoff(ctx context.Context, agent *Agent, source *Agent) error {
	return nil
}

func (h *BaseAgentHooks) OnToolStart(ctx context.Context, agent *Agent, tool tool.Tool) error {
	return nil
}

func (h *BaseAgentHooks) OnToolEnd(ctx context.Context, agent *Agent, tool tool.Tool, output string) error {
	return nil
}

// RunHooks receives lifecycle callbacks for every agent of a run.
type RunHooks interface {
	OnAgentStart(ctx context.Context, agent *Agent) error
	OnAgentEnd(ctx context.Context, agent *Agent, output any) error
	OnHandoff(ctx context.Context, from *Agent, to *Agent) error
	OnToolStart(ctx context.Context, agent *Agent, tool tool.Tool) error
	OnToolEnd(ctx context.Context, agent *Agent, tool tool.Tool, output string) error
}

// BaseRunHooks implements RunHooks with no-ops. Embed it to override only
// some callbacks.
type BaseRunHooks struct{}

func (BaseRunHooks) OnAgentStart(ctx context.Context, agent *Agent) error {
	return nil
}

func (BaseRunHooks) OnAgentEnd(ctx context.Context, agent *Agent, output any) error {
	return nil
}

func (BaseRunHooks) OnHandoff(ctx context.Context, from *Agent, to *Agent) error {
	return nil
}

func (BaseRunHooks) OnToolStart(ctx context.Context, agent *Agent, tool tool.Tool) error {
	return nil
}

func (BaseRunHooks) OnToolEnd(ctx context.Context, agent *Agent, tool tool.Tool, output string) error {
	return nil
}
