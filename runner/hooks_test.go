// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package runner

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryichk/agentloop/agent"
	"github.com/ryichk/agentloop/handoff"
	"github.com/ryichk/agentloop/item"
	"github.com/ryichk/agentloop/testutil"
	"github.com/ryichk/agentloop/tool"
)

type agentHooksAdapter struct {
	hooks *testutil.TestHooks
}

func newAgentHooksAdapter(hooks *testutil.TestHooks) *agentHooksAdapter {
	return &agentHooksAdapter{hooks: hooks}
}

func (a *agentHooksAdapter) OnStart(ctx context.Context, agent *agent.Agent) error {
	return a.hooks.OnStart(ctx, agent)
}

func (a *agentHooksAdapter) OnEnd(ctx context.Context, agent *agent.Agent, output any) error {
	return a.hooks.OnEnd(ctx, agent, output)
}

func (a *agentHooksAdapter) OnHandoff(ctx context.Context, agent *agent.Agent, source *agent.Agent) error {
	return a.hooks.OnHandoff(ctx, agent, source)
}

func (a *agentHooksAdapter) OnToolStart(ctx context.Context, agent *agent.Agent, t tool.Tool) error {
	return a.hooks.OnToolStart(ctx, agent, t.Name())
}

func (a *agentHooksAdapter) OnToolEnd(ctx context.Context, agent *agent.Agent, t tool.Tool, result string) error {
	return a.hooks.OnToolEnd(ctx, agent, t.Name(), result)
}

// runHooksAdapter records run level hooks. OnHandoff is recorded against the
// agent receiving control, like the agent hooks.
type runHooksAdapter struct {
	agent.BaseRunHooks
	hooks *testutil.TestHooks
}

func (r *runHooksAdapter) OnAgentStart(ctx context.Context, a *agent.Agent) error {
	return r.hooks.OnStart(ctx, a)
}

func (r *runHooksAdapter) OnAgentEnd(ctx context.Context, a *agent.Agent, output any) error {
	return r.hooks.OnEnd(ctx, a, output)
}

func (r *runHooksAdapter) OnHandoff(ctx context.Context, from *agent.Agent, to *agent.Agent) error {
	return r.hooks.OnHandoff(ctx, to, from)
}

func (r *runHooksAdapter) OnToolStart(ctx context.Context, a *agent.Agent, t tool.Tool) error {
	return r.hooks.OnToolStart(ctx, a, t.Name())
}

func (r *runHooksAdapter) OnToolEnd(ctx context.Context, a *agent.Agent, t tool.Tool, result string) error {
	return r.hooks.OnToolEnd(ctx, a, t.Name(), result)
}

func TestRunWithHooks(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()
	fakeModel.SetNextOutput(testutil.GetTextMessage("This is a test response"))

	hooks := &testutil.TestHooks{}
	testAgent := agent.MustNew("test-agent", "Test instructions",
		agent.WithModel("gpt-4o"),
		agent.WithHooks(newAgentHooksAdapter(hooks)))

	result, err := Run(context.Background(), testAgent, "Hello", RunConfig{ModelProvider: fakeModel, MaxTurns: 5})

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, hooks.StartCount, "OnStart should be called once")
	assert.Equal(t, 1, hooks.EndCount, "OnEnd should be called once")
	assert.Equal(t, 0, hooks.HandoffCount, "OnHandoff should not be called")
	assert.Equal(t, 0, hooks.ToolStartCount, "OnToolStart should not be called")
	assert.Equal(t, 0, hooks.ToolEndCount, "OnToolEnd should not be called")
}

// TestRunWithToolCallHooks tests that hooks are called correctly during tool calls
func TestRunWithToolCallHooks(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()
	fakeModel.AddMultipleTurnOutputs(
		[]item.Item{testutil.GetFunctionToolCall("test-tool", `{"a":"b"}`)},
		[]item.Item{testutil.GetTextMessage("Final response after tool call")},
	)

	agentHooks := &testutil.TestHooks{}
	runHooks := &testutil.TestHooks{}
	testAgent := agent.MustNew("test-agent", "Test instructions",
		agent.WithTools(testutil.NewTestTool("test-tool", "", "Tool execution result")),
		agent.WithHooks(newAgentHooksAdapter(agentHooks)))

	result, err := Run(context.Background(), testAgent, "Use the test tool", RunConfig{
		ModelProvider: fakeModel,
		Hooks:         &runHooksAdapter{hooks: runHooks},
	})

	require.NoError(t, err)
	assert.NotNil(t, result)
	expected := []string{
		"start:test-agent",
		"tool_start:test-agent:test-tool",
		"tool_end:test-agent:test-tool",
		"end:test-agent",
	}
	assert.Equal(t, expected, agentHooks.Events())
	assert.Equal(t, expected, runHooks.Events())
}

// TestRunWithHandoffHooks tests that hooks are called correctly during handoffs
func TestRunWithHandoffHooks(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()

	hooks1 := &testutil.TestHooks{}
	hooks2 := &testutil.TestHooks{}
	runHooks := &testutil.TestHooks{}

	agent2 := agent.MustNew("agent2", "Test instructions for agent2",
		agent.WithHooks(newAgentHooksAdapter(hooks2)))

	var callbackInput any
	type handoffArgs struct {
		Reason string `json:"reason"`
	}
	toAgent2, err := handoff.New(agent2,
		handoff.WithInputType(reflect.TypeOf(handoffArgs{})),
		handoff.WithOnHandoffInput(func(ctx context.Context, input any) error {
			callbackInput = input
			return nil
		}))
	require.NoError(t, err)

	agent1 := agent.MustNew("agent1", "Test instructions for agent1",
		agent.WithHandoffs(toAgent2),
		agent.WithHooks(newAgentHooksAdapter(hooks1)))

	fakeModel.AddMultipleTurnOutputs(
		[]item.Item{
			testutil.GetTextMessage("Handing off to agent2"),
			testutil.GetHandoffToolCall(toAgent2.ToolName(), `{"reason":"billing"}`),
		},
		[]item.Item{testutil.GetTextMessage("Response from agent2")},
	)

	result, err := Run(context.Background(), agent1, "Start with agent1", RunConfig{
		ModelProvider: fakeModel,
		Hooks:         &runHooksAdapter{hooks: runHooks},
	})

	require.NoError(t, err)
	assert.Equal(t, "agent2", result.GetLastAgentName())
	assert.Equal(t, &handoffArgs{Reason: "billing"}, callbackInput)

	assert.Equal(t, []string{"start:agent1"}, hooks1.Events())
	assert.Equal(t, []string{"handoff:agent2", "start:agent2", "end:agent2"}, hooks2.Events())
	assert.Equal(t, []string{"start:agent1", "handoff:agent2", "start:agent2", "end:agent2"}, runHooks.Events())
}

type failingStartHooks struct {
	agent.BaseAgentHooks
}

func (*failingStartHooks) OnStart(ctx context.Context, a *agent.Agent) error {
	return errors.New("not now")
}

func TestHookErrorStopsRun(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()
	testAgent := agent.MustNew("test-agent", "", agent.WithHooks(&failingStartHooks{}))

	_, err := Run(context.Background(), testAgent, "hi", RunConfig{ModelProvider: fakeModel})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not now")
	assert.Equal(t, 0, fakeModel.Calls())
}
