// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryichk/agentloop/agent"
	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/guardrail"
	"github.com/ryichk/agentloop/handoff"
	"github.com/ryichk/agentloop/item"
	"github.com/ryichk/agentloop/stream"
	"github.com/ryichk/agentloop/testutil"
)

// describe renders ev as a short string for order assertions.
func describe(ev stream.Event) string {
	switch e := ev.(type) {
	case stream.AgentUpdated:
		return "agent:" + e.Agent.Name
	case stream.RawResponse:
		return "delta:" + e.Delta
	case stream.RunItem:
		return "item:" + e.Name
	}
	return "unknown"
}

func TestRunStreamedEventOrder(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()
	fakeModel.AddMultipleTurnOutputs(
		[]item.Item{testutil.GetFunctionToolCall("test-tool", "{}")},
		[]item.Item{testutil.GetTextMessage("Hello world")},
	)
	a := agent.MustNew("Assistant", "", agent.WithTools(testutil.NewTestTool("test-tool", "", "ok")))

	s := RunStreamed(context.Background(), a, item.UserText("hi"), RunConfig{ModelProvider: fakeModel})

	var got []string
	for ev := range s.Events() {
		got = append(got, describe(ev))
	}
	result, err := s.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{
		"agent:Assistant",
		"item:" + stream.ToolCalled,
		"item:" + stream.ToolOutput,
		"delta:Hello ",
		"delta:world",
		"item:" + stream.MessageOutputCreated,
	}, got)
	assert.Equal(t, "Hello world", result.FinalOutput)
	assert.Equal(t, 2, result.Turns)
}

func TestRunStreamedHandoff(t *testing.T) {
	spanish := agent.MustNew("Spanish", "")
	toSpanish, err := handoff.New(spanish)
	require.NoError(t, err)
	triage := agent.MustNew("Triage", "", agent.WithHandoffs(toSpanish))

	fakeModel := testutil.NewFakeProvider()
	fakeModel.AddMultipleTurnOutputs(
		[]item.Item{testutil.GetHandoffToolCall(toSpanish.ToolName(), "")},
		[]item.Item{testutil.GetTextMessage("Hola")},
	)

	s := RunStreamed(context.Background(), triage, item.UserText("hola"), RunConfig{ModelProvider: fakeModel})

	var got []string
	for ev := range s.Events() {
		got = append(got, describe(ev))
	}
	result, err := s.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{
		"agent:Triage",
		"item:" + stream.HandoffRequested,
		"item:" + stream.HandoffOccurred,
		"agent:Spanish",
		"delta:Hola",
		"item:" + stream.MessageOutputCreated,
	}, got)
	assert.Equal(t, "Spanish", result.GetLastAgentName())
}

func TestRunStreamedStopsWhenConsumerLeaves(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()
	fakeModel.SetNextOutput(testutil.GetTextMessage("one two three four five six"))

	s := RunStreamed(context.Background(), agent.MustNew("A", ""), item.UserText("count"), RunConfig{
		ModelProvider:    fakeModel,
		StreamBufferSize: 1,
	})

	for range s.Events() {
		break
	}
	result, err := s.Wait()

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestRunStreamedCancel(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()
	fakeModel.SetNextOutput(testutil.GetTextMessage("one two three four five six"))

	s := RunStreamed(context.Background(), agent.MustNew("A", ""), item.UserText("count"), RunConfig{
		ModelProvider:    fakeModel,
		StreamBufferSize: 1,
	})
	s.Cancel()

	for range s.Events() {
	}
	_, err := s.Wait()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStreamedReportsErrors(t *testing.T) {
	fakeModel := testutil.NewFakeProvider()
	a := agent.MustNew("A", "", agent.WithInputGuardrails(guardrail.BannedWords("forbidden")))

	s := RunStreamed(context.Background(), a, item.UserText("a forbidden topic"), RunConfig{ModelProvider: fakeModel})

	var got []string
	for ev := range s.Events() {
		got = append(got, describe(ev))
	}
	_, err := s.Wait()

	assert.ErrorIs(t, err, agenterr.ErrInputGuardrailTripwire)
	assert.Equal(t, []string{"agent:A"}, got)
	assert.Equal(t, 0, fakeModel.Calls())
}
