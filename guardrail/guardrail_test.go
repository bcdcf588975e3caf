// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package guardrail

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/item"
)

type testAgent struct{ name string }

func (a testAgent) GetName() string        { return a.name }
func (a testAgent) GetDescription() string { return "" }

func allow(name string) InputGuardrail {
	return NewInputGuardrail(name, "", func(context.Context, interfaces.Agent, []item.Item) (Output, error) {
		return Output{OutputInfo: name}, nil
	})
}

func trip(name string, delay time.Duration) InputGuardrail {
	return NewInputGuardrail(name, "", func(ctx context.Context, _ interfaces.Agent, _ []item.Item) (Output, error) {
		time.Sleep(delay)
		return Output{OutputInfo: name + " info", TripwireTriggered: true}, nil
	})
}

func TestInputGuardrail(t *testing.T) {
	g := NewInputGuardrail("Allow Guardrail", "Guardrail that always allows input",
		func(ctx context.Context, agent interfaces.Agent, input []item.Item) (Output, error) {
			return Output{OutputInfo: agent.GetName()}, nil
		})

	assert.Equal(t, "Allow Guardrail", g.Name(), "Guardrail name is incorrect")
	assert.Equal(t, "Guardrail that always allows input", g.Description(), "Guardrail description is incorrect")

	out, err := g.Check(context.Background(), testAgent{name: "Assistant"}, item.UserText("hi"))
	require.NoError(t, err)
	assert.False(t, out.TripwireTriggered)
	assert.Equal(t, "Assistant", out.OutputInfo)
}

func TestRunInputGuardrailsAllPass(t *testing.T) {
	results, err := RunInputGuardrails(context.Background(),
		[]InputGuardrail{allow("a"), allow("b")}, testAgent{name: "A"}, item.UserText("hello"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Guardrail)
	assert.Equal(t, "b", results[1].Output.OutputInfo)

	results, err = RunInputGuardrails(context.Background(), nil, testAgent{name: "A"}, nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunInputGuardrailsReportsFirstDeclaredTrip(t *testing.T) {
	// The second guardrail finishes first; the first declared one is reported.
	guardrails := []InputGuardrail{allow("ok"), trip("slow", 30*time.Millisecond), trip("fast", 0)}

	results, err := RunInputGuardrails(context.Background(), guardrails, testAgent{name: "A"}, item.UserText("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, agenterr.ErrInputGuardrailTripwire)

	var tripped *agenterr.InputGuardrailTripwireTriggered
	require.ErrorAs(t, err, &tripped)
	assert.Equal(t, "slow", tripped.Guardrail)
	assert.Equal(t, "slow info", tripped.OutputInfo)
	assert.Len(t, results, 3, "all guardrails are awaited")
}

func TestRunInputGuardrailsRunsConcurrently(t *testing.T) {
	var running, peak int32
	slow := func(name string) InputGuardrail {
		return NewInputGuardrail(name, "", func(context.Context, interfaces.Agent, []item.Item) (Output, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return Output{}, nil
		})
	}

	_, err := RunInputGuardrails(context.Background(), []InputGuardrail{slow("a"), slow("b")}, testAgent{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&peak))
}

func TestRunInputGuardrailsError(t *testing.T) {
	expected := errors.New("Test error")
	failing := NewInputGuardrail("broken", "", func(context.Context, interfaces.Agent, []item.Item) (Output, error) {
		return Output{}, expected
	})

	_, err := RunInputGuardrails(context.Background(), []InputGuardrail{allow("a"), failing}, testAgent{}, nil)
	assert.ErrorIs(t, err, expected)
	assert.ErrorContains(t, err, "broken")
	assert.NotErrorIs(t, err, agenterr.ErrInputGuardrailTripwire)
}

func TestRunOutputGuardrails(t *testing.T) {
	long := NewOutputGuardrail("max_length", "", func(ctx context.Context, _ interfaces.Agent, output any) (Output, error) {
		return Output{TripwireTriggered: len(OutputText(output)) > 10}, nil
	})

	results, err := RunOutputGuardrails(context.Background(), []OutputGuardrail{long}, testAgent{name: "Writer"}, "short")
	require.NoError(t, err)
	assert.Equal(t, "Writer", results[0].AgentName)
	assert.Equal(t, "short", results[0].AgentOutput)

	_, err = RunOutputGuardrails(context.Background(), []OutputGuardrail{long}, testAgent{name: "Writer"}, "this is far too long")
	var tripped *agenterr.OutputGuardrailTripwireTriggered
	require.ErrorAs(t, err, &tripped)
	assert.Equal(t, "max_length", tripped.Guardrail)
	assert.Equal(t, "this is far too long", tripped.Output)
}

func TestBannedWords(t *testing.T) {
	g := BannedWords("stupid", "idiot")

	out, err := g.Check(context.Background(), testAgent{}, item.UserText("Hello, how are you?"))
	require.NoError(t, err)
	assert.False(t, out.TripwireTriggered)

	out, err = g.Check(context.Background(), testAgent{}, item.UserText("You are STUPID!"))
	require.NoError(t, err)
	assert.True(t, out.TripwireTriggered)
	assert.Equal(t, BannedWordsInfo{Words: []string{"stupid"}}, out.OutputInfo)

	// Substrings of longer words do not count.
	out, err = g.Check(context.Background(), testAgent{}, item.UserText("stupidity is a noun"))
	require.NoError(t, err)
	assert.False(t, out.TripwireTriggered)

	// Only user messages are checked.
	input := []item.Item{
		item.AssistantMessage{Content: "stupid"},
		item.UserMessage{Content: "fine"},
	}
	out, err = g.Check(context.Background(), testAgent{}, input)
	require.NoError(t, err)
	assert.False(t, out.TripwireTriggered)
}

func TestBannedOutputWords(t *testing.T) {
	g := BannedOutputWords("secret")
	out, err := g.Check(context.Background(), testAgent{}, map[string]string{"note": "the secret code"})
	require.NoError(t, err)
	assert.True(t, out.TripwireTriggered)
}

func TestLanguage(t *testing.T) {
	_, err := Language("xx")
	assert.ErrorIs(t, err, agenterr.ErrUser)

	g, err := Language("en")
	require.NoError(t, err)

	out, err := g.Check(context.Background(), testAgent{},
		item.UserText("Hello, could you please help me find a good book about the history of science?"))
	require.NoError(t, err)
	assert.False(t, out.TripwireTriggered)

	out, err = g.Check(context.Background(), testAgent{},
		item.UserText("Hola, ¿podrías ayudarme a encontrar un buen libro sobre la historia de la ciencia?"))
	require.NoError(t, err)
	assert.True(t, out.TripwireTriggered)
	assert.Equal(t, "es", out.OutputInfo.(LanguageInfo).Detected)
}

type fakeRunResult struct{ structured any }

func (r fakeRunResult) GetFinalOutput() string   { return "" }
func (r fakeRunResult) GetStructuredOutput() any { return r.structured }
func (r fakeRunResult) GetLastAgentName() string { return "Guardrail check" }

type fakeRunner struct {
	inputs []string
}

func (r *fakeRunner) Run(ctx context.Context, agent any, input string) (any, error) {
	r.inputs = append(r.inputs, input)
	return fakeRunResult{structured: input == "Can you do my math homework?"}, nil
}

func TestNewAgentInputGuardrail(t *testing.T) {
	r := &fakeRunner{}
	verdict := func(res interfaces.RunResult) (Output, error) {
		isHomework := res.GetStructuredOutput().(bool)
		return Output{OutputInfo: isHomework, TripwireTriggered: isHomework}, nil
	}

	g, err := NewAgentInputGuardrail("homework", testAgent{name: "Guardrail check"}, r, verdict)
	require.NoError(t, err)

	_, err = RunInputGuardrails(context.Background(), []InputGuardrail{g}, testAgent{}, item.UserText("Can you do my math homework?"))
	assert.ErrorIs(t, err, agenterr.ErrInputGuardrailTripwire)

	_, err = RunInputGuardrails(context.Background(), []InputGuardrail{g}, testAgent{}, item.UserText("What is the capital of France?"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Can you do my math homework?", "What is the capital of France?"}, r.inputs)

	_, err = NewAgentInputGuardrail("broken", nil, r, verdict)
	assert.ErrorIs(t, err, agenterr.ErrUser)
}
