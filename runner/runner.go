// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package runner drives agents: it calls the model, runs the tools it asks
// for, follows handoffs between agents and enforces guardrails until an agent
// produces a final output.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ryichk/agentloop/agent"
	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/guardrail"
	"github.com/ryichk/agentloop/handoff"
	"github.com/ryichk/agentloop/internal/schema"
	"github.com/ryichk/agentloop/item"
	"github.com/ryichk/agentloop/model"
	"github.com/ryichk/agentloop/runcontext"
	"github.com/ryichk/agentloop/stream"
	"github.com/ryichk/agentloop/tool"
	"github.com/ryichk/agentloop/tracing"
)

// MultipleHandoffsOutput is the tool result given to every handoff call of
// a turn after the first one.
const MultipleHandoffsOutput = "Multiple handoffs detected, ignoring this one."

// Run executes the agent on a text input
func Run(ctx context.Context, a *agent.Agent, input string, config RunConfig) (*Result, error) {
	var items []item.Item
	if input != "" {
		items = item.UserText(input)
	}
	return RunItems(ctx, a, items, config)
}

// RunItems executes the agent on a history, typically the continuation
// input of a previous result.
func RunItems(ctx context.Context, a *agent.Agent, input []item.Item, config RunConfig) (*Result, error) {
	return run(ctx, a, input, config, nil)
}

// RunSync is Run without a caller context.
func RunSync(a *agent.Agent, input string, config RunConfig) (*Result, error) {
	return Run(context.Background(), a, input, config)
}

// RunStreamed starts the run in the background and returns immediately.
// The events of the run are read with StreamedResult.Events.
func RunStreamed(ctx context.Context, a *agent.Agent, input []item.Item, config RunConfig) *StreamedResult {
	ctx, cancel := context.WithCancel(ctx)
	s := &StreamedResult{
		bus:    stream.NewBus(config.StreamBufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		result, err := run(ctx, a, input, config, s.bus)
		s.finish(result, err)
	}()
	return s
}

// executionState tracks the state during agent execution. It is owned by
// the goroutine driving the run.
type executionState struct {
	config  RunConfig
	bus     *stream.Bus
	metrics *runMetrics

	currentAgent *agent.Agent
	toolsUsed    map[*agent.Agent]bool

	// input is the history the run started from.
	input []item.Item
	// inputHistory and generated are what the model sees; handoff input
	// filters rewrite them.
	inputHistory []item.Item
	generated    []item.Item
	// newItems records every item the run produced.
	newItems []item.Item

	turn                   int
	usage                  model.Usage
	rawResponses           []model.Response
	inputGuardrailResults  []guardrail.InputResult
	outputGuardrailResults []guardrail.OutputResult
}

// stepResult is the outcome of one turn.
type stepResult struct {
	final       bool
	finalOutput string
	nextAgent   *agent.Agent
}

func run(ctx context.Context, a *agent.Agent, input []item.Item, config RunConfig, bus *stream.Bus) (*Result, error) {
	if err := validateInputsAndSetup(a, &config); err != nil {
		return nil, err
	}

	if config.Context != nil {
		ctx = runcontext.With(ctx, &runcontext.RunContext{Value: config.Context})
	} else if _, ok := runcontext.From(ctx); !ok {
		ctx = runcontext.With(ctx, &runcontext.RunContext{})
	}

	history := item.Clone(input)
	if config.Session != nil {
		stored, err := config.Session.GetItems(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		history = item.Append(stored, input...)
	}

	ctx, span := setupTracing(ctx, a, config)
	defer span.End()

	state := &executionState{
		config:       config,
		bus:          bus,
		metrics:      newRunMetrics(config.MeterProvider),
		currentAgent: a,
		toolsUsed:    make(map[*agent.Agent]bool),
		input:        history,
		inputHistory: history,
	}

	startTime := time.Now()
	result, err := runAgentExecutionLoop(ctx, state)
	if err != nil {
		span.RecordError(err)
		state.metrics.recordRun(ctx, state.currentAgent.Name, runOutcome(err), time.Since(startTime).Seconds())
		config.Logger.Warn(ctx, "run failed", "agent", state.currentAgent.Name, "turns", state.turn, "err", err)
		return nil, err
	}

	if config.Session != nil {
		if err := config.Session.AddItems(ctx, item.Append(input, result.NewItems...)...); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}

	span.SetAttributes(map[string]any{
		tracing.AttrTurn:  state.turn,
		tracing.AttrAgent: result.LastAgent.Name,
	})
	state.metrics.recordRun(ctx, result.LastAgent.Name, "completed", time.Since(startTime).Seconds())
	config.Logger.Info(ctx, "run completed", "agent", result.LastAgent.Name, "turns", state.turn, "total_tokens", state.usage.TotalTokens)
	return result, nil
}

// setupTracing opens the workflow span of the run
func setupTracing(ctx context.Context, a *agent.Agent, config RunConfig) (context.Context, tracing.Span) {
	attrs := map[string]any{
		tracing.AttrWorkflowName: config.WorkflowName,
		tracing.AttrAgent:        a.Name,
	}
	if config.GroupID != "" {
		attrs[tracing.AttrGroupID] = config.GroupID
	}
	if len(config.TraceMetadata) > 0 {
		attrs[tracing.AttrMetadata] = config.TraceMetadata
	}
	span, ctx := config.Tracer.StartSpan(ctx, config.WorkflowName, tracing.SpanKindWorkflow, attrs)
	return ctx, span
}

func runOutcome(err error) string {
	switch {
	case errors.Is(err, agenterr.ErrInputGuardrailTripwire):
		return "input_guardrail_tripwire"
	case errors.Is(err, agenterr.ErrOutputGuardrailTripwire):
		return "output_guardrail_tripwire"
	case errors.Is(err, agenterr.ErrMaxTurnsExceeded):
		return "max_turns_exceeded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// runAgentExecutionLoop runs one agent span per active agent until an agent
// produces the final output.
func runAgentExecutionLoop(ctx context.Context, state *executionState) (*Result, error) {
	for {
		a := state.currentAgent
		span, agentCtx := state.config.Tracer.StartSpan(ctx, a.Name, tracing.SpanKindAgent, agentSpanAttributes(a))

		result, err := runAgentTurns(agentCtx, state)
		if err != nil {
			span.RecordError(err)
		}
		span.End()

		if err != nil || result != nil {
			return result, err
		}
	}
}

func agentSpanAttributes(a *agent.Agent) map[string]any {
	tools := make([]string, 0, len(a.Tools))
	for _, t := range a.Tools {
		tools = append(tools, t.Name())
	}
	handoffs := make([]string, 0, len(a.Handoffs))
	for _, h := range a.Handoffs {
		handoffs = append(handoffs, h.TargetName())
	}
	attrs := map[string]any{
		tracing.AttrAgent:    a.Name,
		tracing.AttrTools:    tools,
		tracing.AttrHandoffs: handoffs,
	}
	if a.OutputType != nil {
		attrs[tracing.AttrOutputType] = a.OutputType.String()
	}
	return attrs
}

// runAgentTurns activates the current agent and runs turns until it hands
// off, returning a nil result, or produces the final output.
func runAgentTurns(ctx context.Context, state *executionState) (*Result, error) {
	if err := activateAgent(ctx, state); err != nil {
		return nil, err
	}

	for {
		if state.turn >= state.config.MaxTurns {
			return nil, &agenterr.MaxTurnsExceeded{MaxTurns: state.config.MaxTurns}
		}
		state.turn++

		step, err := runSingleTurn(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", state.turn, err)
		}
		switch {
		case step.nextAgent != nil:
			state.currentAgent = step.nextAgent
			return nil, nil
		case step.final:
			return finishRun(ctx, state, step.finalOutput)
		}
	}
}

// activateAgent announces the agent, runs its input guardrails and its start
// hooks. Nothing reaches the model before the guardrails pass.
func activateAgent(ctx context.Context, state *executionState) error {
	a := state.currentAgent
	if err := state.emit(ctx, stream.AgentUpdated{Agent: a}); err != nil {
		return err
	}
	if err := applyInputGuardrails(ctx, state); err != nil {
		return err
	}
	if err := state.config.Hooks.OnAgentStart(ctx, a); err != nil {
		return fmt.Errorf("error in OnAgentStart hook: %w", err)
	}
	if err := hooksOf(a).OnStart(ctx, a); err != nil {
		return fmt.Errorf("error in OnStart hook: %w", err)
	}
	return nil
}

// applyInputGuardrails runs the input guardrails of the current agent over
// the history it is about to see.
func applyInputGuardrails(ctx context.Context, state *executionState) error {
	a := state.currentAgent
	if len(a.InputGuardrails) == 0 {
		return nil
	}

	span, guardrailsCtx := state.config.Tracer.StartSpan(ctx, "input_guardrails", tracing.SpanKindGuardrail, map[string]any{
		tracing.AttrAgent: a.Name,
	})
	defer span.End()

	results, err := guardrail.RunInputGuardrails(guardrailsCtx, a.InputGuardrails, a, state.history())
	state.inputGuardrailResults = append(state.inputGuardrailResults, results...)

	var trip *agenterr.InputGuardrailTripwireTriggered
	if errors.As(err, &trip) {
		span.SetAttribute(tracing.AttrTriggered, true)
		state.metrics.recordGuardrailTrip(ctx, "input", trip.Guardrail)
		state.config.Logger.Info(ctx, "input guardrail tripped", "agent", a.Name, "guardrail", trip.Guardrail)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttribute(tracing.AttrTriggered, false)
	return nil
}

// applyOutputGuardrails runs the output guardrails of the current agent over
// its final output.
func applyOutputGuardrails(ctx context.Context, state *executionState, output any) error {
	a := state.currentAgent
	if len(a.OutputGuardrails) == 0 {
		return nil
	}

	span, guardrailsCtx := state.config.Tracer.StartSpan(ctx, "output_guardrails", tracing.SpanKindGuardrail, map[string]any{
		tracing.AttrAgent: a.Name,
	})
	defer span.End()

	results, err := guardrail.RunOutputGuardrails(guardrailsCtx, a.OutputGuardrails, a, output)
	state.outputGuardrailResults = append(state.outputGuardrailResults, results...)

	var trip *agenterr.OutputGuardrailTripwireTriggered
	if errors.As(err, &trip) {
		span.SetAttribute(tracing.AttrTriggered, true)
		state.metrics.recordGuardrailTrip(ctx, "output", trip.Guardrail)
		state.config.Logger.Info(ctx, "output guardrail tripped", "agent", a.Name, "guardrail", trip.Guardrail)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttribute(tracing.AttrTriggered, false)
	return nil
}

// runSingleTurn makes one model call and acts on its output.
func runSingleTurn(ctx context.Context, state *executionState) (*stepResult, error) {
	a := state.currentAgent

	instructions, err := a.GetSystemPrompt(ctx)
	if err != nil {
		return nil, err
	}
	tools, err := a.ToolSet()
	if err != nil {
		return nil, err
	}

	state.config.Logger.Debug(ctx, "turn started", "agent", a.Name, "turn", state.turn)
	resp, err := callModel(ctx, state, buildRequest(state, a, instructions))
	if err != nil {
		return nil, err
	}
	output := stampAgent(resp.Output, a.Name)

	var calls []tool.Call
	var handoffCalls []item.ToolCall
	for _, it := range output {
		call, ok := it.(item.ToolCall)
		if !ok {
			continue
		}
		if _, isHandoff := a.HandoffFor(call.Name); isHandoff {
			handoffCalls = append(handoffCalls, call)
			continue
		}
		if _, found := tools.Lookup(call.Name); !found {
			return nil, agenterr.NewModelBehaviorError(nil, "tool %q not found in agent %s", call.Name, a.Name)
		}
		calls = append(calls, tool.Call{ID: call.ID, Name: call.Name, Arguments: call.Arguments})
	}

	turnStart := len(state.generated)
	for _, it := range output {
		ev := stream.ItemEvent(it)
		if call, ok := it.(item.ToolCall); ok {
			if _, isHandoff := a.HandoffFor(call.Name); isHandoff {
				ev.Name = stream.HandoffRequested
			}
		}
		if err := state.record(ctx, ev); err != nil {
			return nil, err
		}
	}

	var results []agent.FunctionToolResult
	if len(calls) > 0 {
		outcomes, err := invokeTools(ctx, state, tools, calls)
		if err != nil {
			return nil, err
		}
		state.toolsUsed[a] = true
		results = make([]agent.FunctionToolResult, 0, len(outcomes))
		for _, o := range outcomes {
			res := item.ToolResult{CallID: o.Call.ID, Name: o.Call.Name, Output: o.Output, Agent: a.Name}
			if err := state.record(ctx, stream.ItemEvent(res)); err != nil {
				return nil, err
			}
			results = append(results, agent.FunctionToolResult{Tool: o.Tool, CallID: o.Call.ID, Output: o.Output})
		}
	}

	if len(handoffCalls) > 0 {
		for _, extra := range handoffCalls[1:] {
			res := item.ToolResult{CallID: extra.ID, Name: extra.Name, Output: MultipleHandoffsOutput, Agent: a.Name}
			if err := state.record(ctx, stream.ItemEvent(res)); err != nil {
				return nil, err
			}
		}
		next, err := handleAgentHandoff(ctx, state, handoffCalls[0], turnStart)
		if err != nil {
			return nil, err
		}
		return &stepResult{nextAgent: next}, nil
	}

	if len(calls) > 0 {
		behavior := a.ToolUseBehavior
		if behavior == nil {
			behavior = agent.RunLLMAgain()
		}
		decision, err := behavior.Decide(ctx, a, results)
		if err != nil {
			return nil, fmt.Errorf("tool use behavior of %s: %w", a.Name, err)
		}
		if decision.IsFinalOutput {
			return &stepResult{final: true, finalOutput: decision.FinalOutput}, nil
		}
		return &stepResult{}, nil
	}

	return &stepResult{final: true, finalOutput: item.TextOutput(output)}, nil
}

// buildRequest assembles the model request for the current agent
func buildRequest(state *executionState, a *agent.Agent, instructions string) *model.Request {
	settings := model.DefaultSettings().Resolve(a.ModelSettings).Resolve(state.config.ModelSettings)
	if a.ResetToolChoice && state.toolsUsed[a] && isForcedToolChoice(settings.ToolChoice) {
		settings.ToolChoice = model.ToolChoiceAuto
	}

	modelName := state.config.Model
	if a.Model != "" {
		modelName = a.Model
	}

	req := &model.Request{
		Model:        modelName,
		Instructions: instructions,
		Input:        state.history(),
		Settings:     settings,
	}
	for _, t := range a.Tools {
		req.Tools = append(req.Tools, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.ParamsJSONSchema(),
		})
	}
	for _, h := range a.Handoffs {
		req.Handoffs = append(req.Handoffs, model.ToolDefinition{
			Name:        h.ToolName(),
			Description: h.ToolDescription(),
			Parameters:  h.InputJSONSchema(),
		})
	}
	if a.OutputType != nil {
		req.OutputSchema = &model.OutputSchema{
			Name:   "final_output",
			Schema: schema.FromType(a.OutputType),
		}
	}
	return req
}

func isForcedToolChoice(choice string) bool {
	switch choice {
	case "", model.ToolChoiceAuto, model.ToolChoiceNone:
		return false
	}
	return true
}

// callModel makes the model call of a turn. Streamed runs forward text deltas
// as they arrive.
func callModel(ctx context.Context, state *executionState, req *model.Request) (*model.Response, error) {
	a := state.currentAgent
	span, genCtx := state.config.Tracer.StartSpan(ctx, "generation", tracing.SpanKindGeneration, map[string]any{
		tracing.AttrModel: req.Model,
		tracing.AttrAgent: a.Name,
		tracing.AttrTurn:  state.turn,
	})
	defer span.End()

	var resp *model.Response
	var err error
	if state.bus == nil {
		resp, err = state.config.ModelProvider.GetResponse(genCtx, req)
	} else {
		var s model.Stream
		if s, err = state.config.ModelProvider.StreamResponse(genCtx, req); err == nil {
			resp, err = model.Collect(s, func(delta string) error {
				return state.bus.Publish(genCtx, stream.RawResponse{Delta: delta})
			})
		}
	}
	if err != nil {
		span.RecordError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, agenterr.ErrModelBehavior) {
			return nil, err
		}
		return nil, agenterr.NewModelBehaviorError(err, "model call failed for agent %s", a.Name)
	}
	if resp == nil {
		return nil, agenterr.NewModelBehaviorError(nil, "model returned no response for agent %s", a.Name)
	}

	state.usage.Add(resp.Usage)
	state.rawResponses = append(state.rawResponses, *resp)
	state.metrics.recordTurn(ctx, a.Name, resp.Usage.TotalTokens)
	span.SetAttribute(tracing.AttrUsage, map[string]int{
		"requests":          resp.Usage.Requests,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	})
	return resp, nil
}

// invokeTools runs the function calls of a turn concurrently, each in its
// own function span between the tool hooks.
func invokeTools(ctx context.Context, state *executionState, tools *tool.Set, calls []tool.Call) ([]tool.Outcome, error) {
	a := state.currentAgent
	invoker := &tool.Invoker{
		Wrap: func(ctx context.Context, t tool.Tool, c tool.Call, invoke tool.InvokeFunc) (string, error) {
			span, toolCtx := state.config.Tracer.StartSpan(ctx, t.Name(), tracing.SpanKindFunction, map[string]any{
				tracing.AttrToolName:  t.Name(),
				tracing.AttrArguments: c.Arguments,
			})
			defer span.End()

			if err := state.config.Hooks.OnToolStart(toolCtx, a, t); err != nil {
				return "", fmt.Errorf("error in OnToolStart hook: %w", err)
			}
			if err := hooksOf(a).OnToolStart(toolCtx, a, t); err != nil {
				return "", fmt.Errorf("error in OnToolStart hook: %w", err)
			}

			state.config.Logger.Debug(toolCtx, "invoking tool", "agent", a.Name, "tool", t.Name(), "call_id", c.ID)
			out, err := invoke(toolCtx)
			state.metrics.recordToolCall(ctx, t.Name(), err != nil)
			if err != nil {
				span.RecordError(err)
				return "", err
			}
			span.SetAttribute(tracing.AttrResult, out)

			if err := state.config.Hooks.OnToolEnd(toolCtx, a, t, out); err != nil {
				return "", fmt.Errorf("error in OnToolEnd hook: %w", err)
			}
			if err := hooksOf(a).OnToolEnd(toolCtx, a, t, out); err != nil {
				return "", fmt.Errorf("error in OnToolEnd hook: %w", err)
			}
			return out, nil
		},
	}
	return invoker.InvokeAll(ctx, tools, calls)
}

// handleAgentHandoff processes a handoff to another agent. turnStart is the
// index in state.generated of the first item of the handoff turn.
func handleAgentHandoff(ctx context.Context, state *executionState, call item.ToolCall, turnStart int) (*agent.Agent, error) {
	from := state.currentAgent
	h, _ := from.HandoffFor(call.Name)

	target, err := h.Target(state.config.Agents)
	if err != nil {
		return nil, err
	}
	next, ok := target.(*agent.Agent)
	if !ok {
		return nil, agenterr.NewUserError("handoff target %q is a %T, not an *agent.Agent", h.TargetName(), target)
	}

	span, handoffCtx := state.config.Tracer.StartSpan(ctx, "handoff", tracing.SpanKindHandoff, map[string]any{
		tracing.AttrFromAgent: from.Name,
		tracing.AttrToAgent:   next.Name,
	})
	defer span.End()

	if _, err := h.Invoke(handoffCtx, call.Arguments); err != nil {
		span.RecordError(err)
		return nil, err
	}

	signal := item.HandoffSignal{CallID: call.ID, From: from.Name, To: next.Name}
	if args := strings.TrimSpace(call.Arguments); args != "" && args != "{}" {
		signal.Input = args
	}
	if err := state.record(handoffCtx, stream.ItemEvent(signal)); err != nil {
		return nil, err
	}

	filter := h.InputFilter()
	if filter == nil {
		filter = state.config.HandoffInputFilter
	}
	if filter != nil {
		filtered, err := filter(handoffCtx, handoff.InputData{
			InputHistory:    item.Clone(state.inputHistory),
			PreHandoffItems: item.Clone(state.generated[:turnStart]),
			NewItems:        item.Clone(state.generated[turnStart:]),
		})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("handoff input filter of %s: %w", h.ToolName(), err)
		}
		state.inputHistory = item.Clone(filtered.InputHistory)
		state.generated = item.Append(filtered.PreHandoffItems, filtered.NewItems...)
	}

	if err := state.config.Hooks.OnHandoff(handoffCtx, from, next); err != nil {
		return nil, fmt.Errorf("error in OnHandoff hook: %w", err)
	}
	if err := hooksOf(next).OnHandoff(handoffCtx, next, from); err != nil {
		return nil, fmt.Errorf("error in OnHandoff hook: %w", err)
	}

	state.metrics.recordHandoff(ctx, from.Name, next.Name)
	state.config.Logger.Info(ctx, "handoff", "from", from.Name, "to", next.Name)
	return next, nil
}

// finishRun validates the final output, runs the output guardrails and the
// end hooks, and builds the result.
func finishRun(ctx context.Context, state *executionState, finalOutput string) (*Result, error) {
	a := state.currentAgent

	var structured any
	var output any = finalOutput
	if a.OutputType != nil {
		v, err := decodeStructuredOutput(a.OutputType, finalOutput)
		if err != nil {
			return nil, err
		}
		structured, output = v, v
	}

	if err := applyOutputGuardrails(ctx, state, output); err != nil {
		return nil, err
	}

	if err := state.config.Hooks.OnAgentEnd(ctx, a, output); err != nil {
		return nil, fmt.Errorf("error in OnAgentEnd hook: %w", err)
	}
	if err := hooksOf(a).OnEnd(ctx, a, output); err != nil {
		return nil, fmt.Errorf("error in OnEnd hook: %w", err)
	}

	return &Result{
		Input:                  item.Clone(state.input),
		NewItems:               item.Clone(state.newItems),
		FinalOutput:            finalOutput,
		StructuredOutput:       structured,
		LastAgent:              a,
		InputGuardrailResults:  state.inputGuardrailResults,
		OutputGuardrailResults: state.outputGuardrailResults,
		Usage:                  state.usage,
		Turns:                  state.turn,
		RawResponses:           state.rawResponses,
	}, nil
}

var outputValidators sync.Map // reflect.Type -> *schema.Validator

// decodeStructuredOutput checks text against the schema of t and decodes it
// into a new t.
func decodeStructuredOutput(t reflect.Type, text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, agenterr.NewModelBehaviorError(nil, "empty final output, expected %s", t)
	}

	v, ok := outputValidators.Load(t)
	if !ok {
		compiled, err := schema.Compile(schema.FromType(t))
		if err != nil {
			return nil, fmt.Errorf("compile output schema for %s: %w", t, err)
		}
		v, _ = outputValidators.LoadOrStore(t, compiled)
	}
	if err := v.(*schema.Validator).ValidateJSON(text); err != nil {
		return nil, agenterr.NewModelBehaviorError(err, "final output does not match %s", t)
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal([]byte(text), ptr.Interface()); err != nil {
		return nil, agenterr.NewModelBehaviorError(err, "final output does not match %s", t)
	}
	return ptr.Elem().Interface(), nil
}

// history returns what the model sees on the next call.
func (s *executionState) history() []item.Item {
	return item.Append(s.inputHistory, s.generated...)
}

// record appends the item of ev to the history and publishes ev.
func (s *executionState) record(ctx context.Context, ev stream.RunItem) error {
	s.generated = append(s.generated, ev.Item)
	s.newItems = append(s.newItems, ev.Item)
	return s.emit(ctx, ev)
}

func (s *executionState) emit(ctx context.Context, ev stream.Event) error {
	if s.bus == nil {
		return nil
	}
	return s.bus.Publish(ctx, ev)
}

// stampAgent returns output with the producing agent recorded on each item.
func stampAgent(output []item.Item, agentName string) []item.Item {
	stamped := make([]item.Item, 0, len(output))
	for _, it := range output {
		switch v := it.(type) {
		case item.AssistantMessage:
			v.Agent = agentName
			it = v
		case item.ToolCall:
			v.Agent = agentName
			it = v
		case item.Reasoning:
			v.Agent = agentName
			it = v
		}
		stamped = append(stamped, it)
	}
	return stamped
}

func hooksOf(a *agent.Agent) agent.Hooks {
	if a.Hooks == nil {
		return &agent.BaseAgentHooks{}
	}
	return a.Hooks
}
