// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package agent

import (
	"context"

	"github.com/ryichk/agentloop/tool"
)

// FunctionToolResult is the output of one tool call of a turn.
type FunctionToolResult struct {
	Tool   tool.Tool
	CallID string
	Output string
}

// FinalOutputDecision tells the runner whether tool results end the run.
type FinalOutputDecision struct {
	IsFinalOutput bool
	FinalOutput   string
}

// ToolUseBehavior decides, after the tools of a turn ran, whether their
// results are the final output or go back to the model. Results are in call
// order.
type ToolUseBehavior interface {
	Decide(ctx context.Context, a *Agent, results []FunctionToolResult) (FinalOutputDecision, error)
}

// ToolsToFinalOutputFunc is a custom ToolUseBehavior.
type ToolsToFinalOutputFunc func(ctx context.Context, a *Agent, results []FunctionToolResult) (FinalOutputDecision, error)

func (f ToolsToFinalOutputFunc) Decide(ctx context.Context, a *Agent, results []FunctionToolResult) (FinalOutputDecision, error) {
	return f(ctx, a, results)
}

type runLLMAgain struct{}

func (runLLMAgain) Decide(context.Context, *Agent, []FunctionToolResult) (FinalOutputDecision, error) {
	return FinalOutputDecision{}, nil
}

// RunLLMAgain sends tool results back to the model. It is the default.
func RunLLMAgain() ToolUseBehavior {
	return runLLMAgain{}
}

type stopOnFirstTool struct{}

func (stopOnFirstTool) Decide(_ context.Context, _ *Agent, results []FunctionToolResult) (FinalOutputDecision, error) {
	if len(results) == 0 {
		return FinalOutputDecision{}, nil
	}
	return FinalOutputDecision{IsFinalOutput: true, FinalOutput: results[0].Output}, nil
}

// StopOnFirstTool makes the output of the first tool call the final output.
func StopOnFirstTool() ToolUseBehavior {
	return stopOnFirstTool{}
}

type stopAtTools map[string]bool

func (s stopAtTools) Decide(_ context.Context, _ *Agent, results []FunctionToolResult) (FinalOutputDecision, error) {
	for _, r := range results {
		if s[r.Tool.Name()] {
			return FinalOutputDecision{IsFinalOutput: true, FinalOutput: r.Output}, nil
		}
	}
	return FinalOutputDecision{}, nil
}

// StopAtTools ends the run with the output of the first call to one of the
// named tools.
func StopAtTools(names ...string) ToolUseBehavior {
	s := make(stopAtTools, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}
