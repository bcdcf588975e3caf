// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tool

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/runcontext"
)

// Call is one tool invocation requested by the model.
type Call struct {
	ID        string
	Name      string
	Arguments string
}

// Outcome is the result of one Call.
type Outcome struct {
	Call   Call
	Tool   Tool
	Output string
}

// InvokeFunc runs a single resolved call.
type InvokeFunc func(ctx context.Context) (string, error)

// Invoker runs the tool calls of one model turn.
type Invoker struct {
	// Wrap, when set, surrounds every call. It is where callers put spans and
	// lifecycle hooks; it must call invoke at most once.
	Wrap func(ctx context.Context, t Tool, c Call, invoke InvokeFunc) (string, error)
}

// InvokeAll resolves every call against set, runs them concurrently and
// returns their outcomes in the order of calls.
//
// An unknown tool name fails with a ModelBehaviorError before anything runs.
// A failing call that its tool does not handle cancels the others and fails
// with a ModelBehaviorError (invalid arguments) or a ToolExecutionError.
func (inv *Invoker) InvokeAll(ctx context.Context, set *Set, calls []Call) ([]Outcome, error) {
	outcomes := make([]Outcome, len(calls))
	for i, c := range calls {
		t, ok := set.Lookup(c.Name)
		if !ok {
			return nil, agenterr.NewModelBehaviorError(nil, "tool %q not found", c.Name)
		}
		outcomes[i] = Outcome{Call: c, Tool: t}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range outcomes {
		g.Go(func() error {
			out, err := inv.invoke(gctx, outcomes[i].Tool, outcomes[i].Call)
			if err != nil {
				return err
			}
			outcomes[i].Output = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (inv *Invoker) invoke(ctx context.Context, t Tool, c Call) (string, error) {
	ctx = runcontext.WithToolCallID(ctx, c.ID)
	run := func(ctx context.Context) (string, error) {
		return execute(ctx, t, c)
	}
	if inv != nil && inv.Wrap != nil {
		return inv.Wrap(ctx, t, c, run)
	}
	return run(ctx)
}

// execute calls the tool body and classifies its failure.
func execute(ctx context.Context, t Tool, c Call) (string, error) {
	out, err := safeInvoke(ctx, t, c.Arguments)
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return "", err
	}
	if h, ok := t.(FailureHandler); ok {
		if msg, handled := h.HandleFailure(ctx, err); handled {
			return msg, nil
		}
	}
	if errors.Is(err, ErrInvalidArguments) {
		return "", agenterr.NewModelBehaviorError(err, "invalid arguments for tool %q", t.Name())
	}
	return "", &agenterr.ToolExecutionError{Tool: t.Name(), CallID: c.ID, Err: err}
}

func safeInvoke(ctx context.Context, t Tool, args string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Invoke(ctx, args)
}
