// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package guardrail

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/item"
)

// InputResult records the verdict of one input guardrail.
type InputResult struct {
	Guardrail string
	Output    Output
}

// OutputResult records the verdict of one output guardrail along with the
// output it checked.
type OutputResult struct {
	Guardrail   string
	AgentName   string
	AgentOutput any
	Output      Output
}

// RunInputGuardrails runs every guardrail concurrently over input and waits
// for all of them. When any tripped, the one declared first is reported as an
// *agenterr.InputGuardrailTripwireTriggered. A guardrail that fails cancels
// the others and its error is returned.
func RunInputGuardrails(ctx context.Context, guardrails []InputGuardrail, agent interfaces.Agent, input []item.Item) ([]InputResult, error) {
	if len(guardrails) == 0 {
		return nil, nil
	}

	results := make([]InputResult, len(guardrails))
	g, gctx := errgroup.WithContext(ctx)
	for i, gr := range guardrails {
		g.Go(func() error {
			out, err := gr.Check(gctx, agent, input)
			if err != nil {
				return fmt.Errorf("input guardrail %s: %w", gr.Name(), err)
			}
			results[i] = InputResult{Guardrail: gr.Name(), Output: out}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Output.TripwireTriggered {
			return results, &agenterr.InputGuardrailTripwireTriggered{
				Guardrail:  r.Guardrail,
				OutputInfo: r.Output.OutputInfo,
			}
		}
	}
	return results, nil
}

// RunOutputGuardrails is the output counterpart of RunInputGuardrails. A trip
// is reported as an *agenterr.OutputGuardrailTripwireTriggered carrying the
// rejected output.
func RunOutputGuardrails(ctx context.Context, guardrails []OutputGuardrail, agent interfaces.Agent, output any) ([]OutputResult, error) {
	if len(guardrails) == 0 {
		return nil, nil
	}

	results := make([]OutputResult, len(guardrails))
	g, gctx := errgroup.WithContext(ctx)
	for i, gr := range guardrails {
		g.Go(func() error {
			out, err := gr.Check(gctx, agent, output)
			if err != nil {
				return fmt.Errorf("output guardrail %s: %w", gr.Name(), err)
			}
			results[i] = OutputResult{
				Guardrail:   gr.Name(),
				AgentName:   agent.GetName(),
				AgentOutput: output,
				Output:      out,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Output.TripwireTriggered {
			return results, &agenterr.OutputGuardrailTripwireTriggered{
				Guardrail:  r.Guardrail,
				OutputInfo: r.Output.OutputInfo,
				Output:     output,
			}
		}
	}
	return results, nil
}

// OutputText renders a final output as text: strings as is, anything else as
// JSON.
func OutputText(output any) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	return string(data)
}
