// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package handoff

import (
	"context"

	"github.com/ryichk/agentloop/item"
)

// RemoveAllTools drops tool calls, tool results and handoff signals from the
// history so the next agent only sees the messages.
func RemoveAllTools(ctx context.Context, data InputData) (InputData, error) {
	return InputData{
		InputHistory:    withoutTools(data.InputHistory),
		PreHandoffItems: withoutTools(data.PreHandoffItems),
		NewItems:        withoutTools(data.NewItems),
	}, nil
}

func withoutTools(items []item.Item) []item.Item {
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if !item.IsToolRelated(it) {
			out = append(out, it)
		}
	}
	return out
}

// KeepLastItems keeps the last n items of the history that preceded the
// handoff turn. The items of the handoff turn itself are kept.
func KeepLastItems(n int) InputFilter {
	return func(ctx context.Context, data InputData) (InputData, error) {
		history := item.Append(data.InputHistory, data.PreHandoffItems...)
		if keep := max(n, 0); len(history) > keep {
			history = history[len(history)-keep:]
		}
		return InputData{
			InputHistory: item.Clone(history),
			NewItems:     item.Clone(data.NewItems),
		}, nil
	}
}

// Chain applies filters in order.
func Chain(filters ...InputFilter) InputFilter {
	return func(ctx context.Context, data InputData) (InputData, error) {
		var err error
		for _, f := range filters {
			if data, err = f(ctx, data); err != nil {
				return InputData{}, err
			}
		}
		return data, nil
	}
}
