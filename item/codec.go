// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package item

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalItem encodes a single item as {"type": kind, "data": {...}}.
func MarshalItem(it Item) ([]byte, error) {
	data, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s item: %w", it.Kind(), err)
	}
	return json.Marshal(envelope{Type: it.Kind(), Data: data})
}

// UnmarshalItem decodes an item produced by MarshalItem.
func UnmarshalItem(raw []byte) (Item, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse item envelope: %w", err)
	}

	var (
		it  Item
		err error
	)
	switch env.Type {
	case KindUserMessage:
		var v UserMessage
		err = json.Unmarshal(env.Data, &v)
		it = v
	case KindAssistantMessage:
		var v AssistantMessage
		err = json.Unmarshal(env.Data, &v)
		it = v
	case KindToolCall:
		var v ToolCall
		err = json.Unmarshal(env.Data, &v)
		it = v
	case KindToolResult:
		var v ToolResult
		err = json.Unmarshal(env.Data, &v)
		it = v
	case KindHandoffSignal:
		var v HandoffSignal
		err = json.Unmarshal(env.Data, &v)
		it = v
	case KindReasoning:
		var v Reasoning
		err = json.Unmarshal(env.Data, &v)
		it = v
	default:
		return nil, fmt.Errorf("unknown item type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s item: %w", env.Type, err)
	}
	return it, nil
}

// Marshal encodes a history as a JSON array of item envelopes.
func Marshal(items []Item) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		raw, err := MarshalItem(it)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// Unmarshal decodes a history produced by Marshal.
func Unmarshal(data []byte) ([]Item, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		it, err := UnmarshalItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
