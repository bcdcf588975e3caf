// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package session stores conversation history across runs. A run configured
// with a Session starts from the stored items and appends its input and new
// items once it succeeds.
package session

import (
	"context"

	"github.com/ryichk/agentloop/item"
)

// Session is the conversation memory of one conversation.
type Session interface {
	// GetItems returns the stored items in order. A positive limit returns
	// only the last limit items.
	GetItems(ctx context.Context, limit int) ([]item.Item, error)

	// AddItems appends items.
	AddItems(ctx context.Context, items ...item.Item) error

	// PopItem removes and returns the last item, or nil when the session is
	// empty.
	PopItem(ctx context.Context) (item.Item, error)

	// Clear removes every item.
	Clear(ctx context.Context) error
}
