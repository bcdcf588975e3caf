// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package session

import (
	"context"
	"sync"

	"github.com/ryichk/agentloop/item"
)

// MemorySession keeps the history in process memory.
type MemorySession struct {
	mutex sync.RWMutex
	items []item.Item
}

func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) GetItems(ctx context.Context, limit int) ([]item.Item, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := s.items
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return item.Clone(items), nil
}

func (s *MemorySession) AddItems(ctx context.Context, items ...item.Item) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.items = item.Append(s.items, items...)
	return nil
}

func (s *MemorySession) PopItem(ctx context.Context) (item.Item, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.items) == 0 {
		return nil, nil
	}
	last := s.items[len(s.items)-1]
	s.items = item.Clone(s.items[:len(s.items)-1])
	return last, nil
}

func (s *MemorySession) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.items = nil
	return nil
}
