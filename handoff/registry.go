// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package handoff

import (
	"sync"

	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/internal/schema"
)

// Registry maps agent names to agents so handoffs created with To can be
// resolved when they are taken.
type Registry struct {
	mutex  sync.RWMutex
	agents map[string]interfaces.Agent
}

// NewRegistry creates a registry holding agents.
func NewRegistry(agents ...interfaces.Agent) (*Registry, error) {
	r := &Registry{agents: make(map[string]interfaces.Agent, len(agents))}
	if err := r.Register(agents...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds agents. Registering two agents under one name is a UserError.
func (r *Registry) Register(agents ...interfaces.Agent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, a := range agents {
		if schema.IsNil(a) {
			return agenterr.NewUserError("cannot register a nil agent")
		}
		if existing, ok := r.agents[a.GetName()]; ok && existing != a {
			return agenterr.NewUserError("agent %q is already registered", a.GetName())
		}
		r.agents[a.GetName()] = a
	}
	return nil
}

// Resolve returns the agent registered under name.
func (r *Registry) Resolve(name string) (interfaces.Agent, bool) {
	if r == nil {
		return nil, false
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}
