// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tool

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/ryichk/agentloop/agenterr"
)

// ErrInvalidArguments is wrapped by tools whose raw arguments do not match
// their parameter schema.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Tool represents a tool that can be used by agents
type Tool interface {
	Name() string
	Description() string

	// ParamsJSONSchema returns the JSON schema for the tool's parameters
	ParamsJSONSchema() map[string]any

	// Invoke executes the tool with the raw JSON arguments produced by the model
	Invoke(ctx context.Context, paramsJSON string) (string, error)
}

// FailureHandler is implemented by tools that turn their own failures into
// output for the model instead of failing the run. The second return value
// reports whether the failure was handled.
type FailureHandler interface {
	HandleFailure(ctx context.Context, err error) (string, bool)
}

// Set is an immutable collection of tools with unique names.
type Set struct {
	tools  []Tool
	byName map[string]Tool
}

// NewSet builds a Set. Two tools sharing a name is a UserError.
func NewSet(tools ...Tool) (*Set, error) {
	s := &Set{
		tools:  make([]Tool, 0, len(tools)),
		byName: make(map[string]Tool, len(tools)),
	}
	for _, t := range tools {
		if t == nil {
			return nil, agenterr.NewUserError("nil tool")
		}
		if _, dup := s.byName[t.Name()]; dup {
			return nil, agenterr.NewUserError("duplicate tool name %q", t.Name())
		}
		s.byName[t.Name()] = t
		s.tools = append(s.tools, t)
	}
	return s, nil
}

// Lookup returns the tool registered under name.
func (s *Set) Lookup(name string) (Tool, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.byName[name]
	return t, ok
}

// Tools returns the tools in registration order.
func (s *Set) Tools() []Tool {
	if s == nil {
		return nil
	}
	return append([]Tool(nil), s.tools...)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tools)
}

// SnakeCase converts a display name such as "Spanish Agent" into an
// identifier usable as a tool name ("spanish_agent").
func SnakeCase(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case r == '-' || r == '_':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
