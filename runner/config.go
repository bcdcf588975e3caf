// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package runner

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/ryichk/agentloop/agent"
	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/handoff"
	"github.com/ryichk/agentloop/logging"
	"github.com/ryichk/agentloop/model"
	"github.com/ryichk/agentloop/session"
	"github.com/ryichk/agentloop/stream"
	"github.com/ryichk/agentloop/tracing"
)

// Default value for maximum turns in the agent loop
const DefaultMaxTurns = 10

// DefaultWorkflowName names the workflow span when RunConfig.WorkflowName is empty.
const DefaultWorkflowName = "Agent workflow"

// RunConfig represents agent execution configuration. The zero value is
// usable once ModelProvider is set.
type RunConfig struct {
	// Model is used for agents that do not name their own model
	Model string

	// ModelProvider serves every model call of the run (required)
	ModelProvider model.Provider

	// ModelSettings override the settings of every agent
	ModelSettings model.Settings

	// MaxTurns bounds the number of model calls. Defaults to DefaultMaxTurns.
	MaxTurns int

	// Context is made available to tools, guardrails, hooks and instructions
	// through runcontext.Value.
	Context any

	// Agents resolves handoffs created with handoff.To
	Agents *handoff.Registry

	// HandoffInputFilter applies to handoffs that have no filter of their own
	HandoffInputFilter handoff.InputFilter

	// Hooks receives the lifecycle events of every agent of the run
	Hooks agent.RunHooks

	// Session, when set, supplies the history the run starts from and stores
	// the input and new items of a successful run.
	Session session.Session

	// Tracer records the spans of the run. Nil disables tracing.
	Tracer tracing.Tracer

	// TracingDisabled ignores Tracer
	TracingDisabled bool

	// WorkflowName, GroupID and TraceMetadata are attached to the workflow span
	WorkflowName  string
	GroupID       string
	TraceMetadata map[string]any

	// Logger defaults to logging.NoopLogger
	Logger logging.Logger

	// MeterProvider records run metrics. Defaults to the global provider.
	MeterProvider metric.MeterProvider

	// StreamBufferSize bounds the events buffered by RunStreamed before the
	// run waits for the consumer. Defaults to stream.DefaultBufferSize.
	StreamBufferSize int
}

// DefaultRunConfig returns the default execution configuration
func DefaultRunConfig(provider model.Provider) RunConfig {
	return RunConfig{
		ModelProvider:    provider,
		MaxTurns:         DefaultMaxTurns,
		WorkflowName:     DefaultWorkflowName,
		StreamBufferSize: stream.DefaultBufferSize,
	}
}

// validateInputsAndSetup checks the run arguments and fills in defaults.
func validateInputsAndSetup(a *agent.Agent, config *RunConfig) error {
	if a == nil {
		return agenterr.NewUserError("agent is required")
	}
	if config.ModelProvider == nil {
		return agenterr.NewUserError("model provider is required")
	}
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultMaxTurns
	}
	if config.WorkflowName == "" {
		config.WorkflowName = DefaultWorkflowName
	}
	if config.TracingDisabled {
		config.Tracer = tracing.NoopTracer{}
	}
	config.Tracer = tracing.OrNoop(config.Tracer)
	config.Logger = logging.OrNoop(config.Logger)
	if config.Hooks == nil {
		config.Hooks = agent.BaseRunHooks{}
	}
	return nil
}
