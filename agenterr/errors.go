// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package agenterr defines the errors a run can fail with.
//
// Every error type matches its sentinel through errors.Is, so callers can
// branch on the kind of failure without caring about the payload:
//
//	if errors.Is(err, agenterr.ErrInputGuardrailTripwire) {
//		fmt.Println("Sorry, I can't help with that.")
//	}
//
// and use errors.As when they need the payload.
package agenterr

import (
	"errors"
	"fmt"
)

var (
	ErrModelBehavior           = errors.New("model behavior error")
	ErrMaxTurnsExceeded        = errors.New("maximum turns exceeded")
	ErrInputGuardrailTripwire  = errors.New("input guardrail tripwire triggered")
	ErrOutputGuardrailTripwire = errors.New("output guardrail tripwire triggered")
	ErrToolExecution           = errors.New("tool execution error")
	ErrUser                    = errors.New("user error")
)

// ModelBehaviorError is returned when the model produced output the run loop
// cannot interpret: unknown tool names, malformed tool arguments, or a final
// output that does not match the agent's output type.
type ModelBehaviorError struct {
	Message string
	Err     error
}

func NewModelBehaviorError(err error, format string, args ...any) *ModelBehaviorError {
	return &ModelBehaviorError{Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *ModelBehaviorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrModelBehavior, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrModelBehavior, e.Message)
}

func (e *ModelBehaviorError) Unwrap() error { return e.Err }

func (e *ModelBehaviorError) Is(target error) bool { return target == ErrModelBehavior }

// MaxTurnsExceeded is returned when a run used up its turn budget without
// producing a final output.
type MaxTurnsExceeded struct {
	MaxTurns int
}

func (e *MaxTurnsExceeded) Error() string {
	return fmt.Sprintf("%s (%d)", ErrMaxTurnsExceeded, e.MaxTurns)
}

func (e *MaxTurnsExceeded) Is(target error) bool { return target == ErrMaxTurnsExceeded }

// InputGuardrailTripwireTriggered carries the verdict of the input guardrail
// that vetoed the run.
type InputGuardrailTripwireTriggered struct {
	Guardrail  string
	OutputInfo any
}

func (e *InputGuardrailTripwireTriggered) Error() string {
	return fmt.Sprintf("%s: %s", ErrInputGuardrailTripwire, e.Guardrail)
}

func (e *InputGuardrailTripwireTriggered) Is(target error) bool {
	return target == ErrInputGuardrailTripwire
}

// OutputGuardrailTripwireTriggered carries the verdict of the output guardrail
// that vetoed the final output, along with the output it rejected.
type OutputGuardrailTripwireTriggered struct {
	Guardrail  string
	OutputInfo any
	Output     any
}

func (e *OutputGuardrailTripwireTriggered) Error() string {
	return fmt.Sprintf("%s: %s", ErrOutputGuardrailTripwire, e.Guardrail)
}

func (e *OutputGuardrailTripwireTriggered) Is(target error) bool {
	return target == ErrOutputGuardrailTripwire
}

// ToolExecutionError wraps a failure raised by a tool body that had no
// failure handler.
type ToolExecutionError struct {
	Tool   string
	CallID string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("%s: tool %q (call %s): %v", ErrToolExecution, e.Tool, e.CallID, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

func (e *ToolExecutionError) Is(target error) bool { return target == ErrToolExecution }

// UserError reports misuse of the construction API, such as duplicate tool
// names or an input callback on a handoff without an input type.
type UserError struct {
	Message string
}

func NewUserError(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUser, e.Message)
}

func (e *UserError) Is(target error) bool { return target == ErrUser }
