// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/ryichk/agentloop/internal/schema"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// FunctionTool wraps a Go function as a tool
type FunctionTool struct {
	name         string
	description  string
	paramsSchema map[string]any
	validator    *schema.Validator
	fn           reflect.Value
	fnType       reflect.Type

	// wantsContext is true when the first parameter is a context.Context.
	wantsContext bool
	// argNames maps each non-context parameter to its JSON property. When
	// structArg is true the single parameter receives the whole object.
	argNames  []string
	structArg bool

	failureFunc func(ctx context.Context, err error) string
}

func (t *FunctionTool) Name() string {
	return t.name
}

func (t *FunctionTool) Description() string {
	return t.description
}

// ParamsJSONSchema returns the JSON schema for the tool's parameters
func (t *FunctionTool) ParamsJSONSchema() map[string]any {
	return t.paramsSchema
}

// HandleFailure implements FailureHandler when a FailureErrorFunction was set.
func (t *FunctionTool) HandleFailure(ctx context.Context, err error) (string, bool) {
	if t.failureFunc == nil {
		return "", false
	}
	return t.failureFunc(ctx, err), true
}

// Invoke validates paramsJSON against the parameter schema, decodes it into
// the function's arguments and calls the function.
func (t *FunctionTool) Invoke(ctx context.Context, paramsJSON string) (string, error) {
	if err := t.validator.ValidateJSON(paramsJSON); err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrInvalidArguments, t.name, err)
	}

	args, err := t.prepareArgs(ctx, paramsJSON)
	if err != nil {
		return "", err
	}

	results := t.fn.Call(args)
	return t.formatResults(results)
}

func (t *FunctionTool) prepareArgs(ctx context.Context, paramsJSON string) ([]reflect.Value, error) {
	if strings.TrimSpace(paramsJSON) == "" {
		paramsJSON = "{}"
	}

	args := make([]reflect.Value, 0, t.fnType.NumIn())
	offset := 0
	if t.wantsContext {
		args = append(args, reflect.ValueOf(ctx))
		offset = 1
	}

	if t.structArg {
		v, err := decodeInto([]byte(paramsJSON), t.fnType.In(offset))
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, t.name, err)
		}
		return append(args, v), nil
	}

	var params map[string]json.RawMessage
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, t.name, err)
	}

	for i, name := range t.argNames {
		raw, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("%w for %s: missing parameter %s", ErrInvalidArguments, t.name, name)
		}
		v, err := decodeInto(raw, t.fnType.In(i+offset))
		if err != nil {
			return nil, fmt.Errorf("%w for %s: parameter %s: %v", ErrInvalidArguments, t.name, name, err)
		}
		args = append(args, v)
	}
	return args, nil
}

// decodeInto unmarshals raw into a fresh value of type typ.
func decodeInto(raw []byte, typ reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(typ)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func (t *FunctionTool) formatResults(results []reflect.Value) (string, error) {
	if n := len(results); n > 0 && t.fnType.Out(n-1) == errorType {
		if errVal := results[n-1]; !errVal.IsNil() {
			return "", errVal.Interface().(error)
		}
		results = results[:n-1]
	}
	if len(results) == 0 {
		return "", nil
	}

	result := results[0].Interface()
	if s, ok := result.(string); ok {
		return s, nil
	}
	if s, ok := result.(fmt.Stringer); ok {
		return s.String(), nil
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(resultJSON), nil
}

// FunctionToolOption represents options for creating a function tool.
// These options allow customizing the behavior and metadata of the tool.
type FunctionToolOption struct {
	// NameOverride allows specifying a custom name for the tool instead of using the function name.
	NameOverride string

	// DescriptionOverride allows providing a custom description for the tool.
	// The description explains what the tool does and helps the LLM understand when to use it.
	DescriptionOverride string

	// ParamNames names the function parameters, skipping a leading
	// context.Context. Parameters without a name are called param0, param1...
	ParamNames []string

	// FailureErrorFunction turns a failure of the tool (invalid arguments or
	// an error returned by the function) into the output sent back to the
	// model. Without it such failures end the run.
	FailureErrorFunction func(ctx context.Context, err error) string
}

// NewFunctionTool creates a new tool from a function.
//
// The function may take a context.Context as its first parameter; it then
// receives the run's context, which carries the run value (see package
// runcontext). A function whose only other parameter is a struct receives the
// whole argument object decoded into that struct, so its JSON tags define the
// parameter names:
//
//	type weatherArgs struct {
//		City string `json:"city"`
//	}
//
//	func getWeather(ctx context.Context, args weatherArgs) (string, error) {
//		return "Weather data for " + args.City, nil
//	}
//
//	weatherTool, err := NewFunctionTool(getWeather, FunctionToolOption{
//		DescriptionOverride: "Get weather information for the specified city",
//	})
//
// Otherwise each parameter becomes a property named by ParamNames. The
// function returns a value, an error, or both; strings are passed to the model
// verbatim and anything else is encoded as JSON.
func NewFunctionTool(function any, options ...FunctionToolOption) (*FunctionTool, error) {
	fn := reflect.ValueOf(function)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("function must be a function, got %T", function)
	}
	fnType := fn.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic functions are not supported")
	}
	if err := checkResults(fnType); err != nil {
		return nil, err
	}

	t := &FunctionTool{
		name:        functionName(fn),
		description: "No description provided",
		fn:          fn,
		fnType:      fnType,
	}

	var opt FunctionToolOption
	for _, o := range options {
		if o.NameOverride != "" {
			opt.NameOverride = o.NameOverride
		}
		if o.DescriptionOverride != "" {
			opt.DescriptionOverride = o.DescriptionOverride
		}
		if o.ParamNames != nil {
			opt.ParamNames = o.ParamNames
		}
		if o.FailureErrorFunction != nil {
			opt.FailureErrorFunction = o.FailureErrorFunction
		}
	}
	if opt.NameOverride != "" {
		t.name = opt.NameOverride
	}
	if opt.DescriptionOverride != "" {
		t.description = opt.DescriptionOverride
	}
	t.failureFunc = opt.FailureErrorFunction

	if err := t.buildParams(opt.ParamNames); err != nil {
		return nil, err
	}
	validator, err := schema.Compile(t.paramsSchema)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", t.name, err)
	}
	t.validator = validator

	return t, nil
}

func (t *FunctionTool) buildParams(names []string) error {
	in := t.fnType.NumIn()
	offset := 0
	if in > 0 && schema.IsContext(t.fnType.In(0)) {
		t.wantsContext = true
		offset = 1
	}
	for i := offset; i < in; i++ {
		if schema.IsContext(t.fnType.In(i)) {
			return fmt.Errorf("context.Context must be the first parameter")
		}
	}

	params := in - offset
	if params == 1 && len(names) == 0 && isStruct(t.fnType.In(offset)) {
		t.structArg = true
		t.paramsSchema = schema.FromType(t.fnType.In(offset))
		return nil
	}

	if len(names) > params {
		return fmt.Errorf("%d parameter names given for %d parameters", len(names), params)
	}

	t.paramsSchema = schema.Object()
	properties := t.paramsSchema["properties"].(map[string]any)
	required := make([]string, 0, params)
	for i := range params {
		name := fmt.Sprintf("param%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		if _, dup := properties[name]; dup {
			return fmt.Errorf("duplicate parameter name %q", name)
		}
		properties[name] = schema.FromType(t.fnType.In(i + offset))
		required = append(required, name)
		t.argNames = append(t.argNames, name)
	}
	t.paramsSchema["required"] = required
	return nil
}

func isStruct(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func checkResults(fnType reflect.Type) error {
	switch fnType.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if fnType.Out(1) != errorType {
			return fmt.Errorf("second return value must be an error")
		}
		return nil
	default:
		return fmt.Errorf("function must return at most a value and an error")
	}
}

// functionName returns the unqualified name of the function behind fn.
func functionName(fn reflect.Value) string {
	full := runtime.FuncForPC(fn.Pointer()).Name()
	parts := strings.Split(full, ".")
	return strings.TrimSuffix(parts[len(parts)-1], "-fm")
}

// NewFunctionToolFromFunc wraps a Go function with a description, keeping the
// function's own name as the tool name.
//
//	weatherTool, err := NewFunctionToolFromFunc(getWeather, "Gets weather information for a city")
func NewFunctionToolFromFunc(fn any, description string) (Tool, error) {
	return NewFunctionTool(fn, FunctionToolOption{
		DescriptionOverride: description,
	})
}

// NewFunctionToolWithName wraps a function and sets a custom name and description.
//
//	weatherTool, err := NewFunctionToolWithName(
//		getWeatherData,
//		"get_weather",
//		"Gets current weather information for the specified city",
//	)
func NewFunctionToolWithName(fn any, name string, description string) (Tool, error) {
	return NewFunctionTool(fn, FunctionToolOption{
		NameOverride:        name,
		DescriptionOverride: description,
	})
}
