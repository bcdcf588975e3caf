// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package schema derives JSON schemas from Go types and validates JSON
// payloads against them.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// IsContext reports whether t is context.Context.
func IsContext(t reflect.Type) bool {
	return t == contextType
}

// IsObject reports whether t, after dereferencing pointers, is a struct and
// so has an object schema.
func IsObject(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// IsNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, func or channel.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Object returns an empty strict object schema.
func Object() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"required":             []string{},
		"additionalProperties": false,
	}
}

// FromType builds the JSON schema of t. Struct fields follow encoding/json
// naming; fields tagged omitempty or of pointer type are optional.
func FromType(t reflect.Type) map[string]any {
	return fromType(t, map[reflect.Type]bool{})
}

func fromType(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": fromType(t.Elem(), seen)}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": fromType(t.Elem(), seen)}
	case reflect.Struct:
		if seen[t] {
			return map[string]any{"type": "object"}
		}
		seen[t] = true
		defer delete(seen, t)
		return structSchema(t, seen)
	case reflect.Interface:
		return map[string]any{}
	default:
		return map[string]any{"type": "string"}
	}
}

func structSchema(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	s := Object()
	properties := s["properties"].(map[string]any)
	required := []string{}

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, optional, skip := jsonName(field)
		if skip {
			continue
		}
		prop := fromType(field.Type, seen)
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop
		if !optional && field.Type.Kind() != reflect.Ptr {
			required = append(required, name)
		}
	}
	s["required"] = required
	return s
}

func jsonName(field reflect.StructField) (name string, optional bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = field.Name
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			optional = true
		}
	}
	return name, optional, false
}

// Validator checks JSON payloads against a compiled schema. A nil Validator
// accepts every well-formed JSON document.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile compiles doc, a schema built by this package or supplied by a
// caller, into a Validator.
func Compile(doc map[string]any) (*Validator, error) {
	if len(doc) == 0 {
		return nil, nil
	}

	// Round-trip through JSON so the compiler sees plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var schemaDoc any
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// MustCompile is like Compile but panics on error. It is meant for schemas
// generated from Go types, which always compile.
func MustCompile(doc map[string]any) *Validator {
	v, err := Compile(doc)
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateJSON parses raw and validates it. An empty payload is treated as
// an empty object.
func (v *Validator) ValidateJSON(raw string) error {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	payload, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if v == nil || v.schema == nil {
		return nil
	}
	return v.schema.Validate(payload)
}
