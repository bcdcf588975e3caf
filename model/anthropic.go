// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/ryichk/agentloop/item"
)

// AnthropicMessages is the part of the Anthropic client the provider uses.
// *anthropic.MessageService satisfies it.
type AnthropicMessages interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
	NewStreaming(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// AnthropicConfig represents Anthropic provider configuration
type AnthropicConfig struct {
	APIKey string

	// DefaultModel is used for requests that do not name a model (optional)
	DefaultModel string

	// MaxTokens is used when the request settings leave it unset. The
	// messages API requires a value.
	MaxTokens int
}

// AnthropicProvider talks to the Claude messages API.
type AnthropicProvider struct {
	config   AnthropicConfig
	messages AnthropicMessages
}

func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(config.APIKey))
	return NewAnthropicProviderFromClient(&client.Messages, config), nil
}

// NewAnthropicProviderFromClient builds a provider over an existing messages
// client.
func NewAnthropicProviderFromClient(messages AnthropicMessages, config AnthropicConfig) *AnthropicProvider {
	if config.DefaultModel == "" {
		config.DefaultModel = string(anthropic.ModelClaudeSonnet4_5)
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}
	return &AnthropicProvider{config: config, messages: messages}
}

func (p *AnthropicProvider) GetResponse(ctx context.Context, req *Request) (*Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	msg, err := p.messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API call failed: %w", err)
	}
	return fromAnthropicMessage(msg), nil
}

// StreamResponse streams text deltas and accumulates the full message for
// the final chunk.
func (p *AnthropicProvider) StreamResponse(ctx context.Context, req *Request) (Stream, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	stream := p.messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("Anthropic API stream call failed: %w", err)
	}
	return &anthropicStream{stream: stream}, nil
}

func (p *AnthropicProvider) buildParams(req *Request) (anthropic.MessageNewParams, error) {
	settings := req.Settings
	modelName := req.Model
	if modelName == "" {
		modelName = p.config.DefaultModel
	}
	maxTokens := settings.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	msgs, err := toAnthropicMessages(req.Input)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	instructions := req.Instructions
	if req.OutputSchema != nil {
		// No native response format: describe the schema in the system prompt.
		schemaJSON, err := json.Marshal(req.OutputSchema.Schema)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("marshal output schema: %w", err)
		}
		instructions += "\n\nRespond only with a JSON document matching this schema:\n" + string(schemaJSON)
	}
	if instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: instructions}}
	}
	if settings.Temperature > 0 {
		params.Temperature = anthropic.Float(settings.Temperature)
	}
	if settings.TopP > 0 {
		params.TopP = anthropic.Float(settings.TopP)
	}
	if len(settings.StopSequences) > 0 {
		params.StopSequences = settings.StopSequences
	}

	tools := req.AllTools()
	if len(tools) > 0 && settings.ToolChoice != ToolChoiceNone {
		params.Tools = make([]anthropic.ToolUnionParam, 0, len(tools))
		for _, def := range tools {
			params.Tools = append(params.Tools, anthropicTool(def))
		}
		switch settings.ToolChoice {
		case "", ToolChoiceAuto:
		case ToolChoiceRequired:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		default:
			params.ToolChoice = anthropic.ToolChoiceParamOfTool(settings.ToolChoice)
		}
	}
	return params, nil
}

func anthropicTool(def ToolDefinition) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{}
	if props, ok := def.Parameters["properties"]; ok {
		schema.Properties = props
	}
	switch required := def.Parameters["required"].(type) {
	case []string:
		schema.Required = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	u := anthropic.ToolUnionParamOfTool(schema, def.Name)
	if u.OfTool != nil && def.Description != "" {
		u.OfTool.Description = anthropic.String(def.Description)
	}
	return u
}

// toAnthropicMessages converts the history into alternating user and
// assistant messages. Tool calls become tool_use blocks of the assistant
// message and tool results become tool_result blocks of the next user
// message.
func toAnthropicMessages(items []item.Item) ([]anthropic.MessageParam, error) {
	var (
		msgs   []anthropic.MessageParam
		role   anthropic.MessageParamRole
		blocks []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if role == anthropic.MessageParamRoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		}
		blocks = nil
	}
	add := func(r anthropic.MessageParamRole, block anthropic.ContentBlockParamUnion) {
		if r != role {
			flush()
			role = r
		}
		blocks = append(blocks, block)
	}

	for _, it := range items {
		switch v := it.(type) {
		case item.UserMessage:
			add(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(v.Content))
		case item.AssistantMessage:
			if v.Content != "" {
				add(anthropic.MessageParamRoleAssistant, anthropic.NewTextBlock(v.Content))
			}
		case item.ToolCall:
			var input any = map[string]any{}
			if v.Arguments != "" {
				if err := json.Unmarshal([]byte(v.Arguments), &input); err != nil {
					return nil, fmt.Errorf("tool call %s: invalid arguments: %w", v.ID, err)
				}
			}
			add(anthropic.MessageParamRoleAssistant, anthropic.NewToolUseBlock(v.ID, input, v.Name))
		case item.ToolResult:
			add(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(v.CallID, v.Output, false))
		case item.HandoffSignal:
			add(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(v.CallID, HandoffOutput(v.To), false))
		}
	}
	flush()
	return msgs, nil
}

func fromAnthropicMessage(msg *anthropic.Message) *Response {
	resp := &Response{ID: msg.ID}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				resp.Output = append(resp.Output, item.AssistantMessage{Content: block.Text})
			}
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			resp.Output = append(resp.Output, item.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		case "thinking":
			if block.Thinking != "" {
				resp.Output = append(resp.Output, item.Reasoning{Text: block.Thinking})
			}
		}
	}
	resp.Usage = Usage{
		Requests:         1,
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	return resp
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	message anthropic.Message
	done    bool
}

func (s *anthropicStream) Recv() (*StreamChunk, error) {
	for {
		if s.done {
			return nil, io.EOF
		}
		if !s.stream.Next() {
			if err := s.stream.Err(); err != nil {
				return nil, fmt.Errorf("failed to receive from stream: %w", err)
			}
			s.done = true
			return &StreamChunk{Response: fromAnthropicMessage(&s.message)}, nil
		}

		event := s.stream.Current()
		if err := s.message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("failed to accumulate stream event: %w", err)
		}
		if ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				return &StreamChunk{Delta: delta.Text}, nil
			}
		}
	}
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}
