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
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ryichk/agentloop/item"
)

// DefaultOpenAIModel is used when neither the request nor the config names a
// model.
const DefaultOpenAIModel = "gpt-4o"

// OpenAIConfig represents OpenAI provider configuration
type OpenAIConfig struct {
	// APIKey is the OpenAI API key
	APIKey string

	// BaseURL is the custom base URL (optional)
	BaseURL string

	// Organization is the OpenAI Organization (optional)
	Organization string

	// DefaultModel is used for requests that do not name a model (optional)
	DefaultModel string
}

// OpenAIProvider talks to the chat completions API.
type OpenAIProvider struct {
	config OpenAIConfig
	client *openai.Client
}

func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Organization != "" {
		clientConfig.OrgID = config.Organization
	}

	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (p *OpenAIProvider) GetResponse(ctx context.Context, req *Request) (*Response, error) {
	request, err := p.buildRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := p.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	msg := result.Choices[0].Message
	return &Response{
		ID:     result.ID,
		Output: fromOpenAIMessage(msg.Content, msg.ToolCalls),
		Usage: Usage{
			Requests:         1,
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}, nil
}

// StreamResponse creates a streaming chat completion. Tool call fragments are
// assembled into the final Response.
func (p *OpenAIProvider) StreamResponse(ctx context.Context, req *Request) (Stream, error) {
	request, err := p.buildRequest(req)
	if err != nil {
		return nil, err
	}
	request.Stream = true
	request.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API stream call failed: %w", err)
	}
	return &openAIStream{stream: stream}, nil
}

func (p *OpenAIProvider) buildRequest(req *Request) (openai.ChatCompletionRequest, error) {
	settings := req.Settings
	modelName := req.Model
	if modelName == "" {
		modelName = p.config.DefaultModel
	}

	request := openai.ChatCompletionRequest{
		Model:            modelName,
		Messages:         toOpenAIMessages(req.Instructions, req.Input),
		Temperature:      float32(settings.Temperature),
		MaxTokens:        settings.MaxTokens,
		TopP:             float32(settings.TopP),
		FrequencyPenalty: float32(settings.FrequencyPenalty),
		PresencePenalty:  float32(settings.PresencePenalty),
		Stop:             settings.StopSequences,
	}
	if settings.Seed != 0 {
		seed := settings.Seed
		request.Seed = &seed
	}

	tools := req.AllTools()
	if len(tools) > 0 {
		request.Tools = make([]openai.Tool, 0, len(tools))
		for _, def := range tools {
			request.Tools = append(request.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        def.Name,
					Description: def.Description,
					Parameters:  def.Parameters,
				},
			})
		}
		request.ToolChoice = openAIToolChoice(settings.ToolChoice)
		if settings.ParallelToolCalls != nil {
			request.ParallelToolCalls = *settings.ParallelToolCalls
		}
	}

	if req.OutputSchema != nil {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.OutputSchema.Name,
				Schema: jsonDoc(req.OutputSchema.Schema),
			},
		}
	}
	return request, nil
}

func openAIToolChoice(choice string) any {
	switch choice {
	case "":
		return nil
	case ToolChoiceAuto, ToolChoiceRequired, ToolChoiceNone:
		return choice
	default:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: choice},
		}
	}
}

// jsonDoc lets a schema map be passed where the client expects a
// json.Marshaler.
type jsonDoc map[string]any

func (d jsonDoc) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

// HandoffOutput is the tool output reported to the model for a handoff call.
func HandoffOutput(to string) string {
	out, _ := json.Marshal(map[string]string{"assistant": to})
	return string(out)
}

// toOpenAIMessages converts the instructions and history into chat messages.
// Tool calls following an assistant message join that message.
func toOpenAIMessages(instructions string, items []item.Item) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(items)+1)
	if instructions != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instructions,
		})
	}

	for _, it := range items {
		switch v := it.(type) {
		case item.UserMessage:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: v.Content,
			})
		case item.AssistantMessage:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: v.Content,
			})
		case item.ToolCall:
			call := openai.ToolCall{
				ID:   v.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      v.Name,
					Arguments: v.Arguments,
				},
			}
			if n := len(msgs); n > 0 && msgs[n-1].Role == openai.ChatMessageRoleAssistant {
				msgs[n-1].ToolCalls = append(msgs[n-1].ToolCalls, call)
				continue
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{call},
			})
		case item.ToolResult:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    v.Output,
				ToolCallID: v.CallID,
			})
		case item.HandoffSignal:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    HandoffOutput(v.To),
				ToolCallID: v.CallID,
			})
		}
	}
	return msgs
}

func fromOpenAIMessage(content string, toolCalls []openai.ToolCall) []item.Item {
	var out []item.Item
	if content != "" {
		out = append(out, item.AssistantMessage{Content: content})
	}
	for _, tc := range toolCalls {
		out = append(out, item.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

// openAIStream handles OpenAI streaming responses
type openAIStream struct {
	stream  *openai.ChatCompletionStream
	id      string
	content strings.Builder
	calls   []openai.ToolCall
	usage   Usage
	done    bool
}

// Recv returns the next text delta. When the server closes the stream it
// returns the assembled response, then io.EOF.
func (s *openAIStream) Recv() (*StreamChunk, error) {
	for {
		if s.done {
			return nil, io.EOF
		}

		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return &StreamChunk{Response: s.response()}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to receive from stream: %w", err)
		}

		if s.id == "" {
			s.id = resp.ID
		}
		if resp.Usage != nil {
			s.usage = Usage{
				Requests:         1,
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta
		for _, tc := range delta.ToolCalls {
			s.mergeToolCall(tc)
		}
		if delta.Content != "" {
			s.content.WriteString(delta.Content)
			return &StreamChunk{Delta: delta.Content}, nil
		}
	}
}

func (s *openAIStream) mergeToolCall(tc openai.ToolCall) {
	idx := len(s.calls)
	if tc.Index != nil {
		idx = *tc.Index
	}
	for len(s.calls) <= idx {
		s.calls = append(s.calls, openai.ToolCall{Type: openai.ToolTypeFunction})
	}
	call := &s.calls[idx]
	if tc.ID != "" {
		call.ID = tc.ID
	}
	if tc.Function.Name != "" {
		call.Function.Name = tc.Function.Name
	}
	call.Function.Arguments += tc.Function.Arguments
}

func (s *openAIStream) response() *Response {
	usage := s.usage
	usage.Requests = 1
	return &Response{
		ID:     s.id,
		Output: fromOpenAIMessage(s.content.String(), s.calls),
		Usage:  usage,
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}
