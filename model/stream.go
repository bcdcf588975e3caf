// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package model

import (
	"errors"
	"io"

	"github.com/ryichk/agentloop/item"
)

// responseStream replays a complete response as a stream: one delta per
// assistant message, then the response itself.
type responseStream struct {
	chunks []*StreamChunk
}

// NewResponseStream turns a complete response into a Stream. Providers
// without native streaming use it.
func NewResponseStream(resp *Response) Stream {
	s := &responseStream{}
	for _, it := range resp.Output {
		if msg, ok := it.(item.AssistantMessage); ok && msg.Content != "" {
			s.chunks = append(s.chunks, &StreamChunk{Delta: msg.Content})
		}
	}
	s.chunks = append(s.chunks, &StreamChunk{Response: resp})
	return s
}

func (s *responseStream) Recv() (*StreamChunk, error) {
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

func (s *responseStream) Close() error {
	s.chunks = nil
	return nil
}

// Collect drains stream, calling onDelta for every text delta, and returns
// the final response.
func Collect(stream Stream, onDelta func(delta string) error) (*Response, error) {
	defer stream.Close()

	var final *Response
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if chunk.Delta != "" && onDelta != nil {
			if err := onDelta(chunk.Delta); err != nil {
				return nil, err
			}
		}
		if chunk.Response != nil {
			final = chunk.Response
		}
	}
	if final == nil {
		return nil, errors.New("stream ended without a response")
	}
	return final, nil
}
