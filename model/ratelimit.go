// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package model

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedProvider gates every call to next on a shared token bucket.
type rateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows at most requestsPerMinute calls to next, with
// bursts of up to burst calls. Waiting honors the caller's context, so a
// cancelled run stops waiting immediately.
func NewRateLimitedProvider(next Provider, requestsPerMinute float64, burst int) Provider {
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst),
	}
}

func (p *rateLimitedProvider) GetResponse(ctx context.Context, req *Request) (*Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.GetResponse(ctx, req)
}

func (p *rateLimitedProvider) StreamResponse(ctx context.Context, req *Request) (Stream, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.StreamResponse(ctx, req)
}
