// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ryichk/agentloop/logging"
	"github.com/ryichk/agentloop/model"
	"github.com/ryichk/agentloop/runner"
	"github.com/ryichk/agentloop/session"
	"github.com/ryichk/agentloop/tracing"
)

// Runtime holds what Build created. RunConfig is ready to pass to the
// runner; Close releases the tracer and the Redis connection.
type Runtime struct {
	RunConfig runner.RunConfig

	tracer tracing.Tracer
	rdb    *redis.Client
}

// Build creates the provider, tracer and session described by c.
func (c Config) Build(ctx context.Context, logger logging.Logger) (*Runtime, error) {
	logger = logging.OrNoop(logger)

	provider, err := c.NewProvider()
	if err != nil {
		return nil, err
	}
	tracer, err := tracing.New(ctx, c.Tracing, logger)
	if err != nil {
		return nil, fmt.Errorf("build tracer: %w", err)
	}
	rt := &Runtime{tracer: tracer}

	sess, err := c.newSession(ctx, rt)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	rt.RunConfig = runner.RunConfig{
		Model:            c.Model,
		ModelProvider:    provider,
		MaxTurns:         c.MaxTurns,
		Session:          sess,
		Tracer:           tracer,
		TracingDisabled:  !c.Tracing.Enabled,
		WorkflowName:     c.WorkflowName,
		Logger:           logger,
		StreamBufferSize: c.StreamBufferSize,
	}
	logger.Info(ctx, "runtime configured",
		"provider", c.Provider,
		"model", c.Model,
		"session", c.Session.Backend,
		"tracing", c.Tracing.Enabled)
	return rt, nil
}

// NewProvider creates the model provider of c, rate limited when configured.
func (c Config) NewProvider() (model.Provider, error) {
	var provider model.Provider
	switch c.Provider {
	case ProviderOpenAI:
		p, err := model.NewOpenAIProvider(model.OpenAIConfig{
			APIKey:       c.OpenAI.APIKey,
			BaseURL:      c.OpenAI.BaseURL,
			Organization: c.OpenAI.Organization,
			DefaultModel: c.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("build provider: %w", err)
		}
		provider = p
	case ProviderAnthropic:
		p, err := model.NewAnthropicProvider(model.AnthropicConfig{
			APIKey:       c.Anthropic.APIKey,
			DefaultModel: c.Model,
			MaxTokens:    c.Anthropic.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("build provider: %w", err)
		}
		provider = p
	default:
		return nil, fmt.Errorf("build provider: unsupported provider %q", c.Provider)
	}

	if c.RateLimit.RequestsPerMinute > 0 {
		provider = model.NewRateLimitedProvider(provider, c.RateLimit.RequestsPerMinute, c.RateLimit.Burst)
	}
	return provider, nil
}

func (c Config) newSession(ctx context.Context, rt *Runtime) (session.Session, error) {
	switch c.Session.Backend {
	case SessionMemory:
		return session.NewMemorySession(), nil
	case SessionRedis:
		rt.rdb = redis.NewClient(&redis.Options{Addr: c.Session.RedisAddr})
		if err := rt.rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", c.Session.RedisAddr, err)
		}
		id := c.Session.ID
		if id == "" {
			id = uuid.NewString()
		}
		sess, err := session.NewRedisSession(id, session.RedisSessionOptions{
			Redis:     rt.rdb,
			KeyPrefix: c.Session.KeyPrefix,
			TTL:       c.Session.TTL,
		})
		if err != nil {
			return nil, err
		}
		return sess, nil
	default:
		return nil, nil
	}
}

// Close flushes the tracer and closes the Redis connection.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.tracer != nil {
		if err := r.tracer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close tracer: %w", err))
		}
	}
	if r.rdb != nil {
		if err := r.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
