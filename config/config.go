// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

// Package config loads the settings of an agent application from a YAML file
// and the environment, and builds the provider, tracer and session a run
// needs. Nothing here installs process-wide state: credentials travel in the
// Config value.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"goa.design/clue/log"
	"gopkg.in/yaml.v3"

	"github.com/ryichk/agentloop/logging"
	"github.com/ryichk/agentloop/runner"
	"github.com/ryichk/agentloop/tracing"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Supported session backends. An empty backend runs without a session.
const (
	SessionNone   = ""
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Environment variables that override the file.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvProvider        = "AGENTS_PROVIDER"
	EnvModel           = "AGENTS_MODEL"
	EnvMaxTurns        = "AGENTS_MAX_TURNS"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvDebug           = "AGENTS_DEBUG"
)

type (
	// Config is the configuration of an agent application.
	Config struct {
		// Provider is openai or anthropic.
		Provider string `yaml:"provider"`
		// Model is the default model of runs; agents may override it.
		Model string `yaml:"model"`

		MaxTurns         int    `yaml:"max_turns"`
		WorkflowName     string `yaml:"workflow_name"`
		StreamBufferSize int    `yaml:"stream_buffer_size"`

		// Debug enables debug log entries in LogContext.
		Debug bool `yaml:"debug"`

		OpenAI    OpenAIConfig    `yaml:"openai"`
		Anthropic AnthropicConfig `yaml:"anthropic"`
		RateLimit RateLimitConfig `yaml:"rate_limit"`
		Session   SessionConfig   `yaml:"session"`
		Tracing   tracing.Config  `yaml:"tracing"`
	}

	OpenAIConfig struct {
		APIKey       string `yaml:"api_key"`
		BaseURL      string `yaml:"base_url"`
		Organization string `yaml:"organization"`
	}

	AnthropicConfig struct {
		APIKey    string `yaml:"api_key"`
		MaxTokens int    `yaml:"max_tokens"`
	}

	// RateLimitConfig throttles model calls. Zero requests per minute
	// disables the limit.
	RateLimitConfig struct {
		RequestsPerMinute float64 `yaml:"requests_per_minute"`
		Burst             int     `yaml:"burst"`
	}

	// SessionConfig selects where conversation history is kept between runs.
	SessionConfig struct {
		Backend string `yaml:"backend"`
		// ID names the conversation. A Redis session without an ID gets a
		// random one.
		ID        string        `yaml:"id"`
		RedisAddr string        `yaml:"redis_addr"`
		KeyPrefix string        `yaml:"key_prefix"`
		TTL       time.Duration `yaml:"ttl"`
	}
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Provider:     ProviderOpenAI,
		MaxTurns:     runner.DefaultMaxTurns,
		WorkflowName: runner.DefaultWorkflowName,
		Tracing:      tracing.DefaultConfig(),
	}
}

// Load reads the YAML file at path, applies the environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default. It neither reads the environment nor
// validates.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if key := strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey)); key != "" {
		c.OpenAI.APIKey = key
	}
	if key := strings.TrimSpace(os.Getenv(EnvAnthropicAPIKey)); key != "" {
		c.Anthropic.APIKey = key
	}
	if provider := strings.TrimSpace(os.Getenv(EnvProvider)); provider != "" {
		c.Provider = strings.ToLower(provider)
	}
	if model := strings.TrimSpace(os.Getenv(EnvModel)); model != "" {
		c.Model = model
	}
	if turns := strings.TrimSpace(os.Getenv(EnvMaxTurns)); turns != "" {
		n, err := strconv.Atoi(turns)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxTurns, err)
		}
		c.MaxTurns = n
	}
	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		c.Session.RedisAddr = addr
		if c.Session.Backend == SessionNone {
			c.Session.Backend = SessionRedis
		}
	}
	if debug := strings.TrimSpace(os.Getenv(EnvDebug)); debug != "" {
		v, err := strconv.ParseBool(debug)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvDebug, err)
		}
		c.Debug = v
	}
	if c.Tracing.APIKey == "" {
		c.Tracing.APIKey = c.OpenAI.APIKey
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("validate config: provider %s requires %s", c.Provider, EnvOpenAIAPIKey)
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("validate config: provider %s requires %s", c.Provider, EnvAnthropicAPIKey)
		}
	default:
		return fmt.Errorf("validate config: unsupported provider %q (allowed: %q, %q)",
			c.Provider, ProviderOpenAI, ProviderAnthropic)
	}

	if c.MaxTurns <= 0 {
		return errors.New("validate config: max_turns must be > 0")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return errors.New("validate config: rate_limit.requests_per_minute must be >= 0")
	}

	switch c.Session.Backend {
	case SessionNone, SessionMemory:
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("validate config: redis session requires %s", EnvRedisAddr)
		}
	default:
		return fmt.Errorf("validate config: unsupported session backend %q (allowed: %q, %q)",
			c.Session.Backend, SessionMemory, SessionRedis)
	}
	return nil
}

// LogContext returns ctx carrying the clue logger the runner and the trace
// exporters write to. opts are passed to logging.Context.
func (c Config) LogContext(ctx context.Context, opts ...log.LogOption) context.Context {
	return logging.Context(ctx, c.Debug, opts...)
}
