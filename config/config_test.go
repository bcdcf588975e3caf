// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/clue/log"

	"github.com/ryichk/agentloop/logging"
	"github.com/ryichk/agentloop/model"
	"github.com/ryichk/agentloop/runner"
	"github.com/ryichk/agentloop/session"
	"github.com/ryichk/agentloop/tracing"
)

const sampleYAML = `
provider: anthropic
model: claude-3-5-haiku-latest
max_turns: 6
workflow_name: Support desk
stream_buffer_size: 32
anthropic:
  api_key: sk-ant-file
  max_tokens: 2048
rate_limit:
  requests_per_minute: 120
  burst: 4
session:
  backend: memory
tracing:
  enabled: true
  file: spans.jsonl
  batch_size: 10
  export_interval: 2s
`

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvOpenAIAPIKey, EnvAnthropicAPIKey, EnvProvider, EnvModel, EnvMaxTurns, EnvRedisAddr, EnvDebug} {
		t.Setenv(name, "")
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model)
	assert.Equal(t, 6, cfg.MaxTurns)
	assert.Equal(t, "Support desk", cfg.WorkflowName)
	assert.Equal(t, 32, cfg.StreamBufferSize)
	assert.Equal(t, AnthropicConfig{APIKey: "sk-ant-file", MaxTokens: 2048}, cfg.Anthropic)
	assert.Equal(t, RateLimitConfig{RequestsPerMinute: 120, Burst: 4}, cfg.RateLimit)
	assert.Equal(t, SessionMemory, cfg.Session.Backend)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "spans.jsonl", cfg.Tracing.File)
	assert.Equal(t, 10, cfg.Tracing.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Tracing.ExportInterval)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("model: gpt-4o-mini\n"))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, runner.DefaultMaxTurns, cfg.MaxTurns)
	assert.Equal(t, runner.DefaultWorkflowName, cfg.WorkflowName)
	assert.Equal(t, tracing.DefaultConfig().BatchSize, cfg.Tracing.BatchSize)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("max_turns: [1, 2"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "sk-ant-file", cfg.Anthropic.APIKey)
	assert.Equal(t, 6, cfg.MaxTurns)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv(EnvProvider, "OpenAI")
	t.Setenv(EnvOpenAIAPIKey, "sk-env")
	t.Setenv(EnvAnthropicAPIKey, "sk-ant-env")
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvMaxTurns, "3")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "sk-ant-env", cfg.Anthropic.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 3, cfg.MaxTurns)
	assert.Equal(t, "sk-env", cfg.Tracing.APIKey, "trace export reuses the OpenAI key")
}

func TestLoadRedisAddrSelectsRedisSession(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-env")
	t.Setenv(EnvRedisAddr, "localhost:6379")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, SessionRedis, cfg.Session.Backend)
	assert.Equal(t, "localhost:6379", cfg.Session.RedisAddr)
}

func TestLoadInvalidMaxTurns(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-env")
	t.Setenv(EnvMaxTurns, "many")

	_, err := Load("")
	assert.ErrorContains(t, err, EnvMaxTurns)
}

func TestLoadDebug(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-env")
	t.Setenv(EnvDebug, "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)

	t.Setenv(EnvDebug, "verbose")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvDebug)
}

func TestLogContextCarriesLogger(t *testing.T) {
	cfg := Default()
	cfg.Debug = true

	var buf bytes.Buffer
	ctx := cfg.LogContext(context.Background(), log.WithOutput(&buf))
	logging.NewClueLogger().Debug(ctx, "turn started")

	assert.Contains(t, buf.String(), "turn started")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.OpenAI.APIKey = "sk-test"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown provider", func(c *Config) { c.Provider = "bedrock" }, "unsupported provider"},
		{"missing openai key", func(c *Config) { c.OpenAI.APIKey = "" }, EnvOpenAIAPIKey},
		{"missing anthropic key", func(c *Config) { c.Provider = ProviderAnthropic }, EnvAnthropicAPIKey},
		{"zero max turns", func(c *Config) { c.MaxTurns = 0 }, "max_turns"},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerMinute = -1 }, "requests_per_minute"},
		{"unknown session", func(c *Config) { c.Session.Backend = "mongo" }, "unsupported session backend"},
		{"redis without addr", func(c *Config) { c.Session.Backend = SessionRedis }, EnvRedisAddr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewProvider(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-test"
	p, err := cfg.NewProvider()
	require.NoError(t, err)
	assert.IsType(t, &model.OpenAIProvider{}, p)

	cfg.Provider = ProviderAnthropic
	cfg.Anthropic.APIKey = "sk-ant-test"
	p, err = cfg.NewProvider()
	require.NoError(t, err)
	assert.IsType(t, &model.AnthropicProvider{}, p)

	cfg.RateLimit.RequestsPerMinute = 60
	p, err = cfg.NewProvider()
	require.NoError(t, err)
	_, direct := p.(*model.AnthropicProvider)
	assert.False(t, direct, "a rate limit wraps the provider")

	cfg.Anthropic.APIKey = ""
	_, err = cfg.NewProvider()
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Model = "gpt-4o-mini"
	cfg.MaxTurns = 4
	cfg.Session.Backend = SessionMemory
	cfg.Tracing.Enabled = true
	cfg.Tracing.File = filepath.Join(t.TempDir(), "spans.jsonl")

	rt, err := cfg.Build(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, rt.Close(context.Background())) })

	rc := rt.RunConfig
	assert.Equal(t, "gpt-4o-mini", rc.Model)
	assert.Equal(t, 4, rc.MaxTurns)
	assert.Equal(t, runner.DefaultWorkflowName, rc.WorkflowName)
	assert.IsType(t, &model.OpenAIProvider{}, rc.ModelProvider)
	assert.IsType(t, &session.MemorySession{}, rc.Session)
	assert.IsType(t, &tracing.StandardTracer{}, rc.Tracer)
	assert.False(t, rc.TracingDisabled)
	assert.NotNil(t, rc.Logger)
}

func TestBuildWithoutSession(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-test"

	rt, err := cfg.Build(context.Background(), nil)
	require.NoError(t, err)

	assert.Nil(t, rt.RunConfig.Session)
	assert.True(t, rt.RunConfig.TracingDisabled)
	assert.NoError(t, rt.Close(context.Background()))
}

func TestBuildFailsOnUnreachableRedis(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Session.Backend = SessionRedis
	cfg.Session.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := cfg.Build(ctx, nil)
	assert.ErrorContains(t, err, "connect to redis")
}
