// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ryichk/agentloop/logging"
)

// Config describes how spans are exported.
type Config struct {
	// Enabled turns tracing on. A disabled config yields a NoopTracer.
	Enabled bool `yaml:"enabled"`

	// Export posts spans to the ingest endpoint using APIKey.
	Export   bool   `yaml:"export"`
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`

	// File, when set, appends spans to this path as JSON lines.
	File string `yaml:"file"`

	// OTel sends spans to the global OpenTelemetry TracerProvider instead of
	// the exporters above.
	OTel bool `yaml:"otel"`

	BatchSize      int           `yaml:"batch_size"`
	ExportInterval time.Duration `yaml:"export_interval"`
}

// DefaultConfig returns the default tracing configuration
func DefaultConfig() Config {
	return Config{
		BatchSize:      100,
		ExportInterval: 5 * time.Second,
	}
}

// ConfigFromEnv reads the tracing configuration from the environment.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Enabled, _ = strconv.ParseBool(os.Getenv("OPENAI_TRACING_ENABLED"))
	cfg.Export, _ = strconv.ParseBool(os.Getenv("OPENAI_TRACE_EXPORT_ENABLED"))
	cfg.OTel, _ = strconv.ParseBool(os.Getenv("OPENAI_TRACE_OTEL"))
	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Endpoint = os.Getenv("OPENAI_TRACE_ENDPOINT")
	cfg.File = os.Getenv("OPENAI_TRACE_FILE")

	if batchSizeStr := os.Getenv("OPENAI_TRACE_BATCH_SIZE"); batchSizeStr != "" {
		if batchSize, err := strconv.Atoi(batchSizeStr); err == nil && batchSize > 0 {
			cfg.BatchSize = batchSize
		}
	}
	// seconds
	if intervalStr := os.Getenv("OPENAI_TRACE_EXPORT_INTERVAL"); intervalStr != "" {
		if interval, err := strconv.Atoi(intervalStr); err == nil && interval > 0 {
			cfg.ExportInterval = time.Duration(interval) * time.Second
		}
	}
	return cfg
}

// New builds the tracer described by cfg. Export failures are logged to
// logger with ctx, which should carry the clue logger. The caller owns the
// tracer and must Close it to flush pending spans.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Tracer, error) {
	if !cfg.Enabled {
		return NoopTracer{}, nil
	}
	if cfg.OTel {
		return NewOTelTracer(nil), nil
	}

	var exporters []SpanExporter
	if cfg.Export {
		exp, err := NewHTTPExporter(HTTPExporterOptions{APIKey: cfg.APIKey, Endpoint: cfg.Endpoint})
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}
	if cfg.File != "" {
		exp, err := NewFileExporter(cfg.File)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, exp)
	}
	if len(exporters) == 0 {
		return nil, errors.New("tracing is enabled but no exporter is configured")
	}

	var exporter SpanExporter = exporters[0]
	if len(exporters) > 1 {
		exporter = NewMultiExporter(exporters...)
	}
	processor := NewBatchSpanProcessor(exporter,
		WithBatchSize(cfg.BatchSize),
		WithExportInterval(cfg.ExportInterval),
		WithLogger(logger),
		WithLogContext(ctx),
	)
	return NewStandardTracer(processor), nil
}
