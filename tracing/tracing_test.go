// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tracing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"goa.design/clue/log"

	"github.com/ryichk/agentloop/logging"
)

func TestNoopTracer(t *testing.T) {
	tracer := OrNoop(nil)

	span, ctx := tracer.StartSpan(context.Background(), "test_span", SpanKindCustom, map[string]any{
		"test_attr": "test_value",
	})
	span.AddEvent("test_event", nil)
	span.SetAttribute("attr_key", "attr_value")
	span.RecordError(errors.New("boom"))
	span.End()

	assert.Equal(t, SpanData{}, span.Data())
	assert.Nil(t, SpanFromContext(ctx))
	assert.NoError(t, tracer.Close(ctx))
}

func TestStandardSpanCreation(t *testing.T) {
	tracer := NewStandardTracer()

	span, ctx := tracer.StartSpan(context.Background(), "test_span", SpanKindAgent, map[string]any{
		"initial_attr": "initial_value",
	})
	assert.Same(t, span, SpanFromContext(ctx))

	span.AddEvent("test_event", map[string]any{"event_data": 123})
	span.SetAttribute("int_attr", 42)
	span.SetAttributes(map[string]any{"batch_attr1": "value1", "batch_attr2": "value2"})
	span.RecordError(errors.New("tool failed"))
	span.End()

	data := span.Data()
	assert.Equal(t, "test_span", data.Name)
	assert.Equal(t, SpanKindAgent, data.Kind)
	assert.Regexp(t, "^trace_", data.TraceID)
	assert.Regexp(t, "^span_", data.SpanID)
	assert.Empty(t, data.ParentSpanID)
	assert.Equal(t, "initial_value", data.Attributes["initial_attr"])
	assert.Equal(t, 42, data.Attributes["int_attr"])
	assert.Equal(t, "value2", data.Attributes["batch_attr2"])
	assert.Equal(t, "tool failed", data.Error)
	require.Len(t, data.Events, 1)
	assert.Equal(t, "test_event", data.Events[0].Name)
	assert.False(t, data.EndTime.Before(data.StartTime))

	span.SetAttribute("after_end", true)
	assert.NotContains(t, span.Data().Attributes, "after_end")
}

func TestSpanHierarchy(t *testing.T) {
	tracer := NewStandardTracer()

	root, ctx := tracer.StartSpan(context.Background(), "workflow", SpanKindWorkflow, nil)
	child, childCtx := tracer.StartSpan(ctx, "agent", SpanKindAgent, nil)
	grandchild, _ := tracer.StartSpan(childCtx, "generation", SpanKindGeneration, nil)
	other, _ := tracer.StartSpan(context.Background(), "other", SpanKindWorkflow, nil)

	assert.Equal(t, root.Data().TraceID, child.Data().TraceID)
	assert.Equal(t, root.Data().TraceID, grandchild.Data().TraceID)
	assert.Equal(t, root.Data().SpanID, child.Data().ParentSpanID)
	assert.Equal(t, child.Data().SpanID, grandchild.Data().ParentSpanID)
	assert.NotEqual(t, root.Data().TraceID, other.Data().TraceID)
}

type countingProcessor struct {
	mu     sync.Mutex
	starts int
	ends   []SpanData
}

func (p *countingProcessor) OnStart(span SpanData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts++
}

func (p *countingProcessor) OnEnd(span SpanData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ends = append(p.ends, span)
}

func (p *countingProcessor) ForceFlush(ctx context.Context) error { return nil }
func (p *countingProcessor) Shutdown(ctx context.Context) error   { return nil }

func TestSpanEndNotifiesProcessorsOnce(t *testing.T) {
	proc := &countingProcessor{}
	tracer := NewStandardTracer(proc)

	span, _ := tracer.StartSpan(context.Background(), "once", SpanKindCustom, nil)
	span.End()
	span.End()

	assert.Equal(t, 1, proc.starts)
	require.Len(t, proc.ends, 1)
	assert.Equal(t, "once", proc.ends[0].Name)
}

func TestBatchProcessor(t *testing.T) {
	exporter := &MemoryExporter{}
	processor := NewBatchSpanProcessor(exporter,
		WithBatchSize(2),
		WithExportInterval(time.Hour),
	)
	tracer := NewStandardTracer(processor)

	for _, name := range []string{"a", "b", "c"} {
		span, _ := tracer.StartSpan(context.Background(), name, SpanKindCustom, nil)
		span.End()
	}

	require.NoError(t, processor.ForceFlush(context.Background()))
	assert.Len(t, exporter.Spans(), 3)

	span, _ := tracer.StartSpan(context.Background(), "d", SpanKindCustom, nil)
	span.End()
	require.NoError(t, tracer.Close(context.Background()))
	assert.Len(t, exporter.Spans(), 4)

	// ended spans are ignored after shutdown
	late, _ := tracer.StartSpan(context.Background(), "late", SpanKindCustom, nil)
	late.End()
	assert.Len(t, exporter.Spans(), 4)
	assert.NoError(t, processor.ForceFlush(context.Background()))
}

type failingExporter struct {
	calls atomic.Int32
}

func (e *failingExporter) ExportSpans(ctx context.Context, spans []SpanData) error {
	e.calls.Add(1)
	return errors.New("unavailable")
}

func (e *failingExporter) Shutdown(ctx context.Context) error { return nil }

func TestBatchProcessorLogsExportFailures(t *testing.T) {
	var buf bytes.Buffer
	logCtx, cancel := context.WithCancel(logging.Context(context.Background(), true, log.WithOutput(&buf)))
	cancel()

	exporter := &failingExporter{}
	processor := NewBatchSpanProcessor(exporter,
		WithExportInterval(time.Hour),
		WithLogger(logging.NewClueLogger()),
		WithLogContext(logCtx),
	)
	tracer := NewStandardTracer(processor)

	span, _ := tracer.StartSpan(context.Background(), "lookup", SpanKindFunction, nil)
	span.End()
	require.NoError(t, processor.ForceFlush(context.Background()))

	assert.Equal(t, int32(1), exporter.calls.Load(), "a canceled log context does not cancel exports")
	assert.Contains(t, buf.String(), "failed to export spans")
	assert.Contains(t, buf.String(), "unavailable")
	require.NoError(t, processor.Shutdown(context.Background()))
}

func TestSimpleProcessorSwallowsExportErrors(t *testing.T) {
	exporter := &failingExporter{}
	tracer := NewStandardTracer(NewSimpleSpanProcessor(exporter, nil))

	span, _ := tracer.StartSpan(context.Background(), "x", SpanKindCustom, nil)
	span.End()

	assert.Equal(t, int32(1), exporter.calls.Load())
	assert.NoError(t, tracer.Close(context.Background()))
}

func TestHTTPExporter(t *testing.T) {
	var attempts atomic.Int32
	var body map[string][]IngestSpan
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "traces=v1", r.Header.Get("OpenAI-Beta"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	exporter, err := NewHTTPExporter(HTTPExporterOptions{
		APIKey:       "test-key",
		Endpoint:     server.URL,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)

	now := time.Now()
	err = exporter.ExportSpans(context.Background(), []SpanData{{
		TraceID:      "trace_1",
		SpanID:       "span_2",
		ParentSpanID: "span_1",
		Name:         "get_weather",
		Kind:         SpanKindFunction,
		StartTime:    now,
		EndTime:      now,
		Attributes:   map[string]any{AttrToolName: "get_weather", AttrArguments: `{"city":"Tokyo"}`, AttrResult: "sunny"},
	}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())

	require.Len(t, body["data"], 1)
	got := body["data"][0]
	assert.Equal(t, "trace.span", got.Object)
	assert.Equal(t, "span_1", got.ParentID)
	assert.Equal(t, "function", got.SpanData["type"])
	assert.Equal(t, "get_weather", got.SpanData["name"])
	assert.Equal(t, `{"city":"Tokyo"}`, got.SpanData["input"])
	assert.Equal(t, "sunny", got.SpanData["output"])
}

func TestHTTPExporterDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	exporter, err := NewHTTPExporter(HTTPExporterOptions{APIKey: "k", Endpoint: server.URL, RetryBackoff: time.Millisecond})
	require.NoError(t, err)

	err = exporter.ExportSpans(context.Background(), []SpanData{{SpanID: "span_1", Kind: SpanKindCustom}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestHTTPExporterRequiresAPIKey(t *testing.T) {
	_, err := NewHTTPExporter(HTTPExporterOptions{})
	assert.Error(t, err)
}

func TestToIngestSpan(t *testing.T) {
	tests := []struct {
		name  string
		span  SpanData
		check func(t *testing.T, got IngestSpan)
	}{
		{
			name: "workflow",
			span: SpanData{Kind: SpanKindWorkflow, Name: "Agent workflow", Attributes: map[string]any{
				AttrWorkflowName: "Customer support",
				AttrGroupID:      "thread-1",
				AttrTurn:         3,
			}},
			check: func(t *testing.T, got IngestSpan) {
				assert.Equal(t, "Customer support", got.SpanData[AttrWorkflowName])
				assert.Equal(t, "thread-1", got.SpanData[AttrGroupID])
				assert.NotContains(t, got.SpanData, AttrTurn)
			},
		},
		{
			name: "handoff",
			span: SpanData{Kind: SpanKindHandoff, Attributes: map[string]any{AttrFromAgent: "Triage", AttrToAgent: "Refund"}},
			check: func(t *testing.T, got IngestSpan) {
				assert.Equal(t, "Triage", got.SpanData[AttrFromAgent])
				assert.Equal(t, "Refund", got.SpanData[AttrToAgent])
			},
		},
		{
			name: "error",
			span: SpanData{Kind: SpanKindGuardrail, Error: "tripwire"},
			check: func(t *testing.T, got IngestSpan) {
				assert.Equal(t, "tripwire", got.Error["message"])
			},
		},
		{
			name: "custom",
			span: SpanData{Kind: SpanKindCustom, Attributes: map[string]any{"k": "v"}},
			check: func(t *testing.T, got IngestSpan) {
				assert.Equal(t, map[string]any{"k": "v"}, got.SpanData["data"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToIngestSpan(tt.span)
			assert.Equal(t, string(tt.span.Kind), got.SpanData["type"])
			tt.check(t, got)
		})
	}
}

func TestFileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	multi := NewMultiExporter(exporter, &MemoryExporter{})
	require.NoError(t, multi.ExportSpans(context.Background(), []SpanData{
		{SpanID: "span_1", Name: "first", Kind: SpanKindAgent},
		{SpanID: "span_2", Name: "second", Kind: SpanKindFunction},
	}))
	require.NoError(t, multi.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var s SpanData
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &s))
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"first", "second"}, names)
}

func TestMultiExporterJoinsErrors(t *testing.T) {
	mem := &MemoryExporter{}
	multi := NewMultiExporter(&failingExporter{}, mem)

	err := multi.ExportSpans(context.Background(), []SpanData{{SpanID: "span_1"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Len(t, mem.Spans(), 1)
}

type recordingOTelTracer struct {
	noop.Tracer
	spans []*recordingOTelSpan
}

func (t *recordingOTelTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingOTelSpan{name: name, attrs: cfg.Attributes()}
	t.spans = append(t.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingOTelSpan struct {
	noop.Span
	name   string
	attrs  []attribute.KeyValue
	errs   []error
	status codes.Code
	ended  bool
}

func (s *recordingOTelSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.attrs = append(s.attrs, kv...)
}

func (s *recordingOTelSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordingOTelSpan) SetStatus(code codes.Code, _ string) {
	s.status = code
}

func (s *recordingOTelSpan) End(...trace.SpanEndOption) {
	s.ended = true
}

func (s *recordingOTelSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOTelTracer(t *testing.T) {
	otelTracer := &recordingOTelTracer{}
	tracer := NewOTelTracer(otelTracer)

	span, ctx := tracer.StartSpan(context.Background(), "Weather Agent", SpanKindAgent, map[string]any{
		AttrAgent: "Weather Agent",
		AttrTools: []string{"get_weather"},
		AttrTurn:  1,
	})
	assert.Same(t, span, SpanFromContext(ctx))

	span.SetAttributes(map[string]any{AttrUsage: map[string]int{"total_tokens": 10}})
	span.RecordError(errors.New("model failed"))
	span.End()

	require.Len(t, otelTracer.spans, 1)
	rec := otelTracer.spans[0]
	assert.Equal(t, "Weather Agent", rec.name)
	assert.True(t, rec.ended)
	assert.Equal(t, codes.Error, rec.status)
	require.Len(t, rec.errs, 1)

	kind, ok := rec.attr("span.kind")
	require.True(t, ok)
	assert.Equal(t, "agent", kind.AsString())
	tools, ok := rec.attr(AttrTools)
	require.True(t, ok)
	assert.Equal(t, []string{"get_weather"}, tools.AsStringSlice())
	turn, ok := rec.attr(AttrTurn)
	require.True(t, ok)
	assert.Equal(t, int64(1), turn.AsInt64())
	usage, ok := rec.attr(AttrUsage)
	require.True(t, ok)
	assert.JSONEq(t, `{"total_tokens":10}`, usage.AsString())

	data := span.Data()
	assert.Equal(t, SpanKindAgent, data.Kind)
	assert.Equal(t, "model failed", data.Error)
	assert.NoError(t, tracer.Close(context.Background()))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OPENAI_TRACING_ENABLED", "true")
	t.Setenv("OPENAI_TRACE_EXPORT_ENABLED", "1")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TRACE_ENDPOINT", "http://localhost:9999/ingest")
	t.Setenv("OPENAI_TRACE_FILE", "")
	t.Setenv("OPENAI_TRACE_OTEL", "")
	t.Setenv("OPENAI_TRACE_BATCH_SIZE", "25")
	t.Setenv("OPENAI_TRACE_EXPORT_INTERVAL", "2")

	cfg := ConfigFromEnv()

	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Export)
	assert.False(t, cfg.OTel)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "http://localhost:9999/ingest", cfg.Endpoint)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.ExportInterval)
}

func TestConfigFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("OPENAI_TRACE_BATCH_SIZE", "-3")
	t.Setenv("OPENAI_TRACE_EXPORT_INTERVAL", "soon")

	cfg := ConfigFromEnv()

	assert.Equal(t, DefaultConfig().BatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultConfig().ExportInterval, cfg.ExportInterval)
}

func TestNew(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		tracer, err := New(context.Background(), DefaultConfig(), nil)
		require.NoError(t, err)
		assert.IsType(t, NoopTracer{}, tracer)
	})

	t.Run("otel", func(t *testing.T) {
		tracer, err := New(context.Background(), Config{Enabled: true, OTel: true}, nil)
		require.NoError(t, err)
		assert.IsType(t, &OTelTracer{}, tracer)
	})

	t.Run("no exporter", func(t *testing.T) {
		_, err := New(context.Background(), Config{Enabled: true}, nil)
		assert.Error(t, err)
	})

	t.Run("export without key", func(t *testing.T) {
		_, err := New(context.Background(), Config{Enabled: true, Export: true}, nil)
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "spans.jsonl")
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.File = path

		tracer, err := New(context.Background(), cfg, nil)
		require.NoError(t, err)

		span, _ := tracer.StartSpan(context.Background(), "run", SpanKindWorkflow, nil)
		span.End()
		require.NoError(t, tracer.Close(context.Background()))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"name":"run"`)
	})
}
