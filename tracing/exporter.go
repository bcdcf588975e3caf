// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

const (
	// DefaultTraceEndpoint is the OpenAI trace ingest endpoint
	DefaultTraceEndpoint = "https://api.openai.com/v1/traces/ingest"

	// DefaultTimeout is the default timeout for API requests
	DefaultTimeout = 10 * time.Second

	// MaxRetries is the default number of retries for failed requests
	MaxRetries = 3
)

// HTTPExporterOptions configures the HTTPExporter
type HTTPExporterOptions struct {
	// APIKey authenticates against the ingest endpoint (required)
	APIKey string

	// Endpoint defaults to DefaultTraceEndpoint
	Endpoint string

	// Timeout is the timeout for one request (optional, defaults to DefaultTimeout)
	Timeout time.Duration

	// MaxRetries bounds retries on 5xx and 429 responses (optional, defaults to MaxRetries)
	MaxRetries int

	// RetryBackoff is the initial delay between retries, doubled each time
	RetryBackoff time.Duration
}

// HTTPExporter posts spans to an ingest endpoint speaking the OpenAI
// traces format.
type HTTPExporter struct {
	options HTTPExporterOptions
	client  *http.Client
}

// IngestSpan is the wire form of a span for the ingest endpoint
type IngestSpan struct {
	Object    string         `json:"object"`
	ID        string         `json:"id"`
	TraceID   string         `json:"trace_id"`
	ParentID  string         `json:"parent_id,omitempty"`
	StartedAt string         `json:"started_at"`
	EndedAt   string         `json:"ended_at"`
	SpanData  map[string]any `json:"span_data"`
	Error     map[string]any `json:"error,omitempty"`
}

func NewHTTPExporter(options HTTPExporterOptions) (*HTTPExporter, error) {
	if options.APIKey == "" {
		return nil, errors.New("trace export API key is required")
	}
	if options.Endpoint == "" {
		options.Endpoint = DefaultTraceEndpoint
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}
	if options.MaxRetries == 0 {
		options.MaxRetries = MaxRetries
	}
	if options.RetryBackoff == 0 {
		options.RetryBackoff = 500 * time.Millisecond
	}
	return &HTTPExporter{
		options: options,
		client:  &http.Client{Timeout: options.Timeout},
	}, nil
}

// ExportSpans posts spans in one request, retrying transient failures.
func (e *HTTPExporter) ExportSpans(ctx context.Context, spans []SpanData) error {
	if len(spans) == 0 {
		return nil
	}
	data := make([]IngestSpan, 0, len(spans))
	for _, s := range spans {
		data = append(data, ToIngestSpan(s))
	}
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return fmt.Errorf("failed to marshal traces: %w", err)
	}

	backoff := e.options.RetryBackoff
	for attempt := 0; ; attempt++ {
		retry, err := e.post(ctx, body)
		if err == nil {
			return nil
		}
		if !retry || attempt >= e.options.MaxRetries {
			return err
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// post sends one request and reports whether a failure is worth retrying.
func (e *HTTPExporter) post(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.options.Endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.options.APIKey)
	req.Header.Set("OpenAI-Beta", "traces=v1")

	resp, err := e.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("failed to send traces: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
	return retry, fmt.Errorf("trace endpoint returned %d: %s", resp.StatusCode, msg)
}

func (e *HTTPExporter) Shutdown(ctx context.Context) error {
	e.client.CloseIdleConnections()
	return nil
}

// spanDataKeys lists, per span kind, the attributes copied into span_data.
var spanDataKeys = map[SpanKind][]string{
	SpanKindWorkflow:   {AttrWorkflowName, AttrGroupID, AttrMetadata},
	SpanKindAgent:      {AttrTools, AttrHandoffs, AttrOutputType},
	SpanKindGeneration: {AttrModel, AttrUsage},
	SpanKindHandoff:    {AttrFromAgent, AttrToAgent},
	SpanKindGuardrail:  {AttrTriggered},
}

// ToIngestSpan converts a span to the ingest wire format.
func ToIngestSpan(s SpanData) IngestSpan {
	spanData := map[string]any{"type": string(s.Kind), "name": s.Name}
	for _, key := range spanDataKeys[s.Kind] {
		if v, ok := s.Attributes[key]; ok {
			spanData[key] = v
		}
	}
	switch s.Kind {
	case SpanKindFunction:
		if name, ok := s.Attributes[AttrToolName]; ok {
			spanData["name"] = name
		}
		if args, ok := s.Attributes[AttrArguments]; ok {
			spanData["input"] = args
		}
		if result, ok := s.Attributes[AttrResult]; ok {
			spanData["output"] = result
		}
	case SpanKindCustom:
		spanData["data"] = s.Attributes
	}

	out := IngestSpan{
		Object:    "trace.span",
		ID:        s.SpanID,
		TraceID:   s.TraceID,
		ParentID:  s.ParentSpanID,
		StartedAt: s.StartTime.Format(time.RFC3339Nano),
		EndedAt:   s.EndTime.Format(time.RFC3339Nano),
		SpanData:  spanData,
	}
	if s.Error != "" {
		out.Error = map[string]any{"message": s.Error}
	}
	return out
}

// FileExporter appends spans to a file as JSON lines.
type FileExporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func NewFileExporter(path string) (*FileExporter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &FileExporter{file: f, enc: json.NewEncoder(f)}, nil
}

func (e *FileExporter) ExportSpans(ctx context.Context, spans []SpanData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range spans {
		if err := e.enc.Encode(s); err != nil {
			return fmt.Errorf("failed to write span %s: %w", s.SpanID, err)
		}
	}
	return nil
}

func (e *FileExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	return err
}

// MultiExporter sends spans to multiple exporters
type MultiExporter struct {
	exporters []SpanExporter
}

func NewMultiExporter(exporters ...SpanExporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

// ExportSpans exports to every exporter and joins their errors.
func (e *MultiExporter) ExportSpans(ctx context.Context, spans []SpanData) error {
	var errs []error
	for _, exp := range e.exporters {
		if err := exp.ExportSpans(ctx, spans); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", exp, err))
		}
	}
	return errors.Join(errs...)
}

func (e *MultiExporter) Shutdown(ctx context.Context) error {
	var errs []error
	for _, exp := range e.exporters {
		if err := exp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", exp, err))
		}
	}
	return errors.Join(errs...)
}

// MemoryExporter keeps exported spans in memory.
type MemoryExporter struct {
	mu    sync.Mutex
	spans []SpanData
}

func (e *MemoryExporter) ExportSpans(ctx context.Context, spans []SpanData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spans = append(e.spans, spans...)
	return nil
}

func (e *MemoryExporter) Shutdown(ctx context.Context) error {
	return nil
}

// Spans returns the spans exported so far.
func (e *MemoryExporter) Spans() []SpanData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]SpanData(nil), e.spans...)
}
