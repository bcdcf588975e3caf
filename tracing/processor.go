// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/ryichk/agentloop/logging"
)

// BatchSpanProcessorOptions defines configuration options for the batch span processor
type BatchSpanProcessorOptions struct {
	// MaxQueueSize is the number of ended spans buffered before new ones are dropped
	MaxQueueSize int
	// MaxBatchSize is the maximum number of spans to export at once
	MaxBatchSize int
	// ExportInterval is the interval for exporting
	ExportInterval time.Duration
	// ExportTimeout bounds a single export call
	ExportTimeout time.Duration
	Logger        logging.Logger
	// LogContext is the parent of the contexts the background export loop
	// logs with. Its cancellation is ignored.
	LogContext context.Context
}

// BatchProcessorOption is a function that sets options for the batch processor
type BatchProcessorOption func(*BatchSpanProcessorOptions)

// WithMaxQueueSize sets the maximum queue size
func WithMaxQueueSize(size int) BatchProcessorOption {
	return func(o *BatchSpanProcessorOptions) {
		if size > 0 {
			o.MaxQueueSize = size
		}
	}
}

// WithBatchSize sets the batch size
func WithBatchSize(size int) BatchProcessorOption {
	return func(o *BatchSpanProcessorOptions) {
		if size > 0 {
			o.MaxBatchSize = size
		}
	}
}

// WithExportInterval sets the export interval
func WithExportInterval(interval time.Duration) BatchProcessorOption {
	return func(o *BatchSpanProcessorOptions) {
		if interval > 0 {
			o.ExportInterval = interval
		}
	}
}

// WithLogger sets the logger used to report export failures
func WithLogger(l logging.Logger) BatchProcessorOption {
	return func(o *BatchSpanProcessorOptions) {
		o.Logger = logging.OrNoop(l)
	}
}

// WithLogContext sets the context export failures are logged with, e.g. one
// returned by logging.Context.
func WithLogContext(ctx context.Context) BatchProcessorOption {
	return func(o *BatchSpanProcessorOptions) {
		if ctx != nil {
			o.LogContext = context.WithoutCancel(ctx)
		}
	}
}

// BatchSpanProcessor accumulates ended spans and exports them in batches
// from a background goroutine.
type BatchSpanProcessor struct {
	exporter SpanExporter
	options  BatchSpanProcessorOptions

	queue    chan SpanData
	flushReq chan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewBatchSpanProcessor(exporter SpanExporter, opts ...BatchProcessorOption) *BatchSpanProcessor {
	options := BatchSpanProcessorOptions{
		MaxQueueSize:   1000,
		MaxBatchSize:   100,
		ExportInterval: 5 * time.Second,
		ExportTimeout:  30 * time.Second,
		Logger:         logging.NoopLogger{},
		LogContext:     context.Background(),
	}
	for _, o := range opts {
		o(&options)
	}

	p := &BatchSpanProcessor{
		exporter: exporter,
		options:  options,
		queue:    make(chan SpanData, options.MaxQueueSize),
		flushReq: make(chan chan struct{}),
		done:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.processLoop()
	return p
}

func (p *BatchSpanProcessor) processLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.options.ExportInterval)
	defer ticker.Stop()

	batch := make([]SpanData, 0, p.options.MaxBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.export(batch)
		batch = make([]SpanData, 0, p.options.MaxBatchSize)
	}
	drain := func() {
		for {
			select {
			case span := <-p.queue:
				batch = append(batch, span)
				if len(batch) >= p.options.MaxBatchSize {
					flush()
				}
			default:
				return
			}
		}
	}

	for {
		select {
		case <-p.done:
			drain()
			flush()
			return
		case <-ticker.C:
			flush()
		case reply := <-p.flushReq:
			drain()
			flush()
			close(reply)
		case span := <-p.queue:
			batch = append(batch, span)
			if len(batch) >= p.options.MaxBatchSize {
				flush()
			}
		}
	}
}

func (p *BatchSpanProcessor) export(batch []SpanData) {
	ctx, cancel := context.WithTimeout(p.options.LogContext, p.options.ExportTimeout)
	defer cancel()

	if err := p.exporter.ExportSpans(ctx, batch); err != nil {
		p.options.Logger.Error(ctx, "failed to export spans", "count", len(batch), "err", err)
		return
	}
	p.options.Logger.Debug(ctx, "exported spans", "count", len(batch))
}

func (p *BatchSpanProcessor) OnStart(span SpanData) {}

// OnEnd queues span for export. Spans are dropped while the queue is full.
func (p *BatchSpanProcessor) OnEnd(span SpanData) {
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.queue <- span:
	default:
		p.options.Logger.Warn(p.options.LogContext, "span queue is full, dropping span", "span", span.Name)
	}
}

// ForceFlush exports every queued span before returning.
func (p *BatchSpanProcessor) ForceFlush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case p.flushReq <- reply:
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown exports the remaining spans and shuts the exporter down.
func (p *BatchSpanProcessor) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.done) })

	stopped := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(stopped)
	}()

	var err error
	select {
	case <-stopped:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if exporterErr := p.exporter.Shutdown(ctx); err == nil {
		err = exporterErr
	}
	return err
}

// SimpleSpanProcessor exports every span synchronously as it ends.
type SimpleSpanProcessor struct {
	exporter SpanExporter
	logger   logging.Logger
}

func NewSimpleSpanProcessor(exporter SpanExporter, logger logging.Logger) *SimpleSpanProcessor {
	return &SimpleSpanProcessor{exporter: exporter, logger: logging.OrNoop(logger)}
}

func (p *SimpleSpanProcessor) OnStart(span SpanData) {}

func (p *SimpleSpanProcessor) OnEnd(span SpanData) {
	ctx := context.Background()
	if err := p.exporter.ExportSpans(ctx, []SpanData{span}); err != nil {
		p.logger.Error(ctx, "failed to export span", "span", span.Name, "err", err)
	}
}

func (p *SimpleSpanProcessor) ForceFlush(ctx context.Context) error {
	return nil
}

func (p *SimpleSpanProcessor) Shutdown(ctx context.Context) error {
	return p.exporter.Shutdown(ctx)
}
