package trace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
	"github.com/lumentrace/lumentrace-go/internal/log"
)

const (
	defaultBatchMaxQueueSize   = 2048
	defaultBatchMaxExportBatch = 512
	defaultBatchScheduleDelay  = 5 * time.Second
)

// BatchSpanProcessorConfig configures a BatchSpanProcessor.
type BatchSpanProcessorConfig struct {
	MaxQueueSize       int
	MaxExportBatchSize int
	ScheduleDelay      time.Duration
}

// BatchSpanProcessorOption configures NewBatchSpanProcessor.
type BatchSpanProcessorOption func(*BatchSpanProcessorConfig)

// WithBatchMaxQueueSize bounds the pending-span queue.
func WithBatchMaxQueueSize(n int) BatchSpanProcessorOption {
	return func(c *BatchSpanProcessorConfig) { c.MaxQueueSize = n }
}

// WithBatchMaxExportBatchSize bounds the size of a single export call.
func WithBatchMaxExportBatchSize(n int) BatchSpanProcessorOption {
	return func(c *BatchSpanProcessorConfig) { c.MaxExportBatchSize = n }
}

// WithBatchScheduleDelay sets the worker's drain deadline.
func WithBatchScheduleDelay(d time.Duration) BatchSpanProcessorOption {
	return func(c *BatchSpanProcessorConfig) { c.ScheduleDelay = d }
}

// BatchSpanProcessor buffers ended spans in a bounded queue and drains
// them on a worker goroutine in batches of N or on a deadline, dropping
// spans (with a counter) on overflow (spec §4.11, testable property 6).
type BatchSpanProcessor struct {
	exporter exporttrace.SpanExporter
	cfg      BatchSpanProcessorConfig

	queueCh chan exporttrace.SpanData
	dropped int64

	flushCh  chan chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewBatchSpanProcessor starts the worker goroutine and returns the
// processor.
func NewBatchSpanProcessor(exporter exporttrace.SpanExporter, opts ...BatchSpanProcessorOption) *BatchSpanProcessor {
	cfg := BatchSpanProcessorConfig{
		MaxQueueSize:       defaultBatchMaxQueueSize,
		MaxExportBatchSize: defaultBatchMaxExportBatch,
		ScheduleDelay:      defaultBatchScheduleDelay,
	}
	for _, o := range opts {
		o(&cfg)
	}
	p := &BatchSpanProcessor{
		exporter: exporter,
		cfg:      cfg,
		queueCh:  make(chan exporttrace.SpanData, cfg.MaxQueueSize),
		flushCh:  make(chan chan struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *BatchSpanProcessor) OnStart(*Span) {}

// OnEnd enqueues sd. If the queue is full the span is dropped and counted
// rather than blocking the caller ending the span.
func (p *BatchSpanProcessor) OnEnd(sd exporttrace.SpanData) {
	select {
	case p.queueCh <- sd:
	default:
		atomic.AddInt64(&p.dropped, 1)
	}
}

// Dropped returns the number of spans dropped for queue overflow so far.
func (p *BatchSpanProcessor) Dropped() int64 { return atomic.LoadInt64(&p.dropped) }

func (p *BatchSpanProcessor) run() {
	defer close(p.doneCh)

	batch := make([]exporttrace.SpanData, 0, p.cfg.MaxExportBatchSize)
	ticker := time.NewTicker(p.cfg.ScheduleDelay)
	defer ticker.Stop()

	drain := func() {
		if len(batch) == 0 {
			return
		}
		if p.exporter.ExportSpans(context.Background(), batch) == exporttrace.ResultFailure {
			log.Warn(log.Fields{"component": "batch_span_processor", "batch_size": len(batch)}, "exporter reported failure")
		}
		batch = batch[:0]
	}

loop:
	for {
		select {
		case sd := <-p.queueCh:
			batch = append(batch, sd)
			if len(batch) >= p.cfg.MaxExportBatchSize {
				drain()
			}
		case <-ticker.C:
			drain()
		case reply := <-p.flushCh:
			// Drain whatever is already queued without blocking on new
			// arrivals, then drain the accumulated batch.
			for {
				select {
				case sd := <-p.queueCh:
					batch = append(batch, sd)
				default:
					drain()
					close(reply)
					continue loop
				}
			}
		case <-p.stopCh:
			for {
				select {
				case sd := <-p.queueCh:
					batch = append(batch, sd)
				default:
					drain()
					return
				}
			}
		}
	}
}

// ForceFlush blocks until every queued span has been handed to the
// exporter, or ctx is done.
func (p *BatchSpanProcessor) ForceFlush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case p.flushCh <- reply:
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

// Shutdown stops the worker after draining the queue, then shuts down the
// exporter. Spec §5 gives shutdown an implicit 5-second budget; callers
// should pass a ctx carrying that deadline.
func (p *BatchSpanProcessor) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stopCh) })
	select {
	case <-p.doneCh:
	case <-ctx.Done():
		log.Warn(log.Fields{"component": "batch_span_processor"}, "shutdown exceeded budget, forcing teardown")
	}
	return p.exporter.Shutdown(ctx)
}
