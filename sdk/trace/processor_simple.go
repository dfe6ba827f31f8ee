package trace

import (
	"context"

	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
	"github.com/lumentrace/lumentrace-go/internal/log"
)

// SimpleSpanProcessor forwards every ended span to its exporter
// synchronously, inside OnEnd (spec §4.11). Errors are caught and logged,
// never propagated to the caller ending the span.
type SimpleSpanProcessor struct {
	exporter exporttrace.SpanExporter
}

// NewSimpleSpanProcessor wraps exporter in a synchronous processor.
func NewSimpleSpanProcessor(exporter exporttrace.SpanExporter) *SimpleSpanProcessor {
	return &SimpleSpanProcessor{exporter: exporter}
}

func (p *SimpleSpanProcessor) OnStart(*Span) {}

func (p *SimpleSpanProcessor) OnEnd(sd exporttrace.SpanData) {
	result := p.exporter.ExportSpans(context.Background(), []exporttrace.SpanData{sd})
	if result == exporttrace.ResultFailure {
		log.Warn(log.Fields{"component": "simple_span_processor", "span": sd.Name}, "exporter reported failure")
	}
}

func (p *SimpleSpanProcessor) Shutdown(ctx context.Context) error {
	return p.exporter.Shutdown(ctx)
}

func (p *SimpleSpanProcessor) ForceFlush(context.Context) error { return nil }
