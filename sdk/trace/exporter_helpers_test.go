package trace

import (
	"context"
	"sync"
	"sync/atomic"

	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
)

// countingExporter records how many ExportSpans calls it received, and
// every span handed to it, for assertions in tests across this package.
type countingExporter struct {
	mu    sync.Mutex
	spans []exporttrace.SpanData
	calls int32
}

func (e *countingExporter) ExportSpans(_ context.Context, spans []exporttrace.SpanData) exporttrace.ExportResult {
	atomic.AddInt32(&e.calls, 1)
	e.mu.Lock()
	e.spans = append(e.spans, spans...)
	e.mu.Unlock()
	return exporttrace.ResultSuccess
}

func (e *countingExporter) Shutdown(context.Context) error { return nil }

func (e *countingExporter) exportCount() int32 { return atomic.LoadInt32(&e.calls) }

func (e *countingExporter) exportedSpans() []exporttrace.SpanData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]exporttrace.SpanData(nil), e.spans...)
}
