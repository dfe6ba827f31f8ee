package trace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
)

func TestBatchProcessorDropsExactOverflow(t *testing.T) {
	// Testable property 6: after enqueueing Q+K spans, exactly K are
	// dropped. MaxExportBatchSize=1 makes the worker call drain() (and
	// block in the exporter) as soon as it reads the first span, so the
	// remaining enqueues race only against the bounded queue channel, not
	// against the worker continuing to drain it.
	exp := &blockingExporter{unblock: make(chan struct{})}
	const q = 4
	p := NewBatchSpanProcessor(exp,
		WithBatchMaxQueueSize(q), WithBatchMaxExportBatchSize(1), WithBatchScheduleDelay(time.Hour))

	p.OnEnd(exporttrace.SpanData{Name: "first"})
	time.Sleep(20 * time.Millisecond) // let the worker pick it up and block in ExportSpans

	const k = 3
	for i := 0; i < q+k; i++ {
		p.OnEnd(exporttrace.SpanData{Name: "op"})
	}
	time.Sleep(20 * time.Millisecond)

	close(exp.unblock)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	assert.Equal(t, int64(k), p.Dropped())
}

func TestBatchProcessorForceFlush(t *testing.T) {
	exp := &countingExporter{}
	p := NewBatchSpanProcessor(exp, WithBatchScheduleDelay(time.Hour))

	for i := 0; i < 5; i++ {
		p.OnEnd(exporttrace.SpanData{Name: "op"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.ForceFlush(ctx))

	assert.Len(t, exp.exportedSpans(), 5)

	require.NoError(t, p.Shutdown(context.Background()))
}

type blockingExporter struct {
	unblock chan struct{}
}

func (e *blockingExporter) ExportSpans(ctx context.Context, spans []exporttrace.SpanData) exporttrace.ExportResult {
	select {
	case <-e.unblock:
	case <-ctx.Done():
	}
	return exporttrace.ResultSuccess
}

func (e *blockingExporter) Shutdown(context.Context) error { return nil }
