package trace

import (
	"context"

	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
)

// SpanProcessor is the capability set spec §4.11 assigns every pipeline
// stage a finished (or starting) span passes through.
type SpanProcessor interface {
	// OnStart is invoked synchronously when a span transitions
	// BUILDING->RECORDING, before any mutation is observable elsewhere.
	OnStart(span *Span)
	// OnEnd is invoked at most once per span, after the end timestamp is
	// finalized (spec §5, ordering guarantees).
	OnEnd(sd exporttrace.SpanData)
	// Shutdown releases any resources the processor owns. Called at most
	// once.
	Shutdown(ctx context.Context) error
	// ForceFlush blocks until any buffered spans have been handed to the
	// exporter, or ctx is done.
	ForceFlush(ctx context.Context) error
}
