// Package trace defines the narrow sink contract span processors forward
// finished spans through (spec §6): SpanExporter plus the SpanData
// snapshot it consumes. Concrete transports (Jaeger, OTLP, logging) are
// out of scope; exporters/prometheus is the one exception the core spec
// fixes, and it lives on the metric side.
package trace

import (
	"context"
	"time"

	"github.com/lumentrace/lumentrace-go/attribute"
	"github.com/lumentrace/lumentrace-go/trace"
)

// ExportResult is the outcome SpanExporter.ExportSpans reports per spec
// §6's {SUCCESS, FAILURE} sink contract.
type ExportResult int

const (
	ResultSuccess ExportResult = iota
	ResultFailure
)

// SpanData is the immutable snapshot produced exactly once by a Span's
// first End() call and published to every registered processor (spec
// §4.6, invariant 3).
type SpanData struct {
	SpanContext     trace.SpanContext
	ParentSpanID    trace.SpanID
	Name            string
	Kind            trace.SpanKind
	StartTime       time.Time
	EndTime         time.Time
	Status          trace.Status
	Attributes      attribute.Set
	Events          []trace.Event
	Links           []trace.Link
	DroppedAttrs    int
	DroppedEvents   int
	DroppedLinks    int
}

// SpanExporter is the sink span processors forward finished spans to.
// Implementations must not block indefinitely; Shutdown should release
// any held resources and is called at most once.
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []SpanData) ExportResult
	Shutdown(ctx context.Context) error
}
