package trace

import (
	"context"
	"time"

	"github.com/lumentrace/lumentrace-go/attribute"
)

// SpanKind classifies the relationship between a span and its remote
// peers, if any.
type SpanKind int

const (
	// SpanKindInternal is the default: an operation with no remote peer.
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

// String implements fmt.Stringer.
func (k SpanKind) String() string {
	switch k {
	case SpanKindServer:
		return "server"
	case SpanKindClient:
		return "client"
	case SpanKindProducer:
		return "producer"
	case SpanKindConsumer:
		return "consumer"
	default:
		return "internal"
	}
}

// StatusCode is the outcome a span records for the operation it represents.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Status is a span's outcome: a code plus an optional human description.
// Descriptions are only meaningful when Code is StatusError, matching the
// OpenTelemetry API convention this package mirrors.
type Status struct {
	Code        StatusCode
	Description string
}

// Event is a timestamped annotation attached to a span.
type Event struct {
	Name       string
	Time       time.Time
	Attributes attribute.Set
}

// Link associates a span with another (possibly remote) SpanContext, e.g.
// for batched/fan-in operations.
type Link struct {
	SpanContext SpanContext
	Attributes  attribute.Set
}

// Span is the mutation surface instrumentation code is handed after
// starting an operation. Every mutator is total: calls made after the span
// has ended, or while it is not recording, are silently dropped (spec §4.6).
// Span never panics or returns an error to instrumentation code; invalid
// inputs (such as an attribute with an empty key or no value) are dropped
// without a log entry and without being counted.
type Span interface {
	// SpanContext returns this span's identity. Valid even on a no-op span
	// (it returns the invalid sentinel in that case).
	SpanContext() SpanContext

	// IsRecording reports whether operations on this span are being
	// recorded, i.e. whether End has not yet been called and the sampling
	// decision was not NotRecord.
	IsRecording() bool

	// SetName changes the span's operation name.
	SetName(name string)

	// SetStatus sets the span's status. Calling with StatusOK after
	// StatusError has been set is a no-op: a span's status cannot be
	// downgraded to OK once an error is recorded, matching OpenTelemetry's
	// API contract.
	SetStatus(code StatusCode, description string)

	// SetAttributes merges the given attributes into the span's attribute
	// set, subject to the configured cap (overflow is counted, not
	// rejected).
	SetAttributes(kvs ...attribute.KeyValue)

	// AddEvent appends a timestamped event, subject to the configured cap.
	AddEvent(name string, kvs ...attribute.KeyValue)

	// AddLink appends a link, subject to the configured cap. Per spec §4.6,
	// links are normally supplied pre-start via span options; AddLink
	// covers the rarer post-start case.
	AddLink(link Link)

	// RecordError adds an exception event for err, with optional
	// attributes. It does not itself set the span's status.
	RecordError(err error, kvs ...attribute.KeyValue)

	// End completes the span. End is idempotent: only the first call
	// publishes a SpanData snapshot to registered processors (spec §3,
	// invariant 3).
	End(opts ...EndOption)

	// TracerProvider returns the provider that created this span's tracer,
	// so instrumentation can derive sibling tracers/meters without holding
	// onto a separate reference.
	TracerProvider() TracerProvider
}

// EndOption configures Span.End.
type EndOption interface {
	applyEnd(*EndConfig)
}

// EndConfig carries the configurable fields of Span.End.
type EndConfig struct {
	Timestamp time.Time
}

type endOptionFunc func(*EndConfig)

func (f endOptionFunc) applyEnd(c *EndConfig) { f(c) }

// WithEndTimestamp overrides the end timestamp that would otherwise default
// to time.Now().
func WithEndTimestamp(t time.Time) EndOption {
	return endOptionFunc(func(c *EndConfig) { c.Timestamp = t })
}

// NewEndConfig applies opts and returns the resulting EndConfig.
func NewEndConfig(opts ...EndOption) EndConfig {
	var c EndConfig
	for _, o := range opts {
		o.applyEnd(&c)
	}
	return c
}

// Tracer creates spans. It is a lightweight handle obtained from a
// TracerProvider and is safe for concurrent use.
type Tracer interface {
	// Start begins a new span as described by spec §4.6's parent
	// resolution algorithm, returning a Context carrying the new span
	// alongside the Span itself.
	Start(ctx context.Context, spanName string, opts ...SpanStartOption) (context.Context, Span)
}

// TracerProvider is the factory for named Tracers. Instrumentation
// libraries call Tracer(name, opts...) once and cache the result.
type TracerProvider interface {
	Tracer(instrumentationName string, opts ...TracerOption) Tracer
}

// TracerOption configures TracerProvider.Tracer.
type TracerOption interface {
	applyTracer(*TracerConfig)
}

// TracerConfig carries the configurable fields of TracerProvider.Tracer.
type TracerConfig struct {
	InstrumentationVersion string
	SchemaURL              string
}

type tracerOptionFunc func(*TracerConfig)

func (f tracerOptionFunc) applyTracer(c *TracerConfig) { f(c) }

// WithInstrumentationVersion sets the version of the instrumentation
// library registering the tracer.
func WithInstrumentationVersion(version string) TracerOption {
	return tracerOptionFunc(func(c *TracerConfig) { c.InstrumentationVersion = version })
}

// WithSchemaURL sets the semantic-conventions schema URL associated with
// the tracer.
func WithSchemaURL(schemaURL string) TracerOption {
	return tracerOptionFunc(func(c *TracerConfig) { c.SchemaURL = schemaURL })
}

// NewTracerConfig applies opts and returns the resulting TracerConfig.
func NewTracerConfig(opts ...TracerOption) TracerConfig {
	var c TracerConfig
	for _, o := range opts {
		o.applyTracer(&c)
	}
	return c
}
