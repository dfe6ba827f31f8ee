package trace

import (
	"context"

	"github.com/lumentrace/lumentrace-go/attribute"
)

type spanContextKey struct{}

// ContextWithSpan returns a copy of ctx carrying span as the current span.
// This is the explicit, stdlib-context.Context propagation path used when
// instrumentation threads a Context through a call chain (as opposed to
// corectx's ambient, goroutine-local "current Context" used when no
// explicit Context is available — spec §4.5/§4.6).
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

// SpanFromContext returns the Span stored in ctx, or a no-op span carrying
// the invalid SpanContext if none was stored (spec's "invalid no-op Span"
// capability — never nil).
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return noopSpan{}
	}
	if s, ok := ctx.Value(spanContextKey{}).(Span); ok && s != nil {
		return s
	}
	return noopSpan{}
}

// noopSpan is the fallback Span returned whenever "current span" is
// absent. All mutators are no-ops; SpanContext returns the invalid
// sentinel.
type noopSpan struct{}

func (noopSpan) SpanContext() SpanContext                    { return invalidSpanContext }
func (noopSpan) IsRecording() bool                           { return false }
func (noopSpan) SetName(string)                              {}
func (noopSpan) SetStatus(StatusCode, string)                {}
func (noopSpan) SetAttributes(...attribute.KeyValue)          {}
func (noopSpan) AddEvent(string, ...attribute.KeyValue)       {}
func (noopSpan) AddLink(Link)                                {}
func (noopSpan) RecordError(error, ...attribute.KeyValue)     {}
func (noopSpan) End(...EndOption)                            {}
func (noopSpan) TracerProvider() TracerProvider              { return noopTracerProvider{} }

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string, _ ...SpanStartOption) (context.Context, Span) {
	return ContextWithSpan(ctx, noopSpan{}), noopSpan{}
}

type noopTracerProvider struct{}

func (noopTracerProvider) Tracer(string, ...TracerOption) Tracer { return noopTracer{} }

// NoopTracerProvider returns a TracerProvider whose Tracers always produce
// the invalid no-op Span. Useful as a safe default before a real provider
// has been installed.
func NoopTracerProvider() TracerProvider { return noopTracerProvider{} }
