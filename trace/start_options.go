package trace

import (
	"time"

	"github.com/lumentrace/lumentrace-go/attribute"
)

// SpanStartConfig carries the fields a SpanStartOption can set. It models
// spec §4.6's builder contract: name is the Start call's spanName argument;
// everything else is optional.
type SpanStartConfig struct {
	Kind          SpanKind
	Attributes    []attribute.KeyValue
	Links         []Link
	Timestamp     time.Time
	NewRoot       bool
	ParentContext *SpanContext // explicit parent SpanContext, if set
	ParentSpan    Span         // explicit parent Span, if set
}

// SpanStartOption configures Tracer.Start.
type SpanStartOption interface {
	applyStart(*SpanStartConfig)
}

type spanStartOptionFunc func(*SpanStartConfig)

func (f spanStartOptionFunc) applyStart(c *SpanStartConfig) { f(c) }

// WithSpanKind sets the span's kind. Defaults to SpanKindInternal.
func WithSpanKind(kind SpanKind) SpanStartOption {
	return spanStartOptionFunc(func(c *SpanStartConfig) { c.Kind = kind })
}

// WithAttributes sets pre-start attributes.
func WithAttributes(kvs ...attribute.KeyValue) SpanStartOption {
	return spanStartOptionFunc(func(c *SpanStartConfig) { c.Attributes = append(c.Attributes, kvs...) })
}

// WithLinks sets pre-start links.
func WithLinks(links ...Link) SpanStartOption {
	return spanStartOptionFunc(func(c *SpanStartConfig) { c.Links = append(c.Links, links...) })
}

// WithTimestamp overrides the span's start time (defaults to time.Now()).
func WithTimestamp(t time.Time) SpanStartOption {
	return spanStartOptionFunc(func(c *SpanStartConfig) { c.Timestamp = t })
}

// WithNewRoot forces a root span (fresh TraceID) even if a parent would
// otherwise be found by the resolution algorithm in spec §4.6.
func WithNewRoot() SpanStartOption {
	return spanStartOptionFunc(func(c *SpanStartConfig) { c.NewRoot = true })
}

// WithParent sets an explicit parent SpanContext, taking precedence over
// any Span or Context carried parent (spec §4.6, resolution step 1).
func WithParent(sc SpanContext) SpanStartOption {
	return spanStartOptionFunc(func(c *SpanStartConfig) { c.ParentContext = &sc })
}

// WithParentSpan sets an explicit parent Span, taking precedence over any
// Context-carried parent but yielding to WithParent (spec §4.6, resolution
// step 2).
func WithParentSpan(span Span) SpanStartOption {
	return spanStartOptionFunc(func(c *SpanStartConfig) { c.ParentSpan = span })
}

// NewSpanStartConfig applies opts and returns the resulting config.
func NewSpanStartConfig(opts ...SpanStartOption) SpanStartConfig {
	var c SpanStartConfig
	for _, o := range opts {
		o.applyStart(&c)
	}
	return c
}
