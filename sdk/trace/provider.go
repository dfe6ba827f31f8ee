// TracerProvider and Tracer: the factory/registry spec §4.8 specifies,
// plus Tracer.Start's parent-resolution algorithm (spec §4.6). Grounded on
// the teacher's ddtrace.Tracer/StartSpan contract, generalized to the
// spec's five-step parent resolution and decision-driven recording state.
package trace

import (
	"context"
	"sync"
	"time"

	"github.com/lumentrace/lumentrace-go/attribute"
	"github.com/lumentrace/lumentrace-go/corectx"
	coretrace "github.com/lumentrace/lumentrace-go/trace"
)

const (
	defaultMaxAttributes = attribute.DefaultCap
	defaultMaxEvents     = 128
	defaultMaxLinks      = 128
)

// ProviderConfig carries TracerProvider construction options.
type ProviderConfig struct {
	Sampler       Sampler
	MaxAttributes int
	MaxEvents     int
	MaxLinks      int
}

// ProviderOption configures NewTracerProvider.
type ProviderOption interface{ apply(*ProviderConfig) }

type providerOptionFunc func(*ProviderConfig)

func (f providerOptionFunc) apply(c *ProviderConfig) { f(c) }

// WithSampler sets the provider's sampler. Defaults to AlwaysOnSampler.
func WithSampler(s Sampler) ProviderOption {
	return providerOptionFunc(func(c *ProviderConfig) { c.Sampler = s })
}

// WithSpanLimits overrides the default attribute/event/link caps (each
// defaults to 128, matching attribute.DefaultCap).
func WithSpanLimits(maxAttributes, maxEvents, maxLinks int) ProviderOption {
	return providerOptionFunc(func(c *ProviderConfig) {
		c.MaxAttributes, c.MaxEvents, c.MaxLinks = maxAttributes, maxEvents, maxLinks
	})
}

// TracerProvider is the sdk's concrete implementation of
// coretrace.TracerProvider: a named-tracer registry, the active sampler,
// and the registered span processor pipeline (spec §4.8).
type TracerProvider struct {
	mu      sync.Mutex
	tracers map[tracerKey]*Tracer
	procs   []SpanProcessor

	cfg ProviderConfig
}

type tracerKey struct {
	name, version string
}

var _ coretrace.TracerProvider = (*TracerProvider)(nil)

// NewTracerProvider builds a TracerProvider with the given processors and
// options. At least one processor is typical but not required; a
// provider with no processors simply discards ended spans after
// recording them in-process.
func NewTracerProvider(procs []SpanProcessor, opts ...ProviderOption) *TracerProvider {
	cfg := ProviderConfig{
		Sampler:       AlwaysOnSampler{},
		MaxAttributes: defaultMaxAttributes,
		MaxEvents:     defaultMaxEvents,
		MaxLinks:      defaultMaxLinks,
	}
	for _, o := range opts {
		o.apply(&cfg)
	}
	return &TracerProvider{
		tracers: make(map[tracerKey]*Tracer),
		procs:   append([]SpanProcessor(nil), procs...),
		cfg:     cfg,
	}
}

func (tp *TracerProvider) Tracer(name string, opts ...coretrace.TracerOption) coretrace.Tracer {
	cfg := coretrace.NewTracerConfig(opts...)
	key := tracerKey{name: name, version: cfg.InstrumentationVersion}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	if t, ok := tp.tracers[key]; ok {
		return t
	}
	t := &Tracer{provider: tp, name: name, version: cfg.InstrumentationVersion, schemaURL: cfg.SchemaURL}
	tp.tracers[key] = t
	return t
}

func (tp *TracerProvider) processors() []SpanProcessor {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.procs
}

// Shutdown shuts down every registered processor.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, p := range tp.processors() {
		if err := p.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ForceFlush flushes every registered processor.
func (tp *TracerProvider) ForceFlush(ctx context.Context) error {
	var firstErr error
	for _, p := range tp.processors() {
		if err := p.ForceFlush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Tracer is a lightweight, cached handle that creates spans (spec §4.8).
type Tracer struct {
	provider  *TracerProvider
	name      string
	version   string
	schemaURL string
}

var _ coretrace.Tracer = (*Tracer)(nil)

// Start implements spec §4.6's parent-resolution algorithm:
//  1. explicit parent SpanContext (WithParent)
//  2. explicit parent Span (WithParentSpan)
//  3. the Span carried by ctx (the explicit-Context path)
//  4. the ambient current span on this goroutine (corectx fallback)
//  5. otherwise, a root: fresh TraceID + fresh SpanID
func (t *Tracer) Start(ctx context.Context, name string, opts ...coretrace.SpanStartOption) (context.Context, coretrace.Span) {
	cfg := coretrace.NewSpanStartConfig(opts...)

	parent := t.resolveParent(ctx, cfg)

	var traceID coretrace.TraceID
	var parentSpanID coretrace.SpanID
	var traceState coretrace.TraceState
	if !cfg.NewRoot && parent.IsValid() {
		traceID = parent.TraceID()
		parentSpanID = parent.SpanID()
		traceState = parent.TraceState()
	} else {
		traceID = coretrace.NewTraceID()
	}
	spanID := coretrace.NewSpanID()

	result := t.provider.cfg.Sampler.ShouldSample(SamplingParameters{
		ParentContext: parent,
		TraceID:       traceID,
		Name:          name,
		Kind:          cfg.Kind,
		Attributes:    cfg.Attributes,
		Links:         cfg.Links,
	})

	flags := coretrace.TraceFlags(0).WithSampled(result.Decision == RecordAndSample)
	sc := coretrace.NewSpanContext(coretrace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		TraceState: traceState,
	})

	start := cfg.Timestamp
	if start.IsZero() {
		start = time.Now()
	}

	attrs := attribute.NewBuilder(t.provider.cfg.MaxAttributes)
	attrs.Put(cfg.Attributes...)
	attrs.Put(result.Attributes...)

	s := &Span{
		spanContext:  sc,
		parentSpanID: parentSpanID,
		name:         name,
		kind:         cfg.Kind,
		startTime:    start,
		attrs:        attrs,
		links:        append([]coretrace.Link(nil), cfg.Links...),
		maxEvents:    t.provider.cfg.MaxEvents,
		maxLinks:     t.provider.cfg.MaxLinks,
		state:        stateRecording,
		recording:    result.Decision != NotRecord,
		tracer:       t,
	}

	for _, p := range t.provider.processors() {
		p.OnStart(s)
	}

	return contextWithSpan(ctx, s), s
}

func (t *Tracer) resolveParent(ctx context.Context, cfg coretrace.SpanStartConfig) coretrace.SpanContext {
	if cfg.ParentContext != nil {
		return *cfg.ParentContext
	}
	if cfg.ParentSpan != nil {
		return cfg.ParentSpan.SpanContext()
	}
	if ctx != nil {
		if sc := coretrace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			return sc
		}
	}
	if sc := corectx.CurrentSpan().SpanContext(); sc.IsValid() {
		return sc
	}
	return coretrace.InvalidSpanContext()
}
