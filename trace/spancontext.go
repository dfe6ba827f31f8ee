package trace

// SpanContext is the immutable, serializable identity of a span: a trace
// id, a span id, sampling flags, vendor trace state, and whether the
// context was received from a remote process. SpanContext is a value type;
// all mutators return a new value (spec §3 invariant 1: a SpanContext is
// either fully valid or invalid — NewSpanContext accepts any combination
// of IDs, and IsValid reports false unless both are non-zero).
type SpanContext struct {
	traceID    TraceID
	spanID     SpanID
	traceFlags TraceFlags
	traceState TraceState
	remote     bool
}

// SpanContextConfig carries the fields used to build a SpanContext.
type SpanContextConfig struct {
	TraceID    TraceID
	SpanID     SpanID
	TraceFlags TraceFlags
	TraceState TraceState
	Remote     bool
}

// NewSpanContext builds a SpanContext from its components. It is total:
// an invalid-ID context can be constructed (IsValid will report false), the
// caller decides what to do with it.
func NewSpanContext(cfg SpanContextConfig) SpanContext {
	return SpanContext{
		traceID:    cfg.TraceID,
		spanID:     cfg.SpanID,
		traceFlags: cfg.TraceFlags,
		traceState: cfg.TraceState,
		remote:     cfg.Remote,
	}
}

// TraceID returns the trace identifier.
func (sc SpanContext) TraceID() TraceID { return sc.traceID }

// SpanID returns the span identifier.
func (sc SpanContext) SpanID() SpanID { return sc.spanID }

// TraceFlags returns the sampling flags.
func (sc SpanContext) TraceFlags() TraceFlags { return sc.traceFlags }

// TraceState returns the vendor trace state.
func (sc SpanContext) TraceState() TraceState { return sc.traceState }

// IsRemote reports whether this SpanContext was extracted from a remote
// carrier rather than created locally.
func (sc SpanContext) IsRemote() bool { return sc.remote }

// IsSampled reports whether the sampled flag is set.
func (sc SpanContext) IsSampled() bool { return sc.traceFlags.IsSampled() }

// IsValid reports whether both the trace id and span id are non-zero.
// Per spec §3 invariant 1, any other combination (e.g. a non-zero trace id
// with a zero span id) cannot arise from NewSpanContext's normal use but if
// constructed directly is also treated as invalid here.
func (sc SpanContext) IsValid() bool {
	return sc.traceID.IsValid() && sc.spanID.IsValid()
}

// WithTraceState returns a copy of sc with its TraceState replaced.
func (sc SpanContext) WithTraceState(ts TraceState) SpanContext {
	sc2 := sc
	sc2.traceState = ts
	return sc2
}

// WithRemote returns a copy of sc with the remote flag set.
func (sc SpanContext) WithRemote(remote bool) SpanContext {
	sc2 := sc
	sc2.remote = remote
	return sc2
}

// Equal reports whether two SpanContexts carry the same trace id, span id,
// and flags (trace state and remoteness are excluded).
func (sc SpanContext) Equal(other SpanContext) bool {
	return sc.traceID == other.traceID && sc.spanID == other.spanID && sc.traceFlags == other.traceFlags
}

// invalidSpanContext is the zero-value sentinel: zero IDs, default flags,
// empty trace state.
var invalidSpanContext = SpanContext{}

// InvalidSpanContext returns the invalid sentinel SpanContext.
func InvalidSpanContext() SpanContext { return invalidSpanContext }
