package trace

// TraceFlags is a single-byte bitfield carried alongside a SpanContext.
type TraceFlags byte

// FlagsSampled is bit 0: the span (and its descendants, by default) should
// be exported.
const FlagsSampled = TraceFlags(1 << 0)

// IsSampled reports whether the sampled bit is set.
func (f TraceFlags) IsSampled() bool { return f&FlagsSampled != 0 }

// WithSampled returns a copy of f with the sampled bit set to sampled.
func (f TraceFlags) WithSampled(sampled bool) TraceFlags {
	if sampled {
		return f | FlagsSampled
	}
	return f &^ FlagsSampled
}
