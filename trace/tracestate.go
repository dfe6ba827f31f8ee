package trace

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTraceStateEntries = 32

var (
	traceStateKeyRe   = regexp.MustCompile(`^[a-z0-9][-a-z0-9_*/@]{0,255}$`)
	traceStateValueRe = regexp.MustCompile(`^[\x20-\x2B\x2D-\x3C\x3E-\x7E]{0,255}$`)
)

// traceStateMember is a single W3C-style vendor entry.
type traceStateMember struct {
	Key   string
	Value string
}

// TraceState is an immutable, insertion-ordered (most-recent-first) list of
// vendor key/value entries, bounded to 32 entries. The zero value is the
// empty TraceState.
type TraceState struct {
	members []traceStateMember
}

// Len returns the number of entries.
func (ts TraceState) Len() int { return len(ts.members) }

// Get returns the value for key, and whether it was present.
func (ts TraceState) Get(key string) (string, bool) {
	for _, m := range ts.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// Walk calls fn for every entry in most-recent-first order. Walk stops early
// if fn returns false.
func (ts TraceState) Walk(fn func(key, value string) bool) {
	for _, m := range ts.members {
		if !fn(m.Key, m.Value) {
			return
		}
	}
}

// String renders the TraceState using the W3C tracestate wire format:
// comma-separated "key=value" pairs, most-recent-first.
func (ts TraceState) String() string {
	if len(ts.members) == 0 {
		return ""
	}
	parts := make([]string, len(ts.members))
	for i, m := range ts.members {
		parts[i] = m.Key + "=" + m.Value
	}
	return strings.Join(parts, ",")
}

// TraceStateBuilder incrementally builds a TraceState. The zero value is
// ready to use.
type TraceStateBuilder struct {
	base TraceState
	ops  []func(*TraceState) error
}

// NewTraceStateBuilder returns a builder seeded from an existing TraceState
// (or the empty one if ts is the zero value).
func NewTraceStateBuilder(ts TraceState) *TraceStateBuilder {
	return &TraceStateBuilder{base: ts}
}

// Set stages an insert-or-update of key=value. On Build, the entry (new or
// updated) is moved to the front, matching the "most-recent-first" ordering
// the wire format requires.
func (b *TraceStateBuilder) Set(key, value string) *TraceStateBuilder {
	b.ops = append(b.ops, func(ts *TraceState) error {
		if !traceStateKeyRe.MatchString(key) {
			return fmt.Errorf("%w: invalid tracestate key %q", ErrInvalidArgument, key)
		}
		if !traceStateValueRe.MatchString(value) || strings.HasSuffix(value, " ") {
			return fmt.Errorf("%w: invalid tracestate value %q", ErrInvalidArgument, value)
		}
		filtered := ts.members[:0:0]
		for _, m := range ts.members {
			if m.Key != key {
				filtered = append(filtered, m)
			}
		}
		ts.members = append([]traceStateMember{{Key: key, Value: value}}, filtered...)
		return nil
	})
	return b
}

// Delete stages removal of key.
func (b *TraceStateBuilder) Delete(key string) *TraceStateBuilder {
	b.ops = append(b.ops, func(ts *TraceState) error {
		filtered := ts.members[:0:0]
		for _, m := range ts.members {
			if m.Key != key {
				filtered = append(filtered, m)
			}
		}
		ts.members = filtered
		return nil
	})
	return b
}

// Build applies the staged operations and returns the resulting immutable
// TraceState, or ErrInvalidArgument if any key/value was malformed or the
// result would exceed 32 entries.
func (b *TraceStateBuilder) Build() (TraceState, error) {
	ts := TraceState{members: append([]traceStateMember(nil), b.base.members...)}
	for _, op := range b.ops {
		if err := op(&ts); err != nil {
			return TraceState{}, err
		}
	}
	if len(ts.members) > maxTraceStateEntries {
		return TraceState{}, fmt.Errorf("%w: tracestate exceeds %d entries", ErrInvalidArgument, maxTraceStateEntries)
	}
	return ts, nil
}
