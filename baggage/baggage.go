// Package baggage implements correlation baggage (spec §3, §4.4): an
// ordered, immutable map from string key to (value, propagation metadata),
// plus context.Context helpers mirroring the Set/Get/All/Remove shape the
// teacher's ddtrace/baggage package exposes.
package baggage

import (
	"context"
	"fmt"

	"github.com/lumentrace/lumentrace-go/trace"
)

// Metadata is an opaque propagation hint attached to a baggage entry.
type Metadata string

const (
	// UnlimitedPropagation marks an entry as eligible for propagation to
	// any downstream service.
	UnlimitedPropagation Metadata = "unlimited-propagation"
	// NoPropagation marks an entry as local-only: propagators must drop it
	// from the outgoing carrier, but it remains visible to local code
	// (spec §3 invariant 6).
	NoPropagation Metadata = "noPropagation"
)

// Entry is one baggage value plus its propagation metadata.
type Entry struct {
	Value    string
	Metadata Metadata
}

type entryPair struct {
	key   string
	entry Entry
}

// Baggage is an immutable, insertion-ordered map from key to Entry. The
// zero value and Empty() are both the singleton empty baggage (spec §4.4).
type Baggage struct {
	entries []entryPair
}

// Empty returns the canonical empty Baggage.
func Empty() Baggage { return Baggage{} }

// Len returns the number of entries.
func (b Baggage) Len() int { return len(b.entries) }

// Member returns the Entry for key, and whether it was found.
func (b Baggage) Member(key string) (Entry, bool) {
	for _, p := range b.entries {
		if p.key == key {
			return p.entry, true
		}
	}
	return Entry{}, false
}

// Walk calls fn for every entry in insertion order.
func (b Baggage) Walk(fn func(key string, e Entry) bool) {
	for _, p := range b.entries {
		if !fn(p.key, p.entry) {
			return
		}
	}
}

// Builder incrementally constructs a Baggage.
type Builder struct {
	base Baggage
	ops  []func(*Baggage) error
}

// NewBuilder seeds a Builder from an existing Baggage (or the empty one).
func NewBuilder(b Baggage) *Builder {
	return &Builder{base: b}
}

// Put stages an insert-or-update of key with the given value and metadata.
// An empty key is rejected with ErrInvalidArgument at Build time; Go's type
// system already rules out a "null" value/metadata the way the originating
// API worried about, so only the empty-key case needs checking.
func (bld *Builder) Put(key, value string, metadata Metadata) *Builder {
	bld.ops = append(bld.ops, func(b *Baggage) error {
		if key == "" {
			return fmt.Errorf("%w: baggage key must not be empty", trace.ErrInvalidArgument)
		}
		filtered := b.entries[:0:0]
		for _, p := range b.entries {
			if p.key != key {
				filtered = append(filtered, p)
			}
		}
		b.entries = append(filtered, entryPair{key: key, entry: Entry{Value: value, Metadata: metadata}})
		return nil
	})
	return bld
}

// Remove stages removal of key.
func (bld *Builder) Remove(key string) *Builder {
	bld.ops = append(bld.ops, func(b *Baggage) error {
		filtered := b.entries[:0:0]
		for _, p := range b.entries {
			if p.key != key {
				filtered = append(filtered, p)
			}
		}
		b.entries = filtered
		return nil
	})
	return bld
}

// Build applies the staged operations and returns the resulting Baggage.
func (bld *Builder) Build() (Baggage, error) {
	b := Baggage{entries: append([]entryPair(nil), bld.base.entries...)}
	for _, op := range bld.ops {
		if err := op(&b); err != nil {
			return Baggage{}, err
		}
	}
	return b, nil
}

// ForPropagation returns a copy of b with every NoPropagation entry removed,
// i.e. the view a propagator should serialize onto an outgoing carrier
// (spec §3 invariant 6).
func (b Baggage) ForPropagation() Baggage {
	out := Baggage{entries: make([]entryPair, 0, len(b.entries))}
	for _, p := range b.entries {
		if p.entry.Metadata != NoPropagation {
			out.entries = append(out.entries, p)
		}
	}
	return out
}

type contextKey struct{}

// ContextWithBaggage returns a new Context carrying b, reachable via
// FromContext.
func ContextWithBaggage(ctx context.Context, b Baggage) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext returns the Baggage attached to ctx, or the empty Baggage if
// none was attached.
func FromContext(ctx context.Context) Baggage {
	b, _ := ctx.Value(contextKey{}).(Baggage)
	return b
}

// Set returns ctx with key=value (UnlimitedPropagation) merged into its
// current baggage. Mirrors the teacher's ddtrace/baggage.Set ergonomics
// while carrying the richer Entry/Metadata model underneath.
func Set(ctx context.Context, key, value string) context.Context {
	b, _ := NewBuilder(FromContext(ctx)).Put(key, value, UnlimitedPropagation).Build()
	return ContextWithBaggage(ctx, b)
}

// Get returns the value for key in ctx's baggage, and whether it was found.
func Get(ctx context.Context, key string) (string, bool) {
	e, ok := FromContext(ctx).Member(key)
	return e.Value, ok
}

// All returns a defensive copy of ctx's baggage as a plain map, discarding
// per-entry metadata (callers that need metadata should use FromContext
// directly).
func All(ctx context.Context) map[string]string {
	b := FromContext(ctx)
	out := make(map[string]string, b.Len())
	b.Walk(func(k string, e Entry) bool {
		out[k] = e.Value
		return true
	})
	return out
}

// Remove returns ctx with key removed from its baggage.
func Remove(ctx context.Context, key string) context.Context {
	b, _ := NewBuilder(FromContext(ctx)).Remove(key).Build()
	return ContextWithBaggage(ctx, b)
}
