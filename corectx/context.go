// Package corectx implements the ambient, goroutine-scoped "current
// Context" described in spec §4.5: ordinary Go code threads a
// context.Context explicitly, but instrumentation that has no Context
// handy (synchronous call chains, library code written before tracing
// existed) needs a way to ask "what's the current span right now" without
// a parameter to carry it in. corectx is that fallback: an immutable,
// persistent key/value Context plus a goroutine-local attach/detach stack,
// modeled on the same goroutine-identity trick production tracers use
// (cockroachdb's tracer keys its active-span bookkeeping off
// github.com/petermattis/goid; we use the same package to key the current-
// Context stack itself).
package corectx

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/lumentrace/lumentrace-go/baggage"
	"github.com/lumentrace/lumentrace-go/trace"
)

// Context is an immutable, open-ended key/value map. Contexts form a
// lineage: WithValue never mutates the receiver, it returns a new Context
// linking back to it (spec §3).
type Context struct {
	parent *Context
	key    interface{}
	value  interface{}
}

// Root is the empty Context every goroutine starts with before any Attach.
var Root = &Context{}

// WithValue returns a new Context with key bound to value, shadowing any
// prior binding of the same key without disturbing it (lookups simply stop
// at the first match walking toward the root).
func (c *Context) WithValue(key, value interface{}) *Context {
	return &Context{parent: c, key: key, value: value}
}

// Value returns the value bound to key, and whether it was found, by
// walking from c toward Root.
func (c *Context) Value(key interface{}) (interface{}, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.key == key {
			return cur.value, true
		}
	}
	return nil, false
}

type spanKey struct{}

// WithSpan returns a Context carrying span as the current span.
func (c *Context) WithSpan(span trace.Span) *Context {
	return c.WithValue(spanKey{}, span)
}

// Span returns the Context's current span, or nil if none was set.
func (c *Context) Span() trace.Span {
	v, ok := c.Value(spanKey{})
	if !ok {
		return nil
	}
	return v.(trace.Span)
}

type baggageKey struct{}

// WithBaggage returns a Context carrying b as the current baggage.
func (c *Context) WithBaggage(b baggage.Baggage) *Context {
	return c.WithValue(baggageKey{}, b)
}

// Baggage returns the Context's current baggage, or the empty Baggage if
// none was set.
func (c *Context) Baggage() baggage.Baggage {
	v, ok := c.Value(baggageKey{})
	if !ok {
		return baggage.Empty()
	}
	return v.(baggage.Baggage)
}

// perGoroutine holds the attach stack for one goroutine.
type perGoroutine struct {
	stack []*Context
}

var (
	registryMu sync.Mutex
	registry   = map[int64]*perGoroutine{}
)

func stackFor(gid int64) *perGoroutine {
	pg, ok := registry[gid]
	if !ok {
		pg = &perGoroutine{}
		registry[gid] = pg
	}
	return pg
}

// Current returns the Context attached on the calling goroutine, or Root
// if none has been attached.
func Current() *Context {
	gid := goid.Get()
	registryMu.Lock()
	defer registryMu.Unlock()
	pg, ok := registry[gid]
	if !ok || len(pg.stack) == 0 {
		return Root
	}
	return pg.stack[len(pg.stack)-1]
}

// CurrentSpan returns the current span for the calling goroutine, falling
// back to a no-op span if none is set anywhere in the lineage (spec §4.8:
// Tracer.getCurrentSpan never returns nil).
func CurrentSpan() trace.Span {
	if s := Current().Span(); s != nil {
		return s
	}
	return trace.SpanFromContext(nil)
}

// CurrentBaggage returns the current baggage for the calling goroutine,
// or the empty Baggage if none was attached anywhere in the lineage.
func CurrentBaggage() baggage.Baggage {
	return Current().Baggage()
}

// Scope is the handle returned by Attach. Release restores the exactly-
// previous Context on the attaching goroutine.
type Scope struct {
	gid      int64
	depth    int // stack length expected immediately before this scope's entry
	released int32
}

// Attach pushes ctx onto the calling goroutine's current-Context stack and
// returns a Scope whose Release restores the prior state. Attach never
// fails; misuse is only detected at Release time (spec §4.5).
func Attach(ctx *Context) *Scope {
	if ctx == nil {
		ctx = Root
	}
	gid := goid.Get()
	registryMu.Lock()
	pg := stackFor(gid)
	pg.stack = append(pg.stack, ctx)
	depth := len(pg.stack)
	registryMu.Unlock()
	return &Scope{gid: gid, depth: depth}
}

// Release restores the Context that was current before the matching
// Attach. Release is idempotent: calls after the first successful one are
// no-ops, so panics or early returns during teardown never double-release
// (spec, Design Notes: "Idempotent resource handles"). Release on a
// goroutine other than the one that called Attach, or out of LIFO order on
// the attaching goroutine, returns ErrStateViolation and leaves both the
// stack and the Scope untouched, so a later in-order Release still works.
func (s *Scope) Release() error {
	if atomic.LoadInt32(&s.released) == 1 {
		return nil
	}
	gid := goid.Get()
	if gid != s.gid {
		return fmt.Errorf("%w: Context released on goroutine %d, attached on %d", trace.ErrStateViolation, gid, s.gid)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	pg := stackFor(gid)
	if len(pg.stack) != s.depth {
		return fmt.Errorf("%w: Context released out of LIFO order (stack depth %d, expected %d)", trace.ErrStateViolation, len(pg.stack), s.depth)
	}
	if !atomic.CompareAndSwapInt32(&s.released, 0, 1) {
		return nil
	}
	pg.stack = pg.stack[:s.depth-1]
	if len(pg.stack) == 0 {
		delete(registry, gid)
	}
	return nil
}

// Wrap captures the calling goroutine's current Context and returns a
// function that, when invoked (typically on a different goroutine, e.g.
// inside go func(){ ... }()), attaches the captured Context for the
// duration of fn and releases it on exit. This is corectx's answer to
// spec §4.5's wrap(fn)/wrap(executor): Go has no implicit thread-pool
// inheritance, so cross-goroutine propagation must always be this
// explicit.
func Wrap(fn func()) func() {
	captured := Current()
	return func() {
		scope := Attach(captured)
		defer scope.Release()
		fn()
	}
}

// Go runs fn on a new goroutine with the calling goroutine's current
// Context attached for fn's duration.
func Go(fn func()) {
	go Wrap(fn)()
}
