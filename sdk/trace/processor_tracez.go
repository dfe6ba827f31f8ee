package trace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
	coretrace "github.com/lumentrace/lumentrace-go/trace"
)

const (
	latencyBucketCount = 9
	latencyRingSize    = 16
	errorRingSize      = 8
)

// latencyBucket returns the index of the [lo,hi) duration class d falls
// into, per the glossary's nine LatencyBucket boundaries.
func latencyBucket(d time.Duration) int {
	bounds := [...]time.Duration{
		10 * time.Microsecond,
		100 * time.Microsecond,
		time.Millisecond,
		10 * time.Millisecond,
		100 * time.Millisecond,
		time.Second,
		10 * time.Second,
		100 * time.Second,
	}
	for i, b := range bounds {
		if d < b {
			return i
		}
	}
	return latencyBucketCount - 1
}

// ring is a fixed-capacity, power-of-two ring buffer of SpanData written
// by concurrent OnEnd calls and read via a point-in-time snapshot (spec
// §4.11, §9's "ring-buffer reads under concurrent writes"). The atomic
// write index is only ever incremented and writers mask it into a slot;
// readers copy the first min(filled, len(slots)) slots and accept that
// they may be stale, a diagnostic-page tradeoff.
type ring struct {
	mu     sync.RWMutex
	slots  []exporttrace.SpanData
	filled int64
	next   int64
}

func newRing(size int) *ring {
	return &ring{slots: make([]exporttrace.SpanData, size)}
}

func (r *ring) add(sd exporttrace.SpanData) {
	idx := atomic.AddInt64(&r.next, 1) - 1
	// len(r.slots) is always a power of two, so the mask is equivalent to
	// idx % len(r.slots) without the division.
	slot := int(idx) & (len(r.slots) - 1)
	r.mu.Lock()
	r.slots[slot] = sd
	r.mu.Unlock()
	atomic.AddInt64(&r.filled, 1)
}

// snapshot returns up to len(slots) entries currently held, in no
// particular temporal order (the ring overwrites oldest-first).
func (r *ring) snapshot() []exporttrace.SpanData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := atomic.LoadInt64(&r.filled)
	if n > int64(len(r.slots)) {
		n = int64(len(r.slots))
	}
	out := make([]exporttrace.SpanData, 0, n)
	for i := 0; i < int(n); i++ {
		out = append(out, r.slots[i])
	}
	return out
}

type perNameBuckets struct {
	latency [latencyBucketCount]*ring
	errors  *ring
}

func newPerNameBuckets() *perNameBuckets {
	b := &perNameBuckets{errors: newRing(errorRingSize)}
	for i := range b.latency {
		b.latency[i] = newRing(latencyRingSize)
	}
	return b
}

// TracezSpanProcessor retains finished spans in per-name, per-latency-class
// ring buffers (plus a per-name error ring) for in-process diagnostic
// inspection, rather than forwarding to an external exporter (spec §4.11).
// It deliberately exposes no HTTP surface (out of scope per spec §1);
// callers read via Snapshot.
type TracezSpanProcessor struct {
	mu      sync.RWMutex
	byName  map[string]*perNameBuckets
}

// NewTracezSpanProcessor returns an empty TracezSpanProcessor.
func NewTracezSpanProcessor() *TracezSpanProcessor {
	return &TracezSpanProcessor{byName: make(map[string]*perNameBuckets)}
}

func (p *TracezSpanProcessor) OnStart(*Span) {}

func (p *TracezSpanProcessor) OnEnd(sd exporttrace.SpanData) {
	b := p.bucketsFor(sd.Name)
	latency := sd.EndTime.Sub(sd.StartTime)
	b.latency[latencyBucket(latency)].add(sd)
	if sd.Status.Code == coretrace.StatusError {
		b.errors.add(sd)
	}
}

func (p *TracezSpanProcessor) bucketsFor(name string) *perNameBuckets {
	p.mu.RLock()
	b, ok := p.byName[name]
	p.mu.RUnlock()
	if ok {
		return b
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.byName[name]; ok {
		return b
	}
	b = newPerNameBuckets()
	p.byName[name] = b
	return b
}

// Snapshot returns the current ring contents for spanName's given latency
// bucket index (0..8), or its error ring if bucket < 0.
func (p *TracezSpanProcessor) Snapshot(spanName string, bucket int) []exporttrace.SpanData {
	p.mu.RLock()
	b, ok := p.byName[spanName]
	p.mu.RUnlock()
	if !ok {
		return nil
	}
	if bucket < 0 {
		return b.errors.snapshot()
	}
	if bucket >= latencyBucketCount {
		return nil
	}
	return b.latency[bucket].snapshot()
}

func (p *TracezSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *TracezSpanProcessor) ForceFlush(context.Context) error { return nil }
