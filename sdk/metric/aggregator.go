// Package metric implements spec §4.9/§4.10: metric instruments,
// per-(instrument, label-set) aggregators, and the periodic collection
// pipeline that drains them to an exporter. Grounded on the teacher's
// absent metrics stack (DataDog's tracer has no metrics API of its own)
// generalized from the attribute/label packages' immutable-snapshot style
// and the sibling pack repo that carries github.com/DataDog/sketches-go
// for percentile estimation.
package metric

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/DataDog/sketches-go/ddsketch"

	exportmetric "github.com/lumentrace/lumentrace-go/export/metric"
	"github.com/lumentrace/lumentrace-go/trace"
)

// Aggregator accumulates observations for one (instrument, label-set)
// pair between collection ticks (spec §4.9). All methods must be safe for
// concurrent use; ToPoint may be called concurrently with Record.
type Aggregator interface {
	RecordInt64(v int64) error
	RecordFloat64(v float64) error
	ToPoint() exportmetric.Point
	// MergeAndReset moves this aggregator's accumulated state into dst
	// and clears self, per spec §4.9's LastValueAggregator contract
	// (defined on every aggregator so the collection pipeline can treat
	// them uniformly).
	MergeAndReset(dst Aggregator)
}

// SumAggregator is an add-only accumulator, atomically updated. For
// monotonic instruments, RecordInt64/RecordFloat64 reject negative deltas
// with ErrInvalidArgument (spec invariant 5, testable property 4).
type SumAggregator struct {
	monotonic bool
	sumInt    int64   // bits for int64, CAS-looped
	sumFloat  uint64  // float64 bits, CAS-looped
}

// NewSumAggregator returns a SumAggregator. monotonic=true rejects
// negative deltas (Counter); monotonic=false accepts any delta
// (UpDownCounter).
func NewSumAggregator(monotonic bool) *SumAggregator {
	return &SumAggregator{monotonic: monotonic}
}

func (a *SumAggregator) RecordInt64(v int64) error {
	if a.monotonic && v < 0 {
		return fmt.Errorf("%w: monotonic counter cannot record negative delta %d", trace.ErrInvalidArgument, v)
	}
	atomic.AddInt64(&a.sumInt, v)
	return nil
}

func (a *SumAggregator) RecordFloat64(v float64) error {
	if a.monotonic && v < 0 {
		return fmt.Errorf("%w: monotonic counter cannot record negative delta %v", trace.ErrInvalidArgument, v)
	}
	for {
		old := atomic.LoadUint64(&a.sumFloat)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(&a.sumFloat, old, next) {
			return nil
		}
	}
}

func (a *SumAggregator) ToPoint() exportmetric.Point {
	return exportmetric.Point{
		SumInt64:   atomic.LoadInt64(&a.sumInt),
		SumFloat64: math.Float64frombits(atomic.LoadUint64(&a.sumFloat)),
	}
}

func (a *SumAggregator) MergeAndReset(dst Aggregator) {
	d, ok := dst.(*SumAggregator)
	if !ok {
		return
	}
	atomic.AddInt64(&d.sumInt, atomic.SwapInt64(&a.sumInt, 0))
	for {
		old := atomic.LoadUint64(&a.sumFloat)
		if atomic.CompareAndSwapUint64(&a.sumFloat, old, 0) {
			for {
				dOld := atomic.LoadUint64(&d.sumFloat)
				next := math.Float64bits(math.Float64frombits(dOld) + math.Float64frombits(old))
				if atomic.CompareAndSwapUint64(&d.sumFloat, dOld, next) {
					break
				}
			}
			return
		}
	}
}

// LastValueAggregator stores the most recent observation, used for async
// observers (spec §4.9). MergeAndReset moves the current value into dst
// and clears self; ToPoint on an empty aggregator yields a zero-valued
// point (the spec's "null point when empty", rendered as Go's zero value
// since this package reports points by value, not by pointer).
type LastValueAggregator struct {
	mu    sync.Mutex
	value float64
	isInt bool
	set   bool
}

func NewLastValueAggregator() *LastValueAggregator { return &LastValueAggregator{} }

func (a *LastValueAggregator) RecordInt64(v int64) error {
	a.mu.Lock()
	a.value, a.isInt, a.set = float64(v), true, true
	a.mu.Unlock()
	return nil
}

func (a *LastValueAggregator) RecordFloat64(v float64) error {
	a.mu.Lock()
	a.value, a.isInt, a.set = v, false, true
	a.mu.Unlock()
	return nil
}

func (a *LastValueAggregator) ToPoint() exportmetric.Point {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.set {
		return exportmetric.Point{}
	}
	if a.isInt {
		return exportmetric.Point{SumInt64: int64(a.value)}
	}
	return exportmetric.Point{SumFloat64: a.value}
}

func (a *LastValueAggregator) MergeAndReset(dst Aggregator) {
	d, ok := dst.(*LastValueAggregator)
	if !ok {
		return
	}
	a.mu.Lock()
	if a.set {
		d.mu.Lock()
		d.value, d.isInt, d.set = a.value, a.isInt, true
		d.mu.Unlock()
	}
	a.value, a.isInt, a.set = 0, false, false
	a.mu.Unlock()
}

// MinMaxSumCountAggregator maintains {min, max, sum, count} plus a
// DDSketch for percentile estimation, the default aggregation for
// ValueRecorder instruments (spec §4.9). ToPoint reports p50 and p99
// (this package's resolution of the spec's "2 estimated percentiles"
// open question).
type MinMaxSumCountAggregator struct {
	mu     sync.Mutex
	min    float64
	max    float64
	sum    float64
	count  int64
	sketch *ddsketch.DDSketch
}

// NewMinMaxSumCountAggregator returns an aggregator with a DDSketch of
// 1% relative accuracy, matching the default the teacher's sibling repo
// configures for latency percentile tracking.
func NewMinMaxSumCountAggregator() *MinMaxSumCountAggregator {
	sk, _ := ddsketch.NewDefaultDDSketch(0.01)
	return &MinMaxSumCountAggregator{sketch: sk, min: math.Inf(1), max: math.Inf(-1)}
}

func (a *MinMaxSumCountAggregator) RecordInt64(v int64) error  { return a.record(float64(v)) }
func (a *MinMaxSumCountAggregator) RecordFloat64(v float64) error { return a.record(v) }

func (a *MinMaxSumCountAggregator) record(v float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	a.sum += v
	a.count++
	_ = a.sketch.Add(v)
	return nil
}

func (a *MinMaxSumCountAggregator) ToPoint() exportmetric.Point {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := exportmetric.Point{Min: a.min, Max: a.max, SumFloat64: a.sum, Count: a.count}
	if a.count > 0 {
		p50, err50 := a.sketch.GetValueAtQuantile(0.5)
		p99, err99 := a.sketch.GetValueAtQuantile(0.99)
		if err50 == nil {
			p.Percentiles = append(p.Percentiles, exportmetric.Percentile{Quantile: 0.5, Value: p50})
		}
		if err99 == nil {
			p.Percentiles = append(p.Percentiles, exportmetric.Percentile{Quantile: 0.99, Value: p99})
		}
	}
	return p
}

func (a *MinMaxSumCountAggregator) MergeAndReset(dst Aggregator) {
	d, ok := dst.(*MinMaxSumCountAggregator)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()

	if a.min < d.min {
		d.min = a.min
	}
	if a.max > d.max {
		d.max = a.max
	}
	d.sum += a.sum
	d.count += a.count
	_ = d.sketch.MergeWith(a.sketch)

	a.min, a.max, a.sum, a.count = math.Inf(1), math.Inf(-1), 0, 0
	a.sketch, _ = ddsketch.NewDefaultDDSketch(0.01)
}

// HistogramAggregator buckets observations against strictly-increasing
// bounds plus a running sum (spec §4.9). A value v falls into bucket i+1
// when v >= bounds[i]; bucket 0 holds values below bounds[0].
type HistogramAggregator struct {
	mu      sync.Mutex
	bounds  []float64
	counts  []int64
	sum     float64
	count   int64
}

// NewHistogramAggregator returns a HistogramAggregator with the given
// strictly-increasing bucket bounds.
func NewHistogramAggregator(bounds []float64) *HistogramAggregator {
	return &HistogramAggregator{
		bounds: append([]float64(nil), bounds...),
		counts: make([]int64, len(bounds)+1),
	}
}

func (a *HistogramAggregator) RecordInt64(v int64) error  { return a.record(float64(v)) }
func (a *HistogramAggregator) RecordFloat64(v float64) error { return a.record(v) }

func (a *HistogramAggregator) record(v float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := 0
	for idx < len(a.bounds) && v >= a.bounds[idx] {
		idx++
	}
	a.counts[idx]++
	a.sum += v
	a.count++
	return nil
}

func (a *HistogramAggregator) ToPoint() exportmetric.Point {
	a.mu.Lock()
	defer a.mu.Unlock()
	return exportmetric.Point{
		SumFloat64:   a.sum,
		Count:        a.count,
		BucketBounds: append([]float64(nil), a.bounds...),
		BucketCounts: append([]int64(nil), a.counts...),
	}
}

func (a *HistogramAggregator) MergeAndReset(dst Aggregator) {
	d, ok := dst.(*HistogramAggregator)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, c := range a.counts {
		d.counts[i] += c
		a.counts[i] = 0
	}
	d.sum += a.sum
	d.count += a.count
	a.sum, a.count = 0, 0
}
