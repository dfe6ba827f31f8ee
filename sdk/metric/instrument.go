package metric

import (
	"sync"

	exportmetric "github.com/lumentrace/lumentrace-go/export/metric"
	"github.com/lumentrace/lumentrace-go/internal/log"
	"github.com/lumentrace/lumentrace-go/label"
)

// instrument is the shared implementation behind Counter, UpDownCounter,
// and ValueRecorder: a descriptor plus the (label-set -> aggregator)
// registry backing it.
type instrument struct {
	descriptor exportmetric.Descriptor
	reg        *registry
}

func newInstrument(name string, kind exportmetric.Kind, numberKind exportmetric.NumberKind, monotonic bool, newAgg aggregatorFactory) *instrument {
	return &instrument{
		descriptor: exportmetric.Descriptor{Name: name, Kind: kind, NumberKind: numberKind, Monotonic: monotonic},
		reg:        newRegistry(newAgg),
	}
}

func (i *instrument) recordInt64(v int64, labels label.Set) {
	if err := i.reg.aggregatorFor(labels).RecordInt64(v); err != nil {
		log.Warn(log.Fields{"component": "metric", "instrument": i.descriptor.Name}, err.Error())
	}
}

func (i *instrument) recordFloat64(v float64, labels label.Set) {
	if err := i.reg.aggregatorFor(labels).RecordFloat64(v); err != nil {
		log.Warn(log.Fields{"component": "metric", "instrument": i.descriptor.Name}, err.Error())
	}
}

// Int64Counter is a monotonic, add-only instrument (spec §4.9). Add
// rejects negative deltas by logging and dropping the recording, per the
// failure model's "never throw to callers" rule — the underlying
// aggregator's InvalidArgument is surfaced as a WARN, not a panic or
// returned error, matching how Span mutators behave.
type Int64Counter struct{ inst *instrument }

func (c *Int64Counter) Add(v int64, labels ...label.KeyValue) {
	c.inst.recordInt64(v, label.NewSet(labels...))
}

// Float64Counter is the double-valued analogue of Int64Counter.
type Float64Counter struct{ inst *instrument }

func (c *Float64Counter) Add(v float64, labels ...label.KeyValue) {
	c.inst.recordFloat64(v, label.NewSet(labels...))
}

// Int64UpDownCounter accepts any delta, positive or negative.
type Int64UpDownCounter struct{ inst *instrument }

func (c *Int64UpDownCounter) Add(v int64, labels ...label.KeyValue) {
	c.inst.recordInt64(v, label.NewSet(labels...))
}

// Float64UpDownCounter is the double-valued analogue.
type Float64UpDownCounter struct{ inst *instrument }

func (c *Float64UpDownCounter) Add(v float64, labels ...label.KeyValue) {
	c.inst.recordFloat64(v, label.NewSet(labels...))
}

// Int64ValueRecorder records arbitrary observations, defaulting to a
// MinMaxSumCount aggregation (spec §4.9).
type Int64ValueRecorder struct{ inst *instrument }

func (r *Int64ValueRecorder) Record(v int64, labels ...label.KeyValue) {
	r.inst.recordInt64(v, label.NewSet(labels...))
}

// Float64ValueRecorder is the double-valued analogue.
type Float64ValueRecorder struct{ inst *instrument }

func (r *Float64ValueRecorder) Record(v float64, labels ...label.KeyValue) {
	r.inst.recordFloat64(v, label.NewSet(labels...))
}

// Meter creates instruments, the metric-side sibling of Tracer (spec §2's
// control-flow note: "Metric instruments built from C8's sibling Meter").
type Meter struct {
	mu          sync.Mutex
	name        string
	instruments []*instrument
}

func (m *Meter) register(i *instrument) *instrument {
	m.mu.Lock()
	m.instruments = append(m.instruments, i)
	m.mu.Unlock()
	return i
}

// NewInt64Counter creates a new monotonic Int64Counter instrument.
func (m *Meter) NewInt64Counter(name string) *Int64Counter {
	return &Int64Counter{inst: m.register(newInstrument(name, exportmetric.KindSum, exportmetric.NumberKindInt64, true,
		func() Aggregator { return NewSumAggregator(true) }))}
}

// NewFloat64Counter creates a new monotonic Float64Counter instrument.
func (m *Meter) NewFloat64Counter(name string) *Float64Counter {
	return &Float64Counter{inst: m.register(newInstrument(name, exportmetric.KindSum, exportmetric.NumberKindFloat64, true,
		func() Aggregator { return NewSumAggregator(true) }))}
}

// NewInt64UpDownCounter creates a new non-monotonic Int64UpDownCounter.
func (m *Meter) NewInt64UpDownCounter(name string) *Int64UpDownCounter {
	return &Int64UpDownCounter{inst: m.register(newInstrument(name, exportmetric.KindSum, exportmetric.NumberKindInt64, false,
		func() Aggregator { return NewSumAggregator(false) }))}
}

// NewFloat64UpDownCounter creates a new non-monotonic Float64UpDownCounter.
func (m *Meter) NewFloat64UpDownCounter(name string) *Float64UpDownCounter {
	return &Float64UpDownCounter{inst: m.register(newInstrument(name, exportmetric.KindSum, exportmetric.NumberKindFloat64, false,
		func() Aggregator { return NewSumAggregator(false) }))}
}

// NewInt64ValueRecorder creates a new Int64ValueRecorder backed by a
// MinMaxSumCountAggregator.
func (m *Meter) NewInt64ValueRecorder(name string) *Int64ValueRecorder {
	return &Int64ValueRecorder{inst: m.register(newInstrument(name, exportmetric.KindSummary, exportmetric.NumberKindInt64, false,
		func() Aggregator { return NewMinMaxSumCountAggregator() }))}
}

// NewFloat64ValueRecorder creates a new Float64ValueRecorder backed by a
// MinMaxSumCountAggregator.
func (m *Meter) NewFloat64ValueRecorder(name string) *Float64ValueRecorder {
	return &Float64ValueRecorder{inst: m.register(newInstrument(name, exportmetric.KindSummary, exportmetric.NumberKindFloat64, false,
		func() Aggregator { return NewMinMaxSumCountAggregator() }))}
}

// NewInt64Histogram creates a new Int64 histogram instrument with the
// given strictly-increasing bucket bounds.
func (m *Meter) NewInt64Histogram(name string, bounds []float64) *Int64ValueRecorder {
	return &Int64ValueRecorder{inst: m.register(newInstrument(name, exportmetric.KindHistogram, exportmetric.NumberKindInt64, false,
		func() Aggregator { return NewHistogramAggregator(bounds) }))}
}

// CollectAllMetrics implements MetricProducer: it snapshots every
// instrument's registry and returns the resulting MetricData list (spec
// §4.10's producer -> exporter fan-out).
func (m *Meter) CollectAllMetrics() []exportmetric.MetricData {
	m.mu.Lock()
	insts := append([]*instrument(nil), m.instruments...)
	m.mu.Unlock()

	out := make([]exportmetric.MetricData, 0, len(insts))
	for _, inst := range insts {
		entries := inst.reg.snapshotAndReset()
		points := make([]exportmetric.Point, 0, len(entries))
		for _, e := range entries {
			p := e.agg.ToPoint()
			p.Labels = e.labels
			points = append(points, p)
		}
		out = append(out, exportmetric.MetricData{Descriptor: inst.descriptor, Points: points})
	}
	return out
}

// MeterProvider is the metric-side sibling of TracerProvider: a named
// Meter registry.
type MeterProvider struct {
	mu     sync.Mutex
	meters map[string]*Meter
}

// NewMeterProvider returns an empty MeterProvider.
func NewMeterProvider() *MeterProvider {
	return &MeterProvider{meters: make(map[string]*Meter)}
}

// Meter returns the named Meter, creating it on first use.
func (p *MeterProvider) Meter(name string) *Meter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.meters[name]; ok {
		return m
	}
	m := &Meter{name: name}
	p.meters[name] = m
	return m
}
