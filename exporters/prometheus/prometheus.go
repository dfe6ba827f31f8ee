// Package prometheus renders MetricData snapshots as Prometheus
// MetricFamily protobufs (spec §6's "bit-exact" adapter). It is an
// exportmetric.MetricExporter that accumulates the most recent snapshot
// in memory for a scrape handler to serve; it does not itself open a
// listener.
package prometheus

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	dto "github.com/prometheus/client_model/go"

	exportmetric "github.com/lumentrace/lumentrace-go/export/metric"
)

// ConstLabels are attached to every MetricFamily this exporter emits,
// ordered before each point's own labels (spec §6).
type ConstLabels map[string]string

// Exporter renders MetricData into Prometheus wire types and retains the
// latest rendering for a scrape to read via Gather.
type Exporter struct {
	constLabels ConstLabels

	mu       sync.Mutex
	families []*dto.MetricFamily
}

// NewExporter returns an Exporter with the given constant labels.
func NewExporter(constLabels ConstLabels) *Exporter {
	return &Exporter{constLabels: constLabels}
}

// Export renders data into Prometheus MetricFamily values and stores them
// for the next Gather call. It never fails: a render-time inconsistency
// is skipped rather than rejecting the whole batch.
func (e *Exporter) Export(_ context.Context, data []exportmetric.MetricData) exportmetric.ExportResult {
	families := make([]*dto.MetricFamily, 0, len(data))
	for _, d := range data {
		if f := e.toFamily(d); f != nil {
			families = append(families, f)
		}
	}

	e.mu.Lock()
	e.families = families
	e.mu.Unlock()
	return exportmetric.ResultSuccess
}

// Shutdown is a no-op: the exporter holds no external resources.
func (e *Exporter) Shutdown(context.Context) error { return nil }

// Gather returns the families produced by the most recent Export call,
// satisfying the same shape client_golang's Gatherer interface expects.
func (e *Exporter) Gather() ([]*dto.MetricFamily, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*dto.MetricFamily(nil), e.families...), nil
}

func (e *Exporter) toFamily(d exportmetric.MetricData) *dto.MetricFamily {
	name := sanitize(d.Descriptor.Name)
	f := &dto.MetricFamily{Name: &name}

	switch d.Descriptor.Kind {
	case exportmetric.KindSummary:
		t := dto.MetricType_SUMMARY
		f.Type = &t
	case exportmetric.KindHistogram:
		t := dto.MetricType_HISTOGRAM
		f.Type = &t
	default:
		if d.Descriptor.Monotonic {
			t := dto.MetricType_COUNTER
			f.Type = &t
		} else {
			t := dto.MetricType_GAUGE
			f.Type = &t
		}
	}

	for _, p := range d.Points {
		m := &dto.Metric{Label: e.labelsFor(p)}
		switch d.Descriptor.Kind {
		case exportmetric.KindSummary:
			m.Summary = toSummary(p)
		case exportmetric.KindHistogram:
			m.Histogram = toHistogram(p)
		default:
			v := valueOf(d.Descriptor, p)
			if d.Descriptor.Monotonic {
				m.Counter = &dto.Counter{Value: &v}
			} else {
				m.Gauge = &dto.Gauge{Value: &v}
			}
		}
		f.Metric = append(f.Metric, m)
	}
	return f
}

func (e *Exporter) labelsFor(p exportmetric.Point) []*dto.LabelPair {
	pairs := make([]*dto.LabelPair, 0, len(e.constLabels)+p.Labels.Len())
	for _, k := range sortedConstLabelKeys(e.constLabels) {
		name, value := sanitize(k), e.constLabels[k]
		pairs = append(pairs, &dto.LabelPair{Name: &name, Value: &value})
	}
	for _, kv := range p.Labels.ToSlice() {
		name, value := sanitize(kv.Key), kv.Value
		pairs = append(pairs, &dto.LabelPair{Name: &name, Value: &value})
	}
	return pairs
}

func sortedConstLabelKeys(labels ConstLabels) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	// Deterministic output regardless of map iteration order.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func toSummary(p exportmetric.Point) *dto.Summary {
	count := uint64(p.Count)
	sum := p.SumFloat64
	s := &dto.Summary{SampleCount: &count, SampleSum: &sum}
	for _, pct := range p.Percentiles {
		q, v := pct.Quantile, pct.Value
		s.Quantile = append(s.Quantile, &dto.Quantile{Quantile: &q, Value: &v})
	}
	return s
}

func toHistogram(p exportmetric.Point) *dto.Histogram {
	count := uint64(p.Count)
	sum := p.SumFloat64
	h := &dto.Histogram{SampleCount: &count, SampleSum: &sum}
	var cumulative uint64
	for i, bound := range p.BucketBounds {
		cumulative += uint64(p.BucketCounts[i])
		b := bound
		c := cumulative
		h.Bucket = append(h.Bucket, &dto.Bucket{UpperBound: &b, CumulativeCount: &c})
	}
	return h
}

func valueOf(desc exportmetric.Descriptor, p exportmetric.Point) float64 {
	if desc.NumberKind == exportmetric.NumberKindInt64 {
		return float64(p.SumInt64)
	}
	return p.SumFloat64
}

// sanitize implements spec §6's name/label sanitization: any character
// outside [A-Za-z0-9_] becomes '_', and a leading digit is prefixed with
// '_' since Prometheus identifiers cannot start with one.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// quantileLabel renders a quantile the way Prometheus's text exposition
// format does for a summary's `quantile="<p>"` tag: Go's %g float
// formatting, the shortest decimal that round-trips.
func quantileLabel(q float64) string {
	return strconv.FormatFloat(q, 'g', -1, 64)
}

// WriteText renders the most recent Gather result in Prometheus's text
// exposition format, the shape a /metrics scrape handler writes to the
// response body.
func (e *Exporter) WriteText(w io.Writer) error {
	families, _ := e.Gather()
	for _, f := range families {
		for _, m := range f.Metric {
			labels := make([]string, 0, len(m.Label))
			for _, l := range m.Label {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{" + strings.Join(labels, ",") + "}"
			}

			switch f.GetType() {
			case dto.MetricType_SUMMARY:
				s := m.GetSummary()
				for _, q := range s.GetQuantile() {
					ql := append(append([]string(nil), labels...), fmt.Sprintf("quantile=%q", quantileLabel(q.GetQuantile())))
					if _, err := fmt.Fprintf(w, "%s{%s} %v\n", f.GetName(), strings.Join(ql, ","), q.GetValue()); err != nil {
						return err
					}
				}
				if _, err := fmt.Fprintf(w, "%s_sum%s %v\n", f.GetName(), labelStr, s.GetSampleSum()); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, "%s_count%s %d\n", f.GetName(), labelStr, s.GetSampleCount()); err != nil {
					return err
				}
			default:
				if _, err := fmt.Fprintf(w, "%s%s %v\n", f.GetName(), labelStr, valueFromMetric(f.GetType(), m)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func valueFromMetric(t dto.MetricType, m *dto.Metric) float64 {
	if t == dto.MetricType_COUNTER {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}
