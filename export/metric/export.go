// Package metric defines the narrow sink contract the metric collection
// pipeline forwards snapshots through (spec §6): MetricExporter plus the
// MetricData point it consumes.
package metric

import (
	"context"

	"github.com/lumentrace/lumentrace-go/label"
)

// ExportResult mirrors trace's {SUCCESS, FAILURE} sink contract.
type ExportResult int

const (
	ResultSuccess ExportResult = iota
	ResultFailure
)

// Kind tags which aggregation shape a MetricData point carries.
type Kind int

const (
	// KindSum is a single monotonic or non-monotonic running total.
	KindSum Kind = iota
	// KindLastValue is the most recent observation (async observers).
	KindLastValue
	// KindSummary is {min, max, sum, count} plus estimated percentiles,
	// the default ValueRecorder aggregation.
	KindSummary
	// KindHistogram is bucket counts plus sum.
	KindHistogram
)

// NumberKind distinguishes the underlying numeric representation spec §3
// calls out ("long" vs "double").
type NumberKind int

const (
	NumberKindInt64 NumberKind = iota
	NumberKindFloat64
)

// Percentile is one (quantile, value) pair a Summary point reports.
type Percentile struct {
	Quantile float64
	Value    float64
}

// Descriptor identifies an instrument: its name, its aggregation Kind,
// its numeric representation, and whether it is monotonic (meaningful
// only for KindSum).
type Descriptor struct {
	Name       string
	Kind       Kind
	NumberKind NumberKind
	Monotonic  bool
	Unit       string
}

// Point is one aggregator snapshot for a single label set.
type Point struct {
	Labels      label.Set
	SumInt64    int64
	SumFloat64  float64
	Count       int64
	Min         float64
	Max         float64
	Percentiles []Percentile
	BucketBounds []float64
	BucketCounts []int64
}

// MetricData is one instrument's descriptor plus the points collected for
// it in a single collection interval.
type MetricData struct {
	Descriptor Descriptor
	Points     []Point
	StartTime  int64 // epoch nanos
	EndTime    int64 // epoch nanos
}

// MetricExporter is the sink the collection pipeline forwards snapshots
// to. Export must not block indefinitely; errors are reported via the
// result, never panics.
type MetricExporter interface {
	Export(ctx context.Context, data []MetricData) ExportResult
	Shutdown(ctx context.Context) error
}
