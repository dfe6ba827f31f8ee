package metric

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exportmetric "github.com/lumentrace/lumentrace-go/export/metric"
	"github.com/lumentrace/lumentrace-go/trace"
)

// TestMonotonicCounterRejectsNegativeDelta covers testable property 4: a
// monotonic SumAggregator must reject a negative delta with
// ErrInvalidArgument and leave the running sum unaffected.
func TestMonotonicCounterRejectsNegativeDelta(t *testing.T) {
	a := NewSumAggregator(true)
	require.NoError(t, a.RecordInt64(5))

	err := a.RecordInt64(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, trace.ErrInvalidArgument))

	assert.Equal(t, int64(5), a.ToPoint().SumInt64)
}

func TestUpDownCounterAcceptsNegativeDelta(t *testing.T) {
	a := NewSumAggregator(false)
	require.NoError(t, a.RecordInt64(5))
	require.NoError(t, a.RecordInt64(-8))
	assert.Equal(t, int64(-3), a.ToPoint().SumInt64)
}

func TestSumAggregatorMergeAndResetClearsLive(t *testing.T) {
	a := NewSumAggregator(true)
	require.NoError(t, a.RecordInt64(3))
	require.NoError(t, a.RecordFloat64(1.5))

	snap := NewSumAggregator(true)
	a.MergeAndReset(snap)

	assert.Equal(t, int64(3), snap.ToPoint().SumInt64)
	assert.Equal(t, 1.5, snap.ToPoint().SumFloat64)
	assert.Equal(t, int64(0), a.ToPoint().SumInt64)
	assert.Equal(t, 0.0, a.ToPoint().SumFloat64)

	require.NoError(t, a.RecordInt64(1))
	assert.Equal(t, int64(1), a.ToPoint().SumInt64)
}

// TestLastValueAggregatorReportsMostRecent covers scenario S5: the most
// recent observation wins regardless of prior ones, and MergeAndReset
// clears the live aggregator back to empty.
func TestLastValueAggregatorReportsMostRecent(t *testing.T) {
	a := NewLastValueAggregator()
	require.NoError(t, a.RecordInt64(1))
	require.NoError(t, a.RecordInt64(2))
	require.NoError(t, a.RecordInt64(3))

	snap := NewLastValueAggregator()
	a.MergeAndReset(snap)
	assert.Equal(t, int64(3), snap.ToPoint().SumInt64)

	// Live aggregator is now empty; collecting again yields a zero point.
	assert.Equal(t, exportmetric.Point{}, a.ToPoint())
}

func TestMinMaxSumCountAggregatorTracksExtentsAndPercentiles(t *testing.T) {
	a := NewMinMaxSumCountAggregator()
	for _, v := range []int64{10, 20, 30, 40, 50} {
		require.NoError(t, a.RecordInt64(v))
	}

	p := a.ToPoint()
	assert.Equal(t, 10.0, p.Min)
	assert.Equal(t, 50.0, p.Max)
	assert.Equal(t, int64(5), p.Count)
	assert.Equal(t, 150.0, p.SumFloat64)
	require.Len(t, p.Percentiles, 2)
	assert.InDelta(t, 0.5, p.Percentiles[0].Quantile, 0.001)
	assert.InDelta(t, 0.99, p.Percentiles[1].Quantile, 0.001)
}

func TestMinMaxSumCountAggregatorMergeAndReset(t *testing.T) {
	a := NewMinMaxSumCountAggregator()
	require.NoError(t, a.RecordInt64(10))
	require.NoError(t, a.RecordInt64(20))

	snap := NewMinMaxSumCountAggregator()
	a.MergeAndReset(snap)

	assert.Equal(t, int64(2), snap.ToPoint().Count)
	assert.Equal(t, int64(0), a.ToPoint().Count)
}

func TestHistogramAggregatorBucketsByLowerBound(t *testing.T) {
	a := NewHistogramAggregator([]float64{10, 20})
	for _, v := range []int64{5, 10, 15, 20, 25} {
		require.NoError(t, a.RecordInt64(v))
	}

	p := a.ToPoint()
	require.Equal(t, []float64{10, 20}, p.BucketBounds)
	require.Len(t, p.BucketCounts, 3)
	assert.Equal(t, int64(1), p.BucketCounts[0]) // v < 10: {5}
	assert.Equal(t, int64(2), p.BucketCounts[1]) // 10 <= v < 20: {10, 15}
	assert.Equal(t, int64(2), p.BucketCounts[2]) // v >= 20: {20, 25}
	assert.Equal(t, int64(5), p.Count)
}
