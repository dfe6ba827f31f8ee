package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumentrace/lumentrace-go/label"
)

func TestRegistryAllocatesOnePerDistinctLabelSet(t *testing.T) {
	r := newRegistry(func() Aggregator { return NewSumAggregator(true) })

	a1 := r.aggregatorFor(label.NewSet(label.KeyValue{Key: "route", Value: "/a"}))
	a2 := r.aggregatorFor(label.NewSet(label.KeyValue{Key: "route", Value: "/a"}))
	a3 := r.aggregatorFor(label.NewSet(label.KeyValue{Key: "route", Value: "/b"}))

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, a3)
}

func TestRegistrySnapshotAndResetClearsLiveAggregators(t *testing.T) {
	r := newRegistry(func() Aggregator { return NewSumAggregator(true) })

	labels := label.NewSet(label.KeyValue{Key: "route", Value: "/a"})
	agg := r.aggregatorFor(labels)
	require.NoError(t, agg.RecordInt64(7))

	snap := r.snapshotAndReset()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(7), snap[0].agg.ToPoint().SumInt64)

	// The live aggregator returned by aggregatorFor is the same instance
	// that was just reset; new recordings start from zero.
	assert.Equal(t, int64(0), agg.ToPoint().SumInt64)

	require.NoError(t, agg.RecordInt64(1))
	second := r.snapshotAndReset()
	require.Len(t, second, 1)
	assert.Equal(t, int64(1), second[0].agg.ToPoint().SumInt64)
}
