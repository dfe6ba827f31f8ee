package prometheus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exportmetric "github.com/lumentrace/lumentrace-go/export/metric"
	"github.com/lumentrace/lumentrace-go/label"
)

// TestSanitizationMatchesScenario covers scenario S7: a metric named
// "http.server.latency-ms" with label "peer.service" serializes with
// name "http_server_latency_ms" and label "peer_service".
func TestSanitizationMatchesScenario(t *testing.T) {
	assert.Equal(t, "http_server_latency_ms", sanitize("http.server.latency-ms"))
	assert.Equal(t, "peer_service", sanitize("peer.service"))
}

func TestSanitizePrefixesLeadingDigit(t *testing.T) {
	assert.Equal(t, "_2xx_count", sanitize("2xx_count"))
}

func TestExportMapsMonotonicSumToCounter(t *testing.T) {
	exp := NewExporter(nil)
	data := []exportmetric.MetricData{{
		Descriptor: exportmetric.Descriptor{Name: "orders.completed", Kind: exportmetric.KindSum, Monotonic: true},
		Points: []exportmetric.Point{{
			Labels:   label.NewSet(label.KeyValue{Key: "peer.service", Value: "checkout"}),
			SumInt64: 7,
		}},
	}}

	res := exp.Export(context.Background(), data)
	require.Equal(t, exportmetric.ResultSuccess, res)

	families, err := exp.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	f := families[0]
	assert.Equal(t, "orders_completed", f.GetName())
	require.Equal(t, "COUNTER", f.GetType().String())
	require.Len(t, f.Metric, 1)
	assert.Equal(t, float64(7), f.Metric[0].GetCounter().GetValue())
	require.Len(t, f.Metric[0].Label, 1)
	assert.Equal(t, "peer_service", f.Metric[0].Label[0].GetName())
}

func TestExportMapsNonMonotonicSumToGauge(t *testing.T) {
	exp := NewExporter(nil)
	data := []exportmetric.MetricData{{
		Descriptor: exportmetric.Descriptor{Name: "inflight.requests", Kind: exportmetric.KindSum, Monotonic: false},
		Points:     []exportmetric.Point{{SumInt64: -3}},
	}}
	exp.Export(context.Background(), data)

	families, _ := exp.Gather()
	require.Len(t, families, 1)
	assert.Equal(t, "GAUGE", families[0].GetType().String())
}

func TestExportMapsSummaryWithQuantiles(t *testing.T) {
	exp := NewExporter(nil)
	data := []exportmetric.MetricData{{
		Descriptor: exportmetric.Descriptor{Name: "checkout.latency", Kind: exportmetric.KindSummary},
		Points: []exportmetric.Point{{
			Count:      3,
			SumFloat64: 60,
			Percentiles: []exportmetric.Percentile{
				{Quantile: 0.5, Value: 20},
				{Quantile: 0.99, Value: 30},
			},
		}},
	}}
	exp.Export(context.Background(), data)

	families, _ := exp.Gather()
	require.Len(t, families, 1)
	m := families[0].Metric[0]
	require.NotNil(t, m.Summary)
	assert.Equal(t, uint64(3), m.Summary.GetSampleCount())
	assert.Equal(t, float64(60), m.Summary.GetSampleSum())
	require.Len(t, m.Summary.Quantile, 2)
	assert.Equal(t, 0.5, m.Summary.Quantile[0].GetQuantile())
	assert.Equal(t, 20.0, m.Summary.Quantile[0].GetValue())
}

func TestConstLabelsPrecedePointLabelsAndAreSorted(t *testing.T) {
	exp := NewExporter(ConstLabels{"service": "checkout", "env": "prod"})
	data := []exportmetric.MetricData{{
		Descriptor: exportmetric.Descriptor{Name: "orders.completed", Kind: exportmetric.KindSum, Monotonic: true},
		Points: []exportmetric.Point{{
			Labels: label.NewSet(label.KeyValue{Key: "region", Value: "us"}),
		}},
	}}
	exp.Export(context.Background(), data)

	families, _ := exp.Gather()
	labels := families[0].Metric[0].Label
	require.Len(t, labels, 3)
	assert.Equal(t, "env", labels[0].GetName())
	assert.Equal(t, "service", labels[1].GetName())
	assert.Equal(t, "region", labels[2].GetName())
}
