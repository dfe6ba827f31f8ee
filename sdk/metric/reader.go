package metric

import (
	"context"
	"sync"
	"time"

	exportmetric "github.com/lumentrace/lumentrace-go/export/metric"
	"github.com/lumentrace/lumentrace-go/internal/log"
	"github.com/lumentrace/lumentrace-go/internal/otelconfig"
)

// defaultExportInterval is used when neither WithInterval nor the
// OTEL_IMR_EXPORT_INTERVAL environment variable is set.
const defaultExportInterval = 10 * time.Second

// defaultShutdownTimeout bounds how long Shutdown waits for an in-flight
// collection tick to finish before abandoning it.
const defaultShutdownTimeout = 5 * time.Second

// MetricProducer supplies the metric data a collection tick exports.
// *Meter implements this.
type MetricProducer interface {
	CollectAllMetrics() []exportmetric.MetricData
}

// IntervalMetricReaderConfig configures an IntervalMetricReader.
type IntervalMetricReaderConfig struct {
	Interval time.Duration
}

// IntervalMetricReaderOption sets fields on IntervalMetricReaderConfig.
type IntervalMetricReaderOption interface {
	applyIntervalMetricReader(*IntervalMetricReaderConfig)
}

type intervalOptionFunc func(*IntervalMetricReaderConfig)

func (f intervalOptionFunc) applyIntervalMetricReader(c *IntervalMetricReaderConfig) { f(c) }

// WithInterval overrides the collection period. Unset, the reader falls
// back to OTEL_IMR_EXPORT_INTERVAL (milliseconds) or defaultExportInterval
// (spec §4.10's periodic-ticker requirement).
func WithInterval(d time.Duration) IntervalMetricReaderOption {
	return intervalOptionFunc(func(c *IntervalMetricReaderConfig) { c.Interval = d })
}

// IntervalMetricReader drives a periodic ticker goroutine that collects
// from one or more MetricProducers and forwards the combined snapshot to
// an exporter (spec §4.10). A failing export on one tick does not stop
// the reader; it is logged and the next tick proceeds normally.
type IntervalMetricReader struct {
	interval  time.Duration
	exporter  exportmetric.MetricExporter
	producers []MetricProducer

	mu       sync.Mutex
	stopped  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewIntervalMetricReader starts a reader exporting the combined output
// of producers to exporter on a periodic interval, and returns it already
// running.
func NewIntervalMetricReader(exporter exportmetric.MetricExporter, producers []MetricProducer, opts ...IntervalMetricReaderOption) *IntervalMetricReader {
	cfg := IntervalMetricReaderConfig{}
	for _, o := range opts {
		o.applyIntervalMetricReader(&cfg)
	}
	interval := otelconfig.DurationMillis(cfg.Interval, "OTEL_IMR_EXPORT_INTERVAL", defaultExportInterval)

	r := &IntervalMetricReader{
		interval:  interval,
		exporter:  exporter,
		producers: producers,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *IntervalMetricReader) run() {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.collectAndExport()
		}
	}
}

func (r *IntervalMetricReader) collectAndExport() {
	var data []exportmetric.MetricData
	for _, p := range r.producers {
		data = append(data, p.CollectAllMetrics()...)
	}
	if len(data) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()
	if res := r.exporter.Export(ctx, data); res == exportmetric.ResultFailure {
		log.Warn(log.Fields{"component": "metric_reader"}, "metric export failed, continuing on next interval")
	}
}

// Shutdown stops the collection ticker, performs one final collect-and-
// export pass, and shuts the exporter down. Waiting for the ticker to stop
// is bounded by ctx's deadline, or by a 5 second budget when ctx has no
// deadline (spec §4.10).
func (r *IntervalMetricReader) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()
	}

	select {
	case <-r.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.collectAndExport()
	return r.exporter.Shutdown(ctx)
}

// ForceFlush performs an out-of-band collect-and-export pass without
// stopping the periodic ticker.
func (r *IntervalMetricReader) ForceFlush(ctx context.Context) error {
	r.collectAndExport()
	return nil
}
