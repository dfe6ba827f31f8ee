package metric

import (
	"sync"

	"github.com/lumentrace/lumentrace-go/label"
)

// aggregatorFactory builds a fresh Aggregator of the kind an instrument
// was declared with.
type aggregatorFactory func() Aggregator

// registry is the concurrent (instrument, label-set) -> Aggregator map
// spec §4.9 requires: on first observation of a label set, a new
// aggregator is allocated, double-checked to avoid duplicates under
// concurrent first-touch.
type registry struct {
	mu      sync.RWMutex
	byLabel map[label.Distinct]*entry
	newAgg  aggregatorFactory
}

type entry struct {
	labels label.Set
	agg    Aggregator
}

func newRegistry(newAgg aggregatorFactory) *registry {
	return &registry{byLabel: make(map[label.Distinct]*entry), newAgg: newAgg}
}

// aggregatorFor returns the aggregator for labels, allocating one on
// first use.
func (r *registry) aggregatorFor(labels label.Set) Aggregator {
	key := labels.Equivalent()

	r.mu.RLock()
	if e, ok := r.byLabel[key]; ok {
		r.mu.RUnlock()
		return e.agg
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byLabel[key]; ok {
		return e.agg
	}
	e := &entry{labels: labels, agg: r.newAgg()}
	r.byLabel[key] = e
	return e.agg
}

// snapshotAndReset moves the state of every registered aggregator into a
// freshly allocated one and returns those as (labels, Aggregator) pairs,
// so the collector reads ToPoint on snapshots that no recording touches
// while the live aggregators keep accumulating from zero (the
// "swap-and-reset protocol" spec §4.9 allows as an alternative to pure
// atomic loads).
func (r *registry) snapshotAndReset() []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entry, 0, len(r.byLabel))
	for _, e := range r.byLabel {
		// e.agg.MergeAndReset(fresh) moves e.agg's accumulated state into
		// fresh and clears e.agg in place, so the live aggregator keeps
		// accumulating from zero while fresh becomes this interval's
		// snapshot.
		fresh := r.newAgg()
		e.agg.MergeAndReset(fresh)
		out = append(out, &entry{labels: e.labels, agg: fresh})
	}
	return out
}
