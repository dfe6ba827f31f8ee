// Package label implements the canonical string-to-string label sets used
// to key metric aggregators (spec §4.3, §4.9). Unlike span attributes,
// labels are string-only, deduplicated, and sorted by key so two label
// sets built from the same pairs in any order compare and hash equal — a
// requirement for using them as a composite key into the aggregator map.
package label

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// KeyValue is a single label pair.
type KeyValue struct {
	Key   string
	Value string
}

// Set is an immutable, canonically sorted label set. The zero value is the
// empty set.
type Set struct {
	kvs       []KeyValue
	hash      uint64
	hashValid bool
}

// NewSet builds a Set from kvs, deduplicating (last value for a repeated
// key wins) and sorting by key.
func NewSet(kvs ...KeyValue) Set {
	dedup := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		dedup[kv.Key] = kv.Value
	}
	sorted := make([]KeyValue, 0, len(dedup))
	for k, v := range dedup {
		sorted = append(sorted, KeyValue{Key: k, Value: v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return Set{kvs: sorted}
}

// Len returns the number of labels.
func (s Set) Len() int { return len(s.kvs) }

// ToSlice returns the canonical (sorted, deduplicated) label pairs.
func (s Set) ToSlice() []KeyValue { return append([]KeyValue(nil), s.kvs...) }

// Get returns the value for key, if present.
func (s Set) Get(key string) (string, bool) {
	// kvs is sorted; a linear scan is fine at the label-set sizes metric
	// instruments see in practice (single digits), and avoids building a
	// map for every Set.
	for _, kv := range s.kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Equivalent returns a comparable key suitable for use as a Go map key
// (Set itself contains a slice and is not comparable).
func (s Set) Equivalent() Distinct {
	return Distinct{hash: s.Hash()}
}

// Distinct is a comparable, hashable summary of a Set, suitable for use as
// a map key in the (instrument, label-set) -> aggregator registry (spec
// §4.9).
type Distinct struct {
	hash uint64
}

// Hash returns the set's canonical xxhash64 digest, computed once and
// cached. Two Sets built from the same pairs (in any order, with any
// duplicates) hash equal because NewSet first sorts and dedupes.
func (s *Set) Hash() uint64 {
	if s.hashValid {
		return s.hash
	}
	h := xxhash.New()
	for _, kv := range s.kvs {
		_, _ = h.WriteString(kv.Key)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(kv.Value)
		_, _ = h.Write([]byte{0})
	}
	s.hash = h.Sum64()
	s.hashValid = true
	return s.hash
}
