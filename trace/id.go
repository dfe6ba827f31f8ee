// Package trace defines the vendor-neutral identifiers and capability
// interfaces shared by every layer of lumentrace-go: trace/span
// identifiers, span context, trace state, and the Span/Tracer/
// TracerProvider capability sets that the sdk package implements.
package trace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"sync"
	"time"
)

// TraceID is a 128-bit trace identifier, big-endian.
type TraceID [16]byte

// SpanID is a 64-bit span identifier, big-endian.
type SpanID [8]byte

// IsValid reports whether id is not the all-zero sentinel.
func (t TraceID) IsValid() bool { return t != TraceID{} }

// IsValid reports whether id is not the all-zero sentinel.
func (s SpanID) IsValid() bool { return s != SpanID{} }

// String renders the trace id as 32 lowercase hex characters.
func (t TraceID) String() string { return hex.EncodeToString(t[:]) }

// String renders the span id as 16 lowercase hex characters.
func (s SpanID) String() string { return hex.EncodeToString(s[:]) }

// MarshalJSON implements json.Marshaler.
func (t TraceID) MarshalJSON() ([]byte, error) { return []byte(`"` + t.String() + `"`), nil }

// MarshalJSON implements json.Marshaler.
func (s SpanID) MarshalJSON() ([]byte, error) { return []byte(`"` + s.String() + `"`), nil }

var (
	// ErrInvalidArgument is the sentinel spec §7 calls InvalidArgument:
	// a builder-time programmer error, raised synchronously.
	ErrInvalidArgument = fmt.Errorf("lumentrace: invalid argument")
	// ErrStateViolation is spec §7's StateViolation kind: an attach/release
	// mismatch or similar ordering error. Detected and reported, not raised
	// to application code paths that don't opt into strict checking.
	ErrStateViolation = fmt.Errorf("lumentrace: state violation")
)

// TraceIDFromHex parses a 32-character lowercase hex string into a TraceID.
func TraceIDFromHex(s string) (TraceID, error) {
	var id TraceID
	if len(s) != 32 {
		return id, fmt.Errorf("%w: trace id must be 32 hex characters, got %d", ErrInvalidArgument, len(s))
	}
	if err := decodeHex(s, id[:]); err != nil {
		return id, err
	}
	return id, nil
}

// SpanIDFromHex parses a 16-character lowercase hex string into a SpanID.
func SpanIDFromHex(s string) (SpanID, error) {
	var id SpanID
	if len(s) != 16 {
		return id, fmt.Errorf("%w: span id must be 16 hex characters, got %d", ErrInvalidArgument, len(s))
	}
	if err := decodeHex(s, id[:]); err != nil {
		return id, err
	}
	return id, nil
}

// decodeHex decodes exactly len(dst)*2 lowercase hex characters from s into
// dst, rejecting anything outside [0-9a-f] with ErrInvalidArgument.
func decodeHex(s string, dst []byte) error {
	for i := 0; i < len(s); i++ {
		if c := s[i]; !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return fmt.Errorf("%w: malformed hex id %q", ErrInvalidArgument, s)
		}
	}
	n, err := hex.Decode(dst, []byte(s))
	if err != nil || n != len(dst) {
		return fmt.Errorf("%w: malformed hex id %q", ErrInvalidArgument, s)
	}
	return nil
}

// idGenerator produces random trace and span IDs from a sync.Pool of
// math/rand sources. Each source is seeded from crypto/rand when the pool
// creates it, which keeps the hot path allocation-light while still being
// unpredictable across process restarts.
type idGenerator struct {
	pool sync.Pool
}

func newIDGenerator() *idGenerator {
	return &idGenerator{
		pool: sync.Pool{
			New: func() interface{} {
				return mathrand.New(mathrand.NewSource(cryptoSeed()))
			},
		},
	}
}

func cryptoSeed() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		// crypto/rand failure is effectively unrecoverable entropy
		// starvation; fall back to a time-derived seed rather than
		// panicking instrumentation callers.
		return fallbackSeed()
	}
	return n.Int64()
}

func fallbackSeed() int64 { return time.Now().UnixNano() }

// NewTraceID returns a random, non-zero TraceID.
func (g *idGenerator) NewTraceID() TraceID {
	r := g.pool.Get().(*mathrand.Rand)
	defer g.pool.Put(r)
	var id TraceID
	for {
		r.Read(id[:])
		if id.IsValid() {
			return id
		}
	}
}

// NewSpanID returns a random, non-zero SpanID.
func (g *idGenerator) NewSpanID() SpanID {
	r := g.pool.Get().(*mathrand.Rand)
	defer g.pool.Put(r)
	var id SpanID
	for {
		r.Read(id[:])
		if id.IsValid() {
			return id
		}
	}
}

// defaultIDGenerator is the process-wide generator behind NewTraceID and
// NewSpanID.
var defaultIDGenerator = newIDGenerator()

// NewTraceID returns a random, non-zero TraceID using the default generator.
func NewTraceID() TraceID { return defaultIDGenerator.NewTraceID() }

// NewSpanID returns a random, non-zero SpanID using the default generator.
func NewSpanID() SpanID { return defaultIDGenerator.NewSpanID() }
