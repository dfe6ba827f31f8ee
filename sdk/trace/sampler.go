// Sampler variants per spec §4.7. Grounded on the teacher's
// ddtrace/tracer/sampler_test.go contract (RateSampler.Sample(span) bool,
// a PrioritySampler with an atomic delegate swapped by a remote-config
// poller) generalized to the richer {NotRecord, Record, RecordAndSample}
// decision spec §4.6 requires samplers to return.
package trace

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/cenkalti/backoff/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumentrace/lumentrace-go/attribute"
	"github.com/lumentrace/lumentrace-go/internal/log"
	"github.com/lumentrace/lumentrace-go/trace"
)

// Decision is a sampler's verdict for a span about to start.
type Decision int

const (
	// NotRecord: the span is not recorded (IsRecording() == false).
	NotRecord Decision = iota
	// Record: recorded locally but not marked sampled on the wire.
	Record
	// RecordAndSample: recorded and the sampled flag is set.
	RecordAndSample
)

// SamplingParameters are the inputs to a sampling decision (spec §4.7).
type SamplingParameters struct {
	ParentContext trace.SpanContext
	TraceID       trace.TraceID
	Name          string
	Kind          trace.SpanKind
	Attributes    []attribute.KeyValue
	Links         []trace.Link
}

// SamplingResult is a sampler's decision plus attributes to attach to the
// span as a result of sampling (spec §4.6: "returns a decision ... plus
// extra attributes to attach").
type SamplingResult struct {
	Decision   Decision
	Attributes []attribute.KeyValue
}

// Sampler is the capability set spec §4.7 names.
type Sampler interface {
	ShouldSample(p SamplingParameters) SamplingResult
	Description() string
}

// AlwaysOnSampler records and samples every span.
type AlwaysOnSampler struct{}

func (AlwaysOnSampler) ShouldSample(SamplingParameters) SamplingResult {
	return SamplingResult{Decision: RecordAndSample}
}
func (AlwaysOnSampler) Description() string { return "AlwaysOnSampler" }

// AlwaysOffSampler never records.
type AlwaysOffSampler struct{}

func (AlwaysOffSampler) ShouldSample(SamplingParameters) SamplingResult {
	return SamplingResult{Decision: NotRecord}
}
func (AlwaysOffSampler) Description() string { return "AlwaysOffSampler" }

// ProbabilitySampler samples a fixed fraction of traces, deterministically
// keyed off the trace id's lower 64 bits so the decision is a pure
// function of (p, traceID) (spec §4.7, testable property 5).
type ProbabilitySampler struct {
	ratio float64
	bound uint64
}

// NewProbabilitySampler returns a ProbabilitySampler for ratio p in [0,1].
func NewProbabilitySampler(p float64) *ProbabilitySampler {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &ProbabilitySampler{
		ratio: p,
		bound: uint64(p * (1 << 63)),
	}
}

func (s *ProbabilitySampler) ShouldSample(p SamplingParameters) SamplingResult {
	lower := binary.BigEndian.Uint64(p.TraceID[8:16])
	// Clear the sign bit so the comparison matches "trace_id_lower_64 <
	// floor(p * 2^63)" against an unsigned 63-bit space.
	lower &^= 1 << 63
	if lower < s.bound {
		return SamplingResult{Decision: RecordAndSample}
	}
	return SamplingResult{Decision: NotRecord}
}

func (s *ProbabilitySampler) Description() string {
	return fmt.Sprintf("ProbabilitySampler{ratio=%v, bound=%d}", s.ratio, s.bound)
}

// ParentBasedSampler honors the parent's sampled flag when a valid parent
// exists, delegating to a root sampler otherwise.
type ParentBasedSampler struct {
	root Sampler
}

// NewParentBasedSampler returns a ParentBasedSampler delegating root-span
// decisions to root.
func NewParentBasedSampler(root Sampler) *ParentBasedSampler {
	return &ParentBasedSampler{root: root}
}

func (s *ParentBasedSampler) ShouldSample(p SamplingParameters) SamplingResult {
	if p.ParentContext.IsValid() {
		if p.ParentContext.IsSampled() {
			return SamplingResult{Decision: RecordAndSample}
		}
		return SamplingResult{Decision: NotRecord}
	}
	return s.root.ShouldSample(p)
}

func (s *ParentBasedSampler) Description() string {
	return fmt.Sprintf("ParentBasedSampler{root=%s}", s.root.Description())
}

// RateLimitingSampler admits at most maxTracesPerSecond new traces per
// second via a token-bucket limiter, thread-safe by construction
// (golang.org/x/time/rate is the idiomatic replacement for the teacher's
// hand-rolled leaky bucket).
type RateLimitingSampler struct {
	limiter *rate.Limiter
	rps     float64
}

// NewRateLimitingSampler returns a RateLimitingSampler admitting up to
// maxTracesPerSecond new traces per second, with a burst of 1 (each tick
// allows exactly one admission, matching a leaky-bucket's steady-state
// behavior).
func NewRateLimitingSampler(maxTracesPerSecond float64) *RateLimitingSampler {
	return &RateLimitingSampler{
		limiter: rate.NewLimiter(rate.Limit(maxTracesPerSecond), 1),
		rps:     maxTracesPerSecond,
	}
}

func (s *RateLimitingSampler) ShouldSample(SamplingParameters) SamplingResult {
	if s.limiter.Allow() {
		return SamplingResult{Decision: RecordAndSample}
	}
	return SamplingResult{Decision: NotRecord}
}

func (s *RateLimitingSampler) Description() string {
	return fmt.Sprintf("RateLimitingSampler{maxTracesPerSecond=%v}", s.rps)
}

// Strategy is the remote sampling strategy payload spec §6 defines: a
// gRPC-style request/response pair the RemoteControlledSampler's fetcher
// returns.
type Strategy struct {
	Type                  StrategyType
	ProbabilisticSampling *ProbabilisticStrategy
	RateLimitingSampling  *RateLimitingStrategy
}

// StrategyType enumerates the remote strategy kinds spec §6 names.
type StrategyType int

const (
	StrategyProbabilistic StrategyType = iota
	StrategyRateLimiting
)

// ProbabilisticStrategy carries a probability sampler's rate.
type ProbabilisticStrategy struct {
	SamplingRate float64
}

// RateLimitingStrategy carries a rate-limiting sampler's ceiling.
type RateLimitingStrategy struct {
	MaxTracesPerSecond int32
}

// StrategyFetcher is supplied by the caller: the transport that actually
// reaches a remote sampling-strategy service is out of scope (spec §1),
// but the RemoteControlledSampler's refresh/backoff/atomic-swap contract
// is not.
type StrategyFetcher interface {
	FetchStrategy(ctx context.Context, serviceName string) (Strategy, error)
}

func strategyToSampler(s Strategy) Sampler {
	switch s.Type {
	case StrategyRateLimiting:
		if s.RateLimitingSampling != nil {
			return NewRateLimitingSampler(float64(s.RateLimitingSampling.MaxTracesPerSecond))
		}
	case StrategyProbabilistic:
		if s.ProbabilisticSampling != nil {
			return NewProbabilitySampler(s.ProbabilisticSampling.SamplingRate)
		}
	}
	return NewProbabilitySampler(0.001)
}

// RemoteControlledSampler asynchronously refreshes its delegate from a
// remote source, swapping it atomically (spec §4.7). The initial delegate
// is Probability(0.001); on refresh failure it keeps the current delegate,
// logs at WARN, and retries with exponential backoff capped at 5 minutes.
type RemoteControlledSampler struct {
	serviceName string
	fetcher     StrategyFetcher
	delegate    atomic.Value // holds samplerHolder

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type samplerHolder struct{ s Sampler }

// NewRemoteControlledSampler starts a background goroutine that polls
// fetcher.FetchStrategy every refreshInterval and swaps the active
// delegate on success. Call Close to stop the goroutine.
func NewRemoteControlledSampler(serviceName string, fetcher StrategyFetcher, refreshInterval time.Duration) *RemoteControlledSampler {
	s := &RemoteControlledSampler{
		serviceName: serviceName,
		fetcher:     fetcher,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	s.delegate.Store(samplerHolder{NewProbabilitySampler(0.001)})
	go s.run(refreshInterval)
	return s
}

func (s *RemoteControlledSampler) run(refreshInterval time.Duration) {
	defer close(s.doneCh)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = refreshInterval
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0 // retry forever, capped per-step by MaxInterval

	for {
		wait := bo.NextBackOff()
		select {
		case <-s.stopCh:
			return
		case <-time.After(wait):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		strat, err := s.fetcher.FetchStrategy(ctx, s.serviceName)
		cancel()
		if err != nil {
			wrapped := status.Errorf(codes.Unavailable, "remote sampling strategy fetch failed: %v", err)
			log.Warn(log.Fields{"component": "sampler", "service": s.serviceName}, wrapped.Error())
			continue
		}
		s.delegate.Store(samplerHolder{strategyToSampler(strat)})
		bo.Reset()
	}
}

// Close stops the background refresh goroutine and waits for it to exit.
func (s *RemoteControlledSampler) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *RemoteControlledSampler) ShouldSample(p SamplingParameters) SamplingResult {
	return s.delegate.Load().(samplerHolder).s.ShouldSample(p)
}

func (s *RemoteControlledSampler) Description() string {
	return fmt.Sprintf("RemoteControlledSampler{delegate=%s}", s.delegate.Load().(samplerHolder).s.Description())
}
