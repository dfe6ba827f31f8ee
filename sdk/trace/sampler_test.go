package trace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumentrace/lumentrace-go/trace"
)

func TestProbabilitySamplerIsDeterministic(t *testing.T) {
	// Testable property 5: decision is a pure function of (p, traceID).
	s := NewProbabilitySampler(0.25)
	traceID := trace.NewTraceID()

	d1 := s.ShouldSample(SamplingParameters{TraceID: traceID}).Decision
	d2 := s.ShouldSample(SamplingParameters{TraceID: traceID}).Decision
	assert.Equal(t, d1, d2)
}

func TestProbabilityZeroNeverSamples(t *testing.T) {
	s := NewProbabilitySampler(0)
	for i := 0; i < 20; i++ {
		d := s.ShouldSample(SamplingParameters{TraceID: trace.NewTraceID()}).Decision
		assert.Equal(t, NotRecord, d)
	}
}

func TestProbabilityOneAlwaysSamples(t *testing.T) {
	s := NewProbabilitySampler(1)
	for i := 0; i < 20; i++ {
		d := s.ShouldSample(SamplingParameters{TraceID: trace.NewTraceID()}).Decision
		assert.Equal(t, RecordAndSample, d)
	}
}

func TestParentBasedSamplerHonorsParentFlag(t *testing.T) {
	s := NewParentBasedSampler(AlwaysOffSampler{})

	sampledParent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.NewTraceID(), SpanID: trace.NewSpanID(),
		TraceFlags: trace.FlagsSampled,
	})
	result := s.ShouldSample(SamplingParameters{ParentContext: sampledParent})
	assert.Equal(t, RecordAndSample, result.Decision)

	unsampledParent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: sampledParent.TraceID(), SpanID: sampledParent.SpanID(),
	})
	result = s.ShouldSample(SamplingParameters{ParentContext: unsampledParent})
	assert.Equal(t, NotRecord, result.Decision)

	result = s.ShouldSample(SamplingParameters{})
	assert.Equal(t, NotRecord, result.Decision, "no parent delegates to root sampler (AlwaysOff)")
}

func TestRateLimitingSamplerBoundsThroughput(t *testing.T) {
	s := NewRateLimitingSampler(1)
	first := s.ShouldSample(SamplingParameters{})
	second := s.ShouldSample(SamplingParameters{})
	assert.Equal(t, RecordAndSample, first.Decision)
	assert.Equal(t, NotRecord, second.Decision)
}

type stubFetcher struct {
	strategy Strategy
	err      error
}

func (f *stubFetcher) FetchStrategy(context.Context, string) (Strategy, error) {
	return f.strategy, f.err
}

func TestRemoteControlledSamplerKeepsDelegateOnFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("unreachable")}
	s := NewRemoteControlledSampler("svc", fetcher, 5*time.Millisecond)
	defer s.Close()

	time.Sleep(30 * time.Millisecond)
	// Still using the initial Probability(0.001) delegate; description
	// must reflect that, not a zero-value sampler.
	require.Contains(t, s.Description(), "ProbabilitySampler")
}

func TestRemoteControlledSamplerSwapsOnSuccess(t *testing.T) {
	fetcher := &stubFetcher{strategy: Strategy{
		Type:                 StrategyProbabilistic,
		ProbabilisticSampling: &ProbabilisticStrategy{SamplingRate: 1.0},
	}}
	s := NewRemoteControlledSampler("svc", fetcher, 5*time.Millisecond)
	defer s.Close()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if s.ShouldSample(SamplingParameters{TraceID: trace.NewTraceID()}).Decision == RecordAndSample {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("remote strategy with rate 1.0 never took effect")
}
