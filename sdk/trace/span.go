// Span implementation: the BUILDING->RECORDING->ENDED state machine spec
// §4.6 specifies. Grounded on the teacher's ddtrace/tracer/span_test.go
// contract (SetTag/Finish/context()) generalized to the richer
// recording/sampling split the spec requires.
package trace

import (
	"context"
	"sync"
	"time"

	"github.com/lumentrace/lumentrace-go/attribute"
	"github.com/lumentrace/lumentrace-go/internal/log"
	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
	coretrace "github.com/lumentrace/lumentrace-go/trace"
)

type spanState int

const (
	stateBuilding spanState = iota
	stateRecording
	stateEnded
)

// Span is the sdk's concrete implementation of the trace.Span capability
// set. All mutators are total and silently drop once the span is not
// recording or has ended (spec §4.6).
type Span struct {
	mu sync.Mutex

	spanContext  coretrace.SpanContext
	parentSpanID coretrace.SpanID
	name         string
	kind         coretrace.SpanKind
	startTime    time.Time
	endTime      time.Time
	status       coretrace.Status

	attrs   *attribute.Builder
	events  []coretrace.Event
	links   []coretrace.Link
	maxEvents int
	maxLinks  int
	dropEvts  int
	dropLinks int

	state     spanState
	recording bool

	tracer *Tracer
}

var _ coretrace.Span = (*Span)(nil)

func (s *Span) SpanContext() coretrace.SpanContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spanContext
}

func (s *Span) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording && s.state != stateEnded
}

func (s *Span) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isMutable() {
		return
	}
	s.name = name
}

// SetStatus sets the span's status. Downgrading from StatusError to
// StatusOK is rejected: once an error is recorded the status cannot be
// un-recorded (matches the API contract instrumentation libraries expect
// from every OpenTelemetry-shaped tracer).
func (s *Span) SetStatus(code coretrace.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isMutable() {
		return
	}
	if s.status.Code == coretrace.StatusError && code == coretrace.StatusOK {
		return
	}
	s.status = coretrace.Status{Code: code, Description: description}
}

func (s *Span) SetAttributes(kvs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isMutable() {
		return
	}
	s.attrs.Put(kvs...)
}

func (s *Span) AddEvent(name string, kvs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isMutable() {
		return
	}
	if len(s.events) >= s.maxEvents {
		s.dropEvts++
		return
	}
	s.events = append(s.events, coretrace.Event{
		Name:       name,
		Time:       time.Now(),
		Attributes: attribute.NewSet(kvs...),
	})
}

func (s *Span) AddLink(link coretrace.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isMutable() {
		return
	}
	if len(s.links) >= s.maxLinks {
		s.dropLinks++
		return
	}
	s.links = append(s.links, link)
}

func (s *Span) RecordError(err error, kvs ...attribute.KeyValue) {
	if err == nil {
		return
	}
	all := append([]attribute.KeyValue{attribute.String("exception.message", err.Error())}, kvs...)
	s.AddEvent("exception", all...)
}

func (s *Span) TracerProvider() coretrace.TracerProvider { return s.tracer.provider }

// isMutable reports whether the span may still be mutated. Caller must
// hold s.mu.
func (s *Span) isMutable() bool {
	return s.state == stateRecording && s.recording
}

// End completes the span (spec §4.6). Only the first call publishes a
// SpanData snapshot to the provider's processors; later calls are no-ops
// (invariant 3, testable property 2).
func (s *Span) End(opts ...coretrace.EndOption) {
	endCfg := coretrace.NewEndConfig(opts...)

	s.mu.Lock()
	if s.state == stateEnded {
		s.mu.Unlock()
		log.Debug(log.Fields{"component": "span", "span_id": s.spanContext.SpanID().String()}, "redundant End() call ignored")
		return
	}
	s.state = stateEnded
	s.recording = false
	if !endCfg.Timestamp.IsZero() {
		s.endTime = endCfg.Timestamp
	} else {
		s.endTime = time.Now()
	}
	sd := s.snapshotLocked()
	s.mu.Unlock()

	for _, p := range s.tracer.provider.processors() {
		p.OnEnd(sd)
	}
}

// snapshotLocked builds the immutable SpanData. Caller must hold s.mu.
func (s *Span) snapshotLocked() exporttrace.SpanData {
	attrSet, dropped := s.attrs.Build()
	return exporttrace.SpanData{
		SpanContext:   s.spanContext,
		ParentSpanID:  s.parentSpanID,
		Name:          s.name,
		Kind:          s.kind,
		StartTime:     s.startTime,
		EndTime:       s.endTime,
		Status:        s.status,
		Attributes:    attrSet,
		Events:        append([]coretrace.Event(nil), s.events...),
		Links:         append([]coretrace.Link(nil), s.links...),
		DroppedAttrs:  dropped,
		DroppedEvents: s.dropEvts,
		DroppedLinks:  s.dropLinks,
	}
}

// contextWithSpan is a small alias used internally so span.go doesn't need
// to repeat the coretrace.ContextWithSpan qualifier everywhere.
func contextWithSpan(ctx context.Context, s *Span) context.Context {
	return coretrace.ContextWithSpan(ctx, s)
}
