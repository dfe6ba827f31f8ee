package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	exporttrace "github.com/lumentrace/lumentrace-go/export/trace"
	coretrace "github.com/lumentrace/lumentrace-go/trace"
)

func TestTracezBucketsByLatency(t *testing.T) {
	p := NewTracezSpanProcessor()
	start := time.Now()

	p.OnEnd(exporttrace.SpanData{Name: "op", StartTime: start, EndTime: start.Add(5 * time.Microsecond)})
	p.OnEnd(exporttrace.SpanData{Name: "op", StartTime: start, EndTime: start.Add(50 * time.Millisecond)})

	assert.Len(t, p.Snapshot("op", 0), 1)
	assert.Len(t, p.Snapshot("op", 4), 1)
	assert.Len(t, p.Snapshot("op", 1), 0)
}

func TestTracezTracksErrorsSeparately(t *testing.T) {
	p := NewTracezSpanProcessor()
	start := time.Now()

	p.OnEnd(exporttrace.SpanData{
		Name: "op", StartTime: start, EndTime: start.Add(time.Millisecond),
		Status: coretrace.Status{Code: coretrace.StatusError},
	})

	assert.Len(t, p.Snapshot("op", -1), 1)
}

func TestTracezRingEvictsOldest(t *testing.T) {
	p := NewTracezSpanProcessor()
	start := time.Now()

	for i := 0; i < latencyRingSize+5; i++ {
		p.OnEnd(exporttrace.SpanData{Name: "op", StartTime: start, EndTime: start.Add(5 * time.Microsecond)})
	}

	assert.Len(t, p.Snapshot("op", 0), latencyRingSize)
}

func TestTracezUnknownNameReturnsNil(t *testing.T) {
	p := NewTracezSpanProcessor()
	assert.Nil(t, p.Snapshot("nope", 0))
}
