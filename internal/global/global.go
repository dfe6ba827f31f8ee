// Package global holds the process-wide TracerProvider singleton (spec §9,
// "Global singletons (TracerProvider, BaggageManager)"). Replacement is
// allowed but observable: SetTracerProvider always wins, TracerProvider()
// always reflects the most recent call.
package global

import (
	"sync/atomic"

	"github.com/lumentrace/lumentrace-go/trace"
)

var provider atomic.Value // holds trace.TracerProvider

func init() {
	provider.Store(traceProviderHolder{trace.NoopTracerProvider()})
}

// traceProviderHolder boxes the interface value so atomic.Value's "must
// always store the same concrete type" rule is satisfied even though
// different TracerProvider implementations are swapped in over time.
type traceProviderHolder struct {
	tp trace.TracerProvider
}

// SetTracerProvider installs tp as the process-wide provider. Safe to call
// concurrently with TracerProvider(); the swap is atomic, not locked.
func SetTracerProvider(tp trace.TracerProvider) {
	if tp == nil {
		return
	}
	provider.Store(traceProviderHolder{tp})
}

// TracerProvider returns the current process-wide provider, defaulting to
// a no-op provider before any SetTracerProvider call.
func TracerProvider() trace.TracerProvider {
	return provider.Load().(traceProviderHolder).tp
}
