package corectx

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumentrace/lumentrace-go/baggage"
	"github.com/lumentrace/lumentrace-go/trace"
)

func TestCurrentDefaultsToRoot(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Same(t, Root, Current())
	}()
	<-done
}

func TestAttachReleaseRestoresPrevious(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		before := Current()

		ctx1 := before.WithValue("k", "v1")
		scope1 := Attach(ctx1)
		assert.Same(t, ctx1, Current())

		ctx2 := Current().WithValue("k", "v2")
		scope2 := Attach(ctx2)
		assert.Same(t, ctx2, Current())

		require.NoError(t, scope2.Release())
		assert.Same(t, ctx1, Current())

		require.NoError(t, scope1.Release())
		assert.Same(t, before, Current())
	}()
	<-done
}

func TestReleaseIsIdempotent(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		scope := Attach(Root.WithValue("a", 1))
		require.NoError(t, scope.Release())
		require.NoError(t, scope.Release())
	}()
	<-done
}

func TestReleaseOutOfOrderIsStateViolation(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		scope1 := Attach(Root.WithValue("a", 1))
		scope2 := Attach(Root.WithValue("b", 2))
		_ = scope2

		err := scope1.Release()
		require.Error(t, err)
		assert.True(t, errors.Is(err, trace.ErrStateViolation))

		// Stack must be untouched by the failed release.
		require.NoError(t, scope2.Release())
		require.NoError(t, scope1.Release())
	}()
	<-done
}

func TestReleaseFromOtherGoroutineIsStateViolation(t *testing.T) {
	scope := Attach(Root.WithValue("a", 1))

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = scope.Release()
	}()
	wg.Wait()

	require.Error(t, err)
	assert.True(t, errors.Is(err, trace.ErrStateViolation))

	require.NoError(t, scope.Release())
}

func TestAttachIsolatedPerGoroutine(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Context, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			ctx := Root.WithValue("who", i)
			scope := Attach(ctx)
			defer scope.Release()
			results[i] = Current()
		}()
	}
	wg.Wait()

	for i, r := range results {
		v, ok := r.Value("who")
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestWrapCapturesContextAtCallTime(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := Root.WithValue("k", "captured")
		scope := Attach(ctx)
		defer scope.Release()

		wrapped := Wrap(func() {
			v, ok := Current().Value("k")
			require.True(t, ok)
			assert.Equal(t, "captured", v)
		})

		// Invoke wrapped on another goroutine: the Context captured when
		// Wrap was called must be visible there.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			wrapped()
		}()
		wg.Wait()
	}()
	<-done
}

// TestCurrentBaggageRoundTrips covers scenario S3's attach/detach shape
// but for the ambient corectx stack rather than context.Context.
func TestCurrentBaggageRoundTrips(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Equal(t, 0, CurrentBaggage().Len())

		b, err := baggage.NewBuilder(baggage.Empty()).Put("user", "alice", baggage.UnlimitedPropagation).Build()
		require.NoError(t, err)

		ctx := Root.WithBaggage(b)
		scope := Attach(ctx)

		v, ok := CurrentBaggage().Member("user")
		require.True(t, ok)
		assert.Equal(t, "alice", v.Value)

		require.NoError(t, scope.Release())
		assert.Equal(t, 0, CurrentBaggage().Len())
	}()
	<-done
}

func TestCurrentSpanFallsBackToNoop(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		span := CurrentSpan()
		require.NotNil(t, span)
		assert.False(t, span.SpanContext().IsValid())
	}()
	<-done
}
