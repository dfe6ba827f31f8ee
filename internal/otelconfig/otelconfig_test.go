package otelconfig

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationMillisPrefersExplicitValue(t *testing.T) {
	got := DurationMillis(7*time.Second, "LUMENTRACE_TEST_INTERVAL", time.Minute)
	assert.Equal(t, 7*time.Second, got)
}

func TestDurationMillisFallsBackToEnv(t *testing.T) {
	t.Setenv("LUMENTRACE_TEST_INTERVAL", "15")
	got := DurationMillis(0, "LUMENTRACE_TEST_INTERVAL", time.Minute)
	assert.Equal(t, 15*time.Millisecond, got)
}

func TestDurationMillisFallsBackToDefaultOnMissingEnv(t *testing.T) {
	os.Unsetenv("LUMENTRACE_TEST_INTERVAL_UNSET")
	got := DurationMillis(0, "LUMENTRACE_TEST_INTERVAL_UNSET", time.Minute)
	assert.Equal(t, time.Minute, got)
}

func TestDurationMillisFallsBackToDefaultOnMalformedEnv(t *testing.T) {
	t.Setenv("LUMENTRACE_TEST_INTERVAL", "not-a-duration")
	got := DurationMillis(0, "LUMENTRACE_TEST_INTERVAL", time.Minute)
	assert.Equal(t, time.Minute, got)
}
