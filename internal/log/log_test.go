package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestLogger(t *testing.T) *logrustest.Hook {
	t.Helper()
	prior := Logger()
	l, hook := logrustest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	SetOutput(l)
	t.Cleanup(func() { SetOutput(prior) })
	return hook
}

func TestWarnRecordsFieldsAndMessage(t *testing.T) {
	hook := withTestLogger(t)

	Warn(Fields{"component": "batch_span_processor", "batch_size": 3}, "exporter reported failure")

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "exporter reported failure", entry.Message)
	assert.Equal(t, "batch_span_processor", entry.Data["component"])
	assert.Equal(t, 3, entry.Data["batch_size"])
}

func TestDebugIsSuppressedStateViolationChannel(t *testing.T) {
	hook := withTestLogger(t)

	Debug(Fields{"component": "span"}, "redundant End() call ignored")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestErrorLevelIsDistinctFromWarn(t *testing.T) {
	hook := withTestLogger(t)

	Error(Fields{"component": "reader"}, "unrecoverable")
	Warn(Fields{"component": "reader"}, "recoverable")

	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.ErrorLevel, hook.Entries[0].Level)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[1].Level)
}
