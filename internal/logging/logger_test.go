package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	err := Setup("verbose", "development")
	assert.Error(t, err)
}

func TestSetupInstallsLogger(t *testing.T) {
	t.Cleanup(func() {
		mu.Lock()
		base = zap.NewNop()
		mu.Unlock()
	})

	require.NoError(t, Setup("debug", "production"))
	assert.True(t, Base().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Setup("WARN", "development"))
	assert.False(t, Base().Core().Enabled(zap.InfoLevel))
	assert.True(t, Base().Core().Enabled(zap.WarnLevel))
}

func TestLoggerWith(t *testing.T) {
	l := NewLogger("test").With("request_id", "abc")
	assert.Equal(t, "test", l.prefix)

	l.Info("message")
	l.Warn("message", "k", true)
	l.Error("message", "k", 1)
	l.Debug("message", "k", "v")
}

func TestReplaceRestoresPrevious(t *testing.T) {
	prev := Base()
	replacement := zap.NewExample()

	restore := Replace(replacement)
	assert.Same(t, replacement, Base())

	restore()
	assert.Same(t, prev, Base())
}
