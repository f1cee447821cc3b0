package internal

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	level, ok := ParseLogLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, level)

	level, ok = ParseLogLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, level)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	flags := log.Flags()
	log.SetFlags(0)
	defer log.SetFlags(flags)

	logger := NewLogger(LogLevelWarn).With("zoom")
	logger.Info("hidden")
	logger.Warn("factor %.1f clamped", 60.0)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] [zoom] factor 60.0 clamped")
}
