package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentLoggerTagsLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer SetLevel(LevelInfo)

	logger := NewComponentLogger("Parser")
	logger.Info("finalized action %d", 3)

	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "[Parser]")
	assert.Contains(t, line, "finalized action 3")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	logger := NewComponentLogger("Dispatcher")
	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "kept")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	logger := NewComponentLogger("X")
	assert.Equal(t, logger, OrNop(logger))

	// must not panic
	OrNop(nil).Error("ignored %s", "entirely")
}
