package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{" error ", LevelError, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.name)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestLazyLogger_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := Logger("test/component")

	var buf bytes.Buffer
	Setup(&buf, LevelDebug, FormatJSON)
	logger.Debug("hello", "key", "value")

	assert.Contains(t, buf.String(), `"component":"test/component"`)
	assert.Contains(t, buf.String(), `"key":"value"`)

	buf.Reset()
	Setup(&buf, LevelWarn, FormatText)
	logger.Info("suppressed")
	assert.Empty(t, buf.String())

	BadgerAdapter{L: logger}.Warningf("disk %s\n", "full")
	assert.Contains(t, buf.String(), "disk full")
}
