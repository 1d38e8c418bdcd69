package logging

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextFormat(t *testing.T) {
	var sb strings.Builder
	log := New(Config{Level: slog.LevelInfo, Format: FormatText, Output: &sb})

	log.Info("server started", "port", 44445)
	log.Debug("dropped below level")

	out := sb.String()
	assert.Contains(t, out, "server started")
	assert.Contains(t, out, "port=44445")
	assert.NotContains(t, out, "dropped below level")
}

func TestNewJSONFormat(t *testing.T) {
	var sb strings.Builder
	log := New(Config{Format: FormatJSON, Output: &sb})

	log.Info("query answered", "result", "found")

	out := sb.String()
	assert.Contains(t, out, `"msg":"query answered"`)
	assert.Contains(t, out, `"result":"found"`)
}

func TestNop(t *testing.T) {
	// Must not panic and must not write anywhere visible.
	Nop().Error("discarded")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
}
