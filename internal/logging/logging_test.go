package logging

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]any{
		"trace":    log.LevelTrace,
		"DEBUG":    log.LevelDebug,
		"":         log.LevelInfo,
		"Warning":  log.LevelWarn,
		"error":    log.LevelError,
		"critical": log.LevelCrit,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.EqualValues(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	require.NoError(t, err)
	assert.False(t, IsTerminal(&buf))

	l.Info("hidden record")
	assert.Empty(t, buf.String())
	l.Warn("shown record", "qubits", 53)
	assert.Contains(t, buf.String(), "shown record")
	assert.Contains(t, buf.String(), "qubits=53")
	assert.NotContains(t, buf.String(), "\x1b[", "no colour off a terminal")
}
