package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredOutputIsJSON(t *testing.T) {
	var buf bytes.Buffer
	old := Get()
	Set(newLogger(&buf, slog.LevelDebug, false))
	t.Cleanup(func() { Set(old) })

	Infow("print job created", "jobId", "42", "printerId", "p-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "print job created", entry["msg"])
	assert.Equal(t, "42", entry["jobId"])
	assert.Equal(t, "p-1", entry["printerId"])
}

func TestUnstructuredOutputIsText(t *testing.T) {
	var buf bytes.Buffer
	old := Get()
	Set(newLogger(&buf, slog.LevelInfo, true))
	t.Cleanup(func() { Set(old) })

	Infof("listening on %s", ":8080")

	out := buf.String()
	assert.Contains(t, out, "listening on :8080")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	old := Get()
	Set(newLogger(&buf, slog.LevelInfo, true))
	t.Cleanup(func() { Set(old) })

	Debugf("should be dropped: %d", 1)
	assert.Empty(t, buf.String())

	Warnf("should appear: %d", 2)
	assert.Contains(t, buf.String(), "should appear: 2")
}
