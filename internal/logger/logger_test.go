package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(DEBUG, ParseLevel("debug"))
	assert.Equal(WARN, ParseLevel("WARNING"))
	assert.Equal(ERROR, ParseLevel("ERROR"))
	assert.Equal(INFO, ParseLevel("nonsense"))
	assert.Equal("WARN", WARN.String())
}

func TestWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, WARN)

	l.Info("hidden")
	l.Warn("shown", F("project", "p1"), F("error", errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "project=p1")
	assert.Contains(t, out, "boom")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, DEBUG).WithFields(F("component", "sync"))

	l.Debug("pushing")
	assert.Contains(t, buf.String(), "component=sync")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "binge.log")
	require.NoError(t, Init(Config{Level: DEBUG, FilePath: path}))
	t.Cleanup(func() { _ = Close() })

	Info("store opened", F("path", "x.db"))
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "store opened")

	// no global logger: calls are dropped
	Info("after close")
}
