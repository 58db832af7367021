package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noJournal() *bool {
	b := false
	return &b
}

func TestNew_Terminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: slog.LevelInfo, Terminal: &buf, Journal: noJournal()})
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Debug("hidden")
	logger.Info("test", "hello", "world!")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=test")
	assert.Contains(t, out, "hello=world!")
}

func TestNew_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: slog.LevelWarn, Terminal: &buf, Journal: noJournal()})
	require.NoError(t, err)

	logger.Info("before")
	logger.SetLevel(slog.LevelDebug)
	logger.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeloop.log")
	var buf bytes.Buffer

	logger, err := New(Options{Level: slog.LevelInfo, Terminal: &buf, File: path, Journal: noJournal()})
	require.NoError(t, err)
	logger.Info("to file", "actor", "executor")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	assert.Equal(t, "to file", record["msg"])
	assert.Equal(t, "executor", record["actor"])
	assert.Contains(t, buf.String(), "to file")
}

func TestNew_BadFile(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log"), Journal: noJournal()})
	assert.ErrorContains(t, err, "open log file")
}

func TestToJournalKey(t *testing.T) {
	assert.Equal(t, "MESSAGE_ID", toJournalKey("message_id"))
	assert.Equal(t, "RUNNER_WORK_DIR", toJournalKey("runner.work-dir"))
}
