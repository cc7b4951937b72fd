package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "jez.yaml", `
repl:
  prompt: "> "
  history_file: /tmp/jez_history
log:
  level: debug
stats: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "> ", cfg.Repl.Prompt)
	assert.Equal(t, "...  ", cfg.Repl.ContinuationPrompt, "unset keys keep defaults")
	assert.Equal(t, "/tmp/jez_history", cfg.Repl.HistoryFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Stats)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "repl:\n  colour: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "log:\n  level: loud\n  format: xml\n"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Len(t, verr.Issues, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestLocateOrder(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	t.Setenv(EnvVar, "")
	assert.Equal(t, "", Locate(""))

	require.NoError(t, os.WriteFile(DefaultFile, []byte("stats: true\n"), 0o644))
	assert.Equal(t, DefaultFile, Locate(""))

	t.Setenv(EnvVar, "/etc/jez.yaml")
	assert.Equal(t, "/etc/jez.yaml", Locate(""))
	assert.Equal(t, "explicit.yaml", Locate("explicit.yaml"))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := LogConfig{Level: "info", Format: format}.NewLogger()
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
	_, err := LogConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}
