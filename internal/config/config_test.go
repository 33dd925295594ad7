package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_file = "/var/lib/todo/data.json"
undo_window = "10s"
log_level = "debug"

[admin]
user = "admin"
password = "secret"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/todo/data.json", cfg.DataFile)
	assert.Equal(t, 10*time.Second, cfg.UndoWindow.Duration)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Admin{User: "admin", Password: "secret"}, cfg.Admin)
	// Незаданные поля остаются дефолтными.
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout.Duration)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte(`colour = "blue"`), 0o644))
	_, err := Load(unknown)
	assert.Error(t, err)

	badDuration := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(badDuration, []byte(`undo_window = "soon"`), 0o644))
	_, err = Load(badDuration)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDataFile, "/tmp/x.json")
	t.Setenv(EnvListen, ":9090")
	t.Setenv(EnvUndoWindow, "3s")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/tmp/x.json", cfg.DataFile)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 3*time.Second, cfg.UndoWindow.Duration)

	t.Setenv(EnvUndoWindow, "-1s")
	assert.Error(t, cfg.ApplyEnv())
}

func TestEncodeRoundTrip(t *testing.T) {
	raw, err := Default().Encode()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "undo_window")
	assert.Contains(t, string(raw), "5s")

	path := filepath.Join(t.TempDir(), "todo.toml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
