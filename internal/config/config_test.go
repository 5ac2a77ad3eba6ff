package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "superterm", cfg.Name)
	assert.Equal(t, "python3", cfg.Scripts.Interpreters[".py"])
	assert.Equal(t, 60*time.Second, cfg.GetScriptTimeout())
	assert.False(t, cfg.Recognition.ForceFallback)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
recognition:
  force_fallback: true
organize:
  misc_dir: other
  watch_debounce: 500ms
scripts:
  default_timeout: 5s
logging:
  debug_mode: true
  json_format: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Recognition.ForceFallback)
	assert.Equal(t, "other", cfg.Organize.MiscDir)
	assert.Equal(t, 500*time.Millisecond, cfg.GetWatchDebounce())
	assert.Equal(t, 5*time.Second, cfg.GetScriptTimeout())
	assert.True(t, cfg.Logging.JSONFormat)
	// Untouched sections keep their defaults.
	assert.Equal(t, ".superterm/superterm.db", cfg.Memory.DatabasePath)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recognition: [\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SUPERTERM_FORCE_FALLBACK", "1")
	t.Setenv("SUPERTERM_DB", "/tmp/override.db")
	t.Setenv("SUPERTERM_WORKSPACE", "/srv/files")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Recognition.ForceFallback)
	assert.Equal(t, "/tmp/override.db", cfg.Memory.DatabasePath)
	assert.Equal(t, "/srv/files", cfg.Workspace)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Organize.Mappings = map[string]string{".csv": "data"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data", loaded.Organize.Mappings[".csv"])
	assert.Equal(t, cfg.Scripts.MaxOutputBytes, loaded.Scripts.MaxOutputBytes)
}

func TestLoadWorkspace(t *testing.T) {
	ws := t.TempDir()
	path := filepath.Join(ws, ".superterm", "config.yaml")
	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadWorkspace(ws)
	require.NoError(t, err)
	assert.Equal(t, ws, loaded.Workspace)
}
