package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_JSONC(t *testing.T) {
	t.Parallel()

	cfg, err := parseConfig([]byte(`{
  // durable file lives next to the project
  "store_file": "deals.json",
  "max_backups": 10,
  "lock_retries": 3,
  "lock_backoff_ms": 50, // trailing comma is fine
}`))

	require.NoError(t, err)
	assert.Equal(t, "deals.json", cfg.StoreFile)
	assert.Equal(t, 10, cfg.MaxBackups)
	assert.Equal(t, 3, cfg.LockRetries)
	assert.Equal(t, 50, cfg.LockBackoffMS)
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseConfig([]byte(`{"store_file": 42}`))
	assert.Error(t, err)
}

func TestMergeConfig_OverlayWins(t *testing.T) {
	t.Parallel()

	base := DefaultConfig()
	base.MaxBackups = 3

	merged := mergeConfig(base, Config{StoreFile: "other.json", LockRetries: 7})

	assert.Equal(t, "other.json", merged.StoreFile)
	assert.Equal(t, 3, merged.MaxBackups, "unset overlay field keeps base value")
	assert.Equal(t, 7, merged.LockRetries)
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	globalDir := filepath.Join(dir, "xdg", "dealpipe")
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.json"),
		[]byte(`{"store_file": "global.json", "max_backups": 9}`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
		[]byte(`{"store_file": "project.json"}`), 0o644))

	env := map[string]string{"XDG_CONFIG_HOME": filepath.Join(dir, "xdg")}

	cfg, sources, err := LoadConfig(dir, "", "", env)
	require.NoError(t, err)

	assert.Equal(t, "project.json", cfg.StoreFile, "project config overrides global")
	assert.Equal(t, 9, cfg.MaxBackups, "global value survives where project is silent")
	assert.NotEmpty(t, sources.Global)
	assert.NotEmpty(t, sources.Project)

	// Flag override beats every file.
	cfg, _, err = LoadConfig(dir, "", "flag.json", env)
	require.NoError(t, err)
	assert.Equal(t, "flag.json", cfg.StoreFile)
}

func TestLoadConfig_ExplicitFileMustExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, _, err := LoadConfig(dir, "missing.json", "", map[string]string{"XDG_CONFIG_HOME": dir})
	assert.ErrorIs(t, err, errConfigFileNotFound)
}
