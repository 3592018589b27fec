package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "sse", cfg.Chat.Provider)
	assert.Equal(t, 10, cfg.Chat.RequestsPerMinute)
	assert.Equal(t, "alloy", cfg.TTS.Voice)
	assert.Equal(t, "sqlite", cfg.Session.Store)
	assert.Equal(t, 30, cfg.Session.IdleMinutes)
	assert.Equal(t, 50, cfg.Session.MaxMessages)
	assert.Equal(t, 90, cfg.Assistant.AutoNavigateConfidence)
	assert.Equal(t, 18990, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "none", cfg.Gateway.Auth.Mode)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_PartialFileBackfills(t *testing.T) {
	path := writeConfig(t, `
chat:
  provider: openai
  model: gpt-4o
session:
  store: memory
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Chat.Provider)
	assert.Equal(t, "gpt-4o", cfg.Chat.Model)
	assert.Equal(t, "memory", cfg.Session.Store)

	// Everything unspecified falls back to defaults.
	assert.Equal(t, 10, cfg.Chat.RequestsPerMinute)
	assert.Equal(t, 30, cfg.Session.IdleMinutes)
	assert.Equal(t, 18990, cfg.Gateway.Port)
	assert.Equal(t, 1200, cfg.Assistant.ParagraphPauseMs)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "chat: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_ExpandsEnvVarsInCredentials(t *testing.T) {
	t.Setenv("IRIS_TEST_KEY", "key-from-env")
	t.Setenv("IRIS_TEST_TOKEN", "token-from-env")

	path := writeConfig(t, `
chat:
  apiKey: ${IRIS_TEST_KEY}
gateway:
  auth:
    mode: token
    token: ${IRIS_TEST_TOKEN}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", cfg.Chat.APIKey)
	assert.Equal(t, "token-from-env", cfg.Gateway.Auth.Token)
}

func TestExpandEnvVars_UnsetLeftUnchanged(t *testing.T) {
	assert.Equal(t, "${IRIS_DEFINITELY_UNSET_VAR}", expandEnvVars("${IRIS_DEFINITELY_UNSET_VAR}"))
	assert.Equal(t, "plain text", expandEnvVars("plain text"))
}

func TestResolvePaths_HomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IRIS_HOME", dir)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, dir, paths.Base)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(dir, "data"), paths.Data)

	require.NoError(t, paths.EnsureDirs())
	for _, d := range []string{paths.Base, paths.Data, paths.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
