package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Equal(t, 3, cfg.Playback.BatchSize)
	assert.Equal(t, 60*time.Second, cfg.Playback.FetchTimeout)
	assert.True(t, cfg.Playback.AutoAdvance)
	assert.Equal(t, "text", cfg.Playback.Mode)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
	assert.Equal(t, 175, cfg.Speech.WordsPerMinute)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: http://localhost:8000
playback:
  mode: audio
  fetch_timeout: 15s
  auto_advance: false
player:
  command: cvlc
ui:
  theme: dark
`), 0o644))
	t.Setenv("HEARLEARN_SPEECH_VOICE", "pt-br")
	t.Setenv("HEARLEARN_PLAYBACK_BATCH_SIZE", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Server.URL)
	assert.Equal(t, "audio", cfg.Playback.Mode)
	assert.Equal(t, 15*time.Second, cfg.Playback.FetchTimeout)
	assert.False(t, cfg.Playback.AutoAdvance)
	assert.Equal(t, "cvlc", cfg.Player.Command)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.Equal(t, "pt-br", cfg.Speech.Voice)
	assert.Equal(t, 5, cfg.Playback.BatchSize)
}

func TestLoadConfigUnknownThemeFallsBack(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  theme: solarized\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
}

func TestSaveThemeRoundTrip(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://example\n"), 0o644))

	_, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, SaveTheme(ThemeDark))

	viper.Reset()
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.Equal(t, "http://example", cfg.Server.URL)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Speech.Voice = "en-us"
	cfg.Playback.FetchTimeout = 30 * time.Second
	require.NoError(t, SaveConfig(cfg))

	viper.Reset()
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "en-us", loaded.Speech.Voice)
	assert.Equal(t, 30*time.Second, loaded.Playback.FetchTimeout)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), ExpandHome("~/books"))
	assert.Equal(t, "/tmp/x", ExpandHome("/tmp/x"))
}

func TestSetupLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := SetupLogger(&LoggingConfig{File: path, Level: "debug"})
	require.NoError(t, err)

	logger.Debug("hello", "page", 3, "timeout", 1500*time.Millisecond)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"page":3`)
	assert.Contains(t, string(data), `"app":"hearlearn"`)
	assert.Contains(t, string(data), fmt.Sprintf(`"pid":%d`, os.Getpid()))
	assert.Contains(t, string(data), `"timeout":"1.5s"`)
}
