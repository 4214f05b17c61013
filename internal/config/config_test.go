package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
api:
  base_url: https://api.example.com/
  timeout: 5s
voice:
  enabled: false
  pitch: 0.5
  rate: 0.8
  synthesizer: ["say", "-v", "Daniel"]
  recognizer: ["whisper-listen"]
storage:
  path: /tmp/damon-test.db
render:
  fps: 24
log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(body); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()
	return tmp.Name()
}

// TestLoad_File verifies that Load correctly unmarshals every section of the file.
func TestLoad_File(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.False(t, cfg.Voice.Enabled)
	require.InDelta(t, 0.5, cfg.Voice.Pitch, 1e-9)
	require.InDelta(t, 0.8, cfg.Voice.Rate, 1e-9)
	require.Equal(t, []string{"say", "-v", "Daniel"}, cfg.Voice.Synthesizer)
	require.Equal(t, []string{"whisper-listen"}, cfg.Voice.Recognizer)
	require.Equal(t, "/tmp/damon-test.db", cfg.Storage.Path)
	require.Equal(t, "damon_files", cfg.Storage.Key, "unset keys keep their default")
	require.Equal(t, 24, cfg.Render.FPS)
	require.Equal(t, 700, cfg.Render.Particles)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "https://damonai.onrender.com", cfg.API.BaseURL)
	require.Equal(t, time.Minute, cfg.API.Timeout)
	require.True(t, cfg.Voice.Enabled)
	require.InDelta(t, 0.6, cfg.Voice.Pitch, 1e-9)
	require.InDelta(t, 0.9, cfg.Voice.Rate, 1e-9)
	require.Empty(t, cfg.Voice.Recognizer)
	require.Equal(t, 30, cfg.Render.FPS)
}

func TestLoad_EnvAndFlagsOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))
	t.Setenv("DAMON_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("damon", pflag.ContinueOnError)
	flags.String("base-url", "", "")
	require.NoError(t, flags.Parse([]string{"--base-url", "http://localhost:8000"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "api: [unclosed"))

	_, err := Load(nil)
	require.Error(t, err)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CONFIG_PATH", writeConfig(t, "storage:\n  path: ~/.damon/damon.db\n"))

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".damon", "damon.db"), cfg.Storage.Path)
}
