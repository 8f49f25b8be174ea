package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
content_store:
  project_id: "abc123"
restaurant:
  id: "restaurant-1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.ContentStore.Dataset)
	assert.NotEmpty(t, cfg.ContentStore.APIVersion)
	assert.Equal(t, 10*time.Second, cfg.Monitor.PollInterval())
	assert.Equal(t, 3*time.Second, cfg.Monitor.ResumeSettle())
	assert.Equal(t, 60*time.Second, cfg.Monitor.DecisionTimeout())
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
content_store:
  project_id: "abc123"
  dataset: "staging"
  token: "secret"
restaurant:
  id: "restaurant-1"
monitor:
  poll_interval_seconds: 30
  decision_timeout_seconds: 90
sound:
  command: "afplay"
  args: ["alert.mp3"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.ContentStore.Dataset)
	assert.Equal(t, "secret", cfg.ContentStore.Token)
	assert.Equal(t, 30*time.Second, cfg.Monitor.PollInterval())
	assert.Equal(t, 90*time.Second, cfg.Monitor.DecisionTimeout())
	assert.Equal(t, "afplay", cfg.Sound.Command)
	assert.Equal(t, []string{"alert.mp3"}, cfg.Sound.Args)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
restaurant:
  id: "restaurant-1"
`))
	assert.ErrorContains(t, err, "project_id")

	_, err = Load(writeConfig(t, `
content_store:
  project_id: "abc123"
`))
	assert.ErrorContains(t, err, "restaurant.id")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "{not yaml"))
	assert.Error(t, err)
}
