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
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, defaultRequestTimeoutMS, cfg.API.RequestTimeoutMS)
	assert.Equal(t, defaultIntervalSeconds, cfg.Refresh.IntervalSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Watches)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
api:
  key: file-key
  requestTimeoutMS: 2500
refresh:
  intervalSeconds: 15
logging:
  level: debug
  console: true
watches:
  - routeID: "10"
    directionID: 0
  - routeID: "2"
    directionID: 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file-key", cfg.API.Key)
	assert.Equal(t, 2500, cfg.API.RequestTimeoutMS)
	assert.Equal(t, 15, cfg.Refresh.IntervalSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Watches, 2)
	assert.Equal(t, Watch{RouteID: "2", DirectionID: 1}, cfg.Watches[1])
	// Defaults still fill what the file left out.
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  key: file-key
`)
	t.Setenv("METLINK_API_KEY", "env-key")
	t.Setenv("METLINK_BASE_URL", "https://example.test/v1")
	t.Setenv("PORT", "8123")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.Key)
	assert.Equal(t, "https://example.test/v1", cfg.API.BaseURL)
	assert.Equal(t, 8123, cfg.Server.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "watches:\n  - routeID: \"\"\n    directionID: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "watches:\n  - routeID: \"10\"\n    directionID: 2\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "refresh:\n  intervalSeconds: -5\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging:\n  maxSizeMB: -1\n"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [\n"))
	assert.Error(t, err)
}
