package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5046/api/DeviceData", cfg.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2*time.Second, cfg.StopGrace)
	assert.Equal(t, time.Second, cfg.ErrorPause)
	assert.Equal(t, "", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Breaker.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.False(t, cfg.Influx.Enabled)
	assert.Equal(t, 1883, cfg.MQTT.Broker.Port)
	assert.Contains(t, cfg.MQTT.Broker.ClientID, "sensor-simulator-")
	assert.Empty(t, cfg.StatusHTTPAddr)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SENSORSIM_ENDPOINT", "http://api.test/api/DeviceData")
	t.Setenv("SENSORSIM_HTTP_TIMEOUT", "3s")
	t.Setenv("SENSORSIM_BREAKER_ENABLED", "true")
	t.Setenv("SENSORSIM_MQTT_TOPIC_PREFIX", "iot/readings")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api/DeviceData", cfg.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, "iot/readings", cfg.MQTT.TopicPrefix)
}

func TestLoadConfigFlagsWinOverEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SENSORSIM_MODE", "alert")

	cfg, err := loadConfig([]string{"--mode", "mixed", "--seed", "9", "--status-http", ":9100"})
	require.NoError(t, err)
	assert.Equal(t, "mixed", cfg.Mode)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, ":9100", cfg.StatusHTTPAddr)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: http://file.test/api/DeviceData
influx:
  enabled: true
  bucket: sim
stop:
  grace: 500ms
`), 0o644))

	cfg, err := loadConfig([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "http://file.test/api/DeviceData", cfg.Endpoint)
	assert.True(t, cfg.Influx.Enabled)
	assert.Equal(t, "sim", cfg.Influx.Bucket)
	assert.Equal(t, 500*time.Millisecond, cfg.StopGrace)
}

func TestLoadConfigErrors(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := loadConfig([]string{"--config", "/does/not/exist.yaml"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)

	t.Setenv("SENSORSIM_HTTP_TIMEOUT", "0s")
	_, err = loadConfig(nil)
	assert.Error(t, err)
}

// chdir keeps a stray sensorsim.yaml in the package dir out of the tests.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
