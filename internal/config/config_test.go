package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "vent.wave", cfg.NATS.Subjects.Wave)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 80*time.Millisecond, cfg.Simulator.Tick)
	assert.Equal(t, 40.0, cfg.Simulator.EtCO2Max)
	assert.Equal(t, 35.0, cfg.Alarms.High)
	assert.Equal(t, 5.0, cfg.Alarms.Low)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lungiq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nats:
  url: nats://broker:4222
  subjects:
    wave: sim.wave
simulator:
  tick: 40ms
alarms:
  high: 40
redis:
  addr: redis:6379
  db: 2
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, "sim.wave", cfg.NATS.Subjects.Wave)
	assert.Equal(t, "vent.metrics", cfg.NATS.Subjects.Metrics, "unset keys keep defaults")
	assert.Equal(t, 40*time.Millisecond, cfg.Simulator.Tick)
	assert.Equal(t, 40.0, cfg.Alarms.High)
	assert.Equal(t, 5.0, cfg.Alarms.Low)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LUNGIQ_NATS_URL", "nats://env:4222")
	t.Setenv("LUNGIQ_HTTP_ADDR", ":9999")
	t.Setenv("LUNGIQ_REDIS_ADDR", "localhost:6379")
	t.Setenv("LUNGIQ_REDIS_DB", "3")
	t.Setenv("LUNGIQ_LOG_LEVEL", "debug")
	t.Setenv("LUNGIQ_TICK", "100ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 100*time.Millisecond, cfg.Simulator.Tick)
}

func TestLoad_BadEnvironment(t *testing.T) {
	t.Setenv("LUNGIQ_TICK", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.NATS.URL = ""
	cfg.Simulator.Tick = 0
	cfg.Alarms.Low = 50
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats.url")
	assert.Contains(t, err.Error(), "simulator.tick")
	assert.Contains(t, err.Error(), "alarms.low")
}
