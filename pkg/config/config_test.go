package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 9, c.Forecast.Horizon)
	assert.Equal(t, []int{1, 2}, c.Forecast.LagLevels)
	assert.Equal(t, 0.5, c.Forecast.GapThreshold)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, time.Hour, c.Cache.TTL)
	assert.Equal(t, "info", c.Log.Level)
	assert.NoError(t, c.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
forecast:
  horizon: 5
model:
  type: http
  url: http://model:8000
store:
  type: clickhouse
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 5, c.Forecast.Horizon)
	assert.Equal(t, []int{1, 2}, c.Forecast.LagLevels)
	assert.Equal(t, "http://model:8000", c.Model.URL)
	assert.Equal(t, "player_seasons", c.ClickHouse.Table)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"horizon":        "forecast:\n  horizon: 0\n",
		"model type":     "model:\n  type: onnx\n",
		"http model url": "model:\n  type: http\n",
		"postgres url":   "store:\n  type: postgres\n",
		"kafka brokers":  "kafka:\n  enabled: true\n",
		"lag level":      "forecast:\n  lag_levels: [4]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := writeConfig(t, "store:\n  type: postgres\n")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("PORT", "9999")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/db", c.Postgres.URL)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 9999, c.Server.Port)
}
