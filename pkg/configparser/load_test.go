package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
database:
  host: ${FLEET_TEST_DB_HOST:-db.local}
  port: 5433
ride:
  arrival_radius_meters: 75
  auto_complete: false
rabbitmq:
  enabled:
log_level: INFO
`

func TestFlatten(t *testing.T) {
	vars, err := Flatten([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "db.local", vars["DATABASE_HOST"])
	assert.Equal(t, "5433", vars["DATABASE_PORT"])
	assert.Equal(t, "75", vars["RIDE_ARRIVAL_RADIUS_METERS"])
	assert.Equal(t, "false", vars["RIDE_AUTO_COMPLETE"])
	assert.Equal(t, "INFO", vars["LOG_LEVEL"])
	assert.NotContains(t, vars, "RABBITMQ_ENABLED")
}

func TestFlattenExpandsEnvironment(t *testing.T) {
	t.Setenv("FLEET_TEST_DB_HOST", "pg.internal")

	vars, err := Flatten([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "pg.internal", vars["DATABASE_HOST"])
}

type testConfig struct {
	Database struct {
		Host string `envconfig:"HOST" default:"localhost"`
		Port int    `envconfig:"PORT" default:"5432"`
	} `envconfig:"DATABASE"`
	Ride struct {
		ArrivalRadius float64       `envconfig:"ARRIVAL_RADIUS_METERS" default:"50"`
		AutoComplete  bool          `envconfig:"AUTO_COMPLETE" default:"true"`
		Timeout       time.Duration `envconfig:"TIMEOUT" default:"5s"`
	} `envconfig:"RIDE"`
}

func TestLoadAndParseYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	// keys set by the test process win over the file
	t.Setenv("DATABASE_PORT", "6000")
	for _, k := range []string{"DATABASE_HOST", "RIDE_ARRIVAL_RADIUS_METERS", "RIDE_AUTO_COMPLETE", "LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	var cfg testConfig
	require.NoError(t, LoadAndParseYaml(path, &cfg))

	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 6000, cfg.Database.Port)
	assert.Equal(t, 75.0, cfg.Ride.ArrivalRadius)
	assert.False(t, cfg.Ride.AutoComplete)
	assert.Equal(t, 5*time.Second, cfg.Ride.Timeout)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_HOST", "DATABASE_PORT", "RIDE_ARRIVAL_RADIUS_METERS", "RIDE_AUTO_COMPLETE", "RIDE_TIMEOUT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	var cfg testConfig
	require.NoError(t, LoadAndParseYaml(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 50.0, cfg.Ride.ArrivalRadius)
	assert.True(t, cfg.Ride.AutoComplete)

	assert.ErrorIs(t, LoadYamlFile(""), ErrNoFilePath)
}
