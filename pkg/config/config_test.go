package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestPresets(t *testing.T) {
	for _, name := range []string{"default", "quickstart", "performance", ""} {
		cfg, err := GetPresetConfig(name)
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate())
	}

	_, err := GetPresetConfig("bogus")
	assert.Error(t, err)
}

func TestQuickstartIsLighterThanPerformance(t *testing.T) {
	q := QuickstartConfig()
	p := PerformanceConfig()
	assert.Less(t, q.Scheduler.ThreadWorkers, p.Scheduler.ThreadWorkers)
	assert.Less(t, q.Scheduler.QueueCapacity, p.Scheduler.QueueCapacity)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Scheduler.QueueCapacity, cfg.Scheduler.QueueCapacity)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskflow.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"scheduler":{"queue_capacity":42}}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Scheduler.QueueCapacity)
}

func TestEnvironmentOverridesTakePrecedence(t *testing.T) {
	t.Setenv("TASKFLOW_QUEUE_CAPACITY", "777")
	t.Setenv("TASKFLOW_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 777, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTP.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresDSNForPostgresAudit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Audit.DSN = "postgres://localhost/taskflow"
	assert.NoError(t, cfg.Validate())
}

func TestSaveToFileRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Scheduler, loaded.Scheduler)
}
