package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-assign-server-go/engine"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "reports", cfg.Data.ReportsDir)
	assert.Equal(t, 30, cfg.Assignment.BatchSize)
	assert.Equal(t, 12, cfg.Assignment.RemainderThreshold)
	assert.True(t, cfg.Assignment.AllowOverload)
	assert.True(t, cfg.Assignment.SortByRollNumber)
	assert.Equal(t, []string{"csv", "excel", "pdf", "json"}, cfg.Export.Formats)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 8, cfg.Redis.DB)

	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.NewDefaultConfig(), ec)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MENTOR_ASSIGNMENT_BATCH_SIZE", "25")
	t.Setenv("MENTOR_ASSIGNMENT_REMAINDER_THRESHOLD", "5")
	t.Setenv("MENTOR_ASSIGNMENT_ALLOW_OVERLOAD", "false")
	t.Setenv("MENTOR_EXPORT_FORMATS", "csv, json")
	t.Setenv("MENTOR_REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Assignment.BatchSize)
	assert.Equal(t, 5, cfg.Assignment.RemainderThreshold)
	assert.False(t, cfg.Assignment.AllowOverload)
	assert.Equal(t, []string{"csv", "json"}, cfg.Export.Formats)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_RejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("MENTOR_ASSIGNMENT_BATCH_SIZE", "10")
	t.Setenv("MENTOR_ASSIGNMENT_REMAINDER_THRESHOLD", "10")

	_, err := Load("")
	require.ErrorIs(t, err, engine.ErrInvalidConfiguration)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentor.yaml")
	content := `
server:
  addr: ":9090"
assignment:
  batch_size: 20
  remainder_threshold: 4
export:
  schedule: "0 0 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Assignment.BatchSize)
	assert.Equal(t, 4, cfg.Assignment.RemainderThreshold)
	assert.Equal(t, "0 0 * * * *", cfg.Export.Schedule)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
