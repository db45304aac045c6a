package framesync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DebugTrace)
	assert.Equal(t, Rolloff, cfg.Rolloff)
	assert.Equal(t, DefaultDetectionThreshold, cfg.DetectionThreshold)
}

func TestLoadConfigFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\ndebug_trace: true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DebugTrace)
	assert.Equal(t, Rolloff, cfg.Rolloff)
	assert.Equal(t, DefaultDetectionThreshold, cfg.DetectionThreshold)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rolloff: 0.25\ndetection_threshold: 0.8\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Rolloff)
	assert.Equal(t, 0.8, cfg.DetectionThreshold)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path.yaml")
	assert.Error(t, err)
}
