package chainsync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ValidateBasic())
	assert.Equal(t, DefaultHeaderQueueLimit, cfg.HeaderQueueLimit)
	assert.Equal(t, DefaultBlockQueueLimit, cfg.BlockQueueLimit)
	assert.True(t, cfg.DownloadHeaders)
	assert.True(t, cfg.DownloadBodies)
	assert.False(t, cfg.PreferBestNearTip)
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeaderQueueLimit = 0
	assert.Error(t, cfg.ValidateBasic())

	cfg = DefaultConfig()
	cfg.BlockQueueLimit = -1
	assert.Error(t, cfg.ValidateBasic())

	cfg = DefaultConfig()
	cfg.DownloadHeaders = false
	cfg.DownloadBodies = false
	assert.Error(t, cfg.ValidateBasic())

	// Headers only is a valid setup.
	cfg = DefaultConfig()
	cfg.DownloadBodies = false
	assert.NoError(t, cfg.ValidateBasic())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainsync.toml")
	data := `
header_queue_limit = 500
download_bodies = false
prefer_best_near_tip = true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.HeaderQueueLimit)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultBlockQueueLimit, cfg.BlockQueueLimit)
	assert.True(t, cfg.DownloadHeaders)
	assert.False(t, cfg.DownloadBodies)
	assert.True(t, cfg.PreferBestNearTip)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainsync.toml")
	require.NoError(t, os.WriteFile(path, []byte("header_queue_limit = -5\n"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
