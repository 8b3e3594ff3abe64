package chainsync

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultHeaderQueueLimit is the default number of headers the work queue
	// may track before the header loop backs off.
	DefaultHeaderQueueLimit = 10000

	// DefaultBlockQueueLimit is the default capacity of the block import
	// queue the sink reports free space against.
	DefaultBlockQueueLimit = 2000
)

// Config holds the engine's tuning knobs.
type Config struct {
	// HeaderQueueLimit caps the number of headers tracked by the work queue.
	// When the queue is at the limit the header loop stops requesting until
	// ingestion drains it.
	HeaderQueueLimit int `toml:"header_queue_limit"`

	// BlockQueueLimit is the capacity of the downstream block import queue.
	// The import pipeline derives its free size from this limit.
	BlockQueueLimit int `toml:"block_queue_limit"`

	// DownloadHeaders enables the header retrieval loop.
	DownloadHeaders bool `toml:"download_headers"`

	// DownloadBodies enables the block body retrieval loop.
	DownloadBodies bool `toml:"download_bodies"`

	// PreferBestNearTip routes dispatch through the highest-scored idle peer
	// once sync is nearly complete, instead of an arbitrary idle peer.
	PreferBestNearTip bool `toml:"prefer_best_near_tip"`
}

// DefaultConfig returns a configuration with both download loops enabled.
func DefaultConfig() Config {
	return Config{
		HeaderQueueLimit:  DefaultHeaderQueueLimit,
		BlockQueueLimit:   DefaultBlockQueueLimit,
		DownloadHeaders:   true,
		DownloadBodies:    true,
		PreferBestNearTip: false,
	}
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg Config) ValidateBasic() error {
	if cfg.HeaderQueueLimit <= 0 {
		return fmt.Errorf("header_queue_limit must be positive, got %d", cfg.HeaderQueueLimit)
	}
	if cfg.BlockQueueLimit <= 0 {
		return fmt.Errorf("block_queue_limit must be positive, got %d", cfg.BlockQueueLimit)
	}
	if !cfg.DownloadHeaders && !cfg.DownloadBodies {
		return errors.New("at least one of download_headers and download_bodies must be enabled")
	}
	return nil
}

// LoadConfig reads a TOML config file, filling unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config at %s: %w", path, err)
	}
	if err := cfg.ValidateBasic(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
