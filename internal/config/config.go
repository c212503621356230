// Package config loads the bot's JSON configuration file. Fields are
// pointers so a partial file only overrides what it names; the Get*
// methods supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/bot.defaults.json"

// BotConfig is the root configuration. The schema doubles as the
// /api/config response so the same JSON works for startup and inspection.
type BotConfig struct {
	// Network params
	ListenAddress *string `json:"listen_address,omitempty"`
	APIAddress    *string `json:"api_address,omitempty"`
	IdleTimeout   *string `json:"idle_timeout,omitempty"` // duration string like "30s"

	// Pipeline params
	FrameTimeout    *string `json:"frame_timeout,omitempty"` // duration string like "100ms"
	SelectionSeed   *int64  `json:"selection_seed,omitempty"`
	DetectionStride *int    `json:"detection_stride,omitempty"`

	// Journal params
	JournalPath *string `json:"journal_path,omitempty"`
	RedisURL    *string `json:"redis_url,omitempty"`
	JournalSize *int    `json:"journal_size,omitempty"` // in-memory ring size
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrInt64(v int64) *int64    { return &v }

// Empty returns a BotConfig with all fields unset.
func Empty() *BotConfig {
	return &BotConfig{}
}

// Load reads a BotConfig from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func Load(path string) (*BotConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *BotConfig) Validate() error {
	if c.FrameTimeout != nil && *c.FrameTimeout != "" {
		if _, err := time.ParseDuration(*c.FrameTimeout); err != nil {
			return fmt.Errorf("invalid frame_timeout '%s': %w", *c.FrameTimeout, err)
		}
	}

	if c.IdleTimeout != nil && *c.IdleTimeout != "" {
		if _, err := time.ParseDuration(*c.IdleTimeout); err != nil {
			return fmt.Errorf("invalid idle_timeout '%s': %w", *c.IdleTimeout, err)
		}
	}

	if c.DetectionStride != nil {
		if *c.DetectionStride < 1 {
			return fmt.Errorf("detection_stride must be positive, got %d", *c.DetectionStride)
		}
	}

	if c.JournalSize != nil {
		if *c.JournalSize < 0 {
			return fmt.Errorf("journal_size must be non-negative, got %d", *c.JournalSize)
		}
	}

	return nil
}

// GetListenAddress returns the intake listen address or the default.
func (c *BotConfig) GetListenAddress() string {
	if c.ListenAddress == nil || *c.ListenAddress == "" {
		return ":5555" // default
	}
	return *c.ListenAddress
}

// GetAPIAddress returns the HTTP API address or the default.
func (c *BotConfig) GetAPIAddress() string {
	if c.APIAddress == nil || *c.APIAddress == "" {
		return ":8080" // default
	}
	return *c.APIAddress
}

// GetIdleTimeout parses and returns IdleTimeout as a time.Duration.
func (c *BotConfig) GetIdleTimeout() time.Duration {
	if c.IdleTimeout == nil || *c.IdleTimeout == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.IdleTimeout)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetFrameTimeout parses and returns FrameTimeout as a time.Duration.
func (c *BotConfig) GetFrameTimeout() time.Duration {
	if c.FrameTimeout == nil || *c.FrameTimeout == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.FrameTimeout)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetSelectionSeed returns the selection_seed value or zero (entropy).
func (c *BotConfig) GetSelectionSeed() int64 {
	if c.SelectionSeed == nil {
		return 0
	}
	return *c.SelectionSeed
}

// GetDetectionStride returns the detection_stride value or the default.
func (c *BotConfig) GetDetectionStride() int {
	if c.DetectionStride == nil {
		return 16
	}
	return *c.DetectionStride
}

// GetJournalPath returns the sqlite journal path or the default.
func (c *BotConfig) GetJournalPath() string {
	if c.JournalPath == nil || *c.JournalPath == "" {
		return "framebot.db"
	}
	return *c.JournalPath
}

// GetRedisURL returns the redis stream URL; empty disables fanout.
func (c *BotConfig) GetRedisURL() string {
	if c.RedisURL == nil {
		return ""
	}
	return *c.RedisURL
}

// GetJournalSize returns the in-memory journal ring size or the default.
func (c *BotConfig) GetJournalSize() int {
	if c.JournalSize == nil {
		return 256
	}
	return *c.JournalSize
}
