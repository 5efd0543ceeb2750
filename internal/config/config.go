package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "ncstream"

type Config struct {
	Icons         string              `koanf:"icons"` // "nerd", "unicode", or "none"
	Player        PlayerConfig        `koanf:"player"`
	Netease       NeteaseConfig       `koanf:"netease"`
	Log           LogConfig           `koanf:"log"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// PlayerConfig tunes the playback pipeline.
type PlayerConfig struct {
	Mode            string `koanf:"mode"`              // "stream" or "clip" (default: "stream")
	LookaheadMS     int    `koanf:"lookahead_ms"`      // decoded audio buffered ahead (default: 1000)
	ChunkFrames     int    `koanf:"chunk_frames"`      // frames per decoded chunk (default: 4096)
	SpeakerBufferMS int    `koanf:"speaker_buffer_ms"` // output device buffer (default: 100)
}

// NeteaseConfig holds the song URL lookup settings.
type NeteaseConfig struct {
	BaseURL         string `koanf:"base_url"`          // default: https://music.163.com
	TimeoutSeconds  int    `koanf:"timeout_seconds"`   // default: 10
	Bitrate         int    `koanf:"bitrate"`           // default: 320000
	Cache           *bool  `koanf:"cache"`             // cache resolved URLs (default: true)
	CacheTTLMinutes int    `koanf:"cache_ttl_minutes"` // default: 15
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
	File  string `koanf:"file"`
}

type NotificationsConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// Load reads the user config then ./config.toml, later files overriding
// earlier ones.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given files in order; missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Netease.BaseURL = strings.TrimSuffix(cfg.Netease.BaseURL, "/")
	cfg.Player.Mode = strings.ToLower(strings.TrimSpace(cfg.Player.Mode))

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/ncstream/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPlayerConfig returns the player configuration with defaults applied.
func (c *Config) GetPlayerConfig() PlayerConfig {
	cfg := c.Player

	if cfg.Mode != "stream" && cfg.Mode != "clip" {
		cfg.Mode = "stream"
	}
	if cfg.LookaheadMS <= 0 {
		cfg.LookaheadMS = 1000
	}
	if cfg.ChunkFrames <= 0 || cfg.ChunkFrames > 1<<16 {
		cfg.ChunkFrames = 4096
	}
	if cfg.SpeakerBufferMS <= 0 || cfg.SpeakerBufferMS > 2000 {
		cfg.SpeakerBufferMS = 100
	}

	return cfg
}

// GetNeteaseConfig returns the lookup configuration with defaults applied.
func (c *Config) GetNeteaseConfig() NeteaseConfig {
	cfg := c.Netease

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://music.163.com"
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.Bitrate <= 0 {
		cfg.Bitrate = 320000
	}
	if cfg.Cache == nil {
		enabled := true
		cfg.Cache = &enabled
	}
	if cfg.CacheTTLMinutes <= 0 {
		cfg.CacheTTLMinutes = 15
	}

	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
		cfg.Level = strings.ToLower(cfg.Level)
	default:
		cfg.Level = "info"
	}
	return cfg
}

// NotificationsEnabled reports whether desktop notifications are on.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

// CacheEnabled reports whether resolved URLs are cached.
func (c *Config) CacheEnabled() bool {
	return *c.GetNeteaseConfig().Cache
}
