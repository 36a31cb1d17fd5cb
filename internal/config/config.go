// Package config loads the player configuration from TOML with environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.goplayerrc, $XDG_CONFIG_HOME/goplayer/config.toml, ~/.config/goplayer/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Parse decodes configuration from TOML text.
func Parse(data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".goplayerrc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "goplayer", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Engine
	if v := os.Getenv("GOPLAYER_ENGINE"); v != "" {
		cfg.Engine.Kind = v
	}
	if v := os.Getenv("GOPLAYER_MPD_HOST"); v != "" {
		cfg.Engine.MPD.Host = v
	}
	if v := os.Getenv("GOPLAYER_MPD_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MPD.Port = i
		}
	}
	if v := os.Getenv("GOPLAYER_MPD_PASSWORD"); v != "" {
		cfg.Engine.MPD.Password = v
	}

	// Player
	if v := os.Getenv("GOPLAYER_SEEK_TOLERANCE_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Player.SeekToleranceMs = i
		}
	}

	// Playlist
	if v := os.Getenv("GOPLAYER_REPEAT"); v != "" {
		cfg.Playlist.Repeat = v
	}
	if v := os.Getenv("GOPLAYER_SHUFFLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Playlist.Shuffle = b
		}
	}

	// Log
	if v := os.Getenv("GOPLAYER_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
