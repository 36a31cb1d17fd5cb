package config

import (
	"errors"
	"fmt"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if err := c.Playlist.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playlist: %w", err))
	}
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks PlayerConfig for errors.
func (c *PlayerConfig) Validate() error {
	if c.SeekToleranceMs < 0 {
		return errors.New("seek_tolerance_ms must be non-negative")
	}
	if c.SeekMaxStaleTicks < 1 {
		return errors.New("seek_max_stale_ticks must be at least 1")
	}
	if c.AckMaxTicks < 1 {
		return errors.New("ack_max_ticks must be at least 1")
	}
	if c.SeekForwardMs < 0 || c.SeekBackwardMs < 0 {
		return errors.New("seek offsets must be non-negative")
	}
	if c.MinRate <= 0 || c.MaxRate < c.MinRate {
		return fmt.Errorf("invalid rate bounds [%.2f, %.2f]", c.MinRate, c.MaxRate)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return errors.New("volume must be between 0.0 and 1.0")
	}
	return nil
}

// Validate checks PlaylistConfig for errors.
func (c *PlaylistConfig) Validate() error {
	if _, err := domain.ParseRepeatMode(c.Repeat); err != nil {
		return err
	}
	return nil
}

// Validate checks EngineConfig for errors.
func (c *EngineConfig) Validate() error {
	switch c.Kind {
	case "sim":
		if c.Sim.TickIntervalMs <= 0 {
			return errors.New("sim.tick_interval_ms must be positive")
		}
		if c.Sim.LoadDelayMs < 0 {
			return errors.New("sim.load_delay_ms must be non-negative")
		}
	case "mpd":
		if c.MPD.Host == "" {
			return errors.New("mpd.host is required")
		}
		if c.MPD.Port <= 0 || c.MPD.Port > 65535 {
			return fmt.Errorf("invalid mpd.port: %d", c.MPD.Port)
		}
		if c.MPD.PollIntervalMs <= 0 {
			return errors.New("mpd.poll_interval_ms must be positive")
		}
	default:
		return fmt.Errorf("invalid engine kind: %s (must be sim or mpd)", c.Kind)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "text", "json":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}
	return nil
}
