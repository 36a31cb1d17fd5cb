package config

import "time"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	resume := true
	return &Config{
		Player: PlayerConfig{
			SeekToleranceMs:   500,
			SeekMaxStaleTicks: 4,
			AckMaxTicks:       3,
			SeekForwardMs:     5000,
			SeekBackwardMs:    2000,
			MinRate:           0.25,
			MaxRate:           4.0,
			Volume:            1.0,
			Resume:            &resume,
		},
		Playlist: PlaylistConfig{
			Repeat: "off",
		},
		Engine: EngineConfig{
			Kind: "sim",
			MPD: MPDConfig{
				Host:           "localhost",
				Port:           6600,
				PollIntervalMs: 500,
			},
			Sim: SimConfig{
				TickIntervalMs:  250,
				LoadDelayMs:     50,
				DefaultLengthMs: 180000,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Player
	if c.Player.SeekToleranceMs == 0 {
		c.Player.SeekToleranceMs = d.Player.SeekToleranceMs
	}
	if c.Player.SeekMaxStaleTicks == 0 {
		c.Player.SeekMaxStaleTicks = d.Player.SeekMaxStaleTicks
	}
	if c.Player.AckMaxTicks == 0 {
		c.Player.AckMaxTicks = d.Player.AckMaxTicks
	}
	if c.Player.SeekForwardMs == 0 {
		c.Player.SeekForwardMs = d.Player.SeekForwardMs
	}
	if c.Player.SeekBackwardMs == 0 {
		c.Player.SeekBackwardMs = d.Player.SeekBackwardMs
	}
	if c.Player.MinRate == 0 {
		c.Player.MinRate = d.Player.MinRate
	}
	if c.Player.MaxRate == 0 {
		c.Player.MaxRate = d.Player.MaxRate
	}
	if c.Player.Volume == 0 {
		c.Player.Volume = d.Player.Volume
	}
	if c.Player.Resume == nil {
		c.Player.Resume = d.Player.Resume
	}

	// Playlist
	if c.Playlist.Repeat == "" {
		c.Playlist.Repeat = d.Playlist.Repeat
	}

	// Engine
	if c.Engine.Kind == "" {
		c.Engine.Kind = d.Engine.Kind
	}
	if c.Engine.MPD.Host == "" {
		c.Engine.MPD.Host = d.Engine.MPD.Host
	}
	if c.Engine.MPD.Port == 0 {
		c.Engine.MPD.Port = d.Engine.MPD.Port
	}
	if c.Engine.MPD.PollIntervalMs == 0 {
		c.Engine.MPD.PollIntervalMs = d.Engine.MPD.PollIntervalMs
	}
	if c.Engine.Sim.TickIntervalMs == 0 {
		c.Engine.Sim.TickIntervalMs = d.Engine.Sim.TickIntervalMs
	}
	if c.Engine.Sim.LoadDelayMs == 0 {
		c.Engine.Sim.LoadDelayMs = d.Engine.Sim.LoadDelayMs
	}
	if c.Engine.Sim.DefaultLengthMs == 0 {
		c.Engine.Sim.DefaultLengthMs = d.Engine.Sim.DefaultLengthMs
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// ResumeEnabled reports whether per-URI resume positions are honored.
func (c PlayerConfig) ResumeEnabled() bool {
	return c.Resume == nil || *c.Resume
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// SeekTolerance returns the seek confirmation window.
func (c PlayerConfig) SeekTolerance() time.Duration { return ms(c.SeekToleranceMs) }

// SeekForward returns the relative seek-forward offset.
func (c PlayerConfig) SeekForward() time.Duration { return ms(c.SeekForwardMs) }

// SeekBackward returns the relative seek-backward offset.
func (c PlayerConfig) SeekBackward() time.Duration { return ms(c.SeekBackwardMs) }

// PollInterval returns the MPD status poll interval.
func (c MPDConfig) PollInterval() time.Duration { return ms(c.PollIntervalMs) }

// TickInterval returns the simulated position tick interval.
func (c SimConfig) TickInterval() time.Duration { return ms(c.TickIntervalMs) }

// LoadDelay returns the simulated load latency.
func (c SimConfig) LoadDelay() time.Duration { return ms(c.LoadDelayMs) }

// DefaultLength returns the length assumed for media with no known duration.
func (c SimConfig) DefaultLength() time.Duration { return ms(c.DefaultLengthMs) }
