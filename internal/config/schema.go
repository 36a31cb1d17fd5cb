package config

// Config is the root configuration structure.
type Config struct {
	Player   PlayerConfig   `toml:"player"`
	Playlist PlaylistConfig `toml:"playlist"`
	Engine   EngineConfig   `toml:"engine"`
	Log      LogConfig      `toml:"log"`
}

// PlayerConfig holds playback control settings.
// Durations are expressed in milliseconds.
type PlayerConfig struct {
	SeekToleranceMs   int     `toml:"seek_tolerance_ms"`
	SeekMaxStaleTicks int     `toml:"seek_max_stale_ticks"`
	AckMaxTicks       int     `toml:"ack_max_ticks"`
	SeekForwardMs     int     `toml:"seek_forward_ms"`
	SeekBackwardMs    int     `toml:"seek_backward_ms"`
	MinRate           float64 `toml:"min_rate"`
	MaxRate           float64 `toml:"max_rate"`
	Volume            float64 `toml:"volume"`
	Resume            *bool   `toml:"resume"`
}

// PlaylistConfig holds the initial playlist policy.
type PlaylistConfig struct {
	Repeat  string `toml:"repeat"`
	Shuffle bool   `toml:"shuffle"`

	// Seed fixes the shuffle sequence; zero picks a random seed
	Seed uint64 `toml:"seed"`
}

// EngineConfig selects and configures the media engine adapter.
type EngineConfig struct {
	Kind string    `toml:"kind"` // "sim" or "mpd"
	MPD  MPDConfig `toml:"mpd"`
	Sim  SimConfig `toml:"sim"`
}

// MPDConfig holds the connection settings of the MPD engine.
type MPDConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Password       string `toml:"password"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
}

// SimConfig holds the settings of the simulated engine.
type SimConfig struct {
	TickIntervalMs  int `toml:"tick_interval_ms"`
	LoadDelayMs     int `toml:"load_delay_ms"`
	DefaultLengthMs int `toml:"default_length_ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}
