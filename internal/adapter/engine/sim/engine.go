// Package sim provides a pure-Go simulated media pipeline.
//
// It has no decoder: loaded media "plays" against a wall clock, reports positions
// on a ticker and ends after a configured length. Local files must exist on the
// configured filesystem, network URIs report a short buffering phase when they start.
// It lets the player run headless without any native media stack.
package sim

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// Config tunes the simulated pipeline.
type Config struct {
	// TickInterval is how often positions are reported while playing
	TickInterval time.Duration

	// LoadDelay is how long a load takes before the media is ready
	LoadDelay time.Duration

	// Length is the duration every loaded item plays for
	Length time.Duration
}

// DefaultConfig returns a realistic configuration.
func DefaultConfig() Config {
	return Config{
		TickInterval: 250 * time.Millisecond,
		LoadDelay:    50 * time.Millisecond,
		Length:       3 * time.Minute,
	}
}

type phase int

const (
	phaseIdle phase = iota
	phaseLoading
	phaseReady
)

var videoExts = []string{".mkv", ".mp4", ".m4v", ".webm", ".avi", ".mov", ".wmv", ".mpg", ".mpeg", ".ts", ".ogv"}

// Engine is a simulated implementation of the MediaEngine interface.
//
// Thread-safety: This implementation is thread-safe. Events are delivered outside
// the engine lock, from the calling goroutine for command acknowledgements and from
// the clock goroutine for everything else.
type Engine struct {
	logger *slog.Logger
	fs     afero.Fs
	cfg    Config

	mu         sync.Mutex
	sink       ports.EventSink
	generation uint64
	uri        string
	phase      phase
	playing    bool
	missing    bool
	remote     bool
	buffering  bool
	readyAt    time.Time
	advancedAt time.Time
	position   time.Duration
	startAt    time.Duration
	rate       float64
	volume     float64
	muted      bool
	streams    domain.StreamInfo
	closed     bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewEngine creates a simulated engine and starts its clock. A nil filesystem
// means the OS filesystem.
func NewEngine(logger *slog.Logger, filesystem afero.Fs, cfg Config) *Engine {
	defaults := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.LoadDelay < 0 {
		cfg.LoadDelay = 0
	}
	if cfg.Length <= 0 {
		cfg.Length = defaults.Length
	}
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}

	e := &Engine{
		logger: logger,
		fs:     filesystem,
		cfg:    cfg,
		rate:   1.0,
		volume: 1.0,
		done:   make(chan struct{}),
	}

	e.wg.Add(1)
	go e.clock()

	logger.Info("simulated engine started",
		slog.Duration("tick", cfg.TickInterval),
		slog.Duration("length", cfg.Length))
	return e
}

// SetSink registers the event receiver.
func (e *Engine) SetSink(sink ports.EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// Load abandons the current media and starts loading uri.
func (e *Engine) Load(generation uint64, uri string) error {
	if uri == "" {
		return domain.ErrInvalidURI
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOpen("load", uri); err != nil {
		return err
	}

	path, local := localPath(uri)
	missing := false
	if local {
		if _, err := e.fs.Stat(path); err != nil {
			missing = true
		}
	}

	e.generation = generation
	e.uri = uri
	e.phase = phaseLoading
	e.playing = false
	e.missing = missing
	e.remote = !local
	e.buffering = false
	e.readyAt = time.Now().Add(e.cfg.LoadDelay)
	e.position = 0
	e.startAt = 0
	e.rate = 1.0
	e.streams = domain.StreamInfo{}

	e.logger.Debug("loading", slog.Uint64("generation", generation), slog.String("uri", uri))
	return nil
}

// Play starts playback, or schedules it for when the load completes.
func (e *Engine) Play() error {
	events, err := e.command("play", func() ([]domain.EngineEvent, error) {
		if e.phase == phaseIdle {
			return nil, fmt.Errorf("nothing loaded: %w", domain.ErrUnsupported)
		}
		if e.playing {
			return nil, nil
		}
		e.playing = true
		e.advancedAt = time.Now()
		if e.phase == phaseReady {
			return []domain.EngineEvent{e.stateEvent(domain.EnginePlaying)}, nil
		}
		return nil, nil
	})
	e.deliver(events)
	return err
}

// Pause pauses playback.
func (e *Engine) Pause() error {
	events, err := e.command("pause", func() ([]domain.EngineEvent, error) {
		if e.phase == phaseIdle {
			return nil, fmt.Errorf("nothing loaded: %w", domain.ErrUnsupported)
		}
		if !e.playing {
			return nil, nil
		}
		e.advance(time.Now())
		e.playing = false
		if e.phase == phaseReady {
			return []domain.EngineEvent{e.stateEvent(domain.EnginePaused)}, nil
		}
		return nil, nil
	})
	e.deliver(events)
	return err
}

// Stop releases the loaded media.
func (e *Engine) Stop() error {
	events, err := e.command("stop", func() ([]domain.EngineEvent, error) {
		if e.phase == phaseIdle {
			return nil, nil
		}
		event := e.stateEvent(domain.EngineStopped)
		e.phase = phaseIdle
		e.playing = false
		e.streams = domain.StreamInfo{}
		return []domain.EngineEvent{event}, nil
	})
	e.deliver(events)
	return err
}

// Seek moves the position and confirms it with an immediate tick.
// A seek issued while loading becomes the start position.
func (e *Engine) Seek(position time.Duration) error {
	events, err := e.command("seek", func() ([]domain.EngineEvent, error) {
		position = min(max(position, 0), e.cfg.Length)
		switch e.phase {
		case phaseIdle:
			return nil, fmt.Errorf("nothing loaded: %w", domain.ErrUnsupported)
		case phaseLoading:
			e.startAt = position
			return nil, nil
		}
		e.position = position
		e.advancedAt = time.Now()
		return []domain.EngineEvent{domain.PositionTick{Generation: e.generation, Position: position}}, nil
	})
	e.deliver(events)
	return err
}

// SetRate changes the speed the clock advances at.
func (e *Engine) SetRate(rate float64) error {
	_, err := e.command("set_rate", func() ([]domain.EngineEvent, error) {
		if rate <= 0 {
			return nil, fmt.Errorf("rate %.2f: %w", rate, domain.ErrUnsupported)
		}
		e.advance(time.Now())
		e.rate = rate
		return nil, nil
	})
	return err
}

// SetActiveTrack selects a stream and reports the new topology.
func (e *Engine) SetActiveTrack(kind domain.TrackKind, id int) error {
	events, err := e.command("set_track", func() ([]domain.EngineEvent, error) {
		if e.phase != phaseReady {
			return nil, fmt.Errorf("no streams yet: %w", domain.ErrUnsupported)
		}
		if _, ok := e.streams.Find(kind, id); !ok {
			return nil, fmt.Errorf("no %s stream %d: %w", kind, id, domain.ErrUnsupported)
		}
		for i := range e.streams.Tracks {
			if e.streams.Tracks[i].Kind == kind {
				e.streams.Tracks[i].Active = e.streams.Tracks[i].ID == id
			}
		}
		return []domain.EngineEvent{e.topologyEvent()}, nil
	})
	e.deliver(events)
	return err
}

// AddSubtitle adds an external subtitle stream and makes it the active one.
func (e *Engine) AddSubtitle(uri string) error {
	events, err := e.command("add_subtitle", func() ([]domain.EngineEvent, error) {
		if e.phase != phaseReady {
			return nil, fmt.Errorf("no media: %w", domain.ErrUnsupported)
		}
		if path, local := localPath(uri); local {
			if _, err := e.fs.Stat(path); err != nil {
				return nil, fmt.Errorf("subtitle %s: %w", path, domain.ErrFileNotFound)
			}
		}

		nextID := 0
		for _, track := range e.streams.Tracks {
			nextID = max(nextID, track.ID+1)
		}
		e.streams.Tracks = lo.Map(e.streams.Tracks, func(t domain.StreamTrack, _ int) domain.StreamTrack {
			if t.Kind == domain.TrackSubtitle {
				t.Active = false
			}
			return t
		})
		e.streams.Tracks = append(e.streams.Tracks, domain.StreamTrack{
			Kind:   domain.TrackSubtitle,
			ID:     nextID,
			Codec:  strings.TrimPrefix(strings.ToLower(filepath.Ext(uri)), "."),
			Active: true,
		})
		return []domain.EngineEvent{e.topologyEvent()}, nil
	})
	e.deliver(events)
	return err
}

// SetVolume sets the output volume.
func (e *Engine) SetVolume(volume float64) error {
	_, err := e.command("set_volume", func() ([]domain.EngineEvent, error) {
		if volume < 0 || volume > 1 {
			return nil, domain.ErrInvalidVolume
		}
		e.volume = volume
		return nil, nil
	})
	return err
}

// SetMute mutes or unmutes the output.
func (e *Engine) SetMute(muted bool) error {
	_, err := e.command("set_mute", func() ([]domain.EngineEvent, error) {
		e.muted = muted
		return nil, nil
	})
	return err
}

// QueryStreams returns the streams of the ready media.
func (e *Engine) QueryStreams() domain.StreamInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != phaseReady {
		return domain.StreamInfo{}
	}
	return e.streams.Clone()
}

// Output returns the current volume and mute flag.
func (e *Engine) Output() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume, e.muted
}

// Close stops the clock goroutine. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()
	e.logger.Info("simulated engine closed")
	return nil
}

// command runs fn under the lock after the closed check.
func (e *Engine) command(op string, fn func() ([]domain.EngineEvent, error)) ([]domain.EngineEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOpen(op, e.uri); err != nil {
		return nil, err
	}
	events, err := fn()
	if err != nil {
		return nil, domain.NewEngineAdapterError("sim", op, e.uri, "command refused", err)
	}
	return events, nil
}

func (e *Engine) checkOpen(op, uri string) error {
	if e.closed {
		return domain.NewEngineAdapterError("sim", op, uri, "engine closed", domain.ErrNotConnected)
	}
	return nil
}

// deliver hands events to the sink. Must be called without the lock held.
func (e *Engine) deliver(events []domain.EngineEvent) {
	if len(events) == 0 {
		return
	}
	e.mu.Lock()
	sink := e.sink
	e.mu.Unlock()
	if sink == nil {
		return
	}
	for _, ev := range events {
		sink.Deliver(ev)
	}
}

func (e *Engine) clock() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case now := <-ticker.C:
			e.deliver(e.step(now))
		}
	}
}

// step advances the simulation to now and returns the events it produced.
func (e *Engine) step(now time.Time) []domain.EngineEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []domain.EngineEvent

	switch e.phase {
	case phaseIdle:
		return nil

	case phaseLoading:
		if now.Before(e.readyAt) {
			return nil
		}
		if e.missing {
			e.phase = phaseIdle
			e.playing = false
			return []domain.EngineEvent{domain.EngineError{
				Generation: e.generation,
				Kind:       domain.ErrorLoadFailure,
				Message:    "resource not found: " + e.uri,
			}}
		}
		e.phase = phaseReady
		e.streams = streamsFor(e.uri, e.cfg.Length)
		e.position = e.startAt
		e.advancedAt = now
		events = append(events, e.topologyEvent())
		if e.playing {
			events = append(events, e.stateEvent(domain.EnginePlaying))
			if e.remote {
				e.buffering = true
				events = append(events, domain.BufferingProgress{Generation: e.generation, Percent: 0})
			}
		}
		return events

	case phaseReady:
		if !e.playing {
			return nil
		}
		if e.buffering {
			// Network media fills its buffer during the first tick
			e.buffering = false
			e.advancedAt = now
			return []domain.EngineEvent{domain.BufferingProgress{Generation: e.generation, Percent: 100}}
		}

		e.advance(now)
		if e.position >= e.cfg.Length {
			e.position = e.cfg.Length
			e.phase = phaseIdle
			e.playing = false
			return []domain.EngineEvent{
				domain.PositionTick{Generation: e.generation, Position: e.position},
				domain.EndOfStream{Generation: e.generation},
			}
		}
		return []domain.EngineEvent{domain.PositionTick{Generation: e.generation, Position: e.position}}
	}
	return nil
}

// advance moves the position by the wall time elapsed since the last advance.
func (e *Engine) advance(now time.Time) {
	if e.phase == phaseReady && e.playing && !e.buffering {
		elapsed := now.Sub(e.advancedAt)
		if elapsed > 0 {
			e.position += time.Duration(float64(elapsed) * e.rate)
		}
	}
	e.advancedAt = now
}

func (e *Engine) stateEvent(state domain.EngineState) domain.EngineEvent {
	return domain.StateChanged{Generation: e.generation, State: state}
}

func (e *Engine) topologyEvent() domain.EngineEvent {
	return domain.StreamTopologyChanged{Generation: e.generation, Streams: e.streams.Clone()}
}

// streamsFor invents a plausible topology from the file extension.
func streamsFor(uri string, length time.Duration) domain.StreamInfo {
	ext := strings.ToLower(filepath.Ext(uri))
	info := domain.StreamInfo{Duration: length}

	if slices.Contains(videoExts, ext) {
		info.Tracks = []domain.StreamTrack{
			{Kind: domain.TrackVideo, ID: 0, Codec: "h264", Active: true},
			{Kind: domain.TrackAudio, ID: 1, Language: "eng", Codec: "aac", Active: true},
			{Kind: domain.TrackAudio, ID: 2, Language: "fra", Codec: "aac"},
		}
		return info
	}

	codec := strings.TrimPrefix(ext, ".")
	if codec == "" {
		codec = "pcm"
	}
	info.Tracks = []domain.StreamTrack{
		{Kind: domain.TrackAudio, ID: 0, Codec: codec, Active: true},
	}
	return info
}

// localPath reports whether uri names a local file and returns its path.
func localPath(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return filepath.Clean(uri), true
	}
	if u.Scheme == "file" {
		return filepath.FromSlash(u.Path), true
	}
	return "", false
}

// Verify that Engine implements the MediaEngine interface
var _ ports.MediaEngine = (*Engine)(nil)
