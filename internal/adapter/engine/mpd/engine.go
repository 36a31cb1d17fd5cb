// Package mpd drives a Music Player Daemon as the media engine.
//
// MPD owns decoding and output; this adapter keeps its queue holding exactly the loaded
// item and turns status changes into engine events. Changes are noticed through the
// idle watcher and confirmed by polling, which also keeps the connection alive.
package mpd

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

const engineName = "mpd"

// Config holds the connection settings.
type Config struct {
	Host         string
	Port         int
	Password     string
	PollInterval time.Duration
}

// Address returns the host:port of the daemon.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client is the part of *mpd.Client the engine uses.
type Client interface {
	Clear() error
	Add(uri string) error
	Play(pos int) error
	Pause(pause bool) error
	Stop() error
	SeekCur(d time.Duration, relative bool) error
	SetVolume(volume int) error
	Status() (mpd.Attrs, error)
	Close() error
}

// Dialer opens a new client connection.
type Dialer func() (Client, error)

// Watch carries subsystem change notifications.
type Watch struct {
	Events <-chan string
	Errors <-chan error
	Close  func() error
}

// Engine implements ports.MediaEngine on top of an MPD connection.
//
// Thread-safety: all client calls are serialized by mu. Events are delivered without
// the lock held.
type Engine struct {
	logger *slog.Logger
	cfg    Config
	dial   Dialer
	watch  Watch

	mu         sync.Mutex
	client     Client
	sink       ports.EventSink
	generation uint64
	uri        string
	loaded     bool
	started    bool
	startAt    time.Duration
	last       observation
	streams    domain.StreamInfo
	volume     float64
	muted      bool
	closed     bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Dial connects to the daemon described by cfg and starts watching it.
func Dial(logger *slog.Logger, cfg Config) (*Engine, error) {
	addr := cfg.Address()
	dial := func() (Client, error) {
		c, err := mpd.DialAuthenticated("tcp", addr, cfg.Password)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	client, err := dial()
	if err != nil {
		return nil, domain.NewEngineAdapterError(engineName, "dial", addr, "failed to connect", err)
	}

	watcher, err := mpd.NewWatcher("tcp", addr, cfg.Password, "player", "mixer")
	if err != nil {
		_ = client.Close()
		return nil, domain.NewEngineAdapterError(engineName, "watch", addr, "failed to start watcher", err)
	}

	logger.Info("connected to mpd", slog.String("addr", addr))
	return newEngine(logger, cfg, client, dial, Watch{
		Events: watcher.Event,
		Errors: watcher.Error,
		Close:  watcher.Close,
	}), nil
}

// newEngine wires an engine around an established client and starts its loop.
func newEngine(logger *slog.Logger, cfg Config, client Client, dial Dialer, watch Watch) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	e := &Engine{
		logger: logger.With(slog.String("component", "mpd")),
		cfg:    cfg,
		dial:   dial,
		watch:  watch,
		client: client,
		last:   observation{state: stateStop},
		volume: 1.0,
		done:   make(chan struct{}),
	}

	e.wg.Add(1)
	go e.loop()
	return e
}

// SetSink registers the event receiver.
func (e *Engine) SetSink(sink ports.EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// Load replaces the queue with uri. Playback starts on the next Play.
func (e *Engine) Load(generation uint64, uri string) error {
	if uri == "" {
		return domain.ErrInvalidURI
	}

	return e.do("load", func(c Client) error {
		if err := c.Clear(); err != nil {
			return err
		}
		if err := c.Add(uri); err != nil {
			return err
		}

		e.generation = generation
		e.uri = uri
		e.loaded = true
		e.started = false
		e.startAt = 0
		e.streams = domain.StreamInfo{}
		e.last = observation{state: stateStop}
		return nil
	})
}

// Play starts the queued item, or resumes it when paused.
func (e *Engine) Play() error {
	return e.do("play", func(c Client) error {
		if !e.loaded {
			return fmt.Errorf("nothing loaded: %w", domain.ErrUnsupported)
		}
		if e.started {
			return c.Pause(false)
		}
		if err := c.Play(0); err != nil {
			return err
		}
		e.started = true
		if e.startAt > 0 {
			return c.SeekCur(e.startAt, false)
		}
		return nil
	})
}

// Pause pauses playback.
func (e *Engine) Pause() error {
	return e.do("pause", func(c Client) error {
		if !e.loaded {
			return fmt.Errorf("nothing loaded: %w", domain.ErrUnsupported)
		}
		if !e.started {
			return nil
		}
		return c.Pause(true)
	})
}

// Stop stops playback. The stop is acknowledged immediately.
func (e *Engine) Stop() error {
	var events []domain.EngineEvent
	err := e.do("stop", func(c Client) error {
		if err := c.Stop(); err != nil {
			return err
		}
		if e.loaded {
			events = append(events, domain.StateChanged{Generation: e.generation, State: domain.EngineStopped})
		}
		e.loaded = false
		e.started = false
		e.streams = domain.StreamInfo{}
		e.last = observation{state: stateStop}
		return nil
	})
	e.deliver(events)
	return err
}

// Seek moves the playback position. Before the first Play it sets the start position.
func (e *Engine) Seek(position time.Duration) error {
	return e.do("seek", func(c Client) error {
		if !e.loaded {
			return fmt.Errorf("nothing loaded: %w", domain.ErrUnsupported)
		}
		position = max(position, 0)
		if !e.started {
			e.startAt = position
			return nil
		}
		return c.SeekCur(position, false)
	})
}

// SetRate is not available: MPD always plays at normal speed.
func (e *Engine) SetRate(rate float64) error {
	if rate == 1.0 {
		return nil
	}
	return domain.NewEngineAdapterError(engineName, "set_rate", e.currentURI(), "playback rate is fixed", domain.ErrUnsupported)
}

// SetActiveTrack accepts only the single audio stream MPD exposes.
func (e *Engine) SetActiveTrack(kind domain.TrackKind, id int) error {
	if kind == domain.TrackAudio && id == 0 {
		return nil
	}
	return domain.NewEngineAdapterError(engineName, "set_track", e.currentURI(),
		fmt.Sprintf("no %s stream %d", kind, id), domain.ErrUnsupported)
}

// AddSubtitle is not available for an audio-only daemon.
func (e *Engine) AddSubtitle(uri string) error {
	return domain.NewEngineAdapterError(engineName, "add_subtitle", uri, "subtitles need video output", domain.ErrUnsupported)
}

// SetVolume sets the mixer volume. While muted it is only remembered.
func (e *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	return e.do("set_volume", func(c Client) error {
		e.volume = volume
		if e.muted {
			return nil
		}
		return c.SetVolume(percent(volume))
	})
}

// SetMute mutes by driving the mixer to zero and restores the volume on unmute.
func (e *Engine) SetMute(muted bool) error {
	return e.do("set_mute", func(c Client) error {
		e.muted = muted
		if muted {
			return c.SetVolume(0)
		}
		return c.SetVolume(percent(e.volume))
	})
}

// QueryStreams returns the streams of the playing item.
func (e *Engine) QueryStreams() domain.StreamInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streams.Clone()
}

// Close stops watching and disconnects. It is safe to call more than once.
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

	var errs []error
	if e.watch.Close != nil {
		errs = append(errs, e.watch.Close())
	}

	e.mu.Lock()
	if e.client != nil {
		errs = append(errs, e.client.Close())
		e.client = nil
	}
	e.mu.Unlock()

	e.logger.Info("mpd engine closed")
	return errors.Join(errs...)
}

func (e *Engine) currentURI() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uri
}

// do runs fn with a live client under the lock. A failing call drops the connection
// so the next command redials.
func (e *Engine) do(op string, fn func(c Client) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.NewEngineAdapterError(engineName, op, e.uri, "engine closed", domain.ErrNotConnected)
	}
	if err := e.ensureConnected(); err != nil {
		return domain.NewEngineAdapterError(engineName, op, e.uri, "reconnect failed", err)
	}

	if err := fn(e.client); err != nil {
		if errors.Is(err, domain.ErrUnsupported) {
			return domain.NewEngineAdapterError(engineName, op, e.uri, "command refused", err)
		}
		e.disconnect()
		return domain.NewEngineAdapterError(engineName, op, e.uri, "command failed", err)
	}
	return nil
}

// ensureConnected redials when the previous connection was dropped. Caller holds the lock.
func (e *Engine) ensureConnected() error {
	if e.client != nil {
		return nil
	}
	client, err := e.dial()
	if err != nil {
		return errors.Join(domain.ErrNotConnected, err)
	}
	e.client = client
	e.logger.Info("reconnected to mpd", slog.String("addr", e.cfg.Address()))
	return nil
}

// disconnect drops the current connection. Caller holds the lock.
func (e *Engine) disconnect() {
	if e.client == nil {
		return
	}
	_ = e.client.Close()
	e.client = nil
}

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

func (e *Engine) loop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case subsystem, ok := <-e.watch.Events:
			if !ok {
				e.watch.Events = nil
				continue
			}
			e.logger.Debug("subsystem changed", slog.String("subsystem", subsystem))
			e.deliver(e.refresh())
		case err, ok := <-e.watch.Errors:
			if !ok {
				e.watch.Errors = nil
				continue
			}
			e.logger.Warn("watcher error", slog.Any("error", err))
		case <-ticker.C:
			e.deliver(e.refresh())
		}
	}
}

// refresh reads the daemon status and returns the events the change produced.
func (e *Engine) refresh() []domain.EngineEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	if err := e.ensureConnected(); err != nil {
		e.logger.Debug("mpd unreachable", slog.Any("error", err))
		return nil
	}

	attrs, err := e.client.Status()
	if err != nil {
		e.logger.Warn("status failed", slog.Any("error", err))
		e.disconnect()
		return nil
	}

	next := parseStatus(attrs)
	if !e.loaded {
		e.last = next
		return nil
	}

	events := translate(e.last, next, transition{generation: e.generation, uri: e.uri})
	e.last = next

	for _, ev := range events {
		switch ev := ev.(type) {
		case domain.StreamTopologyChanged:
			e.streams = ev.Streams.Clone()
		case domain.EndOfStream:
			e.loaded = false
			e.started = false
		case domain.EngineError:
			if ev.Kind.Fatal() {
				e.loaded = false
				e.started = false
			}
		}
	}
	return events
}

func percent(volume float64) int {
	return int(math.Round(volume * 100))
}

// Verify that Engine implements the MediaEngine interface
var _ ports.MediaEngine = (*Engine)(nil)
