// Package mock provides a scripted implementation of the MediaEngine interface.
// It records every command it receives and only emits events when a test asks it to,
// which makes the order of engine events fully deterministic.
package mock

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// Call is one recorded engine command.
type Call struct {
	Op         string
	Generation uint64
	URI        string
	Position   time.Duration
	Rate       float64
	Volume     float64
	Muted      bool
	Kind       domain.TrackKind
	TrackID    int
}

// String returns a compact description such as "seek(1m30s)".
func (c Call) String() string {
	switch c.Op {
	case "load":
		return fmt.Sprintf("load(%d, %s)", c.Generation, c.URI)
	case "seek":
		return fmt.Sprintf("seek(%s)", c.Position)
	case "set_rate":
		return fmt.Sprintf("set_rate(%.2f)", c.Rate)
	case "set_track":
		return fmt.Sprintf("set_track(%s, %d)", c.Kind, c.TrackID)
	case "add_subtitle":
		return fmt.Sprintf("add_subtitle(%s)", c.URI)
	case "set_volume":
		return fmt.Sprintf("set_volume(%.2f)", c.Volume)
	case "set_mute":
		return fmt.Sprintf("set_mute(%t)", c.Muted)
	default:
		return c.Op
	}
}

// Engine is a mock implementation of the MediaEngine interface.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger
	sink   ports.EventSink

	// Recorded state
	calls      []Call
	generation uint64
	uri        string
	streams    domain.StreamInfo
	closed     bool
	mu         sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
	failSeek bool
}

// NewEngine creates a new mock engine.
func NewEngine() *Engine {
	return &Engine{}
}

// SetLogger sets the logger for this engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailLoad configures the mock to refuse Load (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to refuse Play (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailSeek configures the mock to refuse Seek (for testing).
func (m *Engine) SetFailSeek(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSeek = fail
}

// SetStreams sets what QueryStreams answers.
func (m *Engine) SetStreams(streams domain.StreamInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams = streams.Clone()
}

// SetSink registers the event receiver.
func (m *Engine) SetSink(sink ports.EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

func (m *Engine) record(call Call) error {
	if m.closed {
		return domain.NewEngineAdapterError("mock", call.Op, call.URI, "engine closed", domain.ErrNotConnected)
	}
	m.calls = append(m.calls, call)
	if m.logger != nil {
		m.logger.Debug("mock engine call", slog.String("call", call.String()))
	}
	return nil
}

// Load records the load and remembers its generation for the Emit helpers.
func (m *Engine) Load(generation uint64, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failLoad {
		return domain.NewEngineAdapterError("mock", "load", uri, "mock load failed", nil)
	}
	if uri == "" {
		return domain.ErrInvalidURI
	}

	if err := m.record(Call{Op: "load", Generation: generation, URI: uri}); err != nil {
		return err
	}
	m.generation = generation
	m.uri = uri
	m.streams = domain.StreamInfo{}
	return nil
}

// Play records a play command.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPlay {
		return domain.NewEngineAdapterError("mock", "play", m.uri, "mock play failed", nil)
	}
	return m.record(Call{Op: "play"})
}

// Pause records a pause command.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(Call{Op: "pause"})
}

// Stop records a stop command.
func (m *Engine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uri = ""
	return m.record(Call{Op: "stop"})
}

// Seek records a seek command.
func (m *Engine) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSeek {
		return domain.NewEngineAdapterError("mock", "seek", m.uri, "mock seek failed", nil)
	}
	return m.record(Call{Op: "seek", Position: position})
}

// SetRate records a rate change.
func (m *Engine) SetRate(rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(Call{Op: "set_rate", Rate: rate})
}

// SetActiveTrack records a stream selection.
func (m *Engine) SetActiveTrack(kind domain.TrackKind, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(Call{Op: "set_track", Kind: kind, TrackID: id})
}

// AddSubtitle records an external subtitle attachment.
func (m *Engine) AddSubtitle(uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(Call{Op: "add_subtitle", URI: uri})
}

// SetVolume records a volume change.
func (m *Engine) SetVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}
	return m.record(Call{Op: "set_volume", Volume: volume})
}

// SetMute records a mute change.
func (m *Engine) SetMute(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(Call{Op: "set_mute", Muted: muted})
}

// QueryStreams returns the streams configured with SetStreams.
func (m *Engine) QueryStreams() domain.StreamInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.streams.Clone()
}

// Close marks the engine closed; later commands fail with ErrNotConnected.
func (m *Engine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Emit delivers ev to the registered sink from the caller's goroutine.
func (m *Engine) Emit(ev domain.EngineEvent) {
	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()

	if sink != nil {
		sink.Deliver(ev)
	}
}

// EmitState emits StateChanged for the latest load generation.
func (m *Engine) EmitState(state domain.EngineState) {
	m.Emit(domain.StateChanged{Generation: m.Generation(), State: state})
}

// EmitTick emits a PositionTick for the latest load generation.
func (m *Engine) EmitTick(position time.Duration) {
	m.Emit(domain.PositionTick{Generation: m.Generation(), Position: position})
}

// EmitBuffering emits BufferingProgress for the latest load generation.
func (m *Engine) EmitBuffering(percent int) {
	m.Emit(domain.BufferingProgress{Generation: m.Generation(), Percent: percent})
}

// EmitStreams emits StreamTopologyChanged for the latest load generation.
func (m *Engine) EmitStreams(streams domain.StreamInfo) {
	m.Emit(domain.StreamTopologyChanged{Generation: m.Generation(), Streams: streams})
}

// EmitEndOfStream emits EndOfStream for the latest load generation.
func (m *Engine) EmitEndOfStream() {
	m.Emit(domain.EndOfStream{Generation: m.Generation()})
}

// EmitError emits EngineError for the latest load generation.
func (m *Engine) EmitError(kind domain.ErrorKind, message string) {
	m.Emit(domain.EngineError{Generation: m.Generation(), Kind: kind, Message: message})
}

// Generation returns the generation of the latest Load.
func (m *Engine) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// LoadedURI returns the URI of the latest Load, or "" after Stop.
func (m *Engine) LoadedURI() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uri
}

// Calls returns a copy of the recorded commands.
func (m *Engine) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ops returns the recorded command names in order.
func (m *Engine) Ops() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ops := make([]string, len(m.calls))
	for i, c := range m.calls {
		ops[i] = c.Op
	}
	return ops
}

// CallsTo returns the recorded commands named op.
func (m *Engine) CallsTo(op string) []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Call
	for _, c := range m.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded commands.
func (m *Engine) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify that Engine implements the MediaEngine interface
var _ ports.MediaEngine = (*Engine)(nil)
