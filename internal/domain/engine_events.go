package domain

import (
	"fmt"
	"time"
)

// EngineEvent is a notification emitted by the media engine from its own execution context.
// Every event carries the load generation it belongs to so stale events can be discarded.
type EngineEvent interface {
	// LoadGeneration returns the generation of the load the event refers to
	LoadGeneration() uint64

	// Name returns a short identifier for logs
	Name() string
}

// EngineState is the pipeline state reported by the engine.
type EngineState int

const (
	// EngineStopped means the pipeline is stopped
	EngineStopped EngineState = iota

	// EnginePlaying means the pipeline is playing
	EnginePlaying

	// EnginePaused means the pipeline is paused
	EnginePaused
)

// String returns a human-readable representation of the engine state.
func (s EngineState) String() string {
	switch s {
	case EngineStopped:
		return "stopped"
	case EnginePlaying:
		return "playing"
	case EnginePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// StateChanged is emitted when the pipeline changes state.
type StateChanged struct {
	Generation uint64
	State      EngineState
}

// LoadGeneration returns the load generation.
func (e StateChanged) LoadGeneration() uint64 { return e.Generation }

// Name returns the event name.
func (e StateChanged) Name() string { return "state_changed:" + e.State.String() }

// PositionTick is emitted periodically with the current position.
type PositionTick struct {
	Generation uint64
	Position   time.Duration
}

// LoadGeneration returns the load generation.
func (e PositionTick) LoadGeneration() uint64 { return e.Generation }

// Name returns the event name.
func (e PositionTick) Name() string { return "position_tick" }

// BufferingProgress is emitted while the pipeline fills its buffer.
type BufferingProgress struct {
	Generation uint64
	Percent    int
}

// LoadGeneration returns the load generation.
func (e BufferingProgress) LoadGeneration() uint64 { return e.Generation }

// Name returns the event name.
func (e BufferingProgress) Name() string { return fmt.Sprintf("buffering:%d", e.Percent) }

// StreamTopologyChanged is emitted once the streams of the loaded item are known or change.
type StreamTopologyChanged struct {
	Generation uint64
	Streams    StreamInfo
}

// LoadGeneration returns the load generation.
func (e StreamTopologyChanged) LoadGeneration() uint64 { return e.Generation }

// Name returns the event name.
func (e StreamTopologyChanged) Name() string { return "stream_topology_changed" }

// EndOfStream is emitted when the loaded item finished naturally.
type EndOfStream struct {
	Generation uint64
}

// LoadGeneration returns the load generation.
func (e EndOfStream) LoadGeneration() uint64 { return e.Generation }

// Name returns the event name.
func (e EndOfStream) Name() string { return "end_of_stream" }

// EngineError is emitted when the pipeline failed.
type EngineError struct {
	Generation uint64
	Kind       ErrorKind
	Message    string
}

// LoadGeneration returns the load generation.
func (e EngineError) LoadGeneration() uint64 { return e.Generation }

// Name returns the event name.
func (e EngineError) Name() string { return "error:" + e.Kind.String() }

// EngineWarning is emitted for non-fatal pipeline problems.
type EngineWarning struct {
	Generation uint64
	Message    string
}

// LoadGeneration returns the load generation.
func (e EngineWarning) LoadGeneration() uint64 { return e.Generation }

// Name returns the event name.
func (e EngineWarning) Name() string { return "warning" }
