// Package ports define interfaces for dependency inversion.
// These interfaces allow the playback core to remain independent of the media pipeline and storage.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// EventSink receives engine events.
//
// Deliver is called from the engine's own goroutines or callback context. Implementations
// must not block and must not touch state-machine fields directly: events are handed to
// the single ordered queue and applied later by its owner.
type EventSink interface {
	Deliver(event domain.EngineEvent)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(event domain.EngineEvent)

// Deliver calls f(event).
func (f EventSinkFunc) Deliver(event domain.EngineEvent) {
	f(event)
}

// MediaEngine is the facade over the external media pipeline (demux, decode, render).
//
// Every command is fire-and-forget: a nil error only means the command was handed to the
// pipeline. Completion is observed exclusively through events delivered to the sink.
// A non-nil error means the command could not even be issued (for example the backend
// connection is gone).
//
// Implementations must be thread-safe as they are called from the owner goroutine while
// their own goroutines emit events.
type MediaEngine interface {
	// SetSink registers the receiver of engine events. It must be called before Load.
	SetSink(sink EventSink)

	// Load abandons any current or in-flight load and starts loading uri.
	// All events produced for this load must carry generation.
	Load(generation uint64, uri string) error

	// Play starts or resumes playback of the loaded media.
	Play() error

	// Pause pauses playback, preserving the position.
	Pause() error

	// Stop stops playback and releases the loaded media.
	Stop() error

	// Seek moves the playback position. The engine confirms with a later PositionTick.
	Seek(position time.Duration) error

	// SetRate changes the playback rate (1.0 is normal speed).
	SetRate(rate float64) error

	// SetActiveTrack selects the active stream of the given kind.
	SetActiveTrack(kind domain.TrackKind, id int) error

	// AddSubtitle attaches an external subtitle file to the loaded media.
	AddSubtitle(uri string) error

	// SetVolume sets the output volume (0.0 to 1.0).
	SetVolume(volume float64) error

	// SetMute mutes or unmutes the output.
	SetMute(muted bool) error

	// QueryStreams returns the streams currently known for the loaded media.
	// It never blocks on the pipeline; an empty StreamInfo means nothing is known yet.
	QueryStreams() domain.StreamInfo

	// Close releases all engine resources and stops its goroutines.
	Close() error
}
