// Package domain defines events for the event-driven architecture.
// Notifications carry immutable snapshots to subscribers (GUI, settings collaborator, logging).
package domain

import (
	"slices"
	"time"
)

// Event is the base interface for all notifications published on the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible notifications in the system.
const (
	// Playback notifications
	EventStateChanged    EventType = "state.changed"
	EventStreamsChanged  EventType = "streams.changed"
	EventPlaybackError   EventType = "playback.error"
	EventEngineWarning   EventType = "engine.warning"
	EventCommandRejected EventType = "command.rejected"

	// Playlist notifications
	EventPlaylistChanged EventType = "playlist.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// EventFilter decides whether a subscriber sees an event.
type EventFilter func(event Event) bool

// EnteredState matches state changes that moved into one of tags from a different tag.
// Position and volume updates within a tag do not match.
func EnteredState(tags ...StateTag) EventFilter {
	return func(event Event) bool {
		e, ok := event.(StateChangedEvent)
		return ok && e.Previous != e.State.Tag && slices.Contains(tags, e.State.Tag)
	}
}

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// StateChangedEvent is published after every transition of the playback state.
type StateChangedEvent struct {
	baseEvent
	Previous StateTag
	State    PlaybackState
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(previous StateTag, state PlaybackState) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(),
		Previous:  previous,
		State:     state,
	}
}

// StreamsChangedEvent is published when a new stream topology replaces the old one.
type StreamsChangedEvent struct {
	baseEvent
	Item    MediaItem
	Streams StreamInfo
}

// Type returns the event type.
func (e StreamsChangedEvent) Type() EventType {
	return EventStreamsChanged
}

// NewStreamsChangedEvent creates a new StreamsChangedEvent.
func NewStreamsChangedEvent(item MediaItem, streams StreamInfo) StreamsChangedEvent {
	return StreamsChangedEvent{
		baseEvent: newBaseEvent(),
		Item:      item,
		Streams:   streams,
	}
}

// PlaybackErrorEvent is published when the current item fails, for user display.
type PlaybackErrorEvent struct {
	baseEvent
	Item    *MediaItem
	Kind    ErrorKind
	Message string
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(item *MediaItem, kind ErrorKind, message string) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		Item:      item,
		Kind:      kind,
		Message:   message,
	}
}

// EngineWarningEvent is published for non-fatal engine warnings.
type EngineWarningEvent struct {
	baseEvent
	Message string
}

// Type returns the event type.
func (e EngineWarningEvent) Type() EventType {
	return EventEngineWarning
}

// NewEngineWarningEvent creates a new EngineWarningEvent.
func NewEngineWarningEvent(message string) EngineWarningEvent {
	return EngineWarningEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
	}
}

// CommandRejectedEvent is published when Submit refused a command.
type CommandRejectedEvent struct {
	baseEvent
	Command Command
	Reason  RejectedReason
}

// Type returns the event type.
func (e CommandRejectedEvent) Type() EventType {
	return EventCommandRejected
}

// NewCommandRejectedEvent creates a new CommandRejectedEvent.
func NewCommandRejectedEvent(cmd Command, reason RejectedReason) CommandRejectedEvent {
	return CommandRejectedEvent{
		baseEvent: newBaseEvent(),
		Command:   cmd,
		Reason:    reason,
	}
}

// PlaylistChangedEvent is published after every playlist mutation or cursor move.
type PlaylistChangedEvent struct {
	baseEvent
	Playlist PlaylistSnapshot
}

// Type returns the event type.
func (e PlaylistChangedEvent) Type() EventType {
	return EventPlaylistChanged
}

// NewPlaylistChangedEvent creates a new PlaylistChangedEvent.
func NewPlaylistChangedEvent(playlist PlaylistSnapshot) PlaylistChangedEvent {
	return PlaylistChangedEvent{
		baseEvent: newBaseEvent(),
		Playlist:  playlist,
	}
}
