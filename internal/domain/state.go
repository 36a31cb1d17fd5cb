package domain

import (
	"fmt"
	"time"
)

// StateTag identifies which variant of PlaybackState is current.
type StateTag int

const (
	// StateStopped indicates nothing is loaded or playback was stopped
	StateStopped StateTag = iota

	// StateLoading indicates a load was issued and the engine has not started playing yet
	StateLoading

	// StatePlaying indicates playback is active
	StatePlaying

	// StatePaused indicates playback is paused
	StatePaused

	// StateBuffering indicates playback is stalled waiting for data
	StateBuffering

	// StateError indicates the current item failed; terminal for that item
	StateError
)

// String returns a human-readable representation of the state tag.
func (t StateTag) String() string {
	switch t {
	case StateStopped:
		return "stopped"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// HasMedia reports whether the tag refers to a loaded (or loading) item.
func (t StateTag) HasMedia() bool {
	return t == StateLoading || t == StatePlaying || t == StatePaused || t == StateBuffering
}

// Seekable reports whether Seek is accepted in this state.
func (t StateTag) Seekable() bool {
	return t == StatePlaying || t == StatePaused || t == StateBuffering
}

// PlaybackState is an immutable snapshot of the player state.
//
// Only the fields relevant to Tag carry meaning:
//   - Loading:   Item
//   - Playing:   Item, Position, Rate
//   - Paused:    Item, Position
//   - Buffering: Item, Position, BufferPercent
//   - Error:     ErrorKind, Message (and Item, if one was loaded)
type PlaybackState struct {
	Tag StateTag

	// Item is the loaded item (nil when Stopped)
	Item *MediaItem

	// Position is the displayed position; while a seek is pending it equals the seek target
	Position time.Duration

	// Duration is the last known duration (engine report, else the item's hint)
	Duration time.Duration

	// Rate is the playback rate (1.0 is normal speed)
	Rate float64

	// BufferPercent is the buffer fill level while Buffering (0-100)
	BufferPercent int

	// ErrorKind and Message describe the failure while in Error
	ErrorKind ErrorKind
	Message   string

	// PendingSeek is the unconfirmed seek target, nil when no seek is in flight
	PendingSeek *time.Duration

	// Streams is the stream topology of the loaded item
	Streams StreamInfo

	// Volume is the output volume (0.0 to 1.0)
	Volume float64

	// Muted indicates if audio is muted
	Muted bool

	// Generation is the load generation the state refers to
	Generation uint64
}

// HasItem returns true if an item is attached to the state.
func (s PlaybackState) HasItem() bool {
	return s.Item != nil
}

// SeekPending returns the pending seek target, if any.
func (s PlaybackState) SeekPending() (time.Duration, bool) {
	if s.PendingSeek == nil {
		return 0, false
	}
	return *s.PendingSeek, true
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s PlaybackState) ProgressPercent() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Position) / float64(s.Duration) * 100
	if p > 100 {
		return 100
	}
	return p
}

// String returns a compact description such as "playing(1m30s @1.00x)".
func (s PlaybackState) String() string {
	switch s.Tag {
	case StateLoading:
		return fmt.Sprintf("loading(%s)", s.itemTitle())
	case StatePlaying:
		return fmt.Sprintf("playing(%s, %s @%.2fx)", s.itemTitle(), s.Position, s.Rate)
	case StatePaused:
		return fmt.Sprintf("paused(%s, %s)", s.itemTitle(), s.Position)
	case StateBuffering:
		return fmt.Sprintf("buffering(%s, %s, %d%%)", s.itemTitle(), s.Position, s.BufferPercent)
	case StateError:
		return fmt.Sprintf("error(%s: %s)", s.ErrorKind, s.Message)
	default:
		return s.Tag.String()
	}
}

func (s PlaybackState) itemTitle() string {
	if s.Item == nil {
		return "-"
	}
	return s.Item.DisplayTitle()
}

// Clone returns a deep copy so that the snapshot does not alias the owner's fields.
func (s PlaybackState) Clone() PlaybackState {
	out := s
	if s.Item != nil {
		item := *s.Item
		out.Item = &item
	}
	if s.PendingSeek != nil {
		target := *s.PendingSeek
		out.PendingSeek = &target
	}
	out.Streams = s.Streams.Clone()
	return out
}

// StoppedState returns the initial state.
func StoppedState() PlaybackState {
	return PlaybackState{Tag: StateStopped, Rate: 1.0, Volume: 1.0}
}
