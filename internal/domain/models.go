// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the goplayer playback core.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// MediaItem identifies one playable resource.
// It is immutable once added to a playlist; copies are handed out, never references.
type MediaItem struct {
	// ID is a unique identifier for the item (UUID)
	ID string `json:"id"`

	// URI is the resource location (file path, file:// or network URI)
	URI string `json:"uri"`

	// Title is an optional display title
	Title string `json:"title,omitempty"`

	// DurationHint is an optional duration known before the engine reports one
	DurationHint time.Duration `json:"duration_hint,omitempty"`

	// SubtitleURI is an optional external subtitle file attached after load
	SubtitleURI string `json:"subtitle_uri,omitempty"`
}

// DisplayTitle returns the title, falling back to the URI.
func (m MediaItem) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.URI
}

// RepeatMode controls what happens when the playlist runs out.
type RepeatMode int

const (
	// RepeatOff stops at the end of the playlist
	RepeatOff RepeatMode = iota

	// RepeatOne replays the current item on end-of-stream
	RepeatOne

	// RepeatAll wraps around to the first item
	RepeatAll
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseRepeatMode parses "off", "one" or "all".
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return RepeatOff, nil
	case "one", "single":
		return RepeatOne, nil
	case "all":
		return RepeatAll, nil
	default:
		return RepeatOff, NewValidationError("repeat", s, "must be one of off, one, all")
	}
}

// AdvanceReason tells the playlist why it is being asked for the next item.
type AdvanceReason int

const (
	// AdvanceManual is a user-requested step
	AdvanceManual AdvanceReason = iota

	// AdvanceEndOfStream is an automatic step after the current item finished
	AdvanceEndOfStream
)

// String returns a human-readable representation of the reason.
func (r AdvanceReason) String() string {
	if r == AdvanceEndOfStream {
		return "end_of_stream"
	}
	return "manual"
}

// NoIndex is the playlist cursor value of an empty playlist.
const NoIndex = -1

// PlaylistSnapshot is an immutable copy of the playlist handed to external readers.
type PlaylistSnapshot struct {
	// Items is the ordered sequence of media items
	Items []MediaItem

	// Current is the index of the current item, or NoIndex
	Current int

	// Order is the play order as indexes into Items (identity unless shuffled)
	Order []int

	// Repeat is the repeat mode
	Repeat RepeatMode

	// Shuffle indicates if shuffle is enabled
	Shuffle bool
}

// CurrentItem returns the current item if the cursor is set.
func (p PlaylistSnapshot) CurrentItem() (MediaItem, bool) {
	if p.Current < 0 || p.Current >= len(p.Items) {
		return MediaItem{}, false
	}
	return p.Items[p.Current], true
}

// Len returns the number of items.
func (p PlaylistSnapshot) Len() int {
	return len(p.Items)
}

// TrackKind is the kind of elementary stream.
type TrackKind int

const (
	// TrackAudio is an audio stream
	TrackAudio TrackKind = iota

	// TrackVideo is a video stream
	TrackVideo

	// TrackSubtitle is a subtitle stream
	TrackSubtitle
)

// String returns a human-readable representation of the track kind.
func (k TrackKind) String() string {
	switch k {
	case TrackAudio:
		return "audio"
	case TrackVideo:
		return "video"
	case TrackSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// ParseTrackKind parses "audio", "video" or "subtitle".
func ParseTrackKind(s string) (TrackKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "audio":
		return TrackAudio, nil
	case "video":
		return TrackVideo, nil
	case "subtitle", "sub", "text":
		return TrackSubtitle, nil
	default:
		return TrackAudio, NewValidationError("track_kind", s, "must be one of audio, video, subtitle")
	}
}

// StreamTrack describes one discovered elementary stream.
type StreamTrack struct {
	Kind     TrackKind
	ID       int
	Language string
	Codec    string
	Active   bool
}

// String returns a short label, e.g. "audio#1 (eng, aac)".
func (t StreamTrack) String() string {
	details := make([]string, 0, 2)
	if t.Language != "" {
		details = append(details, t.Language)
	}
	if t.Codec != "" {
		details = append(details, t.Codec)
	}
	if len(details) == 0 {
		return fmt.Sprintf("%s#%d", t.Kind, t.ID)
	}
	return fmt.Sprintf("%s#%d (%s)", t.Kind, t.ID, strings.Join(details, ", "))
}
