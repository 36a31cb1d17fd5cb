package domain

import (
	"time"

	"github.com/samber/lo"
)

// StreamInfo is the read-only snapshot of the streams discovered for the loaded item.
// It is replaced wholesale on every topology report, never merged.
type StreamInfo struct {
	// Tracks lists every discovered stream
	Tracks []StreamTrack

	// Duration is the media duration as negotiated by the engine (0 if unknown)
	Duration time.Duration
}

// IsEmpty returns true if nothing has been discovered yet.
func (s StreamInfo) IsEmpty() bool {
	return len(s.Tracks) == 0 && s.Duration == 0
}

// ByKind returns the tracks of the given kind in report order.
func (s StreamInfo) ByKind(kind TrackKind) []StreamTrack {
	return lo.Filter(s.Tracks, func(t StreamTrack, _ int) bool {
		return t.Kind == kind
	})
}

// Find looks up a track by kind and id.
func (s StreamInfo) Find(kind TrackKind, id int) (StreamTrack, bool) {
	return lo.Find(s.Tracks, func(t StreamTrack) bool {
		return t.Kind == kind && t.ID == id
	})
}

// Active returns the active track of the given kind, if any.
func (s StreamInfo) Active(kind TrackKind) (StreamTrack, bool) {
	return lo.Find(s.Tracks, func(t StreamTrack) bool {
		return t.Kind == kind && t.Active
	})
}

// HasVideo reports whether at least one video stream exists.
func (s StreamInfo) HasVideo() bool {
	return len(s.ByKind(TrackVideo)) > 0
}

// Clone returns a deep copy so snapshots never share backing arrays.
func (s StreamInfo) Clone() StreamInfo {
	out := StreamInfo{Duration: s.Duration}
	if len(s.Tracks) > 0 {
		out.Tracks = make([]StreamTrack, len(s.Tracks))
		copy(out.Tracks, s.Tracks)
	}
	return out
}
