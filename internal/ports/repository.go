// Package ports define repository interfaces for data persistence abstraction.
// The playback core never performs I/O itself: it emits notifications that a settings
// collaborator persists through these interfaces.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// SettingsRepository handles the persistence of session state between runs.
//
// Thread-safety: Implementations must be thread-safe.
type SettingsRepository interface {
	// SavePlaylist persists the playlist contents, cursor, repeat mode and shuffle flag.
	//
	// Returns an error if saving fails.
	SavePlaylist(playlist domain.PlaylistSnapshot) error

	// LoadPlaylist retrieves the last saved playlist.
	// If nothing was saved, returns an empty snapshot with Current = domain.NoIndex (not an error).
	LoadPlaylist() (domain.PlaylistSnapshot, error)

	// SaveVolume persists the volume level and mute flag.
	SaveVolume(volume float64, muted bool) error

	// LoadVolume retrieves the saved volume. Defaults to (1.0, false).
	LoadVolume() (float64, bool, error)

	// SaveResumePosition remembers where playback of uri stopped.
	// A zero position forgets the entry.
	SaveResumePosition(uri string, position time.Duration) error

	// Clear removes all saved settings.
	Clear() error

	ResumeLookup
}

// ResumeLookup answers where playback of a media URI should resume.
// It is consulted synchronously by the core when an item is loaded, so implementations
// must answer from memory.
type ResumeLookup interface {
	// ResumePosition returns the remembered position of uri, if any.
	ResumePosition(uri string) (time.Duration, bool)
}
