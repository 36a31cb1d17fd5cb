// Package memory provides settings persistence on top of Fyne preferences.
package memory

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// Preference keys.
const (
	keyPlaylist = "session.playlist"
	keyVolume   = "preferences.volume"
	keyMuted    = "preferences.muted"
	keyResume   = "session.resume"
)

// maxResumeEntries bounds the resume table; the least recently updated entries go first.
const maxResumeEntries = 200

// storedPlaylist is the persisted form of a playlist snapshot.
type storedPlaylist struct {
	Items   []domain.MediaItem `json:"items"`
	Current int                `json:"current"`
	Order   []int              `json:"order,omitempty"`
	Repeat  string             `json:"repeat"`
	Shuffle bool               `json:"shuffle"`
}

type resumeEntry struct {
	PositionMs int64 `json:"position_ms"`
	UpdatedAt  int64 `json:"updated_at"`
}

// SettingsRepository implements ports.SettingsRepository using Fyne preferences.
// The playlist and the resume table are stored as JSON strings.
//
// Resume positions are cached in memory so ResumePosition never touches the backend.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsRepository struct {
	prefs  fyne.Preferences
	logger *slog.Logger
	now    func() time.Time

	defaultVolume float64

	resume map[string]resumeEntry
	mu     sync.RWMutex
}

// NewSettingsRepository creates a settings repository.
// The preferences parameter should be obtained from fyne.App.Preferences().
func NewSettingsRepository(prefs fyne.Preferences, logger *slog.Logger) *SettingsRepository {
	r := &SettingsRepository{
		prefs:  prefs,
		logger: logger,
		now:    time.Now,
		resume: make(map[string]resumeEntry),

		defaultVolume: 1.0,
	}

	if data := prefs.String(keyResume); data != "" {
		if err := json.Unmarshal([]byte(data), &r.resume); err != nil {
			logger.Warn("discarding unreadable resume table", slog.Any("error", err))
			r.resume = make(map[string]resumeEntry)
		}
	}

	return r
}

// SavePlaylist persists the playlist contents, cursor, repeat mode and shuffle flag.
func (r *SettingsRepository) SavePlaylist(playlist domain.PlaylistSnapshot) error {
	stored := storedPlaylist{
		Items:   playlist.Items,
		Current: playlist.Current,
		Order:   playlist.Order,
		Repeat:  playlist.Repeat.String(),
		Shuffle: playlist.Shuffle,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return domain.NewRepositoryError("SavePlaylist", "settings", "failed to marshal playlist", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetString(keyPlaylist, string(data))
	return nil
}

// LoadPlaylist retrieves the last saved playlist, or an empty one.
func (r *SettingsRepository) LoadPlaylist() (domain.PlaylistSnapshot, error) {
	r.mu.RLock()
	data := r.prefs.String(keyPlaylist)
	r.mu.RUnlock()

	empty := domain.PlaylistSnapshot{Current: domain.NoIndex}
	if data == "" {
		return empty, nil
	}

	var stored storedPlaylist
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return empty, domain.NewRepositoryError("LoadPlaylist", "settings", "failed to unmarshal playlist", err)
	}

	repeat, err := domain.ParseRepeatMode(stored.Repeat)
	if err != nil {
		r.logger.Warn("unknown repeat mode in saved playlist", slog.String("repeat", stored.Repeat))
		repeat = domain.RepeatOff
	}

	// Items without a URI cannot be played back
	items := slices.DeleteFunc(stored.Items, func(item domain.MediaItem) bool {
		return item.URI == ""
	})
	if len(items) != len(stored.Items) {
		// Indexes no longer line up; restart from the top in natural order
		stored.Current = 0
		stored.Order = nil
	}

	current := stored.Current
	if len(items) == 0 {
		current = domain.NoIndex
	}

	return domain.PlaylistSnapshot{
		Items:   items,
		Current: current,
		Order:   stored.Order,
		Repeat:  repeat,
		Shuffle: stored.Shuffle,
	}, nil
}

// SaveVolume persists the volume level and mute flag.
func (r *SettingsRepository) SaveVolume(volume float64, muted bool) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetFloat(keyVolume, volume)
	r.prefs.SetBool(keyMuted, muted)
	return nil
}

// SetDefaultVolume sets the volume LoadVolume reports before any volume was saved.
func (r *SettingsRepository) SetDefaultVolume(volume float64) {
	if volume < 0 || volume > 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultVolume = volume
}

// LoadVolume retrieves the saved volume level and mute flag.
func (r *SettingsRepository) LoadVolume() (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	volume := r.prefs.FloatWithFallback(keyVolume, r.defaultVolume)
	if volume < 0 || volume > 1 {
		volume = r.defaultVolume
	}
	return volume, r.prefs.BoolWithFallback(keyMuted, false), nil
}

// SaveResumePosition remembers where playback of uri stopped; zero forgets it.
func (r *SettingsRepository) SaveResumePosition(uri string, position time.Duration) error {
	if uri == "" {
		return domain.ErrInvalidURI
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if position <= 0 {
		if _, ok := r.resume[uri]; !ok {
			return nil
		}
		delete(r.resume, uri)
	} else {
		r.resume[uri] = resumeEntry{PositionMs: position.Milliseconds(), UpdatedAt: r.now().UnixNano()}
		r.evict()
	}

	data, err := json.Marshal(r.resume)
	if err != nil {
		return domain.NewRepositoryError("SaveResumePosition", "settings", "failed to marshal resume table", err)
	}
	r.prefs.SetString(keyResume, string(data))
	return nil
}

// evict drops the oldest entries above maxResumeEntries. Caller holds the lock.
func (r *SettingsRepository) evict() {
	for len(r.resume) > maxResumeEntries {
		var oldest string
		var oldestAt int64
		for uri, entry := range r.resume {
			if oldest == "" || entry.UpdatedAt < oldestAt {
				oldest, oldestAt = uri, entry.UpdatedAt
			}
		}
		delete(r.resume, oldest)
	}
}

// ResumePosition returns the remembered position of uri, if any.
func (r *SettingsRepository) ResumePosition(uri string) (time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.resume[uri]
	if !ok || entry.PositionMs <= 0 {
		return 0, false
	}
	return time.Duration(entry.PositionMs) * time.Millisecond, true
}

// Clear removes all saved settings.
func (r *SettingsRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyPlaylist)
	r.prefs.RemoveValue(keyVolume)
	r.prefs.RemoveValue(keyMuted)
	r.prefs.RemoveValue(keyResume)
	r.resume = make(map[string]resumeEntry)

	return nil
}

// Verify interface implementation
var _ ports.SettingsRepository = (*SettingsRepository)(nil)
