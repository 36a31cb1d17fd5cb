package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

const (
	// resumeMinPosition is the position below which nothing is worth resuming
	resumeMinPosition = 5 * time.Second

	// resumeTailMargin is how close to the end an item counts as finished
	resumeTailMargin = 5 * time.Second
)

// SessionRecorder is the settings collaborator of the playback core. It turns
// notifications into persisted settings: the playlist, the output volume and the
// position to resume each item from.
//
// Handlers run on the controller's owner goroutine, so repository calls must be quick.
type SessionRecorder struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.SettingsRepository
	bus        ports.EventBus

	// Last observed state
	last        domain.PlaybackState
	hasLast     bool
	volumeSaved bool
	volume      float64
	muted       bool

	subscriptions []domain.SubscriptionID
	mu            sync.Mutex
}

// NewSessionRecorder creates a recorder and subscribes it to bus.
func NewSessionRecorder(
	logger *slog.Logger,
	repository ports.SettingsRepository,
	bus ports.EventBus,
) *SessionRecorder {
	r := &SessionRecorder{
		logger:     logger,
		repository: repository,
		bus:        bus,
	}

	r.subscriptions = append(r.subscriptions,
		bus.Subscribe(domain.EventStateChanged, r.handleStateChanged),
		bus.Subscribe(domain.EventPlaylistChanged, r.handlePlaylistChanged),
	)

	logger.Debug("session recorder initialized")
	return r
}

func (r *SessionRecorder) handleStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state := e.State
	if r.hasLast && r.last.Generation != state.Generation && r.last.Tag.Seekable() {
		r.saveResume(r.last)
	}

	if !r.volumeSaved || r.volume != state.Volume || r.muted != state.Muted {
		if err := r.repository.SaveVolume(state.Volume, state.Muted); err != nil {
			r.logger.Warn("failed to save volume", slog.Any("error", err))
		} else {
			r.volumeSaved = true
			r.volume = state.Volume
			r.muted = state.Muted
		}
	}

	r.last = state
	r.hasLast = true
}

func (r *SessionRecorder) handlePlaylistChanged(event domain.Event) {
	e, ok := event.(domain.PlaylistChangedEvent)
	if !ok {
		return
	}

	if err := r.repository.SavePlaylist(e.Playlist); err != nil {
		r.logger.Warn("failed to save playlist", slog.Any("error", err))
	}
}

// saveResume remembers where the item of state was left, or forgets it when it
// was barely started or played to the end. Items of unknown duration are not tracked.
func (r *SessionRecorder) saveResume(state domain.PlaybackState) {
	if state.Item == nil || state.Duration <= 0 {
		return
	}

	position := state.Position
	if position < resumeMinPosition || position > state.Duration-resumeTailMargin {
		position = 0
	}

	if err := r.repository.SaveResumePosition(state.Item.URI, position); err != nil {
		r.logger.Warn("failed to save resume position",
			slog.String("uri", state.Item.URI),
			slog.Any("error", err))
		return
	}
	r.logger.Debug("resume position recorded",
		slog.String("uri", state.Item.URI),
		slog.Duration("position", position))
}

// Flush records the resume position of the item that is currently loaded.
// Call it before shutting down.
func (r *SessionRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasLast && r.last.Tag.Seekable() {
		r.saveResume(r.last)
	}
}

// Shutdown unsubscribes the recorder.
func (r *SessionRecorder) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.subscriptions {
		r.bus.Unsubscribe(id)
	}
	r.subscriptions = nil

	r.logger.Debug("session recorder shut down")
	return nil
}
