package service

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// Options configures a Controller.
type Options struct {
	// Playlist is the initial playlist
	Playlist domain.PlaylistSnapshot

	// State seeds volume and mute; a non-stopped seed is normalized to Stopped
	State domain.PlaybackState

	// Machine tunes seek reconciliation, rate bounds and resume lookup
	Machine MachineOptions

	// Rand drives shuffle; nil uses a randomly seeded source
	Rand *rand.Rand
}

// DefaultOptions returns options with an empty playlist and the default state.
func DefaultOptions() Options {
	return Options{
		Playlist: domain.PlaylistSnapshot{Current: domain.NoIndex},
		State:    domain.StoppedState(),
	}
}

// Controller is the player-facing facade of the playback core.
//
// All work happens on the reconciler's owner goroutine: Submit and the playlist
// edits are queued there and wait for their verdict, engine events are delivered
// there by the engine. After each queued item the controller publishes immutable
// snapshots through atomics and the event bus.
//
// Handlers subscribed to the bus run on the owner goroutine and must not call
// blocking Controller methods (Submit, Sync, playlist edits).
type Controller struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.MediaEngine
	bus    ports.EventBus

	// Core, owned by the reconciler goroutine
	playlist   *PlaylistManager
	machine    *PlaybackStateMachine
	reconciler *EventReconciler

	// Published snapshots
	state atomic.Pointer[domain.PlaybackState]
	list  atomic.Pointer[domain.PlaylistSnapshot]

	// Last published revisions, owner goroutine only
	stateRevision    uint64
	playlistRevision uint64
	lastTag          domain.StateTag

	startOnce    sync.Once
	shutdownOnce sync.Once
}

// NewController wires the playback core around engine. Call Start before use.
func NewController(logger *slog.Logger, engine ports.MediaEngine, bus ports.EventBus, opts Options) *Controller {
	c := &Controller{
		logger: logger,
		engine: engine,
		bus:    bus,
	}

	c.playlist = NewPlaylistManager(logger.With(slog.String("component", "playlist")), opts.Rand)
	c.playlist.Restore(opts.Playlist)

	c.machine = NewPlaybackStateMachine(
		logger.With(slog.String("component", "state_machine")),
		engine,
		c.playlist,
		opts.State,
		opts.Machine,
	)

	c.reconciler = NewEventReconciler(
		logger.With(slog.String("component", "reconciler")),
		c.machine,
		c.publish,
	)

	// Initial snapshots, no notifications
	state := c.machine.State()
	list := c.playlist.Snapshot()
	c.state.Store(&state)
	c.list.Store(&list)
	c.stateRevision = c.machine.Revision()
	c.playlistRevision = c.playlist.Revision()
	c.lastTag = state.Tag

	return c
}

// Start registers the controller as the engine's sink, starts the owner goroutine
// and pushes the seeded volume and mute to the engine.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		c.engine.SetSink(c.reconciler)
		c.reconciler.Start()
		_ = c.reconciler.Do(c.machine.ApplyOutput)
		c.logger.Info("playback controller started",
			slog.Int("items", c.playlist.Len()))
	})
}

// Submit validates and applies a command. It returns nil, a *domain.RejectedError
// (errors.Is(err, domain.ErrRejected)), or domain.ErrClosed after Shutdown.
func (c *Controller) Submit(cmd domain.Command) error {
	var result error
	if err := c.reconciler.Call(func() {
		result = c.machine.Submit(cmd)
		if reason, ok := domain.RejectionReason(result); ok {
			c.bus.Publish(domain.NewCommandRejectedEvent(cmd, reason))
		}
	}); err != nil {
		return err
	}
	return result
}

// CurrentState returns the latest published state snapshot.
func (c *Controller) CurrentState() domain.PlaybackState {
	return c.state.Load().Clone()
}

// CurrentPlaylist returns the latest published playlist snapshot.
func (c *Controller) CurrentPlaylist() domain.PlaylistSnapshot {
	snap := *c.list.Load()
	snap.Items = append([]domain.MediaItem(nil), snap.Items...)
	snap.Order = append([]int(nil), snap.Order...)
	return snap
}

// Subscribe registers handler for one notification type.
func (c *Controller) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return c.bus.Subscribe(eventType, handler)
}

// SubscribeAll registers handler for every notification.
func (c *Controller) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return c.bus.SubscribeAll(handler)
}

// Unsubscribe removes a subscription.
func (c *Controller) Unsubscribe(id domain.SubscriptionID) {
	c.bus.Unsubscribe(id)
}

// Append adds items at the end of the playlist.
func (c *Controller) Append(items ...domain.MediaItem) error {
	return c.edit(func() error {
		return c.playlist.Append(items...)
	})
}

// Remove deletes the item at index. Removing the item that is loaded stops playback.
func (c *Controller) Remove(index int) error {
	return c.edit(func() error {
		wasCurrent, err := c.playlist.Remove(index)
		if err != nil {
			return err
		}
		if wasCurrent {
			c.machine.StopPlayback("current item removed")
		}
		return nil
	})
}

// Move relocates an item; the current item stays current.
func (c *Controller) Move(from, to int) error {
	return c.edit(func() error {
		return c.playlist.Move(from, to)
	})
}

// Clear empties the playlist and stops playback.
func (c *Controller) Clear() error {
	return c.edit(func() error {
		c.machine.StopPlayback("playlist cleared")
		c.playlist.Clear()
		return nil
	})
}

// SetRepeat changes the repeat mode.
func (c *Controller) SetRepeat(mode domain.RepeatMode) error {
	return c.edit(func() error {
		c.playlist.SetRepeat(mode)
		return nil
	})
}

// SetShuffle turns shuffle on or off.
func (c *Controller) SetShuffle(on bool) error {
	return c.edit(func() error {
		c.playlist.SetShuffle(on)
		return nil
	})
}

func (c *Controller) edit(fn func() error) error {
	var result error
	if err := c.reconciler.Call(func() { result = fn() }); err != nil {
		return err
	}
	return result
}

// Sync waits until everything queued before it, engine events included, has been processed.
func (c *Controller) Sync() error {
	return c.reconciler.Call(func() {})
}

// Shutdown stops the owner goroutine. The engine is left to its owner to close.
func (c *Controller) Shutdown() error {
	c.shutdownOnce.Do(func() {
		start := time.Now()
		c.reconciler.Stop()
		c.engine.SetSink(nil)
		c.logger.Info("playback controller stopped",
			slog.Duration("took", time.Since(start)),
			slog.Any("events", c.reconciler.Stats()))
	})
	return nil
}

// publish runs on the owner goroutine after every queued item.
func (c *Controller) publish() {
	if rev := c.machine.Revision(); rev != c.stateRevision {
		c.stateRevision = rev
		state := c.machine.State()
		c.state.Store(&state)

		previous := c.lastTag
		c.lastTag = state.Tag
		c.bus.Publish(domain.NewStateChangedEvent(previous, state.Clone()))
	}

	if rev := c.playlist.Revision(); rev != c.playlistRevision {
		c.playlistRevision = rev
		list := c.playlist.Snapshot()
		c.list.Store(&list)
		c.bus.Publish(domain.NewPlaylistChangedEvent(c.playlist.Snapshot()))
	}

	for _, ev := range c.machine.TakeNotifications() {
		c.bus.Publish(ev)
	}
}
