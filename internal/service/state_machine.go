package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// Default reconciliation parameters.
const (
	DefaultSeekTolerance     = 500 * time.Millisecond
	DefaultSeekMaxStaleTicks = 4
	DefaultAckMaxTicks       = 3
	DefaultMinRate           = 0.25
	DefaultMaxRate           = 4.0
)

// MachineOptions tunes the state machine.
type MachineOptions struct {
	// SeekTolerance is how close a tick must be to the pending seek target to confirm it
	SeekTolerance time.Duration

	// SeekMaxStaleTicks is how many non-confirming ticks are masked before the
	// engine's position is trusted again
	SeekMaxStaleTicks int

	// AckMaxTicks is how many position ticks may pass while play/pause
	// acknowledgements are outstanding before they are written off as lost
	AckMaxTicks int

	// MinRate and MaxRate bound SetRate
	MinRate float64
	MaxRate float64

	// Resume is consulted on every load; nil disables resume positions
	Resume ports.ResumeLookup
}

func (o MachineOptions) withDefaults() MachineOptions {
	if o.SeekTolerance <= 0 {
		o.SeekTolerance = DefaultSeekTolerance
	}
	if o.SeekMaxStaleTicks <= 0 {
		o.SeekMaxStaleTicks = DefaultSeekMaxStaleTicks
	}
	if o.AckMaxTicks <= 0 {
		o.AckMaxTicks = DefaultAckMaxTicks
	}
	if o.MinRate <= 0 {
		o.MinRate = DefaultMinRate
	}
	if o.MaxRate < o.MinRate {
		o.MaxRate = DefaultMaxRate
	}
	return o
}

// Transition describes the effect of one engine event.
type Transition struct {
	From    domain.StateTag
	To      domain.StateTag
	Changed bool

	// Dropped explains why the event had no effect; empty when it was applied
	Dropped string
}

// postLoadIntent holds what the user asked for while the item was still loading.
// It is applied exactly once, when the engine first reports playing.
type postLoadIntent struct {
	pause bool
	seek  *time.Duration
}

// resumePoint is the position carried over from a non-stopped seed state.
type resumePoint struct {
	uri      string
	position time.Duration
}

// PlaybackStateMachine owns the PlaybackState. It validates commands, turns them
// into engine calls and applies engine events as transitions.
//
// Thread-safety: not safe for concurrent use. It is driven exclusively by the
// reconciler's owner goroutine.
type PlaybackStateMachine struct {
	logger   *slog.Logger
	engine   ports.MediaEngine
	playlist *PlaylistManager
	opts     MachineOptions

	state       domain.PlaybackState
	generation  uint64
	intent      postLoadIntent
	pendingAcks int
	ackTicks    int
	staleTicks  int
	seedResume  *resumePoint
	revision    uint64

	// outbox collects notifications other than state/playlist changes
	outbox []domain.Event
}

// NewPlaybackStateMachine creates a state machine seeded with seed.
// A seed in any tag other than Stopped is normalized to Stopped: the item's
// position is kept as its resume point, volume and mute are kept as they are.
func NewPlaybackStateMachine(
	logger *slog.Logger,
	engine ports.MediaEngine,
	playlist *PlaylistManager,
	seed domain.PlaybackState,
	opts MachineOptions,
) *PlaybackStateMachine {
	m := &PlaybackStateMachine{
		logger:   logger,
		engine:   engine,
		playlist: playlist,
		opts:     opts.withDefaults(),
	}

	state := domain.StoppedState()
	state.Muted = seed.Muted
	state.Volume = seed.Volume
	// A zero PlaybackState (rate 0 is never valid) means no seed was given
	if (seed.Rate == 0 && seed.Volume == 0) || seed.Volume < 0 || seed.Volume > 1 {
		state.Volume = 1.0
	}

	if seed.Tag != domain.StateStopped {
		logger.Info("normalizing seed state to stopped", slog.String("seed", seed.Tag.String()))
		if seed.Item != nil && seed.Position > 0 {
			m.seedResume = &resumePoint{uri: seed.Item.URI, position: seed.Position}
		}
	}
	m.state = state

	return m
}

// State returns a deep copy of the current state.
func (m *PlaybackStateMachine) State() domain.PlaybackState {
	return m.state.Clone()
}

// Generation returns the current load generation.
func (m *PlaybackStateMachine) Generation() uint64 {
	return m.generation
}

// Revision increases on every change of the observable state.
func (m *PlaybackStateMachine) Revision() uint64 {
	return m.revision
}

// TakeNotifications returns and clears the queued notifications.
func (m *PlaybackStateMachine) TakeNotifications() []domain.Event {
	out := m.outbox
	m.outbox = nil
	return out
}

func (m *PlaybackStateMachine) notify(ev domain.Event) {
	m.outbox = append(m.outbox, ev)
}

func (m *PlaybackStateMachine) changed() {
	m.revision++
}

func (m *PlaybackStateMachine) reject(cmd domain.Command, reason domain.RejectedReason) error {
	m.logger.Debug("command rejected",
		slog.String("command", cmd.String()),
		slog.String("state", m.state.Tag.String()),
		slog.String("reason", reason.String()))
	return domain.NewRejectedError(cmd, reason, m.state.Tag)
}

// Submit validates cmd against the current state and applies it.
// It returns nil or a *domain.RejectedError; a rejection never changes state.
func (m *PlaybackStateMachine) Submit(cmd domain.Command) error {
	if m.state.Tag == domain.StateError {
		switch cmd.Kind {
		case domain.CmdStop, domain.CmdNext, domain.CmdPrevious, domain.CmdPlayAt,
			domain.CmdSetVolume, domain.CmdSetMute:
		default:
			return m.reject(cmd, domain.RejectInErrorState)
		}
	}

	switch cmd.Kind {
	case domain.CmdPlay:
		return m.play(cmd)
	case domain.CmdPause:
		return m.pause(cmd)
	case domain.CmdTogglePause:
		return m.togglePause(cmd)
	case domain.CmdStop:
		m.stop("user")
		return nil
	case domain.CmdSeek:
		return m.seek(cmd, cmd.Position)
	case domain.CmdSeekBy:
		return m.seek(cmd, m.displayedPosition()+cmd.Delta)
	case domain.CmdNext:
		return m.navigate(cmd, m.playlist.Next)
	case domain.CmdPrevious:
		return m.navigate(cmd, m.playlist.Previous)
	case domain.CmdPlayAt:
		return m.playAt(cmd)
	case domain.CmdSetTrack:
		return m.setTrack(cmd)
	case domain.CmdSetRate:
		return m.setRate(cmd)
	case domain.CmdSetVolume:
		return m.setVolume(cmd)
	case domain.CmdSetMute:
		return m.setMute(cmd)
	default:
		return m.reject(cmd, domain.RejectInvalidArgument)
	}
}

func (m *PlaybackStateMachine) play(cmd domain.Command) error {
	switch m.state.Tag {
	case domain.StateStopped:
		item, ok := m.playlist.Current()
		if !ok {
			return m.reject(cmd, domain.RejectEmptyPlaylist)
		}
		m.load(item)
	case domain.StateLoading:
		if m.intent.pause {
			m.intent.pause = false
			m.logger.Debug("pending post-load pause cancelled")
		}
	case domain.StatePaused:
		if m.issue("play", m.engine.Play()) {
			m.expectAck()
			m.state.Tag = domain.StatePlaying
			m.changed()
		}
	case domain.StatePlaying, domain.StateBuffering:
		// already playing
	}
	return nil
}

func (m *PlaybackStateMachine) pause(cmd domain.Command) error {
	switch m.state.Tag {
	case domain.StateStopped:
		return m.reject(cmd, domain.RejectNoActiveMedia)
	case domain.StateLoading:
		m.intent.pause = true
	case domain.StatePlaying, domain.StateBuffering:
		if m.issue("pause", m.engine.Pause()) {
			m.expectAck()
			m.state.Tag = domain.StatePaused
			m.state.BufferPercent = 0
			m.changed()
		}
	case domain.StatePaused:
		// already paused
	}
	return nil
}

func (m *PlaybackStateMachine) togglePause(cmd domain.Command) error {
	switch m.state.Tag {
	case domain.StatePaused, domain.StateStopped:
		return m.play(cmd)
	case domain.StateLoading:
		m.intent.pause = !m.intent.pause
		return nil
	default:
		return m.pause(cmd)
	}
}

func (m *PlaybackStateMachine) seek(cmd domain.Command, target time.Duration) error {
	switch m.state.Tag {
	case domain.StateStopped:
		return m.reject(cmd, domain.RejectNoActiveMedia)
	case domain.StateLoading:
		clamped := m.clampSeek(target)
		m.intent.seek = &clamped
		return nil
	}

	clamped := m.clampSeek(target)
	if clamped != target {
		m.logger.Debug("seek target clamped",
			slog.Duration("requested", target),
			slog.Duration("target", clamped))
	}

	if !m.issue("seek", m.engine.Seek(clamped)) {
		return nil
	}
	m.state.PendingSeek = &clamped
	m.state.Position = clamped
	m.staleTicks = 0
	m.changed()
	return nil
}

func (m *PlaybackStateMachine) navigate(cmd domain.Command, step func() (domain.MediaItem, error)) error {
	item, err := step()
	switch {
	case errors.Is(err, domain.ErrPlaylistEmpty):
		return m.reject(cmd, domain.RejectEmptyPlaylist)
	case errors.Is(err, domain.ErrPlaylistBoundary):
		return m.reject(cmd, domain.RejectAtBoundary)
	case err != nil:
		return m.reject(cmd, domain.RejectInvalidArgument)
	}

	// In Stopped only the cursor moves
	if m.state.Tag != domain.StateStopped {
		m.load(item)
	}
	return nil
}

func (m *PlaybackStateMachine) playAt(cmd domain.Command) error {
	item, err := m.playlist.GoTo(cmd.Index)
	if err != nil {
		return m.reject(cmd, domain.RejectInvalidArgument)
	}
	m.load(item)
	return nil
}

func (m *PlaybackStateMachine) setTrack(cmd domain.Command) error {
	if !m.state.Tag.HasMedia() {
		return m.reject(cmd, domain.RejectNoActiveMedia)
	}
	if len(m.state.Streams.Tracks) > 0 {
		if _, ok := m.state.Streams.Find(cmd.TrackKind, cmd.TrackID); !ok {
			return m.reject(cmd, domain.RejectUnknownTrack)
		}
	}

	if !m.issue("set_track", m.engine.SetActiveTrack(cmd.TrackKind, cmd.TrackID)) {
		return nil
	}

	if len(m.state.Streams.Tracks) > 0 {
		streams := m.state.Streams.Clone()
		for i := range streams.Tracks {
			if streams.Tracks[i].Kind == cmd.TrackKind {
				streams.Tracks[i].Active = streams.Tracks[i].ID == cmd.TrackID
			}
		}
		m.state.Streams = streams
		m.changed()
		m.notifyStreams()
	}
	return nil
}

func (m *PlaybackStateMachine) setRate(cmd domain.Command) error {
	if !m.state.Tag.HasMedia() {
		return m.reject(cmd, domain.RejectNoActiveMedia)
	}
	if cmd.Rate < m.opts.MinRate || cmd.Rate > m.opts.MaxRate {
		return m.reject(cmd, domain.RejectInvalidArgument)
	}
	if m.issue("set_rate", m.engine.SetRate(cmd.Rate)) && m.state.Rate != cmd.Rate {
		m.state.Rate = cmd.Rate
		m.changed()
	}
	return nil
}

func (m *PlaybackStateMachine) setVolume(cmd domain.Command) error {
	if cmd.Volume < 0 || cmd.Volume > 1 {
		return m.reject(cmd, domain.RejectInvalidArgument)
	}
	if m.issue("set_volume", m.engine.SetVolume(cmd.Volume)) && m.state.Volume != cmd.Volume {
		m.state.Volume = cmd.Volume
		m.changed()
	}
	return nil
}

func (m *PlaybackStateMachine) setMute(cmd domain.Command) error {
	if m.issue("set_mute", m.engine.SetMute(cmd.Muted)) && m.state.Muted != cmd.Muted {
		m.state.Muted = cmd.Muted
		m.changed()
	}
	return nil
}

// ApplyOutput pushes the current volume and mute flag to the engine.
func (m *PlaybackStateMachine) ApplyOutput() {
	m.issue("set_volume", m.engine.SetVolume(m.state.Volume))
	m.issue("set_mute", m.engine.SetMute(m.state.Muted))
}

// StopPlayback stops the engine and moves to Stopped unless already there.
func (m *PlaybackStateMachine) StopPlayback(reason string) {
	if m.state.Tag != domain.StateStopped {
		m.stop(reason)
	}
}

// load supersedes whatever was loaded and starts loading item.
func (m *PlaybackStateMachine) load(item domain.MediaItem) {
	m.generation++
	m.intent = postLoadIntent{}
	m.clearAcks()
	m.staleTicks = 0

	if pos, ok := m.resumePosition(item.URI); ok {
		m.intent.seek = &pos
		m.logger.Debug("resuming item", slog.String("uri", item.URI), slog.Duration("position", pos))
	}

	loaded := item
	m.state = domain.PlaybackState{
		Tag:        domain.StateLoading,
		Item:       &loaded,
		Duration:   item.DurationHint,
		Rate:       1.0,
		Volume:     m.state.Volume,
		Muted:      m.state.Muted,
		Generation: m.generation,
	}
	m.changed()

	m.logger.Info("loading item",
		slog.String("uri", item.URI),
		slog.Uint64("generation", m.generation))

	err := m.engine.Load(m.generation, item.URI)
	if err == nil {
		err = m.engine.Play()
	}
	if err != nil {
		m.fail(domain.ErrorLoadFailure, err.Error())
	}
}

func (m *PlaybackStateMachine) resumePosition(uri string) (time.Duration, bool) {
	if m.seedResume != nil && m.seedResume.uri == uri {
		pos := m.seedResume.position
		m.seedResume = nil
		return pos, true
	}
	if m.opts.Resume == nil {
		return 0, false
	}
	pos, ok := m.opts.Resume.ResumePosition(uri)
	if !ok || pos <= 0 {
		return 0, false
	}
	return pos, true
}

// stop retires the current generation so late events of the old load are dropped.
func (m *PlaybackStateMachine) stop(reason string) {
	if m.state.Tag != domain.StateStopped {
		m.issue("stop", m.engine.Stop())
	}
	m.generation++
	m.intent = postLoadIntent{}
	m.clearAcks()
	m.staleTicks = 0

	if m.state.Tag != domain.StateStopped {
		m.logger.Info("playback stopped", slog.String("reason", reason))
		next := domain.StoppedState()
		next.Volume = m.state.Volume
		next.Muted = m.state.Muted
		next.Generation = m.generation
		m.state = next
		m.changed()
	}
}

func (m *PlaybackStateMachine) fail(kind domain.ErrorKind, message string) {
	m.logger.Warn("playback failed",
		slog.String("kind", kind.String()),
		slog.String("message", message),
		slog.Uint64("generation", m.generation))

	m.intent = postLoadIntent{}
	m.clearAcks()
	m.state.Tag = domain.StateError
	m.state.ErrorKind = kind
	m.state.Message = message
	m.state.PendingSeek = nil
	m.state.BufferPercent = 0
	m.changed()

	var item *domain.MediaItem
	if m.state.Item != nil {
		copied := *m.state.Item
		item = &copied
	}
	m.notify(domain.NewPlaybackErrorEvent(item, kind, message))
}

// issue logs a command the engine could not accept. It reports whether the call succeeded.
func (m *PlaybackStateMachine) issue(op string, err error) bool {
	if err == nil {
		return true
	}
	m.logger.Warn("engine command failed", slog.String("op", op), slog.Any("error", err))
	m.notify(domain.NewEngineWarningEvent(op + ": " + err.Error()))
	return false
}

func (m *PlaybackStateMachine) notifyStreams() {
	if m.state.Item == nil {
		return
	}
	m.notify(domain.NewStreamsChangedEvent(*m.state.Item, m.state.Streams.Clone()))
}

func (m *PlaybackStateMachine) displayedPosition() time.Duration {
	if m.state.Tag == domain.StateLoading && m.intent.seek != nil {
		return *m.intent.seek
	}
	return m.state.Position
}

func (m *PlaybackStateMachine) clampSeek(target time.Duration) time.Duration {
	if target < 0 {
		return 0
	}
	if m.state.Duration > 0 && target > m.state.Duration {
		return m.state.Duration
	}
	return target
}

func dropped(from domain.StateTag, reason string) Transition {
	return Transition{From: from, To: from, Dropped: reason}
}

// OnEngineEvent applies an engine event of the current generation.
// Events that make no sense in the current state are dropped, never treated as faults.
func (m *PlaybackStateMachine) OnEngineEvent(ev domain.EngineEvent) Transition {
	from := m.state.Tag
	before := m.revision

	var reason string
	switch e := ev.(type) {
	case domain.StateChanged:
		reason = m.onStateChanged(e)
	case domain.PositionTick:
		reason = m.onTick(e)
	case domain.BufferingProgress:
		reason = m.onBuffering(e)
	case domain.StreamTopologyChanged:
		reason = m.onTopology(e)
	case domain.EndOfStream:
		reason = m.onEndOfStream()
	case domain.EngineError:
		reason = m.onError(e)
	case domain.EngineWarning:
		m.logger.Warn("engine warning", slog.String("message", e.Message))
		m.notify(domain.NewEngineWarningEvent(e.Message))
	default:
		reason = "unknown event"
	}

	if reason != "" {
		m.logger.Debug("engine event dropped",
			slog.String("event", ev.Name()),
			slog.String("state", from.String()),
			slog.String("reason", reason))
		return dropped(from, reason)
	}

	return Transition{From: from, To: m.state.Tag, Changed: m.revision != before}
}

func (m *PlaybackStateMachine) onStateChanged(e domain.StateChanged) string {
	tag := m.state.Tag
	switch e.State {
	case domain.EnginePlaying:
		switch tag {
		case domain.StateLoading:
			m.started()
		case domain.StatePlaying, domain.StateBuffering:
			m.clearAcks()
		case domain.StatePaused:
			if m.staleAck() {
				return "stale acknowledgement"
			}
			m.logger.Info("engine resumed playback")
			m.state.Tag = domain.StatePlaying
			m.changed()
		default:
			return "out of context"
		}

	case domain.EnginePaused:
		switch tag {
		case domain.StatePaused:
			m.clearAcks()
		case domain.StatePlaying, domain.StateBuffering:
			if m.staleAck() {
				return "stale acknowledgement"
			}
			m.logger.Info("engine paused playback")
			m.state.Tag = domain.StatePaused
			m.state.BufferPercent = 0
			m.changed()
		default:
			return "out of context"
		}

	case domain.EngineStopped:
		if !tag.Seekable() {
			return "out of context"
		}
		m.logger.Info("engine stopped playback on its own")
		m.stop("engine")

	default:
		return "unknown engine state"
	}
	return ""
}

// expectAck records an engine play/pause command whose report is still to come.
func (m *PlaybackStateMachine) expectAck() {
	m.pendingAcks++
	m.ackTicks = 0
}

func (m *PlaybackStateMachine) clearAcks() {
	m.pendingAcks = 0
	m.ackTicks = 0
}

// staleAck consumes one outstanding acknowledgement for a report that
// contradicts the current intent.
func (m *PlaybackStateMachine) staleAck() bool {
	if m.pendingAcks == 0 {
		return false
	}
	m.pendingAcks--
	return true
}

// decayAcks writes off acknowledgements the engine never sent. Engines that
// report changes between polls stay silent when a pause and a play cancel out.
func (m *PlaybackStateMachine) decayAcks() {
	if m.pendingAcks == 0 {
		return
	}
	m.ackTicks++
	if m.ackTicks >= m.opts.AckMaxTicks {
		m.logger.Debug("outstanding acknowledgements written off",
			slog.Int("pending", m.pendingAcks),
			slog.Int("ticks", m.ackTicks))
		m.clearAcks()
	}
}

// started handles the Loading -> Playing edge and applies the post-load intent once.
func (m *PlaybackStateMachine) started() {
	m.state.Tag = domain.StatePlaying
	m.state.Position = 0
	m.changed()

	if m.state.Streams.IsEmpty() {
		if streams := m.engine.QueryStreams(); !streams.IsEmpty() {
			m.replaceStreams(streams)
		}
	}

	if m.state.Item != nil && m.state.Item.SubtitleURI != "" {
		m.issue("add_subtitle", m.engine.AddSubtitle(m.state.Item.SubtitleURI))
	}

	intent := m.intent
	m.intent = postLoadIntent{}

	if intent.seek != nil {
		target := m.clampSeek(*intent.seek)
		if m.issue("seek", m.engine.Seek(target)) {
			m.state.PendingSeek = &target
			m.state.Position = target
			m.staleTicks = 0
		}
	}
	if intent.pause {
		if m.issue("pause", m.engine.Pause()) {
			m.expectAck()
			m.state.Tag = domain.StatePaused
		}
	}
}

func (m *PlaybackStateMachine) onTick(e domain.PositionTick) string {
	if e.Position < 0 {
		return "negative position"
	}
	if !m.state.Tag.Seekable() {
		return "out of context"
	}
	m.decayAcks()

	if target, ok := m.state.SeekPending(); ok {
		if absDuration(e.Position-target) <= m.opts.SeekTolerance {
			m.logger.Debug("seek confirmed", slog.Duration("target", target), slog.Duration("position", e.Position))
		} else {
			m.staleTicks++
			if m.staleTicks < m.opts.SeekMaxStaleTicks {
				return "awaiting seek confirmation"
			}
			m.logger.Debug("seek corrected by engine",
				slog.Duration("target", target),
				slog.Duration("position", e.Position))
		}
		m.state.PendingSeek = nil
		m.staleTicks = 0
		m.state.Position = e.Position
		m.changed()
		return ""
	}

	if m.state.Position != e.Position {
		m.state.Position = e.Position
		m.changed()
	}
	return ""
}

func (m *PlaybackStateMachine) onBuffering(e domain.BufferingProgress) string {
	if e.Percent < 0 || e.Percent > 100 {
		return "percent out of range"
	}

	switch m.state.Tag {
	case domain.StatePlaying:
		if e.Percent == 100 {
			return "already playing"
		}
		m.state.Tag = domain.StateBuffering
		m.state.BufferPercent = e.Percent
		m.changed()
	case domain.StateBuffering:
		if e.Percent == 100 {
			m.state.Tag = domain.StatePlaying
			m.state.BufferPercent = 0
		} else {
			m.state.BufferPercent = e.Percent
		}
		m.changed()
	default:
		return "out of context"
	}
	return ""
}

func (m *PlaybackStateMachine) onTopology(e domain.StreamTopologyChanged) string {
	if !m.state.Tag.HasMedia() {
		return "out of context"
	}
	m.replaceStreams(e.Streams)
	return ""
}

func (m *PlaybackStateMachine) replaceStreams(streams domain.StreamInfo) {
	m.state.Streams = streams.Clone()
	if streams.Duration > 0 {
		m.state.Duration = streams.Duration
	}
	m.changed()
	m.notifyStreams()
}

func (m *PlaybackStateMachine) onEndOfStream() string {
	if !m.state.Tag.HasMedia() {
		return "out of context"
	}

	next, ok := m.playlist.Advance(domain.AdvanceEndOfStream)
	if !ok {
		m.logger.Info("playlist exhausted")
		m.stop("end of playlist")
		return ""
	}
	m.load(next)
	return ""
}

func (m *PlaybackStateMachine) onError(e domain.EngineError) string {
	if !e.Kind.Fatal() {
		m.logger.Debug("non-fatal engine error", slog.String("kind", e.Kind.String()), slog.String("message", e.Message))
		return "non-fatal error kind"
	}
	if !m.state.Tag.HasMedia() {
		return "out of context"
	}
	m.fail(e.Kind, e.Message)
	return ""
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
