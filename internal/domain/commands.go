package domain

import (
	"fmt"
	"time"
)

// CommandKind identifies a user intent.
type CommandKind int

const (
	CmdPlay CommandKind = iota
	CmdPause
	CmdTogglePause
	CmdStop
	CmdSeek
	CmdSeekBy
	CmdNext
	CmdPrevious
	CmdPlayAt
	CmdSetTrack
	CmdSetRate
	CmdSetVolume
	CmdSetMute
)

var commandNames = map[CommandKind]string{
	CmdPlay:        "play",
	CmdPause:       "pause",
	CmdTogglePause: "toggle_pause",
	CmdStop:        "stop",
	CmdSeek:        "seek",
	CmdSeekBy:      "seek_by",
	CmdNext:        "next",
	CmdPrevious:    "previous",
	CmdPlayAt:      "play_at",
	CmdSetTrack:    "set_track",
	CmdSetRate:     "set_rate",
	CmdSetVolume:   "set_volume",
	CmdSetMute:     "set_mute",
}

// String returns the command name.
func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is a user-originated intent, consumed exactly once by the state machine.
// Only the argument fields relevant to Kind are meaningful.
type Command struct {
	Kind CommandKind

	// Position is the absolute target of CmdSeek
	Position time.Duration

	// Delta is the relative offset of CmdSeekBy (negative seeks backward)
	Delta time.Duration

	// Index is the playlist index of CmdPlayAt
	Index int

	// TrackKind and TrackID select a stream for CmdSetTrack
	TrackKind TrackKind
	TrackID   int

	// Rate is the playback rate of CmdSetRate
	Rate float64

	// Volume is the output volume of CmdSetVolume (0.0 to 1.0)
	Volume float64

	// Muted is the mute flag of CmdSetMute
	Muted bool
}

// String returns a compact description for logs.
func (c Command) String() string {
	switch c.Kind {
	case CmdSeek:
		return fmt.Sprintf("seek(%s)", c.Position)
	case CmdSeekBy:
		return fmt.Sprintf("seek_by(%s)", c.Delta)
	case CmdPlayAt:
		return fmt.Sprintf("play_at(%d)", c.Index)
	case CmdSetTrack:
		return fmt.Sprintf("set_track(%s, %d)", c.TrackKind, c.TrackID)
	case CmdSetRate:
		return fmt.Sprintf("set_rate(%.2f)", c.Rate)
	case CmdSetVolume:
		return fmt.Sprintf("set_volume(%.2f)", c.Volume)
	case CmdSetMute:
		return fmt.Sprintf("set_mute(%t)", c.Muted)
	default:
		return c.Kind.String()
	}
}

// PlayCommand starts or resumes playback.
func PlayCommand() Command { return Command{Kind: CmdPlay} }

// PauseCommand pauses playback.
func PauseCommand() Command { return Command{Kind: CmdPause} }

// TogglePauseCommand pauses when playing and resumes when paused.
func TogglePauseCommand() Command { return Command{Kind: CmdTogglePause} }

// StopCommand stops playback.
func StopCommand() Command { return Command{Kind: CmdStop} }

// SeekCommand seeks to an absolute position.
func SeekCommand(target time.Duration) Command {
	return Command{Kind: CmdSeek, Position: target}
}

// SeekByCommand seeks relative to the displayed position.
func SeekByCommand(delta time.Duration) Command {
	return Command{Kind: CmdSeekBy, Delta: delta}
}

// NextCommand moves to the next playlist item.
func NextCommand() Command { return Command{Kind: CmdNext} }

// PreviousCommand moves to the previous playlist item.
func PreviousCommand() Command { return Command{Kind: CmdPrevious} }

// PlayAtCommand loads the playlist item at index.
func PlayAtCommand(index int) Command {
	return Command{Kind: CmdPlayAt, Index: index}
}

// SetTrackCommand selects the active stream of a kind.
func SetTrackCommand(kind TrackKind, id int) Command {
	return Command{Kind: CmdSetTrack, TrackKind: kind, TrackID: id}
}

// SetRateCommand changes the playback rate.
func SetRateCommand(rate float64) Command {
	return Command{Kind: CmdSetRate, Rate: rate}
}

// SetVolumeCommand changes the output volume.
func SetVolumeCommand(volume float64) Command {
	return Command{Kind: CmdSetVolume, Volume: volume}
}

// SetMuteCommand mutes or unmutes the output.
func SetMuteCommand(muted bool) Command {
	return Command{Kind: CmdSetMute, Muted: muted}
}
