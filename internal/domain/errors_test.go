package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectedError(t *testing.T) {
	err := NewRejectedError(SeekCommand(5*time.Second), RejectNoActiveMedia, StateStopped)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "command seek(5s) rejected in state stopped: no_active_media", err.Error())

	wrapped := fmt.Errorf("submit: %w", err)
	reason, ok := RejectionReason(wrapped)
	require.True(t, ok)
	assert.Equal(t, RejectNoActiveMedia, reason)

	_, ok = RejectionReason(errors.New("other"))
	assert.False(t, ok)
}

func TestIndexError(t *testing.T) {
	err := NewIndexError("remove", 5, 3)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.Equal(t, "playlist remove: index 5 out of range [0, 3)", err.Error())
}

func TestEngineAdapterError(t *testing.T) {
	err := NewEngineAdapterError("mpd", "load", "/a.flac", "command failed", ErrNotConnected)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, "mpd engine load failed for '/a.flac': command failed", err.Error())

	err = NewEngineAdapterError("sim", "play", "", "engine closed", nil)
	assert.Equal(t, "sim engine play failed: engine closed", err.Error())
}

func TestRepositoryError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewRepositoryError("SavePlaylist", "settings", "failed to write", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "settings.SavePlaylist")
}

func TestErrorKind(t *testing.T) {
	assert.True(t, ErrorLoadFailure.Fatal())
	assert.True(t, ErrorDecodeFailure.Fatal())
	assert.True(t, ErrorEngineFault.Fatal())
	assert.False(t, ErrorSeekOutOfRange.Fatal())
	assert.False(t, ErrorNone.Fatal())
	assert.Equal(t, "decode_failure", ErrorDecodeFailure.String())
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "play", PlayCommand().String())
	assert.Equal(t, "play_at(2)", PlayAtCommand(2).String())
	assert.Equal(t, "set_track(subtitle, 3)", SetTrackCommand(TrackSubtitle, 3).String())
	assert.Equal(t, "set_volume(0.50)", SetVolumeCommand(0.5).String())
	assert.Equal(t, "unknown", CommandKind(99).String())
}
