package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTag_Capabilities(t *testing.T) {
	tests := []struct {
		tag      StateTag
		name     string
		media    bool
		seekable bool
	}{
		{StateStopped, "stopped", false, false},
		{StateLoading, "loading", true, false},
		{StatePlaying, "playing", true, true},
		{StatePaused, "paused", true, true},
		{StateBuffering, "buffering", true, true},
		{StateError, "error", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.tag.String())
			assert.Equal(t, tt.media, tt.tag.HasMedia())
			assert.Equal(t, tt.seekable, tt.tag.Seekable())
		})
	}
	assert.Equal(t, "unknown", StateTag(42).String())
}

func TestPlaybackState_CloneIsDeep(t *testing.T) {
	target := 30 * time.Second
	state := PlaybackState{
		Tag:         StatePlaying,
		Item:        &MediaItem{ID: "1", URI: "/a.mkv", Title: "A"},
		PendingSeek: &target,
		Streams: StreamInfo{Tracks: []StreamTrack{
			{Kind: TrackAudio, ID: 0, Active: true},
		}},
	}

	clone := state.Clone()
	clone.Item.Title = "changed"
	*clone.PendingSeek = time.Minute
	clone.Streams.Tracks[0].Active = false

	assert.Equal(t, "A", state.Item.Title)
	assert.Equal(t, 30*time.Second, *state.PendingSeek)
	assert.True(t, state.Streams.Tracks[0].Active)
}

func TestPlaybackState_Helpers(t *testing.T) {
	state := StoppedState()
	assert.Equal(t, StateStopped, state.Tag)
	assert.Equal(t, 1.0, state.Rate)
	assert.Equal(t, 1.0, state.Volume)
	assert.False(t, state.HasItem())
	assert.Zero(t, state.ProgressPercent())
	_, pending := state.SeekPending()
	assert.False(t, pending)
	assert.Equal(t, "stopped", state.String())

	target := 45 * time.Second
	state = PlaybackState{
		Tag:         StatePaused,
		Item:        &MediaItem{URI: "/media/b.mkv"},
		Position:    45 * time.Second,
		Duration:    90 * time.Second,
		PendingSeek: &target,
	}
	assert.InDelta(t, 50.0, state.ProgressPercent(), 0.001)
	got, pending := state.SeekPending()
	require.True(t, pending)
	assert.Equal(t, target, got)
	assert.Equal(t, "paused(/media/b.mkv, 45s)", state.String())

	state.Position = 2 * time.Minute
	assert.Equal(t, 100.0, state.ProgressPercent())

	failed := PlaybackState{Tag: StateError, ErrorKind: ErrorLoadFailure, Message: "not found"}
	assert.Equal(t, "error(load_failure: not found)", failed.String())
}

func TestStreamInfo(t *testing.T) {
	info := StreamInfo{
		Tracks: []StreamTrack{
			{Kind: TrackVideo, ID: 0, Codec: "h264", Active: true},
			{Kind: TrackAudio, ID: 1, Language: "eng", Codec: "aac", Active: true},
			{Kind: TrackAudio, ID: 2, Language: "fra", Codec: "aac"},
			{Kind: TrackSubtitle, ID: 3},
		},
		Duration: time.Hour,
	}

	assert.False(t, info.IsEmpty())
	assert.True(t, StreamInfo{}.IsEmpty())
	assert.True(t, info.HasVideo())
	assert.Len(t, info.ByKind(TrackAudio), 2)

	track, ok := info.Find(TrackAudio, 2)
	require.True(t, ok)
	assert.Equal(t, "fra", track.Language)
	_, ok = info.Find(TrackVideo, 2)
	assert.False(t, ok)

	active, ok := info.Active(TrackAudio)
	require.True(t, ok)
	assert.Equal(t, 1, active.ID)
	_, ok = info.Active(TrackSubtitle)
	assert.False(t, ok)

	assert.Equal(t, "audio#1 (eng, aac)", active.String())
	assert.Equal(t, "subtitle#3", info.Tracks[3].String())
}

func TestParseRepeatMode(t *testing.T) {
	for input, want := range map[string]RepeatMode{"": RepeatOff, "OFF": RepeatOff, "one": RepeatOne, " single ": RepeatOne, "all": RepeatAll} {
		got, err := ParseRepeatMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseRepeatMode("sometimes")
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, "repeat", validation.Field)

	assert.Equal(t, "all", RepeatAll.String())
}

func TestParseTrackKind(t *testing.T) {
	kind, err := ParseTrackKind("Sub")
	require.NoError(t, err)
	assert.Equal(t, TrackSubtitle, kind)

	_, err = ParseTrackKind("lyrics")
	assert.Error(t, err)
}

func TestPlaylistSnapshot_CurrentItem(t *testing.T) {
	snap := PlaylistSnapshot{Items: []MediaItem{{URI: "a"}, {URI: "b", Title: "B"}}, Current: 1}
	item, ok := snap.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "B", item.DisplayTitle())
	assert.Equal(t, 2, snap.Len())

	snap.Current = NoIndex
	_, ok = snap.CurrentItem()
	assert.False(t, ok)
	assert.Equal(t, "a", snap.Items[0].DisplayTitle())
}
