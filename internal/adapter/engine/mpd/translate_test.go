package mpd

import (
	"testing"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

func TestParseStatus(t *testing.T) {
	obs := parseStatus(mpd.Attrs{
		"state":    "play",
		"elapsed":  "12.345",
		"duration": "200.5",
	})
	assert.Equal(t, statePlay, obs.state)
	assert.Equal(t, 12345*time.Millisecond, obs.elapsed)
	assert.Equal(t, 200500*time.Millisecond, obs.duration)
	assert.Empty(t, obs.err)

	// Older servers only send the combined time field
	obs = parseStatus(mpd.Attrs{"state": "pause", "time": "12:180"})
	assert.Equal(t, 180*time.Second, obs.duration)

	obs = parseStatus(mpd.Attrs{"elapsed": "garbage", "duration": "-3"})
	assert.Equal(t, stateStop, obs.state)
	assert.Zero(t, obs.elapsed)
	assert.Zero(t, obs.duration)
}

func TestTranslate(t *testing.T) {
	tr := transition{generation: 7, uri: "music/song.flac"}
	stopped := observation{state: stateStop}
	playing := observation{state: statePlay, elapsed: time.Second, duration: time.Minute}

	tests := []struct {
		name string
		prev observation
		next observation
		want []domain.EngineEvent
	}{
		{
			name: "playback starts",
			prev: stopped,
			next: playing,
			want: []domain.EngineEvent{
				domain.StreamTopologyChanged{Generation: 7, Streams: domain.StreamInfo{
					Tracks:   []domain.StreamTrack{{Kind: domain.TrackAudio, ID: 0, Codec: "flac", Active: true}},
					Duration: time.Minute,
				}},
				domain.StateChanged{Generation: 7, State: domain.EnginePlaying},
				domain.PositionTick{Generation: 7, Position: time.Second},
			},
		},
		{
			name: "position advances",
			prev: playing,
			next: observation{state: statePlay, elapsed: 2 * time.Second, duration: time.Minute},
			want: []domain.EngineEvent{domain.PositionTick{Generation: 7, Position: 2 * time.Second}},
		},
		{
			name: "nothing changed",
			prev: playing,
			next: playing,
			want: nil,
		},
		{
			name: "paused",
			prev: playing,
			next: observation{state: statePause, elapsed: time.Second, duration: time.Minute},
			want: []domain.EngineEvent{domain.StateChanged{Generation: 7, State: domain.EnginePaused}},
		},
		{
			name: "played to the end",
			prev: playing,
			next: stopped,
			want: []domain.EngineEvent{domain.EndOfStream{Generation: 7}},
		},
		{
			name: "decode error while playing",
			prev: playing,
			next: observation{state: stateStop, err: "corrupt frame"},
			want: []domain.EngineEvent{
				domain.EngineError{Generation: 7, Kind: domain.ErrorDecodeFailure, Message: "corrupt frame"},
			},
		},
		{
			name: "failed before starting",
			prev: stopped,
			next: observation{state: stateStop, err: "failed to open"},
			want: []domain.EngineEvent{
				domain.EngineError{Generation: 7, Kind: domain.ErrorLoadFailure, Message: "failed to open"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, translate(tt.prev, tt.next, tr))
		})
	}
}

func TestTranslate_ReportedErrorOnlyOnce(t *testing.T) {
	failed := observation{state: stateStop, err: "failed to open"}
	assert.Empty(t, translate(failed, failed, transition{generation: 1}))
}
