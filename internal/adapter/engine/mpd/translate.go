package mpd

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// MPD player states as reported in the "state" status field.
const (
	statePlay  = "play"
	statePause = "pause"
	stateStop  = "stop"
)

// observation is the subset of an MPD status that the adapter cares about.
type observation struct {
	state    string
	elapsed  time.Duration
	duration time.Duration
	err      string
}

// parseStatus extracts an observation from MPD status attributes.
// Missing or malformed numbers read as zero.
func parseStatus(attrs mpd.Attrs) observation {
	obs := observation{
		state:    attrs["state"],
		elapsed:  seconds(attrs["elapsed"]),
		duration: seconds(attrs["duration"]),
		err:      attrs["error"],
	}
	if obs.state == "" {
		obs.state = stateStop
	}
	if obs.duration == 0 {
		// Older servers only report "time" as "elapsed:total" in whole seconds
		if _, total, ok := strings.Cut(attrs["time"], ":"); ok {
			obs.duration = seconds(total)
		}
	}
	return obs
}

func seconds(s string) time.Duration {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

// transition holds what translate needs besides the two observations.
type transition struct {
	generation uint64
	uri        string
}

// translate turns the difference between two observations into engine events.
//
// MPD has no end-of-stream notification. The queue only ever holds the loaded item and
// requested stops are acknowledged by the engine itself, so an observed stop after
// playback means the item played to its end.
func translate(prev, next observation, t transition) []domain.EngineEvent {
	var events []domain.EngineEvent
	gen := t.generation

	if next.err != "" && next.err != prev.err {
		kind := domain.ErrorDecodeFailure
		if prev.state == stateStop && next.state == stateStop {
			// Failed before it ever started playing
			kind = domain.ErrorLoadFailure
		}
		events = append(events, domain.EngineError{Generation: gen, Kind: kind, Message: next.err})
	}

	if next.duration > 0 && next.duration != prev.duration {
		events = append(events, domain.StreamTopologyChanged{Generation: gen, Streams: streamsFor(t.uri, next)})
	}

	if next.state != prev.state {
		switch next.state {
		case statePlay:
			events = append(events, domain.StateChanged{Generation: gen, State: domain.EnginePlaying})
		case statePause:
			events = append(events, domain.StateChanged{Generation: gen, State: domain.EnginePaused})
		case stateStop:
			if next.err == "" {
				events = append(events, domain.EndOfStream{Generation: gen})
			}
		}
	}

	if next.state != stateStop && next.elapsed != prev.elapsed {
		events = append(events, domain.PositionTick{Generation: gen, Position: next.elapsed})
	}

	return events
}

// streamsFor describes the single audio stream MPD exposes.
func streamsFor(uri string, obs observation) domain.StreamInfo {
	codec := strings.TrimPrefix(strings.ToLower(filepath.Ext(uri)), ".")
	return domain.StreamInfo{
		Tracks: []domain.StreamTrack{
			{Kind: domain.TrackAudio, ID: 0, Codec: codec, Active: true},
		},
		Duration: obs.duration,
	}
}
