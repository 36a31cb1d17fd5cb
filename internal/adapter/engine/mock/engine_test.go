package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.EngineEvent
}

func (s *recordingSink) Deliver(ev domain.EngineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func TestNewEngine(t *testing.T) {
	engine := NewEngine()
	require.NotNil(t, engine)
	assert.Empty(t, engine.Calls())
	assert.Zero(t, engine.Generation())
	assert.True(t, engine.QueryStreams().IsEmpty())
}

func TestLoadRecordsGeneration(t *testing.T) {
	engine := NewEngine()

	require.NoError(t, engine.Load(3, "/media/a.mkv"))
	require.NoError(t, engine.Play())

	assert.Equal(t, uint64(3), engine.Generation())
	assert.Equal(t, "/media/a.mkv", engine.LoadedURI())
	assert.Equal(t, []string{"load", "play"}, engine.Ops())

	loads := engine.CallsTo("load")
	require.Len(t, loads, 1)
	assert.Equal(t, "load(3, /media/a.mkv)", loads[0].String())
}

func TestLoadEmptyURI(t *testing.T) {
	engine := NewEngine()
	err := engine.Load(1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidURI)
	assert.Empty(t, engine.Calls())
}

func TestFailureInjection(t *testing.T) {
	engine := NewEngine()
	engine.SetFailLoad(true)
	engine.SetFailPlay(true)
	engine.SetFailSeek(true)

	var adapterErr *domain.EngineAdapterError
	assert.True(t, errors.As(engine.Load(1, "/a"), &adapterErr))
	assert.Equal(t, "load", adapterErr.Op)
	assert.Error(t, engine.Play())
	assert.Error(t, engine.Seek(time.Second))
	assert.Empty(t, engine.Calls())
}

func TestSetVolumeRange(t *testing.T) {
	engine := NewEngine()
	assert.ErrorIs(t, engine.SetVolume(1.5), domain.ErrInvalidVolume)
	assert.NoError(t, engine.SetVolume(0.4))

	calls := engine.CallsTo("set_volume")
	require.Len(t, calls, 1)
	assert.InDelta(t, 0.4, calls[0].Volume, 1e-9)
}

func TestClosedEngineRejectsCommands(t *testing.T) {
	engine := NewEngine()
	require.NoError(t, engine.Close())

	err := engine.Play()
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestEmitUsesLatestGeneration(t *testing.T) {
	engine := NewEngine()
	sink := &recordingSink{}
	engine.SetSink(sink)

	require.NoError(t, engine.Load(7, "/media/b.mp4"))
	engine.EmitState(domain.EnginePlaying)
	engine.EmitTick(2 * time.Second)
	engine.EmitBuffering(40)
	engine.EmitEndOfStream()
	engine.EmitError(domain.ErrorDecodeFailure, "bad frame")

	require.Len(t, sink.events, 5)
	for _, ev := range sink.events {
		assert.Equal(t, uint64(7), ev.LoadGeneration(), ev.Name())
	}
	assert.Equal(t, domain.PositionTick{Generation: 7, Position: 2 * time.Second}, sink.events[1])
}

func TestEmitWithoutSink(t *testing.T) {
	engine := NewEngine()
	assert.NotPanics(t, func() { engine.EmitTick(time.Second) })
}

func TestStreamsResetOnLoad(t *testing.T) {
	engine := NewEngine()
	engine.SetStreams(domain.StreamInfo{
		Tracks:   []domain.StreamTrack{{Kind: domain.TrackAudio, ID: 1, Active: true}},
		Duration: time.Minute,
	})
	assert.False(t, engine.QueryStreams().IsEmpty())

	require.NoError(t, engine.Load(1, "/c"))
	assert.True(t, engine.QueryStreams().IsEmpty())
}

func TestConcurrentCalls(t *testing.T) {
	engine := NewEngine()
	engine.SetSink(ports.EventSinkFunc(func(domain.EngineEvent) {}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = engine.Seek(time.Duration(i) * time.Second)
			engine.EmitTick(time.Second)
		}(i)
	}
	wg.Wait()

	assert.Len(t, engine.CallsTo("seek"), 20)

	engine.ResetCalls()
	assert.Empty(t, engine.Calls())
}
