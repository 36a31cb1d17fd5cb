package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnteredState(t *testing.T) {
	failed := StoppedState()
	failed.Tag = StateError

	playing := StoppedState()
	playing.Tag = StatePlaying

	filter := EnteredState(StateStopped, StateError)
	assert.True(t, filter(NewStateChangedEvent(StatePlaying, StoppedState())))
	assert.True(t, filter(NewStateChangedEvent(StateLoading, failed)))
	assert.False(t, filter(NewStateChangedEvent(StateStopped, StoppedState())), "same tag")
	assert.False(t, filter(NewStateChangedEvent(StateLoading, playing)))
	assert.False(t, filter(NewEngineWarningEvent("x")), "other event types")
	assert.False(t, EnteredState()(NewStateChangedEvent(StatePlaying, StoppedState())))
}
