package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaySwitchesToNewID(t *testing.T) {
	p := NewPlayback()

	action, err := p.Play("a")
	require.NoError(t, err)
	assert.Equal(t, ActionLoad, action)
	p.Ready("a")
	assert.Equal(t, "a", p.PlayingID())

	// Requesting a different id stops the first before loading the second.
	action, err = p.Play("b")
	require.NoError(t, err)
	assert.Equal(t, ActionLoad, action)
	assert.Equal(t, "", p.PlayingID(), "never two audible at once")

	p.Ready("b")
	assert.Equal(t, "b", p.PlayingID())
}

func TestPlaySameIDTogglesOff(t *testing.T) {
	p := NewPlayback()
	_, err := p.Play("a")
	require.NoError(t, err)
	p.Ready("a")

	action, err := p.Play("a")
	require.NoError(t, err)
	assert.Equal(t, ActionStopped, action)
	assert.Equal(t, "", p.PlayingID())
}

func TestPlayWhileLoadingRejected(t *testing.T) {
	p := NewPlayback()
	_, err := p.Play("a")
	require.NoError(t, err)

	_, err = p.Play("b")
	assert.ErrorIs(t, err, ErrLoadingBusy)
	assert.Equal(t, "a", p.LoadingID())
}

func TestFailedLoadClearsSlot(t *testing.T) {
	p := NewPlayback()
	_, err := p.Play("a")
	require.NoError(t, err)

	p.Failed("a")
	assert.Equal(t, "", p.LoadingID())

	_, err = p.Play("b")
	assert.NoError(t, err)
}

func TestCompletedClearsPlaying(t *testing.T) {
	p := NewPlayback()
	_, _ = p.Play("a")
	p.Ready("a")

	p.Completed("a")
	assert.Equal(t, "", p.PlayingID())

	// Stale completion for a different id is ignored.
	_, _ = p.Play("b")
	p.Ready("b")
	p.Completed("a")
	assert.Equal(t, "b", p.PlayingID())
}
