package voice

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newListening(t *testing.T) (*Capture, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewCapture(true, WithCaptureClock(clk.Now))
	require.NoError(t, c.StartListening())
	return c, clk
}

func TestStartListeningUnsupported(t *testing.T) {
	c := NewCapture(false)
	assert.ErrorIs(t, c.StartListening(), ErrUnsupported)
	assert.False(t, c.IsListening())
}

func TestSpeechResultAppendsFinalOnce(t *testing.T) {
	c, _ := newListening(t)

	c.OnSpeechResult("", "hel")
	c.OnSpeechResult("", "hello wor")
	assert.Equal(t, "", c.FinalText(), "interim never appended")
	assert.Equal(t, "hello wor", c.InterimText())

	c.OnSpeechResult("hello world", "")
	c.OnSpeechResult("how are you", "")
	assert.Equal(t, "hello world how are you", c.FinalText())
	assert.Equal(t, "", c.InterimText())
}

func TestSilenceTimeoutForcesStop(t *testing.T) {
	c, clk := newListening(t)

	clk.Advance(DefaultSilenceTimeout - time.Second)
	assert.False(t, c.OnSilenceTimeout(), "deadline not reached")
	assert.True(t, c.IsListening())

	clk.Advance(2 * time.Second)
	assert.True(t, c.OnSilenceTimeout())
	assert.False(t, c.IsListening())
}

func TestSpeechReArmsSilenceDeadline(t *testing.T) {
	c, clk := newListening(t)

	clk.Advance(9 * time.Second)
	c.OnSpeechResult("still talking", "")

	clk.Advance(9 * time.Second)
	assert.False(t, c.OnSilenceTimeout(), "speech re-armed the deadline")
	assert.True(t, c.IsListening())
}

func TestStopListeningIdempotent(t *testing.T) {
	c, _ := newListening(t)
	c.OnSpeechResult("", "partial")

	c.StopListening()
	assert.False(t, c.IsListening())
	assert.Equal(t, "", c.InterimText())
	assert.True(t, c.SilenceDeadline().IsZero())

	// Second call has no observable effect and raises no error.
	c.StopListening()
	assert.False(t, c.IsListening())
}

func TestRecognitionEndRestartsTransparently(t *testing.T) {
	c, _ := newListening(t)

	restarts := 0
	err := c.OnRecognitionEnd(false, func() error {
		restarts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, restarts)
	assert.True(t, c.IsListening(), "dictation continues across engine restarts")
}

func TestRecognitionEndRestartFailureFallsBackStopped(t *testing.T) {
	c, _ := newListening(t)

	err := c.OnRecognitionEnd(false, func() error {
		return errors.New("engine gone")
	})
	assert.ErrorIs(t, err, ErrRestartFailed)
	assert.False(t, c.IsListening())
}

func TestRecognitionEndUserRequested(t *testing.T) {
	c, _ := newListening(t)
	require.NoError(t, c.OnRecognitionEnd(true, nil))
	assert.False(t, c.IsListening())
}

func TestErrorTaxonomy(t *testing.T) {
	c, _ := newListening(t)
	assert.NoError(t, c.OnError("no-speech"))
	assert.True(t, c.IsListening(), "no-speech is swallowed")

	assert.ErrorIs(t, c.OnError("not-allowed"), ErrPermissionDenied)
	assert.False(t, c.IsListening())

	c2, _ := newListening(t)
	err := c2.OnError("network")
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "network", engineErr.Code)
	assert.False(t, c2.IsListening())

	c3, _ := newListening(t)
	assert.NoError(t, c3.OnError("aborted"))
	assert.False(t, c3.IsListening())
}
