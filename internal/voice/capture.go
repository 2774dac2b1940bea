// Package voice implements the session state machines for voice interaction:
// continuous speech capture with a silence-based auto-stop, and serialized
// playback of synthesized responses. Like internal/proctor, the machines do
// no I/O themselves; the owning handler relays engine events in and applies
// the returned effects.
package voice

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultSilenceTimeout stops a capture session after this long without a
// recognized speech event.
const DefaultSilenceTimeout = 10 * time.Second

var (
	// ErrUnsupported is returned when the client platform reports no
	// speech-recognition capability. Checked before starting, never mid-flight.
	ErrUnsupported = errors.New("voice: speech recognition is not supported on this platform")

	// ErrPermissionDenied is terminal for the session: a new user gesture is
	// required before capture can be retried.
	ErrPermissionDenied = errors.New("voice: microphone permission denied")

	// ErrRestartFailed is recoverable: the engine ended on its own and could
	// not be restarted, so capture fell back to stopped.
	ErrRestartFailed = errors.New("voice: failed to restart recognition")
)

// EngineError is a retryable engine-level failure (anything other than
// no-speech, aborted, or a permission denial).
type EngineError struct {
	Code string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("voice: recognition error %q", e.Code)
}

// Capture accumulates finalized transcript text while listening and tracks
// the transient interim preview. States: stopped ⇄ listening, with a
// silence deadline forcing the transition back to stopped.
type Capture struct {
	mu sync.Mutex

	clock          func() time.Time
	silenceTimeout time.Duration
	supported      bool

	listening       bool
	finalized       strings.Builder
	interim         string
	silenceDeadline time.Time
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithCaptureClock replaces the time source.
func WithCaptureClock(clock func() time.Time) CaptureOption {
	return func(c *Capture) { c.clock = clock }
}

// WithSilenceTimeout overrides the silence window.
func WithSilenceTimeout(d time.Duration) CaptureOption {
	return func(c *Capture) {
		if d > 0 {
			c.silenceTimeout = d
		}
	}
}

// NewCapture creates a stopped capture session. supported reflects the
// client-reported speech-recognition capability.
func NewCapture(supported bool, opts ...CaptureOption) *Capture {
	c := &Capture{
		clock:          time.Now,
		silenceTimeout: DefaultSilenceTimeout,
		supported:      supported,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartListening transitions to listening and arms the silence deadline.
// Fails with ErrUnsupported when the platform lacks the capability; the
// caller surfaces a message instead of crashing the session.
func (c *Capture) StartListening() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.supported {
		return ErrUnsupported
	}
	if c.listening {
		return nil
	}
	c.listening = true
	c.silenceDeadline = c.clock().Add(c.silenceTimeout)
	return nil
}

// OnSpeechResult ingests one recognition callback. The finalized segment is
// appended exactly once; the interim segment replaces the preview and is
// never appended. Every speech event re-arms the silence deadline.
func (c *Capture) OnSpeechResult(finalSegment, interimSegment string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.listening {
		return
	}
	if finalSegment != "" {
		if c.finalized.Len() > 0 {
			c.finalized.WriteByte(' ')
		}
		c.finalized.WriteString(strings.TrimSpace(finalSegment))
	}
	c.interim = interimSegment
	c.silenceDeadline = c.clock().Add(c.silenceTimeout)
}

// OnSilenceTimeout stops listening when the deadline has passed with no
// speech event. Returns true when the timeout actually fired; a deadline
// re-armed by late speech makes this a no-op.
func (c *Capture) OnSilenceTimeout() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.listening || c.clock().Before(c.silenceDeadline) {
		return false
	}
	c.stopLocked()
	return true
}

// StopListening cancels the silence deadline, clears the interim preview and
// transitions to stopped. Idempotent.
func (c *Capture) StopListening() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Capture) stopLocked() {
	c.listening = false
	c.interim = ""
	c.silenceDeadline = time.Time{}
}

// OnRecognitionEnd handles the engine ending on its own. When the controller
// still believes it should be listening (userRequestedStop false), capture is
// restarted transparently so continuous dictation is not silently truncated.
// A failed restart falls back to stopped with ErrRestartFailed (recoverable).
func (c *Capture) OnRecognitionEnd(userRequestedStop bool, restart func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.listening {
		return nil
	}
	if userRequestedStop {
		c.stopLocked()
		return nil
	}

	if restart != nil {
		if err := restart(); err == nil {
			c.silenceDeadline = c.clock().Add(c.silenceTimeout)
			return nil
		}
	}
	c.stopLocked()
	return ErrRestartFailed
}

// OnError maps an engine error code onto the session. "no-speech" is
// swallowed and listening continues; "aborted" is the engine acknowledging
// our own stop; permission denials are terminal; everything else stops
// listening with a retryable EngineError.
func (c *Capture) OnError(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch code {
	case "no-speech":
		return nil
	case "aborted":
		c.stopLocked()
		return nil
	case "not-allowed", "service-not-allowed":
		c.stopLocked()
		return ErrPermissionDenied
	default:
		c.stopLocked()
		return &EngineError{Code: code}
	}
}

// IsListening reports the capture state.
func (c *Capture) IsListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// FinalText returns the accumulated finalized transcript.
func (c *Capture) FinalText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalized.String()
}

// InterimText returns the transient preview, empty once stopped.
func (c *Capture) InterimText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interim
}

// SilenceDeadline returns the current deadline, zero when stopped.
func (c *Capture) SilenceDeadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.silenceDeadline
}
