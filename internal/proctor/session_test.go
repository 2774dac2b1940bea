package proctor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalearn/lumina-backend/internal/model"
)

func threeQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", Question: "1+1?", Options: []string{"1", "2", "3", "4"}, CorrectAnswer: 1},
		{ID: "q2", Question: "2+2?", Options: []string{"2", "3", "4", "5"}, CorrectAnswer: 2},
		{ID: "q3", Question: "3+3?", Options: []string{"4", "5", "6", "7"}, CorrectAnswer: 2},
	}
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func newStarted(t *testing.T, clk *fakeClock) *Session {
	t.Helper()
	s := NewSession(WithClock(clk.Now))
	require.NoError(t, s.Start(threeQuestions()))
	return s
}

func TestStartRequiresQuestions(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.Start(nil), ErrNoQuestions)
	assert.Equal(t, StateIdle, s.State())
}

func TestVisibilityLossWarnsThenDisqualifies(t *testing.T) {
	s := newStarted(t, newFakeClock())

	v1 := s.RecordVisibilityLoss()
	assert.False(t, v1.Terminal)
	assert.Equal(t, 1, v1.Count)
	assert.Equal(t, 2, v1.Remaining)
	assert.Equal(t, StateActive, s.State())

	v2 := s.RecordVisibilityLoss()
	assert.False(t, v2.Terminal)
	assert.Equal(t, 1, v2.Remaining)
	assert.Equal(t, StateActive, s.State())

	v3 := s.RecordVisibilityLoss()
	assert.True(t, v3.Terminal)
	assert.Equal(t, 3, v3.Count)
	assert.Equal(t, StateDisqualified, s.State())
}

func TestVisibilityLossAfterTerminalIsNoop(t *testing.T) {
	s := newStarted(t, newFakeClock())
	for range 3 {
		s.RecordVisibilityLoss()
	}

	v := s.RecordVisibilityLoss()
	assert.False(t, v.Terminal)
	assert.Equal(t, 3, s.TabSwitchCount())
	assert.Equal(t, StateDisqualified, s.State())
}

func TestRestoreViolationsKeepsAllowanceAcrossReconnect(t *testing.T) {
	s := newStarted(t, newFakeClock())

	v := s.RestoreViolations(2)
	assert.False(t, v.Terminal)
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, 1, v.Remaining)
	assert.Equal(t, 2, s.TabSwitchCount())

	// One more loss after the restore is the third overall.
	v = s.RecordVisibilityLoss()
	assert.True(t, v.Terminal)
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, StateDisqualified, s.State())
}

func TestRestoreViolationsAtThresholdDisqualifies(t *testing.T) {
	s := newStarted(t, newFakeClock())

	v := s.RestoreViolations(3)
	assert.True(t, v.Terminal)
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, StateDisqualified, s.State())
}

func TestRestoreViolationsNeverLowersCount(t *testing.T) {
	s := newStarted(t, newFakeClock())
	s.RecordVisibilityLoss()
	s.RecordVisibilityLoss()

	v := s.RestoreViolations(1)
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, 2, s.TabSwitchCount())
	assert.Equal(t, StateActive, s.State())
}

func TestRestoreViolationsIgnoredOnceTerminal(t *testing.T) {
	s := newStarted(t, newFakeClock())
	s.Disqualify()

	v := s.RestoreViolations(2)
	assert.False(t, v.Terminal)
	assert.Equal(t, 0, v.Count)
	assert.Equal(t, StateDisqualified, s.State())
}

func TestDisqualifyIsIdempotent(t *testing.T) {
	s := newStarted(t, newFakeClock())
	s.Disqualify()
	s.Disqualify()
	assert.Equal(t, StateDisqualified, s.State())
}

func TestRecordAnswerAfterDisqualificationIsNoop(t *testing.T) {
	s := newStarted(t, newFakeClock())
	s.RecordAnswer(0, 1)
	s.Disqualify()

	s.RecordAnswer(1, 2)
	assert.Equal(t, 1, s.AnswerCount())
}

func TestInvalidOptionIndexOmitsEntry(t *testing.T) {
	s := newStarted(t, newFakeClock())

	s.RecordAnswer(0, 7) // out of range
	assert.Equal(t, 0, s.AnswerCount())

	s.RecordAnswer(0, 1)
	assert.Equal(t, 1, s.AnswerCount())

	// A later invalid value coerces the entry back to unanswered.
	s.RecordAnswer(0, -1)
	assert.Equal(t, 0, s.AnswerCount())
}

func TestCanSubmitBoundary(t *testing.T) {
	s := newStarted(t, newFakeClock())

	s.RecordAnswer(0, 0)
	s.RecordAnswer(1, 1)
	assert.False(t, s.CanSubmit(), "N-1 answered")

	s.RecordAnswer(2, 2)
	assert.True(t, s.CanSubmit(), "all N answered")

	s.RecordAnswer(2, 99) // coerced to unanswered
	assert.False(t, s.CanSubmit())
}

func TestSubmitIncompleteRejectedLocally(t *testing.T) {
	s := newStarted(t, newFakeClock())
	s.RecordAnswer(0, 0)
	s.RecordAnswer(1, 1)

	persistCalls := 0
	_, err := s.Submit(func(Handoff) error {
		persistCalls++
		return nil
	})
	assert.ErrorIs(t, err, ErrIncompleteAnswers)
	assert.Zero(t, persistCalls, "no network call for a local validation error")
	assert.Equal(t, StateActive, s.State())
}

func TestSubmitSuccessHandsOffSecurityData(t *testing.T) {
	clk := newFakeClock()
	s := newStarted(t, clk)
	s.RecordAnswer(0, 0)
	s.RecordAnswer(1, 1)
	s.RecordAnswer(2, 2)
	clk.Advance(90 * time.Second)
	s.Tick()

	h, err := s.Submit(func(h Handoff) error {
		assert.Equal(t, 0, h.TabSwitchCount)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, 0, h.TabSwitchCount)
	assert.Equal(t, int64(90_000), h.ElapsedMs)
	assert.Len(t, h.Answers, 3)
}

func TestSubmitPersistFailureLeavesResumable(t *testing.T) {
	s := newStarted(t, newFakeClock())
	for i := range 3 {
		s.RecordAnswer(i, 0)
	}

	boom := errors.New("backend down")
	_, err := s.Submit(func(Handoff) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateActive, s.State(), "attempt stays resumable")

	// Retry succeeds.
	_, err = s.Submit(nil)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSubmitRacingDisqualificationRechecksGuard(t *testing.T) {
	s := newStarted(t, newFakeClock())
	for i := range 3 {
		s.RecordAnswer(i, 0)
	}

	// Disqualification lands while the persist call is in flight.
	_, err := s.Submit(func(Handoff) error {
		s.Disqualify()
		return nil
	})
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, StateDisqualified, s.State())
}

func TestThreeLossesBeforeSubmitBlocksAnswers(t *testing.T) {
	s := newStarted(t, newFakeClock())
	for range 3 {
		s.RecordVisibilityLoss()
	}

	assert.Equal(t, StateDisqualified, s.State())
	s.RecordAnswer(0, 0)
	assert.Equal(t, 0, s.AnswerCount())

	_, err := s.Submit(nil)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestTickFrozenOnceTerminal(t *testing.T) {
	clk := newFakeClock()
	s := newStarted(t, clk)

	clk.Advance(10 * time.Second)
	s.Tick()
	assert.Equal(t, 10*time.Second, s.Elapsed())

	s.Disqualify()
	frozen := s.Elapsed()

	clk.Advance(time.Minute)
	s.Tick()
	assert.Equal(t, frozen, s.Elapsed())
}
