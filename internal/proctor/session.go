// Package proctor implements the server-held state machine for a proctored
// quiz attempt: fullscreen/visibility violation counting, disqualification,
// elapsed-time tracking and submission eligibility. It performs no I/O; the
// owning connection handler applies its effects (warnings, fullscreen exit,
// persistence) and feeds it events.
package proctor

import (
	"errors"
	"sync"
	"time"

	"github.com/luminalearn/lumina-backend/internal/model"
)

// State enumerates the attempt lifecycle. Disqualified and Submitted are
// terminal: no further violation counting or timer updates occur.
type State string

const (
	StateIdle         State = "IDLE"
	StateActive       State = "ACTIVE"
	StateDisqualified State = "DISQUALIFIED"
	StateSubmitted    State = "SUBMITTED"
)

// DefaultMaxViolations is the number of visibility losses that terminates
// an attempt. The third loss itself disqualifies; the first two only warn.
const DefaultMaxViolations = 3

var (
	ErrNoQuestions       = errors.New("proctor: attempt requires at least one question")
	ErrNotActive         = errors.New("proctor: attempt is not active")
	ErrIncompleteAnswers = errors.New("proctor: all questions must be answered before submitting")
)

// Visibility is the outcome of a visibility-loss event.
type Visibility struct {
	Count     int
	Remaining int
	// Terminal is true when this event disqualified the attempt. The owner
	// should force fullscreen exit (best-effort) exactly once.
	Terminal bool
}

// Handoff is the submission payload delivered to the backend scorer.
type Handoff struct {
	Questions      []model.Question
	Answers        map[int]int
	TabSwitchCount int
	ElapsedMs      int64
	Fullscreen     bool
}

// Session is a single proctored attempt. Safe for concurrent use: the tick
// timer and the event stream may run on different goroutines.
type Session struct {
	mu sync.Mutex

	clock         func() time.Time
	maxViolations int

	state          State
	questions      []model.Question
	answers        map[int]int
	tabSwitchCount int
	fullscreen     bool
	startTime      time.Time
	elapsed        time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the time source. Tests use this to drive the timer.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithMaxViolations overrides the disqualification threshold.
func WithMaxViolations(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxViolations = n
		}
	}
}

// NewSession creates an idle session. Call Start to begin the attempt.
func NewSession(opts ...Option) *Session {
	s := &Session{
		clock:         time.Now,
		maxViolations: DefaultMaxViolations,
		state:         StateIdle,
		answers:       make(map[int]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the attempt with the given question set. The fullscreen
// request itself is a browser-side effect; the owner reports its result via
// SetFullscreen, and a failed request is logged, not fatal.
func (s *Session) Start(questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(questions) == 0 {
		return ErrNoQuestions
	}
	if s.state != StateIdle {
		return ErrNotActive
	}

	s.questions = questions
	s.answers = make(map[int]int, len(questions))
	s.tabSwitchCount = 0
	s.startTime = s.clock()
	s.elapsed = 0
	s.state = StateActive
	return nil
}

// SetFullscreen records the reported fullscreen state.
func (s *Session) SetFullscreen(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = on
}

// RecordVisibilityLoss counts one page-hidden event. Violations below the
// threshold warn with the remaining allowance; reaching the threshold
// disqualifies exactly once. Terminal states ignore further events.
func (s *Session) RecordVisibilityLoss() Visibility {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return Visibility{Count: s.tabSwitchCount}
	}

	s.tabSwitchCount++
	if s.tabSwitchCount >= s.maxViolations {
		s.freezeLocked()
		s.state = StateDisqualified
		return Visibility{Count: s.tabSwitchCount, Terminal: true}
	}

	return Visibility{
		Count:     s.tabSwitchCount,
		Remaining: s.maxViolations - s.tabSwitchCount,
	}
}

// RestoreViolations rehydrates the violation count from durable storage
// after a reconnect, so dropping the connection never renews the violation
// allowance. The count only ever moves up; a restored count at or past the
// threshold disqualifies immediately.
func (s *Session) RestoreViolations(count int) Visibility {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive || count <= s.tabSwitchCount {
		return Visibility{Count: s.tabSwitchCount}
	}

	s.tabSwitchCount = count
	if s.tabSwitchCount >= s.maxViolations {
		s.freezeLocked()
		s.state = StateDisqualified
		return Visibility{Count: s.tabSwitchCount, Terminal: true}
	}

	return Visibility{
		Count:     s.tabSwitchCount,
		Remaining: s.maxViolations - s.tabSwitchCount,
	}
}

// Disqualify terminates the attempt. Idempotent: calling it on an already
// terminal session has no effect.
func (s *Session) Disqualify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}
	s.freezeLocked()
	s.state = StateDisqualified
}

// Tick refreshes elapsed time while active. Suspended once terminal.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}
	s.elapsed = s.clock().Sub(s.startTime)
}

// RecordAnswer stores a selected option for a question index. No-op once
// disqualified. An option index outside [0, len(options)) coerces the entry
// to unanswered rather than storing a bogus value.
func (s *Session) RecordAnswer(questionIndex, optionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return
	}
	if optionIndex < 0 || optionIndex >= len(s.questions[questionIndex].Options) {
		delete(s.answers, questionIndex)
		return
	}
	s.answers[questionIndex] = optionIndex
}

// CanSubmit reports whether every question has an answer and the attempt is
// still eligible.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

func (s *Session) canSubmitLocked() bool {
	return s.state == StateActive && len(s.answers) == len(s.questions)
}

// Submit validates eligibility, builds the handoff payload and runs persist.
// The guard is re-checked here, at the point of action, so a submit racing a
// disqualification cannot slip through. A persist failure leaves the attempt
// active and resumable; only a successful persist marks it submitted and
// freezes the timer.
func (s *Session) Submit(persist func(Handoff) error) (*Handoff, error) {
	s.mu.Lock()

	if s.state != StateActive {
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	if !s.canSubmitLocked() {
		s.mu.Unlock()
		return nil, ErrIncompleteAnswers
	}

	s.elapsed = s.clock().Sub(s.startTime)
	handoff := Handoff{
		Questions:      s.questions,
		Answers:        make(map[int]int, len(s.answers)),
		TabSwitchCount: s.tabSwitchCount,
		ElapsedMs:      s.elapsed.Milliseconds(),
		Fullscreen:     s.fullscreen,
	}
	for k, v := range s.answers {
		handoff.Answers[k] = v
	}
	s.mu.Unlock()

	if persist != nil {
		if err := persist(handoff); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: a disqualification may have landed while persisting.
	if s.state != StateActive {
		return nil, ErrNotActive
	}
	s.freezeLocked()
	s.state = StateSubmitted
	return &handoff, nil
}

// freezeLocked pins elapsed time at the moment of the terminal transition.
func (s *Session) freezeLocked() {
	if !s.startTime.IsZero() {
		s.elapsed = s.clock().Sub(s.startTime)
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TabSwitchCount returns the violation count so far.
func (s *Session) TabSwitchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabSwitchCount
}

// Elapsed returns tracked time, frozen once terminal.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// AnswerCount returns how many questions have stored answers.
func (s *Session) AnswerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
