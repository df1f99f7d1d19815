package attempt

import (
	"errors"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

var (
	ErrNoActiveTest         = errors.New("no active test")
	ErrEmptyTest            = errors.New("test has no questions")
	ErrAttemptActive        = errors.New("an attempt is already in progress")
	ErrOptionOutOfRange     = errors.New("option out of range")
	ErrConfirmationRequired = errors.New("abandon requires confirmation")
)

type Options struct {
	Policy ClearPolicy
	Clock  Clock
}

// Session is one in-progress run of a test. It is not safe for concurrent use; the
// Manager serialises access.
type Session struct {
	ID        string
	test      quiz.Test
	statuses  []Status
	answers   []*int
	spent     []time.Duration
	current   int
	selection *int
	startedAt time.Time
	lastMark  time.Time
	clock     Clock
	policy    ClearPolicy
	timer     *Timer
}

// Start opens a session on question 0. The test is copied so later edits to the
// saved test cannot leak into the attempt.
func Start(t quiz.Test, opts Options) (*Session, error) {
	if len(t.Questions) == 0 {
		return nil, ErrEmptyTest
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	n := len(t.Questions)
	s := &Session{
		ID:       quiz.NewID(),
		test:     t.Clone(),
		statuses: make([]Status, n),
		answers:  make([]*int, n),
		spent:    make([]time.Duration, n),
		clock:    clock,
		policy:   opts.Policy,
	}
	for i := range s.statuses {
		s.statuses[i] = NotVisited
	}
	s.statuses[0] = NotAnswered
	s.startedAt = clock.Now()
	s.lastMark = s.startedAt
	return s, nil
}

func (s *Session) Test() quiz.Test { return s.test }
func (s *Session) Len() int        { return len(s.statuses) }
func (s *Session) Current() int    { return s.current }

func (s *Session) Statuses() []Status { return append([]Status(nil), s.statuses...) }

// Selection returns the option currently picked on screen for the current question.
func (s *Session) Selection() (int, bool) {
	if s.selection == nil {
		return 0, false
	}
	return *s.selection, true
}

// Answer returns the committed answer for question i.
func (s *Session) Answer(i int) (int, bool) {
	if s.answers[i] == nil {
		return 0, false
	}
	return *s.answers[i], true
}

// Spent returns the time accumulated on question i so far.
func (s *Session) Spent(i int) time.Duration { return s.spent[i] }

func (s *Session) Select(option int) error {
	if option < 0 || option >= len(s.test.Questions[s.current].Options) {
		return ErrOptionOutOfRange
	}
	s.selection = &option
	return nil
}

func (s *Session) Clear() { s.selection = nil }

// MarkForReview flags the current question, keeping track of whether an option is
// selected at the time.
func (s *Session) MarkForReview() {
	if s.selection != nil {
		s.statuses[s.current] = MarkedAnswered
		return
	}
	s.statuses[s.current] = Marked
}

// Navigate commits the current question and moves to j. An out-of-range j commits but
// keeps the index, so Next on the last question stays put. It reports whether the
// index changed.
func (s *Session) Navigate(j int) bool {
	s.commit()
	if j < 0 || j >= len(s.statuses) || j == s.current {
		return false
	}
	s.current = j
	if s.statuses[j] == NotVisited {
		s.statuses[j] = NotAnswered
	}
	s.selection = clonePtr(s.answers[j])
	return true
}

func (s *Session) Next() bool { return s.Navigate(s.current + 1) }
func (s *Session) Prev() bool { return s.Navigate(s.current - 1) }

// commit books elapsed time to the current question and stores its selection.
func (s *Session) commit() {
	now := s.clock.Now()
	if d := now.Sub(s.lastMark); d > 0 {
		s.spent[s.current] += d
	}
	s.lastMark = now
	s.answers[s.current] = clonePtr(s.selection)
	s.statuses[s.current] = settle(s.statuses[s.current], s.answers[s.current] != nil, s.policy)
}

// Finish commits the current question and produces the graded attempt.
func (s *Session) Finish() quiz.Attempt {
	s.commit()
	n := len(s.statuses)
	a := quiz.Attempt{
		ID:          quiz.NewID(),
		Test:        s.test.Clone(),
		Answers:     make([]*int, n),
		TimeSpent:   make([]int, n),
		CompletedAt: s.lastMark,
	}
	var total time.Duration
	for i := 0; i < n; i++ {
		a.Answers[i] = clonePtr(s.answers[i])
		a.TimeSpent[i] = int(s.spent[i].Round(time.Second) / time.Second)
		total += s.spent[i]
	}
	a.TotalTime = int(total.Round(time.Second) / time.Second)
	return quiz.Grade(a)
}

// Arm starts the countdown for the test's duration, replacing any running timer.
func (s *Session) Arm(onExpire func()) {
	s.Disarm()
	s.timer = StartTimer(s.clock, s.test.Duration*60, onExpire)
}

func (s *Session) Disarm() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Remaining returns the seconds left on the countdown, or 0 if it is not armed.
func (s *Session) Remaining() int { return s.timer.Remaining() }

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
